package constants

// Order Statuses
// Статусы заказа. Переходы между ними разрешены только по таблице в internal/orderflow.
const (
	STATUS_PENDING    = "pending"    // Заказ создан витриной, ожидает оплаты клиента
	STATUS_PAID       = "paid"       // Клиент оплатил, заказ ждет оператора
	STATUS_PROCESSING = "processing" // Оператор взял заказ в работу
	STATUS_COMPLETED  = "completed"  // Средства выданы, заказ закрыт
	STATUS_CANCELLED  = "cancelled"  // Заказ отменен оператором
	STATUS_FAILED     = "failed"     // Техническая ошибка на стороне витрины/платежки
)

// StatusDisplayMap - отображаемые названия статусов для карточек и отчетов.
var StatusDisplayMap = map[string]string{
	STATUS_PENDING:    "🕓 Ожидает оплаты",
	STATUS_PAID:       "💰 Оплачен",
	STATUS_PROCESSING: "⚙️ В работе",
	STATUS_COMPLETED:  "✅ Выполнен",
	STATUS_CANCELLED:  "❌ Отменен",
	STATUS_FAILED:     "⛔ Ошибка",
}

// Callback Prefixes
// Префиксы callback-токенов. Лимит Telegram на callback_data - 64 байта,
// поэтому префиксы шагов с индексом причины сокращены (scr/ccl/bto).
const (
	CALLBACK_PREFIX_TAKE_ORDER       = "take_order_"       // взять заказ (мутация)
	CALLBACK_PREFIX_COMPLETE_ORDER   = "complete_order_"   // показать подтверждение завершения (навигация)
	CALLBACK_PREFIX_CANCEL_COMPLETE  = "cancel_complete_"  // назад с подтверждения завершения (навигация)
	CALLBACK_PREFIX_CONFIRM_COMPLETE = "confirm_complete_" // завершить заказ (мутация)
	CALLBACK_PREFIX_CANCEL_ORDER     = "cancel_order_"     // показать список причин отмены (навигация)
	CALLBACK_PREFIX_SELECT_REASON    = "scr_"              // выбрать причину отмены (навигация)
	CALLBACK_PREFIX_CONFIRM_CANCEL   = "ccl_"              // отменить заказ с причиной (мутация)
	CALLBACK_PREFIX_BACK_TO_ORDER    = "bto_"              // назад к кнопкам заказа (навигация)
)

// Notification Types
// Типы отслеживаемых сообщений: одна карточка заказа на каждую поверхность.
// Пара (order_id, notification_type) уникальна в таблице tracked_messages.
const (
	NOTIF_TYPE_OPERATOR_GROUP = "operator_group" // основная карточка в группе операторов
	NOTIF_TYPE_CURRENCY_TOPIC = "currency_topic" // карточка в топике валюты
	NOTIF_TYPE_ACCOUNTING     = "accounting"     // карточка в чате бухгалтерии
)

// User Roles
// Роли персонала.
const (
	ROLE_OPERATOR = "operator"
	ROLE_OWNER    = "owner"
)

// Action Classes
// Классы действий для rate-лимитера: у мутаций и навигации разные окна и лимиты.
const (
	ACTION_CLASS_MUTATION   = "mutation"
	ACTION_CLASS_NAVIGATION = "navigation"
)

// MAX_CALLBACK_DATA_BYTES - лимит Telegram на размер callback_data.
const MAX_CALLBACK_DATA_BYTES = 64

// SupportedCurrencies - криптовалюты, которые принимает витрина.
var SupportedCurrencies = map[string]bool{
	"BTC":  true,
	"ETH":  true,
	"USDT": true,
}
