package handlers

import (
	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/callback"
	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
	"ExchangeBot/internal/reasons"
)

func mustEncode(t callback.Token) string {
	data, err := callback.Encode(t)
	if err != nil {
		// Токены собираются из UUID и индексов каталога, лимит в 64
		// байта нарушиться не может.
		panic(err)
	}
	return data
}

// KeyboardForOrder возвращает базовую клавиатуру карточки по статусу.
// Для терминальных статусов клавиатуры нет.
func KeyboardForOrder(order models.Order) *tgbotapi.InlineKeyboardMarkup {
	switch order.Status {
	case constants.STATUS_PENDING, constants.STATUS_PAID:
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🤝 Взять заказ",
					mustEncode(callback.Token{Verb: callback.VerbAssignOrder, OrderID: order.ID})),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отменить",
					mustEncode(callback.Token{Verb: callback.VerbShowCancelReasons, OrderID: order.ID})),
			),
		)
		return &kb
	case constants.STATUS_PROCESSING:
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ Завершить",
					mustEncode(callback.Token{Verb: callback.VerbShowCompleteConfirm, OrderID: order.ID})),
			),
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("❌ Отменить",
					mustEncode(callback.Token{Verb: callback.VerbShowCancelReasons, OrderID: order.ID})),
			),
		)
		return &kb
	default:
		return nil
	}
}

// CompleteConfirmKeyboard - клавиатура подтверждения завершения.
func CompleteConfirmKeyboard(orderID string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить",
				mustEncode(callback.Token{Verb: callback.VerbConfirmComplete, OrderID: orderID})),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад",
				mustEncode(callback.Token{Verb: callback.VerbCancelCompleteConfirm, OrderID: orderID})),
		),
	)
	return &kb
}

// CancelReasonsKeyboard - список причин отмены из каталога, по кнопке
// на причину, плюс возврат к базовой клавиатуре.
func CancelReasonsKeyboard(orderID string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range reasons.All() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(r.Label,
				mustEncode(callback.Token{Verb: callback.VerbSelectCancelReason, OrderID: orderID, ReasonIndex: r.Index})),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад",
			mustEncode(callback.Token{Verb: callback.VerbBackToOrderButtons, OrderID: orderID})),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// ReasonConfirmKeyboard - подтверждение отмены с выбранной причиной.
// "Назад" возвращает к списку причин.
func ReasonConfirmKeyboard(orderID string, reasonIndex int) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить",
				mustEncode(callback.Token{Verb: callback.VerbConfirmCancel, OrderID: orderID, ReasonIndex: reasonIndex})),
			tgbotapi.NewInlineKeyboardButtonData("🔙 Назад",
				mustEncode(callback.Token{Verb: callback.VerbShowCancelReasons, OrderID: orderID})),
		),
	)
	return &kb
}
