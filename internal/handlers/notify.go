package handlers

import (
	"fmt"
	"log"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/formatters"
	"ExchangeBot/internal/models"
	"ExchangeBot/internal/telegram_api"
	"ExchangeBot/internal/utils"
)

// NotifyNewOrder рассылает карточку нового заказа по рабочим чатам:
// общая группа операторов, топик валюты и бухгалтерия. Каждая отправка
// регистрируется, чтобы дальнейшие изменения статуса долетали во все
// копии карточки. Клиенту уходит QR-код адреса депозита.
func (bh *BotHandler) NotifyNewOrder(order models.Order) {
	text := formatters.FormatOrderCard(order)
	keyboard := KeyboardForOrder(order)
	cfg := bh.Deps.Config

	type target struct {
		notifType string
		chatID    int64
		topicID   int
	}
	targets := []target{}
	if cfg.OperatorGroupChatID != 0 {
		targets = append(targets, target{constants.NOTIF_TYPE_OPERATOR_GROUP, cfg.OperatorGroupChatID, 0})
		if topicID, ok := cfg.CurrencyTopics[order.CryptoCurrency]; ok {
			targets = append(targets, target{constants.NOTIF_TYPE_CURRENCY_TOPIC, cfg.OperatorGroupChatID, topicID})
		}
	}
	if cfg.AccountingChatID != 0 {
		targets = append(targets, target{constants.NOTIF_TYPE_ACCOUNTING, cfg.AccountingChatID, 0})
	}

	for _, t := range targets {
		sent, err := telegram_api.SendCardMessage(bh.Deps.BotClient, t.chatID, t.topicID, text, keyboard)
		if err != nil {
			log.Printf("[NOTIFY] Заказ %s: не удалось отправить карточку (%s): %v", order.ID, t.notifType, err)
			continue
		}
		if err := bh.Deps.Broadcaster.Register(order.ID, t.notifType, t.chatID, sent.MessageID, t.topicID); err != nil {
			log.Printf("[NOTIFY] Заказ %s: карточка (%s) отправлена, но не зарегистрирована: %v", order.ID, t.notifType, err)
		}
	}

	bh.sendClientQR(order)
}

// sendClientQR отправляет клиенту QR-код адреса депозита с инструкцией.
func (bh *BotHandler) sendClientQR(order models.Order) {
	if !order.ClientChatID.Valid {
		return
	}
	png, err := utils.GenerateAddressQR(order.DepositAddress)
	if err != nil {
		log.Printf("[NOTIFY] Заказ %s: ошибка генерации QR: %v", order.ID, err)
		return
	}
	caption := fmt.Sprintf("Переведите %s %s на адрес:\n%s",
		utils.FormatCryptoAmount(order.CryptoAmount), order.CryptoCurrency, order.DepositAddress)
	if _, err := telegram_api.SendPhotoBytes(bh.Deps.BotClient, order.ClientChatID.Int64, "deposit_qr.png", png, caption); err != nil {
		log.Printf("[NOTIFY] Заказ %s: не удалось отправить QR клиенту %d: %v", order.ID, order.ClientChatID.Int64, err)
	}
}

// notifyClient отправляет клиенту заказа текстовое уведомление,
// если клиент известен.
func (bh *BotHandler) notifyClient(order models.Order, text string) {
	if !order.ClientChatID.Valid {
		return
	}
	if _, err := telegram_api.SendMessage(bh.Deps.BotClient, order.ClientChatID.Int64, text); err != nil {
		log.Printf("[NOTIFY] Заказ %s: не удалось уведомить клиента %d: %v", order.ID, order.ClientChatID.Int64, err)
	}
}

// ResyncOrder приводит все живые сообщения заказа к актуальному
// состоянию. Используется, когда статус меняется не с кнопки
// (например, по сигналу об оплате от витрины).
func (bh *BotHandler) ResyncOrder(order models.Order) {
	text := formatters.FormatOrderCard(order)
	bh.Deps.Broadcaster.SyncAll(order.ID, text, KeyboardForOrder(order))
}
