package handlers

import (
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/callback"
	"ExchangeBot/internal/formatters"
	"ExchangeBot/internal/guard"
	"ExchangeBot/internal/reasons"
	"ExchangeBot/internal/tracker"
)

// queryLocation - адрес сообщения, с которого пришло нажатие.
func queryLocation(query *tgbotapi.CallbackQuery) tracker.Location {
	return tracker.Location{
		ChatID:    query.Message.Chat.ID,
		MessageID: query.Message.MessageID,
	}
}

// --- Мутации: меняют статус заказа и рассылают обновление всем
// живым сообщениям. ---

func (bh *BotHandler) handleAssignOrder(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	order, err := bh.Deps.Machine.Assign(token.OrderID, query.From.ID)
	if err != nil {
		return errorResult(err)
	}

	text := formatters.FormatOrderCard(order)
	bh.Deps.Broadcaster.SyncAll(order.ID, text, KeyboardForOrder(order))
	return guard.Result{Text: "Заказ взят в работу"}
}

func (bh *BotHandler) handleConfirmComplete(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	order, err := bh.Deps.Machine.Complete(token.OrderID, query.From.ID)
	if err != nil {
		return errorResult(err)
	}

	text := formatters.FormatOrderCard(order)
	bh.Deps.Broadcaster.SyncAll(order.ID, text, KeyboardForOrder(order))
	bh.notifyClient(order, "✅ Ваш заказ выполнен. Спасибо, что выбрали нас!")
	return guard.Result{Text: "Заказ завершен"}
}

func (bh *BotHandler) handleConfirmCancel(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	reason, err := reasons.ByIndex(token.ReasonIndex)
	if err != nil {
		log.Printf("[CALLBACK] Индекс причины вне каталога в токене %q: %v", query.Data, err)
		return guard.Result{Text: "Причина отмены устарела, откройте список заново", Alert: true}
	}

	order, err := bh.Deps.Machine.Cancel(token.OrderID, query.From.ID, reason.ID)
	if err != nil {
		return errorResult(err)
	}

	text := formatters.FormatOrderCard(order)
	bh.Deps.Broadcaster.SyncAll(order.ID, text, KeyboardForOrder(order))
	bh.notifyClient(order, "❌ Ваш заказ отменен. Причина: "+reason.Label)
	return guard.Result{Text: "Заказ отменен"}
}

// --- Навигация: переключает клавиатуру и маркер только на том
// сообщении, где нажата кнопка. Статус заказа не меняется. ---

// ensureOrderExists перечитывает заказ перед построением клавиатуры.
// Токен приходит снаружи и может нести произвольный ID: клавиатуры
// собираются только для реально существующих заказов.
func (bh *BotHandler) ensureOrderExists(orderID string) (guard.Result, bool) {
	_, found, err := bh.Deps.Machine.Store.FindByID(orderID)
	if err != nil {
		return errorResult(err), false
	}
	if !found {
		return guard.Result{Text: "Заказ не найден", Alert: true}, false
	}
	return guard.Result{}, true
}

func (bh *BotHandler) handleShowCompleteConfirm(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	if res, ok := bh.ensureOrderExists(token.OrderID); !ok {
		return res
	}
	text := formatters.AppendCompleteConfirm(query.Message.Text)
	if err := bh.Deps.Broadcaster.SyncOne(queryLocation(query), text, CompleteConfirmKeyboard(token.OrderID)); err != nil {
		return errorResult(err)
	}
	return guard.Result{}
}

func (bh *BotHandler) handleShowCancelReasons(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	if res, ok := bh.ensureOrderExists(token.OrderID); !ok {
		return res
	}
	text := formatters.AppendCancelReasons(query.Message.Text)
	if err := bh.Deps.Broadcaster.SyncOne(queryLocation(query), text, CancelReasonsKeyboard(token.OrderID)); err != nil {
		return errorResult(err)
	}
	return guard.Result{}
}

func (bh *BotHandler) handleSelectCancelReason(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	reason, err := reasons.ByIndex(token.ReasonIndex)
	if err != nil {
		log.Printf("[CALLBACK] Индекс причины вне каталога в токене %q: %v", query.Data, err)
		return guard.Result{Text: "Причина отмены устарела, откройте список заново", Alert: true}
	}
	if res, ok := bh.ensureOrderExists(token.OrderID); !ok {
		return res
	}

	text := formatters.AppendReasonConfirm(query.Message.Text, reason)
	if err := bh.Deps.Broadcaster.SyncOne(queryLocation(query), text, ReasonConfirmKeyboard(token.OrderID, reason.Index)); err != nil {
		return errorResult(err)
	}
	return guard.Result{}
}

// handleBackToOrderButtons снимает маркер и возвращает базовую клавиатуру.
// Статус перечитывается из БД: пока оператор ходил по меню, заказ мог
// измениться, и клавиатура должна отражать актуальное состояние.
func (bh *BotHandler) handleBackToOrderButtons(query *tgbotapi.CallbackQuery, token callback.Token) guard.Result {
	order, found, err := bh.Deps.Machine.Store.FindByID(token.OrderID)
	if err != nil {
		return errorResult(err)
	}
	if !found {
		return guard.Result{Text: "Заказ не найден", Alert: true}
	}

	text := formatters.StripMarker(query.Message.Text)
	if err := bh.Deps.Broadcaster.SyncOne(queryLocation(query), text, KeyboardForOrder(order)); err != nil {
		return errorResult(err)
	}
	return guard.Result{}
}
