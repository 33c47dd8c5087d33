package handlers

import (
	"errors"
	"log"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/callback"
	"ExchangeBot/internal/guard"
	"ExchangeBot/internal/orderflow"
	"ExchangeBot/internal/telegram_api"
	"ExchangeBot/internal/utils"
)

// HandleCallbackQuery - маршрутизатор нажатий кнопок на карточках заказов.
// Порядок проверок: разбор токена, права, лимит запросов, кэш
// идемпотентности, и только затем выполнение действия.
func (bh *BotHandler) HandleCallbackQuery(query *tgbotapi.CallbackQuery) {
	token, err := callback.Decode(query.Data)
	if err != nil {
		// Токен не из нашей клавиатуры. Молча игнорируем: отвечать
		// нечем, а логи покажут, если это системная проблема.
		log.Printf("[CALLBACK] Неразборный токен %q от %d: %v", query.Data, query.From.ID, err)
		return
	}

	operator, found, err := bh.Deps.Operators.FindByChatID(query.From.ID)
	if err != nil {
		telegram_api.AnswerCallback(bh.Deps.BotClient, query.ID, "Внутренняя ошибка, попробуйте позже", true)
		return
	}
	if !found || !utils.IsOperatorOrHigher(operator) {
		telegram_api.AnswerCallback(bh.Deps.BotClient, query.ID, "Недостаточно прав", true)
		return
	}

	now := time.Now()
	if err := bh.Deps.Guard.Allow(token.ActionClass(), query.From.ID, now); err != nil {
		telegram_api.AnswerCallback(bh.Deps.BotClient, query.ID, "Слишком много запросов, подождите немного", true)
		return
	}

	// Telegram может доставить одно нажатие повторно. Для мутаций
	// ключ закрепляется атомарно: повторная доставка получает готовый
	// ответ (или "уже обрабатывается"), действие заново не выполняется.
	if token.IsMutation() {
		if prior, done := bh.Deps.Guard.Claim(query.ID, now); done {
			telegram_api.AnswerCallback(bh.Deps.BotClient, query.ID, prior.Text, prior.Alert)
			return
		}
	}

	var result guard.Result
	switch token.Verb {
	case callback.VerbAssignOrder:
		result = bh.handleAssignOrder(query, token)
	case callback.VerbConfirmComplete:
		result = bh.handleConfirmComplete(query, token)
	case callback.VerbConfirmCancel:
		result = bh.handleConfirmCancel(query, token)
	case callback.VerbShowCompleteConfirm:
		result = bh.handleShowCompleteConfirm(query, token)
	case callback.VerbCancelCompleteConfirm:
		result = bh.handleBackToOrderButtons(query, token)
	case callback.VerbShowCancelReasons:
		result = bh.handleShowCancelReasons(query, token)
	case callback.VerbSelectCancelReason:
		result = bh.handleSelectCancelReason(query, token)
	case callback.VerbBackToOrderButtons:
		result = bh.handleBackToOrderButtons(query, token)
	default:
		log.Printf("[CALLBACK] Неизвестный глагол %v в токене %q", token.Verb, query.Data)
		return
	}

	if token.IsMutation() {
		bh.Deps.Guard.StoreResult(query.ID, result, now)
	}
	telegram_api.AnswerCallback(bh.Deps.BotClient, query.ID, result.Text, result.Alert)
}

// errorResult переводит ошибки машины состояний в ответ оператору.
func errorResult(err error) guard.Result {
	switch {
	case errors.Is(err, orderflow.ErrNotFound):
		return guard.Result{Text: "Заказ не найден", Alert: true}
	case errors.Is(err, orderflow.ErrAlreadyAssigned):
		return guard.Result{Text: "Заказ уже взят другим оператором", Alert: true}
	case errors.Is(err, orderflow.ErrInvalidStatus):
		return guard.Result{Text: "Статус заказа уже изменился, действие неактуально", Alert: true}
	case errors.Is(err, orderflow.ErrOperatorMismatch):
		return guard.Result{Text: "Заказ закреплен за другим оператором", Alert: true}
	default:
		return guard.Result{Text: "Внутренняя ошибка, попробуйте позже", Alert: true}
	}
}
