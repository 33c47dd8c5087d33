package handlers

import (
	"log"
	"os"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/db"
	"ExchangeBot/internal/reports"
	"ExchangeBot/internal/telegram_api"
	"ExchangeBot/internal/utils"
)

const helpText = `Команды:
/start - регистрация оператора
/report - выгрузка заказов за 30 дней в Excel (только владелец)
/help - эта справка`

// HandleMessage обрабатывает команды операторов в личных чатах с ботом.
func (bh *BotHandler) HandleMessage(message *tgbotapi.Message) {
	if !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start":
		bh.handleStartCommand(message)
	case "report":
		bh.handleReportCommand(message)
	case "help":
		if _, err := telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID, helpText); err != nil {
			log.Printf("[MESSAGE] Не удалось отправить справку в чат %d: %v", message.Chat.ID, err)
		}
	}
}

// handleStartCommand регистрирует оператора. Владелец определяется по
// OWNER_CHAT_ID из конфигурации.
func (bh *BotHandler) handleStartCommand(message *tgbotapi.Message) {
	role := constants.ROLE_OPERATOR
	if message.Chat.ID == bh.Deps.Config.OwnerChatID {
		role = constants.ROLE_OWNER
	}

	var username, firstName string
	if message.From != nil {
		username = message.From.UserName
		firstName = message.From.FirstName
	}

	if err := db.UpsertOperator(message.Chat.ID, username, firstName, role); err != nil {
		telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID, "Не удалось зарегистрировать, попробуйте позже.")
		return
	}

	log.Printf("[MESSAGE] Зарегистрирован оператор %d (роль %s)", message.Chat.ID, role)
	telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID,
		"Вы зарегистрированы. Карточки заказов приходят в рабочую группу.")
}

// handleReportCommand выгружает заказы за последние 30 дней в Excel.
// Доступно только владельцу.
func (bh *BotHandler) handleReportCommand(message *tgbotapi.Message) {
	operator, found, err := bh.Deps.Operators.FindByChatID(message.Chat.ID)
	if err != nil || !found || !utils.IsOwner(operator) {
		telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID, "Команда доступна только владельцу.")
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	orders, err := db.GetOrdersForReport(from, to)
	if err != nil {
		telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID, "Не удалось собрать отчет, попробуйте позже.")
		return
	}
	if len(orders) == 0 {
		telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID, "За последние 30 дней заказов нет.")
		return
	}

	path, err := reports.BuildOrdersReport(orders)
	if err != nil {
		log.Printf("[MESSAGE] Ошибка сборки отчета: %v", err)
		telegram_api.SendMessage(bh.Deps.BotClient, message.Chat.ID, "Не удалось собрать отчет, попробуйте позже.")
		return
	}
	defer os.Remove(path)

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FilePath(path))
	doc.Caption = "Заказы за последние 30 дней"
	if _, err := bh.Deps.BotClient.Send(doc); err != nil {
		log.Printf("[MESSAGE] Не удалось отправить отчет в чат %d: %v", message.Chat.ID, err)
	}
}
