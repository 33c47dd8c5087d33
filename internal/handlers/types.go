package handlers

import (
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/config"
	"ExchangeBot/internal/guard"
	"ExchangeBot/internal/models"
	"ExchangeBot/internal/orderflow"
	"ExchangeBot/internal/telegram_api"
	"ExchangeBot/internal/tracker"
)

// OperatorDirectory отвечает, кто стоит за нажатием кнопки.
// В продакшене это таблица operators, в тестах - фейк.
type OperatorDirectory interface {
	FindByChatID(chatID int64) (models.Operator, bool, error)
}

// HandlerDependencies - зависимости обработчиков бота.
type HandlerDependencies struct {
	Config      *config.Config
	BotClient   *telegram_api.BotClient
	Guard       *guard.RequestGuard
	Machine     *orderflow.StateMachine
	Broadcaster *tracker.Broadcaster
	Operators   OperatorDirectory
}

// BotHandler обрабатывает обновления Telegram: команды операторов
// и нажатия кнопок на карточках заказов.
type BotHandler struct {
	Deps HandlerDependencies
}

// NewBotHandler создает обработчик с переданными зависимостями.
func NewBotHandler(deps HandlerDependencies) *BotHandler {
	return &BotHandler{Deps: deps}
}

// HandleUpdate - точка входа для одного обновления из webhook.
func (bh *BotHandler) HandleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[HANDLER] Паника при обработке обновления %d: %v", update.UpdateID, r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		bh.HandleCallbackQuery(update.CallbackQuery)
	case update.Message != nil:
		bh.HandleMessage(update.Message)
	}
}
