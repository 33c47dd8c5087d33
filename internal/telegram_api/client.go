package telegram_api

import (
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// BotClient представляет собой обертку для Telegram Bot API.
// Содержит экземпляр бота и флаг отладки.
type BotClient struct {
	api   *tgbotapi.BotAPI
	Debug bool
}

// Глобальный экземпляр бота для пакета
var Client *BotClient

// InitBot инициализирует Telegram бота и регистрирует webhook.
// token - API токен бота.
// debug - флаг для включения режима отладки.
// webhookURL - полный URL, на который Telegram будет доставлять обновления;
// пустая строка оставляет бота без webhook (режим для локальной отладки).
func InitBot(token string, debug bool, webhookURL string) error {
	if token == "" {
		return fmt.Errorf("токен Telegram API не предоставлен")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}

	api.Debug = debug

	log.Printf("Авторизован как аккаунт %s", api.Self.UserName)

	if webhookURL != "" {
		wh, err := tgbotapi.NewWebhook(webhookURL)
		if err != nil {
			return fmt.Errorf("ошибка сборки конфигурации webhook: %w", err)
		}
		wh.AllowedUpdates = []string{"message", "callback_query"}
		if _, err := api.Request(wh); err != nil {
			return fmt.Errorf("ошибка регистрации webhook: %w", err)
		}
		log.Printf("Webhook зарегистрирован: %s", webhookURL)
	} else {
		// Без webhook получать обновления некому, это осознанный режим
		// для локальной отладки через ручные запросы к API.
		log.Println("Webhook не зарегистрирован: WEBHOOK_BASE_URL пуст.")
	}

	Client = &BotClient{
		api:   api,
		Debug: debug,
	}
	return nil
}

// GetAPI возвращает нижележащий экземпляр *tgbotapi.BotAPI.
func (bc *BotClient) GetAPI() *tgbotapi.BotAPI {
	if bc == nil || bc.api == nil {
		log.Fatal("BotClient или его API не инициализирован.")
	}
	return bc.api
}

// Send отправляет сообщение через BotClient.
func (bc *BotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if bc == nil || bc.api == nil {
		return tgbotapi.Message{}, fmt.Errorf("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			log.Printf("Отправка сообщения: ChatID=%d, Text='%.50s...'", msg.ChatID, msg.Text)
		} else {
			log.Printf("Отправка/запрос типа %T", c)
		}
	}
	return bc.api.Send(c)
}

// Request выполняет запрос через BotClient.
func (bc *BotClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if bc == nil || bc.api == nil {
		return nil, fmt.Errorf("BotClient или его API не инициализирован")
	}
	return bc.api.Request(c)
}

// MakeRequest выполняет произвольный запрос к Telegram API по имени метода.
// Используется для параметров, которых нет в типизированных конфигах
// библиотеки (например, message_thread_id при отправке в топик).
func (bc *BotClient) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	if bc == nil || bc.api == nil {
		return nil, fmt.Errorf("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		log.Printf("MakeRequest: %s %v", endpoint, params)
	}
	return bc.api.MakeRequest(endpoint, params)
}
