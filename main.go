package main

import (
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/joho/godotenv"

	"ExchangeBot/internal/api"
	"ExchangeBot/internal/config"
	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/db"
	"ExchangeBot/internal/guard"
	"ExchangeBot/internal/handlers"
	"ExchangeBot/internal/orderflow"
	"ExchangeBot/internal/telegram_api"
	"ExchangeBot/internal/tracker"
)

// tgEditor прокидывает правки сообщений трекера в Telegram API.
type tgEditor struct {
	client *telegram_api.BotClient
}

func (e *tgEditor) Edit(loc tracker.Location, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	return telegram_api.EditMessage(e.client, loc.ChatID, loc.MessageID, text, keyboard)
}

func main() {
	// --- Блок инициализации ---
	err := godotenv.Load()
	if err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось загрузить конфигурацию: %v", err)
	}

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать базу данных: %v", err)
	}
	defer db.CloseDB()

	webhookURL := ""
	if cfg.WebhookBaseURL != "" {
		webhookURL = cfg.WebhookBaseURL + "/webhook/" + cfg.WebhookSecret
	}
	err = telegram_api.InitBot(cfg.TelegramToken, cfg.AppEnv == "dev", webhookURL)
	if err != nil {
		log.Fatalf("Критическая ошибка: не удалось инициализировать Telegram бота: %v", err)
	}

	requestGuard := guard.NewRequestGuard(
		guard.NewMemCounterStore(),
		guard.NewMemResultStore(),
		map[string]guard.Limit{
			constants.ACTION_CLASS_MUTATION:   {Window: cfg.MutationLimitWindow, Max: cfg.MutationLimitMax},
			constants.ACTION_CLASS_NAVIGATION: {Window: cfg.NavigationLimitWindow, Max: cfg.NavigationLimitMax},
		},
		cfg.IdempotencyTTL,
	)

	machine := orderflow.NewStateMachine(db.NewOrderStore(), cfg.RequireAssignedOperator)
	broadcaster := tracker.NewBroadcaster(&tgEditor{client: telegram_api.Client})

	botHandler := handlers.NewBotHandler(handlers.HandlerDependencies{
		Config:      cfg,
		BotClient:   telegram_api.Client,
		Guard:       requestGuard,
		Machine:     machine,
		Broadcaster: broadcaster,
		Operators:   db.NewOperatorDirectory(),
	})

	// Фоновая очистка счетчиков лимитера и кэша идемпотентности.
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			requestGuard.Sweep(time.Now())
		}
	}()

	router := api.SetupRoutes(cfg, botHandler)

	log.Printf("HTTP-сервер запускается на порту %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Критическая ошибка HTTP-сервера: %v", err)
	}
}
