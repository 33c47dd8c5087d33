// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	AppEnv        string
	BotUsername   string
	Port          string

	WebhookBaseURL   string
	WebhookSecret    string
	StorefrontAPIKey string

	OperatorGroupChatID int64
	AccountingChatID    int64
	OwnerChatID         int64

	// CurrencyTopics - ID топиков в группе операторов по валютам,
	// формат переменной: "BTC:12,ETH:15,USDT:18".
	CurrencyTopics map[string]int

	RequireAssignedOperator bool

	MutationLimitWindow   time.Duration
	MutationLimitMax      int
	NavigationLimitWindow time.Duration
	NavigationLimitMax    int
	IdempotencyTTL        time.Duration
	SweepInterval         time.Duration
}

// LoadConfig загружает конфигурацию из переменных окружения.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_APITOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		AppEnv:           os.Getenv("ENV"),
		BotUsername:      os.Getenv("BOT_USERNAME"),
		Port:             os.Getenv("PORT"),
		WebhookBaseURL:   os.Getenv("WEBHOOK_BASE_URL"),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		StorefrontAPIKey: os.Getenv("STOREFRONT_API_KEY"),
	}

	var err error
	cfg.OperatorGroupChatID, err = strconv.ParseInt(os.Getenv("OPERATOR_GROUP_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("Предупреждение: не удалось прочитать OPERATOR_GROUP_CHAT_ID: %v. Установлено в 0.", err)
		cfg.OperatorGroupChatID = 0
	}

	cfg.AccountingChatID, err = strconv.ParseInt(os.Getenv("ACCOUNTING_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("Предупреждение: не удалось прочитать ACCOUNTING_CHAT_ID: %v. Установлено в 0.", err)
		cfg.AccountingChatID = 0
	}

	cfg.OwnerChatID, err = strconv.ParseInt(os.Getenv("OWNER_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("Предупреждение: не удалось прочитать OWNER_CHAT_ID: %v. Установлено в 0.", err)
		cfg.OwnerChatID = 0
	}

	cfg.CurrencyTopics = parseCurrencyTopics(os.Getenv("CURRENCY_TOPICS"))

	cfg.RequireAssignedOperator = os.Getenv("REQUIRE_ASSIGNED_OPERATOR") == "true"

	cfg.MutationLimitWindow = parseDuration("MUTATION_LIMIT_WINDOW", 10*time.Second)
	cfg.MutationLimitMax = parseInt("MUTATION_LIMIT_MAX", 5)
	cfg.NavigationLimitWindow = parseDuration("NAVIGATION_LIMIT_WINDOW", 10*time.Second)
	cfg.NavigationLimitMax = parseInt("NAVIGATION_LIMIT_MAX", 20)
	cfg.IdempotencyTTL = parseDuration("IDEMPOTENCY_TTL", 10*time.Minute)
	cfg.SweepInterval = parseDuration("SWEEP_INTERVAL", 5*time.Minute)

	if cfg.TelegramToken == "" {
		log.Println("Критическая ошибка: TELEGRAM_APITOKEN не установлен.")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Критическая ошибка: DATABASE_URL не установлен.")
	}
	if cfg.WebhookBaseURL == "" {
		log.Println("Предупреждение: WEBHOOK_BASE_URL не установлен. Webhook не будет зарегистрирован.")
	}
	if cfg.StorefrontAPIKey == "" {
		log.Println("Предупреждение: STOREFRONT_API_KEY не установлен. API создания заказов будет отклонять запросы.")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	log.Println("Конфигурация загружена.")
	return cfg, nil
}

// parseCurrencyTopics разбирает строку вида "BTC:12,ETH:15" в карту
// валюта -> ID топика. Некорректные пары пропускаются с предупреждением.
func parseCurrencyTopics(raw string) map[string]int {
	topics := make(map[string]int)
	if raw == "" {
		log.Println("Предупреждение: CURRENCY_TOPICS не установлен. Карточки не будут дублироваться в топики валют.")
		return topics
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			log.Printf("Предупреждение: некорректная пара в CURRENCY_TOPICS: %q", pair)
			continue
		}
		topicID, err := strconv.Atoi(parts[1])
		if err != nil {
			log.Printf("Предупреждение: некорректный ID топика в CURRENCY_TOPICS: %q", pair)
			continue
		}
		topics[strings.ToUpper(parts[0])] = topicID
	}
	return topics
}

func parseDuration(name string, def time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Предупреждение: некорректное значение %s (%q), используется %v.", name, raw, def)
		return def
	}
	return d
}

func parseInt(name string, def int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("Предупреждение: некорректное значение %s (%q), используется %d.", name, raw, def)
		return def
	}
	return n
}
