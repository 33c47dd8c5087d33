package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ExchangeBot/internal/config"
	"ExchangeBot/internal/handlers"
)

// SetupRoutes собирает HTTP-маршруты сервиса: webhook Telegram,
// API витрины и проверку живости.
func SetupRoutes(cfg *config.Config, botHandler *handlers.BotHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "X-Api-Key"},
	}))

	srv := &server{cfg: cfg, bot: botHandler}

	// Секрет в пути защищает webhook от посторонних запросов.
	r.Post("/webhook/"+cfg.WebhookSecret, srv.handleWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Use(APIKeyMiddleware(cfg.StorefrontAPIKey))
		r.Post("/orders", srv.handleCreateOrder)
		r.Post("/orders/{orderID}/paid", srv.handleMarkPaid)
	})

	r.Get("/healthz", srv.handleHealthz)

	return r
}
