package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/go-chi/chi/v5"

	"ExchangeBot/internal/config"
	"ExchangeBot/internal/db"
	"ExchangeBot/internal/handlers"
	"ExchangeBot/internal/orderflow"
)

type server struct {
	cfg *config.Config
	bot *handlers.BotHandler
}

// handleWebhook принимает обновление от Telegram и обрабатывает его
// в отдельной горутине: Telegram ждет только подтверждения доставки.
func (s *server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		log.Printf("[API] Неразборное обновление webhook: %v", err)
		http.Error(w, "некорректное тело запроса", http.StatusBadRequest)
		return
	}
	go s.bot.HandleUpdate(update)
	w.WriteHeader(http.StatusOK)
}

type createOrderRequest struct {
	CryptoAmount   float64 `json:"crypto_amount"`
	CryptoCurrency string  `json:"crypto_currency"`
	UahAmount      float64 `json:"uah_amount"`
	DepositAddress string  `json:"deposit_address"`
	ClientChatID   int64   `json:"client_chat_id"`
	ClientContact  string  `json:"client_contact"`
}

type createOrderResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// handleCreateOrder создает заказ от витрины и рассылает карточку
// по рабочим чатам.
func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "некорректное тело запроса", http.StatusBadRequest)
		return
	}
	if req.DepositAddress == "" {
		http.Error(w, "deposit_address обязателен", http.StatusBadRequest)
		return
	}

	order, err := db.CreateOrder(req.CryptoAmount, req.CryptoCurrency, req.UahAmount,
		req.DepositAddress, req.ClientChatID, req.ClientContact)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	go s.bot.NotifyNewOrder(order)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(createOrderResponse{OrderID: order.ID, Status: order.Status})
}

// handleMarkPaid - сигнал от витрины о поступлении оплаты.
// Заказ переходит pending -> paid, карточки обновляются.
func (s *server) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := s.bot.Deps.Machine.MarkPaid(orderID)
	if err != nil {
		switch {
		case errors.Is(err, orderflow.ErrNotFound):
			http.Error(w, "заказ не найден", http.StatusNotFound)
		case errors.Is(err, orderflow.ErrInvalidStatus):
			http.Error(w, "заказ не в статусе pending", http.StatusConflict)
		default:
			http.Error(w, "внутренняя ошибка", http.StatusInternalServerError)
		}
		return
	}

	go s.bot.ResyncOrder(order)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createOrderResponse{OrderID: order.ID, Status: order.Status})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := db.DB.Ping(); err != nil {
		http.Error(w, "база данных недоступна", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok"))
}
