package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/config"
	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/guard"
	"ExchangeBot/internal/models"
	"ExchangeBot/internal/orderflow"
	"ExchangeBot/internal/tracker"
)

// routerStore - хранилище заказов для тестов роутера. Считает обращения,
// чтобы проверять, что до машины состояний доходят только разрешенные
// запросы.
type routerStore struct {
	mu            sync.Mutex
	orders        map[string]models.Order
	assignCalls   int
	completeCalls int
	cancelCalls   int
}

func newRouterStore(orders ...models.Order) *routerStore {
	s := &routerStore{orders: make(map[string]models.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *routerStore) FindByID(orderID string) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	return o, ok, nil
}

func (s *routerStore) AssignIfAvailable(orderID string, operatorChatID int64) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignCalls++
	o, ok := s.orders[orderID]
	if !ok || (o.Status != constants.STATUS_PENDING && o.Status != constants.STATUS_PAID) {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_PROCESSING
	o.OperatorChatID = sql.NullInt64{Int64: operatorChatID, Valid: true}
	s.orders[orderID] = o
	return o, true, nil
}

func (s *routerStore) CompleteIfProcessing(orderID string, requiredOperator int64) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completeCalls++
	o, ok := s.orders[orderID]
	if !ok || o.Status != constants.STATUS_PROCESSING {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_COMPLETED
	o.ProcessedAt = sql.NullTime{Time: time.Now(), Valid: true}
	s.orders[orderID] = o
	return o, true, nil
}

func (s *routerStore) CancelIfActive(orderID string, reasonID string, requiredOperator int64) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelCalls++
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, false, nil
	}
	switch o.Status {
	case constants.STATUS_PENDING, constants.STATUS_PAID, constants.STATUS_PROCESSING:
	default:
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_CANCELLED
	o.CancelReasonID = sql.NullString{String: reasonID, Valid: true}
	s.orders[orderID] = o
	return o, true, nil
}

func (s *routerStore) MarkPaidIfPending(orderID string) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != constants.STATUS_PENDING {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_PAID
	s.orders[orderID] = o
	return o, true, nil
}

// routerEditor записывает правки сообщений вместо похода в Telegram.
type routerEditor struct {
	mu    sync.Mutex
	edits []recordedEdit
}

type recordedEdit struct {
	loc      tracker.Location
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

func (e *routerEditor) Edit(loc tracker.Location, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edits = append(e.edits, recordedEdit{loc: loc, text: text, keyboard: keyboard})
	return nil
}

func (e *routerEditor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.edits)
}

// fakeDirectory - справочник операторов в памяти.
type fakeDirectory struct {
	operators map[int64]models.Operator
}

func (d *fakeDirectory) FindByChatID(chatID int64) (models.Operator, bool, error) {
	op, ok := d.operators[chatID]
	return op, ok, nil
}

const testOperatorID int64 = 500

func newRouterHandler(store *routerStore, locs []tracker.Location) (*BotHandler, *routerEditor, *guard.RequestGuard) {
	editor := &routerEditor{}
	requestGuard := guard.NewRequestGuard(
		guard.NewMemCounterStore(),
		guard.NewMemResultStore(),
		map[string]guard.Limit{
			constants.ACTION_CLASS_MUTATION:   {Window: time.Minute, Max: 100},
			constants.ACTION_CLASS_NAVIGATION: {Window: time.Minute, Max: 100},
		},
		time.Minute,
	)
	bh := NewBotHandler(HandlerDependencies{
		Config:  &config.Config{},
		Guard:   requestGuard,
		Machine: orderflow.NewStateMachine(store, false),
		Broadcaster: &tracker.Broadcaster{
			Editor:  editor,
			Locator: func(string) ([]tracker.Location, error) { return locs, nil },
		},
		Operators: &fakeDirectory{operators: map[int64]models.Operator{
			testOperatorID: {ChatID: testOperatorID, Role: constants.ROLE_OPERATOR},
		}},
	})
	return bh, editor, requestGuard
}

// newCallbackQuery собирает запрос из того же JSON, который приходит
// в webhook-обновлении.
func newCallbackQuery(t *testing.T, queryID, data string, from int64, messageText string) *tgbotapi.CallbackQuery {
	t.Helper()
	raw := fmt.Sprintf(`{"id":%q,"from":{"id":%d},"data":%q,"message":{"message_id":77,"chat":{"id":-100500},"text":%q}}`,
		queryID, from, data, messageText)
	var query tgbotapi.CallbackQuery
	if err := json.Unmarshal([]byte(raw), &query); err != nil {
		t.Fatalf("не удалось разобрать callback query: %v", err)
	}
	return &query
}

func threeLocations() []tracker.Location {
	return []tracker.Location{
		{ChatID: -100500, MessageID: 77, NotificationType: constants.NOTIF_TYPE_OPERATOR_GROUP},
		{ChatID: -100500, MessageID: 78, TopicID: 12, NotificationType: constants.NOTIF_TYPE_CURRENCY_TOPIC},
		{ChatID: -200600, MessageID: 79, NotificationType: constants.NOTIF_TYPE_ACCOUNTING},
	}
}

func routerOrder(id, status string) models.Order {
	return models.Order{
		ID:             id,
		Status:         status,
		CryptoAmount:   0.5,
		CryptoCurrency: "BTC",
		UahAmount:      850000,
		DepositAddress: "bc1qtest",
		CreatedAt:      time.Now(),
	}
}

// Отказ мутации не должен трогать ни одно сообщение.
func TestRouterFailedMutationNoBroadcast(t *testing.T) {
	store := newRouterStore(routerOrder("o2", constants.STATUS_COMPLETED))
	bh, editor, requestGuard := newRouterHandler(store, threeLocations())

	query := newCallbackQuery(t, "cb-1", "confirm_complete_o2", testOperatorID, "карточка")
	bh.HandleCallbackQuery(query)

	if editor.count() != 0 {
		t.Fatalf("отказавшая мутация отредактировала %d сообщений", editor.count())
	}
	result, ok := requestGuard.CachedResult("cb-1", time.Now())
	if !ok {
		t.Fatal("ответ на мутацию должен попасть в кэш идемпотентности")
	}
	if !result.Alert || result.Text != "Статус заказа уже изменился, действие неактуально" {
		t.Fatalf("ответ оператору: %+v", result)
	}
}

// Завершение рассылается во все зарегистрированные сообщения заказа.
func TestRouterCompleteFanOut(t *testing.T) {
	store := newRouterStore(routerOrder("o2", constants.STATUS_PROCESSING))
	bh, editor, _ := newRouterHandler(store, threeLocations())

	query := newCallbackQuery(t, "cb-1", "confirm_complete_o2", testOperatorID, "карточка")
	bh.HandleCallbackQuery(query)

	final, _, _ := store.FindByID("o2")
	if final.Status != constants.STATUS_COMPLETED || !final.ProcessedAt.Valid {
		t.Fatalf("заказ после завершения: %+v", final)
	}
	if editor.count() != 3 {
		t.Fatalf("обновлено %d сообщений, ожидалось 3", editor.count())
	}
	for _, edit := range editor.edits {
		if edit.text != editor.edits[0].text {
			t.Fatal("все сообщения должны получить одинаковый текст")
		}
		if !strings.Contains(edit.text, constants.StatusDisplayMap[constants.STATUS_COMPLETED]) {
			t.Fatalf("текст карточки без статуса завершения: %q", edit.text)
		}
		if edit.keyboard != nil {
			t.Fatal("у завершенного заказа не должно быть клавиатуры")
		}
	}
}

// Повторная доставка того же нажатия отвечает из кэша, мутация
// не выполняется второй раз.
func TestRouterIdempotentReplay(t *testing.T) {
	store := newRouterStore(routerOrder("o2", constants.STATUS_PROCESSING))
	bh, editor, _ := newRouterHandler(store, threeLocations())

	query := newCallbackQuery(t, "cb-1", "confirm_complete_o2", testOperatorID, "карточка")
	bh.HandleCallbackQuery(query)
	bh.HandleCallbackQuery(query)

	if store.completeCalls != 1 {
		t.Fatalf("машина вызвана %d раз, ожидался 1", store.completeCalls)
	}
	if editor.count() != 3 {
		t.Fatalf("рассылка выполнена %d раз(а) по 3 сообщения: %d правок", editor.count()/3, editor.count())
	}
}

// Лимит запросов срабатывает до обращения к машине состояний.
func TestRouterRateLimitBeforeMutation(t *testing.T) {
	store := newRouterStore(routerOrder("o1", constants.STATUS_PENDING))
	editor := &routerEditor{}
	requestGuard := guard.NewRequestGuard(
		guard.NewMemCounterStore(),
		guard.NewMemResultStore(),
		map[string]guard.Limit{constants.ACTION_CLASS_MUTATION: {Window: time.Minute, Max: 1}},
		time.Minute,
	)
	bh := NewBotHandler(HandlerDependencies{
		Config:  &config.Config{},
		Guard:   requestGuard,
		Machine: orderflow.NewStateMachine(store, false),
		Broadcaster: &tracker.Broadcaster{
			Editor:  editor,
			Locator: func(string) ([]tracker.Location, error) { return nil, nil },
		},
		Operators: &fakeDirectory{operators: map[int64]models.Operator{
			testOperatorID: {ChatID: testOperatorID, Role: constants.ROLE_OPERATOR},
		}},
	})

	bh.HandleCallbackQuery(newCallbackQuery(t, "cb-1", "take_order_o1", testOperatorID, "карточка"))
	bh.HandleCallbackQuery(newCallbackQuery(t, "cb-2", "take_order_o1", testOperatorID, "карточка"))

	if store.assignCalls != 1 {
		t.Fatalf("после исчерпания лимита машина вызвана %d раз, ожидался 1", store.assignCalls)
	}
}

// Незарегистрированный пользователь не доходит ни до машины, ни до правок.
func TestRouterUnknownOperatorRejected(t *testing.T) {
	store := newRouterStore(routerOrder("o1", constants.STATUS_PENDING))
	bh, editor, _ := newRouterHandler(store, threeLocations())

	query := newCallbackQuery(t, "cb-1", "take_order_o1", 999, "карточка")
	bh.HandleCallbackQuery(query)

	if store.assignCalls != 0 || editor.count() != 0 {
		t.Fatalf("чужое нажатие дошло до исполнения: assign=%d, edits=%d", store.assignCalls, editor.count())
	}
}

// Возврат без маркера: текст уходит без изменений, клавиатура
// сбрасывается на базовую для текущего статуса.
func TestRouterBackWithoutMarker(t *testing.T) {
	store := newRouterStore(routerOrder("o3", constants.STATUS_PENDING))
	bh, editor, _ := newRouterHandler(store, threeLocations())

	card := "📦 Заказ #o3\nСтатус: ожидает"
	query := newCallbackQuery(t, "cb-1", "bto_o3", testOperatorID, card)
	bh.HandleCallbackQuery(query)

	if editor.count() != 1 {
		t.Fatalf("навигация должна править ровно одно сообщение, правок: %d", editor.count())
	}
	edit := editor.edits[0]
	if edit.text != card {
		t.Fatalf("текст без маркера изменился: %q", edit.text)
	}
	if edit.keyboard == nil || len(edit.keyboard.InlineKeyboard) != 2 {
		t.Fatalf("клавиатура не сброшена на базовую: %+v", edit.keyboard)
	}
}

// Токен навигации с чужим длинным ID не должен ронять обработчик:
// для несуществующего заказа клавиатура не собирается вовсе.
func TestRouterNavigationUnknownLongOrderID(t *testing.T) {
	store := newRouterStore()
	bh, editor, _ := newRouterHandler(store, nil)

	// 64 байта ровно: максимально длинный ID, какой пролезает в декодер.
	longID := strings.Repeat("x", constants.MAX_CALLBACK_DATA_BYTES-len("complete_order_"))
	query := newCallbackQuery(t, "cb-1", "complete_order_"+longID, testOperatorID, "карточка")
	bh.HandleCallbackQuery(query)

	if editor.count() != 0 {
		t.Fatalf("для несуществующего заказа выполнено %d правок", editor.count())
	}
}
