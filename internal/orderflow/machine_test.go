package orderflow

import (
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
)

// memStore - хранилище в памяти для тестов. Условные обновления выполняются
// под мьютексом, что дает ту же атомарность check-then-set, которую в
// продакшене обеспечивает условный UPDATE в Postgres.
type memStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newMemStore(orders ...models.Order) *memStore {
	s := &memStore{orders: make(map[string]models.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *memStore) FindByID(orderID string) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	return o, ok, nil
}

func (s *memStore) AssignIfAvailable(orderID string, operatorChatID int64) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || (o.Status != constants.STATUS_PENDING && o.Status != constants.STATUS_PAID) {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_PROCESSING
	o.OperatorChatID = sql.NullInt64{Int64: operatorChatID, Valid: true}
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return o, true, nil
}

func (s *memStore) CompleteIfProcessing(orderID string, requiredOperator int64) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != constants.STATUS_PROCESSING {
		return models.Order{}, false, nil
	}
	if requiredOperator != 0 && o.OperatorChatID.Int64 != requiredOperator {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_COMPLETED
	o.ProcessedAt = sql.NullTime{Time: time.Now(), Valid: true}
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return o, true, nil
}

func (s *memStore) CancelIfActive(orderID string, reasonID string, requiredOperator int64) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return models.Order{}, false, nil
	}
	switch o.Status {
	case constants.STATUS_PENDING, constants.STATUS_PAID, constants.STATUS_PROCESSING:
	default:
		return models.Order{}, false, nil
	}
	if requiredOperator != 0 && o.Status == constants.STATUS_PROCESSING && o.OperatorChatID.Int64 != requiredOperator {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_CANCELLED
	o.CancelReasonID = sql.NullString{String: reasonID, Valid: true}
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return o, true, nil
}

func (s *memStore) MarkPaidIfPending(orderID string) (models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != constants.STATUS_PENDING {
		return models.Order{}, false, nil
	}
	o.Status = constants.STATUS_PAID
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return o, true, nil
}

func pendingOrder(id string) models.Order {
	return models.Order{ID: id, Status: constants.STATUS_PENDING, CryptoAmount: 0.5, CryptoCurrency: "BTC", UahAmount: 850000}
}

func TestAssignRaceSingleWinner(t *testing.T) {
	store := newMemStore(pendingOrder("o1"))
	machine := NewStateMachine(store, false)

	const operators = 8
	var wg sync.WaitGroup
	results := make([]error, operators)

	for i := 0; i < operators; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = machine.Assign("o1", int64(100+i))
		}(i)
	}
	wg.Wait()

	winners := 0
	var winnerIdx int
	for i, err := range results {
		switch {
		case err == nil:
			winners++
			winnerIdx = i
		case errors.Is(err, ErrAlreadyAssigned):
		default:
			t.Fatalf("оператор %d: неожиданная ошибка %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("победителей гонки: %d, ожидался ровно 1", winners)
	}

	final, _, _ := store.FindByID("o1")
	if final.Status != constants.STATUS_PROCESSING {
		t.Fatalf("итоговый статус: %s", final.Status)
	}
	if !final.OperatorChatID.Valid || final.OperatorChatID.Int64 != int64(100+winnerIdx) {
		t.Fatalf("operatorChatID=%+v, победитель был %d", final.OperatorChatID, 100+winnerIdx)
	}
}

func TestAssignFromPaid(t *testing.T) {
	o := pendingOrder("o1")
	o.Status = constants.STATUS_PAID
	machine := NewStateMachine(newMemStore(o), false)

	got, err := machine.Assign("o1", 42)
	if err != nil {
		t.Fatalf("Assign из paid: %v", err)
	}
	if got.Status != constants.STATUS_PROCESSING {
		t.Fatalf("статус после Assign: %s", got.Status)
	}
}

func TestAssignErrors(t *testing.T) {
	o := pendingOrder("o1")
	o.Status = constants.STATUS_PROCESSING
	o.OperatorChatID = sql.NullInt64{Int64: 1, Valid: true}
	machine := NewStateMachine(newMemStore(o), false)

	if _, err := machine.Assign("missing", 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидался ErrNotFound, получен %v", err)
	}
	if _, err := machine.Assign("o1", 42); !errors.Is(err, ErrAlreadyAssigned) {
		t.Fatalf("ожидался ErrAlreadyAssigned, получен %v", err)
	}
}

func TestCompleteMatrix(t *testing.T) {
	cases := []struct {
		status  string
		wantErr error
	}{
		{constants.STATUS_PENDING, ErrInvalidStatus},
		{constants.STATUS_PAID, ErrInvalidStatus},
		{constants.STATUS_PROCESSING, nil},
		{constants.STATUS_COMPLETED, ErrInvalidStatus},
		{constants.STATUS_CANCELLED, ErrInvalidStatus},
		{constants.STATUS_FAILED, ErrInvalidStatus},
	}
	for _, c := range cases {
		o := pendingOrder("o1")
		o.Status = c.status
		o.OperatorChatID = sql.NullInt64{Int64: 42, Valid: true}
		machine := NewStateMachine(newMemStore(o), false)

		got, err := machine.Complete("o1", 42)
		if c.wantErr == nil {
			if err != nil {
				t.Fatalf("Complete из %s: %v", c.status, err)
			}
			if got.Status != constants.STATUS_COMPLETED || !got.ProcessedAt.Valid {
				t.Fatalf("Complete из %s: %+v", c.status, got)
			}
		} else if !errors.Is(err, c.wantErr) {
			t.Fatalf("Complete из %s: ожидался %v, получен %v", c.status, c.wantErr, err)
		}
	}
}

func TestCancelMatrix(t *testing.T) {
	cases := []struct {
		status  string
		wantErr error
	}{
		{constants.STATUS_PENDING, nil},
		{constants.STATUS_PAID, nil},
		{constants.STATUS_PROCESSING, nil},
		{constants.STATUS_COMPLETED, ErrInvalidStatus},
		{constants.STATUS_CANCELLED, ErrInvalidStatus},
		{constants.STATUS_FAILED, ErrInvalidStatus},
	}
	for _, c := range cases {
		o := pendingOrder("o1")
		o.Status = c.status
		machine := NewStateMachine(newMemStore(o), false)

		got, err := machine.Cancel("o1", 42, "client_request")
		if c.wantErr == nil {
			if err != nil {
				t.Fatalf("Cancel из %s: %v", c.status, err)
			}
			if got.Status != constants.STATUS_CANCELLED || got.CancelReasonID.String != "client_request" {
				t.Fatalf("Cancel из %s: %+v", c.status, got)
			}
		} else if !errors.Is(err, c.wantErr) {
			t.Fatalf("Cancel из %s: ожидался %v, получен %v", c.status, c.wantErr, err)
		}
	}
}

func TestOperatorMismatchPolicy(t *testing.T) {
	o := pendingOrder("o1")
	o.Status = constants.STATUS_PROCESSING
	o.OperatorChatID = sql.NullInt64{Int64: 100, Valid: true}

	// Политика выключена: завершить может любой оператор.
	machine := NewStateMachine(newMemStore(o), false)
	if _, err := machine.Complete("o1", 200); err != nil {
		t.Fatalf("Complete чужим оператором без политики: %v", err)
	}

	// Политика включена: чужой оператор получает OperatorMismatch.
	machine = NewStateMachine(newMemStore(o), true)
	if _, err := machine.Complete("o1", 200); !errors.Is(err, ErrOperatorMismatch) {
		t.Fatalf("ожидался ErrOperatorMismatch, получен %v", err)
	}
	if _, err := machine.Cancel("o1", 200, "other"); !errors.Is(err, ErrOperatorMismatch) {
		t.Fatalf("Cancel: ожидался ErrOperatorMismatch, получен %v", err)
	}
	if _, err := machine.Complete("o1", 100); err != nil {
		t.Fatalf("Complete назначенным оператором: %v", err)
	}
}

func TestMarkPaid(t *testing.T) {
	machine := NewStateMachine(newMemStore(pendingOrder("o1")), false)

	got, err := machine.MarkPaid("o1")
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if got.Status != constants.STATUS_PAID {
		t.Fatalf("статус после MarkPaid: %s", got.Status)
	}

	if _, err := machine.MarkPaid("o1"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("повторный MarkPaid: ожидался ErrInvalidStatus, получен %v", err)
	}
	if _, err := machine.MarkPaid("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("MarkPaid по несуществующему: ожидался ErrNotFound, получен %v", err)
	}
}

func TestTransitionTable(t *testing.T) {
	allowed := []struct{ from, to string }{
		{constants.STATUS_PENDING, constants.STATUS_PAID},
		{constants.STATUS_PENDING, constants.STATUS_PROCESSING},
		{constants.STATUS_PENDING, constants.STATUS_CANCELLED},
		{constants.STATUS_PAID, constants.STATUS_PROCESSING},
		{constants.STATUS_PAID, constants.STATUS_CANCELLED},
		{constants.STATUS_PROCESSING, constants.STATUS_COMPLETED},
		{constants.STATUS_PROCESSING, constants.STATUS_CANCELLED},
	}
	for _, tr := range allowed {
		if !CanTransition(tr.from, tr.to) {
			t.Fatalf("переход %s -> %s должен быть разрешен", tr.from, tr.to)
		}
	}

	terminal := []string{constants.STATUS_COMPLETED, constants.STATUS_CANCELLED, constants.STATUS_FAILED}
	all := []string{constants.STATUS_PENDING, constants.STATUS_PAID, constants.STATUS_PROCESSING,
		constants.STATUS_COMPLETED, constants.STATUS_CANCELLED, constants.STATUS_FAILED}
	for _, from := range terminal {
		for _, to := range all {
			if CanTransition(from, to) {
				t.Fatalf("терминальный статус %s не должен иметь переходов (-> %s)", from, to)
			}
		}
	}
}
