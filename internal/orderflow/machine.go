// Пакет orderflow реализует конечный автомат жизненного цикла заказа.
//
// Сам автомат не держит блокировок: корректность конкурентного взятия заказа
// обеспечивается хранилищем, которое обязано выполнять проверку и запись
// как один атомарный условный UPDATE (compare-and-swap по статусу).
// Автомат лишь классифицирует отказ CAS в типизированную ошибку.
package orderflow

import (
	"fmt"
	"log"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
)

// transitions - таблица разрешенных переходов статуса.
// completed/cancelled/failed - терминальные.
var transitions = map[string][]string{
	constants.STATUS_PENDING:    {constants.STATUS_PAID, constants.STATUS_PROCESSING, constants.STATUS_CANCELLED},
	constants.STATUS_PAID:       {constants.STATUS_PROCESSING, constants.STATUS_CANCELLED},
	constants.STATUS_PROCESSING: {constants.STATUS_COMPLETED, constants.STATUS_CANCELLED},
	constants.STATUS_COMPLETED:  {},
	constants.STATUS_CANCELLED:  {},
	constants.STATUS_FAILED:     {},
}

// CanTransition сообщает, разрешен ли переход статуса по таблице.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Store - контракт хранилища заказов.
//
// Методы *If* обязаны выполнять условное обновление атомарно на стороне
// хранилища: ok=false означает, что условие не выполнилось (заказ не найден
// или статус не подошел), и ни одно поле не было изменено. Реализация
// поверх read-then-write без атомарности нарушает гарантию "побеждает
// ровно один оператор".
type Store interface {
	// FindByID возвращает заказ; found=false, если его нет.
	FindByID(orderID string) (order models.Order, found bool, err error)

	// AssignIfAvailable: status IN (pending, paid) -> processing + operator.
	AssignIfAvailable(orderID string, operatorChatID int64) (models.Order, bool, error)

	// CompleteIfProcessing: status=processing -> completed (+processed_at).
	// requiredOperator != 0 дополнительно требует совпадения оператора.
	CompleteIfProcessing(orderID string, requiredOperator int64) (models.Order, bool, error)

	// CancelIfActive: status IN (pending, paid, processing) -> cancelled (+причина).
	// requiredOperator != 0 требует совпадения оператора для заказов в processing.
	CancelIfActive(orderID string, reasonID string, requiredOperator int64) (models.Order, bool, error)

	// MarkPaidIfPending: status=pending -> paid (сигнал витрины об оплате).
	MarkPaidIfPending(orderID string) (models.Order, bool, error)
}

// StateMachine применяет переходы жизненного цикла к хранилищу заказов.
type StateMachine struct {
	Store Store

	// RequireAssignedOperator включает политику: завершать и отменять
	// взятый заказ может только назначенный оператор.
	RequireAssignedOperator bool
}

// NewStateMachine собирает автомат поверх хранилища.
func NewStateMachine(store Store, requireAssignedOperator bool) *StateMachine {
	return &StateMachine{Store: store, RequireAssignedOperator: requireAssignedOperator}
}

// Assign переводит заказ pending/paid -> processing и закрепляет оператора.
// При одновременных попытках взятия побеждает ровно один вызов; остальные
// получают ErrAlreadyAssigned.
func (m *StateMachine) Assign(orderID string, operatorChatID int64) (models.Order, error) {
	order, ok, err := m.Store.AssignIfAvailable(orderID, operatorChatID)
	if err != nil {
		return models.Order{}, fmt.Errorf("assign %s: %w", orderID, err)
	}
	if ok {
		log.Printf("[ORDERFLOW] Заказ %s взят оператором %d.", orderID, operatorChatID)
		return order, nil
	}

	// CAS не прошел: выясняем, почему.
	if _, found, err := m.Store.FindByID(orderID); err != nil {
		return models.Order{}, fmt.Errorf("assign %s: %w", orderID, err)
	} else if !found {
		return models.Order{}, ErrNotFound
	}
	return models.Order{}, ErrAlreadyAssigned
}

// Complete переводит заказ processing -> completed и ставит processed_at.
func (m *StateMachine) Complete(orderID string, operatorChatID int64) (models.Order, error) {
	var requiredOperator int64
	if m.RequireAssignedOperator {
		requiredOperator = operatorChatID
	}

	order, ok, err := m.Store.CompleteIfProcessing(orderID, requiredOperator)
	if err != nil {
		return models.Order{}, fmt.Errorf("complete %s: %w", orderID, err)
	}
	if ok {
		log.Printf("[ORDERFLOW] Заказ %s завершен оператором %d.", orderID, operatorChatID)
		return order, nil
	}

	current, found, err := m.Store.FindByID(orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("complete %s: %w", orderID, err)
	}
	if !found {
		return models.Order{}, ErrNotFound
	}
	if current.Status != constants.STATUS_PROCESSING {
		return models.Order{}, ErrInvalidStatus
	}
	// Статус подходил, но CAS отказал - значит, не совпал оператор.
	return models.Order{}, ErrOperatorMismatch
}

// Cancel переводит заказ pending/paid/processing -> cancelled с причиной.
func (m *StateMachine) Cancel(orderID string, operatorChatID int64, reasonID string) (models.Order, error) {
	var requiredOperator int64
	if m.RequireAssignedOperator {
		requiredOperator = operatorChatID
	}

	order, ok, err := m.Store.CancelIfActive(orderID, reasonID, requiredOperator)
	if err != nil {
		return models.Order{}, fmt.Errorf("cancel %s: %w", orderID, err)
	}
	if ok {
		log.Printf("[ORDERFLOW] Заказ %s отменен оператором %d, причина: %s.", orderID, operatorChatID, reasonID)
		return order, nil
	}

	current, found, err := m.Store.FindByID(orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("cancel %s: %w", orderID, err)
	}
	if !found {
		return models.Order{}, ErrNotFound
	}
	switch current.Status {
	case constants.STATUS_PENDING, constants.STATUS_PAID, constants.STATUS_PROCESSING:
		// Статус допускал отмену, но CAS отказал - не совпал оператор.
		return models.Order{}, ErrOperatorMismatch
	default:
		return models.Order{}, ErrInvalidStatus
	}
}

// MarkPaid переводит заказ pending -> paid по сигналу витрины об оплате.
func (m *StateMachine) MarkPaid(orderID string) (models.Order, error) {
	order, ok, err := m.Store.MarkPaidIfPending(orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("mark paid %s: %w", orderID, err)
	}
	if ok {
		log.Printf("[ORDERFLOW] Заказ %s отмечен как оплаченный.", orderID)
		return order, nil
	}

	if _, found, err := m.Store.FindByID(orderID); err != nil {
		return models.Order{}, fmt.Errorf("mark paid %s: %w", orderID, err)
	} else if !found {
		return models.Order{}, ErrNotFound
	}
	return models.Order{}, ErrInvalidStatus
}
