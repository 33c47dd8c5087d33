package orderflow

import "errors"

// Ошибки переходов. Роутер коллбэков превращает их в блокирующие
// уведомления оператору; здесь они остаются типизированными.
var (
	// ErrNotFound - заказ с таким ID не существует.
	ErrNotFound = errors.New("заказ не найден")

	// ErrAlreadyAssigned - гонка за взятие заказа проиграна: кто-то уже
	// перевел его в processing или дальше.
	ErrAlreadyAssigned = errors.New("заказ уже взят другим оператором")

	// ErrInvalidStatus - переход невозможен из текущего статуса заказа.
	ErrInvalidStatus = errors.New("недопустимый статус заказа для операции")

	// ErrOperatorMismatch - операция разрешена только оператору,
	// который взял заказ (включается флагом конфигурации).
	ErrOperatorMismatch = errors.New("заказ закреплен за другим оператором")
)
