package utils

import (
	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
)

// IsOperatorOrHigher проверяет, имеет ли пользователь право нажимать
// кнопки карточек заказов.
func IsOperatorOrHigher(op models.Operator) bool {
	return op.Role == constants.ROLE_OPERATOR || op.Role == constants.ROLE_OWNER
}

// IsOwner проверяет доступ к командам владельца (отчеты).
func IsOwner(op models.Operator) bool {
	return op.Role == constants.ROLE_OWNER
}
