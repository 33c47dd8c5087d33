package models

import "time"

// Operator - сотрудник, которому разрешено управлять заказами через бота.
type Operator struct {
	ChatID    int64
	Username  string
	FirstName string
	Role      string // constants.ROLE_OPERATOR / ROLE_OWNER
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName возвращает имя оператора для карточки заказа.
func (o Operator) DisplayName() string {
	if o.Username != "" {
		return "@" + o.Username
	}
	if o.FirstName != "" {
		return o.FirstName
	}
	return "оператор"
}
