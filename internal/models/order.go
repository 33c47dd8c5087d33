package models

import (
	"database/sql"
	"time"
)

// Order - заказ на обмен криптовалюты на гривну.
// Статус меняется только через условные UPDATE в internal/db (см. orderflow).
type Order struct {
	ID             string
	Status         string
	OperatorChatID sql.NullInt64 // устанавливается один раз при взятии заказа, не очищается
	CryptoAmount   float64
	CryptoCurrency string
	UahAmount      float64
	DepositAddress string
	ClientChatID   sql.NullInt64  // Telegram-чат клиента, если он привязал бота
	ClientContact  sql.NullString // контакт клиента с витрины (email/телефон)
	CancelReasonID sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ProcessedAt    sql.NullTime
}
