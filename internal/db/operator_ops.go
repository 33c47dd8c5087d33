package db

import (
	"database/sql"
	"log"

	"ExchangeBot/internal/models"
)

// GetOperatorByChatID возвращает оператора по chat_id.
// Второй результат false, если пользователь не зарегистрирован.
func GetOperatorByChatID(chatID int64) (models.Operator, bool, error) {
	var op models.Operator
	err := DB.QueryRow(`
        SELECT chat_id, username, first_name, role, created_at, updated_at
        FROM operators WHERE chat_id = $1`, chatID).
		Scan(&op.ChatID, &op.Username, &op.FirstName, &op.Role, &op.CreatedAt, &op.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Operator{}, false, nil
	}
	if err != nil {
		log.Printf("GetOperatorByChatID: Ошибка чтения оператора %d: %v", chatID, err)
		return models.Operator{}, false, err
	}
	return op, true, nil
}

// OperatorDirectory - доступ обработчиков к таблице операторов.
type OperatorDirectory struct{}

// NewOperatorDirectory возвращает справочник операторов поверх
// глобального соединения.
func NewOperatorDirectory() *OperatorDirectory {
	return &OperatorDirectory{}
}

func (d *OperatorDirectory) FindByChatID(chatID int64) (models.Operator, bool, error) {
	return GetOperatorByChatID(chatID)
}

// UpsertOperator регистрирует оператора или обновляет его профиль.
// Роль при обновлении не понижается: owner остается owner.
func UpsertOperator(chatID int64, username, firstName, role string) error {
	_, err := DB.Exec(`
        INSERT INTO operators (chat_id, username, first_name, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        ON CONFLICT (chat_id)
        DO UPDATE SET username = $2, first_name = $3,
            role = CASE WHEN operators.role = 'owner' THEN operators.role ELSE $4 END,
            updated_at = NOW()`,
		chatID, username, firstName, role)
	if err != nil {
		log.Printf("UpsertOperator: Ошибка регистрации оператора %d: %v", chatID, err)
	}
	return err
}
