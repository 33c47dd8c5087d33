package db

import (
	"log"

	"ExchangeBot/internal/models"
)

// UpsertTrackedMessage регистрирует живое сообщение заказа. Пара
// (order_id, notification_type) уникальна: повторная отправка того же
// типа уведомления перезаписывает адрес сообщения, а не плодит записи.
func UpsertTrackedMessage(msg models.TrackedMessage) error {
	_, err := DB.Exec(`
        INSERT INTO tracked_messages (order_id, notification_type, chat_id, message_id, topic_id, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (order_id, notification_type)
        DO UPDATE SET chat_id = $3, message_id = $4, topic_id = $5, updated_at = NOW()`,
		msg.OrderID, msg.NotificationType, msg.ChatID, msg.MessageID, msg.TopicID)
	if err != nil {
		log.Printf("UpsertTrackedMessage: Ошибка регистрации сообщения заказа %s (%s): %v",
			msg.OrderID, msg.NotificationType, err)
	}
	return err
}

// GetTrackedMessages возвращает все живые сообщения заказа.
func GetTrackedMessages(orderID string) ([]models.TrackedMessage, error) {
	rows, err := DB.Query(`
        SELECT order_id, notification_type, chat_id, message_id, topic_id, updated_at
        FROM tracked_messages
        WHERE order_id = $1`, orderID)
	if err != nil {
		log.Printf("GetTrackedMessages: Ошибка выборки сообщений заказа %s: %v", orderID, err)
		return nil, err
	}
	defer rows.Close()

	var msgs []models.TrackedMessage
	for rows.Next() {
		var m models.TrackedMessage
		if err := rows.Scan(&m.OrderID, &m.NotificationType, &m.ChatID, &m.MessageID, &m.TopicID, &m.UpdatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
