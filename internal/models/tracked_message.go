package models

import "time"

// TrackedMessage - одна отрисованная карточка заказа в конкретном чате/топике.
// Пара (OrderID, NotificationType) уникальна: повторная отрисовка той же
// поверхности обновляет запись, а не плодит дубликаты.
type TrackedMessage struct {
	OrderID          string
	NotificationType string
	ChatID           int64
	MessageID        int
	TopicID          int // 0, если сообщение вне топика
	UpdatedAt        time.Time
}
