package tracker

import (
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"ExchangeBot/internal/db"
	"ExchangeBot/internal/models"
)

// Location - адрес одного живого сообщения заказа.
type Location struct {
	ChatID           int64
	MessageID        int
	TopicID          int
	NotificationType string
}

// SyncFailure - одно сообщение, которое не удалось обновить.
type SyncFailure struct {
	Location Location
	Err      error
}

// SyncReport - итог рассылки: сколько сообщений пытались обновить
// и какие из них не удалось. Частичный отказ не прерывает рассылку.
type SyncReport struct {
	Attempted int
	Succeeded int
	Failed    []SyncFailure
}

// Editor применяет новый текст и клавиатуру к одному сообщению.
// В продакшене это правка через Telegram API, в тестах - фейк.
type Editor interface {
	Edit(loc Location, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
}

// Broadcaster синхронизирует все живые сообщения заказа с его текущим
// состоянием. Адреса сообщений берутся у Locator, правки выполняет Editor.
type Broadcaster struct {
	Editor  Editor
	Locator func(orderID string) ([]Location, error)
}

// NewBroadcaster собирает Broadcaster с хранилищем сообщений в БД.
func NewBroadcaster(editor Editor) *Broadcaster {
	return &Broadcaster{
		Editor:  editor,
		Locator: dbLocator,
	}
}

func dbLocator(orderID string) ([]Location, error) {
	msgs, err := db.GetTrackedMessages(orderID)
	if err != nil {
		return nil, err
	}
	locs := make([]Location, 0, len(msgs))
	for _, m := range msgs {
		locs = append(locs, Location{
			ChatID:           m.ChatID,
			MessageID:        m.MessageID,
			TopicID:          m.TopicID,
			NotificationType: m.NotificationType,
		})
	}
	return locs, nil
}

// Register запоминает адрес отправленного сообщения заказа.
func (b *Broadcaster) Register(orderID, notificationType string, chatID int64, messageID, topicID int) error {
	return db.UpsertTrackedMessage(models.TrackedMessage{
		OrderID:          orderID,
		NotificationType: notificationType,
		ChatID:           chatID,
		MessageID:        messageID,
		TopicID:          topicID,
	})
}

// SyncAll рассылает обновление по всем живым сообщениям заказа.
// Правки идут параллельно; отказ одного сообщения фиксируется в отчете
// и не мешает остальным.
func (b *Broadcaster) SyncAll(orderID, text string, keyboard *tgbotapi.InlineKeyboardMarkup) SyncReport {
	locs, err := b.Locator(orderID)
	if err != nil {
		log.Printf("[TRACKER] Не удалось получить сообщения заказа %s: %v", orderID, err)
		return SyncReport{Failed: []SyncFailure{{Err: fmt.Errorf("выборка сообщений: %w", err)}}}
	}

	report := SyncReport{Attempted: len(locs)}
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, loc := range locs {
		wg.Add(1)
		go func(loc Location) {
			defer wg.Done()
			err := b.Editor.Edit(loc, text, keyboard)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed = append(report.Failed, SyncFailure{Location: loc, Err: err})
				return
			}
			report.Succeeded++
		}(loc)
	}
	wg.Wait()

	if len(report.Failed) > 0 {
		log.Printf("[TRACKER] Заказ %s: обновлено %d/%d сообщений, отказов %d",
			orderID, report.Succeeded, report.Attempted, len(report.Failed))
	}
	return report
}

// SyncOne обновляет единственное сообщение - то, с которого пришло нажатие.
// Используется для навигационных переключений клавиатур.
func (b *Broadcaster) SyncOne(loc Location, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	return b.Editor.Edit(loc, text, keyboard)
}
