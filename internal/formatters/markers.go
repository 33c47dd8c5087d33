package formatters

import (
	"fmt"
	"strings"

	"ExchangeBot/internal/reasons"
)

// MarkerSentinel отделяет карточку заказа от временного UI-маркера.
// Базовый текст карточки никогда не содержит эту последовательность,
// поэтому отрезание по первому вхождению восстанавливает карточку
// байт в байт.
const MarkerSentinel = "\n\n⚠️ "

// StripMarker удаляет маркер вместе со всем, что после него.
// На тексте без маркера возвращает его как есть, повторный вызов
// ничего не меняет.
func StripMarker(text string) string {
	if idx := strings.Index(text, MarkerSentinel); idx >= 0 {
		return text[:idx]
	}
	return text
}

// AppendCompleteConfirm навешивает маркер подтверждения завершения.
// Старый маркер, если был, предварительно снимается - маркеры не
// вкладываются друг в друга.
func AppendCompleteConfirm(text string) string {
	return StripMarker(text) + MarkerSentinel + "Подтвердите завершение заказа"
}

// AppendCancelReasons навешивает маркер выбора причины отмены.
func AppendCancelReasons(text string) string {
	return StripMarker(text) + MarkerSentinel + "Выберите причину отмены"
}

// AppendReasonConfirm навешивает маркер подтверждения отмены с
// выбранной причиной.
func AppendReasonConfirm(text string, reason reasons.Reason) string {
	return StripMarker(text) + MarkerSentinel + fmt.Sprintf("Отменить заказ? Причина: %s", reason.Label)
}
