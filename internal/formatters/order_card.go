package formatters

import (
	"fmt"
	"strings"

	"ExchangeBot/internal/constants"
	"ExchangeBot/internal/models"
	"ExchangeBot/internal/reasons"
	"ExchangeBot/internal/utils"
)

// FormatOrderCard собирает карточку заказа для рабочих чатов операторов.
// Карточка отправляется и редактируется без parse_mode: текст в Telegram
// хранится байт в байт, что позволяет снимать и навешивать маркеры
// подтверждения без потери разметки.
func FormatOrderCard(order models.Order) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📦 Заказ #%s\n", order.ID))
	sb.WriteString("─ ─ ─ ─ ─ ─ ─ ─ ─ ─\n")
	sb.WriteString(fmt.Sprintf("Статус: %s\n", statusLabel(order.Status)))
	sb.WriteString(fmt.Sprintf("Сумма: %s %s → %s\n",
		utils.FormatCryptoAmount(order.CryptoAmount), order.CryptoCurrency, utils.FormatUah(order.UahAmount)))
	sb.WriteString(fmt.Sprintf("Адрес депозита: %s\n", order.DepositAddress))

	if order.ClientContact.Valid && order.ClientContact.String != "" {
		sb.WriteString(fmt.Sprintf("Клиент: %s\n", order.ClientContact.String))
	}
	if order.OperatorChatID.Valid {
		sb.WriteString(fmt.Sprintf("Оператор: %d\n", order.OperatorChatID.Int64))
	}
	if order.CancelReasonID.Valid {
		sb.WriteString(fmt.Sprintf("Причина отмены: %s\n", reasons.LabelByID(order.CancelReasonID.String)))
	}

	sb.WriteString("─ ─ ─ ─ ─ ─ ─ ─ ─ ─\n")
	sb.WriteString(fmt.Sprintf("Создан: %s", order.CreatedAt.Format("02.01.2006 15:04")))
	if order.ProcessedAt.Valid {
		sb.WriteString(fmt.Sprintf("\nЗавершен: %s", order.ProcessedAt.Time.Format("02.01.2006 15:04")))
	}

	return sb.String()
}

func statusLabel(status string) string {
	if label, ok := constants.StatusDisplayMap[status]; ok {
		return label
	}
	return status
}
