package utils

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

// GenerateAddressQR кодирует адрес депозита в PNG-картинку QR-кода,
// которую бот отправляет клиенту для оплаты.
func GenerateAddressQR(address string) ([]byte, error) {
	png, err := qrcode.Encode(address, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("не удалось сгенерировать QR-код: %w", err)
	}
	return png, nil
}
