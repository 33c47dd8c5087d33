package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatCryptoAmount форматирует сумму в криптовалюте без хвостовых нулей.
func FormatCryptoAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// FormatUah форматирует гривневую сумму с разделителями тысяч.
func FormatUah(amount float64) string {
	whole := int64(amount)
	frac := amount - float64(whole)

	digits := strconv.FormatInt(whole, 10)
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}

	var sb strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(d)
	}

	out := sb.String()
	if neg {
		out = "-" + out
	}
	if frac > 0.004 {
		out += fmt.Sprintf(",%02d", int(frac*100+0.5))
	}
	return out + " грн"
}
