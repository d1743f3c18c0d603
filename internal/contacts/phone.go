package contacts

import (
	"fmt"
	"strings"
)

// NormalizePhone — приведение к каноническому международному виду: "+",
// код страны, только цифры. Российские номера 8XXXXXXXXXX и XXXXXXXXXX
// приводятся к +7XXXXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	plus := strings.HasPrefix(trimmed, "+")

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case plus && len(d) >= 10 && len(d) <= 15:
		return "+" + d, nil
	case len(d) == 11 && d[0] == '8':
		return "+7" + d[1:], nil
	case len(d) == 11 && d[0] == '7':
		return "+" + d, nil
	case len(d) == 10 && d[0] == '9':
		return "+7" + d, nil
	case len(d) >= 11 && len(d) <= 15:
		// уже с кодом страны, просто без плюса
		return "+" + d, nil
	}
	return "", fmt.Errorf("не удалось нормализовать номер %q", raw)
}
