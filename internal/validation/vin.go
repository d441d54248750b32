package validation

import "strings"

const vinLength = 17

// IsValidVIN проверяет формат идентификационного номера транспортного средства:
// 17 символов, цифры и латинские буквы без I, O и Q.
func IsValidVIN(vin string) bool {
	if len(vin) != vinLength {
		return false
	}

	for i := 0; i < len(vin); i++ {
		ch := vin[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'A' && ch <= 'Z':
			if ch == 'I' || ch == 'O' || ch == 'Q' {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// NormalizeVIN приводит номер к верхнему регистру и убирает пробелы по краям.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}
