// Package leave вычисляет окончание заявок на отсутствие: почасового отпрашивания и многодневного отпуска.
package leave

import (
	"fmt"
	"strings"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

// RequestKind описывает тип заявки.
type RequestKind string

const (
	// KindHourlyPermission означает отпрашивание на несколько часов в пределах дня (استئذان).
	KindHourlyPermission RequestKind = "hourlyPermission"
	// KindMultiDayLeave означает отпуск на целое число календарных дней (إجازة).
	KindMultiDayLeave RequestKind = "multiDayLeave"
)

var kindAliases = map[string]RequestKind{
	string(KindHourlyPermission): KindHourlyPermission,
	string(KindMultiDayLeave):    KindMultiDayLeave,
	"استئذان":                    KindHourlyPermission,
	"إجازة":                      KindMultiDayLeave,
}

// ParseKind распознаёт тип заявки, включая арабские названия из форм.
func ParseKind(s string) (RequestKind, error) {
	kind, ok := kindAliases[strings.TrimSpace(s)]
	if !ok {
		return "", fmt.Errorf("%w: %q", validation.ErrUnsupportedRequestKind, s)
	}
	return kind, nil
}

// Valid сообщает, относится ли тип к известным.
func (k RequestKind) Valid() bool {
	return k == KindHourlyPermission || k == KindMultiDayLeave
}
