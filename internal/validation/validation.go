// Package validation содержит проверку входных данных калькуляторов и общие ошибки валидации.
package validation

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput возвращается, если обязательное числовое поле отсутствует, отрицательно,
	// равно нулю там, где требуется положительное значение, или не является конечным числом.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedRequestKind возвращается для неизвестного типа заявки на отсутствие.
	ErrUnsupportedRequestKind = errors.New("unsupported request kind")
)

// Invalid оборачивает ErrInvalidInput сообщением с именем поля.
func Invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, field, reason)
}

// Finite проверяет, что значение не NaN и не бесконечность.
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid(field, "must be a finite number")
	}
	return nil
}

// Positive проверяет, что значение конечно и строго больше нуля.
func Positive(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return Invalid(field, "must be positive")
	}
	return nil
}

// NonNegative проверяет, что значение конечно и не меньше нуля.
func NonNegative(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return Invalid(field, "must not be negative")
	}
	return nil
}

// Required проверяет наличие значения и возвращает его.
func Required(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, Invalid(field, "is required")
	}
	return *v, nil
}
