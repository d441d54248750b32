// Package pricing рассчитывает разбивку цены автомобиля на базовую стоимость, НДС и итог.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

// DefaultTaxRatePercent задаёт ставку НДС в Саудовской Аравии.
var DefaultTaxRatePercent = decimal.NewFromInt(15)

// MaxAmount ограничивает суммы расчёта: в халалах она гарантированно помещается в int64
// и без потерь переводится в float64 для JSON.
var MaxAmount = decimal.NewFromInt(1_000_000_000_000)

var hundred = decimal.NewFromInt(100)

// PriceQuote описывает входные данные расчёта цены.
type PriceQuote struct {
	TotalOrBasePrice decimal.Decimal
	TaxRatePercent   decimal.Decimal
	IsTaxInclusive   bool
	// NonTaxableAddOn содержит сбор, не облагаемый НДС (например, плата за номерной знак).
	NonTaxableAddOn decimal.Decimal
	// AddOnIncluded означает, что сбор уже входит в TotalOrBasePrice.
	AddOnIncluded bool
}

// Breakdown содержит результат расчёта. Значения не округлены.
type Breakdown struct {
	BasePrice       decimal.Decimal
	TaxAmount       decimal.Decimal
	NonTaxableAddOn decimal.Decimal
	GrandTotal      decimal.Decimal
	TaxRatePercent  decimal.Decimal
}

// ComputeBreakdown рассчитывает базовую цену, сумму налога и итог.
// Итог всегда равен BasePrice + TaxAmount + NonTaxableAddOn.
func ComputeBreakdown(q PriceQuote) (Breakdown, error) {
	if !q.TotalOrBasePrice.IsPositive() {
		return Breakdown{}, validation.Invalid("totalOrBasePrice", "must be positive")
	}
	if q.TaxRatePercent.IsNegative() {
		return Breakdown{}, validation.Invalid("taxRatePercent", "must not be negative")
	}
	if q.NonTaxableAddOn.IsNegative() {
		return Breakdown{}, validation.Invalid("nonTaxableAddOn", "must not be negative")
	}
	if q.TotalOrBasePrice.GreaterThan(MaxAmount) {
		return Breakdown{}, validation.Invalid("totalOrBasePrice", "is too large")
	}
	if q.NonTaxableAddOn.GreaterThan(MaxAmount) {
		return Breakdown{}, validation.Invalid("nonTaxableAddOn", "is too large")
	}

	taxable := q.TotalOrBasePrice
	if q.AddOnIncluded {
		taxable = taxable.Sub(q.NonTaxableAddOn)
		if taxable.IsNegative() {
			return Breakdown{}, validation.Invalid("nonTaxableAddOn", "exceeds totalOrBasePrice")
		}
	}

	var b Breakdown
	b.TaxRatePercent = q.TaxRatePercent
	b.NonTaxableAddOn = q.NonTaxableAddOn

	if q.IsTaxInclusive {
		b.TaxAmount = taxable.Mul(q.TaxRatePercent).Div(hundred.Add(q.TaxRatePercent))
		b.BasePrice = taxable.Sub(b.TaxAmount)
	} else {
		b.TaxAmount = taxable.Mul(q.TaxRatePercent).Div(hundred)
		b.BasePrice = taxable
	}
	b.GrandTotal = b.BasePrice.Add(b.TaxAmount).Add(b.NonTaxableAddOn)

	return b, nil
}

// Rounded возвращает копию разбивки, округлённую до двух знаков. Итог складывается
// из округлённых частей, поэтому равенство итога и суммы частей сохраняется.
func (b Breakdown) Rounded() Breakdown {
	r := Breakdown{
		BasePrice:       b.BasePrice.Round(2),
		TaxAmount:       b.TaxAmount.Round(2),
		NonTaxableAddOn: b.NonTaxableAddOn.Round(2),
		TaxRatePercent:  b.TaxRatePercent,
	}
	r.GrandTotal = r.BasePrice.Add(r.TaxAmount).Add(r.NonTaxableAddOn)
	return r
}

// Cents переводит сумму в целые халалы с округлением до двух знаков.
func Cents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents переводит сумму из халал обратно в decimal.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
