package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/dealer-backoffice/internal/validation"
)

// QuoteInput описывает PriceQuote в JSON до валидации.
type QuoteInput struct {
	TotalOrBasePrice *float64 `json:"totalOrBasePrice"`
	TaxRatePercent   *float64 `json:"taxRatePercent,omitempty"`
	IsTaxInclusive   bool     `json:"isTaxInclusive"`
	NonTaxableAddOn  *float64 `json:"nonTaxableAddOn,omitempty"`
	AddOnIncluded    bool     `json:"addOnIncluded,omitempty"`
}

// Quote проверяет входные данные и строит PriceQuote. Если ставка не указана,
// используется defaultRate.
func (in QuoteInput) Quote(defaultRate decimal.Decimal) (PriceQuote, error) {
	price, err := validation.Required("totalOrBasePrice", in.TotalOrBasePrice)
	if err != nil {
		return PriceQuote{}, err
	}
	if err := validation.Positive("totalOrBasePrice", price); err != nil {
		return PriceQuote{}, err
	}

	rate := defaultRate
	if in.TaxRatePercent != nil {
		if err := validation.NonNegative("taxRatePercent", *in.TaxRatePercent); err != nil {
			return PriceQuote{}, err
		}
		rate = decimal.NewFromFloat(*in.TaxRatePercent)
	}

	addOn := decimal.Zero
	if in.NonTaxableAddOn != nil {
		if err := validation.NonNegative("nonTaxableAddOn", *in.NonTaxableAddOn); err != nil {
			return PriceQuote{}, err
		}
		addOn = decimal.NewFromFloat(*in.NonTaxableAddOn)
	}

	return PriceQuote{
		TotalOrBasePrice: decimal.NewFromFloat(price),
		TaxRatePercent:   rate,
		IsTaxInclusive:   in.IsTaxInclusive,
		NonTaxableAddOn:  addOn,
		AddOnIncluded:    in.AddOnIncluded,
	}, nil
}

// BreakdownOutput описывает разбивку в JSON, округлённую до двух знаков.
type BreakdownOutput struct {
	BasePrice       float64 `json:"basePrice"`
	TaxAmount       float64 `json:"taxAmount"`
	NonTaxableAddOn float64 `json:"nonTaxableAddOn"`
	GrandTotal      float64 `json:"grandTotal"`
	TaxRatePercent  float64 `json:"taxRatePercent"`
}

// NewBreakdownOutput округляет разбивку для выдачи клиенту.
func NewBreakdownOutput(b Breakdown) BreakdownOutput {
	r := b.Rounded()
	return BreakdownOutput{
		BasePrice:       r.BasePrice.InexactFloat64(),
		TaxAmount:       r.TaxAmount.InexactFloat64(),
		NonTaxableAddOn: r.NonTaxableAddOn.InexactFloat64(),
		GrandTotal:      r.GrandTotal.InexactFloat64(),
		TaxRatePercent:  r.TaxRatePercent.InexactFloat64(),
	}
}
