package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/models"
)

// Auto deposits are 40% of the grand total.
var autoDepositRate = decimal.NewFromFloat(0.4)

// Totals is the computed summary persisted with every quote save.
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	TaxCents      int64 `json:"tax_cents"`
	FeesCents     int64 `json:"fees_cents"`
	TotalCents    int64 `json:"total_cents"`
	DepositCents  int64 `json:"deposit_cents"`
}

// LineTotalCents computes round(qty * unit_price_cents) with half-away-from-
// zero rounding. Negative inputs are clamped to zero: quantities and prices
// are non-negative by contract and malformed edits must not crash a save.
func LineTotalCents(qty float64, unitPriceCents int64) int64 {
	if qty < 0 {
		qty = 0
	}
	if unitPriceCents < 0 {
		unitPriceCents = 0
	}
	return decimal.NewFromFloat(qty).
		Mul(decimal.NewFromInt(unitPriceCents)).
		Round(0).IntPart()
}

// ComputeTotals recomputes every monetary figure from the snapshot's items
// and settings, stamping per-line totals and the summary back onto data.
//
//   - subtotal sums all line totals regardless of taxability
//   - tax applies the rate to taxable lines only
//   - the grand total never goes negative, even with negative fee adjustments
//   - deposit is derived (40%) in auto mode, taken as-is in custom mode
func ComputeTotals(data *models.QuoteData) Totals {
	var subtotal, taxableBase int64
	for i := range data.Items {
		lt := LineTotalCents(data.Items[i].Qty, data.Items[i].UnitPriceCents)
		data.Items[i].TotalCents = lt
		subtotal += lt
		if data.Items[i].Taxable {
			taxableBase += lt
		}
	}

	rate := data.TaxRate
	if rate < 0 {
		rate = 0
	}
	tax := decimal.NewFromInt(taxableBase).
		Mul(decimal.NewFromFloat(rate)).
		Div(decimal.NewFromInt(100)).
		Round(0).IntPart()

	total := subtotal + tax + data.FeesCents
	if total < 0 {
		total = 0
	}

	deposit := data.DepositCents
	if data.DepositMode != models.DepositCustom {
		deposit = decimal.NewFromInt(total).Mul(autoDepositRate).Round(0).IntPart()
	}

	data.SubtotalCents = subtotal
	data.TaxCents = tax
	data.TotalCents = total
	data.DepositCents = deposit

	return Totals{
		SubtotalCents: subtotal,
		TaxCents:      tax,
		FeesCents:     data.FeesCents,
		TotalCents:    total,
		DepositCents:  deposit,
	}
}

// ParseQuantity parses free-text quantity input. Malformed or negative text
// folds to zero so an in-progress edit can always be saved.
func ParseQuantity(s string) float64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// ParseCents parses a free-text currency amount ("12.50") into minor units.
// Malformed or negative text folds to zero.
func ParseCents(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
