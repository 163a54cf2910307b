// Package pricing computes ticket prices.  Prices are exact decimals; no
// rounding is applied at any step.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

// Price returns the cost of one seat of type st in hall h:
// the hall base price times the seat-type multiplier.
func Price(h model.Hall, st model.SeatType) decimal.Decimal {
	return h.BasePrice.Mul(st.PriceMultiplier)
}

// Total sums prices exactly.  An empty list totals zero.
func Total(prices ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, p := range prices {
		total = total.Add(p)
	}
	return total
}
