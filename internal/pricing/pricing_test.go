package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-booking-core/internal/model"
)

func TestPrice(t *testing.T) {
	tests := []struct {
		name       string
		base       string
		multiplier string
		want       string
	}{
		{"vip", "300.00", "1.5", "450.00"},
		{"standard", "300.00", "1.0", "300"},
		{"free seat", "300.00", "0", "0"},
		{"fractional", "12.35", "1.25", "15.4375"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := model.Hall{BasePrice: decimal.RequireFromString(tt.base)}
			st := model.SeatType{PriceMultiplier: decimal.RequireFromString(tt.multiplier)}

			got := Price(h, st)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestTotal(t *testing.T) {
	assert.True(t, Total().Equal(decimal.Zero))

	got := Total(decimal.RequireFromString("0.1"), decimal.RequireFromString("0.2"))
	assert.True(t, got.Equal(decimal.RequireFromString("0.3")))
}
