package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatDiscount(t *testing.T) {
	p := FlatDiscount{Code: "edu24", Amount: decimal.NewFromInt(20)}

	tests := []struct {
		name  string
		code  string
		price int64
		want  string
		ok    bool
	}{
		{"recognized", "edu24", 150, "130", true},
		{"floors at zero", "edu24", 15, "0", true},
		{"exact", "edu24", 20, "0", true},
		{"case sensitive", "EDU24", 150, "0", false},
		{"empty", "", 150, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.Apply(tt.code, decimal.NewFromInt(tt.price))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTargetPrice(t *testing.T) {
	p := TargetPrice{Code: "edu24", Amount: decimal.NewFromInt(100)}

	got, ok := p.Apply("edu24", decimal.NewFromInt(150))
	require.True(t, ok)
	assert.Equal(t, "100", got.String())

	// never raises the price
	got, ok = p.Apply("edu24", decimal.NewFromInt(80))
	require.True(t, ok)
	assert.Equal(t, "80", got.String())

	_, ok = p.Apply("other", decimal.NewFromInt(150))
	assert.False(t, ok)
}

func TestFlatDiscount_EmptyCodeNeverMatches(t *testing.T) {
	p := FlatDiscount{Code: "", Amount: decimal.NewFromInt(20)}

	_, ok := p.Apply("", decimal.NewFromInt(150))
	assert.False(t, ok)
}

func TestNewCouponPolicy(t *testing.T) {
	amount := decimal.NewFromInt(20)

	p, err := NewCouponPolicy("", "edu24", amount)
	require.NoError(t, err)
	assert.IsType(t, FlatDiscount{}, p)

	p, err = NewCouponPolicy("target", "edu24", amount)
	require.NoError(t, err)
	assert.IsType(t, TargetPrice{}, p)

	_, err = NewCouponPolicy("percent", "edu24", amount)
	assert.Error(t, err)
}
