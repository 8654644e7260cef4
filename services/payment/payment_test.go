package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(13000), MinorUnits(decimal.NewFromInt(130)))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1000), MinorUnits(decimal.RequireFromString("9.995")))
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("paypal: %w", Dispatch(errors.New("timeout")))

	assert.Equal(t, DispatchFailed, KindOf(wrapped))
	assert.Equal(t, ProviderDeclined, KindOf(Declined("INSTRUMENT_DECLINED")))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, Succeeded(), OutcomeOf(nil))
	assert.Equal(t, Failed("INSTRUMENT_DECLINED"), OutcomeOf(Declined("INSTRUMENT_DECLINED")))
	assert.Equal(t, Failed("boom"), OutcomeOf(errors.New("boom")))
}
