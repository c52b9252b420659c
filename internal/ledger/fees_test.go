package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProcessingFee_Breakpoints(t *testing.T) {
	fees := DefaultFeeSchedule()

	tests := []struct {
		gross string
		fee   string
	}{
		{"0", "0"},
		{"1000", "15"},
		{"2499.99", "37.49985"},
		{"2500", "137.5"},
		{"3000", "145"},
	}
	for _, tc := range tests {
		t.Run(tc.gross, func(t *testing.T) {
			got := fees.ProcessingFee(dec(tc.gross))
			assert.True(t, dec(tc.fee).Equal(got), "fee for %s: want %s, got %s", tc.gross, tc.fee, got)
		})
	}
}

func TestComputeSplit_SharesAddUpToGross(t *testing.T) {
	gross := dec("733.33")
	driver, school, carOwner, platform := computeSplit(gross, dec("0.6"), dec("0.07"), dec("0.13"))

	assert.True(t, dec("439.998").Equal(driver))
	assert.True(t, gross.Equal(driver.Add(school).Add(carOwner).Add(platform)))
	assert.True(t, platform.IsPositive())
}

func TestComputeSplit_OverAllocatedRatesLeaveNegativeResidual(t *testing.T) {
	gross := dec("100")
	driver, school, carOwner, platform := computeSplit(gross, dec("0.8"), dec("0.2"), dec("0.1"))

	assert.True(t, dec("-10").Equal(platform))
	assert.True(t, gross.Equal(driver.Add(school).Add(carOwner).Add(platform)))
}

func TestUniqueSorted(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, uniqueSorted([]string{"c", "a", "b", "a", "c"}))
}

func TestError_KindAndStatus(t *testing.T) {
	err := newError(KindSelfTransferDenied, "acc-1", "nope")

	assert.ErrorIs(t, err, ErrSelfTransferDenied)
	assert.Equal(t, KindSelfTransferDenied, KindOf(err))
	assert.Equal(t, 401, StatusOf(err))
	assert.Equal(t, KindInternal, KindOf(assert.AnError))
	assert.Equal(t, 500, StatusOf(assert.AnError))
	assert.Equal(t, 404, StatusOf(newError(KindNotFound, "", "missing")))
	assert.Equal(t, 400, StatusOf(newError(KindInsufficientFunds, "", "broke")))
}
