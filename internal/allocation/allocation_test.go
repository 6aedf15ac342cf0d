package allocation

import (
	"fmt"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AllocationTestSuite struct {
	suite.Suite
	policy *Policy
}

func TestAllocationSuite(t *testing.T) {
	suite.Run(t, new(AllocationTestSuite))
}

func (suite *AllocationTestSuite) SetupTest() {
	counter := 0
	suite.policy = NewPolicy(decimal.NewFromInt(100_000))
	suite.policy.NewID = func() string {
		counter++

		return fmt.Sprintf("order-%d", counter)
	}
}

func (suite *AllocationTestSuite) TestComputeQuantity() {
	tests := []struct {
		name     string
		price    string
		weight   string
		total    string
		expected int64
	}{
		{"whole division", "100", "1", "100000", 1000},
		{"floors fractional units", "150", "0.5", "100000", 333},
		{"tiny allocation clamps to one", "5000", "0.01", "100000", 1},
		{"zero weight clamps to one", "10", "0", "100000", 1},
		{"weight above one is clamped", "100", "2", "1000", 10},
		{"negative weight is clamped", "100", "-0.5", "1000", 1},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			q, err := suite.policy.ComputeQuantity(
				decimal.RequireFromString(tc.price),
				decimal.RequireFromString(tc.weight),
				decimal.RequireFromString(tc.total),
			)
			suite.NoError(err)
			suite.Equal(tc.expected, q)
			suite.GreaterOrEqual(q, MinQuantity)
		})
	}
}

func (suite *AllocationTestSuite) TestComputeQuantityNonPositivePrice() {
	for _, price := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-3)} {
		q, err := suite.policy.ComputeQuantity(price, decimal.NewFromInt(1), decimal.NewFromInt(1000))
		suite.Equal(int64(1), q)
		suite.True(errors.HasCode(err, errors.ErrCodeInvalidPrice))
	}
}

func (suite *AllocationTestSuite) TestAllocate() {
	at := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	aapl := types.NewInstrument("AAPL", "SIM")
	msft := types.NewInstrument("MSFT", "SIM")
	goog := types.NewInstrument("GOOG", "SIM")

	allocations := suite.policy.Allocate([]Request{
		{Instrument: aapl, Price: decimal.NewFromInt(100), Weight: decimal.RequireFromString("0.5"), Reason: types.OrderReasonAllocationRound},
		{Instrument: msft, Price: decimal.NewFromInt(300), Weight: decimal.RequireFromString("0.3"), Reason: types.OrderReasonAllocationRound},
		{Instrument: goog, Price: decimal.Zero, Weight: decimal.RequireFromString("0.2")},
	}, at)

	suite.Require().Len(allocations, 3)

	suite.Equal("order-1", allocations[0].Intent.ID)
	suite.Equal(aapl, allocations[0].Intent.Instrument)
	suite.Equal(int64(500), allocations[0].Intent.Quantity)
	suite.Equal(types.SideBuy, allocations[0].Intent.Side)
	suite.Equal(at, allocations[0].Intent.CreatedAt)
	suite.NoError(allocations[0].Fallback)

	suite.Equal(int64(100), allocations[1].Intent.Quantity)

	suite.Equal(int64(1), allocations[2].Intent.Quantity)
	suite.Equal(types.OrderReasonSignal, allocations[2].Intent.Reason)
	suite.True(errors.HasCode(allocations[2].Fallback, errors.ErrCodeInvalidPrice))
}

func (suite *AllocationTestSuite) TestValidateWeights() {
	d := decimal.RequireFromString

	suite.NoError(ValidateWeights([]decimal.Decimal{d("0.5"), d("0.3"), d("0.2")}))
	suite.NoError(ValidateWeights([]decimal.Decimal{d("0.4")}))
	suite.NoError(ValidateWeights(nil))
	suite.NoError(ValidateWeights([]decimal.Decimal{d("0.3333333333"), d("0.3333333333"), d("0.3333333334")}))

	suite.True(errors.HasCode(ValidateWeights([]decimal.Decimal{d("0.7"), d("0.4")}), errors.ErrCodeWeightsExceedOne))
	suite.True(errors.HasCode(ValidateWeights([]decimal.Decimal{d("1.2")}), errors.ErrCodeInvalidWeight))
	suite.True(errors.HasCode(ValidateWeights([]decimal.Decimal{d("-0.1")}), errors.ErrCodeInvalidWeight))
}

func (suite *AllocationTestSuite) TestEqualWeights() {
	weights := EqualWeights(4)
	suite.Len(weights, 4)
	suite.True(decimal.RequireFromString("0.25").Equal(weights[0]))
	suite.NoError(ValidateWeights(weights))
	suite.Nil(EqualWeights(0))

	for n := 1; n <= 50; n++ {
		weights := EqualWeights(n)
		suite.Require().Len(weights, n)
		suite.True(decimal.NewFromInt(1).Equal(decimal.Sum(decimal.Zero, weights...)), "n=%d", n)
		suite.NoError(ValidateWeights(weights), "n=%d", n)
	}

	// 1/6 truncated, remainder on the last weight
	six := EqualWeights(6)
	suite.Equal("0.16666666", six[0].String())
	suite.Equal("0.1666667", six[5].String())
}
