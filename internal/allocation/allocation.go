// Package allocation sizes market orders from an investment amount, a weight and a price.
package allocation

import (
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// MinQuantity is the smallest order the policy will size.
const MinQuantity int64 = 1

// WeightTolerance absorbs float rounding when weights are summed.
var WeightTolerance = decimal.New(1, -9)

// Policy sizes orders as floor(total * weight / price), never below MinQuantity.
type Policy struct {
	// Total is the investment amount the weights are fractions of.
	Total decimal.Decimal
	// NewID generates order ids. Defaults to uuid.NewString.
	NewID func() string
}

func NewPolicy(total decimal.Decimal) *Policy {
	return &Policy{Total: total, NewID: uuid.NewString}
}

// Request asks for one instrument to be bought at a reference price.
type Request struct {
	Instrument types.Instrument
	Price      decimal.Decimal
	Weight     decimal.Decimal
	Reason     string
}

// Allocation is a sized order intent. Fallback is set when the quantity was
// forced to MinQuantity because the price was unusable; the intent is still valid.
type Allocation struct {
	Intent   types.OrderIntent
	Fallback error
}

// ComputeQuantity returns the whole number of units total*weight buys at price.
// A non-positive price yields MinQuantity together with an ErrCodeInvalidPrice error.
func (p *Policy) ComputeQuantity(price, weight, total decimal.Decimal) (int64, error) {
	if !price.IsPositive() {
		return MinQuantity, errors.Newf(errors.ErrCodeInvalidPrice, "price must be positive, got %s", price.String())
	}

	weight = ClampWeight(weight)

	quantity := total.Mul(weight).Div(price).Floor().IntPart()
	if quantity < MinQuantity {
		return MinQuantity, nil
	}

	return quantity, nil
}

// Allocate sizes one buy intent per request against the policy's total.
func (p *Policy) Allocate(requests []Request, at time.Time) []Allocation {
	newID := p.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	return lo.Map(requests, func(req Request, _ int) Allocation {
		quantity, err := p.ComputeQuantity(req.Price, req.Weight, p.Total)

		reason := req.Reason
		if reason == "" {
			reason = types.OrderReasonSignal
		}

		return Allocation{
			Intent: types.OrderIntent{
				ID:         newID(),
				Instrument: req.Instrument,
				Side:       types.SideBuy,
				Quantity:   quantity,
				Price:      req.Price,
				Weight:     ClampWeight(req.Weight),
				Reason:     reason,
				CreatedAt:  at,
			},
			Fallback: err,
		}
	})
}

// ClampWeight limits w to [0, 1].
func ClampWeight(w decimal.Decimal) decimal.Decimal {
	if w.IsNegative() {
		return decimal.Zero
	}

	if w.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}

	return w
}

// ValidateWeights checks every weight is in [0, 1] and that together they do not exceed 1.
func ValidateWeights(weights []decimal.Decimal) error {
	one := decimal.NewFromInt(1)

	for i, w := range weights {
		if w.IsNegative() || w.GreaterThan(one) {
			return errors.Newf(errors.ErrCodeInvalidWeight, "weight %d must be within [0, 1], got %s", i, w.String())
		}
	}

	sum := lo.Reduce(weights, func(acc decimal.Decimal, w decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(w)
	}, decimal.Zero)

	if sum.Sub(one).GreaterThan(WeightTolerance) {
		return errors.Newf(errors.ErrCodeWeightsExceedOne, "weights sum to %s, which exceeds 1", sum.String())
	}

	return nil
}

// EqualWeights splits the investment evenly across n instruments. Weights are
// truncated to 8 places and the last one takes the remainder, so they sum to exactly 1.
func EqualWeights(n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	one := decimal.NewFromInt(1)
	w := one.Div(decimal.NewFromInt(int64(n))).Truncate(8)

	weights := lo.Times(n, func(int) decimal.Decimal { return w })
	weights[n-1] = one.Sub(w.Mul(decimal.NewFromInt(int64(n - 1))))

	return weights
}
