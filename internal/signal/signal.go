// Package signal turns a window of recent prices into a buy, close or hold decision.
//
// The evaluator is a closed set of rules selected by Kind. It keeps no state of
// its own: everything it needs is passed in through Input.
package signal

import (
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	// KindFireOnce buys on the first observed price and never closes.
	KindFireOnce Kind = "fire_once"
	// KindMomentum compares the latest price with the oldest in the window.
	KindMomentum Kind = "momentum"
	// KindConcavity looks at the sign of the latest second difference.
	KindConcavity Kind = "concavity"
)

// Kinds lists every supported rule.
var Kinds = []Kind{KindFireOnce, KindMomentum, KindConcavity}

type Decision string

const (
	DecisionBuy   Decision = "BUY"
	DecisionClose Decision = "CLOSE"
	DecisionHold  Decision = "HOLD"
)

// Input is what the orchestrator knows about one instrument when a price arrives.
type Input struct {
	// Prices is the buffered window, oldest first.
	Prices []decimal.Decimal
	// Observed counts the ticks seen for the instrument, including the current one.
	Observed int
	// PositionOpen is true when the instrument has an open position.
	PositionOpen bool
	// Full is true once the window holds its full capacity.
	Full bool
}

// Result is a decision plus the metric that produced it.
type Result struct {
	Decision Decision
	Reason   string
	Value    decimal.Decimal
}

const (
	ReasonFirstObservation = "first_observation"
	ReasonAlreadyFired     = "already_fired"
	ReasonWarmingUp        = "warming_up"
	ReasonRising           = "rising"
	ReasonFalling          = "falling"
	ReasonFlat             = "flat"
	ReasonConvex           = "convex"
	ReasonConcave          = "concave"
	ReasonLinear           = "linear"
	ReasonPositionOpen     = "position_open"
	ReasonNoPosition       = "no_position"
)

// Evaluator is a configured signal rule.
type Evaluator struct {
	Kind   Kind `yaml:"kind" json:"kind" validate:"required,oneof=fire_once momentum concavity"`
	Window int  `yaml:"window" json:"window" validate:"gte=1"`
}

func NewFireOnce() Evaluator {
	return Evaluator{Kind: KindFireOnce, Window: 1}
}

func NewMomentum(window int) Evaluator {
	return Evaluator{Kind: KindMomentum, Window: window}
}

func NewConcavity(window int) Evaluator {
	return Evaluator{Kind: KindConcavity, Window: window}
}

// MinWindow returns the smallest window the rule can produce non-hold decisions with.
func MinWindow(kind Kind) int {
	switch kind {
	case KindMomentum:
		return 2
	case KindConcavity:
		return 3
	default:
		return 1
	}
}

// Validate checks that the kind is known and the window is usable for it.
func (e Evaluator) Validate() error {
	switch e.Kind {
	case KindFireOnce:
		if e.Window != 1 {
			return errors.Newf(errors.ErrCodeInvalidWindow, "fire_once uses a window of 1, got %d", e.Window)
		}
	case KindMomentum, KindConcavity:
		if minWindow := MinWindow(e.Kind); e.Window < minWindow {
			return errors.Newf(errors.ErrCodeInvalidWindow, "%s needs a window of at least %d, got %d", e.Kind, minWindow, e.Window)
		}
	default:
		return errors.Newf(errors.ErrCodeUnsupportedSignal, "unsupported signal %q", e.Kind)
	}

	return nil
}

// Evaluate applies the rule to in. Unknown kinds hold.
func (e Evaluator) Evaluate(in Input) Result {
	switch e.Kind {
	case KindFireOnce:
		return evaluateFireOnce(in)
	case KindMomentum:
		return evaluateMomentum(in)
	case KindConcavity:
		return evaluateConcavity(in)
	default:
		return Result{Decision: DecisionHold, Reason: string(e.Kind)}
	}
}

func evaluateFireOnce(in Input) Result {
	if in.Observed == 1 {
		return Result{Decision: DecisionBuy, Reason: ReasonFirstObservation}
	}

	return Result{Decision: DecisionHold, Reason: ReasonAlreadyFired}
}

func evaluateMomentum(in Input) Result {
	if !in.Full || len(in.Prices) == 0 {
		return Result{Decision: DecisionHold, Reason: ReasonWarmingUp}
	}

	delta := in.Prices[len(in.Prices)-1].Sub(in.Prices[0])

	return decide(delta, in.PositionOpen, ReasonRising, ReasonFalling, ReasonFlat)
}

func evaluateConcavity(in Input) Result {
	if !in.Full || len(in.Prices) == 0 {
		return Result{Decision: DecisionHold, Reason: ReasonWarmingUp}
	}

	return decide(SecondDifference(in.Prices), in.PositionOpen, ReasonConvex, ReasonConcave, ReasonLinear)
}

func decide(value decimal.Decimal, open bool, up, down, flat string) Result {
	switch {
	case value.IsPositive() && !open:
		return Result{Decision: DecisionBuy, Reason: up, Value: value}
	case value.IsNegative() && open:
		return Result{Decision: DecisionClose, Reason: down, Value: value}
	case value.IsPositive():
		return Result{Decision: DecisionHold, Reason: ReasonPositionOpen, Value: value}
	case value.IsNegative():
		return Result{Decision: DecisionHold, Reason: ReasonNoPosition, Value: value}
	default:
		return Result{Decision: DecisionHold, Reason: flat, Value: value}
	}
}

// SecondDifference returns d[n-1] - d[n-2] over the first differences of prices,
// or zero when there are fewer than two differences.
func SecondDifference(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) < 3 {
		return decimal.Zero
	}

	n := len(prices)
	last := prices[n-1].Sub(prices[n-2])
	prev := prices[n-2].Sub(prices[n-3])

	return last.Sub(prev)
}
