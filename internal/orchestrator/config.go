package orchestrator

import (
	"github.com/rxtech-lab/argo-signals/internal/allocation"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Mode string

const (
	// ModePerInstrument evaluates and trades every instrument independently.
	ModePerInstrument Mode = "per_instrument"
	// ModeBarrier waits for the first price of every instrument, then runs a
	// single allocation round across all of them.
	ModeBarrier Mode = "barrier"
)

// Config is everything a session needs to know up front.
type Config struct {
	RunID       string
	Strategy    string
	Instruments []types.Instrument
	// Weights maps each instrument to its fraction of Investment. Missing
	// instruments use weight 1.
	Weights    map[types.Instrument]decimal.Decimal
	Investment decimal.Decimal
	Evaluator  signal.Evaluator
	Mode       Mode
	// AllowReentry lets an instrument buy again after its position was closed.
	AllowReentry bool
}

// Validate checks the config before a session starts.
func (c Config) Validate() error {
	if len(c.Instruments) == 0 {
		return errors.New(errors.ErrCodeNoInstruments, "at least one instrument is required")
	}

	if dups := lo.FindDuplicates(c.Instruments); len(dups) > 0 {
		return errors.Newf(errors.ErrCodeInvalidInstrument, "duplicate instrument %s", dups[0])
	}

	if !c.Investment.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "investment must be positive, got %s", c.Investment.String())
	}

	if err := c.Evaluator.Validate(); err != nil {
		return err
	}

	switch c.Mode {
	case ModePerInstrument:
	case ModeBarrier:
		if c.Evaluator.Kind != signal.KindFireOnce {
			return errors.Newf(errors.ErrCodeInvalidConfiguration, "barrier mode requires the fire_once signal, got %s", c.Evaluator.Kind)
		}
	default:
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "unknown mode %q", c.Mode)
	}

	weights := lo.Map(c.Instruments, func(inst types.Instrument, _ int) decimal.Decimal {
		return c.weight(inst)
	})

	if c.Mode == ModeBarrier {
		return allocation.ValidateWeights(weights)
	}

	for _, w := range weights {
		if err := allocation.ValidateWeights([]decimal.Decimal{w}); err != nil {
			return err
		}
	}

	return nil
}

func (c Config) weight(inst types.Instrument) decimal.Decimal {
	if w, ok := c.Weights[inst]; ok {
		return w
	}

	return decimal.NewFromInt(1)
}
