package orchestrator

import (
	"context"
	"sort"

	"github.com/rxtech-lab/argo-signals/internal/allocation"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// collectFirstPrice stores the first price of an instrument and runs the
// allocation round once every subscribed instrument has reported.
func (o *Orchestrator) collectFirstPrice(ctx context.Context, tick types.Tick, result signal.Result) error {
	if o.roundDone {
		return nil
	}

	if _, seen := o.firstPrices[tick.Instrument]; seen {
		return nil
	}

	o.firstPrices[tick.Instrument] = tick.Price
	o.log.Debug("Collected first price",
		zap.Stringer("instrument", tick.Instrument),
		zap.Int("collected", len(o.firstPrices)),
		zap.Int("subscribed", len(o.instruments)),
	)

	if len(o.firstPrices) < len(o.instruments) {
		return nil
	}

	o.roundDone = true

	instruments := lo.Keys(o.firstPrices)
	sort.Slice(instruments, func(i, j int) bool {
		return instruments[i].String() < instruments[j].String()
	})

	requests := lo.Map(instruments, func(inst types.Instrument, _ int) allocation.Request {
		return allocation.Request{
			Instrument: inst,
			Price:      o.firstPrices[inst],
			Weight:     o.instruments[inst].weight,
			Reason:     types.OrderReasonAllocationRound,
		}
	})

	o.log.Info("Running allocation round", zap.Int("instruments", len(requests)))

	for _, alloc := range o.policy.Allocate(requests, tick.Timestamp) {
		roundTick := types.Tick{
			Instrument: alloc.Intent.Instrument,
			Price:      alloc.Intent.Price,
			Timestamp:  tick.Timestamp,
		}
		o.submit(ctx, roundTick, result, alloc)
	}

	return nil
}
