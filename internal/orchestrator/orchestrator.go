// Package orchestrator routes ticks through the per-instrument price buffers,
// the signal evaluator and the allocation policy, and hands the resulting orders
// to a venue. It is driven through four entry points: OnStart, OnTick, OnEvent
// and OnStop. All calls must come from a single goroutine.
package orchestrator

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/allocation"
	"github.com/rxtech-lab/argo-signals/internal/buffer"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/position"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
	StateStopped State = "STOPPED"
)

type instrumentState struct {
	prices   *buffer.PriceBuffer
	weight   decimal.Decimal
	observed int
	lastTime time.Time
	// inFlight is set while an order or close for the instrument awaits its event.
	inFlight    bool
	closedOnce  bool
	lastPrice   decimal.Decimal
	hasObserved bool
}

// Orchestrator owns every buffer and position of a session.
type Orchestrator struct {
	config    Config
	submitter OrderSubmitter
	recorder  DecisionRecorder
	policy    *allocation.Policy
	tracker   *position.Tracker
	log       *logger.Logger

	state       State
	instruments map[types.Instrument]*instrumentState

	// barrier mode
	firstPrices map[types.Instrument]decimal.Decimal
	roundDone   bool
}

// NewOrchestrator validates config and builds an idle orchestrator.
// recorder may be nil.
func NewOrchestrator(config Config, submitter OrderSubmitter, recorder DecisionRecorder, log *logger.Logger) (*Orchestrator, error) {
	if submitter == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "order submitter is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if recorder == nil {
		recorder = nopRecorder{}
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Orchestrator{
		config:    config,
		submitter: submitter,
		recorder:  recorder,
		policy:    allocation.NewPolicy(config.Investment),
		tracker:   position.NewTracker(),
		log:       log,
		state:     StateIdle,
	}, nil
}

// SetPolicy replaces the allocation policy. Used to inject deterministic order ids.
func (o *Orchestrator) SetPolicy(policy *allocation.Policy) {
	o.policy = policy
}

func (o *Orchestrator) State() State {
	return o.state
}

// Positions exposes the tracker for read access.
func (o *Orchestrator) Positions() *position.Tracker {
	return o.tracker
}

// RoundDone reports whether the barrier allocation round has run.
func (o *Orchestrator) RoundDone() bool {
	return o.roundDone
}

// OnStart subscribes every configured instrument.
func (o *Orchestrator) OnStart(ctx context.Context) error {
	if o.state != StateIdle {
		return errors.Newf(errors.ErrCodeSessionAlreadyStarted, "session is %s", o.state)
	}

	o.instruments = make(map[types.Instrument]*instrumentState, len(o.config.Instruments))

	for _, inst := range o.config.Instruments {
		prices, err := buffer.NewPriceBuffer(o.config.Evaluator.Window)
		if err != nil {
			return err
		}

		o.instruments[inst] = &instrumentState{
			prices: prices,
			weight: allocation.ClampWeight(o.config.weight(inst)),
		}
	}

	if o.config.Mode == ModeBarrier {
		o.firstPrices = make(map[types.Instrument]decimal.Decimal, len(o.config.Instruments))
	}

	o.state = StateRunning
	o.log.Info("Session started",
		zap.String("strategy", o.config.Strategy),
		zap.String("signal", string(o.config.Evaluator.Kind)),
		zap.Int("window", o.config.Evaluator.Window),
		zap.String("mode", string(o.config.Mode)),
		zap.Int("instruments", len(o.instruments)),
	)

	return nil
}

// OnTick processes one price observation to completion.
func (o *Orchestrator) OnTick(ctx context.Context, tick types.Tick) error {
	if err := o.requireRunning(); err != nil {
		return err
	}

	st, ok := o.instruments[tick.Instrument]
	if !ok {
		o.log.Debug("Ignoring tick for unsubscribed instrument", zap.Stringer("instrument", tick.Instrument))

		return nil
	}

	if st.hasObserved && tick.Timestamp.Before(st.lastTime) {
		o.log.Debug("Dropping out of order tick",
			zap.Stringer("instrument", tick.Instrument),
			zap.Time("timestamp", tick.Timestamp),
			zap.Time("last", st.lastTime),
		)

		return nil
	}

	st.prices.Push(tick.Price)
	st.observed++
	st.lastTime = tick.Timestamp
	st.lastPrice = tick.Price
	st.hasObserved = true

	result := o.config.Evaluator.Evaluate(signal.Input{
		Prices:       st.prices.Snapshot(),
		Observed:     st.observed,
		PositionOpen: o.tracker.IsOpen(tick.Instrument),
		Full:         st.prices.IsFull(),
	})

	o.log.Debug("Evaluated tick",
		zap.Stringer("instrument", tick.Instrument),
		zap.String("price", tick.Price.String()),
		zap.String("decision", string(result.Decision)),
		zap.String("reason", result.Reason),
	)

	switch result.Decision {
	case signal.DecisionBuy:
		if o.config.Mode == ModeBarrier {
			return o.collectFirstPrice(ctx, tick, result)
		}

		return o.buy(ctx, tick, st, result)
	case signal.DecisionClose:
		return o.close(ctx, tick, st, result)
	default:
		return nil
	}
}

func (o *Orchestrator) buy(ctx context.Context, tick types.Tick, st *instrumentState, result signal.Result) error {
	if st.inFlight {
		o.record(ctx, tick, result, "", 0, types.DecisionResultSkipped, "order in flight")

		return nil
	}

	if st.closedOnce && !o.config.AllowReentry {
		o.record(ctx, tick, result, "", 0, types.DecisionResultSkipped, "re-entry disabled")

		return nil
	}

	allocations := o.policy.Allocate([]allocation.Request{{
		Instrument: tick.Instrument,
		Price:      tick.Price,
		Weight:     st.weight,
		Reason:     types.OrderReasonSignal,
	}}, tick.Timestamp)

	o.submit(ctx, tick, result, allocations[0])

	return nil
}

func (o *Orchestrator) submit(ctx context.Context, tick types.Tick, result signal.Result, alloc allocation.Allocation) {
	intent := alloc.Intent
	st := o.instruments[intent.Instrument]
	outcome := types.DecisionResultSubmitted

	if alloc.Fallback != nil {
		o.log.Warn("Allocation fell back to minimum quantity",
			zap.Stringer("instrument", intent.Instrument),
			zap.String("price", intent.Price.String()),
			zap.Error(alloc.Fallback),
		)
		outcome = types.DecisionResultFallback
	}

	// set before submitting: a synchronous venue may deliver the fill from inside Submit
	st.inFlight = true

	if err := o.submitter.Submit(ctx, intent); err != nil {
		st.inFlight = false
		o.log.Error("Failed to submit order",
			zap.Stringer("instrument", intent.Instrument),
			zap.String("order_id", intent.ID),
			zap.Error(err),
		)
		o.record(ctx, tick, result, intent.ID, intent.Quantity, types.DecisionResultFailed, err.Error())

		return
	}

	o.log.Info("Submitted order",
		zap.Stringer("instrument", intent.Instrument),
		zap.String("order_id", intent.ID),
		zap.Int64("quantity", intent.Quantity),
		zap.String("price", intent.Price.String()),
		zap.String("reason", intent.Reason),
	)
	o.record(ctx, tick, result, intent.ID, intent.Quantity, outcome, "")
}

func (o *Orchestrator) close(ctx context.Context, tick types.Tick, st *instrumentState, result signal.Result) error {
	if st.inFlight {
		o.record(ctx, tick, result, "", 0, types.DecisionResultSkipped, "order in flight")

		return nil
	}

	pos := o.tracker.Get(tick.Instrument)
	if pos.IsNone() {
		return nil
	}

	open := pos.Unwrap()
	st.inFlight = true

	if err := o.submitter.Close(ctx, open); err != nil {
		st.inFlight = false
		o.log.Error("Failed to close position", zap.Stringer("instrument", tick.Instrument), zap.Error(err))
		o.record(ctx, tick, result, "", open.Quantity, types.DecisionResultFailed, err.Error())

		return nil
	}

	o.log.Info("Requested close", zap.Stringer("instrument", tick.Instrument), zap.Int64("quantity", open.Quantity))
	o.record(ctx, tick, result, "", open.Quantity, types.DecisionResultClosed, "")

	return nil
}

// OnEvent applies a venue event. Events are accepted after OnStop so late
// fills still settle.
func (o *Orchestrator) OnEvent(ctx context.Context, event types.Event) error {
	if o.state == StateIdle {
		return errors.New(errors.ErrCodeSessionNotStarted, "session has not started")
	}

	st, ok := o.instruments[event.Instrument]
	if !ok {
		o.log.Debug("Ignoring event for unsubscribed instrument", zap.Stringer("instrument", event.Instrument))

		return nil
	}

	st.inFlight = false

	if !event.IsFill() {
		o.log.Warn("Order rejected",
			zap.Stringer("instrument", event.Instrument),
			zap.String("order_id", event.OrderID),
			zap.String("message", event.Message),
		)

		return nil
	}

	if o.state == StateStopped && event.Side == types.SideBuy {
		o.log.Warn("Ignoring buy fill after session end", zap.Stringer("instrument", event.Instrument), zap.String("order_id", event.OrderID))

		return nil
	}

	transition, err := o.tracker.Apply(event)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodePositionNotFound) {
			if o.state == StateStopped {
				o.log.Debug("Fill after teardown", zap.Stringer("instrument", event.Instrument))
			} else {
				o.log.Warn("No position for fill", zap.Stringer("instrument", event.Instrument), zap.Error(err))
			}

			return nil
		}

		return err
	}

	switch transition.Kind {
	case position.TransitionOpened:
		o.log.Info("Position opened",
			zap.Stringer("instrument", event.Instrument),
			zap.Int64("quantity", transition.Position.Quantity),
			zap.String("avg_price", transition.Position.AvgOpenPrice.String()),
		)
	case position.TransitionIncreased, position.TransitionReduced:
		o.log.Info("Position changed",
			zap.Stringer("instrument", event.Instrument),
			zap.Int64("quantity", transition.Position.Quantity),
			zap.String("avg_price", transition.Position.AvgOpenPrice.String()),
		)
	case position.TransitionClosed:
		st.closedOnce = true
		o.log.Info("Position closed",
			zap.Stringer("instrument", event.Instrument),
			zap.String("realized_pnl", transition.Realized.String()),
		)
	}

	return nil
}

// OnStop closes every open position and ends the session. Close failures are
// logged and returned together; they never interrupt teardown.
func (o *Orchestrator) OnStop(ctx context.Context) error {
	if err := o.requireRunning(); err != nil {
		return err
	}

	o.state = StateStopped

	marks := make(map[types.Instrument]decimal.Decimal, len(o.instruments))
	var at time.Time

	for inst, st := range o.instruments {
		if !st.hasObserved {
			continue
		}

		marks[inst] = st.lastPrice
		if st.lastTime.After(at) {
			at = st.lastTime
		}
	}

	var (
		errs   []error
		closed int
	)

	for _, pos := range o.tracker.OpenPositions() {
		mark, ok := marks[pos.Instrument]
		if !ok {
			mark = pos.AvgOpenPrice
		}

		tick := types.Tick{Instrument: pos.Instrument, Price: mark, Timestamp: at}
		result := signal.Result{Decision: signal.DecisionClose, Reason: types.OrderReasonSessionEnd}

		// a failed close leaves the units at the venue, so the position stays open
		if err := o.submitter.Close(ctx, pos); err != nil {
			o.log.Error("Failed to close position at session end", zap.Stringer("instrument", pos.Instrument), zap.Error(err))
			errs = append(errs, errors.Wrapf(errors.ErrCodeCloseFailed, err, "close %s", pos.Instrument))
			o.record(ctx, tick, result, "", pos.Quantity, types.DecisionResultFailed, err.Error())

			continue
		}

		if _, err := o.tracker.ForceClose(pos.Instrument, at, mark); err != nil {
			errs = append(errs, err)

			continue
		}

		o.log.Info("Closing position at session end", zap.Stringer("instrument", pos.Instrument), zap.Int64("quantity", pos.Quantity))
		o.record(ctx, tick, result, "", pos.Quantity, types.DecisionResultClosed, "")
		closed++
	}

	o.log.Info("Session stopped",
		zap.Int("force_closed", closed),
		zap.Int("left_open", len(errs)),
		zap.String("realized_pnl", o.tracker.RealizedPnL().String()),
	)

	return errors.Join(errs...)
}

func (o *Orchestrator) requireRunning() error {
	switch o.state {
	case StateIdle:
		return errors.New(errors.ErrCodeSessionNotStarted, "session has not started")
	case StateStopped:
		return errors.New(errors.ErrCodeSessionStopped, "session has stopped")
	default:
		return nil
	}
}

func (o *Orchestrator) record(ctx context.Context, tick types.Tick, result signal.Result, orderID string, quantity int64, outcome, reason string) {
	if reason == "" {
		reason = result.Reason
	}

	err := o.recorder.RecordDecision(ctx, types.DecisionRecord{
		RunID:      o.config.RunID,
		Timestamp:  tick.Timestamp,
		Instrument: tick.Instrument.String(),
		Price:      tick.Price.String(),
		Signal:     string(o.config.Evaluator.Kind),
		Decision:   string(result.Decision),
		Value:      result.Value.String(),
		Reason:     reason,
		OrderID:    orderID,
		Quantity:   quantity,
		Result:     outcome,
	})
	if err != nil {
		o.log.Warn("Failed to record decision", zap.Stringer("instrument", tick.Instrument), zap.Error(err))
	}
}
