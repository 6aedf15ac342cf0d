// Package position keeps the per-instrument Flat/Open state machine driven by venue fills.
package position

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

type TransitionKind string

const (
	TransitionNone      TransitionKind = "NONE"
	TransitionOpened    TransitionKind = "OPENED"
	TransitionIncreased TransitionKind = "INCREASED"
	TransitionReduced   TransitionKind = "REDUCED"
	TransitionClosed    TransitionKind = "CLOSED"
)

// Transition describes what an event did to a position.
type Transition struct {
	Kind     TransitionKind
	Position types.Position
	// Realized is the PnL realized by this event, zero unless units were sold.
	Realized decimal.Decimal
}

// Tracker holds the current position of each instrument plus the closed history.
// It is not safe for concurrent use.
type Tracker struct {
	positions map[types.Instrument]*types.Position
	closed    []types.Position
}

func NewTracker() *Tracker {
	return &Tracker{
		positions: make(map[types.Instrument]*types.Position),
	}
}

// Apply updates the tracker with a venue event.
//
// Buy fills open or add to a position. Sell fills reduce it and close it once
// the quantity reaches zero. A sell fill for an instrument with no open position
// returns ErrCodePositionNotFound and changes nothing. Rejections are ignored.
func (t *Tracker) Apply(event types.Event) (Transition, error) {
	if !event.IsFill() {
		return Transition{Kind: TransitionNone}, nil
	}

	if event.Quantity <= 0 {
		return Transition{Kind: TransitionNone}, errors.Newf(errors.ErrCodeInvalidOrder, "fill for %s has non-positive quantity %d", event.Instrument, event.Quantity)
	}

	switch event.Side {
	case types.SideBuy:
		return t.applyBuy(event), nil
	case types.SideSell:
		return t.applySell(event)
	default:
		return Transition{Kind: TransitionNone}, errors.Newf(errors.ErrCodeInvalidOrder, "unknown fill side %q", event.Side)
	}
}

func (t *Tracker) applyBuy(event types.Event) Transition {
	pos, ok := t.positions[event.Instrument]
	if !ok || !pos.IsOpen() {
		pos = &types.Position{
			Instrument:   event.Instrument,
			State:        types.PositionStateOpen,
			Quantity:     event.Quantity,
			AvgOpenPrice: event.Price,
			OpenedAt:     event.Timestamp,
		}
		t.positions[event.Instrument] = pos

		return Transition{Kind: TransitionOpened, Position: *pos}
	}

	held := decimal.NewFromInt(pos.Quantity)
	added := decimal.NewFromInt(event.Quantity)
	total := held.Add(added)

	pos.AvgOpenPrice = pos.AvgOpenPrice.Mul(held).Add(event.Price.Mul(added)).Div(total)
	pos.Quantity += event.Quantity

	return Transition{Kind: TransitionIncreased, Position: *pos}
}

func (t *Tracker) applySell(event types.Event) (Transition, error) {
	pos, ok := t.positions[event.Instrument]
	if !ok || !pos.IsOpen() {
		return Transition{Kind: TransitionNone}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", event.Instrument)
	}

	sold := event.Quantity
	if sold > pos.Quantity {
		sold = pos.Quantity
	}

	realized := event.Price.Sub(pos.AvgOpenPrice).Mul(decimal.NewFromInt(sold))
	pos.RealizedPnL = pos.RealizedPnL.Add(realized)
	pos.Quantity -= sold

	if pos.Quantity > 0 {
		return Transition{Kind: TransitionReduced, Position: *pos, Realized: realized}, nil
	}

	pos.State = types.PositionStateFlat
	pos.ClosedAt = event.Timestamp
	pos.ClosePrice = event.Price
	// keep the closed size on the record
	pos.Quantity = sold

	closed := *pos
	t.closed = append(t.closed, closed)
	delete(t.positions, event.Instrument)

	return Transition{Kind: TransitionClosed, Position: closed, Realized: realized}, nil
}

// Get returns the open position for instrument, if any.
func (t *Tracker) Get(instrument types.Instrument) optional.Option[types.Position] {
	pos, ok := t.positions[instrument]
	if !ok || !pos.IsOpen() {
		return optional.None[types.Position]()
	}

	return optional.Some(*pos)
}

func (t *Tracker) IsOpen(instrument types.Instrument) bool {
	return t.Get(instrument).IsSome()
}

// OpenPositions returns every open position sorted by instrument.
func (t *Tracker) OpenPositions() []types.Position {
	out := make([]types.Position, 0, len(t.positions))
	for _, pos := range t.positions {
		if pos.IsOpen() {
			out = append(out, *pos)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Instrument.String() < out[j].Instrument.String()
	})

	return out
}

// ForceClose marks the open position of instrument flat at mark and returns it.
// An instrument without an open position returns ErrCodePositionNotFound.
func (t *Tracker) ForceClose(instrument types.Instrument, at time.Time, mark decimal.Decimal) (types.Position, error) {
	open, ok := t.positions[instrument]
	if !ok {
		return types.Position{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position for %s", instrument)
	}

	pos := *open
	pos.RealizedPnL = pos.RealizedPnL.Add(pos.UnrealizedPnL(mark))
	pos.State = types.PositionStateFlat
	pos.ClosedAt = at
	pos.ClosePrice = mark
	pos.Forced = true

	t.closed = append(t.closed, pos)
	delete(t.positions, instrument)

	return pos, nil
}

// ClosedPositions returns every position closed so far, in closing order.
func (t *Tracker) ClosedPositions() []types.Position {
	out := make([]types.Position, len(t.closed))
	copy(out, t.closed)

	return out
}

// RealizedPnL sums the realized PnL of all closed positions.
func (t *Tracker) RealizedPnL() decimal.Decimal {
	total := decimal.Zero
	for _, pos := range t.closed {
		total = total.Add(pos.RealizedPnL)
	}

	return total
}
