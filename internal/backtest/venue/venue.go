package venue

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	AccountCash   = "CASH"
	AccountMargin = "MARGIN"
)

// Config describes the simulated account orders are filled against.
type Config struct {
	Name            string          `validate:"required"`
	OMSType         string          `validate:"required,oneof=HEDGING NETTING"`
	AccountType     string          `validate:"required,oneof=CASH MARGIN"`
	BaseCurrency    string          `validate:"required"`
	StartingBalance decimal.Decimal `validate:"-"`
}

// SimulatedVenue fills every market order immediately at the last marked price.
// Fills and rejections are queued and handed out by Drain, so callers see them
// after the tick that caused them.
type SimulatedVenue struct {
	mu       sync.Mutex
	config   Config
	cash     decimal.Decimal
	marks    map[types.Instrument]types.Tick
	holdings map[types.Instrument]int64
	pending  []types.Event
	logger   *logger.Logger

	fills      int
	rejections int
}

// NewSimulatedVenue creates a venue holding config.StartingBalance in cash.
func NewSimulatedVenue(config Config, log *logger.Logger) (*SimulatedVenue, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid venue configuration", err)
	}

	if !config.StartingBalance.IsPositive() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "starting balance must be positive, got %s", config.StartingBalance.String())
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &SimulatedVenue{
		config:   config,
		cash:     config.StartingBalance,
		marks:    make(map[types.Instrument]types.Tick),
		holdings: make(map[types.Instrument]int64),
		logger:   log,
	}, nil
}

// Mark records the latest tick of an instrument. Orders fill at the marked price.
func (v *SimulatedVenue) Mark(tick types.Tick) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.marks[tick.Instrument] = tick
}

// Submit fills a buy or sell intent at the current mark. A cash account
// rejects buys whose notional exceeds the available cash.
func (v *SimulatedVenue) Submit(ctx context.Context, intent types.OrderIntent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := intent.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	mark, ok := v.marks[intent.Instrument]
	if !ok {
		v.reject(intent.ID, intent.Instrument, intent.Side, intent.Quantity, intent.CreatedAt, "no market price for instrument")

		return nil
	}

	switch intent.Side {
	case types.SideBuy:
		cost := mark.Price.Mul(decimal.NewFromInt(intent.Quantity))
		if v.config.AccountType == AccountCash && cost.GreaterThan(v.cash) {
			v.reject(intent.ID, intent.Instrument, intent.Side, intent.Quantity, mark.Timestamp,
				"insufficient cash: need "+cost.String()+" "+v.config.BaseCurrency+", have "+v.cash.String())

			return nil
		}

		v.cash = v.cash.Sub(cost)
		v.holdings[intent.Instrument] += intent.Quantity
	case types.SideSell:
		if v.holdings[intent.Instrument] < intent.Quantity {
			v.reject(intent.ID, intent.Instrument, intent.Side, intent.Quantity, mark.Timestamp, "sell quantity exceeds holdings")

			return nil
		}

		v.cash = v.cash.Add(mark.Price.Mul(decimal.NewFromInt(intent.Quantity)))
		v.holdings[intent.Instrument] -= intent.Quantity
	}

	v.fill(intent.ID, intent.Instrument, intent.Side, intent.Quantity, mark)

	return nil
}

// Close sells the venue's whole holding of the position's instrument at the
// current mark.
func (v *SimulatedVenue) Close(ctx context.Context, position types.Position) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	held := v.holdings[position.Instrument]
	if held <= 0 {
		return errors.Newf(errors.ErrCodePositionNotFound, "no holding for %s", position.Instrument)
	}

	mark, ok := v.marks[position.Instrument]
	if !ok {
		return errors.Newf(errors.ErrCodeCloseFailed, "no market price for %s", position.Instrument)
	}

	v.cash = v.cash.Add(mark.Price.Mul(decimal.NewFromInt(held)))
	v.holdings[position.Instrument] = 0
	v.fill(uuid.New().String(), position.Instrument, types.SideSell, held, mark)

	return nil
}

func (v *SimulatedVenue) fill(orderID string, inst types.Instrument, side types.Side, quantity int64, mark types.Tick) {
	v.fills++
	v.pending = append(v.pending, types.Event{
		OrderID:    orderID,
		Instrument: inst,
		Kind:       types.EventKindFilled,
		Side:       side,
		Quantity:   quantity,
		Price:      mark.Price,
		Timestamp:  mark.Timestamp,
	})

	v.logger.Debug("Order filled",
		zap.String("venue", v.config.Name),
		zap.Stringer("instrument", inst),
		zap.String("side", string(side)),
		zap.Int64("quantity", quantity),
		zap.String("price", mark.Price.String()),
	)
}

func (v *SimulatedVenue) reject(orderID string, inst types.Instrument, side types.Side, quantity int64, at time.Time, message string) {
	v.rejections++
	v.pending = append(v.pending, types.Event{
		OrderID:    orderID,
		Instrument: inst,
		Kind:       types.EventKindRejected,
		Side:       side,
		Quantity:   quantity,
		Timestamp:  at,
		Message:    message,
	})

	v.logger.Warn("Order rejected",
		zap.String("venue", v.config.Name),
		zap.Stringer("instrument", inst),
		zap.String("reason", message),
	)
}

// Drain returns the queued events and clears the queue.
func (v *SimulatedVenue) Drain() []types.Event {
	v.mu.Lock()
	defer v.mu.Unlock()

	events := v.pending
	v.pending = nil

	return events
}

// Cash returns the available cash in the base currency.
func (v *SimulatedVenue) Cash() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.cash
}

// Holding returns the units held of an instrument.
func (v *SimulatedVenue) Holding(inst types.Instrument) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.holdings[inst]
}

// Equity is cash plus every holding valued at its mark.
func (v *SimulatedVenue) Equity() decimal.Decimal {
	v.mu.Lock()
	defer v.mu.Unlock()

	equity := v.cash
	for inst, qty := range v.holdings {
		if mark, ok := v.marks[inst]; ok && qty > 0 {
			equity = equity.Add(mark.Price.Mul(decimal.NewFromInt(qty)))
		}
	}

	return equity
}

// Fills returns how many orders were filled.
func (v *SimulatedVenue) Fills() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.fills
}

// Rejections returns how many orders were rejected.
func (v *SimulatedVenue) Rejections() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.rejections
}

func (v *SimulatedVenue) Config() Config {
	return v.config
}
