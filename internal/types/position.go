package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionState string

const (
	PositionStateFlat PositionState = "FLAT"
	PositionStateOpen PositionState = "OPEN"
)

// Position is the long holding of one instrument between its opening buy fill
// and its closing fill.
type Position struct {
	Instrument   Instrument      `yaml:"instrument" json:"instrument"`
	State        PositionState   `yaml:"state" json:"state"`
	Quantity     int64           `yaml:"quantity" json:"quantity"`
	AvgOpenPrice decimal.Decimal `yaml:"avg_open_price" json:"avg_open_price"`
	OpenedAt     time.Time       `yaml:"opened_at" json:"opened_at"`
	ClosedAt     time.Time       `yaml:"closed_at" json:"closed_at"`
	ClosePrice   decimal.Decimal `yaml:"close_price" json:"close_price"`
	RealizedPnL  decimal.Decimal `yaml:"realized_pnl" json:"realized_pnl"`
	// Forced is set when the position was closed by session teardown rather than a signal.
	Forced bool `yaml:"forced" json:"forced"`
}

// IsOpen reports whether the position currently holds units.
func (p Position) IsOpen() bool {
	return p.State == PositionStateOpen
}

// CostBasis returns quantity times the average open price.
func (p Position) CostBasis() decimal.Decimal {
	return p.AvgOpenPrice.Mul(decimal.NewFromInt(p.Quantity))
}

// UnrealizedPnL values the open quantity at the given mark price.
func (p Position) UnrealizedPnL(mark decimal.Decimal) decimal.Decimal {
	if !p.IsOpen() {
		return decimal.Zero
	}

	return mark.Sub(p.AvgOpenPrice).Mul(decimal.NewFromInt(p.Quantity))
}
