package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tick is one timestamped trade observation for an instrument, in the canonical
// catalog schema: price, quantity (never zero) and a monotonic trade id.
type Tick struct {
	Instrument Instrument      `yaml:"instrument" json:"instrument"`
	Price      decimal.Decimal `yaml:"price" json:"price"`
	Quantity   int64           `yaml:"quantity" json:"quantity"`
	TradeID    int64           `yaml:"trade_id" json:"trade_id"`
	Timestamp  time.Time       `yaml:"ts_event" json:"ts_event"`
}
