package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventKindFilled   EventKind = "FILLED"
	EventKindRejected EventKind = "REJECTED"
)

// Event is a venue notification about a previously submitted order.
type Event struct {
	OrderID    string          `yaml:"order_id" json:"order_id"`
	Instrument Instrument      `yaml:"instrument" json:"instrument"`
	Kind       EventKind       `yaml:"kind" json:"kind"`
	Side       Side            `yaml:"side" json:"side"`
	Quantity   int64           `yaml:"quantity" json:"quantity"`
	Price      decimal.Decimal `yaml:"price" json:"price"`
	Timestamp  time.Time       `yaml:"timestamp" json:"timestamp"`
	// Message carries the rejection reason.
	Message string `yaml:"message" json:"message"`
}

// IsFill reports whether the event confirms an execution.
func (e Event) IsFill() bool {
	return e.Kind == EventKindFilled
}
