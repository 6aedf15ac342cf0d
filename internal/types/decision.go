package types

import "time"

// DecisionRecord is one row of the session decision ledger.
type DecisionRecord struct {
	RunID      string    `csv:"run_id" json:"run_id"`
	Timestamp  time.Time `csv:"timestamp" json:"timestamp"`
	Instrument string    `csv:"instrument" json:"instrument"`
	Price      string    `csv:"price" json:"price"`
	Signal     string    `csv:"signal" json:"signal"`
	Decision   string    `csv:"decision" json:"decision"`
	Value      string    `csv:"value" json:"value"`
	Reason     string    `csv:"reason" json:"reason"`
	OrderID    string    `csv:"order_id" json:"order_id"`
	Quantity   int64     `csv:"quantity" json:"quantity"`
	Result     string    `csv:"result" json:"result"`
}

const (
	DecisionResultHold      = "hold"
	DecisionResultSubmitted = "order_submitted"
	DecisionResultFailed    = "order_failed"
	DecisionResultSkipped   = "skipped"
	DecisionResultClosed    = "close_requested"
	DecisionResultFallback  = "submitted_with_fallback"
)
