package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

const (
	OrderReasonSignal          string = "signal"
	OrderReasonAllocationRound string = "allocation_round"
	OrderReasonSessionEnd      string = "session_end"
)

// OrderIntent is a market order the engine wants placed. Quantity is always a
// whole number of units, at least one.
type OrderIntent struct {
	ID         string          `yaml:"id" json:"id" csv:"id" validate:"required,uuid"`
	Instrument Instrument      `yaml:"instrument" json:"instrument" csv:"-" validate:"required"`
	Side       Side            `yaml:"side" json:"side" csv:"side" validate:"required,oneof=BUY SELL"`
	Quantity   int64           `yaml:"quantity" json:"quantity" csv:"quantity" validate:"gte=1"`
	// Price is the reference price the quantity was sized with, not a limit.
	Price     decimal.Decimal `yaml:"price" json:"price" csv:"-"`
	Weight    decimal.Decimal `yaml:"weight" json:"weight" csv:"-"`
	Reason    string          `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	CreatedAt time.Time       `yaml:"created_at" json:"created_at" csv:"created_at" validate:"required"`
}

var validate = validator.New()

// Validate validates the OrderIntent struct.
func (o *OrderIntent) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order intent", err)
	}

	return nil
}

// Notional returns quantity times the reference price.
func (o *OrderIntent) Notional() decimal.Decimal {
	return o.Price.Mul(decimal.NewFromInt(o.Quantity))
}
