// Package buffer holds the rolling price window kept for each subscribed instrument.
package buffer

import (
	"github.com/gammazero/deque"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

// PriceBuffer keeps the most recent capacity prices, oldest first.
// Pushing onto a full buffer evicts the oldest price.
type PriceBuffer struct {
	prices   deque.Deque[decimal.Decimal]
	capacity int
}

// NewPriceBuffer creates a buffer holding at most capacity prices.
func NewPriceBuffer(capacity int) (*PriceBuffer, error) {
	if capacity < 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidWindow, "buffer capacity must be at least 1, got %d", capacity)
	}

	b := &PriceBuffer{capacity: capacity}
	b.prices.Grow(capacity)

	return b, nil
}

// Push appends a price, evicting the oldest one when the buffer is full.
func (b *PriceBuffer) Push(price decimal.Decimal) {
	if b.prices.Len() == b.capacity {
		b.prices.PopFront()
	}

	b.prices.PushBack(price)
}

// IsFull reports whether the buffer holds capacity prices.
func (b *PriceBuffer) IsFull() bool {
	return b.prices.Len() == b.capacity
}

func (b *PriceBuffer) Len() int {
	return b.prices.Len()
}

func (b *PriceBuffer) Capacity() int {
	return b.capacity
}

// Latest returns the most recent price, or false when empty.
func (b *PriceBuffer) Latest() (decimal.Decimal, bool) {
	if b.prices.Len() == 0 {
		return decimal.Zero, false
	}

	return b.prices.Back(), true
}

// Snapshot returns a copy of the buffered prices, oldest first.
// It may be called before the buffer is full.
func (b *PriceBuffer) Snapshot() []decimal.Decimal {
	out := make([]decimal.Decimal, b.prices.Len())
	for i := range out {
		out[i] = b.prices.At(i)
	}

	return out
}

// Reset empties the buffer, keeping its capacity.
func (b *PriceBuffer) Reset() {
	b.prices.Clear()
}
