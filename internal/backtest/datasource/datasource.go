package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// TickSource reads canonical ticks back out of a data catalog.
type TickSource interface {
	// Initialize registers the catalog files to read from. It replaces any
	// previously registered files.
	Initialize(files []string) error
	// Count returns the number of ticks within the optional time range (inclusive).
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// ReadAll yields ticks ordered by event time, ties broken by instrument and
	// trade id. Iteration stops with ctx.Err() once the context is done.
	ReadAll(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Tick, error) bool)
	// Instruments lists the distinct instruments present in the catalog.
	Instruments() ([]types.Instrument, error)
	// Close releases the underlying connection.
	Close() error
}
