package engine

import (
	"context"

	"github.com/rxtech-lab/argo-signals/internal/backtest/ledger"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Lifecycle callback types for a replay session.
// Callbacks returning an error abort the run.

// OnRunStartCallback is called once the catalog is attached and before the first tick.
type OnRunStartCallback func(runID string, instruments []types.Instrument, totalTicks int) error

// OnProcessDataCallback is called after each tick and its venue events were processed.
type OnProcessDataCallback func(current int, total int) error

// OnRunEndCallback is called when the run ends (always called via defer).
// summary is the zero value when the run failed before results were written.
type OnRunEndCallback func(runID string, resultDir string, summary ledger.Summary, err error)

// LifecycleCallbacks holds the lifecycle callbacks of a run.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnProcessData *OnProcessDataCallback
	OnRunEnd      *OnRunEndCallback
}

// Result describes a finished run.
type Result struct {
	RunID     string
	ResultDir string
	Summary   ledger.Summary
}

type Engine interface {
	// Run replays the catalog through the signal engine and writes the
	// session results. Cancelling ctx stops the replay between ticks; open
	// positions are still closed and results written.
	Run(ctx context.Context, callbacks LifecycleCallbacks) (Result, error)
}
