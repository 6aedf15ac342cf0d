package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/backtest/datasource"
	"github.com/rxtech-lab/argo-signals/internal/backtest/ledger"
	"github.com/rxtech-lab/argo-signals/internal/backtest/venue"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/orchestrator"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Options configures one replay session.
type Options struct {
	Session orchestrator.Config
	Venue   venue.Config
	// Files are the catalog parquet files to replay.
	Files []string
	// ResultsDir receives one sub directory per run, named by run id.
	ResultsDir string
	Start      optional.Option[time.Time]
	End        optional.Option[time.Time]
}

// Runner replays a tick catalog through an orchestrator backed by the
// simulated venue and the decision ledger.
type Runner struct {
	options Options
	source  datasource.TickSource
	log     *logger.Logger
	now     func() time.Time
}

var _ Engine = (*Runner)(nil)

// NewRunner creates a runner reading from source.
func NewRunner(options Options, source datasource.TickSource, log *logger.Logger) (*Runner, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "tick source is required")
	}

	if options.ResultsDir == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "results directory is required")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	if options.Session.RunID == "" {
		options.Session.RunID = uuid.New().String()
	}

	return &Runner{
		options: options,
		source:  source,
		log:     log,
		now:     time.Now,
	}, nil
}

// RunID returns the id results are written under.
func (r *Runner) RunID() string {
	return r.options.Session.RunID
}

// Run implements Engine.
func (r *Runner) Run(ctx context.Context, callbacks LifecycleCallbacks) (result Result, err error) {
	runID := r.options.Session.RunID
	log := r.log.WithSession(runID)
	result = Result{RunID: runID}

	defer func() {
		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(runID, result.ResultDir, result.Summary, err)
		}
	}()

	if err = r.options.Session.Validate(); err != nil {
		return result, err
	}

	if err = r.source.Initialize(r.options.Files); err != nil {
		return result, err
	}

	total, err := r.source.Count(r.options.Start, r.options.End)
	if err != nil {
		return result, err
	}

	if total == 0 {
		return result, errors.New(errors.ErrCodeNoDataFound, "catalog has no ticks in the requested range")
	}

	sim, err := venue.NewSimulatedVenue(r.options.Venue, log)
	if err != nil {
		return result, err
	}

	book, err := ledger.NewLedger(log)
	if err != nil {
		return result, err
	}
	defer book.Close()

	orch, err := orchestrator.NewOrchestrator(r.options.Session, sim, book, log)
	if err != nil {
		return result, err
	}

	if callbacks.OnRunStart != nil {
		if err = (*callbacks.OnRunStart)(runID, r.options.Session.Instruments, total); err != nil {
			return result, err
		}
	}

	startedAt := r.now()

	if err = orch.OnStart(ctx); err != nil {
		return result, err
	}

	log.Info("Replaying catalog",
		zap.Strings("files", r.options.Files),
		zap.Int("ticks", total),
	)

	processed, replayErr := r.replay(ctx, orch, sim, book, total, callbacks.OnProcessData)

	// teardown runs even when the replay was cancelled
	teardown := context.WithoutCancel(ctx)

	stopErr := orch.OnStop(teardown)
	if stopErr != nil {
		log.Warn("Session teardown reported failures", zap.Error(stopErr))
	}

	if err = deliver(teardown, orch, sim, book); err != nil {
		return result, errors.Join(replayErr, err)
	}

	summary, err := book.Summarize(teardown, ledger.Summary{
		RunID:    runID,
		Strategy: r.options.Session.Strategy,
		Signal:   string(r.options.Session.Evaluator.Kind),
		Instruments: lo.Map(r.options.Session.Instruments, func(inst types.Instrument, _ int) string {
			return inst.String()
		}),
		StartedAt:       startedAt.UTC(),
		FinishedAt:      r.now().UTC(),
		Ticks:           processed,
		StartingBalance: r.options.Venue.StartingBalance.String(),
		FinalCash:       sim.Cash().String(),
		FinalEquity:     sim.Equity().String(),
	}, orch.Positions().ClosedPositions())
	if err != nil {
		return result, errors.Join(replayErr, err)
	}

	dir := filepath.Join(r.options.ResultsDir, runID)
	if err = book.Write(teardown, dir, summary); err != nil {
		return result, errors.Join(replayErr, err)
	}

	result.ResultDir = dir
	result.Summary = summary

	log.Info("Run finished",
		zap.Int("ticks", processed),
		zap.String("realized_pnl", summary.RealizedPnL.Total),
		zap.String("final_equity", summary.FinalEquity),
		zap.String("results", dir),
	)

	err = errors.Join(replayErr, stopErr)

	return result, err
}

func (r *Runner) replay(
	ctx context.Context,
	orch *orchestrator.Orchestrator,
	sim *venue.SimulatedVenue,
	book *ledger.Ledger,
	total int,
	onProcessData *OnProcessDataCallback,
) (int, error) {
	processed := 0

	for tick, err := range r.source.ReadAll(ctx, r.options.Start, r.options.End) {
		if err != nil {
			return processed, err
		}

		if err := ctx.Err(); err != nil {
			return processed, err
		}

		sim.Mark(tick)

		if err := orch.OnTick(ctx, tick); err != nil {
			return processed, err
		}

		if err := deliver(ctx, orch, sim, book); err != nil {
			return processed, err
		}

		processed++

		if onProcessData != nil {
			if err := (*onProcessData)(processed, total); err != nil {
				return processed, err
			}
		}
	}

	return processed, nil
}

// deliver hands the queued venue events to the ledger and the orchestrator.
func deliver(ctx context.Context, orch *orchestrator.Orchestrator, sim *venue.SimulatedVenue, book *ledger.Ledger) error {
	for _, event := range sim.Drain() {
		if err := book.RecordEvent(ctx, event); err != nil {
			return err
		}

		if err := orch.OnEvent(ctx, event); err != nil {
			return err
		}
	}

	return nil
}
