package ledger

import (
	"context"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

// PnLStats summarizes the realized PnL of closed positions.
type PnLStats struct {
	Total   string  `yaml:"total"`
	Mean    float64 `yaml:"mean"`
	StdDev  float64 `yaml:"std_dev"`
	Best    string  `yaml:"best"`
	Worst   string  `yaml:"worst"`
	Winning int     `yaml:"winning"`
	Losing  int     `yaml:"losing"`
}

// Summary is the content of stats.yaml.
type Summary struct {
	RunID           string    `yaml:"run_id"`
	Strategy        string    `yaml:"strategy"`
	Signal          string    `yaml:"signal"`
	Instruments     []string  `yaml:"instruments"`
	StartedAt       time.Time `yaml:"started_at"`
	FinishedAt      time.Time `yaml:"finished_at"`
	Ticks           int       `yaml:"ticks"`
	Decisions       int       `yaml:"decisions"`
	Orders          int       `yaml:"orders"`
	Fills           int       `yaml:"fills"`
	Rejections      int       `yaml:"rejections"`
	ClosedPositions int       `yaml:"closed_positions"`
	ForcedCloses    int       `yaml:"forced_closes"`
	RealizedPnL     PnLStats  `yaml:"realized_pnl"`
	StartingBalance string    `yaml:"starting_balance"`
	FinalCash       string    `yaml:"final_cash"`
	FinalEquity     string    `yaml:"final_equity"`
}

// Summarize fills the ledger counts and the PnL statistics of the closed
// positions into summary.
func (l *Ledger) Summarize(ctx context.Context, summary Summary, closed []types.Position) (Summary, error) {
	var err error

	if summary.Decisions, err = l.count(ctx, "decisions", nil); err != nil {
		return summary, err
	}

	orderResults := []string{types.DecisionResultSubmitted, types.DecisionResultFallback, types.DecisionResultClosed}
	if summary.Orders, err = l.count(ctx, "decisions", squirrel.Eq{"result": orderResults}); err != nil {
		return summary, err
	}

	if summary.Fills, err = l.count(ctx, "fills", squirrel.Eq{"kind": string(types.EventKindFilled)}); err != nil {
		return summary, err
	}

	if summary.Rejections, err = l.count(ctx, "fills", squirrel.Eq{"kind": string(types.EventKindRejected)}); err != nil {
		return summary, err
	}

	summary.ClosedPositions = len(closed)
	summary.ForcedCloses = lo.CountBy(closed, func(p types.Position) bool { return p.Forced })
	summary.RealizedPnL = ComputePnLStats(closed)

	return summary, nil
}

// ComputePnLStats reduces the realized PnL of closed positions. The standard
// deviation is zero for fewer than two positions.
func ComputePnLStats(closed []types.Position) PnLStats {
	if len(closed) == 0 {
		return PnLStats{Total: "0", Best: "0", Worst: "0"}
	}

	pnls := lo.Map(closed, func(p types.Position, _ int) decimal.Decimal { return p.RealizedPnL })
	values := lo.Map(pnls, func(d decimal.Decimal, _ int) float64 { return d.InexactFloat64() })

	result := PnLStats{
		Total:   decimal.Sum(pnls[0], pnls[1:]...).String(),
		Best:    decimal.Max(pnls[0], pnls[1:]...).String(),
		Worst:   decimal.Min(pnls[0], pnls[1:]...).String(),
		Winning: lo.CountBy(pnls, func(d decimal.Decimal) bool { return d.IsPositive() }),
		Losing:  lo.CountBy(pnls, func(d decimal.Decimal) bool { return d.IsNegative() }),
	}

	if len(values) < 2 {
		result.Mean = values[0]

		return result
	}

	result.Mean, result.StdDev = stat.MeanStdDev(values, nil)

	return result
}

// Write stores the summary as YAML.
func (s Summary) Write(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogWriteFailed, "failed to marshal stats", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeCatalogWriteFailed, "failed to write stats", err)
	}

	return nil
}

// ReadSummary loads a stats.yaml written by Write.
func ReadSummary(path string) (Summary, error) {
	var s Summary

	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrap(errors.ErrCodeCatalogReadFailed, "failed to read stats", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrap(errors.ErrCodeCatalogReadFailed, "failed to parse stats", err)
	}

	return s, nil
}
