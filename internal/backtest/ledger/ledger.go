package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gocarina/gocsv"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const (
	DecisionsParquet = "decisions.parquet"
	DecisionsCSV     = "decisions.csv"
	FillsParquet     = "fills.parquet"
	StatsFile        = "stats.yaml"
)

// Ledger keeps the decisions and venue events of one session in an in-memory
// DuckDB database and exports them when the session ends.
type Ledger struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	seq    int64
}

// NewLedger opens the database and creates the ledger tables.
func NewLedger(log *logger.Logger) (*Ledger, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open ledger database", err)
	}

	l := &Ledger{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := l.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return l, nil
}

func (l *Ledger) initialize() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS decisions (
			seq BIGINT,
			run_id TEXT,
			timestamp TIMESTAMP,
			instrument TEXT,
			price TEXT,
			signal TEXT,
			decision TEXT,
			value TEXT,
			reason TEXT,
			order_id TEXT,
			quantity BIGINT,
			result TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create decisions table", err)
	}

	_, err = l.db.Exec(`
		CREATE TABLE IF NOT EXISTS fills (
			seq BIGINT,
			order_id TEXT,
			instrument TEXT,
			kind TEXT,
			side TEXT,
			quantity BIGINT,
			price DOUBLE,
			timestamp TIMESTAMP,
			message TEXT
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to create fills table", err)
	}

	return nil
}

func (l *Ledger) next() int64 {
	l.seq++

	return l.seq
}

// RecordDecision implements orchestrator.DecisionRecorder.
func (l *Ledger) RecordDecision(ctx context.Context, record types.DecisionRecord) error {
	_, err := l.sq.Insert("decisions").
		Columns("seq", "run_id", "timestamp", "instrument", "price", "signal", "decision", "value", "reason", "order_id", "quantity", "result").
		Values(l.next(), record.RunID, record.Timestamp.UTC(), record.Instrument, record.Price, record.Signal,
			record.Decision, record.Value, record.Reason, record.OrderID, record.Quantity, record.Result).
		RunWith(l.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert decision", err)
	}

	return nil
}

// RecordEvent stores a venue fill or rejection.
func (l *Ledger) RecordEvent(ctx context.Context, event types.Event) error {
	_, err := l.sq.Insert("fills").
		Columns("seq", "order_id", "instrument", "kind", "side", "quantity", "price", "timestamp", "message").
		Values(l.next(), event.OrderID, event.Instrument.String(), string(event.Kind), string(event.Side),
			event.Quantity, event.Price.InexactFloat64(), event.Timestamp.UTC(), event.Message).
		RunWith(l.db).
		ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to insert event", err)
	}

	return nil
}

// Decisions returns every recorded decision in recording order.
func (l *Ledger) Decisions(ctx context.Context) ([]types.DecisionRecord, error) {
	rows, err := l.sq.Select("run_id", "timestamp", "instrument", "price", "signal", "decision", "value", "reason", "order_id", "quantity", "result").
		From("decisions").
		OrderBy("seq").
		RunWith(l.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query decisions", err)
	}
	defer rows.Close()

	var records []types.DecisionRecord

	for rows.Next() {
		var (
			record    types.DecisionRecord
			timestamp time.Time
		)

		err := rows.Scan(&record.RunID, &timestamp, &record.Instrument, &record.Price, &record.Signal,
			&record.Decision, &record.Value, &record.Reason, &record.OrderID, &record.Quantity, &record.Result)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan decision", err)
		}

		record.Timestamp = timestamp.UTC()
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed while iterating decisions", err)
	}

	return records, nil
}

func (l *Ledger) count(ctx context.Context, table string, where squirrel.Sqlizer) (int, error) {
	builder := l.sq.Select("COUNT(*)").From(table)
	if where != nil {
		builder = builder.Where(where)
	}

	var n int
	if err := builder.RunWith(l.db).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to count %s", table)
	}

	return n, nil
}

// Write exports the decisions and events as parquet, the decisions as CSV and
// the summary as YAML into dir.
func (l *Ledger) Write(ctx context.Context, dir string, summary Summary) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeCatalogWriteFailed, "failed to create results directory", err)
	}

	// squirrel has no COPY support
	exports := map[string]string{
		DecisionsParquet: "SELECT * EXCLUDE (seq) FROM decisions ORDER BY seq",
		FillsParquet:     "SELECT * EXCLUDE (seq) FROM fills ORDER BY seq",
	}
	for file, query := range exports {
		path := filepath.Join(dir, file)
		if _, err := l.db.ExecContext(ctx, fmt.Sprintf(`COPY (%s) TO '%s' (FORMAT PARQUET)`, query, path)); err != nil {
			return errors.Wrapf(errors.ErrCodeCatalogWriteFailed, err, "failed to export %s", file)
		}
	}

	records, err := l.Decisions(ctx)
	if err != nil {
		return err
	}

	if err := writeCSV(filepath.Join(dir, DecisionsCSV), records); err != nil {
		return err
	}

	if err := summary.Write(filepath.Join(dir, StatsFile)); err != nil {
		return err
	}

	l.logger.Info("Wrote session results",
		zap.String("dir", dir),
		zap.Int("decisions", len(records)),
	)

	return nil
}

func writeCSV(path string, records []types.DecisionRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogWriteFailed, "failed to create decisions csv", err)
	}
	defer file.Close()

	if records == nil {
		records = []types.DecisionRecord{}
	}

	if err := gocsv.MarshalFile(&records, file); err != nil {
		return errors.Wrap(errors.ErrCodeCatalogWriteFailed, "failed to write decisions csv", err)
	}

	return nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}

	err := l.db.Close()
	l.db = nil

	return err
}
