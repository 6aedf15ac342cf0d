package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const viewName = "ticks"

var _ TickSource = (*DuckDBTickSource)(nil)

type DuckDBTickSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	files  []string
}

// NewTickSource opens a DuckDB connection at path. Use ":memory:" for a
// throwaway database; the catalog files are attached later by Initialize.
func NewTickSource(path string, log *logger.Logger) (*DuckDBTickSource, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open DuckDB connection", err)
	}

	return &DuckDBTickSource{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements TickSource.
func (d *DuckDBTickSource) Initialize(files []string) error {
	if len(files) == 0 {
		return errors.New(errors.ErrCodeNoDataFound, "no catalog files to read")
	}

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			return errors.Wrapf(errors.ErrCodeCatalogReadFailed, err, "catalog file %s is not readable", file)
		}
	}

	d.logger.Debug("Initializing tick source", zap.Strings("files", files))

	if _, err := d.db.Exec(fmt.Sprintf("DROP VIEW IF EXISTS %s", viewName)); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW support
	quoted := lo.Map(files, func(file string, _ int) string {
		return "'" + strings.ReplaceAll(file, "'", "''") + "'"
	})

	query := fmt.Sprintf(`CREATE VIEW %s AS SELECT * FROM read_parquet([%s])`, viewName, strings.Join(quoted, ", "))
	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrap(errors.ErrCodeSchemaMismatch, "failed to create tick view", err)
	}

	d.files = files

	return nil
}

func (d *DuckDBTickSource) inRange(builder squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	conditions := squirrel.And{}

	if start.IsSome() {
		conditions = append(conditions, squirrel.GtOrEq{"ts_event": start.Unwrap().UTC()})
	}

	if end.IsSome() {
		conditions = append(conditions, squirrel.LtOrEq{"ts_event": end.Unwrap().UTC()})
	}

	if len(conditions) == 0 {
		return builder
	}

	return builder.Where(conditions)
}

func (d *DuckDBTickSource) requireInitialized() error {
	if len(d.files) == 0 {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "tick source not initialized")
	}

	return nil
}

// Count implements TickSource.
func (d *DuckDBTickSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if err := d.requireInitialized(); err != nil {
		return 0, err
	}

	query, args, err := d.inRange(d.sq.Select("COUNT(*)").From(viewName), start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count ticks", err)
	}

	return count, nil
}

// ReadAll implements TickSource.
func (d *DuckDBTickSource) ReadAll(ctx context.Context, start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Tick, error) bool) {
	return func(yield func(types.Tick, error) bool) {
		if err := d.requireInitialized(); err != nil {
			yield(types.Tick{}, err)

			return
		}

		query, args, err := d.inRange(
			d.sq.Select("ts_event", "symbol", "venue", "price", "quantity", "trade_id").From(viewName),
			start, end,
		).OrderBy("ts_event ASC", "symbol ASC", "venue ASC", "trade_id ASC").ToSql()
		if err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build select query", err))

			return
		}

		rows, err := d.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query ticks", err))

			return
		}
		defer rows.Close()

		for rows.Next() {
			if err := ctx.Err(); err != nil {
				yield(types.Tick{}, err)

				return
			}

			var (
				timestamp     time.Time
				symbol, venue string
				price         float64
				quantity      int64
				tradeID       int64
			)

			if err := rows.Scan(&timestamp, &symbol, &venue, &price, &quantity, &tradeID); err != nil {
				yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan tick", err))

				return
			}

			tick := types.Tick{
				Instrument: types.NewInstrument(symbol, venue),
				Price:      decimal.NewFromFloat(price),
				Quantity:   quantity,
				TradeID:    tradeID,
				Timestamp:  timestamp.UTC(),
			}

			if !yield(tick, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}

			yield(types.Tick{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed while iterating ticks", err))
		}
	}
}

// Instruments implements TickSource.
func (d *DuckDBTickSource) Instruments() ([]types.Instrument, error) {
	if err := d.requireInitialized(); err != nil {
		return nil, err
	}

	query, args, err := d.sq.Select("DISTINCT symbol", "venue").From(viewName).OrderBy("symbol", "venue").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build instrument query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query instruments", err)
	}
	defer rows.Close()

	var instruments []types.Instrument

	for rows.Next() {
		var symbol, venue string
		if err := rows.Scan(&symbol, &venue); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan instrument", err)
		}

		instruments = append(instruments, types.NewInstrument(symbol, venue))
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed while iterating instruments", err)
	}

	return instruments, nil
}

// Close implements TickSource.
func (d *DuckDBTickSource) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil

	return err
}
