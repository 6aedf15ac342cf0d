package writer

import (
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DuckDBTickWriter stages ticks in an in-memory DuckDB table and exports them
// to a parquet file in the canonical catalog schema on Finalize.
type DuckDBTickWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	outputPath string
	rows       int
}

// NewDuckDBTickWriter creates a writer exporting to outputPath.
func NewDuckDBTickWriter(outputPath string) *DuckDBTickWriter {
	return &DuckDBTickWriter{
		outputPath: outputPath,
	}
}

// Initialize opens the database, creates the staging table, begins a
// transaction and prepares the insert statement.
func (w *DuckDBTickWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS ticks (
			ts_event TIMESTAMP,
			symbol TEXT,
			venue TEXT,
			price DOUBLE,
			quantity BIGINT,
			trade_id BIGINT
		)
	`)
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO ticks (ts_event, symbol, venue, price, quantity, trade_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	w.rows = 0

	return nil
}

// Write inserts a single tick within the open transaction.
func (w *DuckDBTickWriter) Write(tick types.Tick) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or statement is nil")
	}

	_, err := w.stmt.Exec(
		tick.Timestamp,
		tick.Instrument.Symbol,
		tick.Instrument.Venue,
		tick.Price.InexactFloat64(),
		tick.Quantity,
		tick.TradeID,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert tick", err)
	}

	w.rows++

	return nil
}

// Finalize commits the transaction and exports the ticks ordered by event time.
func (w *DuckDBTickWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or transaction is nil")
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	_, err = w.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM ticks ORDER BY ts_event, trade_id) TO '%s' (FORMAT PARQUET)`, w.outputPath))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to export to parquet", err)
	}

	return w.outputPath, nil
}

// Close releases the statement, any open transaction and the connection.
func (w *DuckDBTickWriter) Close() error {
	var closeErrors []error

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close statement", err))
		}

		w.stmt = nil
	}

	if w.tx != nil {
		// Finalize was never reached
		_ = w.tx.Rollback()
		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close db connection", err))
		}

		w.db = nil
	}

	return errors.Join(closeErrors...)
}

func (w *DuckDBTickWriter) GetOutputPath() string {
	return w.outputPath
}

// Rows returns how many ticks were written since Initialize.
func (w *DuckDBTickWriter) Rows() int {
	return w.rows
}
