package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type DuckDBTickWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestDuckDBTickWriterSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTickWriterTestSuite))
}

func (suite *DuckDBTickWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *DuckDBTickWriterTestSuite) tick(id int64, price string, at time.Time) types.Tick {
	return types.Tick{
		Instrument: types.NewInstrument("AAPL", "SIM"),
		Price:      decimal.RequireFromString(price),
		Quantity:   10 + id,
		TradeID:    id,
		Timestamp:  at,
	}
}

func (suite *DuckDBTickWriterTestSuite) TestNewDuckDBTickWriter() {
	outputPath := filepath.Join(suite.tempDir, "AAPL.parquet")
	w := NewDuckDBTickWriter(outputPath)

	suite.Equal(outputPath, w.GetOutputPath())
	suite.Nil(w.db)
	suite.Nil(w.tx)
	suite.Nil(w.stmt)
}

func (suite *DuckDBTickWriterTestSuite) TestWriteWithoutInitialize() {
	w := NewDuckDBTickWriter(filepath.Join(suite.tempDir, "x.parquet"))

	err := w.Write(suite.tick(0, "1", time.Now()))
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))

	_, err = w.Finalize()
	suite.Error(err)
	suite.NoError(w.Close())
}

func (suite *DuckDBTickWriterTestSuite) TestWriteAndExport() {
	outputPath := filepath.Join(suite.tempDir, "AAPL.parquet")
	w := NewDuckDBTickWriter(outputPath)
	suite.Require().NoError(w.Initialize())

	start := time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC)
	// written out of order; the export is ordered by ts_event
	suite.Require().NoError(w.Write(suite.tick(1, "101.25", start.Add(time.Minute))))
	suite.Require().NoError(w.Write(suite.tick(0, "100.5", start)))
	suite.Equal(2, w.Rows())

	path, err := w.Finalize()
	suite.Require().NoError(err)
	suite.Equal(outputPath, path)
	suite.Require().NoError(w.Close())

	db, err := sql.Open("duckdb", ":memory:")
	suite.Require().NoError(err)
	defer db.Close()

	rows, err := db.Query(fmt.Sprintf(`SELECT symbol, venue, price, quantity, trade_id FROM read_parquet('%s')`, outputPath))
	suite.Require().NoError(err)
	defer rows.Close()

	var got []int64
	for rows.Next() {
		var symbol, venue string
		var price float64
		var quantity, tradeID int64
		suite.Require().NoError(rows.Scan(&symbol, &venue, &price, &quantity, &tradeID))
		suite.Equal("AAPL", symbol)
		suite.Equal("SIM", venue)
		suite.Positive(price)
		got = append(got, tradeID)
	}

	suite.Equal([]int64{0, 1}, got)
}

func (suite *DuckDBTickWriterTestSuite) TestCloseWithoutFinalize() {
	w := NewDuckDBTickWriter(filepath.Join(suite.tempDir, "unused.parquet"))
	suite.Require().NoError(w.Initialize())
	suite.Require().NoError(w.Write(suite.tick(0, "1", time.Now())))
	suite.NoError(w.Close())
	suite.NoFileExists(filepath.Join(suite.tempDir, "unused.parquet"))
}
