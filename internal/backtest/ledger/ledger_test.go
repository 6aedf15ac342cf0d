package ledger

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type LedgerTestSuite struct {
	suite.Suite
	ledger *Ledger
	ctx    context.Context
	at     time.Time
	aapl   types.Instrument
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (suite *LedgerTestSuite) SetupTest() {
	l, err := NewLedger(logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.ledger = l
	suite.ctx = context.Background()
	suite.at = time.Date(2024, 7, 2, 14, 0, 0, 0, time.UTC)
	suite.aapl = types.NewInstrument("AAPL", "SIM")
}

func (suite *LedgerTestSuite) TearDownTest() {
	suite.NoError(suite.ledger.Close())
}

func (suite *LedgerTestSuite) decision(offset time.Duration, decision, result, orderID string) types.DecisionRecord {
	return types.DecisionRecord{
		RunID:      "run-1",
		Timestamp:  suite.at.Add(offset),
		Instrument: suite.aapl.String(),
		Price:      "101.5",
		Signal:     "momentum",
		Decision:   decision,
		Value:      "1.5",
		Reason:     types.OrderReasonSignal,
		OrderID:    orderID,
		Quantity:   10,
		Result:     result,
	}
}

func (suite *LedgerTestSuite) event(kind types.EventKind, side types.Side) types.Event {
	return types.Event{
		OrderID:    "order-1",
		Instrument: suite.aapl,
		Kind:       kind,
		Side:       side,
		Quantity:   10,
		Price:      decimal.RequireFromString("101.5"),
		Timestamp:  suite.at,
	}
}

func (suite *LedgerTestSuite) seed() {
	suite.Require().NoError(suite.ledger.RecordDecision(suite.ctx, suite.decision(0, "buy", types.DecisionResultSubmitted, "order-1")))
	suite.Require().NoError(suite.ledger.RecordDecision(suite.ctx, suite.decision(time.Hour, "buy", types.DecisionResultSkipped, "")))
	suite.Require().NoError(suite.ledger.RecordDecision(suite.ctx, suite.decision(2*time.Hour, "close", types.DecisionResultClosed, "")))
	suite.Require().NoError(suite.ledger.RecordEvent(suite.ctx, suite.event(types.EventKindFilled, types.SideBuy)))
	suite.Require().NoError(suite.ledger.RecordEvent(suite.ctx, suite.event(types.EventKindFilled, types.SideSell)))
	suite.Require().NoError(suite.ledger.RecordEvent(suite.ctx, suite.event(types.EventKindRejected, types.SideBuy)))
}

func (suite *LedgerTestSuite) TestDecisionsKeepRecordingOrder() {
	suite.seed()

	records, err := suite.ledger.Decisions(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().Len(records, 3)

	suite.Equal(suite.decision(0, "buy", types.DecisionResultSubmitted, "order-1"), records[0])
	suite.Equal(types.DecisionResultSkipped, records[1].Result)
	suite.Equal("close", records[2].Decision)
	suite.Equal(suite.at.Add(2*time.Hour), records[2].Timestamp)
}

func (suite *LedgerTestSuite) TestSummarize() {
	suite.seed()

	closed := []types.Position{
		{Instrument: suite.aapl, RealizedPnL: decimal.NewFromInt(10)},
		{Instrument: suite.aapl, RealizedPnL: decimal.NewFromInt(-4), Forced: true},
		{Instrument: suite.aapl, RealizedPnL: decimal.NewFromInt(6)},
	}

	summary, err := suite.ledger.Summarize(suite.ctx, Summary{RunID: "run-1", Ticks: 42}, closed)
	suite.Require().NoError(err)

	suite.Equal("run-1", summary.RunID)
	suite.Equal(42, summary.Ticks)
	suite.Equal(3, summary.Decisions)
	suite.Equal(2, summary.Orders)
	suite.Equal(2, summary.Fills)
	suite.Equal(1, summary.Rejections)
	suite.Equal(3, summary.ClosedPositions)
	suite.Equal(1, summary.ForcedCloses)

	suite.Equal("12", summary.RealizedPnL.Total)
	suite.Equal("10", summary.RealizedPnL.Best)
	suite.Equal("-4", summary.RealizedPnL.Worst)
	suite.Equal(2, summary.RealizedPnL.Winning)
	suite.Equal(1, summary.RealizedPnL.Losing)
	suite.InDelta(4.0, summary.RealizedPnL.Mean, 1e-9)
	// sample stddev of 10, -4, 6
	suite.InDelta(7.211102550927978, summary.RealizedPnL.StdDev, 1e-9)
}

func (suite *LedgerTestSuite) TestComputePnLStatsEdgeCases() {
	empty := ComputePnLStats(nil)
	suite.Equal("0", empty.Total)
	suite.Zero(empty.Mean)
	suite.Zero(empty.StdDev)

	single := ComputePnLStats([]types.Position{{RealizedPnL: decimal.RequireFromString("2.5")}})
	suite.Equal("2.5", single.Total)
	suite.InDelta(2.5, single.Mean, 1e-9)
	suite.Zero(single.StdDev)
}

func (suite *LedgerTestSuite) TestWrite() {
	suite.seed()

	dir := filepath.Join(suite.T().TempDir(), "run-1")
	summary := Summary{RunID: "run-1", Strategy: "momentum", Ticks: 3, FinalEquity: "1000"}

	suite.Require().NoError(suite.ledger.Write(suite.ctx, dir, summary))

	for _, file := range []string{DecisionsParquet, FillsParquet, DecisionsCSV, StatsFile} {
		suite.FileExists(filepath.Join(dir, file))
	}

	file, err := os.Open(filepath.Join(dir, DecisionsCSV))
	suite.Require().NoError(err)

	defer file.Close()

	var rows []types.DecisionRecord
	suite.Require().NoError(gocsv.UnmarshalFile(file, &rows))
	suite.Require().Len(rows, 3)
	suite.Equal("order-1", rows[0].OrderID)
	suite.Equal(suite.at, rows[0].Timestamp.UTC())

	loaded, err := ReadSummary(filepath.Join(dir, StatsFile))
	suite.Require().NoError(err)
	suite.Equal("momentum", loaded.Strategy)
	suite.Equal(3, loaded.Ticks)
	suite.Equal("1000", loaded.FinalEquity)

	db, err := sql.Open("duckdb", "")
	suite.Require().NoError(err)

	defer db.Close()

	var count int
	suite.Require().NoError(db.QueryRow("SELECT COUNT(*) FROM read_parquet('" + filepath.Join(dir, FillsParquet) + "')").Scan(&count))
	suite.Equal(3, count)
}

func (suite *LedgerTestSuite) TestWriteEmptyLedger() {
	dir := suite.T().TempDir()

	suite.Require().NoError(suite.ledger.Write(suite.ctx, dir, Summary{}))
	suite.FileExists(filepath.Join(dir, DecisionsCSV))
	suite.FileExists(filepath.Join(dir, StatsFile))
}
