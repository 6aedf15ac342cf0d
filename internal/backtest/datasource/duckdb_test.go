package datasource

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/mocks"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

type DuckDBTickSourceTestSuite struct {
	suite.Suite
	dir    string
	source *DuckDBTickSource
	start  time.Time
	aapl   types.Instrument
	msft   types.Instrument
}

func TestDuckDBTickSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTickSourceTestSuite))
}

func (suite *DuckDBTickSourceTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.start = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	suite.aapl = types.NewInstrument("AAPL", "SIM")
	suite.msft = types.NewInstrument("MSFT", "SIM")

	source, err := NewTickSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.source = source
}

func (suite *DuckDBTickSourceTestSuite) TearDownTest() {
	suite.NoError(suite.source.Close())
}

func (suite *DuckDBTickSourceTestSuite) writeParquet(inst types.Instrument, prices ...float64) string {
	path := filepath.Join(suite.dir, inst.Symbol+".parquet")
	w := writer.NewDuckDBTickWriter(path)
	suite.Require().NoError(w.Initialize())

	defer w.Close()

	for _, tick := range mocks.TicksFromPrices(inst, suite.start, time.Hour, prices...) {
		suite.Require().NoError(w.Write(tick))
	}

	_, err := w.Finalize()
	suite.Require().NoError(err)

	return path
}

func (suite *DuckDBTickSourceTestSuite) collect(ctx context.Context, start, end optional.Option[time.Time]) ([]types.Tick, error) {
	var ticks []types.Tick

	for tick, err := range suite.source.ReadAll(ctx, start, end) {
		if err != nil {
			return ticks, err
		}

		ticks = append(ticks, tick)
	}

	return ticks, nil
}

func (suite *DuckDBTickSourceTestSuite) TestInitializeWithoutFiles() {
	err := suite.source.Initialize(nil)
	suite.True(errors.HasCode(err, errors.ErrCodeNoDataFound))
}

func (suite *DuckDBTickSourceTestSuite) TestInitializeMissingFile() {
	err := suite.source.Initialize([]string{filepath.Join(suite.dir, "missing.parquet")})
	suite.True(errors.HasCode(err, errors.ErrCodeCatalogReadFailed))
}

func (suite *DuckDBTickSourceTestSuite) TestReadBeforeInitialize() {
	_, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))

	_, err = suite.collect(context.Background(), optional.None[time.Time](), optional.None[time.Time]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
}

func (suite *DuckDBTickSourceTestSuite) TestReadAllInterleavesInstruments() {
	files := []string{
		suite.writeParquet(suite.msft, 400, 401, 402),
		suite.writeParquet(suite.aapl, 200.5, 201.25, 199.75),
	}
	suite.Require().NoError(suite.source.Initialize(files))

	ticks, err := suite.collect(context.Background(), optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(ticks, 6)

	// same timestamp: AAPL before MSFT
	suite.Equal(suite.aapl, ticks[0].Instrument)
	suite.Equal(suite.msft, ticks[1].Instrument)
	suite.Equal("200.5", ticks[0].Price.String())
	suite.Equal("400", ticks[1].Price.String())
	suite.Equal(suite.start, ticks[0].Timestamp)
	suite.Equal(int64(0), ticks[0].TradeID)
	suite.Equal(int64(1), ticks[0].Quantity)

	for i := 1; i < len(ticks); i++ {
		suite.False(ticks[i].Timestamp.Before(ticks[i-1].Timestamp))
	}

	suite.Equal(int64(2), ticks[5].TradeID)
	suite.Equal("402", ticks[5].Price.String())
}

func (suite *DuckDBTickSourceTestSuite) TestTimeRange() {
	suite.Require().NoError(suite.source.Initialize([]string{suite.writeParquet(suite.aapl, 1, 2, 3, 4, 5)}))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(5, count)

	from := optional.Some(suite.start.Add(time.Hour))
	to := optional.Some(suite.start.Add(3 * time.Hour))

	count, err = suite.source.Count(from, to)
	suite.Require().NoError(err)
	suite.Equal(3, count)

	ticks, err := suite.collect(context.Background(), from, to)
	suite.Require().NoError(err)
	suite.Require().Len(ticks, 3)
	suite.Equal("2", ticks[0].Price.String())
	suite.Equal("4", ticks[2].Price.String())

	count, err = suite.source.Count(optional.Some(suite.start.Add(4*time.Hour)), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(1, count)
}

func (suite *DuckDBTickSourceTestSuite) TestInstruments() {
	files := []string{
		suite.writeParquet(suite.msft, 1, 2),
		suite.writeParquet(suite.aapl, 3),
	}
	suite.Require().NoError(suite.source.Initialize(files))

	instruments, err := suite.source.Instruments()
	suite.Require().NoError(err)
	suite.Equal([]types.Instrument{suite.aapl, suite.msft}, instruments)
}

func (suite *DuckDBTickSourceTestSuite) TestReinitializeReplacesView() {
	suite.Require().NoError(suite.source.Initialize([]string{suite.writeParquet(suite.aapl, 1, 2, 3)}))
	suite.Require().NoError(suite.source.Initialize([]string{suite.writeParquet(suite.msft, 1)}))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Equal(1, count)
}

func (suite *DuckDBTickSourceTestSuite) TestReadAllCancelled() {
	suite.Require().NoError(suite.source.Initialize([]string{suite.writeParquet(suite.aapl, 1, 2, 3)}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ticks, err := suite.collect(ctx, optional.None[time.Time](), optional.None[time.Time]())
	suite.Empty(ticks)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *DuckDBTickSourceTestSuite) TestStopIterationEarly() {
	suite.Require().NoError(suite.source.Initialize([]string{suite.writeParquet(suite.aapl, 1, 2, 3)}))

	seen := 0

	for _, err := range suite.source.ReadAll(context.Background(), optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		seen++
		if seen == 2 {
			break
		}
	}

	suite.Equal(2, seen)
}
