package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/backtest/venue"
	"github.com/rxtech-lab/argo-signals/internal/orchestrator"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	apperrors "github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const minimal = `
symbols: [SPY]
start: 2024-01-01
end: 2024-06-30
strategies:
  - name: hold
    signal: fire_once
`

func (suite *ConfigTestSuite) TestLoadSample() {
	c, err := Load(filepath.Join("testdata", "session.yaml"))
	suite.Require().NoError(err)

	suite.Equal([]string{"AAPL", "MSFT", "GOOG"}, c.Symbols)
	suite.Equal(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), c.Start.Unwrap())
	suite.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), c.EndDate())
	suite.True(decimal.NewFromInt(400000).Equal(c.Investment))
	suite.True(decimal.NewFromInt(1000000).Equal(c.Venue.StartingBalance))
	suite.Equal(OMSHedging, c.Venue.OMSType)
	suite.Len(c.Strategies, 4)
	suite.Equal("weighted-buy-and-hold", c.Strategy().Name)

	suite.True(c.Strategies[0].AllowReentry.IsNone())
	suite.True(c.Strategies[0].Reentry())
	suite.False(c.Strategies[2].Reentry())
	suite.Equal(1, c.Strategies[0].Evaluator().Window)
	suite.Equal(signal.NewMomentum(10), c.Strategies[1].Evaluator())
}

func (suite *ConfigTestSuite) TestDefaults() {
	c, err := Parse([]byte(minimal))
	suite.Require().NoError(err)

	suite.Equal("SIM", c.Venue.Name)
	suite.Equal(AccountCash, c.Venue.AccountType)
	suite.Equal("USD", c.Venue.BaseCurrency)
	suite.Equal(provider.ProviderPolygon, c.Provider.Type)
	suite.Equal("1d", c.Interval)
	suite.Equal("data", c.CatalogDir)
	suite.Equal("results", c.ResultsDir)
	suite.True(decimal.NewFromInt(400_000).Equal(c.Investment))
	suite.Equal(0, c.StrategyIndex)
}

func (suite *ConfigTestSuite) TestPartialVenueKeepsDefaults() {
	c, err := Parse([]byte(minimal + "venue:\n  name: XNAS\n"))
	suite.Require().NoError(err)

	suite.Equal("XNAS", c.Venue.Name)
	suite.Equal(OMSHedging, c.Venue.OMSType)
	suite.Equal("SPY.XNAS", c.Instruments()[0].String())
}

func (suite *ConfigTestSuite) TestEndDefaultsToToday() {
	c, err := Parse([]byte(`
symbols: [SPY]
start: 2020-01-01
strategies: [{name: hold, signal: fire_once}]
`))
	suite.Require().NoError(err)
	suite.True(c.End.IsNone())
	suite.Equal(time.Now().UTC().Truncate(24*time.Hour), c.EndDate())
}

func (suite *ConfigTestSuite) TestValidationErrors() {
	tests := []struct {
		name string
		yaml string
		code apperrors.ErrorCode
	}{
		{"no symbols", "start: 2024-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidConfiguration},
		{"duplicate symbols", "symbols: [A, A]\nstart: 2024-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidConfiguration},
		{"no strategies", "symbols: [A]\nstart: 2024-01-01", apperrors.ErrCodeInvalidConfiguration},
		{"unknown signal", "symbols: [A]\nstart: 2024-01-01\nstrategies: [{name: a, signal: rsi}]", apperrors.ErrCodeInvalidConfiguration},
		{"missing start", "symbols: [A]\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeMissingParameter},
		{"end before start", "symbols: [A]\nstart: 2024-01-01\nend: 2023-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidConfiguration},
		{"bad interval", "symbols: [A]\nstart: 2024-01-01\ninterval: 7m\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidTimespan},
		{"zero investment", "symbols: [A]\nstart: 2024-01-01\ninvestment: 0\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidParameter},
		{"index out of range", "symbols: [A]\nstart: 2024-01-01\nstrategy_index: 1\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidConfiguration},
		{"momentum window", "symbols: [A]\nstart: 2024-01-01\nstrategies: [{name: a, signal: momentum, window: 1}]", apperrors.ErrCodeInvalidWindow},
		{"concavity window", "symbols: [A]\nstart: 2024-01-01\nstrategies: [{name: a, signal: concavity, window: 2}]", apperrors.ErrCodeInvalidWindow},
		{"weights count", "symbols: [A, B]\nweights: [1]\nstart: 2024-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidWeight},
		{"weights sum", "symbols: [A, B]\nweights: [0.7, 0.6]\nstart: 2024-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeWeightsExceedOne},
		{"weight above one", "symbols: [A]\nweights: [1.5]\nstart: 2024-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidConfiguration},
		{"newer config", "version: v0.99.0\nsymbols: [A]\nstart: 2024-01-01\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidVersion},
		{"csv without dir", "symbols: [A]\nstart: 2024-01-01\nprovider: {type: csv}\nstrategies: [{name: a, signal: fire_once}]", apperrors.ErrCodeInvalidConfiguration},
		{"not yaml", "symbols: [A", apperrors.ErrCodeInvalidConfiguration},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			_, err := Parse([]byte(tc.yaml))
			suite.Error(err)
			suite.True(apperrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (suite *ConfigTestSuite) TestLoadMissingFile() {
	_, err := Load(filepath.Join(suite.T().TempDir(), "missing.yaml"))
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestToOrchestratorConfigBarrier() {
	c, err := Load(filepath.Join("testdata", "session.yaml"))
	suite.Require().NoError(err)

	cfg, err := c.ToOrchestratorConfig("run-1")
	suite.Require().NoError(err)

	suite.Equal("run-1", cfg.RunID)
	suite.Equal("weighted-buy-and-hold", cfg.Strategy)
	suite.Equal(orchestrator.ModeBarrier, cfg.Mode)
	suite.Equal(signal.NewFireOnce(), cfg.Evaluator)
	suite.True(decimal.RequireFromString("0.3").Equal(cfg.Weights[types.NewInstrument("MSFT", "SIM")]))
	suite.Len(cfg.Instruments, 3)
}

func (suite *ConfigTestSuite) TestEqualWeightsForBarrier() {
	c, err := Parse([]byte(`
symbols: [A, B, C, D]
start: 2024-01-01
strategies: [{name: hold, signal: fire_once}]
`))
	suite.Require().NoError(err)

	weights := c.ResolvedWeights()
	suite.Len(weights, 4)
	suite.True(decimal.RequireFromString("0.25").Equal(weights[0]))

	cfg, err := c.ToOrchestratorConfig("")
	suite.Require().NoError(err)
	suite.NotEmpty(cfg.RunID)
	suite.Equal(orchestrator.ModeBarrier, cfg.Mode)
}

func (suite *ConfigTestSuite) TestEqualWeightsForSixSymbols() {
	c, err := Parse([]byte(`
symbols: [A, B, C, D, E, F]
start: 2024-01-01
strategies: [{name: hold, signal: fire_once}]
`))
	suite.Require().NoError(err)

	cfg, err := c.ToOrchestratorConfig("six")
	suite.Require().NoError(err)
	suite.Len(cfg.Weights, 6)
	suite.True(decimal.NewFromInt(1).Equal(decimal.Sum(decimal.Zero, lo.Values(cfg.Weights)...)))
}

func (suite *ConfigTestSuite) TestPerInstrumentDefaults() {
	c, err := Parse([]byte(`
symbols: [A, B]
start: 2024-01-01
strategies: [{name: mom, signal: momentum, window: 3}]
`))
	suite.Require().NoError(err)

	suite.Equal(orchestrator.ModePerInstrument, c.Mode())

	cfg, err := c.ToOrchestratorConfig("run")
	suite.Require().NoError(err)
	suite.True(cfg.AllowReentry)
	suite.True(decimal.NewFromInt(1).Equal(cfg.Weights[types.NewInstrument("B", "SIM")]))
}

func (suite *ConfigTestSuite) TestToDownloadConfig() {
	suite.T().Setenv("ARGO_SIGNALS_TEST_KEY", "secret")

	c, err := Load(filepath.Join("testdata", "session.yaml"))
	suite.Require().NoError(err)

	dl := c.ToDownloadConfig()
	suite.Equal("secret", dl.ApiKey)
	suite.Equal("2024-07-02", dl.StartDate)
	suite.Equal("2024-12-31", dl.EndDate)
	suite.Equal("1h", dl.Interval)
	suite.Equal("data", dl.DataPath)
	suite.NoError(dl.Validate())
}

func (suite *ConfigTestSuite) TestToVenueConfig() {
	c, err := Load(filepath.Join("testdata", "session.yaml"))
	suite.Require().NoError(err)

	v := c.ToVenueConfig()
	suite.Equal("SIM", v.Name)
	suite.Equal("HEDGING", v.OMSType)
	suite.Equal(venue.AccountCash, v.AccountType)
	suite.Equal("USD", v.BaseCurrency)
	suite.True(c.Venue.StartingBalance.Equal(v.StartingBalance))

	_, err = venue.NewSimulatedVenue(v, nil)
	suite.NoError(err)
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	schema, err := GenerateSchemaJSON()
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(schema), &result))

	properties, ok := result["properties"].(map[string]any)
	suite.Require().True(ok)

	start, ok := properties["start"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("string", start["type"])

	investment, ok := properties["investment"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("number", investment["type"])
	suite.Contains(properties, "strategy_index")
}

func (suite *ConfigTestSuite) TestSampleFileIsValidYAML() {
	data, err := os.ReadFile(filepath.Join("testdata", "session.yaml"))
	suite.Require().NoError(err)
	suite.Contains(string(data), "strategy_index")
}
