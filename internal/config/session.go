package config

import (
	"os"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-signals/internal/allocation"
	"github.com/rxtech-lab/argo-signals/internal/backtest/venue"
	"github.com/rxtech-lab/argo-signals/internal/orchestrator"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/rxtech-lab/argo-signals/pkg/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Instruments maps the symbols onto the venue.
func (c *SessionConfig) Instruments() []types.Instrument {
	return lo.Map(c.Symbols, func(symbol string, _ int) types.Instrument {
		return types.NewInstrument(symbol, c.Venue.Name)
	})
}

// Mode is barrier for fire_once over several symbols, per instrument otherwise.
func (c *SessionConfig) Mode() orchestrator.Mode {
	if c.Strategy().Signal == signal.KindFireOnce && len(c.Symbols) > 1 {
		return orchestrator.ModeBarrier
	}

	return orchestrator.ModePerInstrument
}

// ResolvedWeights returns the configured weights, or the defaults of the mode:
// equal weights in barrier mode and one per symbol otherwise.
func (c *SessionConfig) ResolvedWeights() []decimal.Decimal {
	if len(c.Weights) > 0 {
		return c.weightDecimals()
	}

	if c.Mode() == orchestrator.ModeBarrier {
		return allocation.EqualWeights(len(c.Symbols))
	}

	return lo.Times(len(c.Symbols), func(int) decimal.Decimal { return decimal.NewFromInt(1) })
}

// ToOrchestratorConfig builds the session config of the selected strategy.
// An empty runID gets a fresh uuid.
func (c *SessionConfig) ToOrchestratorConfig(runID string) (orchestrator.Config, error) {
	if runID == "" {
		runID = uuid.NewString()
	}

	instruments := c.Instruments()
	strategy := c.Strategy()
	weights := lo.SliceToMap(lo.Zip2(instruments, c.ResolvedWeights()), func(t lo.Tuple2[types.Instrument, decimal.Decimal]) (types.Instrument, decimal.Decimal) {
		return t.A, t.B
	})

	cfg := orchestrator.Config{
		RunID:        runID,
		Strategy:     strategy.Name,
		Instruments:  instruments,
		Weights:      weights,
		Investment:   c.Investment,
		Evaluator:    strategy.Evaluator(),
		Mode:         c.Mode(),
		AllowReentry: strategy.Reentry(),
	}

	if err := cfg.Validate(); err != nil {
		return orchestrator.Config{}, err
	}

	return cfg, nil
}

// ToDownloadConfig describes the market data the session needs. The API key
// is read from the variable named by the provider config.
func (c *SessionConfig) ToDownloadConfig() marketdata.DownloadConfig {
	apiKey := ""
	if c.Provider.APIKeyEnv != "" {
		apiKey = os.Getenv(c.Provider.APIKeyEnv)
	}

	return marketdata.DownloadConfig{
		Provider:  c.Provider.Type,
		Symbols:   c.Symbols,
		Venue:     c.Venue.Name,
		StartDate: c.Start.Unwrap().Format(time.DateOnly),
		EndDate:   c.EndDate().Format(time.DateOnly),
		Interval:  c.Interval,
		ApiKey:    apiKey,
		CSVDir:    c.Provider.CSVDir,
		DataPath:  c.CatalogDir,
	}
}

// ToVenueConfig returns the account the simulated venue fills against.
func (c *SessionConfig) ToVenueConfig() venue.Config {
	return venue.Config{
		Name:            c.Venue.Name,
		OMSType:         string(c.Venue.OMSType),
		AccountType:     string(c.Venue.AccountType),
		BaseCurrency:    c.Venue.BaseCurrency,
		StartingBalance: c.Venue.StartingBalance,
	}
}

// GenerateSchemaJSON generates the JSON schema of SessionConfig.
func GenerateSchemaJSON() (string, error) {
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	return utils.GetSchemaFromConfig(SessionConfig{}, utils.WithMapper(schemaMapper))
}

func schemaMapper(t reflect.Type) *jsonschema.Schema {
	switch t.String() {
	case "optional.Option[time.Time]":
		return &jsonschema.Schema{Type: "string", Format: "date"}
	case "optional.Option[bool]":
		return &jsonschema.Schema{Type: "boolean"}
	case "decimal.Decimal":
		return &jsonschema.Schema{Type: "number"}
	}

	return nil
}
