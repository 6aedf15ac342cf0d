package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/allocation"
	"github.com/rxtech-lab/argo-signals/internal/signal"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type OMSType string

const (
	OMSHedging OMSType = "HEDGING"
	OMSNetting OMSType = "NETTING"
)

type AccountType string

const (
	AccountCash   AccountType = "CASH"
	AccountMargin AccountType = "MARGIN"
)

// VenueConfig describes the simulated venue orders are sent to. Name is also
// the venue instruments are registered on.
type VenueConfig struct {
	Name            string          `yaml:"name" json:"name" jsonschema:"title=Name,description=Venue identifier,default=SIM" validate:"required,alphanum"`
	OMSType         OMSType         `yaml:"oms_type" json:"oms_type" jsonschema:"title=OMS Type,enum=HEDGING,enum=NETTING,default=HEDGING" validate:"required,oneof=HEDGING NETTING"`
	AccountType     AccountType     `yaml:"account_type" json:"account_type" jsonschema:"title=Account Type,enum=CASH,enum=MARGIN,default=CASH" validate:"required,oneof=CASH MARGIN"`
	BaseCurrency    string          `yaml:"base_currency" json:"base_currency" jsonschema:"title=Base Currency,default=USD" validate:"required,len=3,uppercase"`
	StartingBalance decimal.Decimal `yaml:"starting_balance" json:"starting_balance" jsonschema:"title=Starting Balance,description=Cash available at the venue"`
}

// ProviderConfig selects where market data is downloaded from.
type ProviderConfig struct {
	Type      provider.ProviderType `yaml:"type" json:"type" jsonschema:"title=Provider,enum=polygon,enum=binance,enum=csv" validate:"required,oneof=polygon binance csv"`
	APIKeyEnv string                `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty" jsonschema:"title=API Key Variable,description=Environment variable holding the provider API key,default=POLYGON_API_KEY"`
	CSVDir    string                `yaml:"csv_dir,omitempty" json:"csv_dir,omitempty" jsonschema:"title=CSV Directory" validate:"required_if=Type csv"`
}

// StrategyConfig is one entry of the strategy list.
type StrategyConfig struct {
	Name   string      `yaml:"name" json:"name" jsonschema:"title=Name" validate:"required"`
	Signal signal.Kind `yaml:"signal" json:"signal" jsonschema:"title=Signal,enum=fire_once,enum=momentum,enum=concavity" validate:"required,oneof=fire_once momentum concavity"`
	Window int         `yaml:"window,omitempty" json:"window,omitempty" jsonschema:"title=Window,description=Number of prices the signal looks at,minimum=1" validate:"min=0"`
	// AllowReentry defaults to true.
	AllowReentry optional.Option[bool] `yaml:"-" json:"allow_reentry,omitempty" jsonschema:"title=Allow Re-entry,description=Buy again after a position was closed"`
}

// UnmarshalYAML maps a missing allow_reentry to None.
func (s *StrategyConfig) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		Name         string      `yaml:"name"`
		Signal       signal.Kind `yaml:"signal"`
		Window       int         `yaml:"window"`
		AllowReentry *bool       `yaml:"allow_reentry"`
	}

	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	s.Name = r.Name
	s.Signal = r.Signal
	s.Window = r.Window
	s.AllowReentry = optional.None[bool]()

	if r.AllowReentry != nil {
		s.AllowReentry = optional.Some(*r.AllowReentry)
	}

	return nil
}

// Evaluator builds the signal evaluator. A fire_once strategy without a
// window gets a window of one.
func (s StrategyConfig) Evaluator() signal.Evaluator {
	window := s.Window
	if window == 0 && s.Signal == signal.KindFireOnce {
		window = 1
	}

	return signal.Evaluator{Kind: s.Signal, Window: window}
}

// Reentry resolves AllowReentry.
func (s StrategyConfig) Reentry() bool {
	if s.AllowReentry.IsSome() {
		return s.AllowReentry.Unwrap()
	}

	return true
}

// SessionConfig is the YAML document describing a backtest session.
type SessionConfig struct {
	Version       string                     `yaml:"version,omitempty" json:"version,omitempty" jsonschema:"title=Version,description=Version of argo-signals the config was written for"`
	Symbols       []string                   `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,minItems=1" validate:"required,min=1,unique,dive,required"`
	Weights       []float64                  `yaml:"weights,omitempty" json:"weights,omitempty" jsonschema:"title=Weights,description=Fraction of the investment per symbol. Defaults to equal weights for fire_once over several symbols and 1 otherwise" validate:"omitempty,dive,min=0,max=1"`
	Start         optional.Option[time.Time] `yaml:"-" json:"start" jsonschema:"title=Start,description=First day of data,required"`
	End           optional.Option[time.Time] `yaml:"-" json:"end,omitempty" jsonschema:"title=End,description=Last day of data. Defaults to today"`
	Interval      string                     `yaml:"interval" json:"interval" jsonschema:"title=Interval,default=1d" validate:"required"`
	Investment    decimal.Decimal            `yaml:"investment" json:"investment" jsonschema:"title=Investment,description=Amount allocated across the symbols"`
	Venue         VenueConfig                `yaml:"venue" json:"venue" jsonschema:"title=Venue"`
	Provider      ProviderConfig             `yaml:"provider" json:"provider" jsonschema:"title=Provider"`
	CatalogDir    string                     `yaml:"catalog_dir" json:"catalog_dir" jsonschema:"title=Catalog Directory,default=data" validate:"required"`
	ResultsDir    string                     `yaml:"results_dir" json:"results_dir" jsonschema:"title=Results Directory,default=results" validate:"required"`
	Strategies    []StrategyConfig           `yaml:"strategies" json:"strategies" jsonschema:"title=Strategies,minItems=1" validate:"required,min=1,dive"`
	StrategyIndex int                        `yaml:"strategy_index" json:"strategy_index" jsonschema:"title=Strategy Index,description=Which strategy of the list to run,minimum=0" validate:"min=0"`
}

// Default returns a config with the venue, provider and directory defaults
// filled in.
func Default() SessionConfig {
	return SessionConfig{
		Version:    version.GetVersion(),
		Start:      optional.None[time.Time](),
		End:        optional.None[time.Time](),
		Interval:   string(marketdata.TimespanOneDay),
		Investment: decimal.NewFromInt(400_000),
		Venue: VenueConfig{
			Name:            "SIM",
			OMSType:         OMSHedging,
			AccountType:     AccountCash,
			BaseCurrency:    "USD",
			StartingBalance: decimal.NewFromInt(1_000_000),
		},
		Provider: ProviderConfig{
			Type:      provider.ProviderPolygon,
			APIKeyEnv: "POLYGON_API_KEY",
		},
		CatalogDir: "data",
		ResultsDir: "results",
	}
}

// UnmarshalYAML decodes on top of Default and maps the optional dates.
func (c *SessionConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain SessionConfig

	type raw struct {
		plain `yaml:",inline"`
		Start *time.Time `yaml:"start"`
		End   *time.Time `yaml:"end"`
	}

	r := raw{plain: plain(Default())}
	if err := value.Decode(&r); err != nil {
		return err
	}

	*c = SessionConfig(r.plain)
	c.Start = optional.None[time.Time]()
	c.End = optional.None[time.Time]()

	if r.Start != nil {
		c.Start = optional.Some(r.Start.UTC())
	}

	if r.End != nil {
		c.End = optional.Some(r.End.UTC())
	}

	return nil
}

// Parse decodes and validates a session config.
func Parse(data []byte) (*SessionConfig, error) {
	var c SessionConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse session config", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Load reads and validates the session config at path.
func Load(path string) (*SessionConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read %s", path)
	}

	return Parse(data)
}

// Validate checks the config against the running version and the rules of the
// selected strategy.
func (c *SessionConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid session config", err)
	}

	if err := version.CheckConfigCompatibility(version.GetVersion(), c.Version); err != nil {
		return err
	}

	if _, err := marketdata.ParseTimespan(c.Interval); err != nil {
		return err
	}

	if c.Start.IsNone() {
		return errors.New(errors.ErrCodeMissingParameter, "start is required")
	}

	if !c.EndDate().After(c.Start.Unwrap()) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end %s must be after start %s",
			c.EndDate().Format(time.DateOnly), c.Start.Unwrap().Format(time.DateOnly))
	}

	if !c.Investment.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "investment must be positive, got %s", c.Investment)
	}

	if !c.Venue.StartingBalance.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "starting balance must be positive, got %s", c.Venue.StartingBalance)
	}

	if c.StrategyIndex >= len(c.Strategies) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "strategy_index %d out of range, %d strategies configured",
			c.StrategyIndex, len(c.Strategies))
	}

	for _, s := range c.Strategies {
		if err := s.Evaluator().Validate(); err != nil {
			return errors.Wrapf(errors.GetCode(err), err, "strategy %q", s.Name)
		}
	}

	if len(c.Weights) > 0 {
		if len(c.Weights) != len(c.Symbols) {
			return errors.Newf(errors.ErrCodeInvalidWeight, "%d weights for %d symbols", len(c.Weights), len(c.Symbols))
		}

		return allocation.ValidateWeights(c.weightDecimals())
	}

	return nil
}

// EndDate resolves End, defaulting to the start of the current UTC day.
func (c *SessionConfig) EndDate() time.Time {
	if c.End.IsSome() {
		return c.End.Unwrap()
	}

	return time.Now().UTC().Truncate(24 * time.Hour)
}

// Strategy returns the strategy selected by StrategyIndex.
func (c *SessionConfig) Strategy() StrategyConfig {
	return c.Strategies[c.StrategyIndex]
}

func (c *SessionConfig) weightDecimals() []decimal.Decimal {
	return lo.Map(c.Weights, func(w float64, _ int) decimal.Decimal {
		return decimal.NewFromFloat(w)
	})
}
