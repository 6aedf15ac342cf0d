package marketdata

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// DownloadConfig is a download request as written in a YAML or JSON file or
// assembled from command line flags.
type DownloadConfig struct {
	Provider  provider.ProviderType `yaml:"provider" json:"provider" jsonschema:"title=Provider,description=Market data source,enum=polygon,enum=binance,enum=csv,required" validate:"required,oneof=polygon binance csv"`
	Symbols   []string              `yaml:"symbols" json:"symbols" jsonschema:"title=Symbols,description=The trading symbols to download (e.g. SPY or BTCUSDT),minItems=1,required" validate:"required,min=1,unique,dive,required"`
	Venue     string                `yaml:"venue,omitempty" json:"venue,omitempty" jsonschema:"title=Venue,description=Venue the instruments are registered on,default=SIM"`
	StartDate string                `yaml:"start" json:"start" jsonschema:"title=Start Date,description=Start date (YYYY-MM-DD or RFC3339),required" validate:"required"`
	EndDate   string                `yaml:"end" json:"end" jsonschema:"title=End Date,description=End date (YYYY-MM-DD or RFC3339),required" validate:"required"`
	Interval  string                `yaml:"interval" json:"interval" jsonschema:"title=Interval,description=Data interval,required,enum=1s,enum=1m,enum=3m,enum=5m,enum=15m,enum=30m,enum=1h,enum=2h,enum=4h,enum=6h,enum=8h,enum=12h,enum=1d,enum=3d,enum=1w,enum=1M" validate:"required,oneof=1s 1m 3m 5m 15m 30m 1h 2h 4h 6h 8h 12h 1d 3d 1w 1M"`
	ApiKey    string                `yaml:"api_key,omitempty" json:"apiKey,omitempty" jsonschema:"title=API Key,description=Polygon.io API key for authentication" validate:"required_if=Provider polygon"`
	CSVDir    string                `yaml:"csv_dir,omitempty" json:"csvDir,omitempty" jsonschema:"title=CSV Directory,description=Directory holding <SYMBOL>.csv exports" validate:"required_if=Provider csv"`
	DataPath  string                `yaml:"data_path" json:"dataPath" jsonschema:"title=Data Path,description=Root of the tick catalog,required" validate:"required"`
}

// ParseDate accepts a plain date or an RFC3339 timestamp.
func ParseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}

	return t, nil
}

// Validate checks the fields and the date range.
func (c *DownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid download config", err)
	}

	start, err := ParseDate(c.StartDate)
	if err != nil {
		return err
	}

	end, err := ParseDate(c.EndDate)
	if err != nil {
		return err
	}

	if !end.After(start) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "end %s must be after start %s", c.EndDate, c.StartDate)
	}

	return nil
}

// ToDownloadParams converts the config into client parameters.
func (c *DownloadConfig) ToDownloadParams() (DownloadParams, error) {
	start, err := ParseDate(c.StartDate)
	if err != nil {
		return DownloadParams{}, err
	}

	end, err := ParseDate(c.EndDate)
	if err != nil {
		return DownloadParams{}, err
	}

	return DownloadParams{
		Symbols:   c.Symbols,
		Venue:     c.Venue,
		StartDate: start,
		EndDate:   end,
		Interval:  Timespan(c.Interval),
	}, nil
}

// ToClientConfig converts the config into a client configuration.
func (c *DownloadConfig) ToClientConfig() ClientConfig {
	return ClientConfig{
		ProviderType:  c.Provider,
		DataPath:      c.DataPath,
		PolygonApiKey: c.ApiKey,
		CSVDir:        c.CSVDir,
	}
}

// ParseDownloadConfig parses and validates a YAML (or JSON) document.
func ParseDownloadConfig(data []byte) (*DownloadConfig, error) {
	var config DownloadConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse download config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
