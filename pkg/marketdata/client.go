package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	ProviderType  provider.ProviderType `validate:"required,oneof=polygon binance csv"`
	DataPath      string                `validate:"required"`
	PolygonApiKey string                `validate:"required_if=ProviderType polygon"`
	CSVDir        string                `validate:"required_if=ProviderType csv"`
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Symbols   []string  `validate:"required,min=1,unique,dive,required"`
	Venue     string    `validate:"omitempty,alphanum"`
	StartDate time.Time `validate:"required"`
	EndDate   time.Time `validate:"required,gtfield=StartDate"`
	Interval  Timespan  `validate:"required"`
}

// Instruments maps the symbols onto the venue.
func (p DownloadParams) Instruments() []types.Instrument {
	return lo.Map(p.Symbols, func(symbol string, _ int) types.Instrument {
		return types.NewInstrument(symbol, p.Venue)
	})
}

// DownloadResult describes the catalog directory a download produced or reused.
type DownloadResult struct {
	Dir      string
	Manifest Manifest
	Reused   bool
}

// Client is the market data client responsible for downloading bars from a
// provider, normalizing them and storing them in the catalog.
type Client struct {
	provider   provider.Provider
	catalog    *Catalog
	config     ClientConfig
	validate   *validator.Validate
	onProgress provider.OnDownloadProgress
	logger     *logger.Logger
	newWriter  func(path string) writer.TickWriter
	now        func() time.Time
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	var providerConfig any

	switch config.ProviderType {
	case provider.ProviderPolygon:
		providerConfig = config.PolygonApiKey
	case provider.ProviderCSV:
		providerConfig = config.CSVDir
	case provider.ProviderBinance:
	}

	marketProvider, err := provider.NewMarketDataProvider(config.ProviderType, providerConfig)
	if err != nil {
		return nil, err
	}

	return NewClientWithProvider(config, marketProvider, onProgress, log)
}

// NewClientWithProvider creates a client around an existing provider.
func NewClientWithProvider(config ClientConfig, marketProvider provider.Provider, onProgress provider.OnDownloadProgress, log *logger.Logger) (*Client, error) {
	catalog, err := NewCatalog(config.DataPath)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		provider:   marketProvider,
		catalog:    catalog,
		config:     config,
		validate:   validator.New(),
		onProgress: onProgress,
		logger:     log,
		newWriter: func(path string) writer.TickWriter {
			return writer.NewDuckDBTickWriter(path)
		},
		now: time.Now,
	}, nil
}

// Download fetches every symbol of params into the catalog directory keyed by
// the request. A directory that already holds a manifest is reused untouched.
// The context can be used to cancel the download operation.
func (c *Client) Download(ctx context.Context, params DownloadParams) (DownloadResult, error) {
	if err := c.validate.Struct(params); err != nil {
		return DownloadResult{}, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	interval, err := ParseTimespan(string(params.Interval))
	if err != nil {
		return DownloadResult{}, err
	}

	instruments := params.Instruments()
	key := CatalogKey(lo.Map(instruments, func(i types.Instrument, _ int) string { return i.Symbol }), params.StartDate, params.EndDate, interval)

	existing, err := c.catalog.Lookup(key)
	if err != nil {
		return DownloadResult{}, err
	}

	if existing.IsSome() {
		c.logger.Info("Reusing catalog", zap.String("key", key), zap.String("dir", c.catalog.Dir(key)))

		return DownloadResult{Dir: c.catalog.Dir(key), Manifest: existing.Unwrap(), Reused: true}, nil
	}

	dir, err := c.catalog.Prepare(key)
	if err != nil {
		return DownloadResult{}, err
	}

	manifest := Manifest{
		Key:       key,
		Provider:  c.config.ProviderType,
		Interval:  interval,
		Start:     params.StartDate.UTC(),
		End:       params.EndDate.UTC(),
		CreatedAt: c.now().UTC(),
	}

	for _, instrument := range instruments {
		entry, err := c.downloadInstrument(ctx, dir, instrument, params, interval)
		if err != nil {
			return DownloadResult{}, err
		}

		manifest.Instruments = append(manifest.Instruments, entry)
	}

	if err := WriteManifest(dir, manifest); err != nil {
		return DownloadResult{}, err
	}

	c.logger.Info("Catalog written",
		zap.String("dir", dir),
		zap.Int("instruments", len(manifest.Instruments)),
		zap.Int64("rows", manifest.TotalRows()),
	)

	return DownloadResult{Dir: dir, Manifest: manifest}, nil
}

func (c *Client) downloadInstrument(ctx context.Context, dir string, instrument types.Instrument, params DownloadParams, interval Timespan) (ManifestEntry, error) {
	file := TickFileName(instrument)
	path := filepath.Join(dir, file)

	sink := newNormalizingWriter(instrument, c.newWriter(path))
	defer func() {
		if err := sink.Close(); err != nil {
			c.logger.Warn("Failed to close writer", zap.Stringer("instrument", instrument), zap.Error(err))
		}
	}()

	c.provider.ConfigWriter(sink)

	c.logger.Info("Downloading",
		zap.Stringer("instrument", instrument),
		zap.Time("start", params.StartDate),
		zap.Time("end", params.EndDate),
		zap.String("interval", string(interval)),
	)

	_, err := c.provider.Download(ctx, instrument.Symbol, params.StartDate, params.EndDate, interval.Multiplier(), interval.Timespan(), c.onProgress)
	if err != nil {
		// a partial file must not be mistaken for data on the next run
		_ = os.Remove(path)

		return ManifestEntry{}, errors.Wrapf(errors.GetCode(err), err, "download failed for %s", instrument)
	}

	if sink.normalizer.ZeroVolume() > 0 {
		c.logger.Warn("Zero volume replaced by one",
			zap.Stringer("instrument", instrument),
			zap.Int("bars", sink.normalizer.ZeroVolume()),
		)
	}

	return ManifestEntry{
		Instrument: instrument,
		File:       file,
		Rows:       sink.normalizer.Count(),
		ZeroVolume: sink.normalizer.ZeroVolume(),
	}, nil
}
