package backtest

import (
	"context"

	"github.com/rxtech-lab/argo-signals/internal/backtest/datasource"
	"github.com/rxtech-lab/argo-signals/internal/backtest/engine"
	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"go.uber.org/zap"
)

type Option func(*Session)

// WithProvider replaces the provider the session config names.
func WithProvider(p provider.Provider) Option {
	return func(s *Session) {
		s.provider = p
	}
}

// WithDownloadProgress reports download progress while the catalog is fetched.
func WithDownloadProgress(onProgress provider.OnDownloadProgress) Option {
	return func(s *Session) {
		s.onDownload = onProgress
	}
}

// Session runs a backtest described by a session config: it makes sure the
// catalog exists, then replays it.
type Session struct {
	config     *config.SessionConfig
	log        *logger.Logger
	provider   provider.Provider
	onDownload provider.OnDownloadProgress
}

func NewSession(cfg *config.SessionConfig, log *logger.Logger, options ...Option) (*Session, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "session config is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Session{config: cfg, log: log}
	for _, option := range options {
		option(s)
	}

	return s, nil
}

// Prepare downloads the catalog of the session, or reuses it when a complete
// one already exists.
func (s *Session) Prepare(ctx context.Context) (marketdata.DownloadResult, error) {
	download := s.config.ToDownloadConfig()

	var (
		client *marketdata.Client
		err    error
	)

	if s.provider != nil {
		client, err = marketdata.NewClientWithProvider(download.ToClientConfig(), s.provider, s.onDownload, s.log)
	} else {
		if err = download.Validate(); err != nil {
			return marketdata.DownloadResult{}, err
		}

		client, err = marketdata.NewClient(download.ToClientConfig(), s.onDownload, s.log)
	}

	if err != nil {
		return marketdata.DownloadResult{}, err
	}

	params, err := download.ToDownloadParams()
	if err != nil {
		return marketdata.DownloadResult{}, err
	}

	return client.Download(ctx, params)
}

// Run prepares the catalog and replays it with the selected strategy. An
// empty runID gets a generated one.
func (s *Session) Run(ctx context.Context, runID string, callbacks engine.LifecycleCallbacks) (engine.Result, error) {
	catalog, err := s.Prepare(ctx)
	if err != nil {
		return engine.Result{}, err
	}

	s.log.Info("Catalog ready",
		zap.String("dir", catalog.Dir),
		zap.Bool("reused", catalog.Reused),
		zap.Int64("rows", catalog.Manifest.TotalRows()),
	)

	session, err := s.config.ToOrchestratorConfig(runID)
	if err != nil {
		return engine.Result{}, err
	}

	source, err := datasource.NewTickSource(":memory:", s.log)
	if err != nil {
		return engine.Result{}, err
	}
	defer source.Close()

	runner, err := engine.NewRunner(engine.Options{
		Session:    session,
		Venue:      s.config.ToVenueConfig(),
		Files:      catalog.Manifest.Files(catalog.Dir),
		ResultsDir: s.config.ResultsDir,
	}, source, s.log)
	if err != nil {
		return engine.Result{}, err
	}

	return runner.Run(ctx, callbacks)
}
