package writer

import (
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Bar is one raw aggregate as returned by a market data provider, before it is
// normalized into a tick.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarWriter receives raw bars from a provider.
type BarWriter interface {
	// Initialize prepares the writer for a new series.
	Initialize() error
	// Write accepts a single bar.
	Write(bar Bar) error
	// Finalize completes the series and returns where it was stored.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
}

// TickWriter persists normalized ticks.
type TickWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single tick.
	Write(tick types.Tick) error
	// Finalize completes the writing process and exports the output file.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
