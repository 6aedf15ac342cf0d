package marketdata

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"github.com/shopspring/decimal"
)

// Normalizer turns the bars of one instrument into ticks of the catalog schema:
// the bar close becomes the price, the volume becomes the quantity (zero is
// replaced by one) and trade ids count up from zero.
type Normalizer struct {
	instrument types.Instrument
	nextID     int64
	zeroVolume int
}

func NewNormalizer(instrument types.Instrument) *Normalizer {
	return &Normalizer{instrument: instrument}
}

// Next converts bar into the next tick of the series.
func (n *Normalizer) Next(bar writer.Bar) (types.Tick, error) {
	price := decimal.NewFromFloat(bar.Close)
	if !price.IsPositive() {
		return types.Tick{}, errors.Newf(errors.ErrCodeInvalidPrice,
			"%s: non-positive price %s at %s", n.instrument, price, bar.Time.Format("2006-01-02T15:04:05Z07:00"))
	}

	quantity := int64(bar.Volume)
	if quantity <= 0 {
		quantity = 1
		n.zeroVolume++
	}

	tick := types.Tick{
		Instrument: n.instrument,
		Price:      price,
		Quantity:   quantity,
		TradeID:    n.nextID,
		Timestamp:  bar.Time.UTC(),
	}
	n.nextID++

	return tick, nil
}

// Count is the number of ticks produced so far.
func (n *Normalizer) Count() int64 {
	return n.nextID
}

// ZeroVolume is the number of bars whose volume was replaced by one.
func (n *Normalizer) ZeroVolume() int {
	return n.zeroVolume
}

// Normalize converts a whole series. An empty series is an input error.
func Normalize(instrument types.Instrument, bars []writer.Bar) ([]types.Tick, error) {
	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s, check the timeframe or ticker symbol", instrument)
	}

	n := NewNormalizer(instrument)
	ticks := make([]types.Tick, 0, len(bars))

	for _, bar := range bars {
		tick, err := n.Next(bar)
		if err != nil {
			return nil, err
		}

		ticks = append(ticks, tick)
	}

	return ticks, nil
}

// FromTable normalizes a tabular export. header holds one or more header rows;
// multi-level headers are joined with "_" before the price and volume columns
// are detected.
func FromTable(instrument types.Instrument, header [][]string, rows [][]string) ([]types.Tick, error) {
	bars, err := provider.ParseTable(header, rows)
	if err != nil {
		return nil, err
	}

	return Normalize(instrument, bars)
}

// normalizingWriter adapts a TickWriter to the BarWriter providers stream into,
// normalizing each bar on the way through.
type normalizingWriter struct {
	normalizer *Normalizer
	ticks      writer.TickWriter
}

func newNormalizingWriter(instrument types.Instrument, ticks writer.TickWriter) *normalizingWriter {
	return &normalizingWriter{
		normalizer: NewNormalizer(instrument),
		ticks:      ticks,
	}
}

func (w *normalizingWriter) Initialize() error {
	return w.ticks.Initialize()
}

func (w *normalizingWriter) Write(bar writer.Bar) error {
	tick, err := w.normalizer.Next(bar)
	if err != nil {
		return err
	}

	return w.ticks.Write(tick)
}

func (w *normalizingWriter) Finalize() (string, error) {
	if w.normalizer.Count() == 0 {
		return "", errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s, check the timeframe or ticker symbol", w.normalizer.instrument)
	}

	return w.ticks.Finalize()
}

func (w *normalizingWriter) Close() error {
	return w.ticks.Close()
}
