package mocks

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/shopspring/decimal"
)

// DataGenerator generates deterministic tick streams for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how ticks are generated.
type GeneratorConfig struct {
	Instrument types.Instrument
	StartTime  time.Time
	// Interval is the duration between ticks
	Interval time.Duration
	Count    int
	// InitialPrice is the first price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per tick)
	Volatility float64
	// Trend is the total drift over the series (-0.1 to 0.1 for bearish to bullish)
	Trend float64
	// QuantityBase is the average traded quantity per tick
	QuantityBase int64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Instrument:   types.NewInstrument("TEST", types.DefaultVenue),
		StartTime:    time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC),
		Interval:     time.Minute,
		Count:        1000,
		InitialPrice: 100.0,
		Volatility:   0.002,
		Trend:        0.0,
		QuantityBase: 100,
	}
}

// Generate creates ticks following a geometric random walk.
// Prices stay positive and quantities are at least 1.
func (g *DataGenerator) Generate(config GeneratorConfig) []types.Tick {
	ticks := make([]types.Tick, config.Count)
	price := config.InitialPrice
	at := config.StartTime

	drift := 0.0
	if config.Count > 0 {
		drift = config.Trend / float64(config.Count)
	}

	for i := 0; i < config.Count; i++ {
		// Box-Muller
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		next := price * (1 + config.Volatility*z + drift)
		if next <= 0 {
			next = price * 0.99
		}

		quantity := int64(float64(config.QuantityBase) * (0.5 + g.rng.Float64()))
		if quantity < 1 {
			quantity = 1
		}

		ticks[i] = types.Tick{
			Instrument: config.Instrument,
			Price:      decimal.NewFromFloat(next).Round(4),
			Quantity:   quantity,
			TradeID:    int64(i),
			Timestamp:  at,
		}

		price = next
		at = at.Add(config.Interval)
	}

	return ticks
}

// GenerateMulti generates ticks for several instruments and interleaves them by
// timestamp, ties broken by instrument.
func (g *DataGenerator) GenerateMulti(instruments []types.Instrument, base GeneratorConfig) []types.Tick {
	var all []types.Tick

	for _, inst := range instruments {
		config := base
		config.Instrument = inst
		config.InitialPrice = base.InitialPrice * (0.8 + g.rng.Float64()*0.4)

		all = append(all, g.Generate(config)...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Timestamp.Before(all[j].Timestamp)
		}

		return all[i].Instrument.String() < all[j].Instrument.String()
	})

	return all
}

// TicksFromPrices builds one tick per price, one interval apart.
func TicksFromPrices(instrument types.Instrument, start time.Time, interval time.Duration, prices ...float64) []types.Tick {
	ticks := make([]types.Tick, len(prices))
	for i, p := range prices {
		ticks[i] = types.Tick{
			Instrument: instrument,
			Price:      decimal.NewFromFloat(p),
			Quantity:   1,
			TradeID:    int64(i),
			Timestamp:  start.Add(time.Duration(i) * interval),
		}
	}

	return ticks
}

// TickSeq adapts a slice of ticks to the iterator shape returned by TickSource.ReadAll.
// A non-nil err is yielded after the ticks.
func TickSeq(ticks []types.Tick, err error) func(yield func(types.Tick, error) bool) {
	return func(yield func(types.Tick, error) bool) {
		for _, tick := range ticks {
			if !yield(tick, nil) {
				return
			}
		}

		if err != nil {
			yield(types.Tick{}, err)
		}
	}
}
