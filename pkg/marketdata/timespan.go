package marketdata

import (
	"cmp"
	"slices"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/samber/lo"
)

// Timespan is a bar interval in the short form used by configs and the CLI,
// e.g. "1m", "4h", "1d".
type Timespan string

const (
	TimespanOneSecond      Timespan = "1s"
	TimespanOneMinute      Timespan = "1m"
	TimespanThreeMinutes   Timespan = "3m"
	TimespanFiveMinutes    Timespan = "5m"
	TimespanFifteenMinutes Timespan = "15m"
	TimespanThirtyMinutes  Timespan = "30m"
	TimespanOneHour        Timespan = "1h"
	TimespanTwoHours       Timespan = "2h"
	TimespanFourHours      Timespan = "4h"
	TimespanSixHours       Timespan = "6h"
	TimespanEightHours     Timespan = "8h"
	TimespanTwelveHours    Timespan = "12h"
	TimespanOneDay         Timespan = "1d"
	TimespanThreeDays      Timespan = "3d"
	TimespanOneWeek        Timespan = "1w"
	TimespanOneMonth       Timespan = "1M"
)

type timespanSpec struct {
	multiplier int
	unit       models.Timespan
	step       time.Duration
}

const day = 24 * time.Hour

var timespans = map[Timespan]timespanSpec{
	TimespanOneSecond:      {1, models.Second, time.Second},
	TimespanOneMinute:      {1, models.Minute, time.Minute},
	TimespanThreeMinutes:   {3, models.Minute, 3 * time.Minute},
	TimespanFiveMinutes:    {5, models.Minute, 5 * time.Minute},
	TimespanFifteenMinutes: {15, models.Minute, 15 * time.Minute},
	TimespanThirtyMinutes:  {30, models.Minute, 30 * time.Minute},
	TimespanOneHour:        {1, models.Hour, time.Hour},
	TimespanTwoHours:       {2, models.Hour, 2 * time.Hour},
	TimespanFourHours:      {4, models.Hour, 4 * time.Hour},
	TimespanSixHours:       {6, models.Hour, 6 * time.Hour},
	TimespanEightHours:     {8, models.Hour, 8 * time.Hour},
	TimespanTwelveHours:    {12, models.Hour, 12 * time.Hour},
	TimespanOneDay:         {1, models.Day, day},
	TimespanThreeDays:      {3, models.Day, 3 * day},
	TimespanOneWeek:        {1, models.Week, 7 * day},
	TimespanOneMonth:       {1, models.Month, 30 * day},
}

// ParseTimespan validates value against the supported intervals.
func ParseTimespan(value string) (Timespan, error) {
	t := Timespan(value)
	if !t.IsValid() {
		return "", errors.Newf(errors.ErrCodeInvalidTimespan, "unsupported interval %q, expected one of %v", value, SupportedTimespans())
	}

	return t, nil
}

// SupportedTimespans lists the intervals from shortest to longest.
func SupportedTimespans() []Timespan {
	keys := lo.Keys(timespans)
	slices.SortFunc(keys, func(a, b Timespan) int {
		return cmp.Compare(timespans[a].step, timespans[b].step)
	})

	return keys
}

func (t Timespan) IsValid() bool {
	_, ok := timespans[t]

	return ok
}

// Multiplier returns how many units of Timespan() make up one bar. Unknown
// intervals count as one.
func (t Timespan) Multiplier() int {
	if spec, ok := timespans[t]; ok {
		return spec.multiplier
	}

	return 1
}

// Timespan returns the provider unit of the interval, defaulting to a day.
func (t Timespan) Timespan() models.Timespan {
	if spec, ok := timespans[t]; ok {
		return spec.unit
	}

	return models.Day
}

// Duration is the nominal length of one bar; a month counts as 30 days.
func (t Timespan) Duration() time.Duration {
	if spec, ok := timespans[t]; ok {
		return spec.step
	}

	return day
}
