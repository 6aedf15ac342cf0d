package provider

import (
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"github.com/samber/lo"
)

// Columns locates the fields of a tabular export.
type Columns struct {
	Time   int
	Price  int
	Volume int
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// JoinHeaders flattens multi-level headers into one name per column, joining
// the non-empty levels with "_".
func JoinHeaders(levels [][]string) []string {
	width := 0
	for _, level := range levels {
		width = max(width, len(level))
	}

	names := make([]string, width)

	for col := 0; col < width; col++ {
		parts := make([]string, 0, len(levels))

		for _, level := range levels {
			if col < len(level) {
				parts = append(parts, strings.TrimSpace(level[col]))
			}
		}

		names[col] = strings.Join(lo.Compact(parts), "_")
	}

	return names
}

// DetectColumns picks the price column (the first whose name contains "Adj Close"
// or "Close"), the volume column (the first containing "Volume") and the time
// column (the first mentioning a date or time, else the first column).
func DetectColumns(headers []string) (Columns, error) {
	_, price, okPrice := lo.FindIndexOf(headers, func(h string) bool {
		return strings.Contains(h, "Adj Close") || strings.Contains(h, "Close")
	})
	_, volume, okVolume := lo.FindIndexOf(headers, func(h string) bool {
		return strings.Contains(h, "Volume")
	})

	if !okPrice || !okVolume {
		return Columns{}, errors.Newf(errors.ErrCodeSchemaMismatch,
			"expected columns 'Close' or 'Adj Close', and 'Volume' not found in %v", headers)
	}

	_, timeCol, okTime := lo.FindIndexOf(headers, func(h string) bool {
		lower := strings.ToLower(h)

		return strings.Contains(lower, "date") || strings.Contains(lower, "time")
	})
	if !okTime {
		timeCol = 0
	}

	return Columns{Time: timeCol, Price: price, Volume: volume}, nil
}

// CountHeaderRows counts the leading rows whose price cell is not numeric.
func CountHeaderRows(records [][]string) int {
	for i, record := range records {
		if len(record) < 2 {
			continue
		}

		numeric := lo.SomeBy(record[1:], func(cell string) bool {
			_, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)

			return err == nil
		})
		if numeric {
			return i
		}
	}

	return len(records)
}

// ParseTable converts a table with the given header levels into bars. The price
// column is stored as the bar close.
func ParseTable(header [][]string, rows [][]string) ([]writer.Bar, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "table is empty, check the timeframe or ticker symbol")
	}

	cols, err := DetectColumns(JoinHeaders(header))
	if err != nil {
		return nil, err
	}

	bars := make([]writer.Bar, 0, len(rows))

	for i, row := range rows {
		need := max(cols.Time, cols.Price, cols.Volume)
		if len(row) <= need {
			return nil, errors.Newf(errors.ErrCodeSchemaMismatch, "row %d has %d columns, expected at least %d", i, len(row), need+1)
		}

		at, err := ParseTime(row[cols.Time])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "row %d", i)
		}

		price, err := strconv.ParseFloat(strings.TrimSpace(row[cols.Price]), 64)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "row %d: invalid price %q", i, row[cols.Price])
		}

		volume, err := parseVolume(row[cols.Volume])
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "row %d: invalid volume %q", i, row[cols.Volume])
		}

		bars = append(bars, writer.Bar{Time: at, Close: price, Volume: volume})
	}

	return bars, nil
}

// ParseTime accepts the timestamp formats common in CSV exports.
func ParseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errors.Newf(errors.ErrCodeMarketDataParseFailed, "unrecognized timestamp %q", value)
}

func parseVolume(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	return strconv.ParseFloat(value, 64)
}
