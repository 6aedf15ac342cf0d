package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
)

// CSVClient reads bars from <dir>/<TICKER>.csv exports. Files may carry several
// header rows; the interval is whatever the export was taken at.
type CSVClient struct {
	dir    string
	writer writer.BarWriter
}

func NewCSVClient(dir string) (Provider, error) {
	if dir == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "csv directory is required")
	}

	return &CSVClient{dir: dir}, nil
}

func (c *CSVClient) ConfigWriter(w writer.BarWriter) {
	c.writer = w
}

// Download writes the rows of the ticker's file that fall within [startDate, endDate].
func (c *CSVClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, _ int, _ models.Timespan, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeMarketDataFetchFailed, "writer is not configured")
	}

	file := filepath.Join(c.dir, ticker+".csv")

	records, err := readCSV(file)
	if err != nil {
		return "", err
	}

	headerRows := CountHeaderRows(records)

	bars, err := ParseTable(records[:headerRows], records[headerRows:])
	if err != nil {
		return "", err
	}

	if err = c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	for i, bar := range bars {
		if ctx.Err() != nil {
			return "", finalizeAfterError(c.writer, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "download cancelled", ctx.Err()))
		}

		if bar.Time.Before(startDate) || (!endDate.IsZero() && bar.Time.After(endDate)) {
			continue
		}

		if err := c.writer.Write(bar); err != nil {
			return "", finalizeAfterError(c.writer, errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write data", err))
		}

		reportProgress(onProgress, float64(i+1), float64(len(bars)), fmt.Sprintf("Reading %s", file))
	}

	outputPath, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to read %s", path)
	}

	if len(records) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "%s is empty", path)
	}

	return records, nil
}
