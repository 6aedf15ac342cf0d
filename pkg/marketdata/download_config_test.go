package marketdata

import (
	"testing"
	"time"

	apperrors "github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func validDownloadConfig() DownloadConfig {
	return DownloadConfig{
		Provider:  provider.ProviderPolygon,
		Symbols:   []string{"SPY"},
		StartDate: "2024-01-01",
		EndDate:   "2024-12-31T23:59:59Z",
		Interval:  "1d",
		ApiKey:    "test-api-key",
		DataPath:  "data",
	}
}

func (suite *DownloadConfigTestSuite) TestValidate() {
	tests := []struct {
		name   string
		mutate func(c *DownloadConfig)
		field  string
	}{
		{"valid", func(*DownloadConfig) {}, ""},
		{"missing symbols", func(c *DownloadConfig) { c.Symbols = nil }, "Symbols"},
		{"empty symbol", func(c *DownloadConfig) { c.Symbols = []string{""} }, "Symbols"},
		{"missing api key", func(c *DownloadConfig) { c.ApiKey = "" }, "ApiKey"},
		{"csv without dir", func(c *DownloadConfig) { c.Provider = provider.ProviderCSV }, "CSVDir"},
		{"invalid interval", func(c *DownloadConfig) { c.Interval = "invalid" }, "Interval"},
		{"unknown provider", func(c *DownloadConfig) { c.Provider = "yahoo" }, "Provider"},
		{"bad start", func(c *DownloadConfig) { c.StartDate = "01/01/2024" }, "invalid date"},
		{"end before start", func(c *DownloadConfig) { c.EndDate = "2023-12-31" }, "must be after"},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := validDownloadConfig()
			tc.mutate(&config)

			err := config.Validate()
			if tc.field == "" {
				suite.NoError(err)

				return
			}

			suite.Error(err)
			suite.Contains(err.Error(), tc.field)
		})
	}
}

func (suite *DownloadConfigTestSuite) TestBinanceNeedsNoKey() {
	config := validDownloadConfig()
	config.Provider = provider.ProviderBinance
	config.ApiKey = ""

	suite.NoError(config.Validate())
}

func (suite *DownloadConfigTestSuite) TestConversions() {
	config := validDownloadConfig()
	config.Venue = "XNAS"

	params, err := config.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate)
	suite.Equal(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC), params.EndDate)
	suite.Equal(TimespanOneDay, params.Interval)
	suite.Equal("SPY.XNAS", params.Instruments()[0].String())

	client := config.ToClientConfig()
	suite.Equal(provider.ProviderPolygon, client.ProviderType)
	suite.Equal("test-api-key", client.PolygonApiKey)
	suite.Equal("data", client.DataPath)
}

func (suite *DownloadConfigTestSuite) TestParseDownloadConfig() {
	config, err := ParseDownloadConfig([]byte(`
provider: binance
symbols: [BTCUSDT, ETHUSDT]
start: 2024-01-01
end: 2024-02-01
interval: 1h
data_path: ./data
`))
	suite.Require().NoError(err)
	suite.Equal(provider.ProviderBinance, config.Provider)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, config.Symbols)
	suite.Equal("2024-01-01", config.StartDate)

	// JSON is valid YAML
	config, err = ParseDownloadConfig([]byte(`{"provider":"csv","symbols":["AAPL"],"start":"2024-01-01","end":"2024-02-01","interval":"1d","csv_dir":"exports","data_path":"data"}`))
	suite.Require().NoError(err)
	suite.Equal("exports", config.CSVDir)

	_, err = ParseDownloadConfig([]byte("provider: [oops"))
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidConfiguration))

	_, err = ParseDownloadConfig([]byte("provider: polygon\n"))
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeInvalidConfiguration))
}
