package marketdata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	apperrors "github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/stretchr/testify/suite"
)

type CatalogTestSuite struct {
	suite.Suite
	catalog *Catalog
	start   time.Time
	end     time.Time
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

func (suite *CatalogTestSuite) SetupTest() {
	catalog, err := NewCatalog(suite.T().TempDir())
	suite.Require().NoError(err)

	suite.catalog = catalog
	suite.start = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)
}

func (suite *CatalogTestSuite) TestCatalogKey() {
	key := CatalogKey([]string{"AAPL", "MSFT"}, suite.start, suite.end, TimespanOneDay)
	suite.Len(key, 12)
	suite.Regexp("^[0-9a-f]{12}$", key)

	suite.Equal(key, CatalogKey([]string{"AAPL", "MSFT"}, suite.start, suite.end, TimespanOneDay))
	suite.NotEqual(key, CatalogKey([]string{"MSFT", "AAPL"}, suite.start, suite.end, TimespanOneDay))
	suite.NotEqual(key, CatalogKey([]string{"AAPL", "MSFT"}, suite.start, suite.end, TimespanOneHour))
	// only the date part of the range takes part in the key
	suite.Equal(key, CatalogKey([]string{"AAPL", "MSFT"}, suite.start.Add(time.Hour), suite.end, TimespanOneDay))
}

func (suite *CatalogTestSuite) TestCatalogKeyKnownValue() {
	// echo -n "SPY2024-01-012024-02-011d" | sha1sum
	key := CatalogKey([]string{"SPY"}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), TimespanOneDay)
	suite.Equal("273ad8eecc7b", key)
}

func (suite *CatalogTestSuite) TestNewCatalogRequiresRoot() {
	_, err := NewCatalog("")
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeMissingParameter))
}

func (suite *CatalogTestSuite) TestLookupMissing() {
	manifest, err := suite.catalog.Lookup("000000000000")
	suite.NoError(err)
	suite.True(manifest.IsNone())
}

func (suite *CatalogTestSuite) TestLookupIgnoresIncompleteDirectory() {
	dir, err := suite.catalog.Prepare("abc")
	suite.Require().NoError(err)
	suite.Require().NoError(os.WriteFile(filepath.Join(dir, "AAPL.parquet"), []byte("partial"), 0o600))

	manifest, err := suite.catalog.Lookup("abc")
	suite.NoError(err)
	suite.True(manifest.IsNone())
}

func (suite *CatalogTestSuite) TestManifestRoundTrip() {
	dir, err := suite.catalog.Prepare("abc")
	suite.Require().NoError(err)

	aapl := types.NewInstrument("AAPL", "SIM")
	manifest := Manifest{
		Key:       "abc",
		Provider:  provider.ProviderCSV,
		Interval:  TimespanOneDay,
		Start:     suite.start,
		End:       suite.end,
		CreatedAt: suite.end,
		Instruments: []ManifestEntry{
			{Instrument: aapl, File: TickFileName(aapl), Rows: 252},
			{Instrument: types.NewInstrument("MSFT", "SIM"), File: "MSFT.parquet", Rows: 251, ZeroVolume: 2},
		},
	}
	suite.Require().NoError(WriteManifest(dir, manifest))

	found, err := suite.catalog.Lookup("abc")
	suite.Require().NoError(err)
	suite.Require().True(found.IsSome())

	loaded := found.Unwrap()
	suite.Equal(manifest.Instruments, loaded.Instruments)
	suite.Equal(TimespanOneDay, loaded.Interval)
	suite.Equal(int64(503), loaded.TotalRows())
	suite.Equal([]string{filepath.Join(dir, "AAPL.parquet"), filepath.Join(dir, "MSFT.parquet")}, loaded.Files(dir))
	suite.True(loaded.Entry(aapl).IsSome())
	suite.True(loaded.Entry(types.NewInstrument("GOOG", "SIM")).IsNone())
}

func (suite *CatalogTestSuite) TestReadManifestErrors() {
	dir, err := suite.catalog.Prepare("bad")
	suite.Require().NoError(err)

	_, err = ReadManifest(dir)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeCatalogReadFailed))

	suite.Require().NoError(os.WriteFile(filepath.Join(dir, ManifestFile), []byte("key: bad\ninstruments: []\n"), 0o600))
	_, err = ReadManifest(dir)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeNoDataFound))

	suite.Require().NoError(os.WriteFile(filepath.Join(dir, ManifestFile), []byte("key: [unclosed"), 0o600))
	_, err = ReadManifest(dir)
	suite.True(apperrors.HasCode(err, apperrors.ErrCodeCatalogReadFailed))
}
