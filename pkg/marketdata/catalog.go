package marketdata

import (
	"crypto/sha1" //nolint:gosec // content key, not a security boundary
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// ManifestFile marks a complete catalog directory.
const ManifestFile = "manifest.yaml"

const keyLength = 12

// CatalogKey names the catalog directory of a download: the first twelve hex
// digits of the SHA-1 of the concatenated symbols, dates and interval.
func CatalogKey(symbols []string, start, end time.Time, interval Timespan) string {
	raw := strings.Join(symbols, "") + start.Format(time.DateOnly) + end.Format(time.DateOnly) + string(interval)
	sum := sha1.Sum([]byte(raw)) //nolint:gosec

	return hex.EncodeToString(sum[:])[:keyLength]
}

// ManifestEntry describes the tick file of one instrument.
type ManifestEntry struct {
	Instrument types.Instrument `yaml:"instrument"`
	File       string           `yaml:"file"`
	Rows       int64            `yaml:"rows"`
	ZeroVolume int              `yaml:"zero_volume,omitempty"`
}

// Manifest records what a catalog directory holds.
type Manifest struct {
	Key         string                `yaml:"key"`
	Provider    provider.ProviderType `yaml:"provider"`
	Interval    Timespan              `yaml:"interval"`
	Start       time.Time             `yaml:"start"`
	End         time.Time             `yaml:"end"`
	CreatedAt   time.Time             `yaml:"created_at"`
	Instruments []ManifestEntry       `yaml:"instruments"`
}

// TotalRows sums the rows of every instrument.
func (m Manifest) TotalRows() int64 {
	return lo.SumBy(m.Instruments, func(e ManifestEntry) int64 { return e.Rows })
}

// Files returns the tick files of the manifest, resolved against dir.
func (m Manifest) Files(dir string) []string {
	return lo.Map(m.Instruments, func(e ManifestEntry, _ int) string {
		return filepath.Join(dir, e.File)
	})
}

// Entry looks up the file of an instrument.
func (m Manifest) Entry(instrument types.Instrument) optional.Option[ManifestEntry] {
	entry, ok := lo.Find(m.Instruments, func(e ManifestEntry) bool { return e.Instrument == instrument })
	if !ok {
		return optional.None[ManifestEntry]()
	}

	return optional.Some(entry)
}

// TickFileName is the parquet file an instrument's ticks are stored in.
func TickFileName(instrument types.Instrument) string {
	return instrument.Symbol + ".parquet"
}

// Catalog is a directory of downloads keyed by CatalogKey.
type Catalog struct {
	root string
}

func NewCatalog(root string) (*Catalog, error) {
	if root == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "catalog root is required")
	}

	return &Catalog{root: root}, nil
}

func (c *Catalog) Root() string {
	return c.root
}

// Dir is the directory of a catalog key.
func (c *Catalog) Dir(key string) string {
	return filepath.Join(c.root, key)
}

// Lookup returns the manifest of key when the directory holds a complete download.
func (c *Catalog) Lookup(key string) (optional.Option[Manifest], error) {
	dir := c.Dir(key)

	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
		if os.IsNotExist(err) {
			return optional.None[Manifest](), nil
		}

		return optional.None[Manifest](), errors.Wrapf(errors.ErrCodeCatalogReadFailed, err, "failed to stat catalog %s", dir)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return optional.None[Manifest](), err
	}

	return optional.Some(manifest), nil
}

// Prepare creates the directory of key.
func (c *Catalog) Prepare(key string) (string, error) {
	dir := c.Dir(key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeCatalogWriteFailed, err, "failed to create catalog %s", dir)
	}

	return dir, nil
}

// ReadManifest loads the manifest of a catalog directory.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return Manifest{}, errors.Wrapf(errors.ErrCodeCatalogReadFailed, err, "failed to read manifest in %s", dir)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, errors.Wrapf(errors.ErrCodeCatalogReadFailed, err, "failed to parse manifest in %s", dir)
	}

	if len(manifest.Instruments) == 0 {
		return Manifest{}, errors.Newf(errors.ErrCodeNoDataFound, "manifest in %s lists no instruments", dir)
	}

	return manifest, nil
}

// WriteManifest stores m in dir. It is written last so its presence means the
// download completed.
func WriteManifest(dir string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrap(errors.ErrCodeCatalogWriteFailed, "failed to encode manifest", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return errors.Wrapf(errors.ErrCodeCatalogWriteFailed, err, "failed to write manifest in %s", dir)
	}

	return nil
}
