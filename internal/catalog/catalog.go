// Package catalog lists the children of a directory under the
// download root as typed entries with sizes.
package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"pocketdrop/internal/fsutil"
	"pocketdrop/internal/metrics"
	"pocketdrop/internal/models"
)

// Catalog produces directory listings rooted at the download
// directory. Listings are computed fresh on every call; nothing is
// cached.
type Catalog struct {
	root    string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Listing is the result of one List call.
type Listing struct {
	Items       []models.Entry
	CurrentPath string // root-relative path actually listed; "" is the root
}

// New creates a catalog over the given root directory.
func New(root string, logger *zap.Logger, m *metrics.Metrics) *Catalog {
	return &Catalog{
		root:    filepath.Clean(root),
		logger:  logger,
		metrics: m,
	}
}

// List returns the immediate children of the directory at rel. A path
// that cannot be resolved, does not exist, or is not a directory
// falls back to the root instead of failing the listing.
func (c *Catalog) List(rel string) (*Listing, error) {
	cleaned := fsutil.CleanRelPath(rel)

	abs, err := fsutil.ResolveWithin(c.root, rel)
	if err != nil {
		c.fallback(rel, "unresolvable path")
		cleaned, abs = "", c.root
	} else if info, statErr := os.Stat(abs); statErr != nil || !info.IsDir() {
		c.fallback(rel, "not a listable directory")
		cleaned, abs = "", c.root
	}

	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}

	items := make([]models.Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()

		entryPath := name
		if cleaned != "" {
			entryPath = cleaned + "/" + name
		}

		if de.IsDir() {
			items = append(items, models.Entry{
				Name: name,
				Path: entryPath,
				Size: dirSize(filepath.Join(abs, name)),
				Type: models.EntryTypeFolder,
			})
			continue
		}

		info, err := de.Info()
		if err != nil {
			// The entry vanished between ReadDir and Info.
			continue
		}
		items = append(items, models.Entry{
			Name: name,
			Path: entryPath,
			Size: info.Size(),
			Type: models.EntryTypeFile,
		})
	}

	sortEntries(items)

	return &Listing{Items: items, CurrentPath: cleaned}, nil
}

func (c *Catalog) fallback(rel, reason string) {
	c.metrics.CatalogFallbacksTotal.Inc()
	c.logger.Warn("catalog falling back to root",
		zap.String("path", rel),
		zap.String("reason", reason))
}

// dirSize sums the sizes of every regular file beneath dir. Entries
// that cannot be read count as zero.
func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}

// sortEntries orders folders before files, then case-insensitively by
// name. Exact name breaks ties so the order is stable across runs.
func sortEntries(items []models.Entry) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Type != items[j].Type {
			return items[i].Type == models.EntryTypeFolder
		}
		ni, nj := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if ni != nj {
			return ni < nj
		}
		return items[i].Name < items[j].Name
	})
}
