// Package archive bundles selections of files and folders from the
// download root into ZIP archives.
package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"pocketdrop/internal/fsutil"
	"pocketdrop/internal/metrics"
)

// Builder turns selections of root-relative paths into ZIP archives.
// Every archive is assembled fully in memory before a byte reaches
// the client, so the response can carry an exact Content-Length. The
// semaphore caps how many archives are in flight at once; memory use
// scales with that cap times the selection size.
type Builder struct {
	root    string
	logger  *zap.Logger
	metrics *metrics.Metrics
	sem     *semaphore.Weighted
}

// Result is one finished archive.
type Result struct {
	Buffer   *bytes.Buffer
	Entries  int   // files written into the archive
	Skipped  int   // selection items or walked files that were dropped
	RawBytes int64 // uncompressed input size
}

// NewBuilder creates a builder over the download root allowing at
// most maxConcurrent simultaneous builds.
func NewBuilder(root string, logger *zap.Logger, m *metrics.Metrics, maxConcurrent int64) *Builder {
	return &Builder{
		root:    filepath.Clean(root),
		logger:  logger,
		metrics: m,
		sem:     semaphore.NewWeighted(maxConcurrent),
	}
}

// BuildSelection bundles the given paths, in order, into one ZIP.
// Single files land at the archive root under their base name;
// folders are walked recursively with entries prefixed by the
// folder's own name. Items that do not resolve or no longer exist are
// skipped without failing the build.
func (b *Builder) BuildSelection(ctx context.Context, items []string) (*Result, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)

	b.metrics.ActiveArchives.Inc()
	defer b.metrics.ActiveArchives.Dec()

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	result := &Result{Buffer: buf}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs, err := fsutil.ResolveWithin(b.root, item)
		if err != nil {
			result.Skipped++
			b.logger.Warn("skipping unresolvable selection item", zap.String("item", item))
			continue
		}

		info, err := os.Stat(abs)
		if err != nil {
			result.Skipped++
			b.logger.Warn("skipping vanished selection item", zap.String("item", item))
			continue
		}

		if info.IsDir() {
			if err := b.addFolder(ctx, zw, abs, filepath.Base(abs), result); err != nil {
				return nil, err
			}
			continue
		}

		if err := b.addFile(zw, abs, fsutil.BaseName(item), result); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	b.metrics.ArchiveEntriesHist.Observe(float64(result.Entries))
	b.metrics.ArchiveBytesHist.Observe(float64(buf.Len()))
	if result.RawBytes > 0 {
		b.metrics.CompressionRatio.Observe(float64(buf.Len()) / float64(result.RawBytes))
	}

	return result, nil
}

// addFolder walks absDir and writes every contained file under
// prefix, preserving the subtree structure.
func (b *Builder) addFolder(ctx context.Context, zw *zip.Writer, absDir, prefix string, result *Result) error {
	return filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Skipped++
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		relInside, err := filepath.Rel(absDir, p)
		if err != nil {
			result.Skipped++
			return nil
		}

		return b.addFile(zw, p, prefix+"/"+filepath.ToSlash(relInside), result)
	})
}

// addFile writes one file into the archive under arcName. A file that
// cannot be opened is skipped; a failure mid-copy aborts the build
// because the archive is already tainted.
func (b *Builder) addFile(zw *zip.Writer, abs, arcName string, result *Result) error {
	f, err := os.Open(abs)
	if err != nil {
		result.Skipped++
		b.logger.Warn("skipping unreadable file", zap.String("path", abs), zap.Error(err))
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		result.Skipped++
		return nil
	}

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     arcName,
		Method:   zip.Deflate,
		Modified: info.ModTime(),
	})
	if err != nil {
		return err
	}

	n, err := io.Copy(w, f)
	if err != nil {
		return err
	}

	result.Entries++
	result.RawBytes += n
	return nil
}
