package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pocketdrop/internal/archive"
	"pocketdrop/internal/fsutil"
	"pocketdrop/internal/models"
)

// DownloadFile streams one file from the download root as an attachment.
// Traversal attempts, missing files, and directories all answer 404.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	h.metrics.ActiveTransfers.Inc()
	defer h.metrics.ActiveTransfers.Dec()

	rel := mux.Vars(r)["path"]

	abs, err := fsutil.ResolveWithin(h.downloadRoot, rel)
	if err != nil {
		h.logger.Warn("download path rejected", zap.String("path", rel), zap.Error(err))
		h.metrics.DownloadsTotal.WithLabelValues("file", "failed").Inc()
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		h.metrics.DownloadsTotal.WithLabelValues("file", "failed").Inc()
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	f, err := os.Open(abs)
	if err != nil {
		h.recorder.Logf("✗ Download error: %v", err)
		h.metrics.DownloadsTotal.WithLabelValues("file", "failed").Inc()
		http.Error(w, fmt.Sprintf("Download failed: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	name := fsutil.BaseName(rel)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	bc := &models.ByteCounter{Writer: w}
	if _, err := io.Copy(bc, f); err != nil {
		// Headers are already out; all that is left is accounting.
		if r.Context().Err() != nil {
			h.metrics.ClientDisconnectsTotal.Inc()
		}
		h.logger.Warn("download aborted", zap.String("path", rel), zap.Error(err))
		h.metrics.DownloadsTotal.WithLabelValues("file", "failed").Inc()
		return
	}

	h.metrics.DownloadBytesHist.Observe(float64(bc.Count))
	h.metrics.DownloadsTotal.WithLabelValues("file", "completed").Inc()
	h.recorder.Logf("✓ Downloaded: %s", name)
	h.recordHistory(r, "file", rel, name, bc.Count, "completed")
}

// DownloadFolder bundles one folder into a ZIP named after it.
func (h *Handler) DownloadFolder(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	abs, err := fsutil.ResolveWithin(h.downloadRoot, rel)
	if err != nil {
		h.logger.Warn("folder download path rejected", zap.String("path", rel), zap.Error(err))
		h.metrics.DownloadsTotal.WithLabelValues("folder", "failed").Inc()
		http.Error(w, "Folder not found", http.StatusNotFound)
		return
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		h.metrics.DownloadsTotal.WithLabelValues("folder", "failed").Inc()
		http.Error(w, "Folder not found", http.StatusNotFound)
		return
	}

	result, err := h.builder.BuildSelection(r.Context(), []string{rel})
	if err != nil {
		h.archiveBuildFailed(w, r, "folder", rel, err)
		return
	}

	h.serveArchive(w, r, result, fsutil.BaseName(rel)+".zip", "folder", rel)
}

// DownloadSelected bundles a comma-separated selection of files and
// folders into a timestamped ZIP. An empty items parameter is a 400;
// selection members that no longer exist are skipped by the builder.
func (h *Handler) DownloadSelected(w http.ResponseWriter, r *http.Request) {
	items := splitSelection(r.URL.Query().Get("items"))
	if len(items) == 0 {
		h.metrics.DownloadsTotal.WithLabelValues("selection", "failed").Inc()
		http.Error(w, "No items selected", http.StatusBadRequest)
		return
	}

	result, err := h.builder.BuildSelection(r.Context(), items)
	if err != nil {
		h.archiveBuildFailed(w, r, "selection", strings.Join(items, ","), err)
		return
	}

	name := "download_" + time.Now().Format("20060102_150405") + ".zip"
	h.serveArchive(w, r, result, name, "selection", strings.Join(items, ","))
}

// serveArchive writes a finished archive buffer as an attachment and
// records the outcome. Skipped selection members downgrade the status to
// partial but never the response code.
func (h *Handler) serveArchive(w http.ResponseWriter, r *http.Request, result *archive.Result, filename, kind, path string) {
	size := int64(result.Buffer.Len())

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))

	if _, err := result.Buffer.WriteTo(w); err != nil {
		if r.Context().Err() != nil {
			h.metrics.ClientDisconnectsTotal.Inc()
		}
		h.logger.Warn("archive write aborted", zap.String("name", filename), zap.Error(err))
		h.metrics.DownloadsTotal.WithLabelValues(kind, "failed").Inc()
		return
	}

	status := "completed"
	if result.Skipped > 0 {
		status = "partial"
	}

	h.metrics.DownloadBytesHist.Observe(float64(size))
	h.metrics.DownloadsTotal.WithLabelValues(kind, status).Inc()
	h.recorder.Logf("✓ Downloaded: %s (%d entries)", filename, result.Entries)
	h.recordHistory(r, kind, path, filename, size, status)
}

func (h *Handler) archiveBuildFailed(w http.ResponseWriter, r *http.Request, kind, path string, err error) {
	if r.Context().Err() != nil {
		h.metrics.ClientDisconnectsTotal.Inc()
	}
	h.logger.Error("archive build failed", zap.String("kind", kind), zap.String("path", path), zap.Error(err))
	h.recorder.Logf("✗ Download error: %v", err)
	h.metrics.DownloadsTotal.WithLabelValues(kind, "failed").Inc()
	http.Error(w, fmt.Sprintf("Download failed: %v", err), http.StatusInternalServerError)
}

// splitSelection parses the items query parameter. Entries are trimmed
// and empties dropped, so "a,,b" and "a, b" both yield two items.
func splitSelection(raw string) []string {
	if raw == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
