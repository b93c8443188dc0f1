package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"pocketdrop/internal/upload"
)

// Upload ingests a multipart body and persists every file part it can
// recognize. The declared Content-Length is checked against the cap
// before a single body byte is read. Parts are saved immediately and
// independently; one bad part never fails the others, so the response is
// 200 whenever the body itself could be parsed.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	h.metrics.ActiveTransfers.Inc()
	defer h.metrics.ActiveTransfers.Dec()

	if r.ContentLength > h.maxUploadBytes {
		h.recorder.Logf("✗ Upload error: declared size %d exceeds limit", r.ContentLength)
		h.metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		http.Error(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
		return
	}

	boundary, err := upload.Boundary(r.Header.Get("Content-Type"))
	if err != nil {
		h.recorder.Logf("✗ Upload error: %v", err)
		h.metrics.UploadsTotal.WithLabelValues("failed").Inc()
		http.Error(w, fmt.Sprintf("Upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	// MaxBytesReader backstops chunked bodies that never declared a length.
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.recorder.Logf("✗ Upload error: body exceeds limit")
			h.metrics.UploadsTotal.WithLabelValues("rejected").Inc()
			http.Error(w, h.tooLargeMessage(), http.StatusRequestEntityTooLarge)
			return
		}
		h.recorder.Logf("✗ Upload error: %v", err)
		h.metrics.UploadsTotal.WithLabelValues("failed").Inc()
		http.Error(w, fmt.Sprintf("Upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	parts, dropped := upload.ScanParts(body, boundary)
	if dropped > 0 {
		h.metrics.SkippedPartsTotal.Add(float64(dropped))
		h.logger.Warn("malformed multipart parts dropped", zap.Int("dropped", dropped))
	}

	saved, failed := 0, 0
	for _, part := range parts {
		if !part.IsFile() {
			continue
		}

		sf, err := h.saver.Save(part)
		if err != nil {
			failed++
			h.logger.Error("upload part write failed", zap.String("filename", part.Filename), zap.Error(err))
			h.recorder.Logf("✗ Upload error: %v", err)
			continue
		}

		saved++
		h.metrics.UploadedFilesTotal.Inc()
		h.metrics.UploadBytesHist.Observe(float64(sf.Size))
		h.recorder.Logf("✓ Uploaded: %s (%d bytes)", sf.StoredName, sf.Size)
		h.recordHistory(r, "upload", sf.StoredName, sf.OriginalName, sf.Size, "completed")
		h.mirrorUpload(sf.StoredName, part.Data)
	}

	status := "completed"
	switch {
	case saved == 0 && failed > 0:
		status = "failed"
	case failed > 0 || dropped > 0:
		status = "partial"
	}
	h.metrics.UploadsTotal.WithLabelValues(status).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large (max %dMB)", h.maxUploadBytes/1_000_000)
}
