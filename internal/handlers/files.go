package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"pocketdrop/internal/fsutil"
	"pocketdrop/internal/models"
)

type filesResponse struct {
	Items       []models.Entry `json:"items"`
	CurrentPath string         `json:"currentPath"`
	ParentPath  *string        `json:"parentPath"`
}

// Files lists the directory named by the path query parameter. Paths that
// cannot be listed fall back to the root inside the catalog, so the only
// failure left here is the root itself being unreadable.
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.List(r.URL.Query().Get("path"))
	if err != nil {
		h.recorder.Logf("✗ Error listing files: %v", err)
		http.Error(w, fmt.Sprintf("Error listing files: %v", err), http.StatusInternalServerError)
		return
	}

	resp := filesResponse{
		Items:       listing.Items,
		CurrentPath: listing.CurrentPath,
	}
	if parent, ok := fsutil.ParentPath(listing.CurrentPath); ok {
		resp.ParentPath = &parent
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(resp)
}
