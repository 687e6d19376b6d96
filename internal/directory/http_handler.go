package directory

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Handler exposes the store directory upload endpoint.
type Handler struct {
	loader *Loader
}

// NewHTTPHandler wraps the loader for mounting on a router.
func NewHTTPHandler(loader *Loader) *Handler {
	return &Handler{loader: loader}
}

// HandleUpload replaces the directory from a CSV posted as multipart form
// data under "file".
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	loaded, err := h.loader.Load(r.Context(), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"loaded": loaded})
}
