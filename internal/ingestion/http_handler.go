package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/pumphouse/salesfeed/internal/merge"
	"github.com/pumphouse/salesfeed/internal/repository"
)

// Handler exposes ingestion over HTTP: a multipart upload endpoint, a thin
// fetch-by-URL variant for reports hosted on the authority's site, and a
// listing of recorded row errors.
type Handler struct {
	service *Service
	logRepo repository.IngestionLogRepository
	client  *http.Client
}

// NewHTTPHandler wraps the service for mounting on a router.
func NewHTTPHandler(service *Service, logRepo repository.IngestionLogRepository) *Handler {
	return &Handler{
		service: service,
		logRepo: logRepo,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// HandleUpload ingests a report posted as multipart form data under "file".
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	h.ingest(w, r, header.Filename, data)
}

type urlRequest struct {
	URL string `json:"url"`
}

// HandleURL fetches a report from a direct link and runs the same pipeline.
func (h *Handler) HandleURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	link := strings.TrimSpace(req.URL)
	if link == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}
	parsed, err := url.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		http.Error(w, "url must be http or https", http.StatusBadRequest)
		return
	}

	fetchReq, err := http.NewRequestWithContext(r.Context(), http.MethodGet, link, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid url: %v", err), http.StatusBadRequest)
		return
	}
	// The authority's site rejects requests without a browser user agent.
	fetchReq.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := h.client.Do(fetchReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		http.Error(w, fmt.Sprintf("fetch failed: status %d", resp.StatusCode), http.StatusBadGateway)
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		http.Error(w, fmt.Sprintf("fetch failed: %v", err), http.StatusBadGateway)
		return
	}

	h.ingest(w, r, path.Base(parsed.Path), data)
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request, fileName string, data []byte) {
	result, err := h.service.Ingest(r.Context(), Request{
		FileName: fileName,
		Data:     bytes.NewReader(data),
	})
	if err != nil {
		var txErr merge.StoreTransactionError
		if errors.As(err, &txErr) {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		if IsStructural(err) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleLogs lists recorded row errors, optionally scoped to one source file.
func (h *Handler) HandleLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	logs, err := h.logRepo.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("file")), limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
