package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ayusman/platescan/internal/plate"
	"github.com/ayusman/platescan/internal/store"
)

// MaxListLimit caps the limit query parameter.
const MaxListLimit = 1000

// DetectionHandler serves /api/detections.
type DetectionHandler struct {
	store *store.Store
	now   func() time.Time
}

func NewDetectionHandler(s *store.Store) *DetectionHandler {
	return &DetectionHandler{store: s, now: time.Now}
}

// ServeHTTP routes
//
//	GET    /api/detections
//	GET    /api/detections/{id}
//	DELETE /api/detections/{id}
//	GET    /api/detections/{id}/snapshot
func (h *DetectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/detections")
	path = strings.Trim(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, sub, _ := strings.Cut(path, "/")
	switch {
	case sub == "snapshot" && r.Method == http.MethodGet:
		h.snapshot(w, id)
	case sub != "":
		writeError(w, http.StatusNotFound, "Not found")
	case r.Method == http.MethodGet:
		h.get(w, id)
	case r.Method == http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type boxResponse struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type detectionResponse struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	Normalized  string      `json:"normalized"`
	Box         boxResponse `json:"box"`
	Watchlisted bool        `json:"watchlisted"`
	HasSnapshot bool        `json:"has_snapshot"`
	DetectedAt  string      `json:"detected_at"`
	DetectedAgo string      `json:"detected_ago"`
}

type listDetectionsResponse struct {
	Detections []detectionResponse `json:"detections"`
	// Total counts every detection matching the plate filter, ignoring limit.
	Total int `json:"total"`
}

func (h *DetectionHandler) toResponse(d *store.Detection) detectionResponse {
	return detectionResponse{
		ID:         d.ID,
		Text:       d.Text,
		Normalized: d.Normalized,
		Box: boxResponse{
			X:      d.X,
			Y:      d.Y,
			Width:  d.Width,
			Height: d.Height,
		},
		Watchlisted: d.Watchlisted,
		HasSnapshot: d.HasSnapshot,
		DetectedAt:  formatTime(d.DetectedAt),
		DetectedAgo: humanize.RelTime(d.DetectedAt, h.now(), "ago", "from now"),
	}
}

func (h *DetectionHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := store.DetectionFilter{
		Plate: plate.Normalize(r.URL.Query().Get("plate")),
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		filter.Limit = limit
	}

	detections, err := h.store.Detections().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list detections")
		return
	}

	total, err := h.store.Detections().CountMatching(filter.Plate)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count detections")
		return
	}

	response := listDetectionsResponse{
		Detections: make([]detectionResponse, 0, len(detections)),
		Total:      total,
	}
	for _, d := range detections {
		response.Detections = append(response.Detections, h.toResponse(d))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *DetectionHandler) get(w http.ResponseWriter, id string) {
	d, err := h.store.Detections().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Detection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get detection")
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(d))
}

func (h *DetectionHandler) snapshot(w http.ResponseWriter, id string) {
	data, err := h.store.Detections().Snapshot(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load snapshot")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (h *DetectionHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Detections().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Detection not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete detection")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
