package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/platescan/internal/plate"
	"github.com/ayusman/platescan/internal/store"
)

// DefaultMaxDistance is the tolerance of entries created without one.
const DefaultMaxDistance = 1

// WatchlistHandler serves /api/watchlist. onChange runs after every
// successful create or delete so the pipeline can reload its matcher.
type WatchlistHandler struct {
	store           *store.Store
	onChange        func()
	defaultDistance int
}

func NewWatchlistHandler(s *store.Store, defaultDistance int, onChange func()) *WatchlistHandler {
	if defaultDistance <= 0 {
		defaultDistance = DefaultMaxDistance
	}
	return &WatchlistHandler{
		store:           s,
		onChange:        onChange,
		defaultDistance: defaultDistance,
	}
}

func (h *WatchlistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/watchlist")
	path = strings.Trim(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, path)
	case http.MethodDelete:
		h.delete(w, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createWatchlistRequest struct {
	Plate string `json:"plate"`
	Label string `json:"label"`
	// MaxDistance is a pointer so an explicit 0 (exact match) differs from
	// an omitted value.
	MaxDistance *int `json:"max_distance"`
}

type watchlistResponse struct {
	ID          string `json:"id"`
	Plate       string `json:"plate"`
	Label       string `json:"label"`
	MaxDistance int    `json:"max_distance"`
	CreatedAt   string `json:"created_at"`
}

type listWatchlistResponse struct {
	Entries []watchlistResponse `json:"entries"`
}

func toWatchlistResponse(e *store.WatchlistEntry) watchlistResponse {
	return watchlistResponse{
		ID:          e.ID,
		Plate:       e.Plate,
		Label:       e.Label,
		MaxDistance: e.MaxDistance,
		CreatedAt:   formatTime(e.CreatedAt),
	}
}

func (h *WatchlistHandler) list(w http.ResponseWriter) {
	entries, err := h.store.Watchlist().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list watchlist")
		return
	}

	response := listWatchlistResponse{
		Entries: make([]watchlistResponse, 0, len(entries)),
	}
	for _, e := range entries {
		response.Entries = append(response.Entries, toWatchlistResponse(e))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *WatchlistHandler) get(w http.ResponseWriter, id string) {
	e, err := h.store.Watchlist().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Watchlist entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get watchlist entry")
		return
	}

	writeJSON(w, http.StatusOK, toWatchlistResponse(e))
}

func (h *WatchlistHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createWatchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	normalized := plate.Normalize(req.Plate)
	if normalized == "" {
		writeError(w, http.StatusBadRequest, "Plate is required")
		return
	}

	distance := h.defaultDistance
	if req.MaxDistance != nil {
		if *req.MaxDistance < 0 {
			writeError(w, http.StatusBadRequest, "max_distance must not be negative")
			return
		}
		distance = *req.MaxDistance
	}

	entry := &store.WatchlistEntry{
		ID:          uuid.New().String(),
		Plate:       normalized,
		Label:       strings.TrimSpace(req.Label),
		MaxDistance: distance,
	}

	if err := h.store.Watchlist().Create(entry); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "Plate already on watchlist")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create watchlist entry")
		return
	}

	h.changed()
	writeJSON(w, http.StatusCreated, toWatchlistResponse(entry))
}

func (h *WatchlistHandler) delete(w http.ResponseWriter, id string) {
	if err := h.store.Watchlist().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Watchlist entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete watchlist entry")
		return
	}

	h.changed()
	w.WriteHeader(http.StatusNoContent)
}

func (h *WatchlistHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}
