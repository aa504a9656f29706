package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/store"
)

// SnapshotsHandler captures and serves stored frames.
type SnapshotsHandler struct {
	app *app.App
}

// NewSnapshotsHandler creates a new SnapshotsHandler for a.
func NewSnapshotsHandler(a *app.App) *SnapshotsHandler {
	return &SnapshotsHandler{app: a}
}

type snapshotResponse struct {
	ID        string         `json:"id"`
	Style     string         `json:"style"`
	Variant   string         `json:"variant"`
	Params    map[string]any `json:"params"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	CreatedAt string         `json:"created_at"`
}

type listSnapshotsResponse struct {
	Snapshots []snapshotResponse `json:"snapshots"`
}

func toSnapshotResponse(s *store.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:        s.ID,
		Style:     s.Style,
		Variant:   s.Variant,
		Params:    s.Params,
		Width:     s.Width,
		Height:    s.Height,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
}

// ServeHTTP routes /api/snapshots and /api/snapshots/{id}.
func (h *SnapshotsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/snapshots")
	id = strings.TrimPrefix(id, "/")

	if id == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w)
		case http.MethodPost:
			h.create(w)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, id)
	case http.MethodDelete:
		h.delete(w, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SnapshotsHandler) list(w http.ResponseWriter) {
	s := h.app.Store()
	if s == nil {
		writeFailure(w, app.ErrNoStore)
		return
	}

	snaps, err := s.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	resp := listSnapshotsResponse{Snapshots: make([]snapshotResponse, 0, len(snaps))}
	for _, snap := range snaps {
		resp.Snapshots = append(resp.Snapshots, toSnapshotResponse(snap))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *SnapshotsHandler) create(w http.ResponseWriter) {
	snap, err := h.app.Snapshot()
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSnapshotResponse(snap))
}

// get serves the stored JPEG.
func (h *SnapshotsHandler) get(w http.ResponseWriter, id string) {
	s := h.app.Store()
	if s == nil {
		writeFailure(w, app.ErrNoStore)
		return
	}

	snap, err := s.Snapshots().GetByID(id)
	if err != nil {
		writeFailure(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(snap.JPEG)
}

func (h *SnapshotsHandler) delete(w http.ResponseWriter, id string) {
	s := h.app.Store()
	if s == nil {
		writeFailure(w, app.ErrNoStore)
		return
	}

	if err := s.Snapshots().Delete(id); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
