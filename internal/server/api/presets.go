package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/preset"
)

// PresetsHandler lists and applies presets.
type PresetsHandler struct {
	app *app.App
}

// NewPresetsHandler creates a new PresetsHandler for a.
func NewPresetsHandler(a *app.App) *PresetsHandler {
	return &PresetsHandler{app: a}
}

type presetResponse struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Style       string         `json:"style"`
	Variant     string         `json:"variant,omitempty"`
	Params      map[string]any `json:"params,omitempty"`
}

type listPresetsResponse struct {
	Presets []presetResponse `json:"presets"`
}

type applyPresetRequest struct {
	Device string `json:"device"`
}

// ServeHTTP routes GET /api/presets and POST /api/presets/{name}.
func (h *PresetsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/presets")
	name = strings.TrimPrefix(name, "/")

	if name == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.apply(w, r, name)
}

func (h *PresetsHandler) list(w http.ResponseWriter) {
	resp := listPresetsResponse{Presets: []presetResponse{}}
	if m := h.app.Presets(); m != nil {
		for _, p := range m.List() {
			resp.Presets = append(resp.Presets, toPresetResponse(p))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// apply starts the pipeline with the preset, or restyles it when running.
func (h *PresetsHandler) apply(w http.ResponseWriter, r *http.Request, name string) {
	var req applyPresetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Device == "" && !h.app.IsRunning() {
		if sel, err := h.app.Restore(); err == nil {
			req.Device = sel.Device
		}
		if req.Device == "" {
			writeError(w, http.StatusBadRequest, "Device is required")
			return
		}
	}

	if err := h.app.ApplyPreset(name, req.Device); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

func toPresetResponse(p *preset.Preset) presetResponse {
	return presetResponse{
		Name:        p.Manifest.Name,
		Description: p.Manifest.Description,
		Style:       p.Manifest.Style,
		Variant:     p.Manifest.Variant,
		Params:      p.Manifest.Params,
	}
}
