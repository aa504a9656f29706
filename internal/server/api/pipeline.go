package api

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/pipeline"
)

// PipelineHandler controls the capture pipeline.
type PipelineHandler struct {
	app *app.App
	log logrus.FieldLogger
}

// NewPipelineHandler creates a new PipelineHandler for a.
func NewPipelineHandler(a *app.App, logger logrus.FieldLogger) *PipelineHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PipelineHandler{app: a, log: logger.WithField("handler", "pipeline")}
}

type startRequest struct {
	Device  string    `json:"device"`
	Style   string    `json:"style"`
	Variant string    `json:"variant"`
	Params  param.Raw `json:"params"`
}

type styleRequest struct {
	Style   string    `json:"style"`
	Variant string    `json:"variant"`
	Params  param.Raw `json:"params"`
}

type paramsResponse struct {
	Params param.Values `json:"params"`
}

// ServeHTTP routes /api/pipeline and its sub-resources.
func (h *PipelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := strings.TrimPrefix(r.URL.Path, "/api/pipeline")
	sub = strings.TrimPrefix(sub, "/")

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, h.app.Status())
		case http.MethodPost:
			h.start(w, r)
		case http.MethodDelete:
			h.app.Stop()
			writeJSON(w, http.StatusOK, h.app.Status())
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "params":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.updateParams(w, r)
	case "style":
		if r.Method != http.MethodPut {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.selectStyle(w, r)
	case "frame":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.frame(w)
	default:
		http.NotFound(w, r)
	}
}

// start handles POST /api/pipeline. A missing device falls back to the
// last persisted one.
func (h *PipelineHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Device == "" {
		if sel, err := h.app.Restore(); err == nil {
			req.Device = sel.Device
		}
	}
	if req.Device == "" {
		writeError(w, http.StatusBadRequest, "Device is required")
		return
	}

	if err := h.app.Start(req.Device, req.Style, req.Variant, req.Params); err != nil {
		h.log.WithFields(logrus.Fields{
			"device": req.Device,
			"style":  req.Style,
		}).WithError(err).Warn("Start request failed")
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.app.Status())
}

// updateParams handles PUT /api/pipeline/params with a partial parameter map.
func (h *PipelineHandler) updateParams(w http.ResponseWriter, r *http.Request) {
	var raw param.Raw
	if err := decode(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	values, err := h.app.UpdateParameters(raw)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paramsResponse{Params: values})
}

// selectStyle handles PUT /api/pipeline/style.
func (h *PipelineHandler) selectStyle(w http.ResponseWriter, r *http.Request) {
	var req styleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.app.SelectStyle(req.Style, req.Variant, req.Params); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.app.Status())
}

// frame handles GET /api/pipeline/frame with the last processed frame.
func (h *PipelineHandler) frame(w http.ResponseWriter) {
	f := h.app.LastFrame()
	if f == nil {
		writeFailure(w, app.ErrNoFrame)
		return
	}

	jpg, err := f.JPEG(pipeline.DefaultJPEGQuality)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode frame")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(jpg)
}
