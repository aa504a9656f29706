package api

import (
	"net/http"
	"strings"

	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/style"
)

// StylesHandler serves the style catalogue.
type StylesHandler struct {
	registry *style.Registry
}

// NewStylesHandler creates a new StylesHandler over registry.
func NewStylesHandler(registry *style.Registry) *StylesHandler {
	return &StylesHandler{registry: registry}
}

type styleSummary struct {
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Variants []string `json:"variants,omitempty"`
}

type listStylesResponse struct {
	Categories []string            `json:"categories"`
	Styles     map[string][]string `json:"styles"`
	All        []styleSummary      `json:"all"`
}

type styleResponse struct {
	Name       string       `json:"name"`
	Category   string       `json:"category"`
	Variants   []string     `json:"variants,omitempty"`
	Variant    string       `json:"variant"`
	Parameters []param.Spec `json:"parameters"`
	Defaults   param.Values `json:"defaults"`
}

// ServeHTTP routes /api/styles and /api/styles/{name}.
func (h *StylesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/styles")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		h.list(w)
		return
	}
	h.get(w, name, r.URL.Query().Get("variant"))
}

func (h *StylesHandler) list(w http.ResponseWriter) {
	resp := listStylesResponse{
		Categories: h.registry.CategoryNames(),
		Styles:     h.registry.Categories(),
	}
	for _, name := range h.registry.Names() {
		inst := h.registry.Get(name)
		if inst == nil {
			continue
		}
		resp.All = append(resp.All, styleSummary{
			Name:     name,
			Category: inst.Category(),
			Variants: inst.Variants(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// get describes one style. The variant query selects whose schema is
// returned without changing the style's current variant.
func (h *StylesHandler) get(w http.ResponseWriter, name, variant string) {
	inst := h.registry.Get(name)
	if inst == nil {
		writeError(w, http.StatusNotFound, "Style not found")
		return
	}

	specs, err := inst.VariantParameters(variant)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if variant == "" {
		variant = inst.Variant()
	}

	writeJSON(w, http.StatusOK, styleResponse{
		Name:       inst.Name(),
		Category:   inst.Category(),
		Variants:   inst.Variants(),
		Variant:    variant,
		Parameters: specs,
		Defaults:   param.Defaults(specs),
	})
}
