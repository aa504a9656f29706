// Package api provides HTTP API handlers for the stylecam control surface.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/capture"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/pipeline"
	"github.com/ayusman/stylecam/internal/preset"
	"github.com/ayusman/stylecam/internal/store"
	"github.com/ayusman/stylecam/internal/style"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeFailure maps a controller error to a status code.
func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, style.ErrStyleNotFound),
		errors.Is(err, preset.ErrPresetNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, app.ErrNoFrame):
		return http.StatusNotFound
	case errors.Is(err, style.ErrUnknownVariant),
		errors.Is(err, param.ErrParameterOutOfRange),
		errors.Is(err, param.ErrParameterInvalidOption),
		errors.Is(err, param.ErrParameterType):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrAlreadyRunning),
		errors.Is(err, app.ErrNotRunning):
		return http.StatusConflict
	case errors.Is(err, capture.ErrDeviceOpen),
		errors.Is(err, output.ErrSinkOpen),
		errors.Is(err, app.ErrNoStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
