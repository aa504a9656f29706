package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"gocv.io/x/gocv"

	"github.com/ayusman/stylecam/internal/app"
	"github.com/ayusman/stylecam/internal/capture"
	_ "github.com/ayusman/stylecam/internal/effects/all"
	"github.com/ayusman/stylecam/internal/notify"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/store"
	"github.com/ayusman/stylecam/internal/style"
)

type fixture struct {
	ts  *httptest.Server
	app *app.App
	cam *capture.MockCamera
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	frame, err := gocv.NewMatFromBytes(2, 2, gocv.MatTypeCV8UC3, []byte{
		50, 50, 50, 150, 150, 150,
		200, 200, 200, 250, 250, 250,
	})
	if err != nil {
		t.Fatalf("NewMatFromBytes() error = %v", err)
	}
	t.Cleanup(func() { frame.Close() })

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger, _ := test.NewNullLogger()
	registry := style.NewRegistry(logger)
	registry.Discover()

	f := &fixture{cam: capture.NewMockCamera([]*gocv.Mat{&frame}, true)}
	f.app = app.New(app.Config{
		Registry:    registry,
		Source:      f.cam,
		Sink:        output.NewMemory(1),
		Output:      output.Config{Width: 2, Height: 2, FPS: 30},
		Store:       s,
		Logger:      logger,
		StopTimeout: time.Second,
	})
	f.ts = httptest.NewServer(New(Config{App: f.app, Logger: logger}))
	t.Cleanup(f.ts.Close)
	t.Cleanup(f.app.Stop)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) waitFrame(t *testing.T, want []byte) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if fr := f.app.LastFrame(); fr != nil && bytes.Equal(fr.Data, want) {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("frame never became %v", want)
}

func TestAPI_Styles(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/styles", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/styles status = %d", resp.StatusCode)
	}
	var listed struct {
		Categories []string            `json:"categories"`
		Styles     map[string][]string `json:"styles"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed.Categories) == 0 || len(listed.Styles) != len(listed.Categories) {
		t.Errorf("categories = %v, styles = %v", listed.Categories, listed.Styles)
	}

	resp = f.do(t, http.MethodGet, "/api/styles/Blur?variant=Bilateral", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/styles/Blur status = %d", resp.StatusCode)
	}
	var info struct {
		Variant    string `json:"variant"`
		Parameters []struct {
			Name string `json:"name"`
		} `json:"parameters"`
	}
	json.NewDecoder(resp.Body).Decode(&info)
	if info.Variant != "Bilateral" {
		t.Errorf("variant = %q, want Bilateral", info.Variant)
	}
	names := make(map[string]bool)
	for _, p := range info.Parameters {
		names[p.Name] = true
	}
	if !names["sigma_color"] || names["sigma"] {
		t.Errorf("parameters = %v, want the Bilateral schema", names)
	}
	if got := f.app.Registry().Get("Blur").Variant(); got != "Gaussian" {
		t.Errorf("describing a variant changed the selection to %q", got)
	}

	if code := f.do(t, http.MethodGet, "/api/styles/Blur?variant=Box", "").StatusCode; code != http.StatusBadRequest {
		t.Errorf("unknown variant status = %d, want %d", code, http.StatusBadRequest)
	}
	if code := f.do(t, http.MethodGet, "/api/styles/Sparkle", "").StatusCode; code != http.StatusNotFound {
		t.Errorf("unknown style status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAPI_PipelineWorkflow(t *testing.T) {
	f := newFixture(t)

	// 1. Start with a clamped threshold
	resp := f.do(t, http.MethodPost, "/api/pipeline", `{"device": "0", "style": "Threshold", "params": {"threshold": 300}}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/pipeline status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	var status app.Status
	json.NewDecoder(resp.Body).Decode(&status)
	if !status.Running || status.Session == nil || status.Session.Style != "Threshold" {
		t.Fatalf("status = %+v", status)
	}
	f.waitFrame(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	// 2. Starting twice conflicts
	if code := f.do(t, http.MethodPost, "/api/pipeline", `{"device": "0"}`).StatusCode; code != http.StatusConflict {
		t.Errorf("second start status = %d, want %d", code, http.StatusConflict)
	}

	// 3. Lower the threshold live
	resp = f.do(t, http.MethodPut, "/api/pipeline/params", `{"threshold": 100}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/pipeline/params status = %d", resp.StatusCode)
	}
	f.waitFrame(t, []byte{0, 0, 0, 255, 255, 255, 255, 255, 255, 255, 255, 255})

	// 4. Fetch the last frame
	resp = f.do(t, http.MethodGet, "/api/pipeline/frame", "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("GET /api/pipeline/frame status = %d, type = %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	// 5. Switch style while running
	resp = f.do(t, http.MethodPut, "/api/pipeline/style", `{"style": "Original"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT /api/pipeline/style status = %d", resp.StatusCode)
	}
	f.waitFrame(t, []byte{50, 50, 50, 150, 150, 150, 200, 200, 200, 250, 250, 250})

	// 6. Stop twice
	for i := 0; i < 2; i++ {
		if code := f.do(t, http.MethodDelete, "/api/pipeline", "").StatusCode; code != http.StatusOK {
			t.Errorf("DELETE /api/pipeline status = %d", code)
		}
	}
	if f.app.IsRunning() {
		t.Error("pipeline still running after DELETE")
	}

	// 7. Parameters need a running pipeline
	if code := f.do(t, http.MethodPut, "/api/pipeline/params", `{"threshold": 1}`).StatusCode; code != http.StatusConflict {
		t.Errorf("idle params status = %d, want %d", code, http.StatusConflict)
	}

	// 8. Restart on the remembered device
	if code := f.do(t, http.MethodPost, "/api/pipeline", `{}`).StatusCode; code != http.StatusCreated {
		t.Errorf("restart status = %d, want %d", code, http.StatusCreated)
	}
	if got := f.cam.Device(); got != "0" {
		t.Errorf("device = %q, want 0", got)
	}
}

func TestAPI_PipelineErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"missing device", `{"style": "Threshold"}`, http.StatusBadRequest},
		{"unknown style", `{"device": "0", "style": "Sparkle"}`, http.StatusNotFound},
		{"unknown variant", `{"device": "0", "style": "Invert", "variant": "Sepia"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := f.do(t, http.MethodPost, "/api/pipeline", tt.body).StatusCode; code != tt.code {
				t.Errorf("status = %d, want %d", code, tt.code)
			}
		})
	}

	f.cam.FailOpen(errors.New("busy"))
	if code := f.do(t, http.MethodPost, "/api/pipeline", `{"device": "0"}`).StatusCode; code != http.StatusServiceUnavailable {
		t.Errorf("device failure status = %d, want %d", code, http.StatusServiceUnavailable)
	}

	if code := f.do(t, http.MethodGet, "/api/pipeline/frame", "").StatusCode; code != http.StatusNotFound {
		t.Errorf("frame before start status = %d, want %d", code, http.StatusNotFound)
	}
	if code := f.do(t, http.MethodPatch, "/api/pipeline", "").StatusCode; code != http.StatusMethodNotAllowed {
		t.Errorf("PATCH status = %d, want %d", code, http.StatusMethodNotAllowed)
	}
}

func TestAPI_Snapshots(t *testing.T) {
	f := newFixture(t)

	if code := f.do(t, http.MethodPost, "/api/snapshots", "").StatusCode; code != http.StatusNotFound {
		t.Errorf("snapshot without frame status = %d, want %d", code, http.StatusNotFound)
	}

	f.do(t, http.MethodPost, "/api/pipeline", `{"device": "0", "style": "Invert"}`)
	f.waitFrame(t, []byte{205, 205, 205, 105, 105, 105, 55, 55, 55, 5, 5, 5})

	resp := f.do(t, http.MethodPost, "/api/snapshots", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/snapshots status = %d", resp.StatusCode)
	}
	var created struct {
		ID      string `json:"id"`
		Style   string `json:"style"`
		Variant string `json:"variant"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	if created.Style != "Invert" || created.Variant != "Colors" {
		t.Errorf("snapshot = %+v", created)
	}

	resp = f.do(t, http.MethodGet, "/api/snapshots", "")
	var listed struct {
		Snapshots []struct {
			ID string `json:"id"`
		} `json:"snapshots"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	if len(listed.Snapshots) != 1 || listed.Snapshots[0].ID != created.ID {
		t.Errorf("listed = %+v", listed)
	}

	resp = f.do(t, http.MethodGet, "/api/snapshots/"+created.ID, "")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("GET snapshot status = %d", resp.StatusCode)
	}

	if code := f.do(t, http.MethodDelete, "/api/snapshots/"+created.ID, "").StatusCode; code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", code, http.StatusNoContent)
	}
	if code := f.do(t, http.MethodGet, "/api/snapshots/"+created.ID, "").StatusCode; code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAPI_PresetsWithoutManager(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/presets", "")
	var listed struct {
		Presets []any `json:"presets"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	if resp.StatusCode != http.StatusOK || listed.Presets == nil || len(listed.Presets) != 0 {
		t.Errorf("GET /api/presets status = %d, presets = %v", resp.StatusCode, listed.Presets)
	}

	if code := f.do(t, http.MethodPost, "/api/presets/Noir", `{"device": "0"}`).StatusCode; code != http.StatusNotFound {
		t.Errorf("apply missing preset status = %d, want %d", code, http.StatusNotFound)
	}
}

func TestAPI_Stream(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/pipeline", `{"device": "0"}`)

	resp := f.do(t, http.MethodGet, "/api/stream", "")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Fatalf("Content-Type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("reading stream: %v", err)
	}
	if line != "--frame\r\n" {
		t.Errorf("first line = %q, want boundary", line)
	}
	line, _ = r.ReadString('\n')
	if line != "Content-Type: image/jpeg\r\n" {
		t.Errorf("part header = %q", line)
	}
}

func TestAPI_EventsWebsocket(t *testing.T) {
	f := newFixture(t)

	u, _ := url.Parse(f.ts.URL)
	u.Scheme = "ws"
	u.Path = "/api/events"
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	f.cam.FailOpen(errors.New("unplugged"))
	if err := f.app.Start("/dev/video9", "", "", nil); err == nil {
		t.Fatal("Start() succeeded with a failing device")
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var e notify.Event
	if err := conn.ReadJSON(&e); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if e.Kind != notify.KindDeviceOpen || e.Level != notify.LevelError {
		t.Errorf("event = %+v, want a device_open error", e)
	}
}
