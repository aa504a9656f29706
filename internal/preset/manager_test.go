package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func writePreset(t *testing.T, root, dir, body string) string {
	t.Helper()
	path := filepath.Join(root, dir)
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("failed to create preset dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, ManifestFile), []byte(body), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return path
}

func newManager(dir string) *Manager {
	logger, _ := test.NewNullLogger()
	return NewManager(dir, logger)
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	path := writePreset(t, root, "noir", `{
		"name": "Film Noir",
		"description": "High contrast black and white",
		"style": "Threshold",
		"params": {"threshold": 90}
	}`)

	manager := newManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	presets := manager.List()
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}

	p := presets[0]
	if p.Manifest.Name != "Film Noir" {
		t.Errorf("expected name 'Film Noir', got %q", p.Manifest.Name)
	}
	if p.Manifest.Style != "Threshold" {
		t.Errorf("expected style 'Threshold', got %q", p.Manifest.Style)
	}
	if got := p.Manifest.Params["threshold"]; got != float64(90) {
		t.Errorf("expected threshold 90, got %v", got)
	}
	if p.Path != path {
		t.Errorf("expected path %q, got %q", path, p.Path)
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()
	writePreset(t, root, "broken", `{not json`)
	writePreset(t, root, "nostyle", `{"name": "Nothing"}`)
	writePreset(t, root, "ok", `{"style": "Invert", "variant": "Negative"}`)
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stray.json"), []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}

	manager := newManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	presets := manager.List()
	if len(presets) != 1 {
		t.Fatalf("expected 1 preset, got %d", len(presets))
	}
	// The directory name stands in for a missing preset name.
	if presets[0].Manifest.Name != "ok" {
		t.Errorf("expected name 'ok', got %q", presets[0].Manifest.Name)
	}
	if presets[0].Manifest.Params == nil {
		t.Error("expected empty params map, got nil")
	}
}

func TestManager_Discover_ResolvesTexturePaths(t *testing.T) {
	root := t.TempDir()
	path := writePreset(t, root, "paper", `{
		"style": "Texture Overlay",
		"params": {"texture_path": "paper.png", "opacity": 0.4}
	}`)

	manager := newManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	p, err := manager.Get("paper")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	want := filepath.Join(path, "paper.png")
	if got := p.Manifest.Params["texture_path"]; got != want {
		t.Errorf("expected texture path %q, got %v", want, got)
	}
}

func TestManager_Discover_MissingDir(t *testing.T) {
	manager := newManager(filepath.Join(t.TempDir(), "missing"))
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() on a missing dir should not fail: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected no presets")
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := newManager(t.TempDir())
	if _, err := manager.Get("nope"); err != ErrPresetNotFound {
		t.Errorf("expected ErrPresetNotFound, got %v", err)
	}
}

func TestManager_Rediscover(t *testing.T) {
	root := t.TempDir()
	writePreset(t, root, "a", `{"style": "Blur"}`)

	manager := newManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	if err := os.RemoveAll(filepath.Join(root, "a")); err != nil {
		t.Fatal(err)
	}
	if err := manager.Discover(); err != nil {
		t.Fatal(err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected rediscovery to drop removed presets")
	}
}
