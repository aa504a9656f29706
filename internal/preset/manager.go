package preset

import (
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrPresetNotFound is returned when a requested preset cannot be found.
var ErrPresetNotFound = errors.New("preset not found")

// pathParams are parameters holding file paths. Relative values are
// resolved against the preset directory so presets can ship their own
// assets.
var pathParams = []string{"texture_path"}

// Manager manages preset discovery and access.
type Manager struct {
	dir     string
	logger  logrus.FieldLogger
	presets map[string]*Preset
	mu      sync.RWMutex
}

// NewManager creates a new preset Manager over dir.
func NewManager(dir string, logger logrus.FieldLogger) *Manager {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Manager{
		dir:     dir,
		logger:  logger.WithField("component", "preset"),
		presets: make(map[string]*Preset),
	}
}

// Discover scans the directory for preset.json files and loads them. Each
// subdirectory is expected to be one preset. Unreadable or invalid
// manifests are logged and skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.presets = make(map[string]*Preset)

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		presetPath := filepath.Join(m.dir, entry.Name())
		manifestPath := filepath.Join(presetPath, ManifestFile)
		log := m.logger.WithField("path", manifestPath)

		data, err := os.ReadFile(manifestPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			log.WithError(err).Warn("Skipping unreadable preset")
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			log.WithError(err).Warn("Skipping preset with invalid JSON")
			continue
		}
		if manifest.Name == "" {
			manifest.Name = entry.Name()
		}
		if manifest.Style == "" {
			log.Warn("Skipping preset without a style")
			continue
		}

		manifest.Params = resolvePaths(presetPath, manifest.Params)
		m.presets[manifest.Name] = &Preset{Manifest: manifest, Path: presetPath}
	}

	m.logger.WithField("presets", len(m.presets)).Info("Preset discovery finished")
	return nil
}

func resolvePaths(dir string, params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	out := maps.Clone(params)
	for _, key := range pathParams {
		p, ok := out[key].(string)
		if ok && p != "" && !filepath.IsAbs(p) {
			out[key] = filepath.Join(dir, p)
		}
	}
	return out
}

// Get returns a preset by name.
func (m *Manager) Get(name string) (*Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	preset, ok := m.presets[name]
	if !ok {
		return nil, ErrPresetNotFound
	}
	return preset, nil
}

// List returns all discovered presets sorted by name.
func (m *Manager) List() []*Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()

	presets := make([]*Preset, 0, len(m.presets))
	for _, preset := range m.presets {
		presets = append(presets, preset)
	}
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Manifest.Name < presets[j].Manifest.Name
	})
	return presets
}

// Dir returns the preset directory path.
func (m *Manager) Dir() string {
	return m.dir
}
