// Package app ties the style registry, the frame pipeline, persistence and
// notifications together behind the controls a UI needs.
package app

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/stylecam/internal/capture"
	"github.com/ayusman/stylecam/internal/notify"
	"github.com/ayusman/stylecam/internal/output"
	"github.com/ayusman/stylecam/internal/param"
	"github.com/ayusman/stylecam/internal/pipeline"
	"github.com/ayusman/stylecam/internal/preset"
	"github.com/ayusman/stylecam/internal/store"
	"github.com/ayusman/stylecam/internal/style"
)

var (
	// ErrNotRunning is returned by operations that need an active session.
	ErrNotRunning = errors.New("pipeline is not running")
	// ErrNoStore is returned by operations that need persistence when none
	// is configured.
	ErrNoStore = errors.New("no settings store configured")
	// ErrNoFrame is returned when no frame has been published yet.
	ErrNoFrame = errors.New("no frame available")
)

// Config holds configuration options for the application.
type Config struct {
	Registry    *style.Registry
	Source      capture.Source
	Sink        output.Sink
	Output      output.Config
	Store       *store.Store
	Presets     *preset.Manager
	Logger      logrus.FieldLogger
	StopTimeout time.Duration
}

// Selection is a device, style, variant and parameter set.
type Selection struct {
	Device  string         `json:"device"`
	Style   string         `json:"style"`
	Variant string         `json:"variant"`
	Params  map[string]any `json:"params"`
}

// Status describes the controller for control surfaces.
type Status struct {
	State   string            `json:"state"`
	Running bool              `json:"running"`
	Session *pipeline.Session `json:"session,omitempty"`
	Params  param.Values      `json:"params"`
	Stats   pipeline.Stats    `json:"stats"`
	Output  output.Config     `json:"output"`
}

// App is the pipeline controller.
type App struct {
	config   Config
	log      logrus.FieldLogger
	registry *style.Registry
	pipeline *pipeline.Pipeline
	hub      *notify.Hub

	mu     sync.Mutex
	active *style.Instance
}

// New creates a new App with the given configuration. Missing collaborators
// get defaults: the process-wide style registry, an automatic capture
// source and the virtual camera sink.
func New(config Config) *App {
	if config.Logger == nil {
		config.Logger = logrus.StandardLogger()
	}
	if config.Registry == nil {
		config.Registry = style.NewRegistry(config.Logger)
		config.Registry.Discover()
	}
	if config.Sink == nil {
		config.Sink = output.NewVideoWriter()
	}
	config.Output = config.Output.WithDefaults()
	if config.Source == nil {
		config.Source = capture.NewAuto(capture.Settings{
			Width:  config.Output.Width,
			Height: config.Output.Height,
			FPS:    config.Output.FPS,
		})
	}

	hub := notify.NewHub(notify.DefaultBuffer)
	a := &App{
		config:   config,
		log:      config.Logger.WithField("component", "app"),
		registry: config.Registry,
		hub:      hub,
	}
	a.pipeline = pipeline.New(config.Source, config.Sink, pipeline.Config{
		Output:      config.Output,
		StopTimeout: config.StopTimeout,
		Logger:      config.Logger,
		Notifier:    hub,
	})
	return a
}

// Start starts capturing from deviceID through the named style. An empty
// style name passes frames through unchanged and an empty variant selects
// the style's default. Parameters take the forgiving path: missing values
// take defaults and out-of-range numbers are clamped.
func (a *App) Start(deviceID, styleName, variant string, raw param.Raw) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inst, variant, values, err := a.resolve(styleName, variant, raw)
	if err != nil {
		a.log.WithFields(logrus.Fields{
			"style":   styleName,
			"variant": variant,
		}).WithError(err).Warn("Cannot start")
		return err
	}

	if err := a.pipeline.Start(deviceID, inst, values); err != nil {
		return err
	}
	a.activate(inst, variant)
	a.persist(deviceID, inst, values)
	return nil
}

// resolve looks up the style and variant and validates raw against the
// variant's schema. The shared instance is left untouched; callers switch
// its variant with activate once the selection has taken effect.
func (a *App) resolve(styleName, variant string, raw param.Raw) (*style.Instance, string, param.Values, error) {
	if styleName == "" {
		return nil, "", param.Values{}, nil
	}

	inst := a.registry.Get(styleName)
	if inst == nil {
		return nil, "", param.Values{}, fmt.Errorf("%w: %q", style.ErrStyleNotFound, styleName)
	}
	if variant == "" {
		variant = inst.DefaultVariant()
	}
	if _, err := inst.VariantParameters(variant); err != nil {
		return nil, "", param.Values{}, err
	}

	raw = maps.Clone(raw)
	if inst.HasVariants() {
		if raw == nil {
			raw = param.Raw{}
		}
		raw[style.ModeParam] = variant
	}

	values, err := a.registry.ValidateStyleParameters(styleName, raw)
	if err != nil {
		return nil, "", param.Values{}, err
	}
	return inst, variant, values, nil
}

// activate makes inst the active style and switches it to variant.
func (a *App) activate(inst *style.Instance, variant string) {
	a.active = inst
	if inst != nil && inst.HasVariants() {
		inst.SetVariant(variant)
	}
}

// Stop stops the pipeline. Stopping a stopped pipeline does nothing.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pipeline.Stop()
}

// UpdateParameters merges raw into the running style's parameters and
// applies them from the next frame on. A mode value switches the variant.
func (a *App) UpdateParameters(raw param.Raw) (param.Values, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.pipeline.IsRunning() {
		return param.Values{}, ErrNotRunning
	}

	inst := a.active
	if inst == nil {
		return param.Values{}, nil
	}

	merged := a.pipeline.Parameters().Raw()
	if merged == nil {
		merged = param.Raw{}
	}
	maps.Copy(merged, raw)

	if mode, ok := raw[style.ModeParam].(string); ok && inst.HasVariants() {
		if _, err := inst.VariantParameters(mode); err != nil || mode == "" {
			merged[style.ModeParam] = inst.Variant()
		}
	}

	values := inst.Clamp(merged)
	if !a.pipeline.UpdateParameters(values) {
		return param.Values{}, ErrNotRunning
	}
	if inst.HasVariants() {
		inst.SetVariant(values.String(style.ModeParam))
	}

	a.hub.Notify(notify.Info(notify.KindParams, fmt.Sprintf("updated %s parameters", inst.Name())))
	a.persistStyle(inst, values)
	return values, nil
}

// SelectStyle switches to another style. While running, the session is
// restarted on the same device so the new style starts from a clean state.
// While stopped, the selection is only remembered for the next start.
func (a *App) SelectStyle(styleName, variant string, raw param.Raw) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	inst, variant, values, err := a.resolve(styleName, variant, raw)
	if err != nil {
		return err
	}

	session := a.pipeline.Session()
	if session == nil || !a.pipeline.IsRunning() {
		a.activate(inst, variant)
		a.persist("", inst, values)
		return nil
	}

	a.pipeline.Stop()
	if err := a.pipeline.Start(session.Device, inst, values); err != nil {
		return err
	}
	a.activate(inst, variant)
	a.persist(session.Device, inst, values)
	a.hub.Notify(notify.Info(notify.KindStyle, fmt.Sprintf("switched to %s", displayName(inst))))
	return nil
}

// ApplyPreset starts, or restyles a running session, with a discovered
// preset. deviceID is used only when the pipeline is stopped.
func (a *App) ApplyPreset(name, deviceID string) error {
	if a.config.Presets == nil {
		return preset.ErrPresetNotFound
	}
	p, err := a.config.Presets.Get(name)
	if err != nil {
		return err
	}

	m := p.Manifest
	if a.IsRunning() {
		return a.SelectStyle(m.Style, m.Variant, m.Params)
	}
	return a.Start(deviceID, m.Style, m.Variant, m.Params)
}

// Restore returns the last persisted selection, with the parameters last
// used for that style.
func (a *App) Restore() (Selection, error) {
	if a.config.Store == nil {
		return Selection{}, ErrNoStore
	}

	settings := a.config.Store.Settings()
	var sel Selection
	var err error
	if sel.Device, err = settings.GetOr(store.KeyLastDevice, ""); err != nil {
		return Selection{}, err
	}
	if sel.Style, err = settings.GetOr(store.KeyLastStyle, ""); err != nil {
		return Selection{}, err
	}
	if sel.Variant, err = settings.GetOr(store.KeyLastVariant, ""); err != nil {
		return Selection{}, err
	}

	if sel.Style != "" {
		ss, err := a.config.Store.StyleSettings().Get(sel.Style)
		switch {
		case err == nil:
			sel.Params = ss.Params
		case !errors.Is(err, store.ErrNotFound):
			return Selection{}, err
		}
	}
	return sel, nil
}

// StyleParameters returns the persisted parameters for a style, or its
// defaults when none are stored.
func (a *App) StyleParameters(styleName string) (param.Values, error) {
	inst := a.registry.Get(styleName)
	if inst == nil {
		return param.Values{}, fmt.Errorf("%w: %q", style.ErrStyleNotFound, styleName)
	}
	if a.config.Store != nil {
		if ss, err := a.config.Store.StyleSettings().Get(styleName); err == nil {
			return inst.Clamp(ss.Params), nil
		}
	}
	return inst.Defaults(), nil
}

// Snapshot stores the last published frame.
func (a *App) Snapshot() (*store.Snapshot, error) {
	if a.config.Store == nil {
		return nil, ErrNoStore
	}

	frame := a.pipeline.LastFrame()
	if frame == nil {
		return nil, ErrNoFrame
	}

	jpg, err := frame.JPEG(pipeline.DefaultJPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	snap := &store.Snapshot{
		Params: a.pipeline.Parameters().Map(),
		Width:  frame.Cols,
		Height: frame.Rows,
		JPEG:   jpg,
	}
	if s := a.pipeline.Session(); s != nil {
		snap.Style, snap.Variant = s.Style, s.Variant
	}

	if err := a.config.Store.Snapshots().Create(snap); err != nil {
		return nil, err
	}
	a.log.WithField("snapshot", snap.ID).Info("Snapshot saved")
	return snap, nil
}

// LastFrame returns the most recent processed frame, or nil.
func (a *App) LastFrame() *pipeline.Frame {
	return a.pipeline.LastFrame()
}

// IsRunning reports whether the pipeline is running.
func (a *App) IsRunning() bool {
	return a.pipeline.IsRunning()
}

// Status returns the controller state.
func (a *App) Status() Status {
	return Status{
		State:   a.pipeline.State().String(),
		Running: a.pipeline.IsRunning(),
		Session: a.pipeline.Session(),
		Params:  a.pipeline.Parameters(),
		Stats:   a.pipeline.Stats(),
		Output:  a.pipeline.OutputConfig(),
	}
}

// Subscribe returns a channel of pipeline events.
func (a *App) Subscribe() <-chan notify.Event {
	return a.hub.Subscribe()
}

// Unsubscribe stops delivery to a channel returned by Subscribe.
func (a *App) Unsubscribe(ch <-chan notify.Event) {
	a.hub.Unsubscribe(ch)
}

// Registry returns the style registry.
func (a *App) Registry() *style.Registry {
	return a.registry
}

// Presets returns the preset manager, which may be nil.
func (a *App) Presets() *preset.Manager {
	return a.config.Presets
}

// Store returns the settings store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

func (a *App) persist(deviceID string, inst *style.Instance, values param.Values) {
	if a.config.Store == nil {
		return
	}

	kv := map[string]string{
		store.KeyLastStyle:   "",
		store.KeyLastVariant: "",
	}
	if deviceID != "" {
		kv[store.KeyLastDevice] = deviceID
	}
	if inst != nil {
		kv[store.KeyLastStyle] = inst.Name()
		kv[store.KeyLastVariant] = variantOf(inst, values)
	}
	if err := a.config.Store.Settings().SetMany(kv); err != nil {
		a.log.WithError(err).Warn("Failed to save settings")
	}
	a.persistStyle(inst, values)
}

func (a *App) persistStyle(inst *style.Instance, values param.Values) {
	if a.config.Store == nil || inst == nil {
		return
	}
	err := a.config.Store.StyleSettings().Save(&store.StyleSetting{
		Style:   inst.Name(),
		Variant: variantOf(inst, values),
		Params:  values.Map(),
	})
	if err != nil {
		a.log.WithField("style", inst.Name()).WithError(err).Warn("Failed to save style settings")
	}
}

// variantOf returns the variant values were validated for.
func variantOf(inst *style.Instance, values param.Values) string {
	if inst == nil || !inst.HasVariants() {
		return ""
	}
	return values.String(style.ModeParam)
}

func displayName(inst *style.Instance) string {
	if inst == nil {
		return "passthrough"
	}
	if v := inst.Variant(); v != "" {
		return inst.Name() + " (" + v + ")"
	}
	return inst.Name()
}
