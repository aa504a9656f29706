package style

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/stylecam/internal/param"
)

// Info describes a style for control surfaces.
type Info struct {
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	Variants       []string     `json:"variants"`
	CurrentVariant string       `json:"current_variant"`
	Parameters     []param.Spec `json:"parameters"`
}

// Registry resolves style names to live instances.
type Registry struct {
	logger  logrus.FieldLogger
	sources []Source

	mu         sync.RWMutex
	instances  map[string]*Instance
	categories map[string][]string
}

// NewRegistry creates a registry over the process-wide registration table.
// Call Discover to populate it.
func NewRegistry(logger logrus.FieldLogger) *Registry {
	return NewRegistryFromSources(logger, Sources()...)
}

// NewRegistryFromSources creates a registry over an explicit set of sources.
func NewRegistryFromSources(logger logrus.FieldLogger, sources ...Source) *Registry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Registry{
		logger:     logger,
		sources:    sources,
		instances:  make(map[string]*Instance),
		categories: make(map[string][]string),
	}
}

// Discover instantiates every registered style exactly once, deduplicated
// by concrete type. A source or factory that fails is logged and skipped;
// discovery itself never fails.
//
// When two different types share a name the one discovered later replaces
// the earlier one, and the replacement is logged.
func (r *Registry) Discover() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.instances = make(map[string]*Instance)
	r.categories = make(map[string][]string)
	seen := make(map[reflect.Type]bool)

	for _, src := range r.sources {
		log := r.logger.WithField("source", src.Name)
		log.Debug("Scanning style source")

		for n, factory := range src.Factories {
			s, err := build(factory)
			if err != nil {
				log.WithFields(logrus.Fields{
					"factory": n,
					"error":   err.Error(),
				}).Error("Failed to instantiate style")
				continue
			}

			t := reflect.TypeOf(s)
			if seen[t] {
				continue
			}
			seen[t] = true

			inst := NewInstance(s)
			if err := inst.Check(); err != nil {
				log.WithFields(logrus.Fields{
					"style": s.Name(),
					"error": err.Error(),
				}).Error("Style has an invalid parameter schema")
				continue
			}

			r.add(inst, log)
		}
	}

	r.logger.WithFields(logrus.Fields{
		"styles":     len(r.instances),
		"categories": len(r.categories),
	}).Info("Style discovery finished")
}

func build(factory Factory) (s Style, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()

	s, err = factory()
	if err == nil && s == nil {
		err = fmt.Errorf("factory returned no style")
	}
	return s, err
}

func (r *Registry) add(inst *Instance, log logrus.FieldLogger) {
	name := inst.Name()
	category := inst.Category()
	if category == "" {
		category = "Uncategorized"
	}

	if prev, ok := r.instances[name]; ok {
		log.WithFields(logrus.Fields{
			"style":    name,
			"replaced": reflect.TypeOf(prev.Style()).String(),
			"by":       reflect.TypeOf(inst.Style()).String(),
		}).Warn("Style name registered twice, keeping the later one")
		r.removeFromCategory(prev.Category(), name)
	}

	r.instances[name] = inst
	if !slices.Contains(r.categories[category], name) {
		r.categories[category] = append(r.categories[category], name)
	}

	log.WithFields(logrus.Fields{
		"style":    name,
		"category": category,
		"variants": len(inst.Variants()),
	}).Info("Loaded style")
}

func (r *Registry) removeFromCategory(category, name string) {
	if category == "" {
		category = "Uncategorized"
	}
	names := slices.DeleteFunc(r.categories[category], func(n string) bool { return n == name })
	if len(names) == 0 {
		delete(r.categories, category)
		return
	}
	r.categories[category] = names
}

// Get returns the instance registered under name, or nil.
func (r *Registry) Get(name string) *Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instances[name]
}

// GetWithVariant returns the instance registered under name with variant
// selected. An empty variant selects the default. It returns nil when the
// style does not exist or has no such variant.
func (r *Registry) GetWithVariant(name, variant string) *Instance {
	inst := r.Get(name)
	if inst == nil {
		return nil
	}

	if variant == "" {
		variant = inst.DefaultVariant()
	}
	if !inst.SetVariant(variant) {
		return nil
	}
	return inst
}

// Categories returns each category with its style names in discovery order.
func (r *Registry) Categories() map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string][]string, len(r.categories))
	for category, names := range r.categories {
		out[category] = slices.Clone(names)
	}
	return out
}

// CategoryNames returns the category names sorted alphabetically.
func (r *Registry) CategoryNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.categories))
	for category := range r.categories {
		names = append(names, category)
	}
	sort.Strings(names)
	return names
}

// Names returns every style name sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.instances))
	for name := range r.instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariantsOf returns the variant names of a style, empty when it has none
// or does not exist.
func (r *Registry) VariantsOf(name string) []string {
	inst := r.Get(name)
	if inst == nil {
		return []string{}
	}
	return inst.Variants()
}

// DefaultParameters returns the defaults of the style's current variant.
func (r *Registry) DefaultParameters(name string) (param.Values, error) {
	inst := r.Get(name)
	if inst == nil {
		return param.Values{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return inst.Defaults(), nil
}

// ValidateStyleParameters is the forgiving validation path used for live
// UI input: missing keys take their defaults and out-of-range numbers are
// clamped instead of rejected. It only fails when the style is unknown.
func (r *Registry) ValidateStyleParameters(name string, raw param.Raw) (param.Values, error) {
	inst := r.Get(name)
	if inst == nil {
		r.logger.WithField("style", name).Warn("Style not found")
		return param.Values{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return inst.Clamp(raw), nil
}

// Info describes a style and the schema of its current variant.
func (r *Registry) Info(name string) (Info, error) {
	inst := r.Get(name)
	if inst == nil {
		return Info{}, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	return Info{
		Name:           inst.Name(),
		Category:       inst.Category(),
		Variants:       inst.Variants(),
		CurrentVariant: inst.Variant(),
		Parameters:     inst.Schema(),
	}, nil
}
