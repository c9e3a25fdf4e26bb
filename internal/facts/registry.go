package facts

import (
	"fmt"
	"sync"

	"github.com/mohamedkhairy/trading-kb/internal/models"
)

// Predicate decides whether a fact holds for an indicator snapshot under
// the given thresholds. Predicates must be pure: no state, no I/O.
type Predicate func(ind *models.MarketIndicators, t Thresholds) bool

// Definition is a named boolean proposition derived from numeric
// indicators. Definitions are only consulted when seeding the initial
// truth assignment; the inference engine never re-evaluates them.
type Definition struct {
	Name        string
	Description string
	Predicate   Predicate
}

// Registry manages fact definitions. A malformed definition is rejected
// at registration time so evaluation never has to deal with one.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
	ordered     []string // registration order, for stable iteration
}

// NewRegistry creates a registry pre-populated with the built-in fact
// vocabulary
func NewRegistry() *Registry {
	r := NewEmptyRegistry()
	for _, def := range builtinDefinitions() {
		// Built-ins are statically known valid
		if err := r.Register(def); err != nil {
			panic(fmt.Sprintf("builtin fact definition %q: %v", def.Name, err))
		}
	}
	return r
}

// NewEmptyRegistry creates a registry with no definitions, for callers
// supplying a fully custom vocabulary
func NewEmptyRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]Definition),
	}
}

// Register adds a fact definition to the registry
func (r *Registry) Register(def Definition) error {
	if err := models.ValidateSymbol(def.Name); err != nil {
		return fmt.Errorf("fact name: %w", err)
	}
	if def.Predicate == nil {
		return fmt.Errorf("fact %q: predicate cannot be nil", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.definitions[def.Name]; exists {
		return fmt.Errorf("fact %q already registered", def.Name)
	}

	r.definitions[def.Name] = def
	r.ordered = append(r.ordered, def.Name)
	return nil
}

// Get retrieves a definition by name
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.definitions[name]
	return def, ok
}

// Names returns all registered fact names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.ordered))
	copy(names, r.ordered)
	return names
}

// Count returns the number of registered definitions
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.definitions)
}

// ComputeAll evaluates every registered definition against the snapshot
// and returns the resulting truth assignment. Each definition is
// evaluated independently; the map covers every registered fact name.
func (r *Registry) ComputeAll(ind *models.MarketIndicators, thresholds Thresholds) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	truth := make(map[string]bool, len(r.ordered))
	for _, name := range r.ordered {
		truth[name] = r.definitions[name].Predicate(ind, thresholds)
	}
	return truth
}
