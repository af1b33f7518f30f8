package abilities

import (
	"sort"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
)

// Registry is the process-wide catalogue of abilities. Registration happens
// once during initialization; lookups are concurrent-safe.
type Registry interface {
	Register(def *Definition) error
	Get(name string) (*Definition, error)
	List() []*Definition
	Has(name string) bool
}

// InMemoryRegistry is a thread-safe in-memory Registry.
type InMemoryRegistry struct {
	mu        sync.RWMutex
	abilities map[string]*Definition
}

func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{abilities: map[string]*Definition{}}
}

var _ Registry = (*InMemoryRegistry)(nil)

// NormalizeName canonicalizes an ability name to namespace/kebab-case form.
// "Posts/CreatePost" and "posts/create-post" register the same ability.
func NormalizeName(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = strcase.ToKebab(strings.TrimSpace(p))
	}
	return strings.Join(parts, "/")
}

// Register adds an ability. Names must be unique and namespaced
// ("namespace/name").
func (r *InMemoryRegistry) Register(def *Definition) error {
	if def == nil {
		return errors.New("ability definition is nil")
	}
	name := NormalizeName(def.Name)
	if name == "" {
		return errors.New("ability name cannot be empty")
	}
	if !strings.Contains(name, "/") {
		return errors.Errorf("ability name %q must be namespaced as namespace/name", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.abilities[name]; exists {
		return errors.Errorf("ability already registered: %s", name)
	}
	def.Name = name
	r.abilities[name] = def
	return nil
}

func (r *InMemoryRegistry) Get(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.abilities[NormalizeName(name)]
	if !ok {
		return nil, NewNotFoundError(name)
	}
	return def, nil
}

func (r *InMemoryRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.abilities[NormalizeName(name)]
	return ok
}

// List returns all registered abilities, sorted by name.
func (r *InMemoryRegistry) List() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.abilities))
	for _, def := range r.abilities {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Count returns the number of registered abilities.
func (r *InMemoryRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.abilities)
}
