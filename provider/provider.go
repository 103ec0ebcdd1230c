// Package provider maps database types to their adapters and metadata. The
// registry is an explicit service value populated by RegisterAll at startup;
// nothing registers through package init side effects.
package provider

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/dbterm/dbterm/adapter"
	"github.com/dbterm/dbterm/dberr"
)

// DockerHints tell the discovery layer how to recognize a provider's
// containers and extract credentials from their environment.
type DockerHints struct {
	// ImagePatterns are substrings matched against the container image name.
	ImagePatterns []string

	// EnvUser, EnvPassword and EnvDatabase are candidate variable names, in
	// priority order.
	EnvUser     []string
	EnvPassword []string
	EnvDatabase []string

	DefaultUser     string
	DefaultDatabase string
}

// Spec describes one supported database kind.
type Spec struct {
	DBType      string
	DisplayName string
	BadgeLabel  string
	DefaultPort int
	URLSchemes  []string

	SupportsSSH     bool
	IsFileBased     bool
	HasAdvancedAuth bool
	RequiresAuth    bool

	Docker *DockerHints

	// NewAdapter builds the stateless dialect adapter.
	NewAdapter func() adapter.Adapter
}

// Adapter instantiates the spec's adapter.
func (s Spec) Adapter() adapter.Adapter { return s.NewAdapter() }

// SupportsMultipleDatabases routes through the adapter's capability flag.
func (s Spec) SupportsMultipleDatabases() bool {
	return s.NewAdapter().SupportsMultipleDatabases()
}

// Registry holds the registered providers. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byType  map[string]Spec
	schemes map[string]string // lowercase scheme -> db type
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:  map[string]Spec{},
		schemes: map[string]string{},
	}
}

// Register adds or replaces a provider. Re-registering the same db type
// replaces the previous spec; claiming a scheme owned by a different
// provider is an error.
func (r *Registry) Register(spec Spec) error {
	if spec.DBType == "" {
		return errors.New("provider spec: db_type is required")
	}
	if spec.NewAdapter == nil {
		return errors.Newf("provider spec %q: adapter factory is required", spec.DBType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, scheme := range spec.URLSchemes {
		s := strings.ToLower(scheme)
		if owner, ok := r.schemes[s]; ok && owner != spec.DBType {
			return errors.Newf("provider spec %q: url scheme %q already owned by %q", spec.DBType, scheme, owner)
		}
	}

	if prev, ok := r.byType[spec.DBType]; ok {
		for _, scheme := range prev.URLSchemes {
			delete(r.schemes, strings.ToLower(scheme))
		}
	}
	r.byType[spec.DBType] = spec
	for _, scheme := range spec.URLSchemes {
		r.schemes[strings.ToLower(scheme)] = spec.DBType
	}
	return nil
}

// Get returns the provider for a db type.
func (r *Registry) Get(dbType string) (Spec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	spec, ok := r.byType[dbType]
	if !ok {
		return Spec{}, errors.Wrapf(dberr.ErrUnknownProvider, "%q", dbType)
	}
	return spec, nil
}

// GetByScheme maps a URL scheme to its db type, case-insensitively. An
// unknown scheme returns the empty string.
func (r *Registry) GetByScheme(scheme string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemes[strings.ToLower(scheme)]
}

// SupportedDBTypes returns the registered db types, sorted.
func (r *Registry) SupportedDBTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AllSchemes returns every declared URL scheme, sorted.
func (r *Registry) AllSchemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.schemes))
	for s := range r.schemes {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// All returns every registered spec, sorted by db type.
func (r *Registry) All() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.byType))
	for _, s := range r.byType {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DBType < out[j].DBType })
	return out
}
