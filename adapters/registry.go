package adapters

import (
	"fmt"
	"strings"
	"sync"

	"github.com/brettbedarf/projfs"
	"github.com/brettbedarf/projfs/config"
)

// Factory opens a backend for a target such as a local path or a server URL
type Factory func(target string, cfg *config.Config) (projfs.Backend, error)

// Registry maps target schemes onto backend factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register ties a factory to a scheme. The first registration wins.
func (r *Registry) Register(scheme string, f Factory) {
	scheme = strings.ToLower(scheme)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[scheme]; ok {
		return
	}
	r.factories[scheme] = f
}

// Open picks the factory for target's scheme. All expected schemes should
// be registered with [Registry.Register] before calling this function.
func (r *Registry) Open(target string, cfg *config.Config) (projfs.Backend, error) {
	scheme := SchemeOf(target)
	r.mu.RLock()
	f, ok := r.factories[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no backend for scheme %q", scheme)
	}
	return f(target, cfg)
}

// SchemeOf returns the lowercased URL scheme of target. A target without
// one names a local directory.
//
// Ex.
//
//	"http://localhost:3030" -> "http"
//	"file:///srv/project"   -> "file"
//	"../project"            -> "local"
func SchemeOf(target string) string {
	target = strings.TrimSpace(target)
	if i := strings.Index(target, "://"); i > 0 {
		return strings.ToLower(target[:i])
	}
	return LocalAdapterType
}

var defaultRegistry = NewRegistry()

// Register adds a factory to the default registry
func Register(scheme string, f Factory) {
	defaultRegistry.Register(scheme, f)
}

// Open opens target through the default registry
func Open(target string, cfg *config.Config) (projfs.Backend, error) {
	return defaultRegistry.Open(target, cfg)
}
