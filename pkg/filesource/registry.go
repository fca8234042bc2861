package filesource

import (
	"fmt"
	"sync"
)

// Registry manages file-source factories by protocol.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// RegisterFactory registers a factory for a protocol.
func (r *Registry) RegisterFactory(protocol string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[protocol] = factory
}

// Open creates a Source for the protocol named in opts.
func (r *Registry) Open(opts Options) (Source, error) {
	r.mu.RLock()
	factory, ok := r.factories[opts.Protocol]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown file source protocol: %s", opts.Protocol)
	}

	source, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("opening %s source: %w", opts.Protocol, err)
	}
	return source, nil
}

// RegisterBuiltinFactories registers all built-in file-source factories.
func RegisterBuiltinFactories(r *Registry) {
	r.RegisterFactory("webhdfs", WebHDFSFactory)
	r.RegisterFactory("hdfs", HDFSFactory)
	r.RegisterFactory("memory", MemoryFactory)
}
