package registry

import (
	"log"
	"reflect"
	"sort"
	"sync"
)

// Registry maps method names to methods. Build it fully before serving
// traffic; lookups are cheap and concurrent, mutation during serving is
// unsupported (last write wins, logged).
type Registry struct {
	mu      sync.RWMutex
	prefix  string
	methods map[string]*Method
}

// Option configures a registry.
type Option func(*Registry)

// WithPrefix prepends a prefix to every registered method name.
func WithPrefix(prefix string) Option {
	return func(r *Registry) { r.prefix = prefix }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{methods: make(map[string]*Method)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a handler under the given name.
func (r *Registry) Add(name string, handler any, opts ...MethodOption) error {
	m, err := NewMethod(name, handler, opts...)
	if err != nil {
		return err
	}
	r.AddMethod(m)
	return nil
}

// MustAdd is Add that panics on an invalid handler. Intended for
// registration at program initialization.
func (r *Registry) MustAdd(name string, handler any, opts ...MethodOption) {
	if err := r.Add(name, handler, opts...); err != nil {
		panic(err)
	}
}

// AddMethod registers a prebuilt method. Name collisions log a warning and
// overwrite the previous entry.
func (r *Registry) AddMethod(m *Method) {
	name := r.prefix + m.Name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.methods[name]; exists {
		log.Printf("jsonrpc: method %q already registered, overwriting", name)
	}
	r.methods[name] = m
}

// Merge registers every method of other under this registry's prefix.
func (r *Registry) Merge(other *Registry) *Registry {
	for _, m := range other.Methods() {
		r.AddMethod(m)
	}
	return r
}

// RegisterStruct registers every exported method of receiver that matches
// the handler contract, under "namespace.MethodName" (or the bare method
// name when namespace is empty). Methods with other signatures are skipped.
func (r *Registry) RegisterStruct(namespace string, receiver any) {
	v := reflect.ValueOf(receiver)
	t := v.Type()

	for i := 0; i < v.NumMethod(); i++ {
		def := t.Method(i)
		if !def.IsExported() {
			continue
		}

		name := def.Name
		if namespace != "" {
			name = namespace + "." + name
		}

		// v.Method binds the receiver, leaving a plain handler function.
		m, err := NewMethod(name, v.Method(i).Interface())
		if err != nil {
			continue
		}
		r.AddMethod(m)
	}
}

// Get returns the method registered under name, or nil.
func (r *Registry) Get(name string) *Method {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.methods[name]
}

// Names returns all registered method names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Methods returns all registered methods ordered by their registered name.
// The registered name may differ from Method.Name when a prefix is set.
// Documentation and schema generators iterate the registry through this.
func (r *Registry) Methods() []*Method {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)

	methods := make([]*Method, len(names))
	for i, name := range names {
		methods[i] = r.methods[name]
	}
	return methods
}

// Len returns the number of registered methods.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.methods)
}
