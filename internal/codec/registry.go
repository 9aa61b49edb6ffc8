package codec

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry maps payload type names to constructors and back. It is the
// only place the store learns how to turn a stored type name into a Go
// value; nothing is resolved by reflection at decode time.
type Registry struct {
	mu      sync.RWMutex
	factory map[string]func() any
	names   map[reflect.Type]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factory: map[string]func() any{}, names: map[reflect.Type]string{}}
}

// Register binds name to payload type T. Decoded values are *T.
func Register[T any](r *Registry, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factory[name] = func() any { return new(T) }
	r.names[reflect.TypeOf((*T)(nil)).Elem()] = name
}

// NameFor returns the registered name of v's type. Unregistered types fall
// back to the Go type string, which round-trips only within one program.
func (r *Registry) NameFor(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[t]; ok {
		return name
	}
	return t.String()
}

// Decode unmarshals body into a fresh value of the type registered under
// name. Unregistered names yield an error; callers can still read the raw
// payload bytes.
func (r *Registry) Decode(c Codec, name string, body []byte) (any, error) {
	r.mu.RLock()
	factory, ok := r.factory[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("codec: payload type %q not registered", name)
	}
	v := factory()
	if err := c.Unmarshal(body, v); err != nil {
		return nil, fmt.Errorf("codec: decode %q: %w", name, err)
	}
	return v, nil
}

// Known reports whether name has a registered constructor.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factory[name]
	return ok
}
