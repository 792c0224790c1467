package driver

import "fmt"

// Registry is a name-keyed lookup for a pluggable module kind (Arch,
// Parser, Preprocessor, or ObjectFormat factory), mirroring
// dependencies.go's GetFunctionRepository: a flat map populated at
// init/registration time, looked up by the CLI's selector string. Registry
// gives "help" no special meaning: the caller (cmd/yasm) checks for it and
// prints Names() instead of calling Get (spec §6: "the flag 'help' as the
// value to any module-selecting option lists available modules and exits
// 0").
type Registry[T any] struct {
	factories map[string]func() T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{factories: make(map[string]func() T)}
}

// Register installs factory under name.
func (r *Registry[T]) Register(name string, factory func() T) {
	r.factories[name] = factory
}

// Get constructs the module registered under name, or an error naming the
// available choices.
func (r *Registry[T]) Get(name string) (T, error) {
	f, ok := r.factories[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("yasm: unknown module %q (available: %v)", name, r.Names())
	}
	return f(), nil
}

// Names lists every registered module name, for `-f help`/`-a help`/etc.
func (r *Registry[T]) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	return names
}
