package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/enginesim/internal/dynamo"
)

var constructors = map[string]func() dynamo.Integrator{
	"rk4":   func() dynamo.Integrator { return NewRK4() },
	"euler": func() dynamo.Integrator { return NewEuler() },
}

// ByName returns a fresh integrator. Each control volume should own its own
// instance because RK4 keeps scratch buffers.
func ByName(name string) (dynamo.Integrator, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown integrator %q (available: %v)", dynamo.ErrConfiguration, name, Names())
	}
	return ctor(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
