// Package scope defines the ranking partitions a member can appear in.
package scope

import (
	"fmt"
	"strings"
)

const (
	globalKey  = "global"
	cityPrefix = "city:"
)

// Scope identifies one ranking partition: the global board or one city.
// The zero value is the global scope.
type Scope struct {
	city string
}

// Global returns the global scope.
func Global() Scope {
	return Scope{}
}

// City returns the scope for a city. City names are opaque keys; no
// normalization is applied beyond trimming whitespace.
func City(name string) (Scope, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Scope{}, ErrEmptyCity
	}
	return Scope{city: name}, nil
}

// Parse converts a scope key back into a Scope.
// Accepts "global" and "city:<name>".
func Parse(key string) (Scope, error) {
	if key == globalKey {
		return Global(), nil
	}
	if name, ok := strings.CutPrefix(key, cityPrefix); ok {
		return City(name)
	}
	return Scope{}, fmt.Errorf("%w: %q", ErrUnknownScope, key)
}

// IsGlobal reports whether s is the global scope.
func (s Scope) IsGlobal() bool {
	return s.city == ""
}

// CityName returns the city name, or "" for the global scope.
func (s Scope) CityName() string {
	return s.city
}

// Key returns the stable string key for the scope, used as the
// rank store registry key and the hub room name.
func (s Scope) Key() string {
	if s.city == "" {
		return globalKey
	}
	return cityPrefix + s.city
}

// String implements fmt.Stringer.
func (s Scope) String() string {
	return s.Key()
}
