package meta

import (
	"fmt"
	"reflect"
)

var mapType = reflect.TypeOf(map[string]any(nil))

// MapObject exposes the entries of a map as properties. Every name has a
// setter; only present keys have getters.
type MapObject map[string]any

func (MapObject) Kind() Kind { return KindMap }

func (MapObject) HasSetter(string) bool { return true }

// SetterType is the type of the current value, or the empty interface when
// the key is absent or nil.
func (m MapObject) SetterType(name string) (reflect.Type, error) {
	if val := m[name]; val != nil {
		return reflect.TypeOf(val), nil
	}
	return anyType, nil
}

func (m MapObject) SetValue(name string, value any) error {
	m[name] = value
	return nil
}

func (m MapObject) HasGetter(name string) bool {
	_, ok := m[name]
	return ok
}

func (m MapObject) GetValue(name string) (any, error) {
	val, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("map key %q: %w", name, ErrNoProperty)
	}
	return val, nil
}
