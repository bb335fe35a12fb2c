// Package meta reads and writes named properties on caller-owned objects,
// treating string-keyed maps and struct pointers uniformly.
package meta

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoProperty reports a property name the object does not expose.
	ErrNoProperty = errors.New("no such property")
	// ErrUnsupportedObject reports a value that no Object variant can wrap.
	ErrUnsupportedObject = errors.New("unsupported object")
)

// Kind tags the property-access variant backing an Object.
type Kind uint8

const (
	// KindInvalid marks values no variant can wrap.
	KindInvalid Kind = iota
	// KindMap selects MapObject.
	KindMap
	// KindStruct selects StructObject.
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindStruct:
		return "struct"
	default:
		return "invalid"
	}
}

// Object is named-property access over an arbitrary host value. Property
// types are reported as reflect.Type.
type Object interface {
	Kind() Kind
	HasSetter(name string) bool
	SetterType(name string) (reflect.Type, error)
	SetValue(name string, value any) error
	HasGetter(name string) bool
	GetValue(name string) (any, error)
}

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// KindOf reports which variant can wrap v: map[string]any values are maps,
// non-nil struct pointers are structs.
func KindOf(v any) Kind {
	switch reflect.TypeOf(v) {
	case nil:
		return KindInvalid
	case mapType:
		return KindMap
	}
	rtype := reflect.TypeOf(v)
	if rtype.Kind() == reflect.Pointer && rtype.Elem().Kind() == reflect.Struct {
		return KindStruct
	}
	return KindInvalid
}

// Wrap returns the Object variant selected by kind.
func Wrap(kind Kind, v any) (Object, error) {
	switch kind {
	case KindMap:
		m, ok := v.(map[string]any)
		if !ok || m == nil {
			return nil, fmt.Errorf("failed to wrap %T as map: %w", v, ErrUnsupportedObject)
		}
		return MapObject(m), nil
	case KindStruct:
		return newStructObject(v)
	default:
		return nil, fmt.Errorf("failed to wrap %T: %w", v, ErrUnsupportedObject)
	}
}

// New wraps v, returning it unchanged when it already is an Object.
func New(v any) (Object, error) {
	if obj, ok := v.(Object); ok {
		return obj, nil
	}
	return Wrap(KindOf(v), v)
}
