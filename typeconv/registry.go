// Package typeconv maps Go types to converters that turn raw driver values
// into typed values.
package typeconv

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ErrUnsupported reports a raw value a converter cannot convert.
var ErrUnsupported = errors.New("unsupported conversion")

// Converter turns a raw column value, as produced by a database/sql driver,
// into a value of the converter's target type.
type Converter interface {
	Convert(raw any) (any, error)
}

// ConverterFunc adapts an ordinary function to Converter.
type ConverterFunc func(raw any) (any, error)

// Convert calls f(raw).
func (f ConverterFunc) Convert(raw any) (any, error) { return f(raw) }

// Registry resolves a Converter for a reflect.Type. It is safe for
// concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[reflect.Type]Converter
}

// NewRegistry returns a registry preloaded with converters for integers,
// floats, bool, string, []byte, time.Time and the empty interface.
func NewRegistry() *Registry {
	r := &Registry{converters: map[reflect.Type]Converter{}}
	RegisterFunc(r, integer[int])
	RegisterFunc(r, integer[int8])
	RegisterFunc(r, integer[int16])
	RegisterFunc(r, integer[int32])
	RegisterFunc(r, integer[int64])
	RegisterFunc(r, integer[uint])
	RegisterFunc(r, integer[uint8])
	RegisterFunc(r, integer[uint16])
	RegisterFunc(r, integer[uint32])
	RegisterFunc(r, integer[uint64])
	RegisterFunc(r, float[float32])
	RegisterFunc(r, float[float64])
	RegisterFunc(r, toBool)
	RegisterFunc(r, toString)
	RegisterFunc(r, toBytes)
	RegisterFunc(r, toTime)
	r.Register(anyType, ConverterFunc(passThrough))
	return r
}

// Register sets the converter for t, replacing any previous one.
func (r *Registry) Register(t reflect.Type, c Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[t] = c
}

// RegisterFunc registers fn as the converter for T.
func RegisterFunc[T any](r *Registry, fn func(raw any) (T, error)) {
	r.Register(reflect.TypeFor[T](), ConverterFunc(func(raw any) (any, error) {
		return fn(raw)
	}))
}

// Lookup returns the converter for t. Besides registered types it serves
// pointers to resolvable types, types whose pointer implements sql.Scanner,
// and named types whose underlying kind has a registered converter.
func (r *Registry) Lookup(t reflect.Type) (Converter, bool) {
	if t == nil {
		return nil, false
	}

	r.mu.RLock()
	c, ok := r.converters[t]
	r.mu.RUnlock()
	if ok {
		return c, true
	}

	if reflect.PointerTo(t).Implements(scannerType) {
		return scannerConverter{typ: t}, true
	}

	if t.Kind() == reflect.Pointer {
		elem, ok := r.Lookup(t.Elem())
		if !ok {
			return nil, false
		}
		return pointerConverter{typ: t, elem: elem}, true
	}

	if base, ok := kindTypes[t.Kind()]; ok && base != t {
		inner, ok := r.Lookup(base)
		if !ok {
			return nil, false
		}
		return namedConverter{typ: t, inner: inner}, true
	}
	return nil, false
}

var (
	anyType     = reflect.TypeFor[any]()
	scannerType = reflect.TypeFor[sql.Scanner]()

	kindTypes = map[reflect.Kind]reflect.Type{
		reflect.Int:     reflect.TypeFor[int](),
		reflect.Int8:    reflect.TypeFor[int8](),
		reflect.Int16:   reflect.TypeFor[int16](),
		reflect.Int32:   reflect.TypeFor[int32](),
		reflect.Int64:   reflect.TypeFor[int64](),
		reflect.Uint:    reflect.TypeFor[uint](),
		reflect.Uint8:   reflect.TypeFor[uint8](),
		reflect.Uint16:  reflect.TypeFor[uint16](),
		reflect.Uint32:  reflect.TypeFor[uint32](),
		reflect.Uint64:  reflect.TypeFor[uint64](),
		reflect.Float32: reflect.TypeFor[float32](),
		reflect.Float64: reflect.TypeFor[float64](),
		reflect.Bool:    reflect.TypeFor[bool](),
		reflect.String:  reflect.TypeFor[string](),
	}
)

type scannerConverter struct{ typ reflect.Type }

func (c scannerConverter) Convert(raw any) (any, error) {
	ptr := reflect.New(c.typ)
	if err := ptr.Interface().(sql.Scanner).Scan(raw); err != nil {
		return nil, fmt.Errorf("failed to scan %T into %s: %w", raw, c.typ, err)
	}
	return ptr.Elem().Interface(), nil
}

// pointerConverter maps NULL to a nil pointer.
type pointerConverter struct {
	typ  reflect.Type
	elem Converter
}

func (c pointerConverter) Convert(raw any) (any, error) {
	if raw == nil {
		return reflect.Zero(c.typ).Interface(), nil
	}
	val, err := c.elem.Convert(raw)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(c.typ.Elem())
	ptr.Elem().Set(reflect.ValueOf(val))
	return ptr.Interface(), nil
}

type namedConverter struct {
	typ   reflect.Type
	inner Converter
}

func (c namedConverter) Convert(raw any) (any, error) {
	val, err := c.inner.Convert(raw)
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(val).Convert(c.typ).Interface(), nil
}

func unsupported(raw any, target string) error {
	return fmt.Errorf("cannot convert %T to %s: %w", raw, target, ErrUnsupported)
}
