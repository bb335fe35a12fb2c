package meta

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/mitranim/refut"
)

// StructObject exposes the exported fields of a struct, including fields
// promoted from embedded structs. A field is named by its `db` tag when it
// has one and by its Go name otherwise; both resolve, and a case-insensitive
// match is tried last.
//
// Fields promoted through an unexported embedded pointer, as in
// struct{ *inner }, are not exposed: reflection cannot allocate or set them.
// Such properties have no setter, so the key binder skips them.
type StructObject struct {
	rval   reflect.Value
	fields *structFields
}

type structFields struct {
	exact map[string][]int
	fold  map[string][]int
}

var fieldCache sync.Map // reflect.Type -> *structFields

func newStructObject(v any) (*StructObject, error) {
	rval := reflect.ValueOf(v)
	if rval.Kind() != reflect.Pointer || refut.IsRvalNil(rval) || rval.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("failed to wrap %T as struct: expected non-nil struct pointer: %w", v, ErrUnsupportedObject)
	}

	fields, err := fieldsOf(rval.Type().Elem())
	if err != nil {
		return nil, err
	}
	return &StructObject{rval: rval.Elem(), fields: fields}, nil
}

func fieldsOf(rtype reflect.Type) (*structFields, error) {
	if cached, ok := fieldCache.Load(rtype); ok {
		return cached.(*structFields), nil
	}

	fields := &structFields{exact: map[string][]int{}, fold: map[string][]int{}}
	err := refut.TraverseStructRtype(rtype, func(sfield reflect.StructField, index []int) error {
		if !sfield.IsExported() {
			return nil
		}
		index = append([]int(nil), index...)
		for _, name := range []string{refut.TagIdent(sfield.Tag.Get("db")), sfield.Name} {
			if name == "" {
				continue
			}
			if _, ok := fields.exact[name]; !ok {
				fields.exact[name] = index
			}
			if _, ok := fields.fold[strings.ToLower(name)]; !ok {
				fields.fold[strings.ToLower(name)] = index
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse fields of %s: %w", rtype, err)
	}

	actual, _ := fieldCache.LoadOrStore(rtype, fields)
	return actual.(*structFields), nil
}

func (f *structFields) lookup(name string) ([]int, bool) {
	if index, ok := f.exact[name]; ok {
		return index, true
	}
	index, ok := f.fold[strings.ToLower(name)]
	return index, ok
}

func (*StructObject) Kind() Kind { return KindStruct }

func (o *StructObject) HasSetter(name string) bool {
	_, ok := o.fields.lookup(name)
	return ok
}

func (o *StructObject) SetterType(name string) (reflect.Type, error) {
	index, ok := o.fields.lookup(name)
	if !ok {
		return nil, o.noProperty(name)
	}
	return o.rval.Type().FieldByIndex(index).Type, nil
}

func (o *StructObject) HasGetter(name string) bool {
	return o.HasSetter(name)
}

// GetValue returns the field value, or nil when the field sits behind a nil
// embedded pointer.
func (o *StructObject) GetValue(name string) (any, error) {
	index, ok := o.fields.lookup(name)
	if !ok {
		return nil, o.noProperty(name)
	}
	field, err := o.rval.FieldByIndexErr(index)
	if err != nil {
		return nil, nil
	}
	return field.Interface(), nil
}

// SetValue assigns value to the field, allocating nil embedded pointers on
// the way. A nil value stores the zero value.
func (o *StructObject) SetValue(name string, value any) error {
	index, ok := o.fields.lookup(name)
	if !ok {
		return o.noProperty(name)
	}

	field := o.rval
	for i, x := range index {
		if i > 0 && field.Kind() == reflect.Pointer {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		field = field.Field(x)
	}

	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	if err := assign(field, reflect.ValueOf(value)); err != nil {
		return fmt.Errorf("failed to set %s.%s: %w", o.rval.Type(), name, err)
	}
	return nil
}

func (o *StructObject) noProperty(name string) error {
	return fmt.Errorf("%s has no field %q: %w", o.rval.Type(), name, ErrNoProperty)
}

func assign(dst, src reflect.Value) error {
	dtype, stype := dst.Type(), src.Type()
	switch {
	case stype.AssignableTo(dtype):
		dst.Set(src)
	case dtype.Kind() == reflect.Pointer && src.Kind() != reflect.Pointer:
		ptr := reflect.New(dtype.Elem())
		if err := assign(ptr.Elem(), src); err != nil {
			return err
		}
		dst.Set(ptr)
	case src.Kind() == reflect.Pointer && dtype.Kind() != reflect.Pointer:
		if src.IsNil() {
			dst.Set(reflect.Zero(dtype))
			return nil
		}
		return assign(dst, src.Elem())
	case convertible(stype, dtype):
		if err := checkRange(dst, src); err != nil {
			return err
		}
		dst.Set(src.Convert(dtype))
	default:
		return fmt.Errorf("cannot assign %s to %s", stype, dtype)
	}
	return nil
}

// convertible excludes conversions that reinterpret rather than convert,
// such as int to string.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	return from.Kind() == to.Kind() || (isNumeric(from.Kind()) && isNumeric(to.Kind()))
}

// checkRange refuses numeric conversions that would truncate, wrap or drop
// a fraction.
func checkRange(dst, src reflect.Value) error {
	var overflow bool
	switch {
	case src.CanInt():
		v := src.Int()
		switch {
		case dst.CanInt():
			overflow = dst.OverflowInt(v)
		case dst.CanUint():
			overflow = v < 0 || dst.OverflowUint(uint64(v))
		}
	case src.CanUint():
		v := src.Uint()
		switch {
		case dst.CanInt():
			overflow = v > math.MaxInt64 || dst.OverflowInt(int64(v))
		case dst.CanUint():
			overflow = dst.OverflowUint(v)
		}
	case src.CanFloat():
		v := src.Float()
		switch {
		case dst.CanInt(), dst.CanUint():
			if v != math.Trunc(v) {
				return fmt.Errorf("%v is not an integer", v)
			}
			if dst.CanInt() {
				overflow = v < math.MinInt64 || v >= math.MaxInt64 || dst.OverflowInt(int64(v))
			} else {
				overflow = v < 0 || v >= math.MaxUint64 || dst.OverflowUint(uint64(v))
			}
		case dst.CanFloat():
			overflow = !math.IsInf(v, 0) && dst.OverflowFloat(v)
		}
	}
	if overflow {
		return fmt.Errorf("%v overflows %s", src.Interface(), dst.Type())
	}
	return nil
}

func isNumeric(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
