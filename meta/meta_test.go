package meta

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Audit struct {
	CreatedAt time.Time `db:"created_at"`
}

type Owner struct {
	OwnerID int64 `db:"owner_id"`
}

type User struct {
	Audit
	Owner
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Nickname *string
	Score    int32
	internal string
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want Kind
	}{
		{name: "map", v: map[string]any{}, want: KindMap},
		{name: "struct pointer", v: &User{}, want: KindStruct},
		{name: "struct value", v: User{}, want: KindInvalid},
		{name: "typed map", v: map[string]int{}, want: KindInvalid},
		{name: "nil", v: nil, want: KindInvalid},
		{name: "scalar", v: 42, want: KindInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.v))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("unsupported values", func(t *testing.T) {
		for _, v := range []any{nil, 1, "x", User{}, (*User)(nil), map[string]any(nil)} {
			_, err := New(v)
			assert.ErrorIs(t, err, ErrUnsupportedObject, "%#v", v)
		}
	})

	t.Run("object passes through", func(t *testing.T) {
		obj := MapObject{}
		got, err := New(obj)
		require.NoError(t, err)
		assert.Equal(t, KindMap, got.Kind())
	})

	t.Run("wrap by tag", func(t *testing.T) {
		obj, err := Wrap(KindStruct, &User{})
		require.NoError(t, err)
		assert.Equal(t, KindStruct, obj.Kind())

		_, err = Wrap(KindMap, &User{})
		assert.ErrorIs(t, err, ErrUnsupportedObject)
	})
}

func TestMapObject(t *testing.T) {
	m := map[string]any{"id": int64(7), "name": nil}
	obj, err := New(m)
	require.NoError(t, err)

	assert.True(t, obj.HasSetter("anything"))
	assert.True(t, obj.HasGetter("id"))
	assert.False(t, obj.HasGetter("missing"))

	typ, err := obj.SetterType("id")
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeOf(int64(0)), typ)

	typ, err = obj.SetterType("name")
	require.NoError(t, err)
	assert.Equal(t, anyType, typ)

	require.NoError(t, obj.SetValue("generated", int64(42)))
	assert.Equal(t, int64(42), m["generated"])

	_, err = obj.GetValue("missing")
	assert.ErrorIs(t, err, ErrNoProperty)
}

func TestStructObject_Properties(t *testing.T) {
	obj, err := New(&User{})
	require.NoError(t, err)

	tests := []struct {
		name     string
		prop     string
		want     bool
		wantType reflect.Type
	}{
		{name: "db tag", prop: "id", want: true, wantType: reflect.TypeOf(int64(0))},
		{name: "go name", prop: "ID", want: true, wantType: reflect.TypeOf(int64(0))},
		{name: "case folded", prop: "nickname", want: true, wantType: reflect.TypeOf((*string)(nil))},
		{name: "embedded struct", prop: "created_at", want: true, wantType: reflect.TypeOf(time.Time{})},
		{name: "second embedded struct", prop: "owner_id", want: true, wantType: reflect.TypeOf(int64(0))},
		{name: "unexported", prop: "internal", want: false},
		{name: "missing", prop: "missing", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, obj.HasSetter(tt.prop))
			typ, err := obj.SetterType(tt.prop)
			if !tt.want {
				assert.ErrorIs(t, err, ErrNoProperty)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, typ)
		})
	}
}

func TestStructObject_SetValue(t *testing.T) {
	user := &User{Name: "old"}
	obj, err := New(user)
	require.NoError(t, err)

	require.NoError(t, obj.SetValue("id", int64(10)))
	require.NoError(t, obj.SetValue("Score", int64(99)))
	require.NoError(t, obj.SetValue("nickname", "kirk"))
	require.NoError(t, obj.SetValue("owner_id", int32(3)))
	require.NoError(t, obj.SetValue("name", nil))

	assert.Equal(t, int64(10), user.ID)
	assert.Equal(t, int32(99), user.Score)
	require.NotNil(t, user.Nickname)
	assert.Equal(t, "kirk", *user.Nickname)
	assert.Equal(t, int64(3), user.OwnerID)
	assert.Equal(t, "", user.Name)

	err = obj.SetValue("name", 12)
	assert.Error(t, err)

	err = obj.SetValue("missing", 1)
	assert.ErrorIs(t, err, ErrNoProperty)

	err = obj.SetValue("Score", int64(1<<40))
	assert.Error(t, err)
	assert.Equal(t, int32(99), user.Score)
}

func TestStructObject_GetValue(t *testing.T) {
	user := &User{ID: 5, Name: "spock"}
	obj, err := New(user)
	require.NoError(t, err)

	val, err := obj.GetValue("name")
	require.NoError(t, err)
	assert.Equal(t, "spock", val)

	val, err = obj.GetValue("ID")
	require.NoError(t, err)
	assert.Equal(t, int64(5), val)

	_, err = obj.GetValue("missing")
	assert.ErrorIs(t, err, ErrNoProperty)
}

type Counters struct {
	Small    int8
	Unsigned uint32
	Wide     int64
	Ratio    float32
}

func TestStructObject_SetValueRange(t *testing.T) {
	tests := []struct {
		name    string
		prop    string
		value   any
		want    Counters
		wantErr bool
	}{
		{name: "fits int8", prop: "Small", value: int64(100), want: Counters{Small: 100}},
		{name: "int8 overflow", prop: "Small", value: int64(300), wantErr: true},
		{name: "negative into unsigned", prop: "Unsigned", value: int64(-1), wantErr: true},
		{name: "fits unsigned", prop: "Unsigned", value: int32(7), want: Counters{Unsigned: 7}},
		{name: "large unsigned into signed", prop: "Wide", value: uint64(1 << 63), wantErr: true},
		{name: "whole float into int", prop: "Wide", value: float64(12), want: Counters{Wide: 12}},
		{name: "fractional float into int", prop: "Wide", value: 1.5, wantErr: true},
		{name: "float32 overflow", prop: "Ratio", value: 1e300, wantErr: true},
		{name: "fits float32", prop: "Ratio", value: 0.5, want: Counters{Ratio: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Counters{}
			obj, err := New(c)
			require.NoError(t, err)

			err = obj.SetValue(tt.prop, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, Counters{}, *c)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *c)
		})
	}
}

type hidden struct {
	Code int64
}

type Wrapper struct {
	*hidden
	Name string
}

func TestStructObject_UnexportedEmbeddedPointer(t *testing.T) {
	obj, err := New(&Wrapper{})
	require.NoError(t, err)

	assert.True(t, obj.HasSetter("Name"))
	assert.False(t, obj.HasSetter("Code"))
}
