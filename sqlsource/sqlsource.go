// Package sqlsource renders statement text with #{property} bind markers into
// driver SQL plus the ordered list of properties to bind.
package sqlsource

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mitranim/sqlp"

	"github.com/nlimpid/gosqlbind/meta"
	"github.com/nlimpid/gosqlbind/parsing"
)

var (
	// ErrMixedParameters reports hand-written $N or :name parameters in text
	// that also uses #{property} markers.
	ErrMixedParameters = errors.New("hand-written parameters are not allowed")
	// ErrEmptyProperty reports a #{} marker without a property name.
	ErrEmptyProperty = errors.New("empty property in bind marker")
	// ErrItemOutOfRange reports a mapping whose item has no parameter object.
	ErrItemOutOfRange = errors.New("parameter item out of range")
)

const (
	bindOpen  = "#{"
	bindClose = "}"
)

// Placeholder selects the driver placeholder syntax.
type Placeholder int

const (
	// Dollar renders $1, $2, ... in marker order.
	Dollar Placeholder = iota
	// Question renders ? for every marker.
	Question
)

// ParameterMapping is one #{property,key=value} marker. Item is the index of
// the parameter object the property is read from.
type ParameterMapping struct {
	Property string
	Item     int
	Options  map[string]string
}

// BoundSQL is rendered SQL with its bind markers in placeholder order.
type BoundSQL struct {
	SQL      string
	Mappings []ParameterMapping
}

// Builder renders fragments into one BoundSQL.
type Builder struct {
	placeholder Placeholder
	buf         strings.Builder
	mappings    []ParameterMapping
}

// NewBuilder returns an empty Builder rendering the given placeholder.
func NewBuilder(placeholder Placeholder) *Builder {
	return &Builder{placeholder: placeholder}
}

// Compile renders a single fragment bound to parameter item 0.
func Compile(text string, placeholder Placeholder) (BoundSQL, error) {
	b := NewBuilder(placeholder)
	if err := b.Append(text, 0); err != nil {
		return BoundSQL{}, err
	}
	return b.Build(), nil
}

// Append renders fragment, binding its markers to parameter item. On error
// the builder is left as it was.
func (b *Builder) Append(fragment string, item int) error {
	if err := checkParameters(fragment); err != nil {
		return err
	}

	mark := len(b.mappings)
	var markerErr error
	out := parsing.NewTokenParser(bindOpen, bindClose, parsing.HandlerFunc(func(content string) string {
		mapping, err := parseMapping(content, item)
		if err != nil {
			if markerErr == nil {
				markerErr = err
			}
			return ""
		}
		b.mappings = append(b.mappings, mapping)
		return b.placeholderFor(len(b.mappings))
	})).Parse(fragment)

	if markerErr != nil {
		b.mappings = b.mappings[:mark]
		return markerErr
	}
	b.buf.WriteString(out)
	return nil
}

// AppendText writes text verbatim. It is meant for separators and other
// glue without markers.
func (b *Builder) AppendText(text string) {
	b.buf.WriteString(text)
}

// Build returns the SQL and mappings accumulated so far.
func (b *Builder) Build() BoundSQL {
	return BoundSQL{
		SQL:      b.buf.String(),
		Mappings: append([]ParameterMapping(nil), b.mappings...),
	}
}

func (b *Builder) placeholderFor(n int) string {
	if b.placeholder == Question {
		return "?"
	}
	return "$" + strconv.Itoa(n)
}

func parseMapping(content string, item int) (ParameterMapping, error) {
	parts := strings.Split(content, ",")
	mapping := ParameterMapping{Property: strings.TrimSpace(parts[0]), Item: item}
	if mapping.Property == "" {
		return ParameterMapping{}, fmt.Errorf("%w: #{%s}", ErrEmptyProperty, content)
	}
	for _, part := range parts[1:] {
		key, val, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if mapping.Options == nil {
			mapping.Options = map[string]string{}
		}
		mapping.Options[key] = strings.TrimSpace(val)
	}
	return mapping, nil
}

// checkParameters rejects ordinal and named parameters outside of quoted
// strings, identifiers and comments.
func checkParameters(fragment string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to tokenize sql: %v", rec)
		}
	}()

	tokenizer := sqlp.Tokenizer{Source: fragment}
	for {
		node := tokenizer.Next()
		if node == nil {
			return nil
		}
		switch node := node.(type) {
		case sqlp.NodeOrdinalParam:
			return fmt.Errorf("%w: found $%d", ErrMixedParameters, int(node))
		case sqlp.NodeNamedParam:
			return fmt.Errorf("%w: found :%s", ErrMixedParameters, string(node))
		}
	}
}

// Args reads the bound values from params in placeholder order. A param
// that is not an object (see meta.New) is itself the value of every
// property bound to it.
func (s BoundSQL) Args(params []any) ([]any, error) {
	args := make([]any, 0, len(s.Mappings))
	objects := map[int]meta.Object{}
	for _, mapping := range s.Mappings {
		if mapping.Item < 0 || mapping.Item >= len(params) {
			return nil, fmt.Errorf("%w: %d of %d", ErrItemOutOfRange, mapping.Item, len(params))
		}
		param := params[mapping.Item]

		obj, ok := objects[mapping.Item]
		if !ok {
			if _, isObject := param.(meta.Object); !isObject && meta.KindOf(param) == meta.KindInvalid {
				args = append(args, param)
				continue
			}
			var err error
			obj, err = meta.New(param)
			if err != nil {
				return nil, fmt.Errorf("failed to read parameter %d: %w", mapping.Item, err)
			}
			objects[mapping.Item] = obj
		}

		val, err := obj.GetValue(mapping.Property)
		if err != nil {
			return nil, fmt.Errorf("failed to read %q of parameter %d: %w", mapping.Property, mapping.Item, err)
		}
		args = append(args, val)
	}
	return args, nil
}
