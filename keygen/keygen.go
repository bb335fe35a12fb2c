// Package keygen writes server-generated keys, such as the ids returned by an
// INSERT ... RETURNING statement, back onto the objects that were inserted.
//
// Column i of the result is bound to key property i. Row n of the result is
// bound to target n. Converters are resolved once, from the first target, and
// reused for the rest of the batch.
package keygen

import (
	"fmt"
	"log/slog"

	"github.com/nlimpid/gosqlbind/meta"
	"github.com/nlimpid/gosqlbind/scanner"
	"github.com/nlimpid/gosqlbind/typeconv"
)

// Error is the only error returned by Generator. Cause is the read, convert
// or write failure that aborted the batch.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return "error getting generated key or setting result to parameter object: " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Option configures a Generator.
type Option func(*Generator)

// WithRegistry sets the converter registry. The default is
// typeconv.NewRegistry().
func WithRegistry(registry *typeconv.Registry) Option {
	return func(g *Generator) {
		g.registry = registry
	}
}

// WithLogger sets the logger used for debug records.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// Generator binds generated keys from a cursor onto target objects.
type Generator struct {
	registry *typeconv.Registry
	logger   *slog.Logger
}

// New returns a Generator with the default registry and logger unless
// overridden by opts.
func New(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = typeconv.NewRegistry()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// ProcessAfter binds the first row of cur onto param.
func (g *Generator) ProcessAfter(cur scanner.Cursor, keyProperties []string, param any) error {
	return g.ProcessBatch(cur, keyProperties, []any{param})
}

// ProcessBatch binds one row of cur per element of params, in order. Params
// are meta.Object values or anything meta.New accepts.
//
// Nothing is bound when keyProperties is empty or cur has fewer columns than
// keyProperties. Binding stops quietly when cur runs out of rows. A key
// property without a setter on the first target, or whose type has no
// converter, is skipped for every target. Any other failure aborts the
// remaining batch; targets bound before it stay bound.
//
// cur is always closed before returning.
func (g *Generator) ProcessBatch(cur scanner.Cursor, keyProperties []string, params []any) error {
	if cur == nil {
		return nil
	}
	defer func() {
		_ = cur.Close()
	}()

	if err := g.processBatch(cur, keyProperties, params); err != nil {
		return &Error{Cause: err}
	}
	return nil
}

func (g *Generator) processBatch(cur scanner.Cursor, keyProperties []string, params []any) error {
	if len(keyProperties) == 0 {
		return nil
	}

	columns, err := cur.ColumnCount()
	if err != nil {
		return err
	}
	if columns < len(keyProperties) {
		g.logger.Debug("skipping generated keys",
			"columns", columns, "keyProperties", keyProperties)
		return nil
	}

	var (
		converters []typeconv.Converter
		resolved   bool
		bound      int
	)
	for i, param := range params {
		ok, err := cur.Next()
		if err != nil {
			return fmt.Errorf("failed to advance to row %d: %w", i+1, err)
		}
		if !ok {
			break
		}

		obj, err := meta.New(param)
		if err != nil {
			return err
		}
		if !resolved {
			converters, err = g.resolveConverters(obj, keyProperties)
			if err != nil {
				return err
			}
			resolved = true
		}
		if err := populateKeys(cur, obj, keyProperties, converters); err != nil {
			return err
		}
		bound++
	}

	g.logger.Debug("bound generated keys",
		"keyProperties", keyProperties, "targets", len(params), "bound", bound)
	return nil
}

func (g *Generator) resolveConverters(obj meta.Object, keyProperties []string) ([]typeconv.Converter, error) {
	converters := make([]typeconv.Converter, len(keyProperties))
	for i, prop := range keyProperties {
		if !obj.HasSetter(prop) {
			g.logger.Debug("no setter for key property", "property", prop, "kind", obj.Kind())
			continue
		}
		typ, err := obj.SetterType(prop)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve type of %q: %w", prop, err)
		}
		conv, ok := g.registry.Lookup(typ)
		if !ok {
			g.logger.Debug("no converter for key property", "property", prop, "type", typ)
			continue
		}
		converters[i] = conv
	}
	return converters, nil
}

func populateKeys(cur scanner.Cursor, obj meta.Object, keyProperties []string, converters []typeconv.Converter) error {
	for i, prop := range keyProperties {
		conv := converters[i]
		if conv == nil {
			continue
		}
		val, err := cur.Column(i+1, conv)
		if err != nil {
			return fmt.Errorf("failed to read key %q: %w", prop, err)
		}
		if err := obj.SetValue(prop, val); err != nil {
			return fmt.Errorf("failed to set key %q: %w", prop, err)
		}
	}
	return nil
}
