// Package mapper executes insert statements described in YAML files and
// writes the keys generated by the database back onto the inserted objects.
package mapper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nlimpid/gosqlbind/keygen"
	"github.com/nlimpid/gosqlbind/parsing"
	"github.com/nlimpid/gosqlbind/scanner"
	"github.com/nlimpid/gosqlbind/sqlsource"
	"github.com/nlimpid/gosqlbind/typeconv"
)

var (
	// ErrUnknownStatement reports a statement id missing from the Config.
	ErrUnknownStatement = errors.New("unknown statement")
	// ErrNotBatch reports InsertBatch on a statement without Foreach.
	ErrNotBatch = errors.New("statement has no foreach fragment")
)

// Option configures a Session.
type Option func(*sessionConfig)

type sessionConfig struct {
	logger      *slog.Logger
	registry    *typeconv.Registry
	placeholder sqlsource.Placeholder
}

// WithLogger sets the logger for debug records. The default is
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}

// WithRegistry sets the converter registry used for generated keys.
func WithRegistry(registry *typeconv.Registry) Option {
	return func(c *sessionConfig) {
		c.registry = registry
	}
}

// WithPlaceholder selects the driver placeholder syntax. The default is
// sqlsource.Dollar.
func WithPlaceholder(placeholder sqlsource.Placeholder) Option {
	return func(c *sessionConfig) {
		c.placeholder = placeholder
	}
}

// Session runs the statements of one Config against a database. It is safe
// for concurrent use.
type Session struct {
	db          *sql.DB
	statements  map[string]*statement
	keys        *keygen.Generator
	logger      *slog.Logger
	placeholder sqlsource.Placeholder
}

type statement struct {
	Statement
	// bound is the precompiled form of statements without Foreach.
	bound sqlsource.BoundSQL
}

// NewSession substitutes cfg.Properties into every statement and compiles
// it. Malformed statements fail here rather than at execution.
func NewSession(db *sql.DB, cfg *Config, opts ...Option) (*Session, error) {
	c := &sessionConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.registry == nil {
		c.registry = typeconv.NewRegistry()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Session{
		db:          db,
		statements:  make(map[string]*statement, len(cfg.Statements)),
		keys:        keygen.New(keygen.WithRegistry(c.registry), keygen.WithLogger(c.logger)),
		logger:      c.logger,
		placeholder: c.placeholder,
	}
	for _, st := range cfg.Statements {
		st.KeyProperties = append([]string(nil), st.KeyProperties...)
		st.applyDefaults()
		st.SQL = parsing.ParseProperties(st.SQL, cfg.Properties)
		st.Foreach = parsing.ParseProperties(st.Foreach, cfg.Properties)
		st.Suffix = parsing.ParseProperties(st.Suffix, cfg.Properties)

		compiled := &statement{Statement: st}
		if st.Foreach == "" {
			bound, err := sqlsource.Compile(st.SQL, s.placeholder)
			if err != nil {
				return nil, fmt.Errorf("failed to compile statement %q: %w", st.ID, err)
			}
			compiled.bound = bound
		} else if _, err := compiled.render(s.placeholder, 1); err != nil {
			return nil, fmt.Errorf("failed to compile statement %q: %w", st.ID, err)
		}
		s.statements[st.ID] = compiled
	}
	return s, nil
}

// Insert runs statement id for a single parameter object. A Foreach
// statement renders one Foreach fragment.
func (s *Session) Insert(ctx context.Context, id string, param any) error {
	st, err := s.statement(id)
	if err != nil {
		return err
	}
	bound := st.bound
	if st.Foreach != "" {
		if bound, err = st.render(s.placeholder, 1); err != nil {
			return err
		}
	}
	return s.exec(ctx, st, bound, []any{param})
}

// InsertBatch runs a Foreach statement once for all params, binding row n
// of the generated keys onto params[n].
func (s *Session) InsertBatch(ctx context.Context, id string, params ...any) error {
	st, err := s.statement(id)
	if err != nil {
		return err
	}
	if st.Foreach == "" {
		return fmt.Errorf("failed to run %q as batch: %w", id, ErrNotBatch)
	}
	if len(params) == 0 {
		return nil
	}

	bound, err := st.render(s.placeholder, len(params))
	if err != nil {
		return err
	}
	return s.exec(ctx, st, bound, params)
}

func (s *Session) statement(id string) (*statement, error) {
	st, ok := s.statements[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatement, id)
	}
	return st, nil
}

func (s *Session) exec(ctx context.Context, st *statement, bound sqlsource.BoundSQL, params []any) error {
	args, err := bound.Args(params)
	if err != nil {
		return fmt.Errorf("failed to bind parameters of %q: %w", st.ID, err)
	}

	s.logger.Debug("executing statement",
		"id", st.ID, "sql", bound.SQL, "params", len(params))

	if len(st.KeyProperties) == 0 {
		if _, err := s.db.ExecContext(ctx, bound.SQL, args...); err != nil {
			return fmt.Errorf("failed to execute %q: %w", st.ID, err)
		}
		return nil
	}

	rows, err := s.db.QueryContext(ctx, bound.SQL, args...)
	if err != nil {
		return fmt.Errorf("failed to execute %q: %w", st.ID, err)
	}
	return s.keys.ProcessBatch(scanner.Rows(rows), st.KeyProperties, params)
}

func (st *statement) render(placeholder sqlsource.Placeholder, items int) (sqlsource.BoundSQL, error) {
	b := sqlsource.NewBuilder(placeholder)
	if err := b.Append(st.SQL, 0); err != nil {
		return sqlsource.BoundSQL{}, err
	}
	b.AppendText(" ")
	for i := 0; i < items; i++ {
		if i > 0 {
			b.AppendText(st.Separator)
		}
		if err := b.Append(st.Foreach, i); err != nil {
			return sqlsource.BoundSQL{}, err
		}
	}
	if st.Suffix != "" {
		b.AppendText(" ")
		if err := b.Append(st.Suffix, 0); err != nil {
			return sqlsource.BoundSQL{}, err
		}
	}
	return b.Build(), nil
}
