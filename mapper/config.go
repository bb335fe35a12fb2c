package mapper

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the content of a statement file.
//
//	properties:
//	  table: users
//	statements:
//	  - id: insertUsers
//	    sql: insert into ${table} (name) values
//	    foreach: (#{name})
//	    suffix: returning id
//	    keyProperties: [id]
type Config struct {
	// Properties are substituted into ${name} markers of every statement.
	Properties map[string]string `yaml:"properties,omitempty"`
	Statements []Statement       `yaml:"statements"`
}

// Statement is one insert-like statement. When Foreach is set, the rendered
// SQL is SQL, then Foreach once per parameter object joined by Separator,
// then Suffix. Generated keys are bound when KeyProperties is non-empty, in
// column order.
type Statement struct {
	ID        string `yaml:"id"`
	SQL       string `yaml:"sql"`
	Foreach   string `yaml:"foreach,omitempty"`
	Separator string `yaml:"separator,omitempty"`
	Suffix    string `yaml:"suffix,omitempty"`
	// KeyProperty is a comma separated shorthand appended to KeyProperties.
	KeyProperty   string   `yaml:"keyProperty,omitempty"`
	KeyProperties []string `yaml:"keyProperties,omitempty"`
}

// LoadFile loads and parses a YAML statement file from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read statement file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	err := yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse statement YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *Config) {
	for i := range cfg.Statements {
		cfg.Statements[i].applyDefaults()
	}
}

func (st *Statement) applyDefaults() {
	if st.Foreach != "" && st.Separator == "" {
		st.Separator = ", "
	}
	if st.KeyProperty != "" {
		for _, prop := range strings.Split(st.KeyProperty, ",") {
			if prop = strings.TrimSpace(prop); prop != "" {
				st.KeyProperties = append(st.KeyProperties, prop)
			}
		}
		st.KeyProperty = ""
	}
}

// Validate rejects statements without an ID or SQL and duplicate IDs.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(c.Statements))
	for i, st := range c.Statements {
		switch {
		case st.ID == "":
			errs = append(errs, fmt.Errorf("statement %d: missing id", i))
		case seen[st.ID]:
			errs = append(errs, fmt.Errorf("statement %q: duplicate id", st.ID))
		}
		seen[st.ID] = true
		if strings.TrimSpace(st.SQL) == "" {
			errs = append(errs, fmt.Errorf("statement %q: missing sql", st.ID))
		}
	}
	return errors.Join(errs...)
}
