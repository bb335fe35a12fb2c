package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recorder is a TokenHandler that records every content it was handed.
type recorder struct {
	vars  map[string]string
	calls []string
}

func (r *recorder) HandleToken(content string) string {
	r.calls = append(r.calls, content)
	if val, ok := r.vars[content]; ok {
		return val
	}
	return strings.ToUpper(content)
}

func TestTokenParser_Parse(t *testing.T) {
	tests := []struct {
		name      string
		open      string
		close     string
		text      string
		want      string
		wantCalls []string
	}{
		{
			name:  "empty text",
			open:  "${",
			close: "}",
			text:  "",
			want:  "",
		},
		{
			name:  "no markers",
			open:  "${",
			close: "}",
			text:  "select * from users where id = 1",
			want:  "select * from users where id = 1",
		},
		{
			name:  "close without open",
			open:  "${",
			close: "}",
			text:  "a } b $ { c",
			want:  "a } b $ { c",
		},
		{
			name:      "several markers",
			open:      "${",
			close:     "}",
			text:      "${first_name} ${initial} ${last_name} reporting.",
			want:      "James T Kirk reporting.",
			wantCalls: []string{"first_name", "initial", "last_name"},
		},
		{
			name:      "marker at position zero",
			open:      "${",
			close:     "}",
			text:      "${a}",
			want:      "A",
			wantCalls: []string{"a"},
		},
		{
			name:      "adjacent markers",
			open:      "${",
			close:     "}",
			text:      "${a}${b}",
			want:      "AB",
			wantCalls: []string{"a", "b"},
		},
		{
			name:  "escaped marker",
			open:  "${",
			close: "}",
			text:  `a\${b}c`,
			want:  "a${b}c",
		},
		{
			name:      "escaped marker followed by real marker",
			open:      "${",
			close:     "}",
			text:      `\${a}${b}`,
			want:      "${a}B",
			wantCalls: []string{"b"},
		},
		{
			name:      "escaped open directly followed by marker",
			open:      "${",
			close:     "}",
			text:      `x\${${b}`,
			want:      "x${B",
			wantCalls: []string{"b"},
		},
		{
			name:  "unterminated marker",
			open:  "${",
			close: "}",
			text:  "x${y",
			want:  "x${y",
		},
		{
			name:      "unterminated marker after a real one",
			open:      "${",
			close:     "}",
			text:      "${a} and ${b",
			want:      "A and ${b",
			wantCalls: []string{"a"},
		},
		{
			name:      "nesting is not supported",
			open:      "${",
			close:     "}",
			text:      "${a${b}}",
			want:      "A${B}",
			wantCalls: []string{"a${b"},
		},
		{
			name:      "empty content",
			open:      "#{",
			close:     "}",
			text:      "x = #{}",
			want:      "x = ",
			wantCalls: []string{""},
		},
		{
			name:      "multi character close",
			open:      "<%",
			close:     "%>",
			text:      "<p><% name %></p>",
			want:      "<p> NAME </p>",
			wantCalls: []string{" name "},
		},
		{
			name:      "overlapping delimiter characters",
			open:      "{{",
			close:     "}}",
			text:      "{{{a}}}",
			want:      "{A}",
			wantCalls: []string{"{a"},
		},
		{
			name:      "close shares characters with open",
			open:      "{{",
			close:     "{",
			text:      "{{a{b",
			want:      "Ab",
			wantCalls: []string{"a"},
		},
		{
			name:  "empty delimiters disable scanning",
			open:  "",
			close: "}",
			text:  "${a}",
			want:  "${a}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recorder{vars: map[string]string{
				"first_name": "James",
				"initial":    "T",
				"last_name":  "Kirk",
			}}
			got := NewTokenParser(tt.open, tt.close, h).Parse(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, h.calls)
		})
	}
}

func TestTokenParser_DoesNotRescanOutput(t *testing.T) {
	var calls int
	p := NewTokenParser("${", "}", HandlerFunc(func(content string) string {
		calls++
		return "${" + content + "}"
	}))

	assert.Equal(t, "a ${b} c", p.Parse("a ${b} c"))
	assert.Equal(t, 1, calls)
}

func TestTokenParser_NilHandler(t *testing.T) {
	p := NewTokenParser("#{", "}", nil)
	assert.Equal(t, "id = id", p.Parse("id = #{id}"))
}

func TestTokenParser_NoOpenIsIdentity(t *testing.T) {
	texts := []string{
		"plain",
		"with } close only",
		`with \ backslash`,
		"unicode ✓ text {",
	}

	p := NewTokenParser("${", "}", HandlerFunc(func(string) string {
		t.Fatal("handler must not be invoked")
		return ""
	}))
	for _, text := range texts {
		assert.Equal(t, text, p.Parse(text))
	}
}

func BenchmarkTokenParser_Parse(b *testing.B) {
	text := strings.Repeat(`select ${col} from ${table} where a = \${literal} and `, 64)
	p := NewTokenParser("${", "}", HandlerFunc(strings.ToUpper))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Parse(text)
	}
}
