package parsing

import "strings"

// TokenHandler produces the replacement text for the content found between an
// open and a close delimiter.
type TokenHandler interface {
	HandleToken(content string) string
}

// HandlerFunc adapts an ordinary function to TokenHandler.
type HandlerFunc func(content string) string

// HandleToken calls f(content).
func (f HandlerFunc) HandleToken(content string) string {
	return f(content)
}

// TokenParser replaces open...close delimited markers using a TokenHandler.
// It holds no mutable state and is safe for concurrent use as long as its
// handler is.
type TokenParser struct {
	open    string
	close   string
	handler TokenHandler
}

// NewTokenParser returns a parser for the given delimiters. A nil handler
// leaves marker contents as they are, stripping only the delimiters.
func NewTokenParser(open, close string, handler TokenHandler) *TokenParser {
	if handler == nil {
		handler = HandlerFunc(func(content string) string { return content })
	}
	return &TokenParser{open: open, close: close, handler: handler}
}

// Parse returns text with every marker replaced by the handler's result.
// Empty delimiters disable scanning and return text unchanged.
func (p *TokenParser) Parse(text string) string {
	if text == "" {
		return ""
	}
	if p.open == "" || p.close == "" {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))

	offset := 0
	start := indexFrom(text, p.open, offset)
	for start > -1 {
		// The preceding byte only escapes when it has not been emitted yet.
		if start > offset && text[start-1] == '\\' {
			b.WriteString(text[offset : start-1])
			b.WriteString(p.open)
			offset = start + len(p.open)
		} else {
			contentStart := start + len(p.open)
			end := indexFrom(text, p.close, contentStart)
			if end == -1 {
				b.WriteString(text[offset:])
				offset = len(text)
			} else {
				b.WriteString(text[offset:start])
				b.WriteString(p.handler.HandleToken(text[contentStart:end]))
				offset = end + len(p.close)
			}
		}
		start = indexFrom(text, p.open, offset)
	}

	if offset < len(text) {
		b.WriteString(text[offset:])
	}
	return b.String()
}

// indexFrom is strings.Index over text[from:], reporting an absolute index.
func indexFrom(text, sub string, from int) int {
	if from > len(text) {
		return -1
	}
	i := strings.Index(text[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}
