package parsing

import "strings"

const (
	propertyOpen  = "${"
	propertyClose = "}"

	// DefaultSeparator splits ${key:default} markers.
	DefaultSeparator = ":"
)

// ParseProperties substitutes ${key} markers from vars. A marker written as
// ${key:default} falls back to default when key is absent. Markers that
// cannot be resolved are kept literally, delimiters included.
func ParseProperties(text string, vars map[string]string) string {
	return NewTokenParser(propertyOpen, propertyClose, variableHandler(vars)).Parse(text)
}

func variableHandler(vars map[string]string) TokenHandler {
	return HandlerFunc(func(content string) string {
		if len(vars) > 0 {
			if val, ok := vars[content]; ok {
				return val
			}
			if key, def, ok := strings.Cut(content, DefaultSeparator); ok {
				if val, ok := vars[key]; ok {
					return val
				}
				return def
			}
		}
		return propertyOpen + content + propertyClose
	})
}
