// Package parsing provides a single-pass scanner for delimited markers such as
// ${name} or #{name} embedded in otherwise opaque text.
//
// # Token Parser
//
// A TokenParser is configured with an open and a close delimiter and a
// TokenHandler. Parse walks the text left to right, hands the content found
// between each delimiter pair to the handler, and splices the handler's result
// into the output:
//
//	p := parsing.NewTokenParser("${", "}", parsing.HandlerFunc(strings.ToUpper))
//	p.Parse("select ${col} from t") // "select COL from t"
//
// # Escaping
//
// A backslash immediately before the open delimiter makes it literal. The
// backslash is dropped and no close delimiter is looked for:
//
//	p.Parse(`a\${b}c`) // "a${b}c"
//
// # Malformed Input
//
// Parse never fails. An open delimiter without a matching close delimiter is
// copied to the output verbatim together with the rest of the text. Markers do
// not nest: the first close delimiter after an open delimiter ends the marker.
//
// # Properties
//
// ParseProperties is a ready-made TokenParser for ${key} substitution from a
// string map, with optional ${key:default} fallbacks.
package parsing
