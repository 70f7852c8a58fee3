package casing

import (
	"strings"
	"unicode"
)

// words splits a Go identifier into its word parts. Boundaries are
// lower-to-upper transitions, the last uppercase rune of an acronym run
// followed by a lowercase rune (e.g. "HTTPStatus" -> "HTTP", "Status"),
// and explicit separators (underscore, hyphen, space).
func words(s string) []string {
	var out []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = nil
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			if len(cur) > 0 && !unicode.IsUpper(cur[len(cur)-1]) {
				flush()
			} else if len(cur) > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				// end of an acronym run: the last capital starts the next word
				flush()
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}

// Camel converts a field name to lowerCamelCase ("HTTPStatus" -> "httpStatus").
func Camel(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(ws[0]))
	for _, w := range ws[1:] {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Pascal converts a field name to UpperCamelCase ("user_id" -> "UserId").
func Pascal(s string) string {
	ws := words(s)
	if len(ws) == 0 {
		return s
	}
	var b strings.Builder
	for _, w := range ws {
		b.WriteString(capitalize(w))
	}
	return b.String()
}

// Snake converts a field name to snake_case ("FirstName" -> "first_name").
func Snake(s string) string {
	return join(s, '_')
}

// Kebab converts a field name to kebab-case ("FirstName" -> "first-name").
func Kebab(s string) string {
	return join(s, '-')
}

func join(s string, sep rune) string {
	ws := words(s)
	if len(ws) == 0 {
		return s
	}
	lowered := make([]string, len(ws))
	for i, w := range ws {
		lowered[i] = strings.ToLower(w)
	}
	return strings.Join(lowered, string(sep))
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
