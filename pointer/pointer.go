// Package pointer resolves slash-delimited JSON Pointer paths (RFC 6901)
// against documents built from the JSON data model.
//
// Pointers may be given in fragment form ("#/definitions/Pet") or bare form
// ("/definitions/Pet"). The empty pointer and "#" identify the whole document.
package pointer

import (
	"net/url"
	"strconv"
	"strings"
)

// Resolve returns the value at ptr inside doc.
// It reports false if any segment is absent or is applied to a scalar.
func Resolve(doc any, ptr string) (any, bool) {
	current := doc
	for _, token := range Parse(ptr) {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[token]
			if !ok {
				return nil, false
			}
			current = next

		case []any:
			index, ok := parseIndex(token)
			if !ok || index >= len(v) {
				return nil, false
			}
			current = v[index]

		default:
			return nil, false
		}
	}
	return current, true
}

// Parse splits ptr into unescaped reference tokens.
// A leading "#" and the leading empty segment are discarded.
func Parse(ptr string) []string {
	ptr = strings.TrimPrefix(ptr, "#")
	if ptr == "" || ptr == "/" {
		return nil
	}
	parts := strings.Split(strings.TrimPrefix(ptr, "/"), "/")
	for i, part := range parts {
		parts[i] = Unescape(part)
	}
	return parts
}

// Format builds a fragment pointer ("#/a/b") from unescaped tokens.
func Format(tokens []string) string {
	if len(tokens) == 0 {
		return "#"
	}
	var b strings.Builder
	b.WriteByte('#')
	for _, token := range tokens {
		b.WriteByte('/')
		b.WriteString(Escape(token))
	}
	return b.String()
}

// IsRoot reports whether ptr identifies the whole document.
func IsRoot(ptr string) bool {
	return len(Parse(ptr)) == 0
}

// IsPrefix reports whether ancestor identifies ptr or one of its ancestors.
// The comparison is segment-wise: "#/a" is a prefix of "#/a/b" but not of "#/ab".
func IsPrefix(ancestor, ptr string) bool {
	a, p := Parse(ancestor), Parse(ptr)
	if len(a) > len(p) {
		return false
	}
	for i := range a {
		if a[i] != p[i] {
			return false
		}
	}
	return true
}

// Escape encodes a single token per RFC 6901 (~ becomes ~0, / becomes ~1).
func Escape(token string) string {
	if !strings.ContainsAny(token, "~/") {
		return token
	}
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// Unescape decodes a single token.
// Per RFC 6901, ~1 represents / and ~0 represents ~. Percent-encoded
// characters from URI fragments are decoded afterwards; an invalid escape
// leaves the token as-is.
func Unescape(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	token = strings.ReplaceAll(token, "~0", "~")
	if strings.Contains(token, "%") {
		if decoded, err := url.PathUnescape(token); err == nil {
			token = decoded
		}
	}
	return token
}

// parseIndex accepts only canonical non-negative decimal indices.
func parseIndex(token string) (int, bool) {
	if token == "" || (len(token) > 1 && token[0] == '0') {
		return 0, false
	}
	for _, c := range token {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	index, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return index, true
}
