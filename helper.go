// File: lixenwraith/argtree/helper.go
package argtree

import (
	"strings"
	"unicode"
)

// snakeCase converts a Go identifier to snake_case, keeping acronyms
// together: FrameID becomes frame_id and HTTPServer becomes http_server.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// flattenMap converts a nested map[string]any to a flat map keyed by
// delimiter-joined paths.
func flattenMap(nested map[string]any, prefix, delim string) map[string]any {
	flat := make(map[string]any)
	for key, value := range nested {
		path := joinPath(prefix, key, delim)
		if sub, isMap := value.(map[string]any); isMap && len(sub) > 0 {
			for k, v := range flattenMap(sub, path, delim) {
				flat[k] = v
			}
			continue
		}
		flat[path] = value
	}
	return flat
}

// setNestedValue sets a value in a nested map using a delimited path,
// creating or replacing intermediate maps as needed.
func setNestedValue(nested map[string]any, path, delim string, value any) {
	segments := strings.Split(path, delim)
	current := nested
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

// isValidKeySegment reports whether s is usable as one segment of an
// argument path: ASCII letters, digits, underscores and dashes.
func isValidKeySegment(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !(isLetter || isDigit || r == '_' || r == '-') {
			return false
		}
	}
	return true
}
