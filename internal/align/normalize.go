package align

import "strings"

// NormalizeIdentifier canonicalizes a problem or incident record identifier
// for equality checks between legacy and array-based representations. It
// trims, uppercases, strips a single leading PRB or HIIM token (with an
// optional separator) and removes internal whitespace. Empty input normalizes
// to the empty string, which matches nothing.
func NormalizeIdentifier(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	for _, prefix := range []string{"PRB", "HIIM"} {
		if !strings.HasPrefix(s, prefix) {
			continue
		}
		rest := s[len(prefix):]
		rest = strings.TrimLeft(rest, "-_# ")
		s = rest
		break
	}
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sameIdentifier reports whether two raw identifiers refer to the same
// real-world record. Absent identifiers never match.
func sameIdentifier(a, b string) bool {
	na, nb := NormalizeIdentifier(a), NormalizeIdentifier(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}
