package path

import (
	"errors"
	"strings"
)

var (
	ErrEmptyKey      = errors.New("object key cannot be empty")
	ErrInvalidKey    = errors.New("object key format is invalid")
	ErrPathTraversal = errors.New("object key contains directory traversal")
)

// ValidateKey checks an object key recovered from a URL or built locally.
// It rejects:
// - empty keys
// - directory traversal segments
// - absolute keys and empty segments ("a//b")
// - null bytes
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return ErrInvalidKey
	}
	if strings.Contains(key, "\x00") {
		return ErrInvalidKey
	}

	for _, part := range strings.Split(key, "/") {
		if part == "" {
			return ErrInvalidKey
		}
		// "..", "..." and friends
		if strings.Trim(part, ".") == "" {
			return ErrPathTraversal
		}
	}
	return nil
}

// NormalizeKey strips the leading slashes a URL path carries.
func NormalizeKey(raw string) string {
	return strings.TrimLeft(strings.TrimSpace(raw), "/")
}

// SanitizeSegment makes s safe to use as one key segment. Characters outside
// [A-Za-z0-9._-] become underscores, leading dots are dropped and an empty
// result becomes "unknown".
func SanitizeSegment(s string) string {
	s = strings.TrimSpace(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		default:
			b.WriteByte('_')
		}
	}

	clean := strings.TrimLeft(b.String(), ".")
	if clean == "" {
		return "unknown"
	}
	return clean
}

// JoinKey sanitizes every segment and joins them with "/".
func JoinKey(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		parts = append(parts, SanitizeSegment(s))
	}
	return strings.Join(parts, "/")
}
