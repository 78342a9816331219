package model

import (
	"fmt"
	"strings"
)

// NormalizeUsername derives the storage key for a username: trimmed,
// lower-cased, spaces replaced with underscores, and anything outside
// [a-z0-9_-] dropped.
func NormalizeUsername(username string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(username))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	key := b.String()
	if strings.Trim(key, "_-") == "" {
		return "", fmt.Errorf("%w: %q has no usable characters", ErrInvalidUsername, username)
	}
	return key, nil
}
