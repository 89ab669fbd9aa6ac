package util

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidKey is returned for keys that are empty or escape their bucket.
var ErrInvalidKey = errors.New("invalid object key")

// CleanObjectKey normalizes an object key for use as a relative path and
// rejects traversal patterns.
func CleanObjectKey(key string) (string, error) {
	s := strings.TrimSpace(key)
	s = strings.ReplaceAll(s, "\\", "/")
	s = strings.TrimLeft(s, "/")
	if s == "" {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(s, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return path.Clean(s), nil
}

// Extension returns the lower-cased substring after the last '.' in key, or
// "" when the key has no dot.
func Extension(key string) string {
	idx := strings.LastIndex(key, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(key[idx+1:])
}
