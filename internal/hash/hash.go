package hash

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
)

// Any serializes the given value and returns its FNV-1a 64-bit hash as a hex string.
func Any(a any) (string, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to serialize: %w", err)
	}
	return sum(data), nil
}

// Key hashes newline separated parts into a hex string.
func Key(parts ...string) string {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))    // nolint:errcheck
		h.Write([]byte{'\n'}) // nolint:errcheck
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// Short returns the first n hex characters of the hash of s.
func Short(s string, n int) string {
	k := sum([]byte(s))
	if n <= 0 || n > len(k) {
		return k
	}
	return k[:n]
}

func sum(data []byte) string {
	h := fnv.New64a()
	h.Write(data) // nolint:errcheck
	return fmt.Sprintf("%016x", h.Sum64())
}
