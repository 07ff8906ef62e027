// Package corpus loads the static knowledge-base text and splits it into
// overlapping retrieval segments.
package corpus

import (
	"errors"
	"fmt"
	"os"
)

// ErrUnreadable indicates the corpus file is missing or unreadable.
// Initialization fails with no fallback corpus.
var ErrUnreadable = errors.New("corpus unreadable")

// Load reads the UTF-8 corpus file at path and returns its raw content.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %w", ErrUnreadable, path, err)
	}
	return string(data), nil
}
