package utils

import (
	"github.com/oklog/ulid/v2"
)

// NewID returns a lexicographically sortable unique identifier (ULID).
// IDs generated within the same millisecond stay ordered.
func NewID() string {
	return ulid.Make().String()
}
