// Package storage persists the catalog document. Each Gateway stores one
// serialized document and knows nothing about its structure.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Read when no document has been written yet.
var ErrNotFound = errors.New("catalog document not found")

// DefaultDocument is the document name used by the database-backed gateways.
const DefaultDocument = "default"

const dbTimeout = 5 * time.Second

// Gateway reads and writes the serialized catalog document.
type Gateway interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
}
