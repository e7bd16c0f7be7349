// Package docstore is the boundary to the document store holding profiles and
// transactions.
package docstore

import "context"

// Document is a stored record and its id.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the document store surface finlens uses.
type Store interface {
	// Get returns the document, or ok=false when it does not exist.
	Get(ctx context.Context, collection, id string) (doc Document, ok bool, err error)
	// Set writes data under id. With merge, fields not named in data are
	// kept; without it the document is replaced.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	// Add stores data under a generated id and returns that id.
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	// Query returns every document whose field equals value.
	Query(ctx context.Context, collection, field string, value any) ([]Document, error)
}
