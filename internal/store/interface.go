package store

import "context"

// DocumentStore is the read/mutate surface of Store.
// This allows for other backends to be used in tests.
type DocumentStore interface {
	Load(ctx context.Context) (*Document, error)
	Mutate(ctx context.Context, fn TransformFunc) (*Document, error)
}

var _ DocumentStore = (*Store)(nil)
