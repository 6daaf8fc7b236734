package port

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("document not found")

// Document is a stored record addressed by a slash-separated path such
// as orders/{id} or users/{id}/loyaltyPoints/{vendorId}. ID is the last
// path segment.
type Document struct {
	ID   string
	Path string
	Data json.RawMessage
}

// Decode unmarshals the document payload into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Filter is a single field comparison applied by Query. Op is one of
// ==, !=, <, <=, >, >=.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Tx is the handle passed to a transaction function. Reads taken
// through it are isolated from concurrent transactions and every write
// commits atomically or not at all.
type Tx interface {
	Get(path string) (Document, error)
	Set(path string, data any) error
	Update(path string, fields map[string]any) error
}

// DocumentStore is the hosted document database collaborator. All
// shared mutable state (orders, loyalty accounts) lives behind it;
// the application never keeps an authoritative in-memory copy.
type DocumentStore interface {
	// Get returns the document at path, or ErrNotFound.
	Get(ctx context.Context, path string) (Document, error)

	// Set writes data at path, creating the document if absent. With
	// merge, existing fields not present in data are preserved.
	Set(ctx context.Context, path string, data any, merge bool) error

	// Update patches fields into an existing document, failing with
	// ErrNotFound if it does not exist.
	Update(ctx context.Context, path string, fields map[string]any) error

	// Delete removes the document at path.
	Delete(ctx context.Context, path string) error

	// Query returns the documents of a collection matching all filters.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)

	// RunTransaction executes fn with all-or-nothing commit semantics,
	// retrying automatically when a concurrent transaction conflicts.
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error

	// ServerTime returns the store's wall clock, used for
	// store-assigned timestamps.
	ServerTime(ctx context.Context) (time.Time, error)
}
