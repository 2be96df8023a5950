package repository

import (
	"context"
	"errors"
	"time"

	"pdfconv/internal/model"
)

// ErrNoRows is returned when a document does not exist.
var ErrNoRows = errors.New("repository: no rows")

// DocumentRepository stores upload metadata. No business logic here,
// strictly persistence operations.
type DocumentRepository interface {
	// Create saves a new document record and returns the stored document.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// List returns a paginated list of documents, newest first, and the total count.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.Document], error)

	// ListCreatedBefore returns every document created strictly before t.
	ListCreatedBefore(ctx context.Context, t time.Time) ([]model.Document, error)

	// Delete removes a document by ID. It returns nil if the record was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
