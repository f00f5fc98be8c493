// Package storage persists the business catalog and answers predicate lookups.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/bizsearch/internal/models"
	"github.com/hyperjump/bizsearch/internal/query"
)

// ErrNotFound is returned when a requested business does not exist.
var ErrNotFound = errors.New("business not found")

// Catalog defines business catalog operations.
type Catalog interface {
	// Lookup returns at most limit open businesses matching the predicate, in storage order.
	Lookup(ctx context.Context, p query.Predicate, limit int) ([]models.BusinessRecord, error)

	// Business operations
	CreateBusiness(ctx context.Context, b *models.BusinessRecord) error
	GetBusiness(ctx context.Context, id int64) (*models.BusinessRecord, error)
	ListBusinesses(ctx context.Context, offset, limit int) ([]*models.BusinessRecord, error)
	FindByPhone(ctx context.Context, phone string) (*models.BusinessRecord, error)

	// Batch operations
	BatchCreateBusinesses(ctx context.Context, businesses []*models.BusinessRecord) error

	// Stats
	CountBusinesses(ctx context.Context) (int64, error)
	SizeBytes(ctx context.Context) (int64, error)

	Close() error
}
