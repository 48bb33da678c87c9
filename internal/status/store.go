package status

import (
	"context"
	"errors"

	"github.com/mliu/reelgen/internal/domain"
)

// ErrNotFound is returned when no record exists for a job id, including
// records that have expired.
var ErrNotFound = errors.New("job record not found")

// Store is the durable progress ledger for video generation jobs. Records
// carry a TTL; every update refreshes it. The store is not a queue: it has
// no consumer semantics, callers poll it for readiness.
type Store interface {
	// Create persists a new job record with the configured TTL.
	Create(ctx context.Context, rec *domain.JobRecord) error

	// Update rewrites the record and refreshes its TTL.
	Update(ctx context.Context, rec *domain.JobRecord) error

	// Get returns the record for id, or ErrNotFound after expiry.
	Get(ctx context.Context, id string) (*domain.JobRecord, error)
}

// StockRegistry maps opaque stock media ids to pre-resolved URLs registered
// ahead of video generation. Entries expire on the same TTL as job records.
type StockRegistry interface {
	RegisterStockMedia(ctx context.Context, id, url string) error

	// LookupStockMedia returns the registered URL, or ErrNotFound.
	LookupStockMedia(ctx context.Context, id string) (string, error)
}
