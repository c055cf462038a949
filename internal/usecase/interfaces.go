package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/domain"
)

// AuctionRepository defines data access for the auction ledger.
type AuctionRepository interface {
	Create(ctx context.Context, auction *domain.Auction) error
	GetByID(ctx context.Context, id string) (*domain.Auction, error)
	// GetByIDForUpdate loads the full auction snapshot, bids included, with
	// row locks so one call at a time mutates a given auction.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Auction, error)
	UpdateHighest(ctx context.Context, tx Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error
	UpsertBid(ctx context.Context, tx Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error
	DeleteBid(ctx context.Context, tx Transaction, id, bidder string) error
	SetClosed(ctx context.Context, tx Transaction, id string, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Auction, error)
}

// InstructionRepository records the transfer instructions the core emits.
// The host environment drains unexecuted instructions and marks them done;
// the core itself never moves funds.
type InstructionRepository interface {
	Create(ctx context.Context, tx Transaction, instruction *domain.TransferInstruction) error
	ListByAuction(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error)
	GetUnexecuted(ctx context.Context, limit int) ([]*domain.TransferInstruction, error)
	MarkExecuted(ctx context.Context, id string, executedAt time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation on transient database errors. A failed
// Execute attempt rolls back its transaction, so retries are safe.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
