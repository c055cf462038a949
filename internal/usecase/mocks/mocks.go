package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

// MockTransaction is a no-op transaction recording its lifecycle.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	if t.CommitFunc != nil {
		return t.CommitFunc(ctx)
	}
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if t.RollbackFunc != nil {
		return t.RollbackFunc(ctx)
	}
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	LastTx *MockTransaction
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	m.LastTx = &MockTransaction{}
	return m.LastTx, nil
}

// MockAuctionRepository is an in-memory implementation of
// usecase.AuctionRepository with per-method overrides.
type MockAuctionRepository struct {
	mu       sync.RWMutex
	auctions map[string]*domain.Auction

	CreateFunc           func(ctx context.Context, auction *domain.Auction) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Auction, error)
	GetByIDForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id string) (*domain.Auction, error)
	UpdateHighestFunc    func(ctx context.Context, tx usecase.Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error
	UpsertBidFunc        func(ctx context.Context, tx usecase.Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error
	DeleteBidFunc        func(ctx context.Context, tx usecase.Transaction, id, bidder string) error
	SetClosedFunc        func(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error
	ListFunc             func(ctx context.Context, limit, offset int) ([]*domain.Auction, error)
}

func NewMockAuctionRepository() *MockAuctionRepository {
	return &MockAuctionRepository{
		auctions: make(map[string]*domain.Auction),
	}
}

func cloneAuction(a *domain.Auction) *domain.Auction {
	c := *a
	c.Bids = make(map[string]decimal.Decimal, len(a.Bids))
	for k, v := range a.Bids {
		c.Bids[k] = v
	}
	return &c
}

func (m *MockAuctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, auction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auctions[auction.ID] = cloneAuction(auction)
	return nil
}

func (m *MockAuctionRepository) GetByID(ctx context.Context, id string) (*domain.Auction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.auctions[id]; ok {
		return cloneAuction(a), nil
	}
	return nil, domain.ErrAuctionNotFound
}

func (m *MockAuctionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Auction, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockAuctionRepository) UpdateHighest(ctx context.Context, tx usecase.Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateHighestFunc != nil {
		return m.UpdateHighestFunc(ctx, tx, id, bidder, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	a.HighestBidder = bidder
	a.HighestBid = amount
	a.UpdatedAt = updatedAt
	return nil
}

func (m *MockAuctionRepository) UpsertBid(ctx context.Context, tx usecase.Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error {
	if m.UpsertBidFunc != nil {
		return m.UpsertBidFunc(ctx, tx, id, bidder, amount, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	a.Bids[bidder] = amount
	return nil
}

func (m *MockAuctionRepository) DeleteBid(ctx context.Context, tx usecase.Transaction, id, bidder string) error {
	if m.DeleteBidFunc != nil {
		return m.DeleteBidFunc(ctx, tx, id, bidder)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	delete(a.Bids, bidder)
	return nil
}

func (m *MockAuctionRepository) SetClosed(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	if m.SetClosedFunc != nil {
		return m.SetClosedFunc(ctx, tx, id, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	a.Closed = true
	a.UpdatedAt = updatedAt
	return nil
}

func (m *MockAuctionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Auction, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	auctions := make([]*domain.Auction, 0, len(m.auctions))
	for _, a := range m.auctions {
		auctions = append(auctions, cloneAuction(a))
	}
	return auctions, nil
}

// Stored returns the stored state of an auction for assertions.
func (m *MockAuctionRepository) Stored(id string) *domain.Auction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.auctions[id]; ok {
		return cloneAuction(a)
	}
	return nil
}

// MockInstructionRepository is an in-memory implementation of
// usecase.InstructionRepository.
type MockInstructionRepository struct {
	mu           sync.RWMutex
	instructions []*domain.TransferInstruction

	CreateFunc        func(ctx context.Context, tx usecase.Transaction, instruction *domain.TransferInstruction) error
	ListByAuctionFunc func(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error)
	GetUnexecutedFunc func(ctx context.Context, limit int) ([]*domain.TransferInstruction, error)
	MarkExecutedFunc  func(ctx context.Context, id string, executedAt time.Time) error
}

func NewMockInstructionRepository() *MockInstructionRepository {
	return &MockInstructionRepository{}
}

func (m *MockInstructionRepository) Create(ctx context.Context, tx usecase.Transaction, instruction *domain.TransferInstruction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, instruction)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *instruction
	m.instructions = append(m.instructions, &copied)
	return nil
}

func (m *MockInstructionRepository) ListByAuction(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error) {
	if m.ListByAuctionFunc != nil {
		return m.ListByAuctionFunc(ctx, auctionID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TransferInstruction
	for _, ins := range m.instructions {
		if ins.AuctionID == auctionID {
			copied := *ins
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockInstructionRepository) GetUnexecuted(ctx context.Context, limit int) ([]*domain.TransferInstruction, error) {
	if m.GetUnexecutedFunc != nil {
		return m.GetUnexecutedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TransferInstruction
	for _, ins := range m.instructions {
		if ins.ExecutedAt == nil {
			copied := *ins
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *MockInstructionRepository) MarkExecuted(ctx context.Context, id string, executedAt time.Time) error {
	if m.MarkExecutedFunc != nil {
		return m.MarkExecutedFunc(ctx, id, executedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ins := range m.instructions {
		if ins.ID == id {
			at := executedAt
			ins.ExecutedAt = &at
			return nil
		}
	}
	return fmt.Errorf("instruction %s not found", id)
}

// All returns every recorded instruction for assertions.
func (m *MockInstructionRepository) All() []*domain.TransferInstruction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.TransferInstruction, 0, len(m.instructions))
	for _, ins := range m.instructions {
		copied := *ins
		result = append(result, &copied)
	}
	return result
}

// MockIDGenerator generates sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (g *MockIDGenerator) Generate() string {
	if g.GenerateFunc != nil {
		return g.GenerateFunc()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("test-id-%d", g.counter)
}

// MockCache is an in-memory implementation of usecase.Cache. TTLs are
// ignored.
type MockCache struct {
	mu      sync.RWMutex
	entries map[string][]byte

	GetFunc    func(ctx context.Context, key string) ([]byte, error)
	SetFunc    func(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteFunc func(ctx context.Context, key string) error
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string][]byte)}
}

func (c *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.GetFunc != nil {
		return c.GetFunc(ctx, key)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (c *MockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.SetFunc != nil {
		return c.SetFunc(ctx, key, value, ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *MockCache) Delete(ctx context.Context, key string) error {
	if c.DeleteFunc != nil {
		return c.DeleteFunc(ctx, key)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Contains reports whether a key is cached.
func (c *MockCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[key]
	return ok
}
