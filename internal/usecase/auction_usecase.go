package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/infrastructure/metrics"
)

const highestBidCacheTTL = 30 * time.Second

// AuctionUseCase drives the pure auction state machine against the durable
// ledger. Every state-changing call runs inside a single transaction: the
// snapshot is loaded with row locks, mutated in memory, and persisted
// together with the emitted transfer instructions, all-or-nothing.
type AuctionUseCase struct {
	txManager       TransactionManager
	auctionRepo     AuctionRepository
	instructionRepo InstructionRepository
	idGen           IDGenerator
	cache           Cache
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	retrier         Retrier
}

// NewAuctionUseCase creates a new AuctionUseCase. cache and m may be nil.
func NewAuctionUseCase(
	txManager TransactionManager,
	auctionRepo AuctionRepository,
	instructionRepo InstructionRepository,
	idGen IDGenerator,
	cache Cache,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *AuctionUseCase {
	return &AuctionUseCase{
		txManager:       txManager,
		auctionRepo:     auctionRepo,
		instructionRepo: instructionRepo,
		idGen:           idGen,
		cache:           cache,
		metrics:         m,
		logger:          logger,
	}
}

// WithRetrier makes Execute re-run on transient database errors such as
// deadlocks between concurrent bids on the same auction.
func (uc *AuctionUseCase) WithRetrier(r Retrier) *AuctionUseCase {
	uc.retrier = r
	return uc
}

// CreateAuctionInput represents input for creating an auction.
type CreateAuctionInput struct {
	Item              string
	BidDenom          string
	Creator           string
	Owner             string // optional, defaults to Creator
	CommissionRate    decimal.Decimal
	CommissionMinimum decimal.Decimal
}

// CreateAuction creates a new open auction. The owner defaults to the
// creator; a specified owner override is validated first.
func (uc *AuctionUseCase) CreateAuction(ctx context.Context, input CreateAuctionInput) (*domain.Auction, error) {
	if err := domain.ValidateAddress(input.Creator); err != nil {
		return nil, err
	}
	if err := domain.ValidateDenom(input.BidDenom); err != nil {
		return nil, err
	}

	owner := input.Creator
	if input.Owner != "" {
		if err := domain.ValidateAddress(input.Owner); err != nil {
			return nil, err
		}
		owner = input.Owner
	}

	policy := domain.CommissionPolicy{
		Rate:          input.CommissionRate,
		MinimumTokens: input.CommissionMinimum,
	}

	auction, err := domain.NewAuction(uc.idGen.Generate(), input.Item, input.BidDenom, owner, policy, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if err := uc.auctionRepo.Create(ctx, auction); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AuctionsCreated.Inc()
	}

	uc.logger.Info().
		Str("auction_id", auction.ID).
		Str("item", auction.Item).
		Str("owner", auction.Owner).
		Msg("auction created")

	return auction, nil
}

// Execute runs one state-changing message against an auction. The call
// either fully succeeds, with the mutation and all transfer instructions
// committed together, or fully fails leaving the ledger unmodified.
func (uc *AuctionUseCase) Execute(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
	if err := domain.ValidateAddress(sender); err != nil {
		return nil, err
	}
	if m, ok := msg.(domain.RetractMsg); ok && m.Beneficiary != "" {
		if err := domain.ValidateAddress(m.Beneficiary); err != nil {
			return nil, err
		}
	}

	if uc.retrier == nil {
		return uc.executeOnce(ctx, auctionID, sender, msg)
	}

	var result *domain.ExecuteResult
	err := uc.retrier.Retry(ctx, func() error {
		var attemptErr error
		result, attemptErr = uc.executeOnce(ctx, auctionID, sender, msg)
		return attemptErr
	})

	return result, err
}

// executeOnce runs one transactional attempt of Execute.
func (uc *AuctionUseCase) executeOnce(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	auction, err := uc.auctionRepo.GetByIDForUpdate(ctx, tx, auctionID)
	if err != nil {
		return nil, err
	}

	result, err := auction.Execute(sender, msg)
	if err != nil {
		uc.observeFailure(msg, err)
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.persistMutation(ctx, tx, auction, sender, msg, result, now); err != nil {
		return nil, err
	}

	for _, instruction := range result.Instructions {
		instruction.ID = uc.idGen.Generate()
		instruction.AuctionID = auction.ID
		instruction.CreatedAt = now

		if err := uc.instructionRepo.Create(ctx, tx, instruction); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.invalidateViewCache(ctx, auction.ID)
	uc.observeSuccess(result)

	uc.logger.Info().
		Str("auction_id", auction.ID).
		Str("action", result.Action).
		Fields(attributeFields(result.Attributes)).
		Msg("execute applied")

	return result, nil
}

// persistMutation writes the state changes one accepted message implies.
func (uc *AuctionUseCase) persistMutation(
	ctx context.Context,
	tx Transaction,
	auction *domain.Auction,
	sender string,
	msg domain.ExecuteMsg,
	result *domain.ExecuteResult,
	now time.Time,
) error {
	switch msg.(type) {
	case domain.BidMsg:
		if err := uc.auctionRepo.UpdateHighest(ctx, tx, auction.ID, auction.HighestBidder, auction.HighestBid, now); err != nil {
			return err
		}

		return uc.auctionRepo.UpsertBid(ctx, tx, auction.ID, result.Bid.Bidder, result.Bid.TotalAmount, now)

	case domain.CloseMsg:
		return uc.auctionRepo.SetClosed(ctx, tx, auction.ID, now)

	case domain.RetractMsg:
		if result.Refund.Refund == nil {
			return nil
		}

		return uc.auctionRepo.DeleteBid(ctx, tx, auction.ID, sender)
	}

	return nil
}

// QueryHighestBid returns the leader projection, served from cache when
// possible. The cache entry is invalidated on every successful Execute.
func (uc *AuctionUseCase) QueryHighestBid(ctx context.Context, auctionID string) (*domain.HighestBidView, error) {
	cacheKey := highestBidCacheKey(auctionID)

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, cacheKey); err == nil && cached != nil {
			var view domain.HighestBidView
			if err := json.Unmarshal(cached, &view); err == nil {
				return &view, nil
			}
		}
	}

	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	view := auction.ViewHighestBid()

	if uc.cache != nil {
		if payload, err := json.Marshal(view); err == nil {
			_ = uc.cache.Set(ctx, cacheKey, payload, highestBidCacheTTL)
		}
	}

	return view, nil
}

// QueryTotalBid returns one bidder's cumulative contribution projection.
func (uc *AuctionUseCase) QueryTotalBid(ctx context.Context, auctionID, addr string) (*domain.TotalBidView, error) {
	if err := domain.ValidateAddress(addr); err != nil {
		return nil, err
	}

	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}

	return auction.ViewTotalBid(addr), nil
}

// GetAuction retrieves an auction by ID.
func (uc *AuctionUseCase) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	return uc.auctionRepo.GetByID(ctx, id)
}

// ListAuctionsInput represents input for listing auctions.
type ListAuctionsInput struct {
	Limit  int
	Offset int
}

// ListAuctions lists auctions.
func (uc *AuctionUseCase) ListAuctions(ctx context.Context, input ListAuctionsInput) ([]*domain.Auction, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	if input.Limit > 100 {
		input.Limit = 100
	}

	return uc.auctionRepo.List(ctx, input.Limit, input.Offset)
}

// ListInstructions lists the transfer instructions recorded for an auction.
func (uc *AuctionUseCase) ListInstructions(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error) {
	if limit <= 0 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	return uc.instructionRepo.ListByAuction(ctx, auctionID, limit, offset)
}

func (uc *AuctionUseCase) invalidateViewCache(ctx context.Context, auctionID string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, highestBidCacheKey(auctionID)); err != nil {
		uc.logger.Warn().Err(err).Str("auction_id", auctionID).Msg("failed to invalidate view cache")
	}
}

func (uc *AuctionUseCase) observeSuccess(result *domain.ExecuteResult) {
	if uc.metrics == nil {
		return
	}

	switch result.Action {
	case "bid":
		uc.metrics.BidsAccepted.Inc()
		if result.Bid != nil && result.Bid.Fee.IsPositive() {
			fee, _ := result.Bid.Fee.Float64()
			uc.metrics.CommissionCollected.Observe(fee)
		}
	case "close":
		uc.metrics.AuctionsClosed.Inc()
	case "retract":
		uc.metrics.Retractions.Inc()
	}

	for _, instruction := range result.Instructions {
		uc.metrics.InstructionsEmitted.WithLabelValues(string(instruction.Reason)).Inc()
	}
}

func (uc *AuctionUseCase) observeFailure(msg domain.ExecuteMsg, err error) {
	if uc.metrics == nil {
		return
	}

	if _, ok := msg.(domain.BidMsg); ok {
		uc.metrics.BidsRejected.WithLabelValues(rejectionReason(err)).Inc()
	}
}

func rejectionReason(err error) string {
	var (
		rejected *domain.BidRejectedError
		missing  *domain.MissingFundsError
	)

	switch {
	case errors.As(err, &rejected):
		return "below_highest"
	case errors.As(err, &missing):
		return "missing_funds"
	case errors.Is(err, domain.ErrBidClosed):
		return "closed"
	case errors.Is(err, domain.ErrOwnerCannotBid):
		return "owner_bid"
	default:
		return "other"
	}
}

func highestBidCacheKey(auctionID string) string {
	return "highest_bid:" + auctionID
}

func attributeFields(attrs map[string]string) map[string]any {
	fields := make(map[string]any, len(attrs))
	for k, v := range attrs {
		fields[k] = v
	}

	return fields
}
