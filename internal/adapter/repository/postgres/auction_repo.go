package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

const (
	selectAuction = `
		SELECT id, item, bid_denom, owner,
		       commission_rate, commission_minimum,
		       closed, highest_bidder, highest_bid,
		       created_at, updated_at
		FROM auctions
		WHERE id = $1
	`

	selectAuctionForUpdate = selectAuction + ` FOR UPDATE`

	selectBids = `
		SELECT bidder, amount
		FROM auction_bids
		WHERE auction_id = $1
	`

	insertAuction = `
		INSERT INTO auctions (
			id, item, bid_denom, owner,
			commission_rate, commission_minimum,
			closed, highest_bidder, highest_bid,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	updateAuctionHighest = `
		UPDATE auctions
		SET highest_bidder = $2, highest_bid = $3, updated_at = $4
		WHERE id = $1
	`

	upsertAuctionBid = `
		INSERT INTO auction_bids (auction_id, bidder, amount, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (auction_id, bidder)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at
	`

	deleteAuctionBid = `
		DELETE FROM auction_bids
		WHERE auction_id = $1 AND bidder = $2
	`

	closeAuction = `
		UPDATE auctions
		SET closed = TRUE, updated_at = $2
		WHERE id = $1
	`

	listAuctions = `
		SELECT id, item, bid_denom, owner,
		       commission_rate, commission_minimum,
		       closed, highest_bidder, highest_bid,
		       created_at, updated_at
		FROM auctions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`
)

// AuctionRepository implements usecase.AuctionRepository.
type AuctionRepository struct {
	pool *pgxpool.Pool
}

// NewAuctionRepository creates a new AuctionRepository.
func NewAuctionRepository(pool *pgxpool.Pool) *AuctionRepository {
	return &AuctionRepository{pool: pool}
}

// Create inserts a new auction. The bids table starts empty.
func (r *AuctionRepository) Create(ctx context.Context, auction *domain.Auction) error {
	_, err := r.pool.Exec(ctx, insertAuction,
		auction.ID,
		auction.Item,
		auction.BidDenom,
		auction.Owner,
		decimalToNumeric(auction.Commission.Rate),
		decimalToNumeric(auction.Commission.MinimumTokens),
		auction.Closed,
		auction.HighestBidder,
		decimalToNumeric(auction.HighestBid),
		timeToPgTimestamptz(auction.CreatedAt),
		timeToPgTimestamptz(auction.UpdatedAt),
	)

	return err
}

// GetByID retrieves an auction snapshot, bids included, without locks.
func (r *AuctionRepository) GetByID(ctx context.Context, id string) (*domain.Auction, error) {
	auction, err := scanAuction(r.pool.QueryRow(ctx, selectAuction, id))
	if err != nil {
		return nil, err
	}

	if err := loadBids(ctx, r.pool, auction); err != nil {
		return nil, err
	}

	return auction, nil
}

// GetByIDForUpdate retrieves the full auction snapshot with the auction row
// locked. Locking the parent row serializes all mutations of one auction,
// so the bids rows need no locks of their own.
func (r *AuctionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Auction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	auction, err := scanAuction(pgxTx.QueryRow(ctx, selectAuctionForUpdate, id))
	if err != nil {
		return nil, err
	}

	if err := loadBids(ctx, pgxTx, auction); err != nil {
		return nil, err
	}

	return auction, nil
}

// UpdateHighest persists the leader columns.
func (r *AuctionRepository) UpdateHighest(ctx context.Context, tx usecase.Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, updateAuctionHighest, id, bidder, decimalToNumeric(amount), timeToPgTimestamptz(updatedAt))

	return err
}

// UpsertBid persists one bidder's cumulative contribution.
func (r *AuctionRepository) UpsertBid(ctx context.Context, tx usecase.Transaction, id, bidder string, amount decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, upsertAuctionBid, id, bidder, decimalToNumeric(amount), timeToPgTimestamptz(updatedAt))

	return err
}

// DeleteBid removes one bidder's ledger entry.
func (r *AuctionRepository) DeleteBid(ctx context.Context, tx usecase.Transaction, id, bidder string) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, deleteAuctionBid, id, bidder)

	return err
}

// SetClosed marks the auction closed.
func (r *AuctionRepository) SetClosed(ctx context.Context, tx usecase.Transaction, id string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, closeAuction, id, timeToPgTimestamptz(updatedAt))

	return err
}

// List lists auctions with pagination. Bid ledgers are not loaded.
func (r *AuctionRepository) List(ctx context.Context, limit, offset int) ([]*domain.Auction, error) {
	rows, err := r.pool.Query(ctx, listAuctions, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	auctions := make([]*domain.Auction, 0, limit)
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auction.Bids = make(map[string]decimal.Decimal)
		auctions = append(auctions, auction)
	}

	return auctions, rows.Err()
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	var (
		auction          domain.Auction
		rate, minimum    pgtype.Numeric
		highestBid       pgtype.Numeric
		created, updated pgtype.Timestamptz
	)

	err := row.Scan(
		&auction.ID,
		&auction.Item,
		&auction.BidDenom,
		&auction.Owner,
		&rate,
		&minimum,
		&auction.Closed,
		&auction.HighestBidder,
		&highestBid,
		&created,
		&updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}

		return nil, err
	}

	auction.Commission = domain.CommissionPolicy{
		Rate:          numericToDecimal(rate),
		MinimumTokens: numericToDecimal(minimum),
	}
	auction.HighestBid = numericToDecimal(highestBid)
	auction.CreatedAt = created.Time
	auction.UpdatedAt = updated.Time

	return &auction, nil
}

type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func loadBids(ctx context.Context, q rowQuerier, auction *domain.Auction) error {
	rows, err := q.Query(ctx, selectBids, auction.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	auction.Bids = make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			bidder string
			amount pgtype.Numeric
		)
		if err := rows.Scan(&bidder, &amount); err != nil {
			return err
		}
		auction.Bids[bidder] = numericToDecimal(amount)
	}

	return rows.Err()
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
