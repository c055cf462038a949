package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

const (
	insertInstruction = `
		INSERT INTO transfer_instructions (
			id, auction_id, destination, amount, denom, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	selectInstructionsByAuction = `
		SELECT id, auction_id, destination, amount, denom, reason, created_at, executed_at
		FROM transfer_instructions
		WHERE auction_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`

	selectUnexecutedInstructions = `
		SELECT id, auction_id, destination, amount, denom, reason, created_at, executed_at
		FROM transfer_instructions
		WHERE executed_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`

	markInstructionExecuted = `
		UPDATE transfer_instructions
		SET executed_at = $2
		WHERE id = $1 AND executed_at IS NULL
	`
)

// InstructionRepository implements usecase.InstructionRepository. Transfer
// instructions are written in the same transaction as the state change that
// emitted them; the settlement worker drains them afterwards.
type InstructionRepository struct {
	pool *pgxpool.Pool
}

// NewInstructionRepository creates a new InstructionRepository.
func NewInstructionRepository(pool *pgxpool.Pool) *InstructionRepository {
	return &InstructionRepository{pool: pool}
}

// Create records an instruction within a transaction.
func (r *InstructionRepository) Create(ctx context.Context, tx usecase.Transaction, instruction *domain.TransferInstruction) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx, insertInstruction,
		instruction.ID,
		instruction.AuctionID,
		instruction.Destination,
		decimalToNumeric(instruction.Amount),
		instruction.Denom,
		string(instruction.Reason),
		timeToPgTimestamptz(instruction.CreatedAt),
	)

	return err
}

// ListByAuction retrieves the instructions recorded for one auction.
func (r *InstructionRepository) ListByAuction(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error) {
	rows, err := r.pool.Query(ctx, selectInstructionsByAuction, auctionID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstructions(rows)
}

// GetUnexecuted retrieves instructions not yet settled, oldest first.
func (r *InstructionRepository) GetUnexecuted(ctx context.Context, limit int) ([]*domain.TransferInstruction, error) {
	rows, err := r.pool.Query(ctx, selectUnexecutedInstructions, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInstructions(rows)
}

// MarkExecuted marks an instruction as settled. Already-settled rows are
// left untouched, so replays are harmless.
func (r *InstructionRepository) MarkExecuted(ctx context.Context, id string, executedAt time.Time) error {
	_, err := r.pool.Exec(ctx, markInstructionExecuted, id, timeToPgTimestamptz(executedAt))

	return err
}

func scanInstructions(rows pgx.Rows) ([]*domain.TransferInstruction, error) {
	var instructions []*domain.TransferInstruction

	for rows.Next() {
		var (
			instruction domain.TransferInstruction
			amount      pgtype.Numeric
			reason      string
			created     pgtype.Timestamptz
			executed    pgtype.Timestamptz
		)

		err := rows.Scan(
			&instruction.ID,
			&instruction.AuctionID,
			&instruction.Destination,
			&amount,
			&instruction.Denom,
			&reason,
			&created,
			&executed,
		)
		if err != nil {
			return nil, err
		}

		instruction.Amount = numericToDecimal(amount)
		instruction.Reason = domain.InstructionReason(reason)
		instruction.CreatedAt = created.Time
		if executed.Valid {
			t := executed.Time
			instruction.ExecutedAt = &t
		}

		instructions = append(instructions, &instruction)
	}

	return instructions, rows.Err()
}
