package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstructionReason tags why a transfer instruction was emitted.
type InstructionReason string

const (
	ReasonCommission    InstructionReason = "commission"
	ReasonClosingPayout InstructionReason = "closing_payout"
	ReasonRefund        InstructionReason = "refund"
)

// TransferInstruction is a declarative order to move funds. The core never
// moves funds itself; the host environment reads recorded instructions and
// executes them. ID, AuctionID and CreatedAt are stamped by the
// application layer when the instruction is persisted.
type TransferInstruction struct {
	ID          string
	AuctionID   string
	Destination string
	Amount      decimal.Decimal
	Denom       string
	Reason      InstructionReason
	CreatedAt   time.Time
	ExecutedAt  *time.Time
}
