package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/domain"
)

// AuctionResponse represents an auction in API responses. The bid ledger
// itself is not exposed; individual entries are served by the total-bid
// endpoint.
type AuctionResponse struct {
	ID                string          `json:"id"`
	Item              string          `json:"item"`
	BidDenom          string          `json:"bid_denom"`
	Owner             string          `json:"owner"`
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	CommissionMinimum decimal.Decimal `json:"commission_minimum"`
	Closed            bool            `json:"closed"`
	HighestBidder     string          `json:"highest_bidder,omitempty"`
	HighestBid        decimal.Decimal `json:"highest_bid"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AuctionFromDomain converts a domain auction to a response.
func AuctionFromDomain(a *domain.Auction) *AuctionResponse {
	return &AuctionResponse{
		ID:                a.ID,
		Item:              a.Item,
		BidDenom:          a.BidDenom,
		Owner:             a.Owner,
		CommissionRate:    a.Commission.Rate,
		CommissionMinimum: a.Commission.MinimumTokens,
		Closed:            a.Closed,
		HighestBidder:     a.HighestBidder,
		HighestBid:        a.HighestBid,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

// AuctionsFromDomain converts domain auctions to responses.
func AuctionsFromDomain(auctions []*domain.Auction) []*AuctionResponse {
	result := make([]*AuctionResponse, len(auctions))
	for i, a := range auctions {
		result[i] = AuctionFromDomain(a)
	}

	return result
}

// ListAuctionsResponse represents a page of auctions.
type ListAuctionsResponse struct {
	Auctions []*AuctionResponse `json:"auctions"`
	Total    int64              `json:"total"`
}

// ExecuteResponse represents the outcome of a state-changing call.
type ExecuteResponse struct {
	Action       string                 `json:"action"`
	Attributes   map[string]string      `json:"attributes"`
	Instructions []*InstructionResponse `json:"instructions,omitempty"`
}

// ExecuteFromDomain converts an execute result to a response.
func ExecuteFromDomain(result *domain.ExecuteResult) *ExecuteResponse {
	return &ExecuteResponse{
		Action:       result.Action,
		Attributes:   result.Attributes,
		Instructions: InstructionsFromDomain(result.Instructions),
	}
}

// InstructionResponse represents a transfer instruction in API responses.
type InstructionResponse struct {
	ID          string          `json:"id"`
	AuctionID   string          `json:"auction_id"`
	Destination string          `json:"destination"`
	Amount      decimal.Decimal `json:"amount"`
	Denom       string          `json:"denom"`
	Reason      string          `json:"reason"`
	CreatedAt   time.Time       `json:"created_at"`
	ExecutedAt  *time.Time      `json:"executed_at,omitempty"`
}

// InstructionFromDomain converts a domain instruction to a response.
func InstructionFromDomain(instruction *domain.TransferInstruction) *InstructionResponse {
	return &InstructionResponse{
		ID:          instruction.ID,
		AuctionID:   instruction.AuctionID,
		Destination: instruction.Destination,
		Amount:      instruction.Amount,
		Denom:       instruction.Denom,
		Reason:      string(instruction.Reason),
		CreatedAt:   instruction.CreatedAt,
		ExecutedAt:  instruction.ExecutedAt,
	}
}

// InstructionsFromDomain converts domain instructions to responses.
func InstructionsFromDomain(instructions []*domain.TransferInstruction) []*InstructionResponse {
	if len(instructions) == 0 {
		return nil
	}

	result := make([]*InstructionResponse, len(instructions))
	for i, instruction := range instructions {
		result[i] = InstructionFromDomain(instruction)
	}

	return result
}

// ListInstructionsResponse represents a page of transfer instructions.
type ListInstructionsResponse struct {
	Instructions []*InstructionResponse `json:"instructions"`
	Total        int64                  `json:"total"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
