package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

// Coin represents an amount of one denomination on the wire.
type Coin struct {
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
}

// ToDomain converts to a domain coin.
func (c Coin) ToDomain() domain.Coin {
	return domain.Coin{Denom: c.Denom, Amount: c.Amount}
}

// CoinsToDomain converts a funds list to domain coins.
func CoinsToDomain(coins []Coin) []domain.Coin {
	result := make([]domain.Coin, len(coins))
	for i, c := range coins {
		result[i] = c.ToDomain()
	}

	return result
}

// CreateAuctionRequest represents a request to create an auction.
type CreateAuctionRequest struct {
	Item              string          `json:"item"`
	BidDenom          string          `json:"bid_denom"`
	Creator           string          `json:"creator"`
	Owner             string          `json:"owner,omitempty"`
	CommissionRate    decimal.Decimal `json:"commission_rate"`
	CommissionMinimum decimal.Decimal `json:"commission_minimum"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAuctionRequest) ToUseCaseInput() usecase.CreateAuctionInput {
	return usecase.CreateAuctionInput{
		Item:              r.Item,
		BidDenom:          r.BidDenom,
		Creator:           r.Creator,
		Owner:             r.Owner,
		CommissionRate:    r.CommissionRate,
		CommissionMinimum: r.CommissionMinimum,
	}
}

// BidRequest represents a bid with attached funds.
type BidRequest struct {
	Sender string `json:"sender"`
	Funds  []Coin `json:"funds"`
}

// CloseRequest represents an owner's request to end bidding.
type CloseRequest struct {
	Sender string `json:"sender"`
}

// RetractRequest represents a request to withdraw escrowed funds.
type RetractRequest struct {
	Sender      string `json:"sender"`
	Beneficiary string `json:"beneficiary,omitempty"`
}
