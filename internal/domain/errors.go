package domain

import (
	"errors"
	"fmt"
)

var (
	// Auction lifecycle errors
	ErrBidClosed       = errors.New("bid closed")
	ErrBidOpen         = errors.New("bid is open")
	ErrOwnerCannotBid  = errors.New("owner of an item cannot bid on the item")
	ErrAuctionNotFound = errors.New("auction not found")

	// Creation errors
	ErrInvalidCommissionRate    = errors.New("commission rate can be between [0-25]%")
	ErrInvalidCommissionMinimum = errors.New("commission minimum cannot be negative")

	// Identity errors
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidDenom   = errors.New("invalid denomination")
)

// BidRejectedError is returned when a bid does not strictly exceed the
// current highest cumulative bid. Rejection leaves the auction untouched.
type BidRejectedError struct {
	HighestBid Coin
}

func (e *BidRejectedError) Error() string {
	return fmt.Sprintf("bid rejected as current highest bid value is %s", e.HighestBid)
}

// MissingFundsError is returned when a bid carries no funds in the
// auction's configured denomination.
type MissingFundsError struct {
	Denom string
}

func (e *MissingFundsError) Error() string {
	return fmt.Sprintf("bid rejected as no %s tokens attached", e.Denom)
}

// UnauthorizedError is returned when a caller other than the owner
// attempts an owner-only operation.
type UnauthorizedError struct {
	Owner string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized - only %s can call it", e.Owner)
}
