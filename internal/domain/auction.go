package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coin is an amount of a single denomination.
type Coin struct {
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}

// CommissionPolicy configures the fee charged on every accepted contribution.
type CommissionPolicy struct {
	// Rate is the proportional part of the fee, in [0, 0.25].
	Rate decimal.Decimal
	// MinimumTokens is the flat fee floor in smallest currency units.
	MinimumTokens decimal.Decimal
}

// maxCommissionRate caps the proportional part at 25%.
var maxCommissionRate = decimal.NewFromFloat(0.25)

// Validate checks the policy at auction creation time.
func (p CommissionPolicy) Validate() error {
	if p.Rate.IsNegative() || p.Rate.GreaterThan(maxCommissionRate) {
		return ErrInvalidCommissionRate
	}
	if p.MinimumTokens.IsNegative() {
		return ErrInvalidCommissionMinimum
	}
	return nil
}

// Auction is the full ledger state of a single-item open English auction.
// Bids maps bidder address to cumulative net contribution; an entry is
// always positive while present and equals exactly what the bidder is owed
// if they do not win. HighestBid mirrors the leader's Bids entry and is
// zero with an empty HighestBidder before the first accepted bid.
type Auction struct {
	ID            string
	Item          string
	BidDenom      string
	Owner         string
	Commission    CommissionPolicy
	Closed        bool
	Bids          map[string]decimal.Decimal
	HighestBidder string
	HighestBid    decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAuction creates an open auction with no bids.
func NewAuction(id, item, bidDenom, owner string, policy CommissionPolicy, now time.Time) (*Auction, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &Auction{
		ID:         id,
		Item:       item,
		BidDenom:   bidDenom,
		Owner:      owner,
		Commission: policy,
		Bids:       make(map[string]decimal.Decimal),
		HighestBid: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// BidReceipt reports an accepted bid and the commission instruction, if any.
type BidReceipt struct {
	Bidder      string
	Gross       decimal.Decimal
	Fee         decimal.Decimal
	Net         decimal.Decimal
	TotalAmount decimal.Decimal
	// Commission is nil when the computed fee is zero; zero-value transfer
	// instructions are never issued.
	Commission *TransferInstruction
}

// PlaceBid validates and applies a bid with the attached funds.
//
// Check order: auction open, caller is not the owner, funds present in the
// configured denomination, then the cumulative net total must strictly
// exceed the current highest bid. Any failure returns before the first
// mutation, so rejection has no side effects. Ties keep the prior leader.
func (a *Auction) PlaceBid(bidder string, funds []Coin) (*BidReceipt, error) {
	if a.Closed {
		return nil, ErrBidClosed
	}
	if bidder == a.Owner {
		return nil, ErrOwnerCannotBid
	}

	gross, ok := findFunds(funds, a.BidDenom)
	if !ok {
		return nil, &MissingFundsError{Denom: a.BidDenom}
	}

	fee := ComputeCommission(gross, a.Commission)
	net := gross.Sub(fee)

	// A minimum fee above the attached amount would drive the net
	// contribution negative. Such a bid can never take the lead, and the
	// ledger must not record non-positive contributions.
	if !net.IsPositive() {
		return nil, &BidRejectedError{HighestBid: Coin{Denom: a.BidDenom, Amount: a.HighestBid}}
	}

	total := net
	if prev, exists := a.Bids[bidder]; exists {
		total = total.Add(prev)
	}

	if total.LessThanOrEqual(a.HighestBid) {
		return nil, &BidRejectedError{HighestBid: Coin{Denom: a.BidDenom, Amount: a.HighestBid}}
	}

	if a.Bids == nil {
		a.Bids = make(map[string]decimal.Decimal)
	}
	a.Bids[bidder] = total
	a.HighestBidder = bidder
	a.HighestBid = total

	receipt := &BidReceipt{
		Bidder:      bidder,
		Gross:       gross,
		Fee:         fee,
		Net:         net,
		TotalAmount: total,
	}
	if fee.IsPositive() {
		receipt.Commission = &TransferInstruction{
			Destination: a.Owner,
			Amount:      fee,
			Denom:       a.BidDenom,
			Reason:      ReasonCommission,
		}
	}

	return receipt, nil
}

// ClosingSummary reports the outcome of closing the auction.
type ClosingSummary struct {
	Winner        string
	WinningAmount decimal.Decimal
	// Payout is nil when no bid was ever accepted.
	Payout *TransferInstruction
}

// Close ends bidding and pays the highest cumulative bid to the owner.
// Only the owner may close, and only once.
//
// The winner's Bids entry is left in place: retraction does not
// special-case the winner and would pay the entry out a second time.
// This mirrors the settlement policy as shipped; changing it is a product
// decision, not a code fix.
func (a *Auction) Close(caller string) (*ClosingSummary, error) {
	if caller != a.Owner {
		return nil, &UnauthorizedError{Owner: a.Owner}
	}
	if a.Closed {
		return nil, ErrBidClosed
	}

	a.Closed = true

	summary := &ClosingSummary{}
	if !a.HighestBid.IsPositive() {
		return summary, nil
	}

	summary.Winner = a.HighestBidder
	summary.WinningAmount = a.HighestBid
	summary.Payout = &TransferInstruction{
		Destination: a.Owner,
		Amount:      a.HighestBid,
		Denom:       a.BidDenom,
		Reason:      ReasonClosingPayout,
	}

	return summary, nil
}

// RefundSummary reports a retraction.
type RefundSummary struct {
	Beneficiary string
	Amount      decimal.Decimal
	// Refund is nil when the caller had no ledger entry; retraction is then
	// a successful no-op.
	Refund *TransferInstruction
}

// Retract withdraws the caller's cumulative contribution after closing.
// The funds go to beneficiary when given, otherwise back to the caller.
// The ledger entry is removed together with the instruction emission.
func (a *Auction) Retract(caller, beneficiary string) (*RefundSummary, error) {
	if !a.Closed {
		return nil, ErrBidOpen
	}

	to := caller
	if beneficiary != "" {
		to = beneficiary
	}

	amount, exists := a.Bids[caller]
	if !exists {
		return &RefundSummary{Beneficiary: to}, nil
	}

	delete(a.Bids, caller)

	return &RefundSummary{
		Beneficiary: to,
		Amount:      amount,
		Refund: &TransferInstruction{
			Destination: to,
			Amount:      amount,
			Denom:       a.BidDenom,
			Reason:      ReasonRefund,
		},
	}, nil
}

// HighestBidView is the read-only leader projection.
type HighestBidView struct {
	BidClosed bool   `json:"bid_closed"`
	Winner    string `json:"winner,omitempty"`
	Bidder    string `json:"bidder,omitempty"`
	Amount    *Coin  `json:"amount,omitempty"`
}

// ViewHighestBid projects the current leader. Once closed the leader is
// surfaced as the winner; there is no separate winner selection.
func (a *Auction) ViewHighestBid() *HighestBidView {
	view := &HighestBidView{BidClosed: a.Closed}

	if a.HighestBid.IsPositive() {
		view.Bidder = a.HighestBidder
		view.Amount = &Coin{Denom: a.BidDenom, Amount: a.HighestBid}
	}
	if a.Closed {
		view.Winner = view.Bidder
	}

	return view
}

// TotalBidView is the read-only per-bidder projection.
type TotalBidView struct {
	BidClosed bool  `json:"bid_closed"`
	Amount    *Coin `json:"amount,omitempty"`
}

// ViewTotalBid projects one bidder's cumulative contribution, in any phase.
func (a *Auction) ViewTotalBid(addr string) *TotalBidView {
	view := &TotalBidView{BidClosed: a.Closed}

	if amount, exists := a.Bids[addr]; exists {
		view.Amount = &Coin{Denom: a.BidDenom, Amount: amount}
	}

	return view
}

// findFunds picks the positive attached amount in the wanted denomination.
// Funds in other denominations are ignored.
func findFunds(funds []Coin, denom string) (decimal.Decimal, bool) {
	for _, c := range funds {
		if c.Denom == denom && c.Amount.IsPositive() {
			return c.Amount, true
		}
	}

	return decimal.Zero, false
}
