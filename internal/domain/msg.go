package domain

import "fmt"

// ExecuteMsg is the closed set of state-changing messages. The marker
// method seals the set so that Execute can dispatch with an exhaustive
// type switch.
type ExecuteMsg interface {
	isExecuteMsg()
}

// BidMsg places a bid with the attached funds.
type BidMsg struct {
	Funds []Coin
}

// CloseMsg ends bidding; owner only.
type CloseMsg struct{}

// RetractMsg withdraws the sender's escrow after closing, optionally to a
// different beneficiary.
type RetractMsg struct {
	Beneficiary string
}

func (BidMsg) isExecuteMsg()     {}
func (CloseMsg) isExecuteMsg()   {}
func (RetractMsg) isExecuteMsg() {}

// ExecuteResult carries the outcome of one state-changing message: the
// operation-specific summary, the transfer instructions to record, and
// event attributes mirroring the summary for logs and API responses.
type ExecuteResult struct {
	Action       string
	Attributes   map[string]string
	Bid          *BidReceipt
	Closing      *ClosingSummary
	Refund       *RefundSummary
	Instructions []*TransferInstruction
}

// Execute dispatches a state-changing message against the auction.
// A call either fully succeeds, mutating the snapshot and returning the
// instructions to record, or fully fails with the snapshot untouched.
func (a *Auction) Execute(sender string, msg ExecuteMsg) (*ExecuteResult, error) {
	switch m := msg.(type) {
	case BidMsg:
		receipt, err := a.PlaceBid(sender, m.Funds)
		if err != nil {
			return nil, err
		}

		result := &ExecuteResult{
			Action: "bid",
			Bid:    receipt,
			Attributes: map[string]string{
				"sender":           sender,
				"bid_denom":        a.BidDenom,
				"total_bid_amount": receipt.TotalAmount.String(),
			},
		}
		if receipt.Commission != nil {
			result.Instructions = append(result.Instructions, receipt.Commission)
		}

		return result, nil

	case CloseMsg:
		summary, err := a.Close(sender)
		if err != nil {
			return nil, err
		}

		result := &ExecuteResult{
			Action:  "close",
			Closing: summary,
			Attributes: map[string]string{
				"sender":    sender,
				"bid_denom": a.BidDenom,
			},
		}
		if summary.Payout != nil {
			result.Attributes["closing_bid"] = summary.WinningAmount.String()
			result.Attributes["winner"] = summary.Winner
			result.Instructions = append(result.Instructions, summary.Payout)
		}

		return result, nil

	case RetractMsg:
		summary, err := a.Retract(sender, m.Beneficiary)
		if err != nil {
			return nil, err
		}

		result := &ExecuteResult{
			Action: "retract",
			Refund: summary,
			Attributes: map[string]string{
				"sender": sender,
			},
		}
		if summary.Refund != nil {
			result.Attributes["denom"] = a.BidDenom
			result.Attributes["amount"] = summary.Amount.String()
			result.Attributes["beneficiary"] = summary.Beneficiary
			result.Instructions = append(result.Instructions, summary.Refund)
		}

		return result, nil

	default:
		return nil, fmt.Errorf("unknown execute message %T", msg)
	}
}

// QueryMsg is the closed set of read-only messages.
type QueryMsg interface {
	isQueryMsg()
}

// HighestBidQuery asks for the leader projection.
type HighestBidQuery struct{}

// TotalBidQuery asks for one bidder's cumulative contribution.
type TotalBidQuery struct {
	Addr string
}

func (HighestBidQuery) isQueryMsg() {}
func (TotalBidQuery) isQueryMsg()   {}

// Query dispatches a read-only message against the auction.
func (a *Auction) Query(msg QueryMsg) (any, error) {
	switch m := msg.(type) {
	case HighestBidQuery:
		return a.ViewHighestBid(), nil
	case TotalBidQuery:
		if err := ValidateAddress(m.Addr); err != nil {
			return nil, err
		}
		return a.ViewTotalBid(m.Addr), nil
	default:
		return nil, fmt.Errorf("unknown query message %T", msg)
	}
}
