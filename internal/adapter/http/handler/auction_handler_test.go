package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/gobid/internal/adapter/http/dto"
	"github.com/iho/gobid/internal/adapter/http/middleware"
	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

type auctionServiceStub struct {
	createFn           func(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error)
	executeFn          func(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error)
	getFn              func(ctx context.Context, id string) (*domain.Auction, error)
	listFn             func(ctx context.Context, input usecase.ListAuctionsInput) ([]*domain.Auction, error)
	highestBidFn       func(ctx context.Context, auctionID string) (*domain.HighestBidView, error)
	totalBidFn         func(ctx context.Context, auctionID, addr string) (*domain.TotalBidView, error)
	listInstructionsFn func(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error)
}

func (s *auctionServiceStub) CreateAuction(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error) {
	return s.createFn(ctx, input)
}

func (s *auctionServiceStub) Execute(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
	return s.executeFn(ctx, auctionID, sender, msg)
}

func (s *auctionServiceStub) GetAuction(ctx context.Context, id string) (*domain.Auction, error) {
	return s.getFn(ctx, id)
}

func (s *auctionServiceStub) ListAuctions(ctx context.Context, input usecase.ListAuctionsInput) ([]*domain.Auction, error) {
	return s.listFn(ctx, input)
}

func (s *auctionServiceStub) QueryHighestBid(ctx context.Context, auctionID string) (*domain.HighestBidView, error) {
	return s.highestBidFn(ctx, auctionID)
}

func (s *auctionServiceStub) QueryTotalBid(ctx context.Context, auctionID, addr string) (*domain.TotalBidView, error) {
	return s.totalBidFn(ctx, auctionID, addr)
}

func (s *auctionServiceStub) ListInstructions(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error) {
	return s.listInstructionsFn(ctx, auctionID, limit, offset)
}

// withURLParam attaches a chi route parameter to the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAuctionHandler_Create_Success(t *testing.T) {
	auction := &domain.Auction{ID: "auc-1", Item: "rare stamp", BidDenom: "uatom", Owner: "alice"}
	var captured usecase.CreateAuctionInput

	h := NewAuctionHandler(&auctionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error) {
			captured = input
			return auction, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAuctionRequest{
		Item:           "rare stamp",
		BidDenom:       "uatom",
		Creator:        "alice",
		CommissionRate: decimal.RequireFromString("0.1"),
	})

	req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if captured.Item != "rare stamp" || captured.Creator != "alice" {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AuctionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "auc-1" {
		t.Fatalf("expected auction ID auc-1, got %s", resp.ID)
	}
}

func TestAuctionHandler_Create_InvalidBody(t *testing.T) {
	h := NewAuctionHandler(&auctionServiceStub{
		createFn: func(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error) {
			t.Fatal("CreateAuction should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auctions", bytes.NewBufferString(`{not json`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuctionHandler_Bid_PassesSenderAndFunds(t *testing.T) {
	var gotSender string
	var gotMsg domain.ExecuteMsg

	h := NewAuctionHandler(&auctionServiceStub{
		executeFn: func(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
			gotSender = sender
			gotMsg = msg
			return &domain.ExecuteResult{Action: "bid", Attributes: map[string]string{"sender": sender}}, nil
		},
	})

	body, _ := json.Marshal(dto.BidRequest{
		Sender: "bob",
		Funds:  []dto.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(15)}},
	})

	req := httptest.NewRequest(http.MethodPost, "/auctions/auc-1/bids", bytes.NewReader(body))
	req = withURLParam(req, "id", "auc-1")
	rec := httptest.NewRecorder()

	h.Bid(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotSender != "bob" {
		t.Fatalf("expected sender bob, got %s", gotSender)
	}

	bid, ok := gotMsg.(domain.BidMsg)
	if !ok {
		t.Fatalf("expected BidMsg, got %T", gotMsg)
	}
	if len(bid.Funds) != 1 || !bid.Funds[0].Amount.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("expected funds 15uatom, got %+v", bid.Funds)
	}
}

func TestAuctionHandler_Bid_AuthenticatedSenderWins(t *testing.T) {
	var gotSender string

	h := NewAuctionHandler(&auctionServiceStub{
		executeFn: func(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
			gotSender = sender
			return &domain.ExecuteResult{Action: "bid"}, nil
		},
	})

	body, _ := json.Marshal(dto.BidRequest{Sender: "mallory", Funds: []dto.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(15)}}})

	req := httptest.NewRequest(http.MethodPost, "/auctions/auc-1/bids", bytes.NewReader(body))
	req = withURLParam(req, "id", "auc-1")
	req = req.WithContext(context.WithValue(req.Context(), middleware.SenderContextKey, "alice"))
	rec := httptest.NewRecorder()

	h.Bid(rec, req)

	if gotSender != "alice" {
		t.Fatalf("expected authenticated sender alice, got %s", gotSender)
	}
}

func TestAuctionHandler_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", domain.ErrAuctionNotFound, http.StatusNotFound},
		{"unauthorized close", &domain.UnauthorizedError{Owner: "alice"}, http.StatusForbidden},
		{"owner bid", domain.ErrOwnerCannotBid, http.StatusForbidden},
		{"bid rejected", &domain.BidRejectedError{HighestBid: domain.Coin{Denom: "uatom", Amount: decimal.NewFromInt(20)}}, http.StatusConflict},
		{"closed", domain.ErrBidClosed, http.StatusConflict},
		{"still open", domain.ErrBidOpen, http.StatusConflict},
		{"missing funds", &domain.MissingFundsError{Denom: "uatom"}, http.StatusBadRequest},
		{"bad address", domain.ErrInvalidAddress, http.StatusBadRequest},
		{"storage failure", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuctionHandler(&auctionServiceStub{
				executeFn: func(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
					return nil, tt.err
				},
			})

			body, _ := json.Marshal(dto.CloseRequest{Sender: "alice"})
			req := httptest.NewRequest(http.MethodPost, "/auctions/auc-1/close", bytes.NewReader(body))
			req = withURLParam(req, "id", "auc-1")
			rec := httptest.NewRecorder()

			h.Close(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestAuctionHandler_Retract_PassesBeneficiary(t *testing.T) {
	var gotMsg domain.ExecuteMsg

	h := NewAuctionHandler(&auctionServiceStub{
		executeFn: func(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error) {
			gotMsg = msg
			return &domain.ExecuteResult{Action: "retract"}, nil
		},
	})

	body, _ := json.Marshal(dto.RetractRequest{Sender: "bob", Beneficiary: "carol"})
	req := httptest.NewRequest(http.MethodPost, "/auctions/auc-1/retract", bytes.NewReader(body))
	req = withURLParam(req, "id", "auc-1")
	rec := httptest.NewRecorder()

	h.Retract(rec, req)

	retract, ok := gotMsg.(domain.RetractMsg)
	if !ok {
		t.Fatalf("expected RetractMsg, got %T", gotMsg)
	}
	if retract.Beneficiary != "carol" {
		t.Fatalf("expected beneficiary carol, got %s", retract.Beneficiary)
	}
}

func TestAuctionHandler_HighestBid(t *testing.T) {
	h := NewAuctionHandler(&auctionServiceStub{
		highestBidFn: func(ctx context.Context, auctionID string) (*domain.HighestBidView, error) {
			return &domain.HighestBidView{
				BidClosed: true,
				Winner:    "alice",
				Bidder:    "alice",
				Amount:    &domain.Coin{Denom: "uatom", Amount: decimal.NewFromInt(20)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auctions/auc-1/highest-bid", nil)
	req = withURLParam(req, "id", "auc-1")
	rec := httptest.NewRecorder()

	h.HighestBid(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var view domain.HighestBidView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Winner != "alice" || !view.BidClosed {
		t.Fatalf("unexpected view: %+v", view)
	}
}

func TestAuctionHandler_TotalBid(t *testing.T) {
	var gotAddr string

	h := NewAuctionHandler(&auctionServiceStub{
		totalBidFn: func(ctx context.Context, auctionID, addr string) (*domain.TotalBidView, error) {
			gotAddr = addr
			return &domain.TotalBidView{
				Amount: &domain.Coin{Denom: "uatom", Amount: decimal.NewFromInt(15)},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auctions/auc-1/bids/bob", nil)
	req = withURLParam(req, "id", "auc-1")
	req = withURLParam(req, "addr", "bob")
	rec := httptest.NewRecorder()

	h.TotalBid(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotAddr != "bob" {
		t.Fatalf("expected addr bob, got %s", gotAddr)
	}
}

func TestAuctionHandler_Instructions(t *testing.T) {
	h := NewAuctionHandler(&auctionServiceStub{
		listInstructionsFn: func(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error) {
			return []*domain.TransferInstruction{
				{ID: "ins-1", AuctionID: auctionID, Destination: "alice", Amount: decimal.NewFromInt(2), Denom: "uatom", Reason: domain.ReasonCommission},
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auctions/auc-1/instructions", nil)
	req = withURLParam(req, "id", "auc-1")
	rec := httptest.NewRecorder()

	h.Instructions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListInstructionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Instructions[0].Reason != "commission" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
