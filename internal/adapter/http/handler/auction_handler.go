package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobid/internal/adapter/http/dto"
	"github.com/iho/gobid/internal/adapter/http/middleware"
	"github.com/iho/gobid/internal/domain"
	"github.com/iho/gobid/internal/usecase"
)

// AuctionService defines the behavior needed by AuctionHandler.
type AuctionService interface {
	CreateAuction(ctx context.Context, input usecase.CreateAuctionInput) (*domain.Auction, error)
	Execute(ctx context.Context, auctionID, sender string, msg domain.ExecuteMsg) (*domain.ExecuteResult, error)
	GetAuction(ctx context.Context, id string) (*domain.Auction, error)
	ListAuctions(ctx context.Context, input usecase.ListAuctionsInput) ([]*domain.Auction, error)
	QueryHighestBid(ctx context.Context, auctionID string) (*domain.HighestBidView, error)
	QueryTotalBid(ctx context.Context, auctionID, addr string) (*domain.TotalBidView, error)
	ListInstructions(ctx context.Context, auctionID string, limit, offset int) ([]*domain.TransferInstruction, error)
}

// AuctionHandler handles auction-related HTTP requests.
type AuctionHandler struct {
	auctionUC AuctionService
}

// NewAuctionHandler creates a new AuctionHandler.
func NewAuctionHandler(auctionUC AuctionService) *AuctionHandler {
	return &AuctionHandler{auctionUC: auctionUC}
}

// Create creates a new auction.
func (h *AuctionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input := req.ToUseCaseInput()
	if pinned, ok := middleware.SenderFromContext(r.Context()); ok {
		input.Creator = pinned
	}

	auction, err := h.auctionUC.CreateAuction(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create auction", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.AuctionFromDomain(auction))
}

// Get retrieves an auction by ID.
func (h *AuctionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	auction, err := h.auctionUC.GetAuction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get auction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuctionFromDomain(auction))
}

// List lists auctions.
func (h *AuctionHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	auctions, err := h.auctionUC.ListAuctions(r.Context(), usecase.ListAuctionsInput{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list auctions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAuctionsResponse{
		Auctions: dto.AuctionsFromDomain(auctions),
		Total:    int64(len(auctions)),
	})
}

// Bid places a bid with the attached funds.
func (h *AuctionHandler) Bid(w http.ResponseWriter, r *http.Request) {
	var req dto.BidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.execute(w, r, req.Sender, domain.BidMsg{Funds: dto.CoinsToDomain(req.Funds)})
}

// Close ends bidding; owner only.
func (h *AuctionHandler) Close(w http.ResponseWriter, r *http.Request) {
	var req dto.CloseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.execute(w, r, req.Sender, domain.CloseMsg{})
}

// Retract withdraws the sender's escrowed funds after closing.
func (h *AuctionHandler) Retract(w http.ResponseWriter, r *http.Request) {
	var req dto.RetractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	h.execute(w, r, req.Sender, domain.RetractMsg{Beneficiary: req.Beneficiary})
}

// execute runs one state-changing message. An authenticated identity
// always wins over the sender claimed in the body.
func (h *AuctionHandler) execute(w http.ResponseWriter, r *http.Request, sender string, msg domain.ExecuteMsg) {
	id := chi.URLParam(r, "id")

	if pinned, ok := middleware.SenderFromContext(r.Context()); ok {
		sender = pinned
	}

	result, err := h.auctionUC.Execute(r.Context(), id, sender, msg)
	if err != nil {
		writeError(w, mapDomainError(err), "execute failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ExecuteFromDomain(result))
}

// HighestBid serves the leader projection.
func (h *AuctionHandler) HighestBid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.auctionUC.QueryHighestBid(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to query highest bid", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// TotalBid serves one bidder's cumulative contribution.
func (h *AuctionHandler) TotalBid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	addr := chi.URLParam(r, "addr")

	view, err := h.auctionUC.QueryTotalBid(r.Context(), id, addr)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to query total bid", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Instructions lists the transfer instructions recorded for an auction.
func (h *AuctionHandler) Instructions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	instructions, err := h.auctionUC.ListInstructions(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list instructions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListInstructionsResponse{
		Instructions: dto.InstructionsFromDomain(instructions),
		Total:        int64(len(instructions)),
	})
}
