package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/iho/gobid/internal/adapter/http"
	"github.com/iho/gobid/internal/adapter/http/dto"
	"github.com/iho/gobid/internal/adapter/http/handler"
	"github.com/iho/gobid/internal/adapter/repository/postgres"
	redisrepo "github.com/iho/gobid/internal/adapter/repository/redis"
	"github.com/iho/gobid/internal/infrastructure/metrics"
	infraredis "github.com/iho/gobid/internal/infrastructure/redis"
	"github.com/iho/gobid/internal/usecase"
	"github.com/iho/gobid/tests/testutil"
)

func TestAuctionLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	auctionRepo := postgres.NewAuctionRepository(pool)
	instructionRepo := postgres.NewInstructionRepository(pool)
	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier(zerolog.Nop())

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	cache := redisrepo.NewCache(redisClient)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)

	auctionUC := usecase.NewAuctionUseCase(
		txManager,
		auctionRepo,
		instructionRepo,
		idGen,
		cache,
		metrics.NewWithRegistry(prometheus.NewRegistry()),
		zerolog.Nop(),
	).WithRetrier(retrier)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		AuctionHandler:   handler.NewAuctionHandler(auctionUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
	})

	postExecute := func(t *testing.T, path string, payload any, wantStatus int) dto.ExecuteResponse {
		t.Helper()

		body, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}

		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != wantStatus {
			t.Fatalf("POST %s: expected status %d, got %d: %s", path, wantStatus, rec.Code, rec.Body.String())
		}

		var result dto.ExecuteResponse
		if wantStatus < http.StatusBadRequest {
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
		}
		return result
	}

	// Create the auction
	createBody, _ := json.Marshal(dto.CreateAuctionRequest{
		Item:           "rare stamp",
		BidDenom:       "uatom",
		Creator:        "owner",
		CommissionRate: decimal.RequireFromString("0.1"),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auctions", bytes.NewReader(createBody))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var auction dto.AuctionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &auction); err != nil {
		t.Fatalf("failed to decode auction: %v", err)
	}

	base := "/api/v1/auctions/" + auction.ID

	// Alice bids 100, keeping 90 after the 10% commission
	result := postExecute(t, base+"/bids", dto.BidRequest{
		Sender: "alice",
		Funds:  []dto.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(100)}},
	}, http.StatusOK)
	if result.Attributes["total_bid_amount"] != "90" {
		t.Errorf("expected alice total 90, got %q", result.Attributes["total_bid_amount"])
	}

	// Bob overtakes with 200 gross, 180 net
	postExecute(t, base+"/bids", dto.BidRequest{
		Sender: "bob",
		Funds:  []dto.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(200)}},
	}, http.StatusOK)

	// A bid below the leader is rejected and escrows nothing
	postExecute(t, base+"/bids", dto.BidRequest{
		Sender: "carol",
		Funds:  []dto.Coin{{Denom: "uatom", Amount: decimal.NewFromInt(50)}},
	}, http.StatusConflict)

	// Leader projection
	req = httptest.NewRequest(http.MethodGet, base+"/highest-bid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("highest-bid: expected 200, got %d", rec.Code)
	}

	var highest struct {
		BidClosed bool   `json:"bid_closed"`
		Bidder    string `json:"bidder"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &highest); err != nil {
		t.Fatalf("failed to decode highest bid: %v", err)
	}
	if highest.BidClosed || highest.Bidder != "bob" {
		t.Errorf("expected open auction led by bob, got %+v", highest)
	}

	// Only the owner may close
	postExecute(t, base+"/close", dto.CloseRequest{Sender: "alice"}, http.StatusForbidden)

	closeResult := postExecute(t, base+"/close", dto.CloseRequest{Sender: "owner"}, http.StatusOK)
	if closeResult.Attributes["winner"] != "bob" {
		t.Errorf("expected winner bob, got %q", closeResult.Attributes["winner"])
	}

	// Alice retracts her losing bid
	retractResult := postExecute(t, base+"/retract", dto.RetractRequest{Sender: "alice"}, http.StatusOK)
	if len(retractResult.Instructions) != 1 {
		t.Fatalf("expected 1 refund instruction, got %d", len(retractResult.Instructions))
	}
	if got := retractResult.Instructions[0].Amount; !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected refund of 90, got %s", got)
	}

	// Instruction history covers commissions, the payout, and the refund
	req = httptest.NewRequest(http.MethodGet, base+"/instructions", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("instructions: expected 200, got %d", rec.Code)
	}

	var instructions dto.ListInstructionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &instructions); err != nil {
		t.Fatalf("failed to decode instructions: %v", err)
	}

	reasons := map[string]int{}
	for _, ins := range instructions.Instructions {
		reasons[ins.Reason]++
	}
	if reasons["commission"] != 2 || reasons["closing_payout"] != 1 || reasons["refund"] != 1 {
		t.Errorf("unexpected instruction mix: %v", reasons)
	}
}
