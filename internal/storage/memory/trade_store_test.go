package memory

import (
	"context"
	"errors"
	"testing"

	"pairs-lab/internal/domain"
	"pairs-lab/internal/storage"
)

func testTrade(id, y, x string, entryOffset int) *domain.ClosedTrade {
	return &domain.ClosedTrade{
		TradeID:     id,
		AssetY:      y,
		AssetX:      x,
		EntryDate:   d0.AddDate(0, 0, entryOffset),
		ExitDate:    d0.AddDate(0, 0, entryOffset+5),
		HoldingDays: 5,
		Direction:   domain.DirectionLong,
		ReturnPct:   0.02,
	}
}

func TestTradeStore_InsertBulkAndGetByRun(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trades := []*domain.ClosedTrade{
		testTrade("t3", "KO", "PEP", 30),
		testTrade("t1", "KO", "PEP", 10),
		testTrade("t2", "MSFT", "AAPL", 20),
	}
	if err := store.InsertBulk(ctx, "run-1", trades); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	got, err := store.GetByRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(got))
	}
	if got[0].TradeID != "t1" || got[1].TradeID != "t2" || got[2].TradeID != "t3" {
		t.Errorf("Trades not ordered by entry date: %s %s %s", got[0].TradeID, got[1].TradeID, got[2].TradeID)
	}

	byPair, err := store.GetByPair(ctx, "run-1", "KO", "PEP")
	if err != nil {
		t.Fatalf("GetByPair failed: %v", err)
	}
	if len(byPair) != 2 {
		t.Errorf("Expected 2 KO_PEP trades, got %d", len(byPair))
	}

	// Other runs are isolated
	other, _ := store.GetByRun(ctx, "run-2")
	if len(other) != 0 {
		t.Errorf("Expected no trades for run-2, got %d", len(other))
	}
}

func TestTradeStore_DuplicateKeyPerRun(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := testTrade("t1", "KO", "PEP", 0)
	if err := store.InsertBulk(ctx, "run-1", []*domain.ClosedTrade{trade}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, "run-1", []*domain.ClosedTrade{trade}); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	// Same trade id under another run is allowed
	if err := store.InsertBulk(ctx, "run-2", []*domain.ClosedTrade{trade}); err != nil {
		t.Errorf("Expected insert into run-2 to succeed, got %v", err)
	}
	if err := store.InsertBulk(ctx, "", []*domain.ClosedTrade{trade}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestTradeStore_ReturnsCopies(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := testTrade("t1", "KO", "PEP", 0)
	_ = store.InsertBulk(ctx, "run-1", []*domain.ClosedTrade{trade})
	trade.ReturnPct = 99

	got, _ := store.GetByRun(ctx, "run-1")
	got[0].ReturnPct = 42

	again, _ := store.GetByRun(ctx, "run-1")
	if again[0].ReturnPct != 0.02 {
		t.Errorf("Stored trade was mutated: %f", again[0].ReturnPct)
	}
}
