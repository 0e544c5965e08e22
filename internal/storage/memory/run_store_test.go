package memory

import (
	"context"
	"errors"
	"testing"

	"pairs-lab/internal/storage"
)

func TestRunStore_InsertAndQuery(t *testing.T) {
	store := NewRunStore()
	ctx := context.Background()

	runs := []*storage.RunRecord{
		{RunID: "r1", ParamsID: "p1", StartedAt: d0},
		{RunID: "r2", ParamsID: "p1", StartedAt: d0.AddDate(0, 0, 1)},
		{RunID: "r3", ParamsID: "p2", StartedAt: d0},
	}
	for _, r := range runs {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByID(ctx, "r2")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ParamsID != "p1" {
		t.Errorf("Expected ParamsID p1, got %s", got.ParamsID)
	}

	byParams, err := store.GetByParams(ctx, "p1")
	if err != nil {
		t.Fatalf("GetByParams failed: %v", err)
	}
	if len(byParams) != 2 || byParams[0].RunID != "r2" {
		t.Errorf("Expected newest-first [r2 r1], got %+v", byParams)
	}

	if err := store.Insert(ctx, runs[0]); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := store.GetByID(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
