package maidstore

import (
	"testing"
	"time"

	"github.com/dalemusser/stratagate/internal/domain/models"
	"github.com/dalemusser/stratagate/internal/testutil"
)

func TestStore_CreateAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	empty, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() on empty collection = %v, want empty slice", empty)
	}

	first, err := store.Create(ctx, models.Maid{Name: "Amena", Experience: 3, Skills: []string{"cooking"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.ID.IsZero() || first.CreatedAt.IsZero() {
		t.Error("Create() did not set ID and CreatedAt")
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := store.Create(ctx, models.Maid{Name: "Shirin"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() len = %d, want 2", len(got))
	}
	if got[0].Name != "Shirin" {
		t.Errorf("List()[0] = %q, want newest first", got[0].Name)
	}
	if len(got[1].Skills) != 1 || got[1].Skills[0] != "cooking" {
		t.Errorf("Skills = %v", got[1].Skills)
	}
}
