//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/samirrijal/saferoute/internal/adapters/postgres"
	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/pkg/config"
)

// setupTestDB connects to the test database and applies the history schema.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("saferoute-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(db.Close)

	schema, err := os.ReadFile("../../../migrations/001_search_history.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if _, err := db.Pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func TestHistoryRepo_InsertAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewHistoryRepo(db)
	ctx := context.Background()

	userID := fmt.Sprintf("it-%d", time.Now().UnixNano())
	base := time.Now().UTC().Truncate(time.Second)

	for i, dest := range []string{"Hitech City", "Golconda Fort", "Banjara Hills"} {
		entry := &domain.HistoryEntry{
			UserID:      userID,
			Source:      "Charminar",
			Destination: dest,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Insert(ctx, entry); err != nil {
			t.Fatalf("insert: %v", err)
		}
		if entry.ID == "" {
			t.Error("expected generated id")
		}
	}

	entries, err := repo.ListByUser(ctx, userID, 100)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Destination != "Hitech City" || entries[2].Destination != "Banjara Hills" {
		t.Errorf("entries not in insertion order: %+v", entries)
	}

	limited, err := repo.ListByUser(ctx, userID, 2)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 entries, got %d", len(limited))
	}
}

func TestHistoryRepo_ListUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewHistoryRepo(db)

	entries, err := repo.ListByUser(context.Background(), "nobody-"+time.Now().Format(time.RFC3339Nano), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil list, got %v", entries)
	}
}
