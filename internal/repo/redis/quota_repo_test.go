package redis

import (
	"context"
	"testing"
	"time"
)

func TestQuotaRepoWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	repo := NewQuotaRepo(client, "q:")
	ctx := context.Background()

	count, ttl, err := repo.WindowState(ctx, "hour:1")
	if err != nil {
		t.Fatalf("state of empty window: %v", err)
	}
	if count != 0 || ttl != 0 {
		t.Fatalf("expected empty window, got %d %s", count, ttl)
	}

	for want := int64(1); want <= 2; want++ {
		count, ttl, err = repo.IncrementWindow(ctx, "hour:1", time.Hour)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != want {
			t.Fatalf("unexpected count: got %d want %d", count, want)
		}
		if ttl <= 0 || ttl > time.Hour {
			t.Fatalf("unexpected ttl: %s", ttl)
		}
	}

	mr.FastForward(time.Hour + time.Second)

	count, _, err = repo.WindowState(ctx, "hour:1")
	if err != nil {
		t.Fatalf("state after expiry: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected window to expire, got %d", count)
	}
}

func TestQuotaRepoRepairsMissingTTL(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	repo := NewQuotaRepo(client, "q:")

	if err := mr.Set("q:day:7", "4"); err != nil {
		t.Fatalf("seed counter: %v", err)
	}

	count, ttl, err := repo.IncrementWindow(context.Background(), "day:7", 24*time.Hour)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if count != 5 {
		t.Fatalf("unexpected count: %d", count)
	}
	if ttl != 24*time.Hour {
		t.Fatalf("expected ttl to be set, got %s", ttl)
	}
	if got := mr.TTL("q:day:7"); got != 24*time.Hour {
		t.Fatalf("expected key ttl in redis, got %s", got)
	}
}

func TestQuotaRepoRejectsBadInput(t *testing.T) {
	_, client := newMiniRedisClient(t)
	repo := NewQuotaRepo(client, "")

	if _, _, err := repo.IncrementWindow(context.Background(), "", time.Hour); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, _, err := repo.IncrementWindow(context.Background(), "k", 0); err == nil {
		t.Fatalf("expected error for zero window")
	}
	if _, _, err := repo.WindowState(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
