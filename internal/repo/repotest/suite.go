// Package repotest holds behaviour checks shared by every repo.Store backend.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
)

// Run executes the suite against stores produced by newStore. Each subtest
// receives a fresh, empty store.
func Run(t *testing.T, newStore func(t *testing.T) repo.Store) {
	t.Helper()

	t.Run("KnownUsersAreMonotonic", func(t *testing.T) {
		testKnownUsers(t, newStore(t))
	})
	t.Run("StateRoundTrip", func(t *testing.T) {
		testStateRoundTrip(t, newStore(t))
	})
	t.Run("DraftRoundTrip", func(t *testing.T) {
		testDraftRoundTrip(t, newStore(t))
	})
	t.Run("StartConversationResetsDraft", func(t *testing.T) {
		testStartConversation(t, newStore(t))
	})
	t.Run("AdvanceWritesStateAndDraft", func(t *testing.T) {
		testAdvance(t, newStore(t))
	})
	t.Run("CollectionsAreIndependent", func(t *testing.T) {
		testCollectionsIndependent(t, newStore(t))
	})
}

func testKnownUsers(t *testing.T, store repo.Store) {
	ctx := context.Background()

	added, err := store.AddUser(ctx, 42)
	if err != nil {
		t.Fatalf("add user: %v", err)
	}
	if !added {
		t.Fatalf("expected first add to report a new user")
	}

	added, err = store.AddUser(ctx, 42)
	if err != nil {
		t.Fatalf("add user again: %v", err)
	}
	if added {
		t.Fatalf("expected repeated add to be a no-op")
	}

	if _, err := store.AddUser(ctx, 7); err != nil {
		t.Fatalf("add second user: %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 || users[0] != 7 || users[1] != 42 {
		t.Fatalf("unexpected users: %v", users)
	}

	count, err := store.CountUsers(ctx)
	if err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 2 {
		t.Fatalf("unexpected users count: %d", count)
	}
}

func testStateRoundTrip(t *testing.T, store repo.Store) {
	ctx := context.Background()

	if _, err := store.GetState(ctx, 1); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing state, got %v", err)
	}

	if err := store.PutState(ctx, 1, enums.StepAwaitingAmount); err != nil {
		t.Fatalf("put state: %v", err)
	}
	if err := store.PutState(ctx, 1, enums.StepAwaitingProof); err != nil {
		t.Fatalf("overwrite state: %v", err)
	}

	step, err := store.GetState(ctx, 1)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if step != enums.StepAwaitingProof {
		t.Fatalf("unexpected state: %s", step)
	}

	keys, err := store.ListStateKeys(ctx)
	if err != nil {
		t.Fatalf("list state keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != 1 {
		t.Fatalf("unexpected state keys: %v", keys)
	}

	if err := store.DeleteState(ctx, 1); err != nil {
		t.Fatalf("delete state: %v", err)
	}
	if err := store.DeleteState(ctx, 1); err != nil {
		t.Fatalf("delete missing state should be a no-op: %v", err)
	}
	if _, err := store.GetState(ctx, 1); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func testDraftRoundTrip(t *testing.T, store repo.Store) {
	ctx := context.Background()

	if _, err := store.GetDraft(ctx, 5); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing draft, got %v", err)
	}

	submittedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	draft := model.Report{
		ID:          "r-1",
		ReporterID:  5,
		Target:      "@ScammerX",
		Description: "stole my money",
		Amount:      "$50",
		ProofLink:   "https://t.me/proofchan",
		CreatedAt:   submittedAt.Add(-time.Hour),
		UpdatedAt:   submittedAt,
		SubmittedAt: &submittedAt,
	}
	if err := store.PutDraft(ctx, 5, draft); err != nil {
		t.Fatalf("put draft: %v", err)
	}

	got, err := store.GetDraft(ctx, 5)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if got.Target != draft.Target || got.Amount != draft.Amount || got.ProofLink != draft.ProofLink {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if got.SubmittedAt == nil || !got.SubmittedAt.Equal(submittedAt) {
		t.Fatalf("unexpected submitted_at: %v", got.SubmittedAt)
	}

	keys, err := store.ListDraftKeys(ctx)
	if err != nil {
		t.Fatalf("list draft keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != 5 {
		t.Fatalf("unexpected draft keys: %v", keys)
	}

	if err := store.DeleteDraft(ctx, 5); err != nil {
		t.Fatalf("delete draft: %v", err)
	}
	if err := store.DeleteDraft(ctx, 5); err != nil {
		t.Fatalf("delete missing draft should be a no-op: %v", err)
	}
	if _, err := store.GetDraft(ctx, 5); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func testStartConversation(t *testing.T, store repo.Store) {
	ctx := context.Background()

	if err := store.Advance(ctx, 9, enums.StepAwaitingAmount, model.Report{Target: "old", Description: "old"}); err != nil {
		t.Fatalf("seed conversation: %v", err)
	}

	if err := store.StartConversation(ctx, 9, model.Report{ID: "fresh", ReporterID: 9}); err != nil {
		t.Fatalf("start conversation: %v", err)
	}

	step, err := store.GetState(ctx, 9)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if step != enums.StepAwaitingTarget {
		t.Fatalf("unexpected state after start: %s", step)
	}

	draft, err := store.GetDraft(ctx, 9)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if draft.ID != "fresh" || draft.Target != "" || draft.Description != "" {
		t.Fatalf("expected empty draft after start, got %+v", draft)
	}
}

func testAdvance(t *testing.T, store repo.Store) {
	ctx := context.Background()

	if err := store.Advance(ctx, 3, enums.StepAwaitingDescription, model.Report{Target: "ScammerX"}); err != nil {
		t.Fatalf("advance: %v", err)
	}

	step, err := store.GetState(ctx, 3)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if step != enums.StepAwaitingDescription {
		t.Fatalf("unexpected state: %s", step)
	}

	draft, err := store.GetDraft(ctx, 3)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if draft.Target != "ScammerX" {
		t.Fatalf("unexpected draft target: %q", draft.Target)
	}

	if err := store.Advance(ctx, 3, enums.Step("BOGUS"), model.Report{}); err == nil {
		t.Fatalf("expected error for invalid step")
	}
}

func testCollectionsIndependent(t *testing.T, store repo.Store) {
	ctx := context.Background()

	if err := store.Advance(ctx, 11, enums.StepAwaitingProof, model.Report{Target: "x"}); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := store.DeleteState(ctx, 11); err != nil {
		t.Fatalf("delete state: %v", err)
	}

	if _, err := store.GetDraft(ctx, 11); err != nil {
		t.Fatalf("draft should survive state removal: %v", err)
	}

	users, err := store.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("conversation writes must not touch known users: %v", users)
	}
}
