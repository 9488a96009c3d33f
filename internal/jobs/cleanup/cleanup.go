package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
)

const defaultConversationRetention = 72 * time.Hour

type Result struct {
	Conversations int
	Pending       int
}

// Job removes abandoned conversations and, when pending retention is set,
// reports the moderator never decided on.
type Job struct {
	store                 repo.Store
	conversationRetention time.Duration
	pendingRetention      time.Duration
	now                   func() time.Time
	logger                *zap.Logger
}

func New(store repo.Store, conversationRetention, pendingRetention time.Duration, logger *zap.Logger) *Job {
	if conversationRetention <= 0 {
		conversationRetention = defaultConversationRetention
	}
	if pendingRetention < 0 {
		pendingRetention = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		store:                 store,
		conversationRetention: conversationRetention,
		pendingRetention:      pendingRetention,
		now:                   time.Now,
		logger:                logger,
	}
}

func (j *Job) Run(ctx context.Context) (Result, error) {
	if j.store == nil {
		return Result{}, nil
	}

	var result Result
	now := j.now().UTC()

	states, err := j.store.ListStateKeys(ctx)
	if err != nil {
		return result, fmt.Errorf("list conversation states: %w", err)
	}
	active := make(map[int64]struct{}, len(states))

	cutoff := now.Add(-j.conversationRetention)
	for _, userID := range states {
		active[userID] = struct{}{}

		draft, err := j.store.GetDraft(ctx, userID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			j.logger.Warn("read draft during cleanup failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if err == nil && !draft.UpdatedAt.Before(cutoff) {
			continue
		}
		if err == nil && j.touchedSince(ctx, userID, draft) {
			continue
		}

		if err := j.store.DeleteState(ctx, userID); err != nil {
			return result, fmt.Errorf("delete conversation state: %w", err)
		}
		if err := j.store.DeleteDraft(ctx, userID); err != nil {
			return result, fmt.Errorf("delete conversation draft: %w", err)
		}
		result.Conversations++
	}

	if j.pendingRetention > 0 {
		drafts, err := j.store.ListDraftKeys(ctx)
		if err != nil {
			return result, fmt.Errorf("list report drafts: %w", err)
		}

		pendingCutoff := now.Add(-j.pendingRetention)
		for _, userID := range drafts {
			if _, ok := active[userID]; ok {
				continue
			}
			draft, err := j.store.GetDraft(ctx, userID)
			if err != nil {
				continue
			}
			if !pendingSince(draft).Before(pendingCutoff) || j.touchedSince(ctx, userID, draft) {
				continue
			}
			if err := j.store.DeleteDraft(ctx, userID); err != nil {
				return result, fmt.Errorf("delete pending report: %w", err)
			}
			result.Pending++
		}
	}

	if result.Conversations > 0 || result.Pending > 0 {
		j.logger.Info("cleanup stale reports completed",
			zap.Int("conversations", result.Conversations),
			zap.Int("pending", result.Pending),
		)
	}
	return result, nil
}

// Loop runs the job every interval until ctx is done.
func (j *Job) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil {
			j.logger.Warn("cleanup run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// touchedSince re-reads the draft so a reporter who answered after the scan
// keeps their conversation.
func (j *Job) touchedSince(ctx context.Context, userID int64, seen model.Report) bool {
	current, err := j.store.GetDraft(ctx, userID)
	if err != nil {
		return false
	}
	return current.ID != seen.ID || !current.UpdatedAt.Equal(seen.UpdatedAt)
}

func pendingSince(report model.Report) time.Time {
	if report.SubmittedAt != nil {
		return *report.SubmittedAt
	}
	return report.UpdatedAt
}
