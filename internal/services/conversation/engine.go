package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/ui"
)

var ErrStoreUnavailable = errors.New("report store unavailable")

// Submitter hands a finalized draft to the moderator.
type Submitter interface {
	Submit(ctx context.Context, userID int64) error
}

type Quota interface {
	RetryAfter(ctx context.Context, userID int64) (time.Duration, error)
}

// Engine walks one reporter at a time through the report steps. It keeps no
// state of its own; every call starts from what the store holds.
type Engine struct {
	store     repo.Store
	notifier  *notify.Notifier
	submitter Submitter
	quota     Quota
	logger    *zap.Logger
	now       func() time.Time
}

func NewEngine(store repo.Store, notifier *notify.Notifier, submitter Submitter, quota Quota, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:     store,
		notifier:  notifier,
		submitter: submitter,
		quota:     quota,
		logger:    logger,
		now:       time.Now,
	}
}

// Start (re)opens a conversation at the first step with an empty draft.
// Anything collected before is dropped.
func (e *Engine) Start(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if e.store == nil || e.notifier == nil {
		return fmt.Errorf("conversation engine dependencies are not configured")
	}

	if added, err := e.store.AddUser(ctx, userID); err != nil {
		e.logger.Warn("register user failed", zap.Int64("user_id", userID), zap.Error(err))
	} else if added {
		e.logger.Info("new user", zap.Int64("user_id", userID))
	}

	if e.quota != nil {
		retryAfter, err := e.quota.RetryAfter(ctx, userID)
		if err != nil {
			e.logger.Warn("check report quota failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if retryAfter > 0 {
			return e.notifier.Text(ctx, notify.BestEffort, userID, ui.RateLimited(retryAfter))
		}
	}

	if err := e.store.StartConversation(ctx, userID, e.newDraft(userID)); err != nil {
		e.logger.Warn("start conversation write failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	return e.notifier.Text(ctx, notify.BestEffort, userID, ui.WelcomePrompt)
}

// HandleText consumes one answer for the step the reporter is on.
func (e *Engine) HandleText(ctx context.Context, userID int64, text string) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if e.store == nil || e.notifier == nil {
		return fmt.Errorf("conversation engine dependencies are not configured")
	}

	step, err := e.store.GetState(ctx, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			e.logger.Warn("read conversation state failed", zap.Int64("user_id", userID), zap.Error(err))
			return e.Start(ctx, userID)
		}
		if e.awaitingDecision(ctx, userID) {
			return e.notifier.Text(ctx, notify.BestEffort, userID, ui.ReportPending)
		}
		return e.Start(ctx, userID)
	}
	if !step.Valid() {
		e.logger.Warn("unknown conversation state", zap.Int64("user_id", userID), zap.String("state", string(step)))
		return e.Start(ctx, userID)
	}

	answer := strings.TrimSpace(text)
	if answer == "" {
		return e.notifier.Text(ctx, notify.BestEffort, userID, ui.EmptyInput)
	}

	draft, err := e.store.GetDraft(ctx, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			e.logger.Warn("read report draft failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		draft = e.newDraft(userID)
	}

	if step == enums.StepAwaitingProof {
		return e.finalize(ctx, userID, draft, answer)
	}

	next, prompt := e.fill(&draft, step, answer)
	draft.UpdatedAt = e.now().UTC()

	if err := e.store.Advance(ctx, userID, next, draft); err != nil {
		e.logger.Warn("advance conversation write failed",
			zap.Int64("user_id", userID),
			zap.String("state", string(step)),
			zap.Error(err),
		)
	}

	return e.notifier.Text(ctx, notify.BestEffort, userID, prompt)
}

var stepPrompts = map[enums.Step]string{
	enums.StepAwaitingDescription: ui.DescriptionPrompt,
	enums.StepAwaitingAmount:      ui.AmountPrompt,
	enums.StepAwaitingProof:       ui.ProofPrompt,
}

func (e *Engine) fill(draft *model.Report, step enums.Step, answer string) (enums.Step, string) {
	switch step {
	case enums.StepAwaitingTarget:
		draft.Target = answer
	case enums.StepAwaitingDescription:
		draft.Description = answer
	case enums.StepAwaitingAmount:
		draft.Amount = answer
	}

	next, _ := step.Next()
	return next, stepPrompts[next]
}

// awaitingDecision reports whether the idle reporter still has a report in
// front of the moderator. Stray text must not replace it; only /start does.
func (e *Engine) awaitingDecision(ctx context.Context, userID int64) bool {
	draft, err := e.store.GetDraft(ctx, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			e.logger.Warn("read report draft failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return false
	}
	return draft.Submitted() || draft.Complete()
}

// finalize stores the proof link and hands the report to the submitter. The
// write must land before anything is sent to the moderator.
func (e *Engine) finalize(ctx context.Context, userID int64, draft model.Report, answer string) error {
	link, ok := NormalizeProofLink(answer)
	if !ok {
		return e.notifier.Text(ctx, notify.BestEffort, userID, ui.InvalidLink)
	}

	draft.ProofLink = link
	draft.UpdatedAt = e.now().UTC()

	if err := e.store.PutDraft(ctx, userID, draft); err != nil {
		e.logger.Error("finalize report write failed", zap.Int64("user_id", userID), zap.Error(err))
		_ = e.notifier.Text(ctx, notify.BestEffort, userID, ui.SubmissionFailed)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if e.submitter == nil {
		return fmt.Errorf("submitter is not configured")
	}
	return e.submitter.Submit(ctx, userID)
}

func (e *Engine) newDraft(userID int64) model.Report {
	now := e.now().UTC()
	return model.Report{
		ID:         uuid.NewString(),
		ReporterID: userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
