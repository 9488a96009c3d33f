package submission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/moderation"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/ui"
)

var (
	ErrDeliveryFailed   = errors.New("moderation request was not delivered")
	ErrIncompleteReport = errors.New("report draft is incomplete")
)

type QuotaRecorder interface {
	Record(ctx context.Context, userID int64) error
}

type Router struct {
	store       repo.Store
	notifier    *notify.Notifier
	quota       QuotaRecorder
	moderatorID int64
	logger      *zap.Logger
	now         func() time.Time
}

func NewRouter(store repo.Store, notifier *notify.Notifier, quota QuotaRecorder, moderatorID int64, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		store:       store,
		notifier:    notifier,
		quota:       quota,
		moderatorID: moderatorID,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit sends the reporter's finalized draft to the moderator. On success
// the conversation state is cleared and the draft stays behind as the
// pending moderation record.
func (r *Router) Submit(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}
	if r.store == nil || r.notifier == nil || r.moderatorID <= 0 {
		return fmt.Errorf("submission router dependencies are not configured")
	}

	draft, err := r.store.GetDraft(ctx, userID)
	if err != nil {
		_ = r.notifier.Text(ctx, notify.BestEffort, userID, ui.SubmissionFailed)
		return fmt.Errorf("read report draft: %w", err)
	}
	if !draft.Complete() {
		_ = r.notifier.Text(ctx, notify.BestEffort, userID, ui.SubmissionFailed)
		return ErrIncompleteReport
	}

	if _, err := r.notifier.Send(ctx, notify.Required, ModerationMessage(r.moderatorID, userID, draft)); err != nil {
		r.logger.Error("deliver moderation request failed", zap.Int64("user_id", userID), zap.Error(err))
		_ = r.notifier.Text(ctx, notify.BestEffort, userID, ui.DeliveryFailed)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	submittedAt := r.now().UTC()
	draft.SubmittedAt = &submittedAt
	draft.UpdatedAt = submittedAt
	if err := r.store.PutDraft(ctx, userID, draft); err != nil {
		r.logger.Warn("stamp submitted report failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	if err := r.store.DeleteState(ctx, userID); err != nil {
		r.logger.Warn("clear conversation state failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	if r.quota != nil {
		if err := r.quota.Record(ctx, userID); err != nil {
			r.logger.Warn("record report quota failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	r.logger.Info("report submitted", zap.Int64("user_id", userID), zap.String("report_id", draft.ID))

	return r.notifier.Text(ctx, notify.BestEffort, userID, ui.ReportSent)
}

// ModerationMessage builds the request the moderator approves or rejects.
func ModerationMessage(moderatorID, reporterID int64, report model.Report) model.OutgoingMessage {
	return model.OutgoingMessage{
		To:   model.ChatRecipient(moderatorID),
		Text: ui.ModerationRequest(reporterID, report),
		HTML: true,
		Buttons: [][]model.Button{
			{{Text: "🔍 View Proofs", URL: report.ProofLink}},
			{
				{Text: "✅ Accept", Data: moderation.FormatDecisionToken(enums.DecisionApprove, reporterID)},
				{Text: "❌ Reject", Data: moderation.FormatDecisionToken(enums.DecisionReject, reporterID)},
			},
		},
	}
}
