package moderation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/ui"
)

// Archiver keeps a copy of decided reports. Archiving never blocks a
// decision.
type Archiver interface {
	Archive(ctx context.Context, decision enums.Decision, report model.Report) error
}

// DecisionEvent is a press on one of the moderation request buttons.
type DecisionEvent struct {
	CallbackID  string
	ModeratorID int64
	Token       string
	Message     model.MessageRef
	// MessageText is the moderation request as the chat returned it, without
	// formatting.
	MessageText string
}

type Service struct {
	store       repo.Store
	notifier    *notify.Notifier
	archiver    Archiver
	moderatorID int64
	channel     model.Recipient
	logger      *zap.Logger
}

func NewService(store repo.Store, notifier *notify.Notifier, archiver Archiver, moderatorID int64, channel model.Recipient, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		archiver:    archiver,
		moderatorID: moderatorID,
		channel:     channel,
		logger:      logger,
	}
}

// Handle applies a moderator decision. The pending record is read again
// here; a second press on an approved report finds nothing and only alerts.
// Every path answers the callback.
func (s *Service) Handle(ctx context.Context, event DecisionEvent) error {
	if s.store == nil || s.notifier == nil {
		return fmt.Errorf("moderation service dependencies are not configured")
	}

	if event.ModeratorID != s.moderatorID {
		s.logger.Warn("decision from non-moderator ignored", zap.Int64("user_id", event.ModeratorID))
		s.notifier.Ack(ctx, event.CallbackID, "", false)
		return nil
	}

	decision, reporterID, err := ParseDecisionToken(event.Token)
	if err != nil {
		s.logger.Warn("malformed decision token", zap.String("token", event.Token), zap.Error(err))
		s.notifier.Ack(ctx, event.CallbackID, ui.AckInvalidAction, true)
		return err
	}

	switch decision {
	case enums.DecisionApprove:
		return s.approve(ctx, event, reporterID)
	default:
		return s.reject(ctx, event, reporterID)
	}
}

func (s *Service) approve(ctx context.Context, event DecisionEvent, reporterID int64) error {
	report, found, err := s.pending(ctx, reporterID)
	if err != nil {
		s.notifier.Ack(ctx, event.CallbackID, ui.AckStoreFailed, true)
		return err
	}
	if !found {
		s.logger.Info("approval for missing report", zap.Int64("user_id", reporterID))
		s.notifier.Ack(ctx, event.CallbackID, ui.AckReportLost, true)
		return nil
	}

	post := model.OutgoingMessage{
		To:      s.channel,
		Text:    ui.ChannelPost(report),
		HTML:    true,
		Buttons: ui.ChannelButtons(reporterID, report),
	}
	if _, err := s.notifier.Send(ctx, notify.Required, post); err != nil {
		s.logger.Error("publish report failed", zap.Int64("user_id", reporterID), zap.Error(err))
		s.notifier.Ack(ctx, event.CallbackID, ui.AckPublishFailed, true)
		return err
	}

	_ = s.notifier.Text(ctx, notify.BestEffort, reporterID, ui.ReportApproved)
	_ = s.notifier.Edit(ctx, notify.BestEffort, event.Message, ui.DecisionFooter(event.MessageText, enums.DecisionApprove), true)

	s.resolve(ctx, enums.DecisionApprove, reporterID, report)
	s.notifier.Ack(ctx, event.CallbackID, ui.AckApproved, false)
	return nil
}

func (s *Service) reject(ctx context.Context, event DecisionEvent, reporterID int64) error {
	report, found, err := s.pending(ctx, reporterID)
	if err != nil {
		s.logger.Warn("read pending report failed", zap.Int64("user_id", reporterID), zap.Error(err))
	}

	_ = s.notifier.Text(ctx, notify.BestEffort, reporterID, ui.ReportRejected)
	_ = s.notifier.Edit(ctx, notify.BestEffort, event.Message, ui.DecisionFooter(event.MessageText, enums.DecisionReject), true)

	if found {
		s.resolve(ctx, enums.DecisionReject, reporterID, report)
	}
	s.notifier.Ack(ctx, event.CallbackID, ui.AckRejected, false)
	return nil
}

func (s *Service) resolve(ctx context.Context, decision enums.Decision, reporterID int64, report model.Report) {
	if err := s.store.DeleteDraft(ctx, reporterID); err != nil {
		s.logger.Error("delete pending report failed",
			zap.Int64("user_id", reporterID),
			zap.String("decision", string(decision)),
			zap.Error(err),
		)
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, decision, report); err != nil {
			s.logger.Warn("archive report failed", zap.Int64("user_id", reporterID), zap.Error(err))
		}
	}

	s.logger.Info("report decided",
		zap.Int64("user_id", reporterID),
		zap.String("report_id", report.ID),
		zap.String("decision", string(decision)),
	)
}

// pending returns the reporter's record only while it awaits a decision. A
// draft the reporter is filling in again after /start is not pending.
func (s *Service) pending(ctx context.Context, reporterID int64) (model.Report, bool, error) {
	report, err := s.store.GetDraft(ctx, reporterID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Report{}, false, nil
	}
	if err != nil {
		return model.Report{}, false, fmt.Errorf("read pending report: %w", err)
	}
	if report.Submitted() {
		return report, true, nil
	}

	if _, err := s.store.GetState(ctx, reporterID); err == nil {
		return model.Report{}, false, nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return model.Report{}, false, fmt.Errorf("read conversation state: %w", err)
	}
	return report, report.Complete(), nil
}
