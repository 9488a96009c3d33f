package botapp

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	tginfra "github.com/Anujpy12345/Scam-exposer-bot/internal/infra/telegram"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/conversation"
	modsvc "github.com/Anujpy12345/Scam-exposer-bot/internal/services/moderation"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/submission"
)

func (a *App) handleCommand(ctx context.Context, update tginfra.CommandUpdate) error {
	switch update.Command {
	case "start":
		return a.engine.Start(ctx, update.UserID)
	case "stats":
		return a.adminService.Stats(ctx, update.UserID)
	case "broadcast":
		_, err := a.adminService.Broadcast(ctx, update.UserID, update.Args)
		return err
	default:
		return nil
	}
}

func (a *App) handleText(ctx context.Context, update tginfra.TextUpdate) error {
	err := a.engine.HandleText(ctx, update.UserID, update.Text)
	if errors.Is(err, submission.ErrDeliveryFailed) || errors.Is(err, conversation.ErrStoreUnavailable) {
		// The reporter has already been told.
		a.logger.Warn("report not submitted", zap.Int64("user_id", update.UserID), zap.Error(err))
		return nil
	}
	return err
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	err := a.moderationService.Handle(ctx, modsvc.DecisionEvent{
		CallbackID:  update.CallbackID,
		ModeratorID: update.UserID,
		Token:       update.Data,
		Message:     model.MessageRef{ChatID: update.ChatID, MessageID: update.MessageID},
		MessageText: update.MessageText,
	})
	if errors.Is(err, modsvc.ErrMalformedToken) {
		a.logger.Warn("malformed decision token", zap.String("data", update.Data))
		return nil
	}
	return err
}
