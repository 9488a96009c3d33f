package admin

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/ui"
)

// Telegram allows roughly 30 messages per second to different chats.
const defaultBroadcastPerSecond = 25

type Counters struct {
	Users   int
	Active  int
	Pending int
}

// Service runs the moderator-only commands. Calls from anyone else are
// dropped without a reply.
type Service struct {
	store       repo.Store
	notifier    *notify.Notifier
	moderatorID int64
	limiter     *rate.Limiter
	logger      *zap.Logger
}

func NewService(store repo.Store, notifier *notify.Notifier, moderatorID int64, perSecond int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if perSecond <= 0 {
		perSecond = defaultBroadcastPerSecond
	}
	return &Service{
		store:       store,
		notifier:    notifier,
		moderatorID: moderatorID,
		limiter:     rate.NewLimiter(rate.Limit(perSecond), 1),
		logger:      logger,
	}
}

func (s *Service) IsModerator(userID int64) bool {
	return userID > 0 && userID == s.moderatorID
}

func (s *Service) Counters(ctx context.Context) (Counters, error) {
	if s.store == nil {
		return Counters{}, fmt.Errorf("admin service dependencies are not configured")
	}

	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return Counters{}, err
	}
	states, err := s.store.ListStateKeys(ctx)
	if err != nil {
		return Counters{}, err
	}
	drafts, err := s.store.ListDraftKeys(ctx)
	if err != nil {
		return Counters{}, err
	}

	active := make(map[int64]struct{}, len(states))
	for _, id := range states {
		active[id] = struct{}{}
	}
	pending := 0
	for _, id := range drafts {
		if _, ok := active[id]; !ok {
			pending++
		}
	}

	return Counters{Users: int(users), Active: len(states), Pending: pending}, nil
}

func (s *Service) Stats(ctx context.Context, requesterID int64) error {
	if !s.IsModerator(requesterID) {
		return nil
	}
	if s.notifier == nil {
		return fmt.Errorf("admin service dependencies are not configured")
	}

	counters, err := s.Counters(ctx)
	if err != nil {
		return err
	}

	_, err = s.notifier.Send(ctx, notify.BestEffort, model.OutgoingMessage{
		To:   model.ChatRecipient(requesterID),
		Text: ui.Stats(counters.Users, counters.Active, counters.Pending),
		HTML: true,
	})
	return err
}

// Broadcast sends text to every known user and reports how many deliveries
// succeeded. Failed deliveries are skipped.
func (s *Service) Broadcast(ctx context.Context, requesterID int64, text string) (int, error) {
	if !s.IsModerator(requesterID) {
		return 0, nil
	}
	if s.store == nil || s.notifier == nil {
		return 0, fmt.Errorf("admin service dependencies are not configured")
	}

	body := strings.TrimSpace(text)
	if body == "" {
		return 0, s.notifier.Text(ctx, notify.BestEffort, requesterID, ui.BroadcastUsage)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, userID := range users {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Warn("broadcast interrupted", zap.Int("delivered", delivered), zap.Error(err))
			break
		}
		if err := s.notifier.Text(ctx, notify.Required, userID, body); err != nil {
			s.logger.Debug("broadcast delivery failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		delivered++
	}

	s.logger.Info("broadcast finished", zap.Int("users", len(users)), zap.Int("delivered", delivered))

	return delivered, s.notifier.Text(ctx, notify.BestEffort, requesterID, ui.BroadcastDone(delivered))
}
