package notify

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	Send(ctx context.Context, msg model.OutgoingMessage) (model.MessageRef, error)
	EditText(ctx context.Context, ref model.MessageRef, text string, html bool) error
	AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error
}

// Policy decides what happens when a delivery fails.
type Policy int

const (
	// Required deliveries return their error to the caller.
	Required Policy = iota
	// BestEffort deliveries are logged and reported as successful. Used for
	// users that may have blocked the bot.
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case Required:
		return "required"
	case BestEffort:
		return "best_effort"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

var ErrNoMessenger = errors.New("messenger is not configured")

type Notifier struct {
	messenger Messenger
	logger    *zap.Logger
}

func NewNotifier(messenger Messenger, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{messenger: messenger, logger: logger}
}

func (n *Notifier) Send(ctx context.Context, policy Policy, msg model.OutgoingMessage) (model.MessageRef, error) {
	if n.messenger == nil {
		return model.MessageRef{}, n.settle(policy, "send", msg.To, ErrNoMessenger)
	}

	ref, err := n.messenger.Send(ctx, msg)
	if err != nil {
		return model.MessageRef{}, n.settle(policy, "send", msg.To, err)
	}
	return ref, nil
}

// Text is a shortcut for a plain message to a private chat.
func (n *Notifier) Text(ctx context.Context, policy Policy, chatID int64, text string) error {
	_, err := n.Send(ctx, policy, model.OutgoingMessage{
		To:   model.ChatRecipient(chatID),
		Text: text,
	})
	return err
}

func (n *Notifier) Edit(ctx context.Context, policy Policy, ref model.MessageRef, text string, html bool) error {
	target := model.ChatRecipient(ref.ChatID)
	if n.messenger == nil {
		return n.settle(policy, "edit", target, ErrNoMessenger)
	}
	if err := n.messenger.EditText(ctx, ref, text, html); err != nil {
		return n.settle(policy, "edit", target, err)
	}
	return nil
}

// Ack answers a callback query. Acknowledgements are always best effort: a
// stale callback id must not turn a completed decision into a failure.
func (n *Notifier) Ack(ctx context.Context, callbackID, text string, alert bool) {
	if n.messenger == nil || callbackID == "" {
		return
	}
	if err := n.messenger.AnswerCallback(ctx, callbackID, text, alert); err != nil {
		n.logger.Warn("answer callback failed", zap.Error(err), zap.String("callback_id", callbackID))
	}
}

func (n *Notifier) settle(policy Policy, op string, to model.Recipient, err error) error {
	if policy == BestEffort {
		n.logger.Warn("best-effort delivery failed",
			zap.String("op", op),
			zap.String("to", to.String()),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s to %s: %w", op, to.String(), err)
}
