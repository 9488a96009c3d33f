package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

const defaultPollTimeout = 30

// Bot wraps the Bot API. Without a token it runs in dry mode: outgoing
// calls are logged and succeed, and Listen just waits for shutdown.
type Bot struct {
	api         *tgbotapi.BotAPI
	logger      *zap.Logger
	pollTimeout int
	dryRun      bool
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
}

type TextUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

type CallbackUpdate struct {
	CallbackID  string
	ChatID      int64
	UserID      int64
	Username    string
	Data        string
	MessageID   int
	MessageText string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnText     func(context.Context, TextUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

func NewBot(token string, pollTimeout int, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	if strings.TrimSpace(token) == "" {
		return &Bot{logger: logger, pollTimeout: pollTimeout, dryRun: true}, nil
	}

	api, err := tgbotapi.NewBotAPI(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return &Bot{api: api, logger: logger, pollTimeout: pollTimeout}, nil
}

func (b *Bot) DryRun() bool {
	return b.dryRun
}

// Listen long-polls for updates until ctx is done. Handler errors are logged
// and do not stop the loop.
func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b.dryRun {
		b.logger.Warn("BOT_TOKEN is empty, running in dry mode")
		<-ctx.Done()
		return nil
	}

	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("delete webhook before polling failed", zap.Error(err))
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := Dispatch(ctx, update, handlers); err != nil {
				b.logger.Error("handle update failed", zap.Int("update_id", update.UpdateID), zap.Error(err))
			}
		}
	}
}

// Dispatch routes one update to the matching handler. Messages are only
// taken from private chats.
func Dispatch(ctx context.Context, update tgbotapi.Update, handlers Handlers) error {
	if message := update.Message; message != nil && message.From != nil && message.Chat != nil {
		if !message.Chat.IsPrivate() {
			return nil
		}

		if message.IsCommand() {
			if handlers.OnCommand == nil {
				return nil
			}
			return handlers.OnCommand(ctx, CommandUpdate{
				ChatID:   message.Chat.ID,
				UserID:   message.From.ID,
				Username: message.From.UserName,
				Command:  strings.ToLower(message.Command()),
				Args:     strings.TrimSpace(message.CommandArguments()),
			})
		}

		if message.Text != "" && handlers.OnText != nil {
			return handlers.OnText(ctx, TextUpdate{
				ChatID:   message.Chat.ID,
				UserID:   message.From.ID,
				Username: message.From.UserName,
				Text:     message.Text,
			})
		}
		return nil
	}

	if query := update.CallbackQuery; query != nil && query.From != nil && handlers.OnCallback != nil {
		callback := CallbackUpdate{
			CallbackID: query.ID,
			UserID:     query.From.ID,
			Username:   query.From.UserName,
			Data:       query.Data,
		}
		if query.Message != nil {
			callback.MessageID = query.Message.MessageID
			callback.MessageText = query.Message.Text
			if query.Message.Chat != nil {
				callback.ChatID = query.Message.Chat.ID
			}
		}
		return handlers.OnCallback(ctx, callback)
	}

	return nil
}

func (b *Bot) Send(ctx context.Context, msg model.OutgoingMessage) (model.MessageRef, error) {
	if msg.To.IsZero() {
		return model.MessageRef{}, fmt.Errorf("recipient is required")
	}
	if b.dryRun {
		b.logger.Info("dry run send", zap.String("to", msg.To.String()), zap.String("text", msg.Text))
		return model.MessageRef{ChatID: msg.To.ChatID}, nil
	}

	var out tgbotapi.MessageConfig
	if msg.To.Username != "" {
		out = tgbotapi.NewMessageToChannel(msg.To.Username, msg.Text)
	} else {
		out = tgbotapi.NewMessage(msg.To.ChatID, msg.Text)
	}
	if msg.HTML {
		out.ParseMode = tgbotapi.ModeHTML
	}
	out.DisableWebPagePreview = true
	if len(msg.Buttons) > 0 {
		out.ReplyMarkup = BuildInlineKeyboard(msg.Buttons)
	}

	sent, err := b.api.Send(out)
	if err != nil {
		return model.MessageRef{}, fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	ref := model.MessageRef{MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

func (b *Bot) EditText(ctx context.Context, ref model.MessageRef, text string, html bool) error {
	if ref.ChatID == 0 || ref.MessageID == 0 {
		return fmt.Errorf("message reference is required")
	}
	if b.dryRun {
		b.logger.Info("dry run edit", zap.Int64("chat_id", ref.ChatID), zap.Int("message_id", ref.MessageID))
		return nil
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	if html {
		edit.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("edit telegram message: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	if strings.TrimSpace(callbackID) == "" || b.dryRun {
		return nil
	}

	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

// SetWebhook registers publicURL with Telegram. When secret is set Telegram
// echoes it in the X-Telegram-Bot-Api-Secret-Token header.
func (b *Bot) SetWebhook(ctx context.Context, publicURL, secret string) error {
	if strings.TrimSpace(publicURL) == "" {
		return fmt.Errorf("webhook url is required")
	}
	if b.dryRun {
		b.logger.Info("dry run set webhook", zap.String("url", publicURL))
		return nil
	}

	params := tgbotapi.Params{"url": strings.TrimSpace(publicURL)}
	params.AddNonEmpty("secret_token", strings.TrimSpace(secret))

	resp, err := b.api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set telegram webhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("set telegram webhook: %s", resp.Description)
	}

	_ = ctx
	return nil
}
