package botapp

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/config"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	tginfra "github.com/Anujpy12345/Scam-exposer-bot/internal/infra/telegram"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	redrepo "github.com/Anujpy12345/Scam-exposer-bot/internal/repo/redis"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify/notifytest"
	ratesvc "github.com/Anujpy12345/Scam-exposer-bot/internal/services/rate"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/ui"
)

const reporterID = int64(1001)

type testEnv struct {
	app      *App
	store    repo.Store
	recorder *notifytest.Recorder
	mr       *miniredis.Miniredis
	cfg      config.Config
}

func TestReportIsApprovedAndPublishedOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	walkToProof(t, env)
	if err := env.app.handleText(ctx, textUpdate("@proofchan")); err != nil {
		t.Fatalf("proof: %v", err)
	}

	moderator := model.ChatRecipient(env.cfg.Bot.ModeratorID)
	requests := env.recorder.SentTo(moderator)
	if len(requests) != 1 {
		t.Fatalf("expected one moderation request, got %d", len(requests))
	}
	request := requests[0]
	for _, want := range []string{"ScammerX", "stole my money", "$50", "https://t.me/proofchan"} {
		if !strings.Contains(request.Text, want) {
			t.Fatalf("moderation request misses %q: %s", want, request.Text)
		}
	}
	approveToken := request.Buttons[1][0].Data
	if approveToken != "approve_1001" {
		t.Fatalf("unexpected approve token: %q", approveToken)
	}

	reporterMsgs := env.recorder.SentTo(model.ChatRecipient(reporterID))
	if last := reporterMsgs[len(reporterMsgs)-1]; last.Text != ui.ReportSent {
		t.Fatalf("expected confirmation to reporter, got %q", last.Text)
	}
	if _, err := env.store.GetState(ctx, reporterID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected conversation to end after submission, got %v", err)
	}
	pending, err := env.store.GetDraft(ctx, reporterID)
	if err != nil {
		t.Fatalf("expected pending record: %v", err)
	}
	if pending.Target != "ScammerX" || pending.Amount != "$50" || pending.ProofLink != "https://t.me/proofchan" {
		t.Fatalf("unexpected pending record: %+v", pending)
	}

	callback := tginfra.CallbackUpdate{
		CallbackID:  "cb-1",
		ChatID:      env.cfg.Bot.ModeratorID,
		UserID:      env.cfg.Bot.ModeratorID,
		Data:        approveToken,
		MessageID:   1,
		MessageText: request.Text,
	}
	if err := env.app.handleCallback(ctx, callback); err != nil {
		t.Fatalf("approve: %v", err)
	}

	channel := model.ParseRecipient(env.cfg.Bot.Channel)
	if posts := env.recorder.SentTo(channel); len(posts) != 1 {
		t.Fatalf("expected one channel post, got %d", len(posts))
	}
	if _, err := env.store.GetDraft(ctx, reporterID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected pending record to be cleared, got %v", err)
	}

	callback.CallbackID = "cb-2"
	if err := env.app.handleCallback(ctx, callback); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if posts := env.recorder.SentTo(channel); len(posts) != 1 {
		t.Fatalf("stale approve must not publish again, got %d posts", len(posts))
	}
	answers := env.recorder.Answers
	if got := answers[len(answers)-1]; got.Text != ui.AckReportLost || !got.Alert {
		t.Fatalf("expected report lost alert, got %+v", got)
	}
}

func TestConcurrentProofSubmissions(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	walkToProof(t, env)

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- env.app.handleText(ctx, textUpdate("https://t.me/proofchan"))
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent submission: %v", err)
		}
	}

	requests := env.recorder.SentTo(model.ChatRecipient(env.cfg.Bot.ModeratorID))
	if len(requests) < 1 || len(requests) > 2 {
		t.Fatalf("expected one or two moderation requests, got %d", len(requests))
	}
	for _, request := range requests {
		if request.Buttons[1][0].Data != "approve_1001" {
			t.Fatalf("unexpected approve token: %+v", request.Buttons)
		}
	}

	if _, err := env.store.GetState(ctx, reporterID); errors.Is(err, repo.ErrNotFound) {
		draft, err := env.store.GetDraft(ctx, reporterID)
		if err != nil {
			t.Fatalf("expected pending record after submission: %v", err)
		}
		if draft.ProofLink != "https://t.me/proofchan" {
			t.Fatalf("unexpected pending proof link: %q", draft.ProofLink)
		}
	}
}

func TestUnknownCommandIsIgnored(t *testing.T) {
	env := newTestEnv(t, nil)

	err := env.app.handleCommand(context.Background(), tginfra.CommandUpdate{
		ChatID:  reporterID,
		UserID:  reporterID,
		Command: "help",
	})
	if err != nil {
		t.Fatalf("unknown command: %v", err)
	}
	if len(env.recorder.Sent) != 0 {
		t.Fatalf("expected no replies, got %+v", env.recorder.Sent)
	}
}

func TestStatsCommandAnswersModeratorOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	if err := env.app.handleCommand(ctx, commandUpdate(reporterID, "stats", "")); err != nil {
		t.Fatalf("stats from reporter: %v", err)
	}
	if len(env.recorder.Sent) != 0 {
		t.Fatalf("stats must stay silent for regular users")
	}

	if err := env.app.handleCommand(ctx, commandUpdate(env.cfg.Bot.ModeratorID, "stats", "")); err != nil {
		t.Fatalf("stats from moderator: %v", err)
	}
	if len(env.recorder.SentTo(model.ChatRecipient(env.cfg.Bot.ModeratorID))) != 1 {
		t.Fatalf("expected stats reply to moderator")
	}
}

func TestBroadcastReachesKnownUsers(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	for _, id := range []int64{11, 12} {
		if err := env.app.handleCommand(ctx, commandUpdate(id, "start", "")); err != nil {
			t.Fatalf("start %d: %v", id, err)
		}
	}
	env.recorder.Reset()

	if err := env.app.handleCommand(ctx, commandUpdate(env.cfg.Bot.ModeratorID, "broadcast", "hello all")); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	for _, id := range []int64{11, 12} {
		msgs := env.recorder.SentTo(model.ChatRecipient(id))
		if len(msgs) != 1 || msgs[0].Text != "hello all" {
			t.Fatalf("user %d did not receive broadcast: %+v", id, msgs)
		}
	}
}

func TestQuotaBlocksNewReports(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Limits.ReportsPerHour = 1
	})
	ctx := context.Background()

	walkToProof(t, env)
	if err := env.app.handleText(ctx, textUpdate("https://t.me/proofchan")); err != nil {
		t.Fatalf("proof: %v", err)
	}
	env.recorder.Reset()

	if err := env.app.handleCommand(ctx, commandUpdate(reporterID, "start", "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	msgs := env.recorder.SentTo(model.ChatRecipient(reporterID))
	if len(msgs) != 1 || msgs[0].Text == ui.WelcomePrompt {
		t.Fatalf("expected a rate limit notice, got %+v", msgs)
	}
	if _, err := env.store.GetState(ctx, reporterID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("blocked start must not open a conversation, got %v", err)
	}
}

func TestRepeatedProofLinkKeepsReportPublishable(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	walkToProof(t, env)
	for i := 0; i < 2; i++ {
		if err := env.app.handleText(ctx, textUpdate("@proofchan")); err != nil {
			t.Fatalf("proof #%d: %v", i+1, err)
		}
	}

	moderator := model.ChatRecipient(env.cfg.Bot.ModeratorID)
	if requests := env.recorder.SentTo(moderator); len(requests) != 1 {
		t.Fatalf("expected one moderation request, got %d", len(requests))
	}
	reporterMsgs := env.recorder.SentTo(model.ChatRecipient(reporterID))
	if last := reporterMsgs[len(reporterMsgs)-1]; last.Text != ui.ReportPending {
		t.Fatalf("expected pending notice for the repeated link, got %q", last.Text)
	}

	err := env.app.handleCallback(ctx, tginfra.CallbackUpdate{
		CallbackID: "cb-1",
		ChatID:     env.cfg.Bot.ModeratorID,
		UserID:     env.cfg.Bot.ModeratorID,
		Data:       "approve_1001",
		MessageID:  1,
	})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	posts := env.recorder.SentTo(model.ParseRecipient(env.cfg.Bot.Channel))
	if len(posts) != 1 || !strings.Contains(posts[0].Text, "ScammerX") {
		t.Fatalf("expected one channel post for the report, got %+v", posts)
	}
	answers := env.recorder.Answers
	if got := answers[len(answers)-1]; got.Text != ui.AckApproved {
		t.Fatalf("expected approved ack, got %+v", got)
	}
}

func TestDeliveryFailureKeepsConversation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	walkToProof(t, env)

	moderator := model.ChatRecipient(env.cfg.Bot.ModeratorID)
	env.recorder.Fail[moderator] = true

	if err := env.app.handleText(ctx, textUpdate("https://t.me/proofchan")); err != nil {
		t.Fatalf("delivery failure should be reported to the user, not returned: %v", err)
	}
	step, err := env.store.GetState(ctx, reporterID)
	if err != nil || step != enums.StepAwaitingProof {
		t.Fatalf("expected conversation to stay at proof step, got %s %v", step, err)
	}

	delete(env.recorder.Fail, moderator)
	if err := env.app.handleText(ctx, textUpdate("https://t.me/proofchan")); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(env.recorder.SentTo(moderator)) != 1 {
		t.Fatalf("expected retry to reach the moderator")
	}
}

func walkToProof(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	if err := env.app.handleCommand(ctx, commandUpdate(reporterID, "start", "")); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, answer := range []string{"ScammerX", "stole my money", "$50"} {
		if err := env.app.handleText(ctx, textUpdate(answer)); err != nil {
			t.Fatalf("answer %q: %v", answer, err)
		}
	}

	step, err := env.store.GetState(ctx, reporterID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if step != enums.StepAwaitingProof {
		t.Fatalf("expected proof step, got %s", step)
	}
}

func commandUpdate(userID int64, command, args string) tginfra.CommandUpdate {
	return tginfra.CommandUpdate{ChatID: userID, UserID: userID, Command: command, Args: args}
}

func textUpdate(text string) tginfra.TextUpdate {
	return tginfra.TextUpdate{ChatID: reporterID, UserID: reporterID, Text: text}
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	cfg := config.Default()
	cfg.Limits.BroadcastPerSecond = 1000
	if mutate != nil {
		mutate(&cfg)
	}

	store := redrepo.NewReportStore(client, cfg.Redis.Prefix)
	recorder := notifytest.NewRecorder()
	quota := ratesvc.NewLimiter(
		redrepo.NewQuotaRepo(client, cfg.Redis.Prefix),
		cfg.Limits.ReportsPerHour,
		cfg.Limits.ReportsPerDay,
	)

	app := NewWithDependencies(cfg, zap.NewNop(), Dependencies{
		Store:     store,
		Messenger: recorder,
		Quota:     quota,
	})

	return &testEnv{app: app, store: store, recorder: recorder, mr: mr, cfg: cfg}
}

func TestNewWithoutTokenRunsDry(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	cfg := config.Default()
	cfg.Store.Driver = config.StoreSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "reports.db")

	app, err := New(context.Background(), cfg, zap.New(core))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close()

	if app.bot == nil || !app.bot.DryRun() {
		t.Fatalf("expected a dry-run bot without a token")
	}
	if logs.FilterMessage("bot token is empty, outbound messages are only logged").Len() != 1 {
		t.Fatalf("expected dry-run warning, got %v", logs.All())
	}
}
