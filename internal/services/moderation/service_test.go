package moderation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
	redrepo "github.com/Anujpy12345/Scam-exposer-bot/internal/repo/redis"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/services/notify/notifytest"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/ui"
)

const (
	moderatorID = int64(6899720377)
	reporterID  = int64(777)
)

var channel = model.ParseRecipient("@Scammerawarealert")

type recordingArchiver struct {
	mu        sync.Mutex
	decisions []enums.Decision
	reports   []model.Report
}

func (a *recordingArchiver) Archive(_ context.Context, decision enums.Decision, report model.Report) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.decisions = append(a.decisions, decision)
	a.reports = append(a.reports, report)
	return nil
}

func TestApprovePublishesOnce(t *testing.T) {
	svc, store, recorder, archiver := newTestService(t)
	ctx := context.Background()
	seedPending(t, store)

	if err := svc.Handle(ctx, decisionEvent("cb-1", "approve_777")); err != nil {
		t.Fatalf("approve: %v", err)
	}

	posts := recorder.SentTo(channel)
	if len(posts) != 1 {
		t.Fatalf("expected one channel post, got %d", len(posts))
	}
	if !strings.Contains(posts[0].Text, "ScammerX") || !strings.Contains(posts[0].Text, "$50") {
		t.Fatalf("channel post misses report fields: %s", posts[0].Text)
	}
	if posts[0].Buttons[0][0].URL != "https://t.me/proofchan" {
		t.Fatalf("unexpected proof button: %+v", posts[0].Buttons)
	}

	notices := recorder.SentTo(model.ChatRecipient(reporterID))
	if len(notices) != 1 || notices[0].Text != ui.ReportApproved {
		t.Fatalf("expected one approval notice, got %+v", notices)
	}

	if len(recorder.Edits) != 1 || !strings.HasSuffix(recorder.Edits[0].Text, "Status: Approved</b>") {
		t.Fatalf("expected moderation message edit, got %+v", recorder.Edits)
	}
	if _, err := store.GetDraft(ctx, reporterID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected pending record to be deleted, got %v", err)
	}
	if len(archiver.decisions) != 1 || archiver.decisions[0] != enums.DecisionApprove {
		t.Fatalf("expected approved report to be archived, got %v", archiver.decisions)
	}
	assertLastAnswer(t, recorder, ui.AckApproved, false)

	if err := svc.Handle(ctx, decisionEvent("cb-2", "approve_777")); err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if len(recorder.SentTo(channel)) != 1 {
		t.Fatalf("second approval must not publish again")
	}
	if len(recorder.SentTo(model.ChatRecipient(reporterID))) != 1 {
		t.Fatalf("second approval must not notify the reporter again")
	}
	assertLastAnswer(t, recorder, ui.AckReportLost, true)
}

func TestRejectIsIdempotent(t *testing.T) {
	svc, store, recorder, archiver := newTestService(t)
	ctx := context.Background()
	seedPending(t, store)
	recorder.Fail[model.ChatRecipient(reporterID)] = true

	for i, callbackID := range []string{"cb-1", "cb-2"} {
		if err := svc.Handle(ctx, decisionEvent(callbackID, "reject_777")); err != nil {
			t.Fatalf("reject #%d: %v", i+1, err)
		}
		assertLastAnswer(t, recorder, ui.AckRejected, false)
	}

	if _, err := store.GetDraft(ctx, reporterID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected no pending record after reject, got %v", err)
	}
	keys, err := store.ListDraftKeys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("reject must not create records, got %v %v", keys, err)
	}
	if len(recorder.SentTo(channel)) != 0 {
		t.Fatalf("reject must not publish")
	}
	if len(archiver.decisions) != 1 || archiver.decisions[0] != enums.DecisionReject {
		t.Fatalf("expected a single archived rejection, got %v", archiver.decisions)
	}
	if len(recorder.Edits) != 2 || !strings.HasSuffix(recorder.Edits[1].Text, "Status: Rejected</b>") {
		t.Fatalf("expected rejection edits, got %+v", recorder.Edits)
	}
}

func TestMalformedTokenAlertsWithoutMutation(t *testing.T) {
	svc, store, recorder, _ := newTestService(t)
	ctx := context.Background()
	seedPending(t, store)

	err := svc.Handle(ctx, decisionEvent("cb-1", "approve_77x"))
	if !errors.Is(err, ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken, got %v", err)
	}
	assertLastAnswer(t, recorder, ui.AckInvalidAction, true)

	if _, err := store.GetDraft(ctx, reporterID); err != nil {
		t.Fatalf("pending record must survive a malformed token: %v", err)
	}
	if len(recorder.Sent) != 0 || len(recorder.Edits) != 0 {
		t.Fatalf("malformed token must not produce messages")
	}
}

func TestDecisionFromOtherUserIsIgnored(t *testing.T) {
	svc, store, recorder, _ := newTestService(t)
	ctx := context.Background()
	seedPending(t, store)

	event := decisionEvent("cb-1", "approve_777")
	event.ModeratorID = 12345
	if err := svc.Handle(ctx, event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(recorder.Sent) != 0 || len(recorder.Edits) != 0 {
		t.Fatalf("non-moderator press must not produce messages")
	}
	if _, err := store.GetDraft(ctx, reporterID); err != nil {
		t.Fatalf("pending record must survive: %v", err)
	}
	if len(recorder.Answers) != 1 {
		t.Fatalf("callback must still be answered")
	}
}

func TestApproveKeepsRecordWhenPublishFails(t *testing.T) {
	svc, store, recorder, _ := newTestService(t)
	ctx := context.Background()
	seedPending(t, store)
	recorder.Fail[channel] = true

	if err := svc.Handle(ctx, decisionEvent("cb-1", "approve_777")); err == nil {
		t.Fatalf("expected publish failure to be returned")
	}
	assertLastAnswer(t, recorder, ui.AckPublishFailed, true)

	if _, err := store.GetDraft(ctx, reporterID); err != nil {
		t.Fatalf("record must stay pending for a retry: %v", err)
	}
	if len(recorder.SentTo(model.ChatRecipient(reporterID))) != 0 {
		t.Fatalf("reporter must not be told about an unpublished approval")
	}
}

func TestApproveIgnoresDraftInProgress(t *testing.T) {
	svc, store, recorder, _ := newTestService(t)
	ctx := context.Background()

	draft := model.Report{ID: "new", ReporterID: reporterID, Target: "Someone else"}
	if err := store.Advance(ctx, reporterID, enums.StepAwaitingDescription, draft); err != nil {
		t.Fatalf("seed draft: %v", err)
	}

	if err := svc.Handle(ctx, decisionEvent("cb-1", "approve_777")); err != nil {
		t.Fatalf("approve: %v", err)
	}
	assertLastAnswer(t, recorder, ui.AckReportLost, true)

	if err := svc.Handle(ctx, decisionEvent("cb-2", "reject_777")); err != nil {
		t.Fatalf("reject: %v", err)
	}
	got, err := store.GetDraft(ctx, reporterID)
	if err != nil || got.ID != "new" {
		t.Fatalf("in-progress draft must be left alone, got %+v %v", got, err)
	}
}

func newTestService(t *testing.T) (*Service, repo.Store, *notifytest.Recorder, *recordingArchiver) {
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

	store := redrepo.NewReportStore(client, "test:")
	recorder := notifytest.NewRecorder()
	archiver := &recordingArchiver{}

	svc := NewService(store, notify.NewNotifier(recorder, nil), archiver, moderatorID, channel, nil)
	return svc, store, recorder, archiver
}

func seedPending(t *testing.T, store repo.Store) {
	t.Helper()

	now := time.Now().UTC()
	report := model.Report{
		ID:          "report-1",
		ReporterID:  reporterID,
		Target:      "ScammerX",
		Description: "stole my money",
		Amount:      "$50",
		ProofLink:   "https://t.me/proofchan",
		CreatedAt:   now,
		UpdatedAt:   now,
		SubmittedAt: &now,
	}
	if err := store.PutDraft(context.Background(), reporterID, report); err != nil {
		t.Fatalf("seed pending: %v", err)
	}
}

func decisionEvent(callbackID, token string) DecisionEvent {
	return DecisionEvent{
		CallbackID:  callbackID,
		ModeratorID: moderatorID,
		Token:       token,
		Message:     model.MessageRef{ChatID: moderatorID, MessageID: 10},
		MessageText: "📩 New Scam Report Submitted",
	}
}

func assertLastAnswer(t *testing.T, recorder *notifytest.Recorder, text string, alert bool) {
	t.Helper()

	if len(recorder.Answers) == 0 {
		t.Fatalf("expected callback to be answered")
	}
	last := recorder.Answers[len(recorder.Answers)-1]
	if last.Text != text || last.Alert != alert {
		t.Fatalf("unexpected callback answer: %+v", last)
	}
}
