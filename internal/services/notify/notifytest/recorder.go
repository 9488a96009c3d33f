// Package notifytest provides an in-memory notify.Messenger for tests.
package notifytest

import (
	"context"
	"errors"
	"sync"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

var ErrBlocked = errors.New("forbidden: bot was blocked by the user")

type Edit struct {
	Ref  model.MessageRef
	Text string
	HTML bool
}

type Answer struct {
	CallbackID string
	Text       string
	Alert      bool
}

// Recorder captures every outbound call. Recipients listed in Fail make Send
// return ErrBlocked.
type Recorder struct {
	mu      sync.Mutex
	nextID  int
	Sent    []model.OutgoingMessage
	Edits   []Edit
	Answers []Answer

	Fail      map[model.Recipient]bool
	FailEdits bool
}

func NewRecorder() *Recorder {
	return &Recorder{Fail: make(map[model.Recipient]bool)}
}

func (r *Recorder) Send(_ context.Context, msg model.OutgoingMessage) (model.MessageRef, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Fail[msg.To] {
		return model.MessageRef{}, ErrBlocked
	}

	r.nextID++
	r.Sent = append(r.Sent, msg)
	return model.MessageRef{ChatID: msg.To.ChatID, MessageID: r.nextID}, nil
}

func (r *Recorder) EditText(_ context.Context, ref model.MessageRef, text string, html bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailEdits {
		return errors.New("message to edit not found")
	}
	r.Edits = append(r.Edits, Edit{Ref: ref, Text: text, HTML: html})
	return nil
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Answers = append(r.Answers, Answer{CallbackID: callbackID, Text: text, Alert: alert})
	return nil
}

// SentTo returns the messages delivered to the given recipient, in order.
func (r *Recorder) SentTo(to model.Recipient) []model.OutgoingMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.OutgoingMessage, 0)
	for _, msg := range r.Sent {
		if msg.To == to {
			out = append(out, msg)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sent = nil
	r.Edits = nil
	r.Answers = nil
}
