package repo

import (
	"context"
	"errors"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

var ErrNotFound = errors.New("record not found")

// Store keeps the three keyed collections the bot needs between updates:
// known users, conversation states and report drafts. Implementations must
// not cache reads; every call reflects the latest committed write.
type Store interface {
	// AddUser reports whether the user was not known before.
	AddUser(ctx context.Context, userID int64) (bool, error)
	ListUsers(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int64, error)

	GetState(ctx context.Context, userID int64) (enums.Step, error)
	PutState(ctx context.Context, userID int64, step enums.Step) error
	DeleteState(ctx context.Context, userID int64) error
	ListStateKeys(ctx context.Context) ([]int64, error)

	GetDraft(ctx context.Context, userID int64) (model.Report, error)
	PutDraft(ctx context.Context, userID int64, report model.Report) error
	DeleteDraft(ctx context.Context, userID int64) error
	ListDraftKeys(ctx context.Context) ([]int64, error)

	// StartConversation replaces both the state and the draft of userID in
	// one write.
	StartConversation(ctx context.Context, userID int64, draft model.Report) error
	// Advance stores the next step together with the draft that step fills.
	Advance(ctx context.Context, userID int64, next enums.Step, draft model.Report) error

	Ping(ctx context.Context) error
	Close() error
}
