package repotest

import (
	"context"
	"sync"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
)

// Op names accepted by Faulty.FailOn.
const (
	OpAddUser           = "AddUser"
	OpGetState          = "GetState"
	OpDeleteState       = "DeleteState"
	OpGetDraft          = "GetDraft"
	OpPutDraft          = "PutDraft"
	OpDeleteDraft       = "DeleteDraft"
	OpStartConversation = "StartConversation"
	OpAdvance           = "Advance"
)

// Faulty wraps a store and fails selected operations with a fixed error.
type Faulty struct {
	repo.Store

	mu    sync.Mutex
	fails map[string]error
}

func NewFaulty(store repo.Store) *Faulty {
	return &Faulty{Store: store, fails: make(map[string]error)}
}

func (f *Faulty) FailOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[op] = err
}

func (f *Faulty) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails = make(map[string]error)
}

func (f *Faulty) fail(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fails[op]
}

func (f *Faulty) AddUser(ctx context.Context, userID int64) (bool, error) {
	if err := f.fail(OpAddUser); err != nil {
		return false, err
	}
	return f.Store.AddUser(ctx, userID)
}

func (f *Faulty) GetState(ctx context.Context, userID int64) (enums.Step, error) {
	if err := f.fail(OpGetState); err != nil {
		return "", err
	}
	return f.Store.GetState(ctx, userID)
}

func (f *Faulty) DeleteState(ctx context.Context, userID int64) error {
	if err := f.fail(OpDeleteState); err != nil {
		return err
	}
	return f.Store.DeleteState(ctx, userID)
}

func (f *Faulty) GetDraft(ctx context.Context, userID int64) (model.Report, error) {
	if err := f.fail(OpGetDraft); err != nil {
		return model.Report{}, err
	}
	return f.Store.GetDraft(ctx, userID)
}

func (f *Faulty) PutDraft(ctx context.Context, userID int64, report model.Report) error {
	if err := f.fail(OpPutDraft); err != nil {
		return err
	}
	return f.Store.PutDraft(ctx, userID, report)
}

func (f *Faulty) DeleteDraft(ctx context.Context, userID int64) error {
	if err := f.fail(OpDeleteDraft); err != nil {
		return err
	}
	return f.Store.DeleteDraft(ctx, userID)
}

func (f *Faulty) StartConversation(ctx context.Context, userID int64, draft model.Report) error {
	if err := f.fail(OpStartConversation); err != nil {
		return err
	}
	return f.Store.StartConversation(ctx, userID, draft)
}

func (f *Faulty) Advance(ctx context.Context, userID int64, next enums.Step, draft model.Report) error {
	if err := f.fail(OpAdvance); err != nil {
		return err
	}
	return f.Store.Advance(ctx, userID, next, draft)
}
