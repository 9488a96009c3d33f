package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
)

type ReportStore struct {
	pool *pgxpool.Pool
}

var _ repo.Store = (*ReportStore)(nil)

func NewReportStore(pool *pgxpool.Pool) *ReportStore {
	return &ReportStore{pool: pool}
}

func (r *ReportStore) AddUser(ctx context.Context, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return false, fmt.Errorf("invalid user id")
	}

	tag, err := r.pool.Exec(ctx, `
INSERT INTO known_users (user_id) VALUES ($1)
ON CONFLICT (user_id) DO NOTHING
`, userID)
	if err != nil {
		return false, fmt.Errorf("add known user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ReportStore) ListUsers(ctx context.Context) ([]int64, error) {
	return r.listIDs(ctx, `SELECT user_id FROM known_users ORDER BY user_id`)
}

func (r *ReportStore) CountUsers(ctx context.Context) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM known_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count known users: %w", err)
	}
	return count, nil
}

func (r *ReportStore) GetState(ctx context.Context, userID int64) (enums.Step, error) {
	if r.pool == nil {
		return "", fmt.Errorf("postgres pool is nil")
	}

	var value string
	err := r.pool.QueryRow(ctx, `SELECT step FROM conversation_states WHERE user_id = $1`, userID).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get conversation state: %w", err)
	}

	step := enums.Step(value)
	if !step.Valid() {
		return "", fmt.Errorf("unknown conversation state %q", value)
	}
	return step, nil
}

func (r *ReportStore) PutState(ctx context.Context, userID int64, step enums.Step) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if !step.Valid() {
		return fmt.Errorf("invalid conversation state %q", step)
	}

	if _, err := r.pool.Exec(ctx, upsertStateSQL, userID, string(step)); err != nil {
		return fmt.Errorf("put conversation state: %w", err)
	}
	return nil
}

func (r *ReportStore) DeleteState(ctx context.Context, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM conversation_states WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}
	return nil
}

func (r *ReportStore) ListStateKeys(ctx context.Context) ([]int64, error) {
	return r.listIDs(ctx, `SELECT user_id FROM conversation_states ORDER BY user_id`)
}

func (r *ReportStore) GetDraft(ctx context.Context, userID int64) (model.Report, error) {
	if r.pool == nil {
		return model.Report{}, fmt.Errorf("postgres pool is nil")
	}

	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM report_drafts WHERE user_id = $1`, userID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Report{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Report{}, fmt.Errorf("get report draft: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return model.Report{}, fmt.Errorf("decode report draft: %w", err)
	}
	return report, nil
}

func (r *ReportStore) PutDraft(ctx context.Context, userID int64, report model.Report) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report draft: %w", err)
	}

	if _, err := r.pool.Exec(ctx, upsertDraftSQL, userID, payload); err != nil {
		return fmt.Errorf("put report draft: %w", err)
	}
	return nil
}

func (r *ReportStore) DeleteDraft(ctx context.Context, userID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	if _, err := r.pool.Exec(ctx, `DELETE FROM report_drafts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete report draft: %w", err)
	}
	return nil
}

func (r *ReportStore) ListDraftKeys(ctx context.Context) ([]int64, error) {
	return r.listIDs(ctx, `SELECT user_id FROM report_drafts ORDER BY user_id`)
}

func (r *ReportStore) StartConversation(ctx context.Context, userID int64, draft model.Report) error {
	return r.writeConversation(ctx, userID, enums.StepAwaitingTarget, draft)
}

func (r *ReportStore) Advance(ctx context.Context, userID int64, next enums.Step, draft model.Report) error {
	return r.writeConversation(ctx, userID, next, draft)
}

func (r *ReportStore) writeConversation(ctx context.Context, userID int64, step enums.Step, draft model.Report) error {
	if !step.Valid() {
		return fmt.Errorf("invalid conversation state %q", step)
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode report draft: %w", err)
	}

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertStateSQL, userID, string(step)); err != nil {
			return fmt.Errorf("write conversation state: %w", err)
		}
		if _, err := tx.Exec(ctx, upsertDraftSQL, userID, payload); err != nil {
			return fmt.Errorf("write report draft: %w", err)
		}
		return nil
	})
}

func (r *ReportStore) Ping(ctx context.Context) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	return r.pool.Ping(ctx)
}

func (r *ReportStore) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func (r *ReportStore) listIDs(ctx context.Context, query string) ([]int64, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	return ids, nil
}

const upsertStateSQL = `
INSERT INTO conversation_states (user_id, step, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id)
DO UPDATE SET step = EXCLUDED.step, updated_at = EXCLUDED.updated_at
`

const upsertDraftSQL = `
INSERT INTO report_drafts (user_id, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
`
