// Package sqlite stores bot state in a single SQLite file. It suits
// single-host deployments where running Redis or Postgres is overkill.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
)

const schema = `
CREATE TABLE IF NOT EXISTS known_users (
	user_id INTEGER PRIMARY KEY,
	first_seen_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS conversation_states (
	user_id INTEGER PRIMARY KEY,
	step TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS report_drafts (
	user_id INTEGER PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// ReportStore implements repo.Store on top of database/sql.
type ReportStore struct {
	db *sql.DB
}

var _ repo.Store = (*ReportStore)(nil)

// Open creates the database file (and its directory) if needed and applies
// the schema.
func Open(ctx context.Context, path string) (*ReportStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under concurrent updates.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &ReportStore{db: db}, nil
}

// AddUser inserts the user id once; later calls are no-ops.
func (s *ReportStore) AddUser(ctx context.Context, userID int64) (bool, error) {
	if userID <= 0 {
		return false, fmt.Errorf("invalid user id")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO known_users (user_id, first_seen_at) VALUES (?, ?)`,
		userID, time.Now().Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("add known user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows: %w", err)
	}
	return affected > 0, nil
}

func (s *ReportStore) ListUsers(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, `SELECT user_id FROM known_users ORDER BY user_id`)
}

func (s *ReportStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM known_users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count known users: %w", err)
	}
	return count, nil
}

func (s *ReportStore) GetState(ctx context.Context, userID int64) (enums.Step, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT step FROM conversation_states WHERE user_id = ?`, userID).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
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

func (s *ReportStore) PutState(ctx context.Context, userID int64, step enums.Step) error {
	if !step.Valid() {
		return fmt.Errorf("invalid conversation state %q", step)
	}

	if _, err := s.db.ExecContext(ctx, upsertStateSQL, userID, string(step), time.Now().Unix()); err != nil {
		return fmt.Errorf("put conversation state: %w", err)
	}
	return nil
}

func (s *ReportStore) DeleteState(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}
	return nil
}

func (s *ReportStore) ListStateKeys(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, `SELECT user_id FROM conversation_states ORDER BY user_id`)
}

func (s *ReportStore) GetDraft(ctx context.Context, userID int64) (model.Report, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM report_drafts WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Report{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Report{}, fmt.Errorf("get report draft: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return model.Report{}, fmt.Errorf("decode report draft: %w", err)
	}
	return report, nil
}

func (s *ReportStore) PutDraft(ctx context.Context, userID int64, report model.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report draft: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, upsertDraftSQL, userID, string(payload), time.Now().Unix()); err != nil {
		return fmt.Errorf("put report draft: %w", err)
	}
	return nil
}

func (s *ReportStore) DeleteDraft(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM report_drafts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete report draft: %w", err)
	}
	return nil
}

func (s *ReportStore) ListDraftKeys(ctx context.Context) ([]int64, error) {
	return s.listIDs(ctx, `SELECT user_id FROM report_drafts ORDER BY user_id`)
}

func (s *ReportStore) StartConversation(ctx context.Context, userID int64, draft model.Report) error {
	return s.writeConversation(ctx, userID, enums.StepAwaitingTarget, draft)
}

func (s *ReportStore) Advance(ctx context.Context, userID int64, next enums.Step, draft model.Report) error {
	return s.writeConversation(ctx, userID, next, draft)
}

func (s *ReportStore) writeConversation(ctx context.Context, userID int64, step enums.Step, draft model.Report) error {
	if !step.Valid() {
		return fmt.Errorf("invalid conversation state %q", step)
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode report draft: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().Unix()
	if _, err := tx.ExecContext(ctx, upsertStateSQL, userID, string(step), now); err != nil {
		return fmt.Errorf("write conversation state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsertDraftSQL, userID, string(payload), now); err != nil {
		return fmt.Errorf("write report draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *ReportStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ReportStore) Close() error {
	return s.db.Close()
}

func (s *ReportStore) listIDs(ctx context.Context, query string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return ids, nil
}

const upsertStateSQL = `
INSERT INTO conversation_states (user_id, step, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id)
DO UPDATE SET step = excluded.step, updated_at = excluded.updated_at
`

const upsertDraftSQL = `
INSERT INTO report_drafts (user_id, payload, updated_at)
VALUES (?, ?, ?)
ON CONFLICT (user_id)
DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
`
