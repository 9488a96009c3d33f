package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/repo"
)

const defaultPrefix = "scamreport:"

type ReportStore struct {
	client *goredis.Client
	prefix string
}

var _ repo.Store = (*ReportStore)(nil)

func NewReportStore(client *goredis.Client, prefix string) *ReportStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &ReportStore{client: client, prefix: prefix}
}

func (r *ReportStore) AddUser(ctx context.Context, userID int64) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	if userID <= 0 {
		return false, fmt.Errorf("invalid user id")
	}

	added, err := r.client.SAdd(ctx, r.usersKey(), formatID(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("add known user: %w", err)
	}
	return added > 0, nil
}

func (r *ReportStore) ListUsers(ctx context.Context) ([]int64, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	members, err := r.client.SMembers(ctx, r.usersKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list known users: %w", err)
	}
	return parseIDs(members), nil
}

func (r *ReportStore) CountUsers(ctx context.Context) (int64, error) {
	if r.client == nil {
		return 0, fmt.Errorf("redis client is nil")
	}

	count, err := r.client.SCard(ctx, r.usersKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("count known users: %w", err)
	}
	return count, nil
}

func (r *ReportStore) GetState(ctx context.Context, userID int64) (enums.Step, error) {
	if r.client == nil {
		return "", fmt.Errorf("redis client is nil")
	}

	value, err := r.client.HGet(ctx, r.statesKey(), formatID(userID)).Result()
	if errors.Is(err, goredis.Nil) {
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
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if !step.Valid() {
		return fmt.Errorf("invalid conversation state %q", step)
	}

	if err := r.client.HSet(ctx, r.statesKey(), formatID(userID), string(step)).Err(); err != nil {
		return fmt.Errorf("put conversation state: %w", err)
	}
	return nil
}

func (r *ReportStore) DeleteState(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := r.client.HDel(ctx, r.statesKey(), formatID(userID)).Err(); err != nil {
		return fmt.Errorf("delete conversation state: %w", err)
	}
	return nil
}

func (r *ReportStore) ListStateKeys(ctx context.Context) ([]int64, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	keys, err := r.client.HKeys(ctx, r.statesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list conversation states: %w", err)
	}
	return parseIDs(keys), nil
}

func (r *ReportStore) GetDraft(ctx context.Context, userID int64) (model.Report, error) {
	if r.client == nil {
		return model.Report{}, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.HGet(ctx, r.draftsKey(), formatID(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.Report{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Report{}, fmt.Errorf("get report draft: %w", err)
	}

	var report model.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return model.Report{}, fmt.Errorf("decode report draft: %w", err)
	}
	return report, nil
}

func (r *ReportStore) PutDraft(ctx context.Context, userID int64, report model.Report) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report draft: %w", err)
	}

	if err := r.client.HSet(ctx, r.draftsKey(), formatID(userID), payload).Err(); err != nil {
		return fmt.Errorf("put report draft: %w", err)
	}
	return nil
}

func (r *ReportStore) DeleteDraft(ctx context.Context, userID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	if err := r.client.HDel(ctx, r.draftsKey(), formatID(userID)).Err(); err != nil {
		return fmt.Errorf("delete report draft: %w", err)
	}
	return nil
}

func (r *ReportStore) ListDraftKeys(ctx context.Context) ([]int64, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	keys, err := r.client.HKeys(ctx, r.draftsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list report drafts: %w", err)
	}
	return parseIDs(keys), nil
}

func (r *ReportStore) StartConversation(ctx context.Context, userID int64, draft model.Report) error {
	return r.writeConversation(ctx, userID, enums.StepAwaitingTarget, draft)
}

func (r *ReportStore) Advance(ctx context.Context, userID int64, next enums.Step, draft model.Report) error {
	return r.writeConversation(ctx, userID, next, draft)
}

func (r *ReportStore) writeConversation(ctx context.Context, userID int64, step enums.Step, draft model.Report) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if !step.Valid() {
		return fmt.Errorf("invalid conversation state %q", step)
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("encode report draft: %w", err)
	}

	field := formatID(userID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.statesKey(), field, string(step))
	pipe.HSet(ctx, r.draftsKey(), field, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write conversation: %w", err)
	}
	return nil
}

func (r *ReportStore) Ping(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return r.client.Ping(ctx).Err()
}

func (r *ReportStore) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *ReportStore) usersKey() string {
	return r.prefix + "users"
}

func (r *ReportStore) statesKey() string {
	return r.prefix + "states"
}

func (r *ReportStore) draftsKey() string {
	return r.prefix + "drafts"
}

func formatID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func parseIDs(values []string) []int64 {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
