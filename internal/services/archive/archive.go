package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/enums"
	"github.com/Anujpy12345/Scam-exposer-bot/internal/domain/model"
)

// ObjectStore is the subset of *minio.Client the archive uses.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Record is the archived form of a decided report.
type Record struct {
	Decision  enums.Decision `json:"decision"`
	DecidedAt time.Time      `json:"decided_at"`
	Report    model.Report   `json:"report"`
}

// Archive writes decided reports to an S3 bucket as JSON objects.
type Archive struct {
	client ObjectStore
	bucket string
	now    func() time.Time

	mu          sync.Mutex
	bucketReady bool
}

func New(client ObjectStore, bucket string) *Archive {
	return &Archive{
		client: client,
		bucket: strings.TrimSpace(bucket),
		now:    time.Now,
	}
}

func (a *Archive) EnsureBucket(ctx context.Context) error {
	if a.client == nil {
		return fmt.Errorf("s3 client is nil")
	}
	if a.bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bucketReady {
		return nil
	}

	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("ensure s3 bucket %q: %w", a.bucket, err)
	}
	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("ensure s3 bucket %q: %w", a.bucket, err)
		}
	}

	// Failures are not cached; the next decision tries again.
	a.bucketReady = true
	return nil
}

func (a *Archive) Archive(ctx context.Context, decision enums.Decision, report model.Report) error {
	if !decision.Valid() {
		return fmt.Errorf("invalid decision %q", decision)
	}
	if err := a.EnsureBucket(ctx); err != nil {
		return err
	}

	record := Record{
		Decision:  decision,
		DecidedAt: a.now().UTC(),
		Report:    report,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode archive record: %w", err)
	}

	key := ObjectKey(record)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put archive object: %w", err)
	}
	return nil
}

// ObjectKey lays records out by decision and day:
// reports/<decision>/<yyyy>/<mm>/<dd>/<reporter>-<report id>.json
func ObjectKey(record Record) string {
	reportID := strings.TrimSpace(record.Report.ID)
	if reportID == "" {
		reportID = uuid.NewString()
	}
	return strings.Join([]string{
		"reports",
		string(record.Decision),
		record.DecidedAt.Format("2006/01/02"),
		strconv.FormatInt(record.Report.ReporterID, 10) + "-" + reportID + ".json",
	}, "/")
}
