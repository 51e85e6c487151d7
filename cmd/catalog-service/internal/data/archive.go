package data

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"moviecatalog/cmd/catalog-service/internal/conf"
	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/pkg/resilience"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// 归档重试参数，minio 客户端自身不重试
const (
	archiveAttempts = 3
	archiveBackoff  = 100 * time.Millisecond
)

// objectStore is the slice of the minio client the archive uses.
type objectStore interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ImportArchive 将原始上传文件归档到 MinIO
type ImportArchive struct {
	store   objectStore
	bucket  string
	timeout time.Duration
	breaker *resilience.Breaker
	now     func() time.Time
}

// NewImportArchive returns a MinIO-backed archive, or a no-op archive when
// no endpoint is configured.
func NewImportArchive(cfg *conf.Config, logger *zap.Logger) (domain.ImportArchive, error) {
	if cfg.Minio.Endpoint == "" {
		logger.Info("minio not configured, import archive disabled")
		return nopArchive{}, nil
	}

	client, err := minio.New(cfg.Minio.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.Minio.AccessKey, cfg.Minio.SecretKey, ""),
		Secure:     cfg.Minio.UseSSL,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, cfg.Minio.Bucket)
	if err != nil {
		logger.Warn("minio bucket check failed", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
	} else if !exists {
		if err := client.MakeBucket(ctx, cfg.Minio.Bucket, minio.MakeBucketOptions{}); err != nil {
			logger.Warn("minio bucket create failed", zap.String("bucket", cfg.Minio.Bucket), zap.Error(err))
		}
	}

	return newImportArchive(client, cfg.Minio.Bucket, cfg.Minio.Timeout, logger), nil
}

func newImportArchive(store objectStore, bucket string, timeout time.Duration, logger *zap.Logger) *ImportArchive {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ImportArchive{
		store:   store,
		bucket:  bucket,
		timeout: timeout,
		breaker: resilience.NewBreaker(resilience.DefaultBreakerConfig("import-archive"), logger),
		now:     time.Now,
	}
}

// Put uploads the raw file under imports/<yyyy/mm/dd>/<uuid><ext>. The
// whole attempt, retries included, is bounded by the archive timeout.
func (a *ImportArchive) Put(ctx context.Context, upload domain.Upload) (string, error) {
	key := a.objectKey(upload.Filename)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	policy := resilience.RetryPolicy{
		Attempts:   archiveAttempts,
		Backoff:    archiveBackoff,
		MaxBackoff: time.Second,
		Retryable:  retryableObjectError,
	}
	err := a.breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.Retry(ctx, policy, func(ctx context.Context) error {
			_, err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(upload.Data), int64(len(upload.Data)), minio.PutObjectOptions{
				ContentType: contentType(upload.Filename),
			})
			return err
		})
	})
	if err != nil {
		return "", fmt.Errorf("archive upload: %w", err)
	}
	return key, nil
}

// retryableObjectError S3 的 4xx 响应（AccessDenied、NoSuchBucket 等）重试无效，408/429 除外
func retryableObjectError(err error) bool {
	switch code := minio.ToErrorResponse(err).StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	case code >= 400 && code < 500:
		return false
	default:
		return true
	}
}

func (a *ImportArchive) objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("imports/%s/%s%s", a.now().UTC().Format("2006/01/02"), uuid.New().String(), ext)
}

func contentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}

type nopArchive struct{}

func (nopArchive) Put(context.Context, domain.Upload) (string, error) { return "", nil }
