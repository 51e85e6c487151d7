package biz

import (
	"context"
	"errors"

	"moviecatalog/cmd/catalog-service/internal/domain"
	apierrors "moviecatalog/pkg/errors"
	"moviecatalog/pkg/monitoring"
	"moviecatalog/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "catalog-service/biz"

// IngestResult 批量导入结果
type IngestResult struct {
	Movies     []*domain.Movie
	ArchiveKey string
}

// IngestUsecase 批量导入用例: decode → normalize → batch insert
type IngestUsecase struct {
	decoder    domain.TabularDecoder
	normalizer *Normalizer
	repo       domain.MovieRepository
	archive    domain.ImportArchive
	cache      domain.ListCache
	notifier   *Notifier
	logger     *zap.Logger
}

// NewIngestUsecase 创建批量导入用例
func NewIngestUsecase(
	decoder domain.TabularDecoder,
	normalizer *Normalizer,
	repo domain.MovieRepository,
	archive domain.ImportArchive,
	cache domain.ListCache,
	notifier *Notifier,
	logger *zap.Logger,
) *IngestUsecase {
	return &IngestUsecase{
		decoder:    decoder,
		normalizer: normalizer,
		repo:       repo,
		archive:    archive,
		cache:      cache,
		notifier:   notifier,
		logger:     logger,
	}
}

// Ingest imports every row of the upload's first sheet. The batch is not
// transactional: on a store failure part of it may already be persisted.
func (uc *IngestUsecase) Ingest(ctx context.Context, upload domain.Upload, actor string) (*IngestResult, error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "IngestUsecase.Ingest")
	defer span.End()

	result := &IngestResult{Movies: []*domain.Movie{}}

	// 1. 归档原始文件（尽力而为）
	key, err := uc.archive.Put(ctx, upload)
	if err != nil {
		uc.logger.Warn("failed to archive upload", zap.String("filename", upload.Filename), zap.Error(err))
	}
	result.ArchiveKey = key

	// 2. 解析
	rows, err := uc.decoder.Decode(upload.Data)
	if err != nil {
		monitoring.IngestBatchesTotal.WithLabelValues("undecodable").Inc()
		observability.RecordError(span, err)
		return nil, apierrors.NewValidationError(domain.ErrUndecodableFile.Error()).WithCause(errors.Join(domain.ErrUndecodableFile, err))
	}

	// 3. 规范化
	drafts := uc.normalizer.NormalizeAll(rows)
	monitoring.IngestRowsTotal.Add(float64(len(drafts)))
	span.SetAttributes(attribute.Int("ingest.rows", len(drafts)))

	if len(drafts) == 0 {
		monitoring.IngestBatchesTotal.WithLabelValues("empty").Inc()
		return result, nil
	}

	// 4. 批量写入
	movies, err := uc.repo.BatchInsert(ctx, drafts)
	if err != nil {
		monitoring.IngestBatchesTotal.WithLabelValues("failed").Inc()
		observability.RecordError(span, err)

		var batchErr *domain.BatchInsertError
		if errors.As(err, &batchErr) && batchErr.Persisted > 0 {
			uc.cache.Invalidate(ctx)
		}
		uc.logger.Error("bulk ingest failed",
			zap.String("actor", actor),
			zap.Int("rows", len(drafts)),
			zap.Error(err))
		return nil, storeError(err)
	}
	result.Movies = movies

	monitoring.IngestBatchesTotal.WithLabelValues("success").Inc()
	uc.cache.Invalidate(ctx)
	uc.notifier.Emit(ctx, EventMoviesImported, result.ArchiveKey, actor, ImportedPayload{
		Count:      len(movies),
		ArchiveKey: result.ArchiveKey,
	})

	uc.logger.Info("bulk ingest completed",
		zap.String("actor", actor),
		zap.Int("inserted", len(movies)),
		zap.String("archive_key", result.ArchiveKey))

	return result, nil
}
