package biz

import (
	"context"

	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/pkg/observability"
)

// MovieUsecase 单条创建用例
type MovieUsecase struct {
	repo     domain.MovieRepository
	cache    domain.ListCache
	notifier *Notifier
}

// NewMovieUsecase 创建用例
func NewMovieUsecase(repo domain.MovieRepository, cache domain.ListCache, notifier *Notifier) *MovieUsecase {
	return &MovieUsecase{repo: repo, cache: cache, notifier: notifier}
}

// Create 创建电影
func (uc *MovieUsecase) Create(ctx context.Context, draft *domain.MovieDraft, actor string) (*domain.Movie, error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "MovieUsecase.Create")
	defer span.End()

	movie, err := uc.repo.Create(ctx, draft)
	if err != nil {
		observability.RecordError(span, err)
		return nil, storeError(err)
	}

	uc.cache.Invalidate(ctx)
	uc.notifier.Emit(ctx, EventMovieCreated, movie.ID, actor, movie)

	return movie, nil
}
