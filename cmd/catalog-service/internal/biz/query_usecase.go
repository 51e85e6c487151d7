package biz

import (
	"context"
	"math"
	"strconv"
	"strings"

	"moviecatalog/cmd/catalog-service/internal/domain"
	apierrors "moviecatalog/pkg/errors"
	"moviecatalog/pkg/monitoring"
	"moviecatalog/pkg/observability"

	"go.opentelemetry.io/otel/attribute"
)

// ListParams raw query parameters of a listing request
type ListParams struct {
	Genre  string
	Rating string
	Page   string
	Limit  string
}

// BuildQuery coerces raw parameters into a query. page and limit fall back
// to their defaults when absent, non-numeric or below 1; limit has no upper
// bound. A rating that is present but not a finite number is rejected.
func BuildQuery(p ListParams) (domain.MovieQuery, error) {
	q := domain.MovieQuery{
		Genre: p.Genre,
		Page:  positiveOr(p.Page, domain.DefaultPage),
		Limit: positiveOr(p.Limit, domain.DefaultLimit),
	}

	if p.Rating != "" {
		rating, err := strconv.ParseFloat(strings.TrimSpace(p.Rating), 64)
		if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
			return domain.MovieQuery{}, apierrors.NewValidationError("rating must be a number")
		}
		q.MinRating = &rating
	}

	return q, nil
}

func positiveOr(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// QueryUsecase 列表查询用例
type QueryUsecase struct {
	repo  domain.MovieRepository
	cache domain.ListCache
}

// NewQueryUsecase 创建列表查询用例
func NewQueryUsecase(repo domain.MovieRepository, cache domain.ListCache) *QueryUsecase {
	return &QueryUsecase{repo: repo, cache: cache}
}

// List returns one page and the total count of matching records.
func (uc *QueryUsecase) List(ctx context.Context, q domain.MovieQuery) (*domain.MoviePage, error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "QueryUsecase.List")
	defer span.End()
	span.SetAttributes(
		attribute.String("query.genre", q.Genre),
		attribute.Int("query.page", q.Page),
		attribute.Int("query.limit", q.Limit),
	)

	page, cacheKey, hit := uc.cache.Get(ctx, q)
	if hit {
		monitoring.ListCacheTotal.WithLabelValues("hit").Inc()
		return page, nil
	}
	monitoring.ListCacheTotal.WithLabelValues("miss").Inc()

	total, err := uc.repo.Count(ctx, q)
	if err != nil {
		observability.RecordError(span, err)
		return nil, storeError(err)
	}

	movies, err := uc.repo.Find(ctx, q)
	if err != nil {
		observability.RecordError(span, err)
		return nil, storeError(err)
	}
	if movies == nil {
		movies = []*domain.Movie{}
	}

	page = &domain.MoviePage{
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Data:  movies,
	}
	uc.cache.Set(ctx, cacheKey, page)

	return page, nil
}
