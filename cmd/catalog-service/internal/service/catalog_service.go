package service

import (
	"context"

	"moviecatalog/cmd/catalog-service/internal/biz"
	"moviecatalog/cmd/catalog-service/internal/domain"

	"github.com/google/wire"
)

// ProviderSet 服务层提供者集合
var ProviderSet = wire.NewSet(NewCatalogService)

// CreateMovieRequest 创建电影请求
type CreateMovieRequest struct {
	Name         string   `json:"name"`
	Rating       *float64 `json:"rating"`
	Genres       []string `json:"genres"`
	WatchedUsers []string `json:"watchedUsers"`
}

// CatalogService 电影目录服务
type CatalogService struct {
	movieUc  *biz.MovieUsecase
	ingestUc *biz.IngestUsecase
	queryUc  *biz.QueryUsecase
}

// NewCatalogService 创建电影目录服务
func NewCatalogService(
	movieUc *biz.MovieUsecase,
	ingestUc *biz.IngestUsecase,
	queryUc *biz.QueryUsecase,
) *CatalogService {
	return &CatalogService{
		movieUc:  movieUc,
		ingestUc: ingestUc,
		queryUc:  queryUc,
	}
}

// CreateMovie 创建单条电影记录
func (s *CatalogService) CreateMovie(ctx context.Context, req *CreateMovieRequest, actor string) (*domain.Movie, error) {
	draft := domain.NewMovieDraft(req.Name, req.Rating, req.Genres, req.WatchedUsers)
	return s.movieUc.Create(ctx, draft, actor)
}

// ImportMovies 批量导入
func (s *CatalogService) ImportMovies(ctx context.Context, upload domain.Upload, actor string) (*biz.IngestResult, error) {
	return s.ingestUc.Ingest(ctx, upload, actor)
}

// ListMovies 查询电影列表
func (s *CatalogService) ListMovies(ctx context.Context, params biz.ListParams) (*domain.MoviePage, error) {
	q, err := biz.BuildQuery(params)
	if err != nil {
		return nil, err
	}
	return s.queryUc.List(ctx, q)
}
