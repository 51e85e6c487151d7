package data

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"moviecatalog/cmd/catalog-service/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// defaultChunkSize 批量写入默认分块大小
const defaultChunkSize = 500

// MovieDO 电影数据对象
type MovieDO struct {
	ID           string         `gorm:"primaryKey;type:uuid;index:idx_movies_created_id,priority:2"`
	Name         string         `gorm:"type:text"`
	Rating       *float64       `gorm:"index"`
	Genres       pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	WatchedUsers pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	CreatedAt    time.Time      `gorm:"index:idx_movies_created_id,priority:1"`
	UpdatedAt    time.Time
}

// TableName 指定表名
func (MovieDO) TableName() string {
	return "movies"
}

// MovieRepository 电影仓储实现
type MovieRepository struct {
	db        *gorm.DB
	chunkSize int
}

// NewMovieRepository 创建电影仓储
func NewMovieRepository(db *gorm.DB, chunkSize int) *MovieRepository {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &MovieRepository{db: db, chunkSize: chunkSize}
}

// Create 创建单条记录
func (r *MovieRepository) Create(ctx context.Context, draft *domain.MovieDraft) (*domain.Movie, error) {
	do, err := toDataObject(draft)
	if err != nil {
		return nil, &domain.CastError{Index: 0, Err: err}
	}
	if err := r.db.WithContext(ctx).Create(do).Error; err != nil {
		return nil, err
	}
	return toDomain(do), nil
}

// BatchInsert 分块写入，不使用事务。第 k 块失败时前 k-1 块保留
func (r *MovieRepository) BatchInsert(ctx context.Context, drafts []*domain.MovieDraft) ([]*domain.Movie, error) {
	dos := make([]*MovieDO, len(drafts))
	for i, draft := range drafts {
		do, err := toDataObject(draft)
		if err != nil {
			return nil, &domain.CastError{Index: i, Err: err}
		}
		dos[i] = do
	}

	// 每条记录递增 1µs，使 (created_at, id) 排序与文件行序一致
	now := time.Now().UTC().Truncate(time.Microsecond)
	for i, do := range dos {
		do.CreatedAt = now.Add(time.Duration(i) * time.Microsecond)
		do.UpdatedAt = do.CreatedAt
	}

	db := r.db.WithContext(ctx).Session(&gorm.Session{SkipDefaultTransaction: true})
	for start := 0; start < len(dos); start += r.chunkSize {
		end := min(start+r.chunkSize, len(dos))
		if err := db.Create(dos[start:end]).Error; err != nil {
			return nil, &domain.BatchInsertError{Persisted: start, Submitted: len(dos), Err: err}
		}
	}

	movies := make([]*domain.Movie, len(dos))
	for i, do := range dos {
		movies[i] = toDomain(do)
	}
	return movies, nil
}

// Count 统计匹配记录数
func (r *MovieRepository) Count(ctx context.Context, q domain.MovieQuery) (int64, error) {
	var total int64
	err := r.filter(r.db.WithContext(ctx).Model(&MovieDO{}), q).Count(&total).Error
	return total, err
}

// Find 查询一页记录
func (r *MovieRepository) Find(ctx context.Context, q domain.MovieQuery) ([]*domain.Movie, error) {
	var dos []*MovieDO
	if err := r.page(r.db.WithContext(ctx), q).Find(&dos).Error; err != nil {
		return nil, err
	}

	movies := make([]*domain.Movie, len(dos))
	for i, do := range dos {
		movies[i] = toDomain(do)
	}
	return movies, nil
}

// page 过滤、排序并截取一页
func (r *MovieRepository) page(db *gorm.DB, q domain.MovieQuery) *gorm.DB {
	return r.filter(db.Model(&MovieDO{}), q).
		Order("created_at ASC, id ASC").
		Offset(q.Offset()).
		Limit(q.Limit)
}

// filter genre 精确匹配数组元素，rating 为下界（含）
func (r *MovieRepository) filter(db *gorm.DB, q domain.MovieQuery) *gorm.DB {
	if q.Genre != "" {
		db = db.Where("? = ANY(genres)", q.Genre)
	}
	if q.MinRating != nil {
		db = db.Where("rating >= ?", *q.MinRating)
	}
	return db
}

// toDataObject casts a draft to column types.
func toDataObject(d *domain.MovieDraft) (*MovieDO, error) {
	name, err := castName(d.Name)
	if err != nil {
		return nil, err
	}
	rating, err := castRating(d.Rating)
	if err != nil {
		return nil, err
	}

	do := &MovieDO{
		ID:           uuid.New().String(),
		Name:         name,
		Rating:       rating,
		Genres:       pq.StringArray(d.Genres),
		WatchedUsers: pq.StringArray(d.WatchedUsers),
	}
	if do.Genres == nil {
		do.Genres = pq.StringArray{}
	}
	if do.WatchedUsers == nil {
		do.WatchedUsers = pq.StringArray{}
	}
	return do, nil
}

func castName(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("%w: %T", domain.ErrInvalidName, v)
	}
}

func castRating(v interface{}) (*float64, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = val
	case int:
		f = float64(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, val)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrInvalidRating, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRating, f)
	}
	return &f, nil
}

// toDomain 转换为领域对象
func toDomain(do *MovieDO) *domain.Movie {
	genres := []string(do.Genres)
	if genres == nil {
		genres = []string{}
	}
	watched := []string(do.WatchedUsers)
	if watched == nil {
		watched = []string{}
	}
	return &domain.Movie{
		ID:           do.ID,
		Name:         do.Name,
		Rating:       do.Rating,
		Genres:       genres,
		WatchedUsers: watched,
		CreatedAt:    do.CreatedAt,
		UpdatedAt:    do.UpdatedAt,
	}
}
