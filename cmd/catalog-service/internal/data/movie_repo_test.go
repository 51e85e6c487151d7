package data

import (
	"context"
	"errors"
	"os"
	"testing"

	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestToDataObject_Casting(t *testing.T) {
	do, err := toDataObject(&domain.MovieDraft{Name: 1984.0, Rating: " 7.5 "})
	require.NoError(t, err)
	assert.Equal(t, "1984", do.Name)
	require.NotNil(t, do.Rating)
	assert.Equal(t, 7.5, *do.Rating)
	assert.NotNil(t, do.Genres)
	assert.NotNil(t, do.WatchedUsers)
	assert.NotEmpty(t, do.ID)

	do, err = toDataObject(&domain.MovieDraft{})
	require.NoError(t, err)
	assert.Nil(t, do.Rating)
	assert.Empty(t, do.Name)

	_, err = toDataObject(&domain.MovieDraft{Rating: "great"})
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = toDataObject(&domain.MovieDraft{Rating: true})
	assert.ErrorIs(t, err, domain.ErrInvalidRating)

	_, err = toDataObject(&domain.MovieDraft{Name: []string{"a"}})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestBatchInsert_CastFailureWritesNothing(t *testing.T) {
	// the cast pass runs before any statement, so a nil db is never touched
	repo := NewMovieRepository(nil, 2)
	_, err := repo.BatchInsert(context.Background(), []*domain.MovieDraft{
		{Name: "ok"},
		{Name: "bad", Rating: "x"},
	})

	var castErr *domain.CastError
	require.True(t, errors.As(err, &castErr))
	assert.Equal(t, 1, castErr.Index)
}

// dryRunDB builds postgres SQL without a server.
func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=catalog dbname=catalog sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)
	return db
}

func TestMovieRepository_PageSQL(t *testing.T) {
	db := dryRunDB(t)
	repo := NewMovieRepository(db, 2)
	rating := 7.5

	cases := []struct {
		name string
		q    domain.MovieQuery
		want []string
		not  []string
	}{
		{
			name: "genre and rating are conjunctive",
			q:    domain.MovieQuery{Genre: "Drama", MinRating: &rating, Page: 3, Limit: 2},
			want: []string{
				`FROM "movies" WHERE 'Drama' = ANY(genres) AND rating >= 7.5 ORDER BY created_at ASC, id ASC`,
				"LIMIT 2 OFFSET 4",
			},
		},
		{
			name: "no filter",
			q:    domain.MovieQuery{Page: 1, Limit: 10},
			want: []string{`FROM "movies" ORDER BY created_at ASC, id ASC LIMIT 10`},
			not:  []string{"WHERE", "OFFSET"},
		},
		{
			name: "rating zero is still a bound",
			q:    domain.MovieQuery{MinRating: new(float64), Page: 1, Limit: 10},
			want: []string{"WHERE rating >= 0 ORDER BY"},
			not:  []string{"ANY(genres)"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
				var dos []*MovieDO
				return repo.page(tx, tc.q).Find(&dos)
			})
			for _, fragment := range tc.want {
				assert.Contains(t, sql, fragment)
			}
			for _, fragment := range tc.not {
				assert.NotContains(t, sql, fragment)
			}
		})
	}
}

func TestBatchInsert_ChunkFailureKeepsPrefix(t *testing.T) {
	db := dryRunDB(t)

	var chunks []int
	err := db.Callback().Create().After("gorm:create").Register("catalog:fail_third_chunk", func(tx *gorm.DB) {
		chunks = append(chunks, tx.Statement.ReflectValue.Len())
		if len(chunks) == 3 {
			_ = tx.AddError(errors.New("connection reset"))
		}
	})
	require.NoError(t, err)

	repo := NewMovieRepository(db, 2)
	drafts := make([]*domain.MovieDraft, 7)
	for i := range drafts {
		drafts[i] = &domain.MovieDraft{Name: "m", Genres: []string{}, WatchedUsers: []string{}}
	}

	_, err = repo.BatchInsert(context.Background(), drafts)

	var batchErr *domain.BatchInsertError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 4, batchErr.Persisted)
	assert.Equal(t, 7, batchErr.Submitted)
	assert.Equal(t, []int{2, 2, 2}, chunks, "no chunk is attempted after a failure")
}

// openTestDB connects to TEST_DATABASE_URL or skips.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewDB(database.Config{DSN: dsn, LogLevel: "silent"}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, db.Migrator().DropTable(&MovieDO{}))
	require.NoError(t, autoMigrate(db))
	t.Cleanup(func() {
		_ = db.Migrator().DropTable(&MovieDO{})
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestMovieRepository_Postgres(t *testing.T) {
	db := openTestDB(t)
	repo := NewMovieRepository(db, 2)
	ctx := context.Background()

	rating := func(v float64) interface{} { return v }
	movies, err := repo.BatchInsert(ctx, []*domain.MovieDraft{
		{Name: "Heat", Rating: rating(8.3), Genres: []string{"Crime", "Drama"}, WatchedUsers: []string{"u1"}},
		{Name: "Up", Rating: rating(8.2), Genres: []string{"Animation"}, WatchedUsers: []string{}},
		{Name: "Drive", Rating: "7", Genres: []string{"Drama"}, WatchedUsers: []string{}},
		{Name: "Cats", Rating: rating(2.8), Genres: []string{"Drama"}, WatchedUsers: []string{}},
		{Name: "Unrated", Genres: []string{}, WatchedUsers: []string{}},
	})
	require.NoError(t, err)
	require.Len(t, movies, 5)

	q := domain.MovieQuery{Genre: "Drama", Page: 1, Limit: 10}
	minRating := 7.0
	q.MinRating = &minRating

	total, err := repo.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	found, err := repo.Find(ctx, q)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Heat", found[0].Name)
	assert.Equal(t, "Drive", found[1].Name)

	page2, err := repo.Find(ctx, domain.MovieQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	assert.Equal(t, "Drive", page2[0].Name)

	all, err := repo.Find(ctx, domain.MovieQuery{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{}, all[0].Genres)
}

func TestMovieRepository_PartialFailure(t *testing.T) {
	db := openTestDB(t)
	repo := NewMovieRepository(db, 2)
	ctx := context.Background()

	// a NUL byte is rejected by postgres text columns, failing the second chunk
	_, err := repo.BatchInsert(ctx, []*domain.MovieDraft{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "bad\x00name"}, {Name: "e"},
	})

	var batchErr *domain.BatchInsertError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, 2, batchErr.Persisted)
	assert.Equal(t, 5, batchErr.Submitted)

	total, err := repo.Count(ctx, domain.MovieQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
