package biz

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"moviecatalog/cmd/catalog-service/internal/domain"
	"moviecatalog/pkg/events"
)

// memRepo is an in-memory MovieRepository with the same ordering and
// chunking behaviour as the gorm repository.
type memRepo struct {
	mu        sync.Mutex
	movies    []*domain.Movie
	chunkSize int
	failChunk int // 1-based chunk index that fails, 0 never
	countErr  error
	seq       int
	onRead    func() // runs after Count, before the lock is released
}

func (r *memRepo) cast(i int, d *domain.MovieDraft) (*domain.Movie, error) {
	name, ok := d.Name.(string)
	if d.Name != nil && !ok {
		return nil, &domain.CastError{Index: i, Err: domain.ErrInvalidName}
	}
	m := &domain.Movie{Name: name, Genres: d.Genres, WatchedUsers: d.WatchedUsers}
	switch v := d.Rating.(type) {
	case nil:
	case float64:
		m.Rating = &v
	default:
		return nil, &domain.CastError{Index: i, Err: domain.ErrInvalidRating}
	}
	return m, nil
}

func (r *memRepo) store(m *domain.Movie) {
	r.seq++
	m.ID = fmt.Sprintf("id-%03d", r.seq)
	m.CreatedAt = time.Unix(int64(r.seq), 0)
	m.UpdatedAt = m.CreatedAt
	r.movies = append(r.movies, m)
}

func (r *memRepo) Create(_ context.Context, d *domain.MovieDraft) (*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, err := r.cast(0, d)
	if err != nil {
		return nil, err
	}
	r.store(m)
	return m, nil
}

func (r *memRepo) BatchInsert(_ context.Context, drafts []*domain.MovieDraft) ([]*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := make([]*domain.Movie, len(drafts))
	for i, d := range drafts {
		m, err := r.cast(i, d)
		if err != nil {
			return nil, err
		}
		rows[i] = m
	}

	size := r.chunkSize
	if size <= 0 {
		size = len(rows)
	}
	persisted := 0
	for start, chunk := 0, 1; start < len(rows); start, chunk = start+size, chunk+1 {
		end := min(start+size, len(rows))
		if chunk == r.failChunk {
			return nil, &domain.BatchInsertError{Persisted: persisted, Submitted: len(rows), Err: errors.New("connection reset")}
		}
		for _, m := range rows[start:end] {
			r.store(m)
		}
		persisted = end
	}
	return rows, nil
}

func (r *memRepo) match(q domain.MovieQuery) []*domain.Movie {
	var out []*domain.Movie
	for _, m := range r.movies {
		if q.Genre != "" && !contains(m.Genres, q.Genre) {
			continue
		}
		if q.MinRating != nil && (m.Rating == nil || *m.Rating < *q.MinRating) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func (r *memRepo) Count(_ context.Context, q domain.MovieQuery) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.countErr != nil {
		return 0, r.countErr
	}
	n := int64(len(r.match(q)))
	if r.onRead != nil {
		r.onRead()
	}
	return n, nil
}

func (r *memRepo) Find(_ context.Context, q domain.MovieQuery) ([]*domain.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.match(q)
	if q.Offset() >= len(all) {
		return nil, nil
	}
	return all[q.Offset():min(q.Offset()+q.Limit, len(all))], nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type fakeDecoder struct {
	rows []domain.Row
	err  error
}

func (d fakeDecoder) Decode([]byte) ([]domain.Row, error) { return d.rows, d.err }

type fakeArchive struct {
	key string
	err error
	got []domain.Upload
}

func (a *fakeArchive) Put(_ context.Context, u domain.Upload) (string, error) {
	a.got = append(a.got, u)
	return a.key, a.err
}

// memCache is a ListCache keyed by generation and the query's printed
// value. Invalidate starts a new generation.
type memCache struct {
	mu          sync.Mutex
	pages       map[string]*domain.MoviePage
	generation  int
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{pages: map[string]*domain.MoviePage{}}
}

func (c *memCache) key(q domain.MovieQuery) string {
	rating := "-"
	if q.MinRating != nil {
		rating = fmt.Sprint(*q.MinRating)
	}
	return fmt.Sprintf("%d|%s|%s|%d|%d", c.generation, q.Genre, rating, q.Page, q.Limit)
}

func (c *memCache) Get(_ context.Context, q domain.MovieQuery) (*domain.MoviePage, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.key(q)
	p, ok := c.pages[key]
	return p, key, ok
}

func (c *memCache) Set(_ context.Context, key string, p *domain.MoviePage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[key] = p
}

func (c *memCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.generation++
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }
