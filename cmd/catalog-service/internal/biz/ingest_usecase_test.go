package biz

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"moviecatalog/cmd/catalog-service/internal/domain"
	apierrors "moviecatalog/pkg/errors"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ingestFixture struct {
	repo      *memRepo
	archive   *fakeArchive
	cache     *memCache
	publisher *recordingPublisher
}

func newIngest(dec fakeDecoder, f *ingestFixture) *IngestUsecase {
	if f.repo == nil {
		f.repo = &memRepo{}
	}
	if f.archive == nil {
		f.archive = &fakeArchive{key: "imports/2026/10/19/abc.xlsx"}
	}
	f.cache = newMemCache()
	f.publisher = &recordingPublisher{}
	logger := zap.NewNop()
	return NewIngestUsecase(dec, NewNormalizer(NormalizerOptions{}), f.repo, f.archive, f.cache, NewNotifier(f.publisher, logger), logger)
}

func TestIngest_Success(t *testing.T) {
	f := &ingestFixture{}
	uc := newIngest(fakeDecoder{rows: []domain.Row{
		{"name": "Heat", "rating": 8.3, "genres": "Crime,Drama", "watchedUsers": "u1"},
		{"name": "Up", "rating": 8.2},
	}}, f)

	res, err := uc.Ingest(context.Background(), domain.Upload{Filename: "m.xlsx", Data: []byte("x")}, "admin-1")
	require.NoError(t, err)

	require.Len(t, res.Movies, 2)
	assert.NotEmpty(t, res.Movies[0].ID)
	assert.Equal(t, []string{"Crime", "Drama"}, res.Movies[0].Genres)
	assert.Equal(t, []string{}, res.Movies[1].Genres)
	assert.Equal(t, "imports/2026/10/19/abc.xlsx", res.ArchiveKey)

	assert.Len(t, f.archive.got, 1)
	assert.Equal(t, 1, f.cache.invalidated)

	require.Len(t, f.publisher.events, 1)
	e := f.publisher.events[0]
	assert.Equal(t, EventMoviesImported, e.Type)
	assert.Equal(t, "admin-1", e.Actor)
	var payload ImportedPayload
	require.NoError(t, json.Unmarshal(e.Payload, &payload))
	assert.Equal(t, 2, payload.Count)
}

func TestIngest_MalformedRowsStillInserted(t *testing.T) {
	f := &ingestFixture{}
	uc := newIngest(fakeDecoder{rows: []domain.Row{
		{"name": "A", "genres": 3.0},
		{"name": "B", "watchedUsers": false},
		{"name": "C"},
	}}, f)

	res, err := uc.Ingest(context.Background(), domain.Upload{Data: []byte("x")}, "admin-1")
	require.NoError(t, err)
	assert.Len(t, res.Movies, 3)
	for _, m := range res.Movies {
		assert.NotNil(t, m.Genres)
		assert.NotNil(t, m.WatchedUsers)
	}
}

func TestIngest_UndecodableFile(t *testing.T) {
	f := &ingestFixture{}
	uc := newIngest(fakeDecoder{err: errors.New("zip: not a valid zip file")}, f)

	_, err := uc.Ingest(context.Background(), domain.Upload{Data: []byte("junk")}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apierrors.HTTPStatus(err))
	assert.Empty(t, f.repo.movies)
	assert.Zero(t, f.cache.invalidated)
}

func TestIngest_EmptySheet(t *testing.T) {
	f := &ingestFixture{}
	uc := newIngest(fakeDecoder{}, f)

	res, err := uc.Ingest(context.Background(), domain.Upload{Data: []byte("x")}, "admin-1")
	require.NoError(t, err)
	assert.NotNil(t, res.Movies)
	assert.Empty(t, res.Movies)
	assert.Empty(t, f.publisher.events)
}

func TestIngest_PartialFailure(t *testing.T) {
	f := &ingestFixture{repo: &memRepo{chunkSize: 2, failChunk: 2}}
	uc := newIngest(fakeDecoder{rows: []domain.Row{
		{"name": "1"}, {"name": "2"}, {"name": "3"}, {"name": "4"}, {"name": "5"},
	}}, f)

	_, err := uc.Ingest(context.Background(), domain.Upload{Data: []byte("x")}, "admin-1")
	require.Error(t, err)

	e := kerrors.FromError(err)
	assert.Equal(t, apierrors.ReasonIngestPartialFailure, e.Reason)
	assert.Equal(t, "2", e.Metadata["persisted"])
	assert.Equal(t, "5", e.Metadata["submitted"])

	// chunks before the failure stay persisted
	assert.Len(t, f.repo.movies, 2)
	assert.Equal(t, 1, f.cache.invalidated)
	assert.Empty(t, f.publisher.events)
}

func TestIngest_UncastableRating(t *testing.T) {
	f := &ingestFixture{}
	uc := newIngest(fakeDecoder{rows: []domain.Row{{"name": "A", "rating": true}}}, f)

	_, err := uc.Ingest(context.Background(), domain.Upload{Data: []byte("x")}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, apierrors.ReasonValidationFailed, apierrors.Reason(err))
	assert.Empty(t, f.repo.movies)
}

func TestIngest_ArchiveAndEventFailuresAreNotFatal(t *testing.T) {
	f := &ingestFixture{archive: &fakeArchive{err: errors.New("minio down")}}
	uc := newIngest(fakeDecoder{rows: []domain.Row{{"name": "A"}}}, f)
	f.publisher.err = errors.New("kafka down")

	res, err := uc.Ingest(context.Background(), domain.Upload{Data: []byte("x")}, "admin-1")
	require.NoError(t, err)
	assert.Len(t, res.Movies, 1)
	assert.Empty(t, res.ArchiveKey)
}
