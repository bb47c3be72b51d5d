package character

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"genjigraph/internal/metrics"
	"genjigraph/pkg/models"
)

type stubStore struct {
	rec   *RawRecord
	err   error
	calls int
}

func (s *stubStore) Fetch(ctx context.Context, spec TraversalSpec) (*RawRecord, error) {
	s.calls++
	return s.rec, s.err
}

func (s *stubStore) Ping(ctx context.Context) error { return s.err }

func TestRepo_EndToEnd(t *testing.T) {
	repo := NewRepo(loadTestStore(t), zap.NewNop())

	data, err := repo.GetCharacterData(context.Background(), Query{
		Name:                     "Genji",
		IncludeRelatedCharacters: true,
		IncludeRelatedPoems:      true,
		PoemLimit:                intPtr(1),
	})
	require.NoError(t, err)

	assert.Equal(t, "Genji", data.Character["name"])
	assert.Len(t, data.RelatedCharacters, 3)
	require.Len(t, data.RelatedPoems, 1)

	p := data.RelatedPoems[0]
	assert.Equal(t, "01", p.ChapterNum)
	assert.Equal(t, "02", p.PoemNum)
	assert.Equal(t, RelAddresseeOf, p.Relationship)
	require.NotNil(t, p.URL)
	assert.Equal(t, "/poems/1/2", *p.URL)
}

func TestRepo_CaseInsensitive(t *testing.T) {
	repo := NewRepo(loadTestStore(t), nil)
	ctx := context.Background()

	a, err := repo.GetCharacterData(ctx, Query{Name: "Genji", IncludeRelatedPoems: true})
	require.NoError(t, err)
	b, err := repo.GetCharacterData(ctx, Query{Name: "GENJI", IncludeRelatedPoems: true})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRepo_FlagsOffIgnoreEdges(t *testing.T) {
	repo := NewRepo(loadTestStore(t), nil)

	data, err := repo.GetCharacterData(context.Background(), Query{Name: "Genji", CharacterLimit: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, []models.RelatedCharacter{}, data.RelatedCharacters)
	assert.Equal(t, []models.RelatedPoem{}, data.RelatedPoems)
}

func TestRepo_NullPoemRowIsEmpty(t *testing.T) {
	repo := NewRepo(loadTestStore(t), nil)

	data, err := repo.GetCharacterData(context.Background(), Query{Name: "hermit", IncludeRelatedPoems: true})
	require.NoError(t, err)
	assert.Empty(t, data.RelatedPoems)
}

func TestRepo_MalformedPoemIsLoggedAndSkipped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	repo := NewRepo(loadTestStore(t), zap.New(core))
	dropped := testutil.ToFloat64(metrics.PoemsDropped.WithLabelValues(DropMalformedPNum))

	data, err := repo.GetCharacterData(context.Background(), Query{Name: "Fujitsubo", IncludeRelatedPoems: true})
	require.NoError(t, err)

	require.Len(t, data.RelatedPoems, 1)
	assert.Equal(t, "01KR01", data.RelatedPoems[0].Poem["pnum"])

	entries := logs.FilterMessage("skipping poem").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "01XY", entries[0].ContextMap()["pnum"])
	assert.Equal(t, DropMalformedPNum, entries[0].ContextMap()["reason"])
	assert.Equal(t, dropped+1, testutil.ToFloat64(metrics.PoemsDropped.WithLabelValues(DropMalformedPNum)))
}

func TestRepo_NotFound(t *testing.T) {
	repo := NewRepo(loadTestStore(t), nil)

	for _, q := range []Query{
		{Name: "Nobody"},
		{Name: "Nobody", IncludeRelatedCharacters: true, IncludeRelatedPoems: true, PoemLimit: intPtr(1)},
	} {
		data, err := repo.GetCharacterData(context.Background(), q)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, data)
	}
}

func TestRepo_InvalidArgumentSkipsStore(t *testing.T) {
	store := &stubStore{}
	repo := NewRepo(store, nil)

	_, err := repo.GetCharacterData(context.Background(), Query{Name: "Genji", PoemLimit: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, store.calls)
}

func TestRepo_StorageFailure(t *testing.T) {
	cause := errors.New("connection reset by peer")
	repo := NewRepo(&stubStore{err: cause}, nil)

	data, err := repo.GetCharacterData(context.Background(), Query{Name: "Genji"})
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
}
