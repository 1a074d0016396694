package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/annel0/neonite-mod/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInvalidator struct {
	mu        sync.Mutex
	published []string
	handler   InvalidationHandler
	closed    bool
	failPub   bool
}

func (f *fakeInvalidator) PublishInvalidation(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPub {
		return errors.New("nats down")
	}
	f.published = append(f.published, key)
	return nil
}

func (f *fakeInvalidator) SubscribeInvalidations(_ context.Context, h InvalidationHandler) error {
	f.handler = h
	return nil
}

func (f *fakeInvalidator) Close() error {
	f.closed = true
	return nil
}

// countingStore считает обращения к хранилищу
type countingStore struct {
	*storage.MemoryStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, key string) (string, bool, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, key)
}

func newTestStore(t *testing.T, inv Invalidator) (*Store, *countingStore) {
	t.Helper()
	backend := &countingStore{MemoryStore: storage.NewMemoryStore()}
	s, err := NewStore(backend, inv, time.Minute)
	require.NoError(t, err)
	return s, backend
}

func TestStore_ReadThrough(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t, nil)
	require.NoError(t, backend.MemoryStore.Set(ctx, "k", "v1"))

	for i := 0; i < 3; i++ {
		v, ok, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "v1", v)
	}
	assert.Equal(t, 1, backend.gets)

	m := s.Metrics()
	assert.Equal(t, int64(3), m.Requests)
	assert.Equal(t, int64(2), m.Hits)
	assert.Equal(t, int64(1), m.Misses)
	assert.InDelta(t, 2.0/3.0, m.HitRatio, 1e-9)
	assert.Equal(t, 1, m.Keys)
}

func TestStore_CachesMissingKeys(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t, nil)

	_, ok, err := s.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "absent")
	assert.False(t, ok)
	assert.Equal(t, 1, backend.gets)
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t, nil)
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", "v"))
	_, _, _ = s.Get(ctx, "k")
	assert.Equal(t, 0, backend.gets)

	now = now.Add(2 * time.Minute)
	_, _, _ = s.Get(ctx, "k")
	assert.Equal(t, 1, backend.gets)
}

func TestStore_WriteThroughAndPublish(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}
	s, backend := newTestStore(t, inv)

	require.NoError(t, s.Set(ctx, "stellar:portal_data", "{}"))
	v, ok, err := backend.MemoryStore.Get(ctx, "stellar:portal_data")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "{}", v)

	require.NoError(t, s.Delete(ctx, "stellar:portal_data"))
	_, ok, _ = s.Get(ctx, "stellar:portal_data")
	assert.False(t, ok)

	assert.Equal(t, []string{"stellar:portal_data", "stellar:portal_data"}, inv.published)
}

func TestStore_PublishFailureKeepsWrite(t *testing.T) {
	ctx := context.Background()
	s, backend := newTestStore(t, &fakeInvalidator{failPub: true})

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, ok, _ := backend.MemoryStore.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestStore_RemoteInvalidation(t *testing.T) {
	ctx := context.Background()
	inv := &fakeInvalidator{}
	s, backend := newTestStore(t, inv)
	require.NotNil(t, inv.handler)

	require.NoError(t, s.Set(ctx, "k", "old"))
	// другой узел переписал значение в общем хранилище
	require.NoError(t, backend.MemoryStore.Set(ctx, "k", "new"))

	v, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "old", v)

	require.NoError(t, inv.handler("k"))
	v, _, _ = s.Get(ctx, "k")
	assert.Equal(t, "new", v)
	assert.Equal(t, int64(1), s.Metrics().Invalidations)
}

func TestStore_PlateRepo(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, nil)
	repo := storage.NewPlateRepo(s)

	_, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	plates := storage.Plates{"minecraft:overworld": {}}
	require.NoError(t, repo.Save(ctx, plates))
	got, found, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Contains(t, got, "minecraft:overworld")
}

func TestStore_Close(t *testing.T) {
	inv := &fakeInvalidator{}
	s, _ := newTestStore(t, inv)
	require.NoError(t, s.Close())
	assert.True(t, inv.closed)
}
