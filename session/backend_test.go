package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := backend.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Set(ctx, "k", "v1"))
	require.NoError(t, backend.Set(ctx, "k", "v2"))
	v, ok, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, backend.Delete(ctx, "k"))
	require.NoError(t, backend.Delete(ctx, "k"))
	_, ok, err = backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestRedisBackend(t *testing.T) {
	_, client := newTestRedis(t)
	exerciseBackend(t, NewRedisBackend(client, "dash", 0))
}

func TestRedisBackendPrefixAndTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	backend := NewRedisBackend(client, "dash", time.Hour)

	require.NoError(t, backend.Set(context.Background(), TokenKey, "t"))
	require.True(t, mr.Exists("dash:"+TokenKey))
	assert.Equal(t, time.Hour, mr.TTL("dash:"+TokenKey))

	mr.FastForward(2 * time.Hour)
	_, ok, err := backend.Get(context.Background(), TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisBackendUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	backend := NewRedisBackend(client, "", 0)
	mr.Close()

	_, _, err := backend.Get(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRedisUnavailable))

	err = backend.Set(context.Background(), "k", "v")
	assert.True(t, errors.Is(err, ErrRedisUnavailable))
}

func TestRedisBackendStoreSurvivesOutageOnRead(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewStore(NewRedisBackend(client, "dash", 0), quietLogger())
	require.NoError(t, store.SetToken(context.Background(), "t"))

	mr.Close()
	assert.False(t, store.HasValidToken(context.Background()))
	assert.Error(t, store.SetToken(context.Background(), "t2"))
}

func TestBoltBackend(t *testing.T) {
	backend, err := OpenBoltBackend(filepath.Join(t.TempDir(), "creds.db"), "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	exerciseBackend(t, backend)
}

func TestBoltBackendPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.db")
	ctx := context.Background()

	backend, err := OpenBoltBackend(path, "auth", nil)
	require.NoError(t, err)
	store := NewStore(backend, quietLogger())
	require.NoError(t, store.SetToken(ctx, "persisted"))
	require.NoError(t, store.SetUser(ctx, testProfile()))
	require.NoError(t, backend.Close())

	reopened, err := OpenBoltBackend(path, "auth", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	store = NewStore(reopened, quietLogger())
	token, ok := store.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "persisted", token)
	assert.Equal(t, testProfile(), *store.User(ctx))
}
