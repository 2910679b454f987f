package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/holygrail/holygrail-web/internal/domain/auth"
)

// setupTestRedis starts an in-process Redis server for the test.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCredentialStore_SaveAndLoad(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{Namespace: "device-1"})
	ctx := context.Background()

	creds := domainauth.Credentials{User: `{"id":1,"username":"alice"}`, AccessToken: "tok"}
	require.NoError(t, store.Save(ctx, creds, time.Now().Add(30*time.Minute)))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, creds, got)

	ttl := mr.TTL(defaultPrefix + "device-1")
	assert.Greater(t, ttl, 29*time.Minute)
	assert.LessOrEqual(t, ttl, 30*time.Minute)
}

func TestCredentialStore_LoadMissing(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{Namespace: "nobody"})

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestCredentialStore_ClearIdempotent(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{Prefix: "test:"})
	ctx := WithNamespace(context.Background(), "browser-9")

	require.NoError(t, store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, time.Now().Add(time.Hour)))
	assert.True(t, mr.Exists("test:browser-9"))

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	assert.False(t, mr.Exists("test:browser-9"))
}

func TestCredentialStore_Expiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{Namespace: "device-ttl"})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, time.Now().Add(time.Minute)))
	mr.FastForward(2 * time.Minute)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestCredentialStore_NamespaceRequired(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{})
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, got.Empty())

	err = store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, ErrNoNamespace)

	other := WithNamespace(ctx, "device-b")
	require.NoError(t, store.Save(other, domainauth.Credentials{User: "{}", AccessToken: "t"}, time.Now().Add(time.Hour)))

	require.NoError(t, store.Clear(ctx), "clearing without a namespace is a no-op")
	kept, err := store.Load(other)
	require.NoError(t, err)
	assert.True(t, kept.Complete(), "other namespaces are untouched")
}

func TestCredentialStore_RejectsPartialAndExpired(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{Namespace: "n"})
	ctx := context.Background()

	require.Error(t, store.Save(ctx, domainauth.Credentials{AccessToken: "t"}, time.Now().Add(time.Hour)))
	require.Error(t, store.Save(ctx, domainauth.Credentials{User: "{}", AccessToken: "t"}, time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists(defaultPrefix+"n"))
}

func TestCredentialStore_NamespacesAreIsolated(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewCredentialStore(client, Options{})
	a := WithNamespace(context.Background(), "a")
	b := WithNamespace(context.Background(), "b")

	require.NoError(t, store.Save(a, domainauth.Credentials{User: `{"id":1}`, AccessToken: "ta"}, time.Now().Add(time.Hour)))

	got, err := store.Load(b)
	require.NoError(t, err)
	assert.True(t, got.Empty())

	ns, ok := NamespaceFromContext(a)
	assert.True(t, ok)
	assert.Equal(t, "a", ns)
}
