package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/notes-service/internal/domain/auth/model"
	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) (*RedisRefreshTokenRepo, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redisv9.NewClient(&redisv9.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRefreshTokenRepo(client), mr
}

func token(value string, userID uint64, ttl time.Duration) model.RefreshToken {
	return model.RefreshToken{Token: value, UserID: userID, CreatedAt: t0, ExpiresAt: t0.Add(ttl)}
}

func TestRedisRefreshTokenRepo_CreateAndFind(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, token("tok-1", 7, time.Hour))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.True(t, mr.Exists(tokenKey("tok-1")))
	require.Greater(t, mr.TTL(tokenKey("tok-1")), time.Hour)

	got, err := repo.FindValid(ctx, "tok-1", t0.Add(59*time.Minute))
	require.NoError(t, err)
	require.Equal(t, uint64(7), got.UserID)
	require.True(t, got.ExpiresAt.Equal(t0.Add(time.Hour)))

	_, err = repo.FindValid(ctx, "tok-1", t0.Add(time.Hour))
	require.ErrorIs(t, err, customErrors.ErrNotFound)

	_, err = repo.FindValid(ctx, "absent", t0)
	require.ErrorIs(t, err, customErrors.ErrNotFound)

	_, err = repo.Create(ctx, token("tok-1", 7, time.Hour))
	require.ErrorIs(t, err, customErrors.ErrAlreadyExists)
}

func TestRedisRefreshTokenRepo_DeleteByToken(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, token("tok-1", 7, time.Hour))
	require.NoError(t, err)

	n, err := repo.DeleteByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	require.False(t, mr.Exists(tokenKey("tok-1")))

	members, err := mr.SMembers(userKey(7))
	if err == nil {
		require.Empty(t, members)
	}

	n, err = repo.DeleteByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedisRefreshTokenRepo_ConcurrentDeleteRemovesOnce(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, token("tok-1", 7, time.Hour))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var removed atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.DeleteByToken(ctx, "tok-1")
			if err == nil {
				removed.Add(n)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, removed.Load())
}

func TestRedisRefreshTokenRepo_DeleteByUserID(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	for _, v := range []string{"a-1", "a-2"} {
		_, err := repo.Create(ctx, token(v, 1, time.Hour))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, token("b-1", 2, time.Hour))
	require.NoError(t, err)

	n, err := repo.DeleteByUserID(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = repo.FindValid(ctx, "a-1", t0)
	require.ErrorIs(t, err, customErrors.ErrNotFound)
	_, err = repo.FindValid(ctx, "b-1", t0)
	require.NoError(t, err)

	n, err = repo.DeleteByUserID(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedisRefreshTokenRepo_DeleteExpired(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, token("short", 1, time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, token("long", 1, 48*time.Hour))
	require.NoError(t, err)
	_, err = repo.Create(ctx, token("other", 2, 2*time.Hour))
	require.NoError(t, err)

	n, err := repo.DeleteExpired(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, err = repo.FindValid(ctx, "long", t0.Add(3*time.Hour))
	require.NoError(t, err)

	n, err = repo.DeleteExpired(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	// индекс пользователя очищен вместе с токеном
	n, err = repo.DeleteByUserID(ctx, 2)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRedisRefreshTokenRepo_DeleteExpiredCountsOnlyDeletedHashes(t *testing.T) {
	repo, mr := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, token("gone", 1, time.Minute))
	require.NoError(t, err)
	_, err = repo.Create(ctx, token("stale", 2, time.Minute))
	require.NoError(t, err)

	// хэш "gone" истёк по TTL ключа раньше, чем пришёл sweep
	mr.FastForward(2 * time.Hour)
	require.False(t, mr.Exists(tokenKey("gone")))
	require.False(t, mr.Exists(tokenKey("stale")))

	n, err := repo.DeleteExpired(ctx, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	members, err := mr.ZMembers(expiryKey)
	if err != nil {
		require.ErrorIs(t, err, miniredis.ErrKeyNotFound)
	}
	require.Empty(t, members, "expiry index is cleaned even when hashes are already gone")
}

func TestRedisRefreshTokenRepo_DeleteExpiredMixed(t *testing.T) {
	repo, _ := newRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, token("a", 1, time.Minute))
	require.NoError(t, err)
	_, err = repo.Create(ctx, token("b", 1, time.Minute))
	require.NoError(t, err)

	removed, err := repo.DeleteByToken(ctx, "a")
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	n, err := repo.DeleteExpired(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "only the hash this sweep deleted is counted")
}
