package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iheartcare/internal/domain"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *KVSessionStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewKVSessionStore(NewRedisKV(client), 30*time.Minute)
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	mr, sessions := setupTestRedis(t)
	ctx := context.Background()

	pid := int64(12)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sessions.Save(ctx, &domain.Session{
		Token: "tok-1", UserID: 4, Username: "ana", Role: domain.RolePatient, PatientID: &pid, CreatedAt: created,
	}))

	assert.True(t, mr.Exists("iheartcare:session:tok-1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("iheartcare:session:tok-1"))
	raw, err := mr.Get("iheartcare:session:tok-1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "tok-1")

	got, err := sessions.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, int64(4), got.UserID)
	assert.Equal(t, domain.RolePatient, got.Role)
	require.NotNil(t, got.PatientID)
	assert.Equal(t, pid, *got.PatientID)
	assert.Nil(t, got.ClinicianID)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestRedisSessionStore_ExpiryAndDelete(t *testing.T) {
	mr, sessions := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, &domain.Session{Token: "tok-2", UserID: 1, Username: "admin", Role: domain.RoleAdministrator}))
	mr.FastForward(31 * time.Minute)
	_, err := sessions.Get(ctx, "tok-2")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, sessions.Save(ctx, &domain.Session{Token: "tok-3", UserID: 1, Username: "admin", Role: domain.RoleAdministrator}))
	require.NoError(t, sessions.Delete(ctx, "tok-3"))
	require.NoError(t, sessions.Delete(ctx, "tok-3"))
	_, err = sessions.Get(ctx, "tok-3")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStore_RejectsUnknownRole(t *testing.T) {
	mr, sessions := setupTestRedis(t)
	require.NoError(t, mr.Set("iheartcare:session:bad", `{"user_id":1,"username":"x","role":"root"}`))

	_, err := sessions.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionStore_TTL(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	sessions := NewKVSessionStore(kv, time.Hour)
	ctx := context.Background()

	require.NoError(t, sessions.Save(ctx, &domain.Session{Token: "t", UserID: 2, Username: "eva", Role: domain.RoleClinician}))
	_, err := sessions.Get(ctx, "t")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = sessions.Get(ctx, "t")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.Error(t, sessions.Save(ctx, &domain.Session{}))
	_, err = sessions.Get(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryKV_SetPurgesExpiredEntries(t *testing.T) {
	kv := NewMemoryKV()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	kv.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "stale-1", "a", time.Minute))
	require.NoError(t, kv.Set(ctx, "stale-2", "b", time.Minute))
	require.NoError(t, kv.Set(ctx, "forever", "c", 0))
	require.Len(t, kv.entries, 3)

	now = now.Add(2 * time.Minute)
	require.NoError(t, kv.Set(ctx, "fresh", "d", time.Minute))

	assert.Len(t, kv.entries, 2)
	assert.Contains(t, kv.entries, "forever")
	assert.Contains(t, kv.entries, "fresh")
}
