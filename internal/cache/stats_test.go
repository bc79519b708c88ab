package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"taskflow/internal/policy"
	"taskflow/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStats struct {
	mock.Mock
}

func (m *mockStats) Authorize(ctx context.Context, p policy.Principal) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStats) Platform(ctx context.Context, p policy.Principal) (*repository.PlatformStats, error) {
	args := m.Called(ctx, p)
	st := args.Get(0)
	if st == nil {
		return nil, args.Error(1)
	}
	return st.(*repository.PlatformStats), args.Error(1)
}

type memKV struct {
	data   map[string][]byte
	getErr error
	ttl    time.Duration
}

func (m *memKV) Get(_ context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(string(v), nil)
}

func (m *memKV) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	m.data[key] = value.([]byte)
	m.ttl = ttl
	return redis.NewStatusResult("OK", nil)
}

func TestStats_MissThenHit(t *testing.T) {
	next := new(mockStats)
	kv := &memKV{data: map[string][]byte{}}
	c := NewStats(next, kv, time.Minute, zap.NewNop())
	p := policy.Principal{UserID: uuid.New()}

	next.On("Authorize", mock.Anything, p).Return(nil)
	next.On("Platform", mock.Anything, p).Return(&repository.PlatformStats{Users: 3, Tasks: 7}, nil).Once()

	first, err := c.Platform(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(3), first.Users)
	assert.Equal(t, time.Minute, kv.ttl)

	second, err := c.Platform(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(7), second.Tasks)

	next.AssertNumberOfCalls(t, "Platform", 1)
	next.AssertNumberOfCalls(t, "Authorize", 2)
}

func TestStats_NonAdminNeverSeesCachedValue(t *testing.T) {
	next := new(mockStats)
	b, _ := json.Marshal(repository.PlatformStats{Users: 99})
	kv := &memKV{data: map[string][]byte{statsKey: b}}
	c := NewStats(next, kv, time.Minute, zap.NewNop())

	next.On("Authorize", mock.Anything, mock.Anything).Return(repository.ErrPermissionDenied)

	stats, err := c.Platform(context.Background(), policy.Principal{UserID: uuid.New()})

	assert.ErrorIs(t, err, repository.ErrPermissionDenied)
	assert.Nil(t, stats)
	next.AssertNotCalled(t, "Platform", mock.Anything, mock.Anything)
}

func TestStats_RedisDownFallsThrough(t *testing.T) {
	next := new(mockStats)
	kv := &memKV{data: map[string][]byte{}, getErr: errors.New("connection refused")}
	c := NewStats(next, kv, time.Minute, zap.NewNop())
	p := policy.Principal{UserID: uuid.New()}

	next.On("Authorize", mock.Anything, p).Return(nil)
	next.On("Platform", mock.Anything, p).Return(&repository.PlatformStats{Users: 1}, nil)

	stats, err := c.Platform(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Users)
}
