package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockSigner struct {
	mock.Mock
}

func (m *MockSigner) Sign(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1)
}

func (m *MockSigner) ExtractKey(raw string) (string, bool) {
	args := m.Called(raw)
	return args.String(0), args.Bool(1)
}

func (m *MockSigner) IsStorageURL(raw string) bool {
	args := m.Called(raw)
	return args.Bool(0)
}

type MockRedis struct {
	mock.Mock
}

func (m *MockRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	return redis.NewStringResult(args.String(0), args.Error(1))
}

func (m *MockRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	return redis.NewStatusResult("OK", args.Error(0))
}

func TestCachingSigner_Sign(t *testing.T) {
	const objectKey = "designs/o/render/1.png"

	tests := []struct {
		name     string
		ttl      time.Duration
		setup    func(*MockSigner, *MockRedis)
		expected string
		ok       bool
	}{
		{
			name: "cache hit skips signing",
			ttl:  time.Hour,
			setup: func(s *MockSigner, r *MockRedis) {
				r.On("Get", mock.Anything, "signed:3600:"+objectKey).Return("https://cached", nil)
			},
			expected: "https://cached",
			ok:       true,
		},
		{
			name: "miss signs and stores for 80 percent of ttl",
			ttl:  time.Hour,
			setup: func(s *MockSigner, r *MockRedis) {
				r.On("Get", mock.Anything, "signed:3600:"+objectKey).Return("", redis.Nil)
				s.On("Sign", mock.Anything, objectKey, time.Hour).Return("https://fresh", true)
				r.On("Set", mock.Anything, "signed:3600:"+objectKey, "https://fresh", 48*time.Minute).Return(nil)
			},
			expected: "https://fresh",
			ok:       true,
		},
		{
			name: "zero ttl uses default",
			ttl:  0,
			setup: func(s *MockSigner, r *MockRedis) {
				r.On("Get", mock.Anything, "signed:3600:"+objectKey).Return("", redis.Nil)
				s.On("Sign", mock.Anything, objectKey, time.Hour).Return("https://fresh", true)
				r.On("Set", mock.Anything, "signed:3600:"+objectKey, "https://fresh", 48*time.Minute).Return(nil)
			},
			expected: "https://fresh",
			ok:       true,
		},
		{
			name: "redis down still signs",
			ttl:  4 * time.Hour,
			setup: func(s *MockSigner, r *MockRedis) {
				r.On("Get", mock.Anything, "signed:14400:"+objectKey).Return("", errors.New("connection refused"))
				s.On("Sign", mock.Anything, objectKey, 4*time.Hour).Return("https://fresh", true)
				r.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection refused"))
			},
			expected: "https://fresh",
			ok:       true,
		},
		{
			name: "sign failure is not cached",
			ttl:  time.Hour,
			setup: func(s *MockSigner, r *MockRedis) {
				r.On("Get", mock.Anything, mock.Anything).Return("", redis.Nil)
				s.On("Sign", mock.Anything, objectKey, time.Hour).Return("", false)
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer := &MockSigner{}
			rdb := &MockRedis{}
			tt.setup(signer, rdb)

			c := NewCachingSigner(signer, rdb, zap.NewNop())
			got, ok := c.Sign(context.Background(), objectKey, tt.ttl)

			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
			signer.AssertExpectations(t)
			rdb.AssertExpectations(t)
			if !tt.ok {
				rdb.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCachingSigner_Delegates(t *testing.T) {
	signer := &MockSigner{}
	signer.On("ExtractKey", "https://x/y").Return("y", true)
	signer.On("IsStorageURL", "https://x/y").Return(true)

	c := NewCachingSigner(signer, &MockRedis{}, zap.NewNop())
	key, ok := c.ExtractKey("https://x/y")

	assert.True(t, ok)
	assert.Equal(t, "y", key)
	assert.True(t, c.IsStorageURL("https://x/y"))
}
