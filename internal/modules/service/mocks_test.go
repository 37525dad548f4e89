package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/roomforge/api/internal/infra/blob"
	mq "github.com/roomforge/api/internal/infra/queue"
	"github.com/roomforge/api/internal/modules/model"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 1x1 transparent PNG
const testPNGBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

const testPNGDataURI = "data:image/png;base64," + testPNGBase64

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.Design{}, &model.DesignPreference{}, &model.DesignOutput{}))
	return db
}

// MockDesignRepo is a mock implementation of DesignRepo
type MockDesignRepo struct {
	mock.Mock
}

func (m *MockDesignRepo) Create(ctx context.Context, d *model.Design) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDesignRepo) CreateWithPreference(ctx context.Context, d *model.Design, p *model.DesignPreference) error {
	args := m.Called(ctx, d, p)
	return args.Error(0)
}

func (m *MockDesignRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Design, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Design), args.Error(1)
}

func (m *MockDesignRepo) GetPreference(ctx context.Context, designID uuid.UUID) (*model.DesignPreference, error) {
	args := m.Called(ctx, designID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DesignPreference), args.Error(1)
}

func (m *MockDesignRepo) ListByParentID(ctx context.Context, parentID uuid.UUID) ([]*model.Design, error) {
	args := m.Called(ctx, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Design), args.Error(1)
}

func (m *MockDesignRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Design, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Design), args.Error(1)
}

func (m *MockDesignRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.DesignStatus) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockDesignRepo) HasChildren(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDesignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, mime string) (*blob.UploadedMeta, error) {
	args := m.Called(ctx, key, data, mime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*blob.UploadedMeta), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) bool {
	args := m.Called(ctx, key)
	return args.Bool(0)
}

// MockURLSigner is a mock implementation of URLSigner
type MockURLSigner struct {
	mock.Mock
}

func (m *MockURLSigner) Sign(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Bool(1)
}

func (m *MockURLSigner) ExtractKey(raw string) (string, bool) {
	args := m.Called(raw)
	return args.String(0), args.Bool(1)
}

func (m *MockURLSigner) IsStorageURL(raw string) bool {
	args := m.Called(raw)
	return args.Bool(0)
}

// MockPublisher is a mock implementation of mq.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishDesignEvent(ctx context.Context, ev mq.DesignEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPublisher) Close() error { return nil }

func noSleep(context.Context, time.Duration) error { return nil }

// memStore keeps objects in memory and serves them from cdn.test.
type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Enabled() bool { return true }

func (s *memStore) Put(ctx context.Context, key string, data []byte, mime string) (*blob.UploadedMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return &blob.UploadedMeta{Bucket: "test-bucket", Key: key, URL: "https://cdn.test/" + key, MIME: mime, SizeB: int64(len(data))}, nil
}

func (s *memStore) Delete(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return ok
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	return out
}
