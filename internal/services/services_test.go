package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/example/maurigift/internal/database"
	"github.com/example/maurigift/internal/events"
	"github.com/example/maurigift/internal/models"
	"github.com/example/maurigift/internal/storage"
	"github.com/example/maurigift/internal/utils"
)

var pngReceipt = base64.StdEncoding.EncodeToString(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, phone string, role models.Role) *models.User {
	t.Helper()

	hash, err := utils.HashPIN("1234")
	require.NoError(t, err)
	user := &models.User{Name: "User " + phone, PhoneNumber: phone, PinHash: hash, PinSet: true, Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

type catalogFixture struct {
	category models.Category
	product  models.Product
	inactive models.Product
}

func seedCatalog(t *testing.T, db *gorm.DB) catalogFixture {
	t.Helper()

	f := catalogFixture{category: models.Category{Name: "PUBG"}}
	require.NoError(t, db.Create(&f.category).Error)

	f.product = models.Product{
		CategoryID: f.category.ID,
		Name:       "60 UC",
		SKU:        "PUBG-60",
		PriceMRU:   120,
		Active:     true,
		Meta:       models.ProductMeta{Amount: "60", Currency: "UC"},
	}
	require.NoError(t, db.Create(&f.product).Error)

	f.inactive = models.Product{CategoryID: f.category.ID, Name: "325 UC", SKU: "PUBG-325", PriceMRU: 600}
	require.NoError(t, db.Create(&f.inactive).Error)
	return f
}

func requireKind(t *testing.T, err error, kind error) {
	t.Helper()

	require.Error(t, err)
	assert.True(t, errors.Is(err, kind), "expected %v, got %v", kind, err)
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

type fakeRelay struct {
	mu       sync.Mutex
	err      error
	messages map[string]string
}

func (r *fakeRelay) SendWhatsApp(_ context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if r.messages == nil {
		r.messages = make(map[string]string)
	}
	r.messages[to] = body
	return nil
}

// lastCode extracts the trailing code from the message relayed to number.
func (r *fakeRelay) lastCode(t *testing.T, to string) string {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()
	body, ok := r.messages[to]
	require.True(t, ok, "no message relayed to %s", to)
	return body[strings.LastIndex(body, " ")+1:]
}

type memStore struct {
	mu      sync.Mutex
	putErr  error
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func (s *memStore) Get(_ context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", storage.ErrNotFound
	}
	return data, "image/png", nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(_ context.Context, e events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type mapCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{values: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (c *mapCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.values[key]
	return ok
}
