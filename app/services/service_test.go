package services_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/config"
)

var dbSeq atomic.Uint64

// newTestDB opens a fresh in-memory SQLite database with foreign keys
// enabled. Each test gets its own named shared-cache database so the GORM
// connection pool always sees the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Shared-cache in-memory databases are dropped when the last connection
	// closes; a single connection also sidesteps SQLITE_LOCKED.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Folder{}, &models.File{}))
	return db
}

// newTestUser inserts a user with their Home root and returns both.
func newTestUser(t *testing.T, db *gorm.DB, email string) (models.User, models.Folder) {
	t.Helper()

	user := models.User{Name: "Test User", Email: email, Password: "irrelevant"}
	require.NoError(t, db.Create(&user).Error)

	home := models.Folder{Name: models.HomeFolderName, UserID: user.ID}
	require.NoError(t, db.Create(&home).Error)

	return user, home
}

// setQuotaLimit pins the per-user storage ceiling for the test.
func setQuotaLimit(t *testing.T, bytes int64) {
	t.Helper()
	config.Set("MAX_STORAGE_LIMIT", fmt.Sprintf("%d", bytes))
	t.Cleanup(func() { config.Set("MAX_STORAGE_LIMIT", "") })
}

// fakeBlobStore is an in-memory blob.Store. FailDeletes / FailPuts force the
// corresponding calls to error so tests can probe both delete orchestrators.
type fakeBlobStore struct {
	mu          sync.Mutex
	objects     map[string]bool
	deletedKeys []string
	FailDeletes bool
	FailPuts    bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string]bool{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key, contentType string, content io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailPuts {
		return "", fmt.Errorf("fake blob store: put refused")
	}
	if _, err := io.Copy(io.Discard, content); err != nil {
		return "", err
	}
	f.objects[key] = true
	return f.URL(key), nil
}

func (f *fakeBlobStore) DeleteObjects(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDeletes {
		return fmt.Errorf("fake blob store: delete refused")
	}
	for _, k := range keys {
		delete(f.objects, k)
		f.deletedKeys = append(f.deletedKeys, k)
	}
	return nil
}

func (f *fakeBlobStore) URL(key string) string {
	return "https://blobs.test/" + key
}

// deleted returns a copy of every key deleted so far.
func (f *fakeBlobStore) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deletedKeys))
	copy(out, f.deletedKeys)
	return out
}

func storageUsed(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, db.First(&user, userID).Error)
	return user.StorageUsed
}
