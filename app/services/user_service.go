package services

import (
	"context"
	"fmt"
	"time"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/repositories"
	"github.com/betterdrive/betterdrive/config"
	"github.com/betterdrive/betterdrive/pkg/cache"
	"gorm.io/gorm"
)

// storageInfoTTL bounds how long a cached storage reading can live. Every
// quota mutation invalidates the key, so the TTL only matters for the
// cold-cache window.
const storageInfoTTL = 30 * time.Second

func storageInfoKey(userID uint) string {
	return fmt.Sprintf("storage_info:%d", userID)
}

// StorageInfo is the user-facing quota reading.
type StorageInfo struct {
	UsedBytes  int64 `json:"usedBytes"`
	TotalBytes int64 `json:"totalBytes"`
}

// StarredItems groups a user's starred folders and files.
type StarredItems struct {
	Folders []models.Folder `json:"starredFolders"`
	Files   []models.File   `json:"starredFiles"`
}

// UserService serves account-level reads: the quota counter and the starred
// listing.
type UserService struct {
	db      *gorm.DB
	users   *repositories.UserRepository
	folders *repositories.FolderRepository
	files   *repositories.FileRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		db:      db,
		users:   repositories.NewUserRepository(),
		folders: repositories.NewFolderRepository(),
		files:   repositories.NewFileRepository(),
	}
}

// StorageInfo returns the user's current quota usage against the limit.
// Redis-cached; create/delete operations invalidate the key so a reading
// taken right after a delete reflects the freed bytes exactly.
func (s *UserService) StorageInfo(ctx context.Context, userID uint) (StorageInfo, error) {
	key := storageInfoKey(userID)

	var info StorageInfo
	if cache.Get(key, &info) {
		return info, nil
	}

	user, err := s.users.FindByID(s.db, userID)
	if err != nil {
		return StorageInfo{}, notFoundOr(err, "user")
	}

	info = StorageInfo{UsedBytes: user.StorageUsed, TotalBytes: config.MaxStorageLimit()}
	_ = cache.Set(key, info, storageInfoTTL)

	return info, nil
}

// Starred returns the user's starred folders and files, most recently
// updated first.
func (s *UserService) Starred(ctx context.Context, userID uint) (StarredItems, error) {
	folders, err := s.folders.Starred(s.db, userID)
	if err != nil {
		return StarredItems{}, internalUnless(err)
	}
	files, err := s.files.Starred(s.db, userID)
	if err != nil {
		return StarredItems{}, internalUnless(err)
	}

	return StarredItems{Folders: folders, Files: files}, nil
}
