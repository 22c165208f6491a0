package services

import (
	"context"
	"fmt"
	"io"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/repositories"
	"github.com/betterdrive/betterdrive/config"
	"github.com/betterdrive/betterdrive/pkg/blob"
	"github.com/betterdrive/betterdrive/pkg/cache"
	"github.com/betterdrive/betterdrive/pkg/event"
	"github.com/betterdrive/betterdrive/pkg/logger"
	"github.com/betterdrive/betterdrive/pkg/metrics"
	"gorm.io/gorm"
)

// CreateFileInput is the metadata for a blob that already exists in the
// store (the post-upload callback shape).
type CreateFileInput struct {
	Name       string
	Size       int64
	MimeType   string
	URL        string
	StorageKey string
	FolderID   uint
}

// FileDeleteResult summarises one file deletion.
type FileDeleteResult struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// FileService implements single-file operations: metadata create with quota
// enforcement, direct upload, rename, starring, and the delete orchestrator.
type FileService struct {
	db      *gorm.DB
	blobs   blob.Store
	folders *repositories.FolderRepository
	files   *repositories.FileRepository
	users   *repositories.UserRepository
}

func NewFileService(db *gorm.DB, blobs blob.Store) *FileService {
	return &FileService{
		db:      db,
		blobs:   blobs,
		folders: repositories.NewFolderRepository(),
		files:   repositories.NewFileRepository(),
		users:   repositories.NewUserRepository(),
	}
}

// Create registers a stored blob as a file row. The quota increment and the
// row insert commit together; a failed quota check leaves no side effects.
func (s *FileService) Create(ctx context.Context, userID uint, in CreateFileInput) (models.File, error) {
	if in.Size < 0 {
		return models.File{}, fmt.Errorf("%w: negative file size", ErrInternal)
	}

	var file models.File

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.folders.FindOwned(tx, in.FolderID, userID); err != nil {
			return notFoundOr(err, "folder")
		}

		exists, err := s.files.SiblingExists(tx, userID, in.FolderID, in.Name, 0)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: file %q", ErrConflict, in.Name)
		}

		// Conditional single-statement increment: rejects the create before
		// any row exists when the quota would be exceeded.
		ok, err := s.users.TryIncrementStorage(tx, userID, in.Size, config.MaxStorageLimit())
		if err != nil {
			return err
		}
		if !ok {
			if _, err := s.users.FindByID(tx, userID); err != nil {
				return notFoundOr(err, "user")
			}
			return fmt.Errorf("%w: %d bytes over limit", ErrQuotaExceeded, in.Size)
		}

		file = models.File{
			Name:       in.Name,
			Size:       in.Size,
			MimeType:   in.MimeType,
			URL:        in.URL,
			StorageKey: in.StorageKey,
			UserID:     userID,
			FolderID:   in.FolderID,
		}
		return s.files.Create(tx, &file)
	})
	if err != nil {
		return models.File{}, internalUnless(err)
	}

	metrics.FilesCreated.Inc()
	cache.Del(storageInfoKey(userID))
	event.Fire(EventStorageChanged, StorageChange{UserID: userID, Delta: file.Size})

	return file, nil
}

// Upload streams content into the blob store and registers the file row.
// If the row create fails after the blob is stored (quota, name conflict),
// the fresh blob is removed again so failed uploads do not leak objects.
func (s *FileService) Upload(ctx context.Context, userID, folderID uint, name, contentType string, size int64, content io.Reader) (models.File, error) {
	log := logger.WithCtx(ctx)

	if max := config.MaxFileSize(); size > max {
		return models.File{}, fmt.Errorf("%w: file exceeds the %d byte upload cap", ErrQuotaExceeded, max)
	}

	key := blob.NewKey()
	url, err := s.blobs.Put(ctx, key, contentType, io.LimitReader(content, size))
	if err != nil {
		log.Error("upload: blob put failed", "key", key, "error", err)
		return models.File{}, fmt.Errorf("%w: blob upload", ErrInternal)
	}

	file, err := s.Create(ctx, userID, CreateFileInput{
		Name:       name,
		Size:       size,
		MimeType:   contentType,
		URL:        url,
		StorageKey: key,
		FolderID:   folderID,
	})
	if err != nil {
		if delErr := s.blobs.DeleteObjects(ctx, []string{key}); delErr != nil {
			log.Error("upload: orphaned blob could not be removed", "key", key, "error", delErr)
		}
		return models.File{}, err
	}

	return file, nil
}

// Rename changes a file's name after the sibling collision check.
func (s *FileService) Rename(ctx context.Context, userID, fileID uint, name string) (models.File, error) {
	var file models.File

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		file, err = s.files.FindOwned(tx, fileID, userID)
		if err != nil {
			return notFoundOr(err, "file")
		}

		exists, err := s.files.SiblingExists(tx, userID, file.FolderID, name, file.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: file %q", ErrConflict, name)
		}

		file.Name = name
		return s.files.Save(tx, &file)
	})
	if err != nil {
		return models.File{}, internalUnless(err)
	}

	return file, nil
}

// ToggleStar flips the file's starred flag.
func (s *FileService) ToggleStar(ctx context.Context, userID, fileID uint) (models.File, error) {
	file, err := s.files.FindOwned(s.db, fileID, userID)
	if err != nil {
		return models.File{}, notFoundOr(err, "file")
	}

	file.Starred = !file.Starred
	if err := s.files.Save(s.db, &file); err != nil {
		return models.File{}, internalUnless(err)
	}
	return file, nil
}

// Delete removes one file: authorize → blob delete → row delete + quota
// decrement in one transaction.
//
// Unlike folder deletion, a blob-store failure here aborts the whole
// operation: with a single object there is no aggregate-consistency reason
// to push past a failed removal, so the metadata stays until the blob is
// actually gone. The asymmetry is deliberate.
func (s *FileService) Delete(ctx context.Context, userID, fileID uint) (FileDeleteResult, error) {
	log := logger.WithCtx(ctx)

	file, err := s.files.FindOwned(s.db, fileID, userID)
	if err != nil {
		return FileDeleteResult{}, notFoundOr(err, "file")
	}

	if err := s.blobs.DeleteObjects(ctx, []string{file.StorageKey}); err != nil {
		log.Error("file delete: blob deletion failed, aborting", "file_id", fileID, "error", err)
		metrics.BlobDeleteFailures.Inc()
		return FileDeleteResult{}, fmt.Errorf("%w: blob deletion", ErrInternal)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.files.Delete(tx, file.ID); err != nil {
			return err
		}

		ok, err := s.users.DecrementStorage(tx, userID, file.Size)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("quota ledger underflow for user %d (freeing %d bytes)", userID, file.Size)
		}
		return nil
	})
	if err != nil {
		log.Error("file delete failed", "file_id", fileID, "error", err)
		return FileDeleteResult{}, internalUnless(err)
	}

	metrics.FilesDeleted.Inc()
	metrics.BytesFreed.Add(float64(file.Size))
	cache.Del(storageInfoKey(userID))
	event.Fire(EventStorageChanged, StorageChange{UserID: userID, Delta: -file.Size})

	log.Info("file deleted", "file_id", fileID, "name", file.Name, "size", file.Size)

	return FileDeleteResult{Name: file.Name, Size: file.Size}, nil
}
