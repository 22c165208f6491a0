package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/app/repositories"
	"github.com/betterdrive/betterdrive/pkg/blob"
	"github.com/betterdrive/betterdrive/pkg/cache"
	"github.com/betterdrive/betterdrive/pkg/event"
	"github.com/betterdrive/betterdrive/pkg/logger"
	"github.com/betterdrive/betterdrive/pkg/metrics"
	"gorm.io/gorm"
)

// EventStorageChanged fires after any committed mutation of a user's
// storage_used ledger. Payload: StorageChange.
const EventStorageChanged = "storage.changed"

// StorageChange is the EventStorageChanged payload.
type StorageChange struct {
	UserID uint  `json:"user_id"`
	Delta  int64 `json:"delta"` // bytes, negative on delete
}

// FolderStats is the pre-delete confirmation preview for a folder.
type FolderStats struct {
	SubFolderCount int   `json:"subFolderCount"`
	FileCount      int64 `json:"fileCount"`
}

// FolderDeleteResult summarises one cascading folder deletion.
type FolderDeleteResult struct {
	DeletedFiles   int64 `json:"deletedFiles"`
	DeletedFolders int   `json:"deletedFolders"`
	FreedSpace     int64 `json:"freedSpace"`
}

// FolderContents is a folder with its direct children, name-ordered.
type FolderContents struct {
	Folder     models.Folder   `json:"folder"`
	SubFolders []models.Folder `json:"sub_folders"`
	Files      []models.File   `json:"files"`
}

// FolderService implements the folder-tree operations: creation, rename,
// starring, the stats preview, and the cascading delete orchestrator.
type FolderService struct {
	db      *gorm.DB
	blobs   blob.Store
	folders *repositories.FolderRepository
	files   *repositories.FileRepository
	users   *repositories.UserRepository
}

// NewFolderService wires a FolderService. The blob store is injected, never
// a package singleton, so tests can substitute a fake.
func NewFolderService(db *gorm.DB, blobs blob.Store) *FolderService {
	return &FolderService{
		db:      db,
		blobs:   blobs,
		folders: repositories.NewFolderRepository(),
		files:   repositories.NewFileRepository(),
		users:   repositories.NewUserRepository(),
	}
}

// Create adds a folder under parentID, or under the user's Home root when
// parentID is nil. Sibling name collisions fail with ErrConflict.
func (s *FolderService) Create(ctx context.Context, userID uint, name string, parentID *uint) (models.Folder, error) {
	var folder models.Folder

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if parentID == nil {
			home, err := s.folders.FindHome(tx, userID)
			if err != nil {
				return fmt.Errorf("%w: home folder", ErrNotFound)
			}
			parentID = &home.ID
		} else {
			if _, err := s.folders.FindOwned(tx, *parentID, userID); err != nil {
				return notFoundOr(err, "parent folder")
			}
		}

		exists, err := s.folders.SiblingExists(tx, userID, parentID, name, 0)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: folder %q", ErrConflict, name)
		}

		folder = models.Folder{Name: name, UserID: userID, ParentID: parentID}
		return s.folders.Create(tx, &folder)
	})
	if err != nil {
		return models.Folder{}, internalUnless(err)
	}

	return folder, nil
}

// Home returns the user's root folder.
func (s *FolderService) Home(ctx context.Context, userID uint) (models.Folder, error) {
	folder, err := s.folders.FindHome(s.db, userID)
	if err != nil {
		return models.Folder{}, notFoundOr(err, "home folder")
	}
	return folder, nil
}

// All returns every folder the user owns.
func (s *FolderService) All(ctx context.Context, userID uint) ([]models.Folder, error) {
	folders, err := s.folders.AllForUser(s.db, userID)
	if err != nil {
		return nil, internalUnless(err)
	}
	return folders, nil
}

// Contents returns a folder together with its direct subfolders and files.
func (s *FolderService) Contents(ctx context.Context, userID, folderID uint) (FolderContents, error) {
	var out FolderContents

	err := s.db.Transaction(func(tx *gorm.DB) error {
		folder, err := s.folders.FindOwned(tx, folderID, userID)
		if err != nil {
			return notFoundOr(err, "folder")
		}

		subs, err := s.folders.Children(tx, folderID, userID)
		if err != nil {
			return err
		}
		files, err := s.files.InFolder(tx, folderID, userID)
		if err != nil {
			return err
		}

		out = FolderContents{Folder: folder, SubFolders: subs, Files: files}
		return nil
	})
	if err != nil {
		return FolderContents{}, internalUnless(err)
	}

	return out, nil
}

// Rename changes a folder's name after the sibling collision check. The Home
// root is protected: a rename targeting it is rejected before any data-layer
// work.
func (s *FolderService) Rename(ctx context.Context, userID, folderID uint, name string) (models.Folder, error) {
	var folder models.Folder

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		folder, err = s.folders.FindOwned(tx, folderID, userID)
		if err != nil {
			return notFoundOr(err, "folder")
		}

		if folder.IsRoot() {
			return fmt.Errorf("%w: the Home folder cannot be renamed", ErrForbidden)
		}

		exists, err := s.folders.SiblingExists(tx, userID, folder.ParentID, name, folder.ID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: folder %q", ErrConflict, name)
		}

		folder.Name = name
		return s.folders.Save(tx, &folder)
	})
	if err != nil {
		return models.Folder{}, internalUnless(err)
	}

	return folder, nil
}

// ToggleStar flips the folder's starred flag.
func (s *FolderService) ToggleStar(ctx context.Context, userID, folderID uint) (models.Folder, error) {
	folder, err := s.folders.FindOwned(s.db, folderID, userID)
	if err != nil {
		return models.Folder{}, notFoundOr(err, "folder")
	}

	folder.Starred = !folder.Starred
	if err := s.folders.Save(s.db, &folder); err != nil {
		return models.Folder{}, internalUnless(err)
	}
	return folder, nil
}

// Stats returns the deletion preview for a folder: how many subfolders and
// files a delete would remove. It runs the same walker and aggregation as
// Delete, on one transaction snapshot, so preview and actual always agree.
func (s *FolderService) Stats(ctx context.Context, userID, folderID uint) (FolderStats, error) {
	var stats FolderStats

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.folders.FindOwned(tx, folderID, userID); err != nil {
			return notFoundOr(err, "folder")
		}

		descendants, err := s.folders.DescendantIDs(tx, folderID, userID)
		if err != nil {
			return err
		}

		scope := append([]uint{folderID}, descendants...)
		agg, err := s.files.AggregateFolders(tx, scope)
		if err != nil {
			return err
		}

		stats = FolderStats{SubFolderCount: len(descendants), FileCount: agg.FileCount}
		return nil
	})
	if err != nil {
		return FolderStats{}, internalUnless(err)
	}

	return stats, nil
}

// Delete removes a folder, everything below it, and the bytes it holds.
//
// Sequence: authorize → walk the tree → aggregate blob keys and sizes →
// best-effort batch blob delete → cascade row delete → quota decrement.
// Everything except the blob call runs in one transaction; a blob-store
// failure here is logged and the metadata cleanup proceeds, trading a
// possible orphaned blob for a consistent ledger. The row delete targets the
// folder row only — ON DELETE CASCADE removes the subtree, so a subfolder
// inserted after the walk still dies with its parent; the walker output is
// never the delete predicate.
func (s *FolderService) Delete(ctx context.Context, userID, folderID uint) (FolderDeleteResult, error) {
	log := logger.WithCtx(ctx)

	folder, err := s.folders.FindOwned(s.db, folderID, userID)
	if err != nil {
		return FolderDeleteResult{}, notFoundOr(err, "folder")
	}
	if folder.IsRoot() {
		return FolderDeleteResult{}, fmt.Errorf("%w: the Home folder cannot be deleted", ErrForbidden)
	}

	var result FolderDeleteResult

	err = s.db.Transaction(func(tx *gorm.DB) error {
		descendants, err := s.folders.DescendantIDs(tx, folderID, userID)
		if err != nil {
			return err
		}

		scope := append([]uint{folderID}, descendants...)
		agg, err := s.files.AggregateFolders(tx, scope)
		if err != nil {
			return err
		}

		if len(agg.Files) > 0 {
			keys := make([]string, len(agg.Files))
			for i, f := range agg.Files {
				keys[i] = f.StorageKey
			}
			// At-most-once, best-effort. The database cleanup must complete
			// even if the bucket refuses, so this failure is only logged.
			if err := s.blobs.DeleteObjects(ctx, keys); err != nil {
				log.Error("folder delete: blob deletion failed, proceeding with database cleanup",
					"folder_id", folderID, "keys", len(keys), "error", err)
				metrics.BlobDeleteFailures.Inc()
			}
		}

		if err := s.folders.Delete(tx, folderID); err != nil {
			return err
		}

		ok, err := s.users.DecrementStorage(tx, userID, agg.TotalSize)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("quota ledger underflow for user %d (freeing %d bytes)", userID, agg.TotalSize)
		}

		result = FolderDeleteResult{
			DeletedFiles:   agg.FileCount,
			DeletedFolders: len(scope),
			FreedSpace:     agg.TotalSize,
		}
		return nil
	})
	if err != nil {
		log.Error("folder delete failed", "folder_id", folderID, "error", err)
		return FolderDeleteResult{}, internalUnless(err)
	}

	metrics.FoldersDeleted.Add(float64(result.DeletedFolders))
	metrics.FilesDeleted.Add(float64(result.DeletedFiles))
	metrics.BytesFreed.Add(float64(result.FreedSpace))
	cache.Del(storageInfoKey(userID))
	event.Fire(EventStorageChanged, StorageChange{UserID: userID, Delta: -result.FreedSpace})

	log.Info("folder deleted",
		"folder_id", folderID,
		"deleted_folders", result.DeletedFolders,
		"deleted_files", result.DeletedFiles,
		"freed_space", result.FreedSpace,
	)

	return result, nil
}

// notFoundOr maps a record-not-found lookup to the NotFound kind (absence
// and ownership mismatch look identical to the caller) and passes other
// database errors through for the internal-error wrap.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// internalUnless returns err as-is when it already carries a taxonomy kind,
// and wraps anything else (driver faults, rollbacks) as ErrInternal.
func internalUnless(err error) error {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrQuotaExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
