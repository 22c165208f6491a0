package repositories

import (
	"github.com/betterdrive/betterdrive/app/models"
	"gorm.io/gorm"
)

// BlobRef is the per-file slice of state the delete orchestrator needs:
// enough to remove the blob and account for the freed bytes.
type BlobRef struct {
	ID         uint
	StorageKey string
	Size       int64
}

// FolderAggregate is the result of aggregating over a deletion scope.
type FolderAggregate struct {
	FileCount int64
	TotalSize int64
	Files     []BlobRef
}

// FileRepository handles database operations for File. As with
// FolderRepository, the *gorm.DB argument carries the transactional scope.
type FileRepository struct{}

func NewFileRepository() *FileRepository {
	return &FileRepository{}
}

// FindOwned looks up a file by id scoped to its owner. Ownership mismatch is
// indistinguishable from absence.
func (r *FileRepository) FindOwned(db *gorm.DB, id, userID uint) (models.File, error) {
	var file models.File
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&file).Error
	return file, err
}

// InFolder returns the files directly inside a folder, name-ordered.
func (r *FileRepository) InFolder(db *gorm.DB, folderID, userID uint) ([]models.File, error) {
	var files []models.File
	err := db.Where("folder_id = ? AND user_id = ?", folderID, userID).
		Order("name asc").Find(&files).Error
	return files, err
}

// Starred returns the user's starred files, most recently updated first.
func (r *FileRepository) Starred(db *gorm.DB, userID uint) ([]models.File, error) {
	var files []models.File
	err := db.Where("user_id = ? AND starred = ?", userID, true).
		Order("updated_at desc").Find(&files).Error
	return files, err
}

// SiblingExists reports whether the folder already contains a file named
// name, excluding excludeID (0 = exclude nothing).
func (r *FileRepository) SiblingExists(db *gorm.DB, userID, folderID uint, name string, excludeID uint) (bool, error) {
	q := db.Model(&models.File{}).
		Where("user_id = ? AND folder_id = ? AND name = ?", userID, folderID, name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AggregateFolders computes the file count, total byte size, and blob
// references over a set of folder ids. Pure read; both the stats preview and
// the delete orchestrator go through here so the preview always matches what
// a deletion would report.
func (r *FileRepository) AggregateFolders(db *gorm.DB, folderIDs []uint) (FolderAggregate, error) {
	agg := FolderAggregate{}
	if len(folderIDs) == 0 {
		return agg, nil
	}

	var rows []models.File
	err := db.Select("id", "storage_key", "size").
		Where("folder_id IN ?", folderIDs).
		Find(&rows).Error
	if err != nil {
		return agg, err
	}

	agg.FileCount = int64(len(rows))
	agg.Files = make([]BlobRef, len(rows))
	for i, f := range rows {
		agg.Files[i] = BlobRef{ID: f.ID, StorageKey: f.StorageKey, Size: f.Size}
		agg.TotalSize += f.Size
	}

	return agg, nil
}

// Create persists a new file record.
func (r *FileRepository) Create(db *gorm.DB, file *models.File) error {
	return db.Create(file).Error
}

// Save persists changes to an existing file.
func (r *FileRepository) Save(db *gorm.DB, file *models.File) error {
	return db.Save(file).Error
}

// Delete removes the file row by primary key. Hard delete — the blob is
// already gone by the time this runs, so a soft-deleted row would leave the
// ledger and the bucket out of sync.
func (r *FileRepository) Delete(db *gorm.DB, id uint) error {
	return db.Unscoped().Delete(&models.File{}, id).Error
}
