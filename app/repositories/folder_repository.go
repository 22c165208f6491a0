package repositories

import (
	"github.com/betterdrive/betterdrive/app/models"
	"gorm.io/gorm"
)

// FolderRepository handles database operations for Folder.
//
// Every method takes the *gorm.DB to run against so the caller controls the
// transactional scope: the tree walk, the aggregation, and the cascade delete
// of a single folder deletion all run on the same tx handle.
type FolderRepository struct{}

func NewFolderRepository() *FolderRepository {
	return &FolderRepository{}
}

// FindOwned looks up a folder by id scoped to its owner.
// A folder belonging to another user is reported as gorm.ErrRecordNotFound.
func (r *FolderRepository) FindOwned(db *gorm.DB, id, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&folder).Error
	return folder, err
}

// FindHome returns the user's root folder (the one with no parent).
func (r *FolderRepository) FindHome(db *gorm.DB, userID uint) (models.Folder, error) {
	var folder models.Folder
	err := db.Where("user_id = ? AND parent_id IS NULL", userID).First(&folder).Error
	return folder, err
}

// AllForUser returns every folder the user owns.
func (r *FolderRepository) AllForUser(db *gorm.DB, userID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := db.Where("user_id = ?", userID).Order("name asc").Find(&folders).Error
	return folders, err
}

// Children returns the direct subfolders of a folder, name-ordered.
func (r *FolderRepository) Children(db *gorm.DB, folderID, userID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := db.Where("parent_id = ? AND user_id = ?", folderID, userID).
		Order("name asc").Find(&folders).Error
	return folders, err
}

// Starred returns the user's starred folders, most recently updated first.
func (r *FolderRepository) Starred(db *gorm.DB, userID uint) ([]models.Folder, error) {
	var folders []models.Folder
	err := db.Where("user_id = ? AND starred = ?", userID, true).
		Order("updated_at desc").Find(&folders).Error
	return folders, err
}

// SiblingExists reports whether the user already has a folder named name
// under parentID, excluding excludeID (0 = exclude nothing). Used for the
// create and rename collision checks.
func (r *FolderRepository) SiblingExists(db *gorm.DB, userID uint, parentID *uint, name string, excludeID uint) (bool, error) {
	q := db.Model(&models.Folder{}).Where("user_id = ? AND name = ?", userID, name)
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// DescendantIDs walks the parent→children edges below folderID and returns
// every transitive descendant folder id, excluding folderID itself.
//
// The walk is an iterative frontier (one query per tree level) rather than
// call recursion: folder depth is user-controlled and must not be able to
// exhaust the stack. The relation is a strict tree, so no visited-set is
// needed and duplicates are impossible.
//
// Read-only. Run it on the same tx handle as the aggregation and delete that
// consume its output.
func (r *FolderRepository) DescendantIDs(db *gorm.DB, folderID, userID uint) ([]uint, error) {
	var collected []uint
	frontier := []uint{folderID}

	for len(frontier) > 0 {
		var next []uint
		err := db.Model(&models.Folder{}).
			Where("parent_id IN ? AND user_id = ?", frontier, userID).
			Pluck("id", &next).Error
		if err != nil {
			return nil, err
		}

		collected = append(collected, next...)
		frontier = next
	}

	return collected, nil
}

// Create persists a new folder record.
func (r *FolderRepository) Create(db *gorm.DB, folder *models.Folder) error {
	return db.Create(folder).Error
}

// Save persists changes to an existing folder.
func (r *FolderRepository) Save(db *gorm.DB, folder *models.Folder) error {
	return db.Save(folder).Error
}

// Delete removes the folder row by primary key. Descendant folders and files
// are removed by the database's ON DELETE CASCADE rules, never enumerated
// here — the cascade is the delete authority, the walker output is only used
// for blob keys and reported counts.
func (r *FolderRepository) Delete(db *gorm.DB, id uint) error {
	return db.Unscoped().Delete(&models.Folder{}, id).Error
}
