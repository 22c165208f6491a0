package seeders

import (
	"gorm.io/gorm"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/pkg/auth"
	"github.com/betterdrive/betterdrive/pkg/blob"
)

func init() {
	Register("demo", SeedDemo)
}

// SeedDemo creates a demo account with a small folder tree:
//
//	Home
//	└── Docs            (report.pdf, 1000 bytes)
//	    └── Old         (archive.zip, 500 bytes)
//
// Idempotent: skipped when the demo user already exists.
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", "demo@betterdrive.test").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword("password")
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Name:        "Demo User",
			Email:       "demo@betterdrive.test",
			Password:    hash,
			StorageUsed: 1500,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		home := models.Folder{Name: models.HomeFolderName, UserID: user.ID}
		if err := tx.Create(&home).Error; err != nil {
			return err
		}

		docs := models.Folder{Name: "Docs", UserID: user.ID, ParentID: &home.ID}
		if err := tx.Create(&docs).Error; err != nil {
			return err
		}

		old := models.Folder{Name: "Old", UserID: user.ID, ParentID: &docs.ID}
		if err := tx.Create(&old).Error; err != nil {
			return err
		}

		files := []models.File{
			{
				Name:       "report.pdf",
				Size:       1000,
				MimeType:   "application/pdf",
				StorageKey: blob.NewKey(),
				UserID:     user.ID,
				FolderID:   docs.ID,
			},
			{
				Name:       "archive.zip",
				Size:       500,
				MimeType:   "application/zip",
				StorageKey: blob.NewKey(),
				UserID:     user.ID,
				FolderID:   old.ID,
			},
		}
		return tx.Create(&files).Error
	})
}
