package migrations

import (
	"gorm.io/gorm"

	"github.com/betterdrive/betterdrive/app/models"
	"github.com/betterdrive/betterdrive/pkg/migration"
)

func init() {
	migration.Register("20260301000000_create_users_table", &CreateUsersTable{})
	migration.Register("20260301000001_create_folders_table", &CreateFoldersTable{})
	migration.Register("20260301000002_create_files_table", &CreateFilesTable{})
}

// -------- 0001: users --------

type CreateUsersTable struct{}

func (m *CreateUsersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{})
}

func (m *CreateUsersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("users")
}

// -------- 0002: folders --------
//
// AutoMigrate on the Folder model creates the self-referential parent_id
// foreign key with ON DELETE CASCADE. Folder deletion relies on that
// constraint, so this migration must run against a database with foreign
// keys enabled (SQLite needs PRAGMA foreign_keys = ON).

type CreateFoldersTable struct{}

func (m *CreateFoldersTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Folder{})
}

func (m *CreateFoldersTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("folders")
}

// -------- 0003: files --------

type CreateFilesTable struct{}

func (m *CreateFilesTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.File{})
}

func (m *CreateFilesTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("files")
}
