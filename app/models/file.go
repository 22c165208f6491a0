package models

import "gorm.io/gorm"

// File is the metadata row for one stored object. The raw bytes live in the
// external blob store under StorageKey; the row and the blob are reconciled
// by the delete orchestrators in app/services.
type File struct {
	gorm.Model
	Name       string `gorm:"size:255;not null;index:idx_file_sibling,unique" json:"name"`
	Size       int64  `gorm:"not null" json:"size"`
	MimeType   string `gorm:"size:255;not null" json:"mime_type"`
	URL        string `gorm:"type:text" json:"url"`
	StorageKey string `gorm:"size:255;not null;uniqueIndex" json:"storage_key"`
	UserID     uint   `gorm:"not null;index;index:idx_file_sibling,unique" json:"user_id"`
	FolderID   uint   `gorm:"not null;index;index:idx_file_sibling,unique" json:"folder_id"`
	Starred    bool   `gorm:"not null;default:false" json:"starred"`
}
