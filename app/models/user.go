package models

import "gorm.io/gorm"

// User is the primary user model. StorageUsed is the quota ledger: it must
// equal the sum of sizes of the user's current files at every commit point.
type User struct {
	gorm.Model
	Name        string `gorm:"size:255;not null" json:"name"`
	Email       string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string `gorm:"size:255;not null" json:"-"` // hashed, never serialised
	StorageUsed int64  `gorm:"not null;default:0" json:"storage_used"`
}
