package models

import "gorm.io/gorm"

// Folder is a node in a user's folder tree. ParentID is nil only for the
// distinguished "Home" root created at registration; every other folder has
// exactly one parent, so the parent_id relation forms a strict tree.
//
// Name is unique among siblings (same owner, same parent). Deleting a folder
// row cascades to its subfolders and files at the database level — the
// application never enumerates rows to delete them.
type Folder struct {
	gorm.Model
	Name     string `gorm:"size:255;not null;index:idx_folder_sibling,unique" json:"name"`
	UserID   uint   `gorm:"not null;index:idx_folder_sibling,unique" json:"user_id"`
	ParentID *uint  `gorm:"index;index:idx_folder_sibling,unique" json:"parent_id"`
	Starred  bool   `gorm:"not null;default:false" json:"starred"`

	SubFolders []Folder `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"sub_folders,omitempty"`
	Files      []File   `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"files,omitempty"`
}

// IsRoot reports whether the folder is the user's protected Home root.
func (f *Folder) IsRoot() bool { return f.ParentID == nil }

// HomeFolderName is the name of the root folder created for every user.
const HomeFolderName = "Home"
