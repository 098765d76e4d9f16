package models

import "time"

// Folder is a hierarchical category for documents, at most one level of
// nesting (folder -> subfolder). Prefix controls display ordering and
// overrides alphabetical ordering wherever folders are listed.
type Folder struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"not null" json:"name"`
	Slug      string `gorm:"uniqueIndex" json:"slug"`
	Prefix    string `gorm:"index" json:"prefix"`
	ParentID  *uint  `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Parent *Folder `gorm:"foreignKey:ParentID" json:"-"`
}

// DisplayName is the folder name as shown to users, with the ordering prefix
// prepended when one is set.
func (f *Folder) DisplayName() string {
	if f.Prefix == "" {
		return f.Name
	}
	return f.Prefix + " " + f.Name
}
