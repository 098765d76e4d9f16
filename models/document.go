package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document statuses follow the host platform's content lifecycle. Documents
// are created private; they are only ever shown to logged-in portal users.
const (
	DocumentStatusPrivate   = "private"
	DocumentStatusPublished = "publish"
)

// Document is one user-facing file entry: a title, exactly one attached file,
// and at most one folder. A document without an attached file is incomplete
// and is not listed on the portal.
type Document struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Title            string `gorm:"not null" json:"title"`
	Slug             string `gorm:"uniqueIndex" json:"slug"`
	Status           string `gorm:"default:private" json:"status"`
	FileAttachmentID *uuid.UUID `gorm:"type:uuid;index" json:"file_attachment_id"`
	FolderID         *uint      `json:"folder_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	// Soft delete is the trash: a trashed document keeps its file so it can
	// be restored. Permanent deletion goes through Unscoped.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	FileAttachment *Attachment `gorm:"foreignKey:FileAttachmentID" json:"file_attachment,omitempty"`
	Folder         *Folder     `gorm:"foreignKey:FolderID" json:"folder,omitempty"`
}
