package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attachment is the platform's generic uploaded-file record. Its true on-disk
// location is derivable only from the current upload-directory resolution and
// the filename; StoredURL is what was computed at upload time and is never
// trusted for serving document files.
type Attachment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FileName  string    `gorm:"not null" json:"file_name"`
	MimeType  string    `json:"mime_type"`
	FileSize  int64     `json:"file_size"`
	StoredURL string    `json:"stored_url"`
	// ParentID is set when the file was uploaded from a document's edit
	// screen. It is one of two independent ownership signals; the other is
	// Document.FileAttachmentID.
	ParentID  *uint     `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Parent *Document `gorm:"foreignKey:ParentID" json:"-"`
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
