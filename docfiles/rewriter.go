package docfiles

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
	"github.com/avand/docportal-backend/storage"
)

// RegisterFilters installs the persistent rewrites on the platform's
// extension points. Called once at boot; the UploadDir slot is deliberately
// not set here, it is only ever armed per operation.
func RegisterFilters() {
	hooks.Default.SetAttachmentURL(PersistCustomURL)
	hooks.Default.SetAttachmentPath(PersistCustomPath)
	hooks.Default.SetMediaQuery(FilterMediaLibrary)
	hooks.Default.SetAttachmentDeleted(armProtectedDirForFileRemoval)
}

// FileFieldValue is a just-read file-field value as handed to templates.
type FileFieldValue struct {
	AttachmentID uuid.UUID `json:"attachment_id"`
	FileName     string    `json:"file_name"`
	URL          string    `json:"url"`
}

// FormatCustomURL post-processes a document's file-field value so its URL
// points under the serving route. Values that already do pass through
// untouched.
func FormatCustomURL(value *FileFieldValue, documentID uint) *FileFieldValue {
	if value == nil || !documentExists(documentID) {
		return value
	}
	if value.URL != "" && !strings.Contains(value.URL, RouteBase+"/") {
		value.URL = RouteBase + "/" + path.Base(value.URL)
	}
	return value
}

// PersistCustomURL overrides the generic "public URL for attachment"
// computation for attachments that belong to a document. Idempotent: running
// it twice yields the same URL as once.
func PersistCustomURL(url string, attachmentID uuid.UUID) string {
	if !IsAttachedToDocument(attachmentID) {
		return url
	}
	if !strings.Contains(url, RouteBase+"/") {
		url = RouteBase + "/" + path.Base(url)
	}
	return url
}

// PersistCustomPath overrides the generic "absolute path for attachment"
// computation for attachments that belong to a document. The platform's own
// path resolution consults upload-directory resolution, so the override is
// scoped around this computation and released before returning.
func PersistCustomPath(p string, attachmentID uuid.UUID) string {
	if !IsAttachedToDocument(attachmentID) {
		return p
	}

	guard := hooks.Default.ScopeUploadDir(RedirectToProtectedDir)
	defer guard.Release()

	if !strings.Contains(filepath.ToSlash(p), RouteBase+"/") {
		p = filepath.Join(storage.Dir(), filepath.Base(p))
	}
	return p
}

// IsAttachedToDocument reports whether an attachment belongs to a document.
// Two independent signals are OR'd: the document-side file reference and the
// attachment's own parent reference. Different creation paths populate
// different signals, so both checks are load-bearing; dropping either would
// silently expose or break some files.
func IsAttachedToDocument(attachmentID uuid.UUID) bool {
	if referencedByDocument(attachmentID) {
		return true
	}

	var att models.Attachment
	err := initializers.DB.Select("parent_id").First(&att, "id = ?", attachmentID).Error
	if err != nil || att.ParentID == nil {
		return false
	}
	return documentExists(*att.ParentID)
}

// referencedByDocument is the document-side signal: some document's file
// reference equals this attachment id. Unscoped, because a trashed document
// still owns its file.
func referencedByDocument(attachmentID uuid.UUID) bool {
	var count int64
	err := initializers.DB.Model(&models.Document{}).Unscoped().
		Where("file_attachment_id = ?", attachmentID).
		Count(&count).Error
	return err == nil && count > 0
}

func documentExists(id uint) bool {
	var count int64
	err := initializers.DB.Model(&models.Document{}).Unscoped().
		Where("id = ?", id).
		Count(&count).Error
	return err == nil && count > 0
}

// FilterMediaLibrary keeps document files out of generic media library
// listings. The one exception: a query scoped to files uploaded to a
// specific document keeps the default behavior, so a document's edit screen
// still shows its own file.
func FilterMediaLibrary(q *hooks.MediaLibraryQuery) {
	if q.ParentID != nil && documentExists(*q.ParentID) {
		return
	}

	var ids []uuid.UUID
	err := initializers.DB.Model(&models.Document{}).Unscoped().
		Where("file_attachment_id IS NOT NULL").
		Pluck("file_attachment_id", &ids).Error
	if err != nil {
		log.Error("media library filter: listing document file ids", "err", err)
		return
	}
	q.ExcludeIDs = append(q.ExcludeIDs, ids...)
}
