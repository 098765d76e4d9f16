package docfiles

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/afero"

	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/media"
	"github.com/avand/docportal-backend/models"
	"github.com/avand/docportal-backend/storage"
)

// SaveDocument persists doc and, when the attached-file reference actually
// changed, deletes the previously attached file. The comparison against the
// value read at save time is what prevents deleting a file still in use; the
// window between read and delete is accepted (last write wins, see the
// cleanup sweep for reconciliation).
func SaveDocument(doc *models.Document) error {
	var prevID *uuid.UUID
	if doc.ID != 0 {
		var prev models.Document
		if err := initializers.DB.Unscoped().Select("file_attachment_id").First(&prev, doc.ID).Error; err == nil {
			prevID = prev.FileAttachmentID
		}
	}

	if err := initializers.DB.Save(doc).Error; err != nil {
		return err
	}

	if prevID != nil && (doc.FileAttachmentID == nil || *doc.FileAttachmentID != *prevID) {
		if err := DeleteFile(*prevID); err != nil {
			// Best effort: the save succeeded, the orphan sweep reconciles.
			log.Error("replacing document file: old file not fully removed",
				"document", doc.ID, "attachment", *prevID, "err", err)
		}
	}
	return nil
}

// DeleteDocument trashes a document, or permanently deletes it together with
// its attached file. Trashed documents keep their file so admins can restore
// them without losing anything.
func DeleteDocument(id uint, permanent bool) error {
	var doc models.Document
	if err := initializers.DB.Unscoped().First(&doc, id).Error; err != nil {
		return err
	}

	if !permanent {
		return initializers.DB.Delete(&models.Document{}, id).Error
	}

	if doc.FileAttachmentID != nil {
		if err := DeleteFile(*doc.FileAttachmentID); err != nil {
			log.Error("permanent delete: document file not fully removed",
				"document", id, "attachment", *doc.FileAttachmentID, "err", err)
		}
	}
	return initializers.DB.Unscoped().Delete(&models.Document{}, id).Error
}

// DeleteFile removes an attachment and its physical file, clearing any
// document references to it first. This is the primitive shared with the
// scheduled cleanup sweep. File and metadata removal are not transactional;
// a partial failure is logged by callers and reconciled out of band.
func DeleteFile(attachmentID uuid.UUID) error {
	guard := hooks.Default.ScopeUploadDir(RedirectToProtectedDir)
	defer guard.Release()

	if err := initializers.DB.Model(&models.Document{}).Unscoped().
		Where("file_attachment_id = ?", attachmentID).
		Update("file_attachment_id", nil).Error; err != nil {
		return err
	}
	return media.DeleteAttachment(attachmentID)
}

// armProtectedDirForFileRemoval handles attachments deleted through the
// generic media path rather than DeleteFile. It runs after the record is
// already gone, so deleting "properly" from here is impossible; the only
// remaining job is to make sure the platform's own file removal, which runs
// *after* this action and resolves the location through upload-directory
// resolution, looks in the protected directory. The override is armed here
// and released by the returned cleanup once the removal has run. This
// ordering is a contract with media.DeleteAttachment; reordering the steps
// there breaks the lookup silently.
func armProtectedDirForFileRemoval(attachmentID uuid.UUID, fileName string) func() {
	if !referencedByDocument(attachmentID) {
		// With the record gone the parent signal is unreadable, so fall back
		// to checking where the file actually lives.
		p := filepath.Join(storage.Dir(), fileName)
		if ok, err := afero.Exists(storage.Fs, p); err != nil || !ok {
			return nil
		}
	}
	guard := hooks.Default.ScopeUploadDir(RedirectToProtectedDir)
	return guard.Release
}

// CreateDocumentsFromUploads turns already-uploaded files into one private
// document each, optionally filed into a folder. This is the bulk-upload
// completion step: the files exist and have attachment records by the time
// it runs.
func CreateDocumentsFromUploads(attachmentIDs []uuid.UUID, folderID *uint) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(attachmentIDs))
	for _, id := range attachmentIDs {
		var att models.Attachment
		if err := initializers.DB.First(&att, "id = ?", id).Error; err != nil {
			return docs, err
		}

		attID := id
		doc := models.Document{
			Title:            att.FileName,
			Slug:             NewSlug(att.FileName),
			Status:           models.DocumentStatusPrivate,
			FileAttachmentID: &attID,
			FolderID:         folderID,
		}
		if err := initializers.DB.Create(&doc).Error; err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// NewSlug derives a URL slug from a filename, suffixed so collisions between
// same-named files in different folders cannot happen.
func NewSlug(fileName string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	base = strings.ToLower(media.SanitizeFilename(base))
	if base == "" {
		base = "document"
	}
	return base + "-" + strings.ToLower(shortuuid.New()[:8])
}
