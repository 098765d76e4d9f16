package jobs

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/avand/docportal-backend/docfiles"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
)

// StartCleanupJob schedules the hourly orphaned-file sweep. Files can end up
// in the protected directory with no document referencing them (abandoned
// bulk uploads, partial deletion failures); there is no efficient way to
// catch every disassociation at the moment it happens, so a periodic sweep
// reconciles instead.
func StartCleanupJob() {
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for range ticker.C {
			DeleteOrphanedFiles()
		}
	}()
}

// DeleteOrphanedFiles deletes attachments stored under the documents route
// that no document owns. Ownership mirrors the association check: either a
// document's file reference or a parent reference to a document that still
// exists, trashed documents included. A parent reference to a hard-deleted
// document does not protect the attachment; that is exactly the orphan this
// sweep is for.
func DeleteOrphanedFiles() {
	referenced := initializers.DB.Model(&models.Document{}).Unscoped().
		Select("file_attachment_id").
		Where("file_attachment_id IS NOT NULL")
	parents := initializers.DB.Model(&models.Document{}).Unscoped().
		Select("id")

	var orphans []models.Attachment
	err := initializers.DB.
		Where("stored_url LIKE ?", docfiles.RouteBase+"/%").
		Where("(parent_id IS NULL OR parent_id NOT IN (?))", parents).
		Where("id NOT IN (?)", referenced).
		Find(&orphans).Error
	if err != nil {
		log.Error("cleanup: finding orphaned attachments", "err", err)
		return
	}
	if len(orphans) == 0 {
		return
	}

	var deleted, failed int
	for _, att := range orphans {
		if err := docfiles.DeleteFile(att.ID); err != nil {
			failed++
			log.Error("cleanup: could not delete orphaned file",
				"attachment", att.ID, "file", att.FileName, "err", err)
			continue
		}
		deleted++
	}
	log.Info("cleanup sweep finished", "orphans", len(orphans), "deleted", deleted, "failed", failed)
}
