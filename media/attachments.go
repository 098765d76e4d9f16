package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
	"github.com/avand/docportal-backend/storage"
)

// AttachmentURL returns the externally visible URL for an attachment. The
// stored URL is only a starting point: the AttachmentURL filter gets the
// final say, because the true location is governed by where uploads were
// redirected at the time, not by what was recorded.
func AttachmentURL(id uuid.UUID) (string, error) {
	var att models.Attachment
	if err := initializers.DB.First(&att, "id = ?", id).Error; err != nil {
		return "", err
	}
	return hooks.Default.ApplyAttachmentURL(att.StoredURL, id), nil
}

// AttachedFile returns the absolute filesystem path of an attachment's file.
// The default assumes the public uploads tree; note that it consults
// upload-directory resolution, so a scoped UploadDir override changes the
// answer here too.
func AttachedFile(id uuid.UUID) (string, error) {
	var att models.Attachment
	if err := initializers.DB.First(&att, "id = ?", id).Error; err != nil {
		return "", err
	}
	dirs, err := UploadDir()
	if err != nil {
		return "", err
	}
	def := filepath.Join(dirs.Basedir, att.FileName)
	return hooks.Default.ApplyAttachmentPath(def, id), nil
}

// DeleteAttachment removes the attachment record and then its physical file.
//
// Ordering contract: the record is deleted first, then the AttachmentDeleted
// action fires, and only after that is the file removed using the current
// upload-directory resolution. A listener that needs the removal to look
// somewhere non-default must arm an UploadDir override inside the action and
// release it via the returned cleanup; by the time the action runs the
// record is gone, so nothing else can tell the removal where to look. Do not
// reorder these steps.
func DeleteAttachment(id uuid.UUID) error {
	var att models.Attachment
	if err := initializers.DB.First(&att, "id = ?", id).Error; err != nil {
		return err
	}
	if err := initializers.DB.Delete(&models.Attachment{}, "id = ?", id).Error; err != nil {
		return err
	}

	cleanup := hooks.Default.FireAttachmentDeleted(id, att.FileName)
	defer cleanup()

	dirs, err := UploadDir()
	if err != nil {
		return fmt.Errorf("attachment %s record deleted but its location could not be resolved: %w", id, err)
	}
	path := filepath.Join(dirs.Basedir, att.FileName)
	if err := storage.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("attachment %s record deleted but file removal failed: %w", id, err)
	}
	return nil
}
