package media

import (
	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
)

// ListLibrary returns attachments for the media library. parentID scopes the
// listing to files uploaded to one document. The query runs through the
// MediaQuery extension point first, which is how document files are kept out
// of generic listings.
func ListLibrary(parentID *uint) ([]models.Attachment, error) {
	q := &hooks.MediaLibraryQuery{ParentID: parentID}
	hooks.Default.ApplyMediaQuery(q)

	tx := initializers.DB.Order("created_at DESC")
	if q.ParentID != nil {
		tx = tx.Where("parent_id = ?", *q.ParentID)
	}
	if len(q.ExcludeIDs) > 0 {
		tx = tx.Where("id NOT IN ?", q.ExcludeIDs)
	}

	var atts []models.Attachment
	return atts, tx.Find(&atts).Error
}
