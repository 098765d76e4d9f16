package docfiles

import (
	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
)

// FileField reads a document's file-field value the way template consumers
// get it: the stored attachment data, run through the platform's URL
// extension point and then post-processed by FormatCustomURL. Nil when the
// document has no file yet.
func FileField(doc *models.Document) *FileFieldValue {
	if doc == nil || doc.FileAttachmentID == nil {
		return nil
	}
	var att models.Attachment
	if err := initializers.DB.First(&att, "id = ?", *doc.FileAttachmentID).Error; err != nil {
		return nil
	}
	value := &FileFieldValue{
		AttachmentID: att.ID,
		FileName:     att.FileName,
		URL:          hooks.Default.ApplyAttachmentURL(att.StoredURL, att.ID),
	}
	return FormatCustomURL(value, doc.ID)
}

// FileURL returns the servable URL for a document's file, or "" when the
// document has no file yet (incomplete documents are not shown to users).
func FileURL(doc *models.Document) string {
	value := FileField(doc)
	if value == nil {
		return ""
	}
	return value.URL
}

// DocumentEntry is one portal listing row: the document plus its resolved
// file-field value and serving URL.
type DocumentEntry struct {
	Document models.Document `json:"document"`
	File     *FileFieldValue `json:"file,omitempty"`
	URL      string          `json:"url"`
}

// FolderGroup is a folder with its documents and (for top-level folders) its
// subfolders, ready for template rendering.
type FolderGroup struct {
	Folder     models.Folder   `json:"folder"`
	Name       string          `json:"name"`
	Documents  []DocumentEntry `json:"documents"`
	Subfolders []FolderGroup   `json:"subfolders,omitempty"`
}

// FolderListing builds the grouped portal listing: folders in prefix order
// (prefix overrides alphabetical everywhere folders are listed), one level
// of subfolders, documents grouped per folder. Only complete documents are
// included.
func FolderListing() ([]FolderGroup, error) {
	var folders []models.Folder
	if err := initializers.DB.Order("prefix, name").Find(&folders).Error; err != nil {
		return nil, err
	}

	groupFor := func(f models.Folder) (FolderGroup, error) {
		var docs []models.Document
		err := initializers.DB.
			Where("folder_id = ?", f.ID).
			Where("file_attachment_id IS NOT NULL").
			Order("title").
			Find(&docs).Error
		if err != nil {
			return FolderGroup{}, err
		}
		g := FolderGroup{Folder: f, Name: f.DisplayName()}
		for _, d := range docs {
			doc := d
			entry := DocumentEntry{Document: doc}
			if file := FileField(&doc); file != nil {
				entry.File = file
				entry.URL = file.URL
			}
			g.Documents = append(g.Documents, entry)
		}
		return g, nil
	}

	var top []FolderGroup
	for _, f := range folders {
		if f.ParentID != nil {
			continue
		}
		g, err := groupFor(f)
		if err != nil {
			return nil, err
		}
		for _, sub := range folders {
			if sub.ParentID == nil || *sub.ParentID != f.ID {
				continue
			}
			sg, err := groupFor(sub)
			if err != nil {
				return nil, err
			}
			g.Subfolders = append(g.Subfolders, sg)
		}
		top = append(top, g)
	}
	return top, nil
}
