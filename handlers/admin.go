package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avand/docportal-backend/docfiles"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/media"
	"github.com/avand/docportal-backend/models"
)

// CreateDocument handles the single-file upload field: the document record
// is created first so the upload can be parented to it, the file lands in
// the protected directory, then the file reference is saved.
func CreateDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = media.SanitizeFilename(fh.Filename)
	}
	doc := models.Document{
		Title:    title,
		Slug:     docfiles.NewSlug(fh.Filename),
		Status:   models.DocumentStatusPrivate,
		FolderID: folderIDFromForm(c),
	}
	if err := docfiles.SaveDocument(&doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create document"})
		return
	}

	guard := docfiles.InterceptUpload()
	defer guard.Release()

	att, err := media.SaveUpload(fh, &doc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	doc.FileAttachmentID = &att.ID
	if err := docfiles.SaveDocument(&doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"document": doc, "url": docfiles.FileURL(&doc)})
}

// BulkUploadDocuments handles the bulk/gallery field: every file in the form
// becomes its own private document, optionally filed into one folder.
func BulkUploadDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	// The override covers the uploads only; document creation below works
	// on records and must not run with it armed.
	guard := docfiles.InterceptUpload()
	var attachmentIDs []uuid.UUID
	for _, fh := range files {
		att, err := media.SaveUpload(fh, nil)
		if err != nil {
			guard.Release()
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "uploaded": attachmentIDs})
			return
		}
		attachmentIDs = append(attachmentIDs, att.ID)
	}
	guard.Release()

	docs, err := docfiles.CreateDocumentsFromUploads(attachmentIDs, folderIDFromForm(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "documents": docs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// ListDocuments returns the grouped portal listing.
func ListDocuments(c *gin.Context) {
	groups, err := docfiles.FolderListing()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build listing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folders": groups})
}

// UpdateDocument renames, re-files, or replaces the file of a document.
// Replacing the file deletes the previous one (SaveDocument's coupling).
func UpdateDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}
	var doc models.Document
	if err := initializers.DB.First(&doc, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	if title := c.PostForm("title"); title != "" {
		doc.Title = title
	}
	if folderID := folderIDFromForm(c); folderID != nil {
		doc.FolderID = folderID
	}

	if fh, err := c.FormFile("file"); err == nil {
		guard := docfiles.InterceptUpload()
		att, err := media.SaveUpload(fh, &doc.ID)
		guard.Release()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		doc.FileAttachmentID = &att.ID
	}

	if err := docfiles.SaveDocument(&doc); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save document"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"document": doc, "url": docfiles.FileURL(&doc)})
}

// DeleteDocument trashes a document, or with ?permanent=1 deletes it and its
// file for good.
func DeleteDocument(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document id"})
		return
	}
	permanent := c.Query("permanent") == "1"
	if err := docfiles.DeleteDocument(uint(id), permanent); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "permanent": permanent})
}

// ListMedia is the media library listing; document files are filtered out
// unless the query is scoped to one document's uploads.
func ListMedia(c *gin.Context) {
	var parentID *uint
	if p := c.Query("parent"); p != "" {
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parent id"})
			return
		}
		u := uint(id)
		parentID = &u
	}

	atts, err := media.ListLibrary(parentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch media"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"attachments": atts})
}

func folderIDFromForm(c *gin.Context) *uint {
	v := c.PostForm("folder_id")
	if v == "" {
		return nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil
	}
	u := uint(id)
	return &u
}
