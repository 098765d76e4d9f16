package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
)

// CreateFolder adds a folder or subfolder. Nesting is one level deep: a
// subfolder's parent must itself be a top-level folder.
func CreateFolder(c *gin.Context) {
	var body struct {
		Name     string `json:"name"`
		Prefix   string `json:"prefix"`
		ParentID *uint  `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if body.ParentID != nil {
		var parent models.Folder
		if err := initializers.DB.First(&parent, *body.ParentID).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parent folder not found"})
			return
		}
		if parent.ParentID != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Folders can only be nested one level deep"})
			return
		}
	}

	folder := models.Folder{
		Name:     body.Name,
		Slug:     folderSlug(body.Name),
		Prefix:   body.Prefix,
		ParentID: body.ParentID,
	}
	if err := initializers.DB.Create(&folder).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create folder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"folder": folder})
}

// ListFolders lists all folders in display order: prefix first, name as the
// tiebreaker, never plain alphabetical.
func ListFolders(c *gin.Context) {
	var folders []models.Folder
	if err := initializers.DB.Order("prefix, name").Find(&folders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch folders"})
		return
	}

	type entry struct {
		models.Folder
		DisplayName string `json:"display_name"`
	}
	out := make([]entry, 0, len(folders))
	for _, f := range folders {
		out = append(out, entry{Folder: f, DisplayName: f.DisplayName()})
	}
	c.JSON(http.StatusOK, gin.H{"folders": out})
}

// DeleteFolder removes a folder; its documents keep existing without a
// folder assignment, and its subfolders become top-level folders. Nothing
// may keep pointing at the deleted row, or the listing would silently drop
// it and everything filed under it.
func DeleteFolder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid folder id"})
		return
	}

	if err := initializers.DB.Model(&models.Document{}).
		Where("folder_id = ?", uint(id)).
		Update("folder_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach documents"})
		return
	}
	if err := initializers.DB.Model(&models.Folder{}).
		Where("parent_id = ?", uint(id)).
		Update("parent_id", nil).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to detach subfolders"})
		return
	}
	if err := initializers.DB.Delete(&models.Folder{}, uint(id)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func folderSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Join(strings.Fields(slug), "-")
	var b strings.Builder
	for _, r := range slug {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
