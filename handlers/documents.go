package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/avand/docportal-backend/auth"
	"github.com/avand/docportal-backend/docfiles"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/media"
	"github.com/avand/docportal-backend/models"
	"github.com/avand/docportal-backend/storage"
)

// ServeDocument handles GET /documents/:token, where the token may be a raw
// filename, a numeric document ID, or a document slug. ID and slug access
// are convenience aliases that redirect to the canonical filename URL.
func ServeDocument(c *gin.Context) {
	token := c.Param("token")
	filename := filenameFromToken(token)

	// Canonicalization before anything else: /documents/42 and
	// /documents/<slug> permanently redirect to /documents/<filename>.
	if filename != token {
		c.Redirect(http.StatusMovedPermanently, docfiles.RouteBase+"/"+filename)
		return
	}

	user := auth.CurrentUser(c)

	// The read permission grants access outright. A same-origin referrer
	// lets logged-in users fetch resources embedded in pages that already
	// passed a page-level check; direct access always needs the permission.
	allowed := auth.UserCan(user, auth.CapReadDocuments) || (user != nil && isValidReferrer(c))
	if !allowed {
		if user == nil {
			respondUnauthorized(c, http.StatusUnauthorized, "Please log in to access resources")
		} else {
			respondUnauthorized(c, http.StatusForbidden, "You do not have permission to access documents")
		}
		return
	}

	name := media.SanitizeFilename(filename)
	filePath := filepath.Join(storage.Dir(), name)
	info, err := storage.Fs.Stat(filePath)
	if err != nil {
		respondNotFound(c)
		return
	}

	// Certain portal page reloads resolve to the directory itself; serve
	// nothing rather than an error. Deliberately narrow, not a general
	// unknown-type policy.
	if info.IsDir() {
		c.Status(http.StatusOK)
		return
	}

	f, err := storage.Fs.Open(filePath)
	if err != nil {
		respondNotFound(c)
		return
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		log.Error("detecting document content type", "file", name, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read file"})
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read file"})
		return
	}

	contentType := mtype.String()
	c.Header("Content-Type", contentType)
	c.Header("Content-Description", "File Transfer")

	// PDFs and images render in the browser's own viewer; everything else
	// is a forced download with caching disabled.
	if mtype.Is("application/pdf") || strings.HasPrefix(contentType, "image/") {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
		c.Header("Cache-Control", "must-revalidate")
	} else {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
		c.Header("Cache-Control", "must-revalidate, no-store")
		c.Header("Pragma", "public")
		c.Header("Expires", "0")
	}

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, f); err != nil {
		log.Error("streaming document", "file", name, "err", err)
		return
	}
	log.Info("served document", "file", name, "type", contentType, "ip", c.ClientIP())
}

// filenameFromToken resolves an ID or slug token to the linked attachment's
// real filename via the rewriter's path logic; anything that resolves to no
// document is taken as a literal filename.
func filenameFromToken(token string) string {
	var doc models.Document
	if id, err := strconv.ParseUint(token, 10, 64); err == nil {
		if err := initializers.DB.First(&doc, uint(id)).Error; err != nil {
			return token
		}
	} else if err := initializers.DB.First(&doc, "slug = ?", token).Error; err != nil {
		return token
	}

	if doc.FileAttachmentID == nil {
		return token
	}
	p, err := media.AttachedFile(*doc.FileAttachmentID)
	if err != nil {
		return token
	}
	return filepath.Base(p)
}

// isValidReferrer reports whether the request carries a referrer that is a
// well-formed URL on this site. Both halves matter: a malformed referrer or
// a foreign origin each fail the check.
func isValidReferrer(c *gin.Context) bool {
	ref := c.GetHeader("Referer")
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	site, err := url.Parse(siteURL())
	if err != nil {
		return false
	}
	return u.Scheme == site.Scheme && strings.EqualFold(u.Host, site.Host)
}

// isBrowserRequest decides between redirecting to a human-readable page and
// returning a structured JSON error. Accept header first, user-agent
// substring fallback. Single predicate shared by every error branch.
func isBrowserRequest(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		return true
	}
	ua := strings.ToLower(c.GetHeader("User-Agent"))
	for _, engine := range []string{"mozilla", "chrome", "safari", "firefox", "edge"} {
		if strings.Contains(ua, engine) {
			return true
		}
	}
	return false
}

func respondUnauthorized(c *gin.Context, status int, message string) {
	if isBrowserRequest(c) {
		c.Redirect(http.StatusFound, portalLoginPath())
		return
	}
	c.JSON(status, gin.H{"error": message})
}

func respondNotFound(c *gin.Context) {
	if isBrowserRequest(c) {
		c.Redirect(http.StatusFound, "/404")
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
}

func siteURL() string {
	if v := os.Getenv("SITE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func portalLoginPath() string {
	if v := os.Getenv("PORTAL_LOGIN_PATH"); v != "" {
		return v
	}
	return "/portal"
}
