// Package media is the platform's generic uploaded-file layer: where uploads
// land, how attachments resolve to URLs and paths, and how the media library
// lists them. Every resolution consults the hooks registry, which is how the
// document-portal layer redirects files it owns.
package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"

	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/models"
	"github.com/avand/docportal-backend/storage"
)

// UploadDir resolves where uploads land right now. The defaults sit under
// the public web root in year/month subdirectories; a registered UploadDir
// filter can redirect the whole operation elsewhere. A filter error aborts
// the operation that asked.
func UploadDir() (hooks.UploadDirs, error) {
	now := time.Now()
	sub := fmt.Sprintf("/%04d/%02d", now.Year(), int(now.Month()))
	basedir := filepath.Join(storage.WebRoot(), "uploads")

	defaults := hooks.UploadDirs{
		Path:    filepath.Join(basedir, filepath.FromSlash(sub)),
		URL:     "/uploads" + sub,
		Subdir:  sub,
		Basedir: basedir,
		BaseURL: "/uploads",
	}

	dirs := hooks.Default.ApplyUploadDir(defaults)
	if dirs.Err != nil {
		return hooks.UploadDirs{}, dirs.Err
	}
	return dirs, nil
}

// SanitizeFilename reduces a client-supplied name to a safe, flat filename:
// no path separators, no traversal, no control or shell-special characters.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.ToSlash(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	out := b.String()
	for strings.Contains(out, "..") {
		out = strings.ReplaceAll(out, "..", ".")
	}
	return strings.Trim(out, ".-_")
}

// SaveUpload stores one uploaded file where the current upload-directory
// resolution says and records an attachment for it. parentID is the document
// the file was uploaded to from its edit screen, when known.
func SaveUpload(fh *multipart.FileHeader, parentID *uint) (*models.Attachment, error) {
	dirs, err := UploadDir()
	if err != nil {
		return nil, err
	}

	name := SanitizeFilename(fh.Filename)
	if name == "" {
		return nil, fmt.Errorf("upload %q has no usable filename", fh.Filename)
	}

	if err := storage.Fs.MkdirAll(dirs.Path, 0o750); err != nil {
		return nil, fmt.Errorf("creating upload directory %q: %w", dirs.Path, err)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst := filepath.Join(dirs.Path, name)
	out, err := storage.Fs.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("creating %q: %w", dst, err)
	}
	written, err := io.Copy(out, src)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		storage.Fs.Remove(dst)
		return nil, fmt.Errorf("writing %q: %w", dst, err)
	}

	// Sniff the type from what was actually written, not the client's claim.
	f, err := storage.Fs.Open(dst)
	if err != nil {
		return nil, err
	}
	mtype, err := mimetype.DetectReader(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("detecting content type of %q: %w", dst, err)
	}

	att := &models.Attachment{
		FileName:  name,
		MimeType:  mtype.String(),
		FileSize:  written,
		StoredURL: strings.TrimSuffix(dirs.URL, "/") + "/" + name,
		ParentID:  parentID,
	}
	if err := initializers.DB.Create(att).Error; err != nil {
		storage.Fs.Remove(dst)
		return nil, fmt.Errorf("recording attachment for %q: %w", name, err)
	}
	return att, nil
}
