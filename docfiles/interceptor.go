// Package docfiles is the document-portal layer over the generic media core:
// it intercepts uploads into the protected directory, rewrites every URL or
// path computed for a document's file, keeps document files out of the media
// library, and couples file deletion to the document lifecycle.
package docfiles

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/storage"
)

// RouteBase is the serving route document files are exposed under.
const RouteBase = "/documents"

// InterceptUpload arms the upload-directory override for the save operation
// about to run, so files from the document upload fields land in the
// protected directory. The caller owns the guard and must release it as soon
// as the operation finishes: left armed, it would redirect unrelated uploads
// into the protected directory.
func InterceptUpload() *hooks.Guard {
	return hooks.Default.ScopeUploadDir(RedirectToProtectedDir)
}

// RedirectToProtectedDir overrides upload-directory resolution to point at
// the protected directory and the serving route. If the directory does not
// exist the resolution fails fast rather than letting a file land somewhere
// default and wrong.
func RedirectToProtectedDir(hooks.UploadDirs) hooks.UploadDirs {
	dir := storage.Dir()
	if dir == "" {
		return hooks.UploadDirs{Err: fmt.Errorf("document portal protected directory is not configured; was the portal activated?")}
	}
	if ok, err := afero.DirExists(storage.Fs, dir); err != nil || !ok {
		return hooks.UploadDirs{Err: fmt.Errorf("directory for document portal expected at %q does not exist", dir)}
	}

	return hooks.UploadDirs{
		Path:    dir,
		URL:     RouteBase,
		Subdir:  "",
		Basedir: dir,
		BaseURL: RouteBase,
	}
}
