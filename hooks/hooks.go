// Package hooks is the platform's extension-point registry: a closed set of
// event kinds, each with a typed payload and return contract, instead of
// string-keyed dispatch. Filters can be registered persistently (Set*) or for
// the duration of one operation (Scope*, returning a Guard that must be
// released on every exit path).
package hooks

import (
	"sync"

	"github.com/google/uuid"
)

// Kind identifies an extension point. The set is closed; every kind has its
// own typed slot below.
type Kind int

const (
	UploadDir Kind = iota
	AttachmentURL
	AttachmentPath
	MediaQuery
	AttachmentDeleted
)

// UploadDirs is the result of upload-directory resolution. Path/Basedir are
// absolute filesystem locations, URL/BaseURL their externally visible
// counterparts. A filter that cannot produce a valid destination sets Err,
// which aborts the operation that asked.
type UploadDirs struct {
	Path    string
	URL     string
	Subdir  string
	Basedir string
	BaseURL string
	Err     error
}

// MediaLibraryQuery carries the mutable parts of a media-library listing
// query through the MediaQuery extension point.
type MediaLibraryQuery struct {
	ParentID   *uint
	ExcludeIDs []uuid.UUID
}

type (
	UploadDirFilter      func(UploadDirs) UploadDirs
	AttachmentURLFilter  func(url string, attachmentID uuid.UUID) string
	AttachmentPathFilter func(path string, attachmentID uuid.UUID) string
	MediaQueryFilter     func(q *MediaLibraryQuery)

	// AttachmentDeletedAction runs after an attachment record has been
	// deleted but before the platform removes the physical file. The
	// returned cleanup (may be nil) runs once the removal is done.
	AttachmentDeletedAction func(attachmentID uuid.UUID, fileName string) (cleanup func())
)

// Registry holds at most one registration per kind. Filters run outside the
// lock, so a filter may synchronously re-enter the registry (scope another
// override, apply another filter) without deadlocking.
type Registry struct {
	mu sync.Mutex

	uploadDir         UploadDirFilter
	attachmentURL     AttachmentURLFilter
	attachmentPath    AttachmentPathFilter
	mediaQuery        MediaQueryFilter
	attachmentDeleted AttachmentDeletedAction
}

func New() *Registry { return &Registry{} }

// Default is the process-wide registry, the analog of the platform's global
// filter table.
var Default = New()

// Guard is a scoped registration. Release restores whatever was registered
// before the scope began and is safe to call more than once. Always release
// on every exit path, including error returns and panics: a leaked guard
// redirects unrelated operations.
type Guard struct {
	once    sync.Once
	release func()
}

func (g *Guard) Release() {
	if g == nil {
		return
	}
	g.once.Do(g.release)
}

// ScopeUploadDir registers f until the returned guard is released, then
// restores the previous registration. Stack discipline: synchronously nested
// scopes unwind correctly as long as guards release in reverse order of
// acquisition (defer does this naturally).
func (r *Registry) ScopeUploadDir(f UploadDirFilter) *Guard {
	r.mu.Lock()
	prev := r.uploadDir
	r.uploadDir = f
	r.mu.Unlock()
	return &Guard{release: func() {
		r.mu.Lock()
		r.uploadDir = prev
		r.mu.Unlock()
	}}
}

func (r *Registry) SetAttachmentURL(f AttachmentURLFilter) {
	r.mu.Lock()
	r.attachmentURL = f
	r.mu.Unlock()
}

func (r *Registry) SetAttachmentPath(f AttachmentPathFilter) {
	r.mu.Lock()
	r.attachmentPath = f
	r.mu.Unlock()
}

func (r *Registry) SetMediaQuery(f MediaQueryFilter) {
	r.mu.Lock()
	r.mediaQuery = f
	r.mu.Unlock()
}

func (r *Registry) SetAttachmentDeleted(f AttachmentDeletedAction) {
	r.mu.Lock()
	r.attachmentDeleted = f
	r.mu.Unlock()
}

// Active reports whether anything is registered for the given kind.
func (r *Registry) Active(k Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch k {
	case UploadDir:
		return r.uploadDir != nil
	case AttachmentURL:
		return r.attachmentURL != nil
	case AttachmentPath:
		return r.attachmentPath != nil
	case MediaQuery:
		return r.mediaQuery != nil
	case AttachmentDeleted:
		return r.attachmentDeleted != nil
	}
	return false
}

// ApplyUploadDir runs the registered upload-directory filter, or returns the
// defaults untouched when none is registered.
func (r *Registry) ApplyUploadDir(defaults UploadDirs) UploadDirs {
	r.mu.Lock()
	f := r.uploadDir
	r.mu.Unlock()
	if f == nil {
		return defaults
	}
	return f(defaults)
}

func (r *Registry) ApplyAttachmentURL(url string, attachmentID uuid.UUID) string {
	r.mu.Lock()
	f := r.attachmentURL
	r.mu.Unlock()
	if f == nil {
		return url
	}
	return f(url, attachmentID)
}

func (r *Registry) ApplyAttachmentPath(path string, attachmentID uuid.UUID) string {
	r.mu.Lock()
	f := r.attachmentPath
	r.mu.Unlock()
	if f == nil {
		return path
	}
	return f(path, attachmentID)
}

func (r *Registry) ApplyMediaQuery(q *MediaLibraryQuery) {
	r.mu.Lock()
	f := r.mediaQuery
	r.mu.Unlock()
	if f != nil {
		f(q)
	}
}

// FireAttachmentDeleted invokes the registered action and always returns a
// usable cleanup func.
func (r *Registry) FireAttachmentDeleted(attachmentID uuid.UUID, fileName string) func() {
	r.mu.Lock()
	f := r.attachmentDeleted
	r.mu.Unlock()
	if f == nil {
		return func() {}
	}
	cleanup := f(attachmentID, fileName)
	if cleanup == nil {
		return func() {}
	}
	return cleanup
}
