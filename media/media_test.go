package media

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avand/docportal-backend/hooks"
	"github.com/avand/docportal-backend/initializers"
	"github.com/avand/docportal-backend/storage"
)

func newTestDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	prev := initializers.DB
	initializers.DB = db
	t.Cleanup(func() {
		initializers.DB = prev
		sqlDB.Close()
	})
	return mock
}

func setupFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	storage.Fs = fs
	t.Cleanup(func() { storage.Fs = afero.NewOsFs() })
	return fs
}

func resetHooks(t *testing.T) {
	t.Helper()
	hooks.Default = hooks.New()
	t.Cleanup(func() { hooks.Default = hooks.New() })
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct{ in, want string }{
		{"invoice.pdf", "invoice.pdf"},
		{"my report.pdf", "my-report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`..\..\boot.ini`, "boot.ini"},
		{"a/b/c.txt", "c.txt"},
		{"file..pdf", "file.pdf"},
		{"évil.pdf", "vil.pdf"},
		{" .hidden", "hidden"},
		{"$(rm -rf).sh", "rm--rf.sh"},
		{"...", ""},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestUploadDirDefaultsUnderWebRoot(t *testing.T) {
	resetHooks(t)
	t.Setenv("PUBLIC_DIR", "/srv/portal/public")

	dirs, err := UploadDir()
	require.NoError(t, err)

	now := time.Now()
	sub := fmt.Sprintf("/%04d/%02d", now.Year(), int(now.Month()))
	assert.Equal(t, filepath.Join("/srv/portal/public", "uploads", filepath.FromSlash(sub)), dirs.Path)
	assert.Equal(t, "/uploads"+sub, dirs.URL)
	assert.Equal(t, "/uploads", dirs.BaseURL)
}

func TestUploadDirFilterErrorAborts(t *testing.T) {
	resetHooks(t)
	guard := hooks.Default.ScopeUploadDir(func(hooks.UploadDirs) hooks.UploadDirs {
		return hooks.UploadDirs{Err: fmt.Errorf("no protected directory")}
	})
	defer guard.Release()

	_, err := UploadDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no protected directory")
}

func TestSaveUploadUnderScopedOverride(t *testing.T) {
	resetHooks(t)
	fs := setupFs(t)
	mock := newTestDB(t)
	t.Setenv("PUBLIC_DIR", "/srv/portal/public")

	const protected = "/srv/portal/documents"
	guard := hooks.Default.ScopeUploadDir(func(hooks.UploadDirs) hooks.UploadDirs {
		return hooks.UploadDirs{
			Path: protected, URL: "/documents",
			Basedir: protected, BaseURL: "/documents",
		}
	})
	defer guard.Release()

	mock.ExpectExec(`INSERT INTO "attachments"`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	parent := uint(7)
	att, err := SaveUpload(fileHeader(t, "Q3 invoice.pdf", []byte("%PDF-1.4\n%fake pdf body\n")), &parent)
	require.NoError(t, err)

	assert.Equal(t, "Q3-invoice.pdf", att.FileName)
	assert.Equal(t, "/documents/Q3-invoice.pdf", att.StoredURL)
	assert.Equal(t, "application/pdf", att.MimeType)
	require.NotNil(t, att.ParentID)
	assert.Equal(t, uint(7), *att.ParentID)

	ok, err := afero.Exists(fs, filepath.Join(protected, "Q3-invoice.pdf"))
	require.NoError(t, err)
	assert.True(t, ok, "file must land in the override's directory")

	public, err := afero.DirExists(fs, "/srv/portal/public")
	require.NoError(t, err)
	assert.False(t, public, "nothing may be written under the web root")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUploadRejectsUnusableFilename(t *testing.T) {
	resetHooks(t)
	setupFs(t)

	_, err := SaveUpload(fileHeader(t, "...", []byte("x")), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable filename")
}

func TestSaveUploadRemovesFileWhenRecordFails(t *testing.T) {
	resetHooks(t)
	fs := setupFs(t)
	mock := newTestDB(t)
	t.Setenv("PUBLIC_DIR", "/srv/portal/public")

	guard := hooks.Default.ScopeUploadDir(func(hooks.UploadDirs) hooks.UploadDirs {
		return hooks.UploadDirs{Path: "/srv/portal/documents", URL: "/documents", Basedir: "/srv/portal/documents", BaseURL: "/documents"}
	})
	defer guard.Release()

	mock.ExpectExec(`INSERT INTO "attachments"`).
		WillReturnError(fmt.Errorf("connection reset"))

	_, err := SaveUpload(fileHeader(t, "a.pdf", []byte("%PDF-1.4\n")), nil)
	require.Error(t, err)

	ok, _ := afero.Exists(fs, "/srv/portal/documents/a.pdf")
	assert.False(t, ok, "orphaned file must not survive a failed insert")
}

func TestAttachedFileFollowsUploadDirResolution(t *testing.T) {
	resetHooks(t)
	mock := newTestDB(t)
	t.Setenv("PUBLIC_DIR", "/srv/portal/public")

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "file_name", "mime_type", "file_size", "stored_url", "parent_id", "created_at"}).
		AddRow(id.String(), "invoice.pdf", "application/pdf", 12, "/documents/invoice.pdf", nil, time.Now())
	mock.ExpectQuery(`SELECT \* FROM "attachments" WHERE id = \$1`).WillReturnRows(rows)

	guard := hooks.Default.ScopeUploadDir(func(hooks.UploadDirs) hooks.UploadDirs {
		return hooks.UploadDirs{Path: "/srv/portal/documents", Basedir: "/srv/portal/documents"}
	})
	defer guard.Release()

	path, err := AttachedFile(id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/srv/portal/documents", "invoice.pdf"), path)
}

func TestDeleteAttachmentRunsRecordThenActionThenFile(t *testing.T) {
	resetHooks(t)
	fs := setupFs(t)
	mock := newTestDB(t)
	t.Setenv("PUBLIC_DIR", "/srv/portal/public")

	const protected = "/srv/portal/documents"
	require.NoError(t, afero.WriteFile(fs, filepath.Join(protected, "invoice.pdf"), []byte("%PDF-1.4\n"), 0o640))

	// The listener arms an override so the removal looks in the protected
	// directory, exactly the way the document layer does it.
	hooks.Default.SetAttachmentDeleted(func(_ uuid.UUID, _ string) func() {
		guard := hooks.Default.ScopeUploadDir(func(hooks.UploadDirs) hooks.UploadDirs {
			return hooks.UploadDirs{Path: protected, Basedir: protected}
		})
		return guard.Release
	})

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "file_name", "mime_type", "file_size", "stored_url", "parent_id", "created_at"}).
		AddRow(id.String(), "invoice.pdf", "application/pdf", 9, "/documents/invoice.pdf", nil, time.Now())
	mock.ExpectQuery(`SELECT \* FROM "attachments" WHERE id = \$1`).WillReturnRows(rows)
	mock.ExpectExec(`DELETE FROM "attachments"`).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, DeleteAttachment(id))

	ok, _ := afero.Exists(fs, filepath.Join(protected, "invoice.pdf"))
	assert.False(t, ok, "file must be removed from where the listener pointed")
	assert.False(t, hooks.Default.Active(hooks.UploadDir), "listener's override must be released")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLibraryAppliesQueryFilter(t *testing.T) {
	resetHooks(t)
	mock := newTestDB(t)

	excluded := uuid.New()
	kept := uuid.New()
	hooks.Default.SetMediaQuery(func(q *hooks.MediaLibraryQuery) {
		q.ExcludeIDs = append(q.ExcludeIDs, excluded)
	})

	mock.ExpectQuery(`SELECT \* FROM "attachments" WHERE id NOT IN \(\$1\) ORDER BY created_at DESC`).
		WithArgs(excluded.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_name"}).AddRow(kept.String(), "photo.jpg"))

	atts, err := ListLibrary(nil)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, kept, atts[0].ID)
}

func TestDeleteAttachmentToleratesMissingFile(t *testing.T) {
	resetHooks(t)
	setupFs(t)
	mock := newTestDB(t)
	t.Setenv("PUBLIC_DIR", "/srv/portal/public")

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "file_name", "mime_type", "file_size", "stored_url", "parent_id", "created_at"}).
		AddRow(id.String(), "gone.pdf", "application/pdf", 9, "/uploads/gone.pdf", nil, time.Now())
	mock.ExpectQuery(`SELECT \* FROM "attachments" WHERE id = \$1`).WillReturnRows(rows)
	mock.ExpectExec(`DELETE FROM "attachments"`).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, DeleteAttachment(id))
}
