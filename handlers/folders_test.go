package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteFolderDetachesDocumentsAndSubfolders(t *testing.T) {
	mock := newTestDB(t)

	mock.ExpectExec(`UPDATE "documents" SET "folder_id"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE "folders" SET "parent_id"=\$1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "folders"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := gin.New()
	r.DELETE("/api/folders/:id", DeleteFolder)

	req := httptest.NewRequest(http.MethodDelete, "/api/folders/3", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet(),
		"subfolders must be promoted before the folder row goes away")
}

func TestFolderSlug(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Invoices", "invoices"},
		{"  Board  Minutes ", "board-minutes"},
		{"Q3 2026 (final)", "q3-2026-final"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, folderSlug(tc.in), "input %q", tc.in)
	}
}
