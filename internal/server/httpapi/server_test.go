package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

const testSecret = "test-secret"

// --- fake providers ---

type fakeUsers struct {
	registerOut *models.User
	registerErr error
	loginOut    *services.TokenPair
	loginErr    error
	refreshOut  *services.TokenPair
	refreshErr  error
}

func (f *fakeUsers) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	return f.registerOut, f.registerErr
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.loginOut, f.loginErr
}

func (f *fakeUsers) RefreshToken(ctx context.Context, token string) (*services.TokenPair, error) {
	return f.refreshOut, f.refreshErr
}

type fakeFolders struct {
	createOut *models.Folder
	createErr error
	listOut   []*models.FolderInfo
	listErr   error
	viewOut   *services.FolderView
	viewErr   error
	updateOut *models.Folder
	updateErr error
	deleteErr error

	lastPrincipal string
	lastName      string
}

func (f *fakeFolders) Create(ctx context.Context, principalID, name string) (*models.Folder, error) {
	f.lastPrincipal, f.lastName = principalID, name
	return f.createOut, f.createErr
}

func (f *fakeFolders) List(ctx context.Context, principalID string) ([]*models.FolderInfo, error) {
	f.lastPrincipal = principalID
	return f.listOut, f.listErr
}

func (f *fakeFolders) View(ctx context.Context, principalID, folderID string) (*services.FolderView, error) {
	return f.viewOut, f.viewErr
}

func (f *fakeFolders) Update(ctx context.Context, principalID, folderID, newName string) (*models.Folder, error) {
	f.lastName = newName
	return f.updateOut, f.updateErr
}

func (f *fakeFolders) Delete(ctx context.Context, principalID, folderID string) error {
	return f.deleteErr
}

type fakeFiles struct {
	uploadOut   *models.File
	uploadErr   error
	downloadOut string
	downloadErr error
	deleteErr   error

	lastUpload   *services.Upload
	lastFolderID string
	spoolExisted bool
}

func (f *fakeFiles) Upload(ctx context.Context, principalID, folderID string, up *services.Upload) (*models.File, error) {
	f.lastUpload, f.lastFolderID = up, folderID
	if _, err := os.Stat(up.TempPath); err == nil {
		f.spoolExisted = true
	}
	return f.uploadOut, f.uploadErr
}

func (f *fakeFiles) Download(ctx context.Context, principalID, fileID string) (string, error) {
	return f.downloadOut, f.downloadErr
}

func (f *fakeFiles) Delete(ctx context.Context, principalID, fileID string) error {
	return f.deleteErr
}

type fakeShares struct {
	createOut   *models.ShareLink
	createErr   error
	viewOut     *services.ShareView
	viewErr     error
	downloadOut string
	downloadErr error
}

func (f *fakeShares) Create(ctx context.Context, principalID, folderID string, days int) (*models.ShareLink, error) {
	return f.createOut, f.createErr
}

func (f *fakeShares) View(ctx context.Context, token string) (*services.ShareView, error) {
	return f.viewOut, f.viewErr
}

func (f *fakeShares) DownloadFile(ctx context.Context, token, fileID string) (string, error) {
	return f.downloadOut, f.downloadErr
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}

func (n nopLogger) With(args ...any) logging.Logger {
	return n
}

// --- helpers ---

type serverFakes struct {
	users   *fakeUsers
	folders *fakeFolders
	files   *fakeFiles
	shares  *fakeShares
}

func newTestServer(t *testing.T) (*Server, *serverFakes) {
	t.Helper()
	f := &serverFakes{
		users:   &fakeUsers{},
		folders: &fakeFolders{},
		files:   &fakeFiles{},
		shares:  &fakeShares{},
	}
	cfg := &config.Config{
		EndpointAddr:   "localhost:0",
		SecretKey:      testSecret,
		TempDir:        filepath.Join(t.TempDir(), "uploads_tmp"),
		MaxUploadBytes: 1 << 20,
	}
	return NewServer(cfg, nopLogger{}, f.users, f.folders, f.files, f.shares), f
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(testSecret), time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, s *Server, method, path, authHeader string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

// --- tests ---

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrorInvalidArgument, http.StatusBadRequest},
		{common.ErrorUnauthenticated, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusUnauthorized},
		{common.ErrRefreshTokenExpired, http.StatusUnauthorized},
		{common.ErrorForbidden, http.StatusForbidden},
		{common.ErrorNotFound, http.StatusNotFound},
		{common.ErrorFileNotInScope, http.StatusNotFound},
		{common.ErrorConflict, http.StatusConflict},
		{common.ErrorExpired, http.StatusGone},
		{common.ErrorPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{common.ErrorUnsupportedMediaType, http.StatusUnsupportedMediaType},
		{common.ErrorStorageUnavailable, http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFromError(tt.err))
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		s, _ := newTestServer(t)
		w := doJSON(t, s, http.MethodGet, "/folders", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		s, _ := newTestServer(t)
		w := doJSON(t, s, http.MethodGet, "/folders", "Bearer garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token reaches the handler with the principal set", func(t *testing.T) {
		s, f := newTestServer(t)
		w := doJSON(t, s, http.MethodGet, "/folders", bearerToken(t, "user1"), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user1", f.folders.lastPrincipal)
	})
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		s, f := newTestServer(t)
		f.users.registerOut = &models.User{ID: "u1", Email: "alice@example.com", Name: "Alice"}

		w := doJSON(t, s, http.MethodPost, "/auth/register",
			"", registerRequest{Email: "alice@example.com", Password: "password123", Name: "Alice"})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp userResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "u1", resp.ID)
		assert.NotContains(t, w.Body.String(), "PasswordHash")
	})

	t.Run("duplicate email", func(t *testing.T) {
		s, f := newTestServer(t)
		f.users.registerErr = common.ErrorConflict

		w := doJSON(t, s, http.MethodPost, "/auth/register",
			"", registerRequest{Email: "alice@example.com", Password: "password123"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		s, _ := newTestServer(t)
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	s, f := newTestServer(t)
	f.users.loginOut = &services.TokenPair{AccessToken: "at", RefreshToken: "rt"}

	w := doJSON(t, s, http.MethodPost, "/auth/login",
		"", loginRequest{Email: "alice@example.com", Password: "password123"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp tokenPairResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "at", resp.AccessToken)
	assert.Equal(t, "rt", resp.RefreshToken)
}

func TestFolderEndpoints(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		s, f := newTestServer(t)
		f.folders.createOut = &models.Folder{ID: "f1", Name: "Docs", OwnerID: "user1"}

		w := doJSON(t, s, http.MethodPost, "/folders",
			bearerToken(t, "user1"), folderRequest{Name: "Docs"})

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "Docs", f.folders.lastName)
	})

	t.Run("create conflict", func(t *testing.T) {
		s, f := newTestServer(t)
		f.folders.createErr = common.ErrorConflict

		w := doJSON(t, s, http.MethodPost, "/folders",
			bearerToken(t, "user1"), folderRequest{Name: "Docs"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("view forbidden", func(t *testing.T) {
		s, f := newTestServer(t)
		f.folders.viewErr = common.ErrorForbidden

		w := doJSON(t, s, http.MethodGet, "/folders/f1", bearerToken(t, "user2"), nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		s, _ := newTestServer(t)
		w := doJSON(t, s, http.MethodDelete, "/folders/f1", bearerToken(t, "user1"), nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}

func TestFileUploadEndpoint(t *testing.T) {
	newUploadRequest := func(t *testing.T, fileName, mimeType, content string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
		h.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())
		return &buf, mw.FormDataContentType()
	}

	t.Run("spools to temp and returns metadata", func(t *testing.T) {
		s, f := newTestServer(t)
		f.files.uploadOut = &models.File{ID: "a", FolderID: "f1", OriginalName: "report.pdf"}

		body, contentType := newUploadRequest(t, "report.pdf", "application/pdf", "content")
		req := httptest.NewRequest(http.MethodPost, "/folders/f1/files", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearerToken(t, "user1"))
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		require.NotNil(t, f.files.lastUpload)
		assert.Equal(t, "f1", f.files.lastFolderID)
		assert.Equal(t, "report.pdf", f.files.lastUpload.OriginalName)
		assert.Equal(t, "application/pdf", f.files.lastUpload.MimeType)
		assert.Equal(t, int64(len("content")), f.files.lastUpload.Size)
		assert.True(t, f.files.spoolExisted, "temp file must exist when the service is called")
	})

	t.Run("missing file part", func(t *testing.T) {
		s, _ := newTestServer(t)
		w := doJSON(t, s, http.MethodPost, "/folders/f1/files", bearerToken(t, "user1"), nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("service rejection is mapped", func(t *testing.T) {
		s, f := newTestServer(t)
		f.files.uploadErr = common.ErrorUnsupportedMediaType

		body, contentType := newUploadRequest(t, "evil.exe", "application/x-executable", "MZ")
		req := httptest.NewRequest(http.MethodPost, "/folders/f1/files", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", bearerToken(t, "user1"))
		w := httptest.NewRecorder()
		s.Router().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestFileDownloadEndpoint(t *testing.T) {
	t.Run("redirects to signed url", func(t *testing.T) {
		s, f := newTestServer(t)
		f.files.downloadOut = "https://signed.example/user1/f1/a.txt"

		w := doJSON(t, s, http.MethodGet, "/files/a/download", bearerToken(t, "user1"), nil)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://signed.example/user1/f1/a.txt", w.Header().Get("Location"))
	})

	t.Run("storage outage", func(t *testing.T) {
		s, f := newTestServer(t)
		f.files.downloadErr = common.ErrorStorageUnavailable

		w := doJSON(t, s, http.MethodGet, "/files/a/download", bearerToken(t, "user1"), nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestShareEndpoints(t *testing.T) {
	t.Run("create link", func(t *testing.T) {
		s, f := newTestServer(t)
		f.shares.createOut = &models.ShareLink{Token: "tok", FolderID: "f1", ExpiresAt: time.Now().Add(24 * time.Hour)}

		w := doJSON(t, s, http.MethodPost, "/folders/f1/share",
			bearerToken(t, "user1"), shareCreateRequest{DurationDays: 1})

		require.Equal(t, http.StatusCreated, w.Code)

		var resp shareLinkResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "tok", resp.Token)
	})

	t.Run("anonymous view requires no auth", func(t *testing.T) {
		s, f := newTestServer(t)
		url := "https://signed.example/user1/f1/a.txt"
		f.shares.viewOut = &services.ShareView{
			Folder: &models.Folder{ID: "f1", Name: "Docs"},
			Files: []*services.SharedFile{
				{File: &models.File{ID: "a", FolderID: "f1", OriginalName: "a.txt"}, URL: &url},
				{File: &models.File{ID: "b", FolderID: "f1", OriginalName: "b.txt"}},
			},
		}

		w := doJSON(t, s, http.MethodGet, "/share/tok", "", nil)

		require.Equal(t, http.StatusOK, w.Code)

		var resp shareViewResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Docs", resp.FolderName)
		require.Len(t, resp.Files, 2)
		require.NotNil(t, resp.Files[0].URL)
		assert.Nil(t, resp.Files[1].URL)
	})

	t.Run("expired link", func(t *testing.T) {
		s, f := newTestServer(t)
		f.shares.viewErr = common.ErrorExpired

		w := doJSON(t, s, http.MethodGet, "/share/tok", "", nil)
		assert.Equal(t, http.StatusGone, w.Code)
	})

	t.Run("file outside share scope", func(t *testing.T) {
		s, f := newTestServer(t)
		f.shares.downloadErr = common.ErrorFileNotInScope

		w := doJSON(t, s, http.MethodGet, "/share/tok/files/x", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("share file download redirects", func(t *testing.T) {
		s, f := newTestServer(t)
		f.shares.downloadOut = "https://signed.example/user1/f1/a.txt"

		w := doJSON(t, s, http.MethodGet, "/share/tok/files/a", "", nil)
		assert.Equal(t, http.StatusFound, w.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
