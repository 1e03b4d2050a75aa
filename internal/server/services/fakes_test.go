package services

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	filesrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	foldersrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/folders"
	refreshrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/refreshtokens"
	sharesrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/sharelinks"
	usersrepo "github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// --- fake repositories ---

type fakeFolderRepo struct {
	folders   map[string]*models.Folder
	createErr error
	existsOut bool
	existsErr error
	deleteErr error
	deleted   []string
}

func newFakeFolderRepo(folders ...*models.Folder) *fakeFolderRepo {
	m := make(map[string]*models.Folder)
	for _, f := range folders {
		m[f.ID] = f
	}
	return &fakeFolderRepo{folders: m}
}

func (f *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	folder.ID = "new-folder"
	folder.CreatedAt = time.Now()
	folder.UpdatedAt = folder.CreatedAt
	f.folders[folder.ID] = folder
	return folder, nil
}

func (f *fakeFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return folder, nil
}

func (f *fakeFolderRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.FolderInfo, error) {
	var result []*models.FolderInfo
	for _, folder := range f.folders {
		if folder.OwnerID == ownerID {
			result = append(result, &models.FolderInfo{Folder: *folder})
		}
	}
	return result, nil
}

func (f *fakeFolderRepo) ExistsByName(ctx context.Context, ownerID, name, excludeID string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.existsOut, nil
}

func (f *fakeFolderRepo) UpdateName(ctx context.Context, id, name string) error {
	folder, ok := f.folders[id]
	if !ok {
		return common.ErrorNotFound
	}
	folder.Name = name
	return nil
}

func (f *fakeFolderRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.folders[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.folders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeFileRepo struct {
	files     map[string]*models.File
	byFolder  map[string][]*models.File
	createErr error
	created   []*models.File
	deleted   []string
}

func newFakeFileRepo(files ...*models.File) *fakeFileRepo {
	r := &fakeFileRepo{
		files:    make(map[string]*models.File),
		byFolder: make(map[string][]*models.File),
	}
	for _, f := range files {
		r.files[f.ID] = f
		r.byFolder[f.FolderID] = append(r.byFolder[f.FolderID], f)
	}
	return r
}

func (f *fakeFileRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	file.ID = "new-file"
	file.UploadedAt = time.Now()
	f.files[file.ID] = file
	f.byFolder[file.FolderID] = append(f.byFolder[file.FolderID], file)
	f.created = append(f.created, file)
	return file, nil
}

func (f *fakeFileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	file, ok := f.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

func (f *fakeFileRepo) ListByFolder(ctx context.Context, folderID string) ([]*models.File, error) {
	return f.byFolder[folderID], nil
}

func (f *fakeFileRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.files, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeShareRepo struct {
	links     map[string]*models.ShareLink
	createErr error
}

func newFakeShareRepo(links ...*models.ShareLink) *fakeShareRepo {
	m := make(map[string]*models.ShareLink)
	for _, l := range links {
		m[l.Token] = l
	}
	return &fakeShareRepo{links: m}
}

func (f *fakeShareRepo) Create(ctx context.Context, link *models.ShareLink) (*models.ShareLink, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	link.ID = "new-share"
	link.CreatedAt = time.Now()
	f.links[link.Token] = link
	return link, nil
}

func (f *fakeShareRepo) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	link, ok := f.links[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return link, nil
}

type fakeUserRepo struct {
	byEmail   map[string]*models.User
	createOut *models.User
	createErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "new-user"
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeRefreshRepo struct {
	findOut   *models.RefreshToken
	findErr   error
	delErr    error
	createErr error
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

// --- fake repository manager ---

type fakeRepoManager struct {
	folders *fakeFolderRepo
	files   *fakeFileRepo
	shares  *fakeShareRepo
	users   *fakeUserRepo
	tokens  *fakeRefreshRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error {
	return nil
}

func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository {
	return m.users
}

func (m *fakeRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository {
	return m.folders
}

func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository {
	return m.files
}

func (m *fakeRepoManager) ShareLinks(db dbx.DBTX) sharesrepo.Repository {
	return m.shares
}

func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshrepo.Repository {
	return m.tokens
}

// --- fake blob store gateway ---

type fakeBlobstore struct {
	putCalls    int
	putErr      error
	lastPutKey  string
	lastPutType string

	removeCalls  int
	removedKeys  [][]string
	removeFailed []string
	removeErr    error

	signCalls int
	signErr   error
}

func (b *fakeBlobstore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	b.putCalls++
	b.lastPutKey = key
	b.lastPutType = contentType
	if b.putErr != nil {
		return b.putErr
	}
	_, _ = io.Copy(io.Discard, body)
	return nil
}

func (b *fakeBlobstore) RemoveMany(ctx context.Context, keys []string) ([]string, error) {
	b.removeCalls++
	b.removedKeys = append(b.removedKeys, keys)
	return b.removeFailed, b.removeErr
}

func (b *fakeBlobstore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	b.signCalls++
	if b.signErr != nil {
		return "", b.signErr
	}
	return "https://signed.example/" + key, nil
}

// --- misc helpers ---

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}

func (n nopLogger) With(args ...any) logging.Logger {
	return n
}
