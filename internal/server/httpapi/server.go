// Package httpapi exposes the storage core over a JSON/HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/services"
)

// UserProvider is the identity surface: registration and token issuance.
type UserProvider interface {
	Register(ctx context.Context, email, password, name string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

// FolderProvider covers the folder lifecycle for an authenticated principal.
type FolderProvider interface {
	Create(ctx context.Context, principalID, name string) (*models.Folder, error)
	List(ctx context.Context, principalID string) ([]*models.FolderInfo, error)
	View(ctx context.Context, principalID, folderID string) (*services.FolderView, error)
	Update(ctx context.Context, principalID, folderID, newName string) (*models.Folder, error)
	Delete(ctx context.Context, principalID, folderID string) error
}

// FileProvider covers upload, download and removal of individual files.
type FileProvider interface {
	Upload(ctx context.Context, principalID, folderID string, up *services.Upload) (*models.File, error)
	Download(ctx context.Context, principalID, fileID string) (string, error)
	Delete(ctx context.Context, principalID, fileID string) error
}

// ShareProvider covers share-link creation and the anonymous read surface.
type ShareProvider interface {
	Create(ctx context.Context, principalID, folderID string, durationDays int) (*models.ShareLink, error)
	View(ctx context.Context, token string) (*services.ShareView, error)
	DownloadFile(ctx context.Context, token, fileID string) (string, error)
}

type Server struct {
	addr           string
	jwtSecret      []byte
	tempDir        string
	maxUploadBytes int64
	logger         logging.Logger

	users   UserProvider
	folders FolderProvider
	files   FileProvider
	shares  ShareProvider
}

func NewServer(cfg *config.Config, logger logging.Logger,
	users UserProvider, folders FolderProvider, files FileProvider, shares ShareProvider) *Server {
	return &Server{
		addr:           cfg.EndpointAddr,
		jwtSecret:      []byte(cfg.SecretKey),
		tempDir:        cfg.TempDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		logger:         logger,
		users:          users,
		folders:        folders,
		files:          files,
		shares:         shares,
	}
}

// Router assembles the gin engine with all middleware and routes. Split out
// from Run so handler tests can drive it through httptest.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(metricsMiddleware())

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := router.Group("/auth")
	{
		auth.POST("/register", s.handleRegister)
		auth.POST("/login", s.handleLogin)
		auth.POST("/refresh", s.handleRefresh)
	}

	api := router.Group("/", s.authRequired())
	{
		api.GET("/folders", s.handleFolderList)
		api.POST("/folders", s.handleFolderCreate)
		api.GET("/folders/:id", s.handleFolderView)
		api.PUT("/folders/:id", s.handleFolderUpdate)
		api.DELETE("/folders/:id", s.handleFolderDelete)

		api.POST("/folders/:id/files", s.handleFileUpload)
		api.POST("/folders/:id/share", s.handleShareCreate)

		api.GET("/files/:id/download", s.handleFileDownload)
		api.DELETE("/files/:id", s.handleFileDelete)
	}

	share := router.Group("/share")
	{
		share.GET("/:token", s.handleShareView)
		share.GET("/:token/files/:fileId", s.handleShareDownload)
	}

	return router
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server starting", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
