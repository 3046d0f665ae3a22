package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ADRPUR/event-driven-marketplace/internal/logging"
)

// NewRouter builds the gin engine with all routes mounted.
//
// staticPrefix/staticDir are the local photo directory and its URL prefix;
// both empty when photos live in S3.
func NewRouter(h *Handler, secretKey []byte, logger logging.Logger, staticPrefix, staticDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	// Public routes.
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)

	// Authenticated routes. /profile paths are aliases kept for the client
	// generation that shipped against them.
	authed := r.Group("/", BearerAuth(secretKey))
	authed.POST("/logout", h.logout)
	authed.GET("/me", h.me)
	authed.PUT("/me", h.updateMe)
	authed.POST("/me/password", h.changePassword)
	authed.POST("/me/photo", h.uploadPhoto)
	authed.GET("/profile", h.me)
	authed.PUT("/profile", h.updateMe)
	authed.POST("/profile/password", h.changePassword)
	authed.POST("/profile/photo", h.uploadPhoto)

	// Catalog. Reads are open to every signed-in user, writes are admin-only.
	catalog := authed.Group("/products")
	catalog.GET("", h.listProducts)
	catalog.GET("/:id", h.getProduct)

	catalogAdmin := catalog.Group("", RequireRole("admin"))
	catalogAdmin.POST("", h.createProduct)
	catalogAdmin.PUT("/:id", h.updateProduct)
	catalogAdmin.DELETE("/:id", h.deleteProduct)

	// Admin routes.
	admin := authed.Group("/users", RequireRole("admin"))
	admin.GET("", h.listUsers)
	admin.PUT("/:id", h.updateUser)
	admin.DELETE("/:id", h.deleteUser)

	if staticDir != "" {
		r.Static(staticPrefix, staticDir)
	}

	return r
}

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func NewServer(addr string, engine *gin.Engine, logger logging.Logger) *Server {
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: engine},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
