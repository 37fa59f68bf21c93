package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/logging"
)

// uploadsRoute serves stored cover images.
const uploadsRoute = "/uploads"

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logging.Writer{Level: zerolog.InfoLevel}))
	router.Use(gin.RecoveryWithWriter(logging.Writer{Level: zerolog.ErrorLevel}))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())

	api := router.Group(normalizeBasePath(cfg.BasePath))

	// Health endpoints
	uploadsDir := ""
	if cfg.Covers != nil {
		uploadsDir = cfg.Covers.Dir()
	}
	health := NewHealthController(cfg.Database, uploadsDir, cfg.Version)
	api.GET("/health", health.Status)
	api.GET("/ping", health.Ping)

	// Stored covers
	if cfg.Covers != nil {
		api.Static(uploadsRoute, cfg.Covers.Dir())
	}

	// Registration and login
	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(api)
	}

	// Everything below needs books; protected routes also need a token verifier
	if cfg.Books == nil || cfg.AuthMiddleware == nil {
		return router
	}
	requireAuth := cfg.AuthMiddleware.RequireAuth()

	booksController := NewBooksController(cfg.Books, cfg.Covers)
	api.GET("/get-books", booksController.GetBooks)
	api.GET("/recommendations/:id", booksController.Recommendations)
	api.POST("/add-book", requireAuth, booksController.AddBook)
	api.PUT("/edit-book/:id", requireAuth, booksController.EditBook)
	api.DELETE("/delete-book/:id", requireAuth, booksController.DeleteBook)
	api.GET("/my-books", requireAuth, booksController.MyBooks)
	api.GET("/book-detail/:id", requireAuth, booksController.BookDetail)

	if cfg.Reviews != nil {
		reviewsController := NewReviewsController(cfg.Reviews)
		api.POST("/add-review/:id", requireAuth, reviewsController.AddReview)
		api.PUT("/edit-review/:id", requireAuth, reviewsController.EditReview)
		api.DELETE("/delete-review/:id", requireAuth, reviewsController.DeleteReview)
	}

	if cfg.Activity != nil {
		auditController := NewAuditController(cfg.Activity)
		api.GET("/my-activity", requireAuth, auditController.MyActivity)
	}

	return router
}

// normalizeBasePath turns "", "/" and "api/" into "/", "/" and "/api".
func normalizeBasePath(p string) string {
	p = strings.Trim(strings.TrimSpace(p), "/")
	if p == "" {
		return "/"
	}
	return "/" + p
}
