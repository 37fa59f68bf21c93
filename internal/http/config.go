package http

import (
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/services"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Books    *services.BookService
	Reviews  *services.ReviewService
	Covers   *covers.Store
	Database *database.Database
	Activity ActivityReader

	// Authentication
	AuthController *auth.AuthController
	AuthMiddleware *auth.Middleware

	// BasePath prefixes every API route. Empty or "/" mounts at the root.
	BasePath string

	// Application info
	Version string
}
