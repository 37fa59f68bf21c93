package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// UserStore implementations
var _ auth.UserStore = (*users.Repository)(nil)

// CoverReferences implementations
var _ tasks.CoverReferences = (*books.Repository)(nil)

// =============================================================================
// Cover Storage
// =============================================================================

// CoverUpload implementations
var _ services.CoverUpload = (*covers.Upload)(nil)

// CoverRemover implementations
var _ services.CoverRemover = (*covers.Store)(nil)
var _ services.CoverRemover = (*tasks.CoverRemovalQueue)(nil)

// CoverDeleter/CoverSweeper implementations
var _ tasks.CoverDeleter = (*covers.Store)(nil)
var _ tasks.CoverSweeper = (*covers.Store)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.AuditRecorder = (*audit.Service)(nil)
var _ auth.AuditLogger = (*audit.Service)(nil)
var _ http.ActivityReader = (*audit.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

// TaskAdder implementations
var _ scheduler.TaskAdder = (*tasks.Client)(nil)
