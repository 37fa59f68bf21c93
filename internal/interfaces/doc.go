// Package interfaces documents the core abstractions used throughout the application.
//
// Consumers declare the small interfaces they need next to the code that uses
// them; checks.go asserts at compile time that the concrete types satisfy them.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - UserStore: User lookup and creation for auth (internal/auth/service.go)
//   - CoverReferences: Cover paths still referenced by books (internal/tasks/covers.go)
//
// ## Cover Storage Interfaces
//
//   - CoverUpload: Staged upload committed with the book row (internal/services/interfaces.go)
//   - CoverRemover: Removal of replaced or orphaned covers (internal/services/interfaces.go)
//   - CoverDeleter, CoverSweeper: Cover file maintenance (internal/tasks/covers.go)
//
// ## Audit Interfaces
//
//   - AuditRecorder: Book and review change events (internal/services/interfaces.go)
//   - AuditLogger: Register and login events (internal/auth/handlers.go)
//   - ActivityReader: Per-user activity feed (internal/http/audit.go)
//   - AuditEventCleaner: Retention cleanup (internal/tasks/cleanup_audit.go)
//
// ## Background Work Interfaces
//
//   - TaskAdder: Enqueue tasks from scheduled jobs (internal/scheduler/maintenance.go)
//
// # Adding a New Maintenance Job
//
//  1. Define the task and its processor in internal/tasks/
//
//     type ReindexTask struct{}
//
//     func (t ReindexTask) Config() backlite.QueueConfig {
//     return backlite.QueueConfig{Name: "reindex", MaxAttempts: 1}
//     }
//
//  2. Register the queue in entrypoint.Build
//
//  3. Add a scheduler.EnqueueJob entry to maintenanceJobs with its cron schedule
//
// # Adding a New Database Domain
//
//  1. Create sub-package: internal/database/shelves/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Register the entity in database.NewDatabase migrations
//
//  4. Add compile-time check in checks.go:
//
//     var _ services.ShelfStore = (*shelves.Repository)(nil)
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
