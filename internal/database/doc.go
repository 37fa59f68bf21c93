// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, constraint helpers
//	├── users/           # Registered accounts
//	├── books/           # Book listings, search, recommendations
//	├── reviews/         # Reviews scoped to a book and its author
//	└── audit/           # Audit event log
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./bookshelf.db")
//
//	booksRepo := books.NewRepository(db.DB)
//	reviewsRepo := reviews.NewRepository(db.DB)
//
//	book, err := booksRepo.GetByID(123)
//	err = reviewsRepo.Create(&entities.Review{BookID: book.ID, UserID: 7, Text: "Loved it", Rating: 5})
//
// Repositories return gorm.ErrRecordNotFound for missing rows; the service
// layer translates it into its own error kinds.
//
// # Constraints
//
// Email and ISBN uniqueness and the review rating range are enforced by the
// schema. IsUniqueViolation and IsCheckViolation recognise the resulting
// errors so callers can report them as conflicts or validation failures.
//
// # Adding a New Domain
//
//  1. Add the entity to internal/entities and to the AutoMigrate list
//  2. Create database/<domain>/repository.go with a Repository type
//  3. Wire the repository in internal/entrypoint
package database
