// Package books provides database operations for book listings.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	list, err := repo.List(books.Filter{Search: "tolkien", SortBy: books.SortByRating})
package books

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// Sort keys accepted by List.
const (
	SortByTitle     = "title"
	SortByAuthor    = "author"
	SortByRating    = "rating"
	SortByDateAdded = "dateAdded"
)

// DefaultListLimit caps the number of books List returns.
const DefaultListLimit = 10

// averageRatingSQL is the derived rating used for sorting; books without
// reviews count as 0.
const averageRatingSQL = "(SELECT COALESCE(AVG(reviews.rating), 0) FROM reviews WHERE reviews.book_id = books.id)"

// Filter narrows and orders a book listing.
type Filter struct {
	Genre  string // exact match
	Search string // substring of title, author or genre, compared Unicode case-folded
	SortBy string
	Order  string // "asc" or "desc"
	Limit  int
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn with a repository bound to a single database
// transaction. Returning an error from fn rolls it back.
func (r *Repository) Transaction(fn func(tx *Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Create inserts a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Omit("User", "Reviews").Create(book).Error
}

// GetByID retrieves a book without its reviews.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetWithReviews retrieves a book with all of its reviews, oldest first.
func (r *Repository) GetWithReviews(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	}).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ISBNTaken reports whether a book other than excludeID holds isbn.
// Pass excludeID 0 to check against every book.
func (r *Repository) ISBNTaken(isbn string, excludeID uint) (bool, error) {
	var count int64
	query := r.db.Model(&entities.Book{}).Where("isbn = ?", isbn)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update writes the given column values to the book and reloads it.
func (r *Repository) Update(book *entities.Book, fields map[string]interface{}) error {
	if len(fields) > 0 {
		if err := r.db.Model(book).Updates(fields).Error; err != nil {
			return err
		}
	}
	return r.db.First(book, book.ID).Error
}

// DeleteWithReviews removes a book and all of its reviews atomically.
func (r *Repository) DeleteWithReviews(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.Review{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns books matching filter, ordered and capped at filter.Limit
// (DefaultListLimit when unset).
func (r *Repository) List(filter Filter) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{})

	if filter.Genre != "" {
		query = query.Where("genre = ?", filter.Genre)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(database.FoldCase(search)) + "%"
		query = query.Where(
			"fold(title) LIKE ? ESCAPE '\\' OR fold(author) LIKE ? ESCAPE '\\' OR fold(genre) LIKE ? ESCAPE '\\'",
			pattern, pattern, pattern,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	books := []entities.Book{}
	err := query.Order(orderClause(filter.SortBy, filter.Order)).Limit(limit).Find(&books).Error
	return books, err
}

// ListByUser returns every book owned by userID, oldest first.
func (r *Repository) ListByUser(userID uint) ([]entities.Book, error) {
	books := []entities.Book{}
	err := r.db.Where("user_id = ?", userID).Order("id ASC").Find(&books).Error
	return books, err
}

// ListByGenre returns up to limit books in genre, excluding excludeID.
func (r *Repository) ListByGenre(genre string, excludeID uint, limit int) ([]entities.Book, error) {
	books := []entities.Book{}
	err := r.db.Where("genre = ? AND id <> ?", genre, excludeID).
		Order("id ASC").
		Limit(limit).
		Find(&books).Error
	return books, err
}

// CoverPaths returns the set of cover paths referenced by any book.
func (r *Repository) CoverPaths() (map[string]struct{}, error) {
	var paths []string
	err := r.db.Model(&entities.Book{}).Where("cover_url <> ''").Pluck("cover_url", &paths).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set, nil
}

// orderClause maps the sort key and direction to SQL. Only whitelisted
// values reach the query; anything else keeps insertion order.
func orderClause(sortBy, order string) string {
	dir := "ASC"
	if strings.EqualFold(order, "desc") {
		dir = "DESC"
	}

	switch sortBy {
	case SortByTitle:
		return "title " + dir + ", id ASC"
	case SortByAuthor:
		return "author " + dir + ", id ASC"
	case SortByRating:
		return averageRatingSQL + " " + dir + ", id ASC"
	case SortByDateAdded:
		return "created_at " + dir + ", id " + dir
	default:
		return "id ASC"
	}
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
