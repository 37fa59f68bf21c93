package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// MaxRecommendations caps the recommendation list.
const MaxRecommendations = 5

// BookInput holds the fields required to create a book.
type BookInput struct {
	Title       string
	Author      string
	ISBN        string
	Genre       string
	Description string
}

// BookPatch holds the fields to change on an existing book. Nil fields are
// left untouched.
type BookPatch struct {
	Title       *string
	Author      *string
	ISBN        *string
	Genre       *string
	Description *string
}

// BookFilter narrows and orders the public book listing.
type BookFilter struct {
	Genre  string
	Search string
	SortBy string
	Order  string
}

// BookService implements the book catalogue operations.
type BookService struct {
	books  *books.Repository
	covers CoverRemover
	audit  AuditRecorder
}

// NewBookService creates a book service. audit may be nil.
func NewBookService(repo *books.Repository, covers CoverRemover, audit AuditRecorder) *BookService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &BookService{books: repo, covers: covers, audit: audit}
}

// AddBook creates a book owned by actorID. The staged cover is committed in
// the same transaction as the insert and discarded if anything fails.
func (s *BookService) AddBook(actorID uint, input BookInput, cover CoverUpload) (*entities.Book, error) {
	if cover != nil {
		defer discard(cover)
	}

	input = input.trimmed()
	if input.Title == "" || input.Author == "" || input.ISBN == "" ||
		input.Genre == "" || input.Description == "" || cover == nil {
		return nil, validationError("Missing required fields")
	}

	taken, err := s.books.ISBNTaken(input.ISBN, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check isbn: %w", err)
	}
	if taken {
		return nil, conflictError("Book with this ISBN already exists")
	}

	book := &entities.Book{
		Title:       input.Title,
		Author:      input.Author,
		ISBN:        input.ISBN,
		Genre:       input.Genre,
		Description: input.Description,
		CoverURL:    cover.Path(),
		UserID:      actorID,
	}

	err = s.books.Transaction(func(tx *books.Repository) error {
		if err := tx.Create(book); err != nil {
			return err
		}
		return cover.Commit()
	})
	if err != nil {
		s.audit.LogBook(actorID, "create", 0, input.Title, err)
		if database.IsUniqueViolation(err) {
			return nil, conflictError("Book with this ISBN already exists")
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.audit.LogBook(actorID, "create", book.ID, book.Title, nil)
	return book, nil
}

// EditBook applies patch to a book owned by actorID. A new cover replaces the
// old one, which is removed once the update is committed.
func (s *BookService) EditBook(actorID, id uint, patch BookPatch, cover CoverUpload) (*entities.Book, error) {
	if cover != nil {
		defer discard(cover)
	}

	book, err := s.getBook(id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(actorID, book.UserID); err != nil {
		s.audit.LogBook(actorID, "update", book.ID, book.Title, err)
		return nil, forbiddenError("You are not authorized to edit this book")
	}

	fields, err := patch.fields()
	if err != nil {
		return nil, err
	}

	if isbn, ok := fields["isbn"].(string); ok && isbn != book.ISBN {
		taken, err := s.books.ISBNTaken(isbn, book.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check isbn: %w", err)
		}
		if taken {
			return nil, conflictError("ISBN already exists for another book")
		}
	}

	oldCover := book.CoverURL
	if cover != nil {
		fields["cover_url"] = cover.Path()
	}

	err = s.books.Transaction(func(tx *books.Repository) error {
		if err := tx.Update(book, fields); err != nil {
			return err
		}
		if cover != nil {
			return cover.Commit()
		}
		return nil
	})
	if err != nil {
		s.audit.LogBook(actorID, "update", id, "", err)
		if database.IsUniqueViolation(err) {
			return nil, conflictError("ISBN already exists for another book")
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	if cover != nil && oldCover != "" && oldCover != book.CoverURL {
		s.removeCover(oldCover)
	}

	s.audit.LogBook(actorID, "update", book.ID, book.Title, nil)
	return book, nil
}

// DeleteBook removes a book owned by actorID together with its reviews and
// schedules its cover for removal.
func (s *BookService) DeleteBook(actorID, id uint) error {
	book, err := s.getBook(id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(actorID, book.UserID); err != nil {
		s.audit.LogBook(actorID, "delete", book.ID, book.Title, err)
		return forbiddenError("You are not authorized to delete this book")
	}

	if err := s.books.DeleteWithReviews(book.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("Book not found")
		}
		s.audit.LogBook(actorID, "delete", book.ID, book.Title, err)
		return fmt.Errorf("failed to delete book: %w", err)
	}

	if book.CoverURL != "" {
		s.removeCover(book.CoverURL)
	}

	s.audit.LogBook(actorID, "delete", book.ID, book.Title, nil)
	return nil
}

// ListBooks returns the public listing. No matches yields an empty slice.
func (s *BookService) ListBooks(filter BookFilter) ([]entities.Book, error) {
	list, err := s.books.List(books.Filter{
		Genre:  strings.TrimSpace(filter.Genre),
		Search: strings.TrimSpace(filter.Search),
		SortBy: filter.SortBy,
		Order:  filter.Order,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return nonNil(list), nil
}

// ListOwnedBooks returns every book owned by actorID.
func (s *BookService) ListOwnedBooks(actorID uint) ([]entities.Book, error) {
	list, err := s.books.ListByUser(actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return nonNil(list), nil
}

// GetBookDetails returns a book with its reviews and average rating.
func (s *BookService) GetBookDetails(id uint) (*entities.BookDetails, error) {
	book, err := s.books.GetWithReviews(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Book not found")
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	reviews := book.Reviews
	if reviews == nil {
		reviews = []entities.Review{}
	}
	book.Reviews = nil

	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := 0.0
	if len(reviews) > 0 {
		avg = float64(total) / float64(len(reviews))
	}

	return &entities.BookDetails{
		Book:          *book,
		Reviews:       reviews,
		AverageRating: FormatAverage(avg),
	}, nil
}

// GetRecommendations returns up to MaxRecommendations other books sharing
// the genre of book id.
func (s *BookService) GetRecommendations(id uint) ([]entities.Book, error) {
	book, err := s.getBook(id)
	if err != nil {
		return nil, err
	}
	list, err := s.books.ListByGenre(book.Genre, book.ID, MaxRecommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return nonNil(list), nil
}

// FormatAverage renders a mean rating with one decimal place.
func FormatAverage(avg float64) string {
	return fmt.Sprintf("%.1f", avg)
}

func (s *BookService) getBook(id uint) (*entities.Book, error) {
	book, err := s.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Book not found")
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

func (s *BookService) removeCover(path string) {
	if s.covers == nil {
		return
	}
	if err := s.covers.Remove(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to remove cover")
	}
}

func (in BookInput) trimmed() BookInput {
	return BookInput{
		Title:       strings.TrimSpace(in.Title),
		Author:      strings.TrimSpace(in.Author),
		ISBN:        strings.TrimSpace(in.ISBN),
		Genre:       strings.TrimSpace(in.Genre),
		Description: strings.TrimSpace(in.Description),
	}
}

func (p BookPatch) fields() (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	columns := []struct {
		name  string
		label string
		value *string
	}{
		{"title", "Title", p.Title},
		{"author", "Author", p.Author},
		{"isbn", "ISBN", p.ISBN},
		{"genre", "Genre", p.Genre},
		{"description", "Description", p.Description},
	}
	for _, c := range columns {
		if c.value == nil {
			continue
		}
		v := strings.TrimSpace(*c.value)
		if v == "" {
			return nil, validationError(c.label + " cannot be empty")
		}
		fields[c.name] = v
	}
	return fields, nil
}

func discard(cover CoverUpload) {
	if err := cover.Discard(); err != nil {
		log.Warn().Err(err).Str("path", cover.Path()).Msg("Failed to discard staged cover")
	}
}

func nonNil(list []entities.Book) []entities.Book {
	if list == nil {
		return []entities.Book{}
	}
	return list
}
