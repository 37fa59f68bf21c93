package books

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, *entities.User) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "books.db")

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: database.DriverName, DSN: dbPath}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.Review{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	user := &entities.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	return NewRepository(db), db, user
}

func createBook(t *testing.T, repo *Repository, userID uint, title, author, genre string) *entities.Book {
	t.Helper()
	book := &entities.Book{
		Title:       title,
		Author:      author,
		ISBN:        fmt.Sprintf("isbn-%s-%d", title, time.Now().UnixNano()),
		Genre:       genre,
		Description: "desc",
		CoverURL:    "uploads/" + title + ".png",
		UserID:      userID,
	}
	require.NoError(t, repo.Create(book))
	return book
}

func addReview(t *testing.T, db *gorm.DB, userID, bookID uint, rating int) {
	t.Helper()
	require.NoError(t, db.Create(&entities.Review{Text: "r", Rating: rating, UserID: userID, BookID: bookID}).Error)
}

func titles(books []entities.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo, _, user := setupTestDB(t)

	book := createBook(t, repo, user.ID, "Dune", "Herbert", "scifi")

	got, err := repo.GetByID(book.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, user.ID, got.UserID)

	_, err = repo.GetByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ISBNTaken(t *testing.T) {
	repo, _, user := setupTestDB(t)
	book := createBook(t, repo, user.ID, "Dune", "Herbert", "scifi")

	taken, err := repo.ISBNTaken(book.ISBN, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.ISBNTaken(book.ISBN, book.ID)
	require.NoError(t, err)
	assert.False(t, taken, "a book does not conflict with itself")

	taken, err = repo.ISBNTaken("unused", 0)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRepository_Update(t *testing.T) {
	repo, _, user := setupTestDB(t)
	book := createBook(t, repo, user.ID, "Dune", "Herbert", "scifi")

	require.NoError(t, repo.Update(book, map[string]interface{}{"title": "Dune Messiah"}))

	assert.Equal(t, "Dune Messiah", book.Title)
	assert.Equal(t, "Herbert", book.Author)
}

func TestRepository_DeleteWithReviews(t *testing.T) {
	repo, db, user := setupTestDB(t)
	book := createBook(t, repo, user.ID, "Dune", "Herbert", "scifi")
	other := createBook(t, repo, user.ID, "Emma", "Austen", "classic")
	addReview(t, db, user.ID, book.ID, 4)
	addReview(t, db, user.ID, book.ID, 5)
	addReview(t, db, user.ID, other.ID, 3)

	require.NoError(t, repo.DeleteWithReviews(book.ID))

	_, err := repo.GetByID(book.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var remaining int64
	require.NoError(t, db.Model(&entities.Review{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	assert.ErrorIs(t, repo.DeleteWithReviews(book.ID), gorm.ErrRecordNotFound)
}

func TestRepository_Transaction_RollsBack(t *testing.T) {
	repo, _, user := setupTestDB(t)

	err := repo.Transaction(func(tx *Repository) error {
		createBook(t, tx, user.ID, "Ghost", "Nobody", "none")
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	books, err := repo.List(Filter{})
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestRepository_List_SearchAcrossFields(t *testing.T) {
	repo, _, user := setupTestDB(t)
	createBook(t, repo, user.ID, "Fantasy Land", "Someone", "travel")
	createBook(t, repo, user.ID, "Plain", "Fantasyson", "history")
	createBook(t, repo, user.ID, "Hobbit", "Tolkien", "Fantasy")
	createBook(t, repo, user.ID, "Unrelated", "Nobody", "cooking")

	books, err := repo.List(Filter{Search: "FANTASY"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Fantasy Land", "Plain", "Hobbit"}, titles(books))
}

func TestRepository_List_SearchFoldsUnicodeCase(t *testing.T) {
	repo, _, user := setupTestDB(t)
	createBook(t, repo, user.ID, "Éclair au Chocolat", "Émile Zola", "Cuisine")
	createBook(t, repo, user.ID, "Die Straße", "Anonym", "Roman")
	createBook(t, repo, user.ID, "Plain Title", "Someone", "Essay")

	books, err := repo.List(Filter{Search: "éclair"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Éclair au Chocolat", books[0].Title)

	books, err = repo.List(Filter{Search: "ÉMILE"})
	require.NoError(t, err)
	assert.Len(t, books, 1)

	books, err = repo.List(Filter{Search: "STRASSE"})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Die Straße", books[0].Title)
}

func TestRepository_List_SearchEscapesWildcards(t *testing.T) {
	repo, _, user := setupTestDB(t)
	createBook(t, repo, user.ID, "100% Cotton", "A", "craft")
	createBook(t, repo, user.ID, "1000 Days", "B", "craft")

	books, err := repo.List(Filter{Search: "0%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Cotton"}, titles(books))
}

func TestRepository_List_GenreExactMatch(t *testing.T) {
	repo, _, user := setupTestDB(t)
	createBook(t, repo, user.ID, "A", "x", "fantasy")
	createBook(t, repo, user.ID, "B", "x", "dark fantasy")

	books, err := repo.List(Filter{Genre: "fantasy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, titles(books))
}

func TestRepository_List_SortByTitle(t *testing.T) {
	repo, _, user := setupTestDB(t)
	createBook(t, repo, user.ID, "Charlie", "x", "g")
	createBook(t, repo, user.ID, "Alpha", "x", "g")
	createBook(t, repo, user.ID, "Bravo", "x", "g")

	asc, err := repo.List(Filter{SortBy: SortByTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, titles(asc))

	desc, err := repo.List(Filter{SortBy: SortByTitle, Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Charlie", "Bravo", "Alpha"}, titles(desc))
}

func TestRepository_List_SortByRating(t *testing.T) {
	repo, db, user := setupTestDB(t)
	low := createBook(t, repo, user.ID, "Low", "x", "g")
	high := createBook(t, repo, user.ID, "High", "x", "g")
	createBook(t, repo, user.ID, "Unrated", "x", "g")
	addReview(t, db, user.ID, low.ID, 2)
	addReview(t, db, user.ID, high.ID, 5)
	addReview(t, db, user.ID, high.ID, 4)

	desc, err := repo.List(Filter{SortBy: SortByRating, Order: "desc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"High", "Low", "Unrated"}, titles(desc))

	asc, err := repo.List(Filter{SortBy: SortByRating, Order: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Unrated", "Low", "High"}, titles(asc))
}

func TestRepository_List_UnknownSortKeepsInsertionOrder(t *testing.T) {
	repo, _, user := setupTestDB(t)
	createBook(t, repo, user.ID, "Second", "x", "g")
	createBook(t, repo, user.ID, "First", "x", "g")

	books, err := repo.List(Filter{SortBy: "pages; DROP TABLE books", Order: "sideways"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Second", "First"}, titles(books))
}

func TestRepository_List_CappedAtDefaultLimit(t *testing.T) {
	repo, _, user := setupTestDB(t)
	for i := 0; i < DefaultListLimit+3; i++ {
		createBook(t, repo, user.ID, fmt.Sprintf("Book %02d", i), "x", "g")
	}

	books, err := repo.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, books, DefaultListLimit)
}

func TestRepository_List_EmptyIsNotNil(t *testing.T) {
	repo, _, _ := setupTestDB(t)

	books, err := repo.List(Filter{Search: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, books)
	assert.Empty(t, books)
}

func TestRepository_ListByUser(t *testing.T) {
	repo, db, user := setupTestDB(t)
	other := &entities.User{Name: "Other", Email: "other@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(other).Error)

	createBook(t, repo, user.ID, "Mine", "x", "g")
	createBook(t, repo, other.ID, "Theirs", "x", "g")

	books, err := repo.ListByUser(user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mine"}, titles(books))
}

func TestRepository_ListByGenre_ExcludesSelfAndCaps(t *testing.T) {
	repo, _, user := setupTestDB(t)
	ref := createBook(t, repo, user.ID, "Ref", "x", "fantasy")
	for i := 0; i < 7; i++ {
		createBook(t, repo, user.ID, fmt.Sprintf("F%d", i), "x", "fantasy")
	}
	createBook(t, repo, user.ID, "Other", "x", "history")

	books, err := repo.ListByGenre("fantasy", ref.ID, 5)
	require.NoError(t, err)
	assert.Len(t, books, 5)
	for _, b := range books {
		assert.Equal(t, "fantasy", b.Genre)
		assert.NotEqual(t, ref.ID, b.ID)
	}
}

func TestRepository_CoverPaths(t *testing.T) {
	repo, _, user := setupTestDB(t)
	a := createBook(t, repo, user.ID, "A", "x", "g")
	createBook(t, repo, user.ID, "B", "x", "g")

	paths, err := repo.CoverPaths()
	require.NoError(t, err)
	assert.Len(t, paths, 2)
	assert.Contains(t, paths, a.CoverURL)
}

func TestRepository_GetWithReviews(t *testing.T) {
	repo, db, user := setupTestDB(t)
	book := createBook(t, repo, user.ID, "A", "x", "g")
	addReview(t, db, user.ID, book.ID, 4)
	addReview(t, db, user.ID, book.ID, 5)

	got, err := repo.GetWithReviews(book.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reviews, 2)
}
