package reviews

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type fixture struct {
	repo *Repository
	user *entities.User
	book *entities.Book
}

func setupTestDB(t *testing.T) fixture {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reviews.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}, &entities.Book{}, &entities.Review{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	user := &entities.User{Name: "Reader", Email: "reader@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)
	book := &entities.Book{Title: "T", Author: "A", ISBN: "978", Genre: "g", UserID: user.ID}
	require.NoError(t, db.Omit("User").Create(book).Error)

	return fixture{repo: NewRepository(db), user: user, book: book}
}

func (f fixture) add(t *testing.T, rating int) *entities.Review {
	t.Helper()
	review := &entities.Review{Text: "text", Rating: rating, UserID: f.user.ID, BookID: f.book.ID}
	require.NoError(t, f.repo.Create(review))
	return review
}

func TestRepository_CreateAndGet(t *testing.T) {
	f := setupTestDB(t)
	review := f.add(t, 4)

	got, err := f.repo.GetByID(review.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
	assert.Equal(t, f.book.ID, got.BookID)
}

func TestRepository_Update_OnlyGivenFields(t *testing.T) {
	f := setupTestDB(t)
	review := f.add(t, 2)

	require.NoError(t, f.repo.Update(review, map[string]interface{}{"rating": 5}))

	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "text", review.Text)
}

func TestRepository_Delete(t *testing.T) {
	f := setupTestDB(t)
	review := f.add(t, 3)

	require.NoError(t, f.repo.Delete(review.ID))
	_, err := f.repo.GetByID(review.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, f.repo.Delete(review.ID), gorm.ErrRecordNotFound)
}
