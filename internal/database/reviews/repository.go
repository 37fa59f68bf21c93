// Package reviews provides database operations for book reviews.
//
// # Usage
//
//	repo := reviews.NewRepository(db)
//	err := repo.Create(&entities.Review{BookID: bookID, UserID: userID, Text: text, Rating: 4})
package reviews

import (
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Repository handles all review database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reviews repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a review. The rating check constraint and the book foreign
// key are enforced by the schema.
func (r *Repository) Create(review *entities.Review) error {
	return r.db.Omit("User").Create(review).Error
}

// GetByID retrieves a review by ID.
func (r *Repository) GetByID(id uint) (*entities.Review, error) {
	var review entities.Review
	if err := r.db.First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Update writes the given column values to the review and reloads it.
func (r *Repository) Update(review *entities.Review, fields map[string]interface{}) error {
	if len(fields) > 0 {
		if err := r.db.Model(review).Updates(fields).Error; err != nil {
			return err
		}
	}
	return r.db.First(review, review.ID).Error
}

// Delete removes a review by ID.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
