package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// ReviewService implements the review operations.
type ReviewService struct {
	reviews *reviews.Repository
	books   *books.Repository
	audit   AuditRecorder
}

// NewReviewService creates a review service. audit may be nil.
func NewReviewService(reviewRepo *reviews.Repository, bookRepo *books.Repository, audit AuditRecorder) *ReviewService {
	if audit == nil {
		audit = noopAudit{}
	}
	return &ReviewService{reviews: reviewRepo, books: bookRepo, audit: audit}
}

// AddReview attaches a review by actorID to book bookID. A zero rating
// counts as missing.
func (s *ReviewService) AddReview(actorID, bookID uint, text string, rating int) (*entities.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" || rating == 0 || bookID == 0 {
		return nil, validationError("Missing required fields")
	}
	if err := checkRating(rating); err != nil {
		return nil, err
	}

	if _, err := s.books.GetByID(bookID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Book not found")
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	review := &entities.Review{
		Text:   text,
		Rating: rating,
		UserID: actorID,
		BookID: bookID,
	}
	if err := s.reviews.Create(review); err != nil {
		s.audit.LogReview(actorID, "create", 0, bookID, err)
		switch {
		case database.IsCheckViolation(err):
			return nil, ratingError()
		case database.IsForeignKeyViolation(err):
			return nil, notFoundError("Book not found")
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	s.audit.LogReview(actorID, "create", review.ID, bookID, nil)
	return review, nil
}

// EditReview changes the text and/or rating of a review written by actorID.
func (s *ReviewService) EditReview(actorID, id uint, text *string, rating *int) (*entities.Review, error) {
	review, err := s.getReview(id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(actorID, review.UserID); err != nil {
		s.audit.LogReview(actorID, "update", review.ID, review.BookID, err)
		return nil, forbiddenError("You are not authorized to edit this review")
	}

	fields := map[string]interface{}{}
	if text != nil {
		t := strings.TrimSpace(*text)
		if t == "" {
			return nil, validationError("Text cannot be empty")
		}
		fields["text"] = t
	}
	if rating != nil {
		if err := checkRating(*rating); err != nil {
			return nil, err
		}
		fields["rating"] = *rating
	}

	if err := s.reviews.Update(review, fields); err != nil {
		s.audit.LogReview(actorID, "update", review.ID, review.BookID, err)
		if database.IsCheckViolation(err) {
			return nil, ratingError()
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	s.audit.LogReview(actorID, "update", review.ID, review.BookID, nil)
	return review, nil
}

// DeleteReview removes a review written by actorID.
func (s *ReviewService) DeleteReview(actorID, id uint) error {
	review, err := s.getReview(id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(actorID, review.UserID); err != nil {
		s.audit.LogReview(actorID, "delete", review.ID, review.BookID, err)
		return forbiddenError("You are not authorized to delete this review")
	}

	if err := s.reviews.Delete(review.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("Review not found")
		}
		s.audit.LogReview(actorID, "delete", review.ID, review.BookID, err)
		return fmt.Errorf("failed to delete review: %w", err)
	}

	s.audit.LogReview(actorID, "delete", review.ID, review.BookID, nil)
	return nil
}

func (s *ReviewService) getReview(id uint) (*entities.Review, error) {
	review, err := s.reviews.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Review not found")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

func checkRating(rating int) error {
	if rating < entities.MinRating || rating > entities.MaxRating {
		return ratingError()
	}
	return nil
}

func ratingError() error {
	return validationError(fmt.Sprintf("Rating must be between %d and %d", entities.MinRating, entities.MaxRating))
}
