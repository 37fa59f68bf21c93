package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/services"
)

// ratingValue accepts a rating sent either as a form value, a JSON number or
// a JSON string.
type ratingValue string

func (r *ratingValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "null" {
		s = ""
	}
	*r = ratingValue(s)
	return nil
}

// value parses the rating. An empty rating parses as 0.
func (r ratingValue) value() (int, bool) {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

type addReviewRequest struct {
	Text   string      `form:"text" json:"text"`
	Rating ratingValue `form:"rating" json:"rating"`
}

type editReviewRequest struct {
	Text   *string      `form:"text" json:"text"`
	Rating *ratingValue `form:"rating" json:"rating"`
}

const invalidRatingMessage = "Rating must be a whole number between 1 and 5"

type ReviewsController struct {
	reviews *services.ReviewService
}

func NewReviewsController(reviews *services.ReviewService) *ReviewsController {
	return &ReviewsController{reviews: reviews}
}

// AddReview attaches a review to the book identified by :id.
// POST /add-review/:id
func (rc *ReviewsController) AddReview(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req addReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "Missing required fields")
		return
	}
	rating, ok := req.Rating.value()
	if !ok {
		respondBadRequest(c, invalidRatingMessage)
		return
	}

	review, err := rc.reviews.AddReview(auth.GetUserID(c), bookID, req.Text, rating)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "add review")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review added successfully",
		"review":  review,
	})
}

// EditReview updates the supplied fields of a review written by the caller.
// PUT /edit-review/:id
func (rc *ReviewsController) EditReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req editReviewRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	// Blank values mean "keep the current one", as forms send every field
	text := req.Text
	if text != nil && strings.TrimSpace(*text) == "" {
		text = nil
	}

	var rating *int
	if req.Rating != nil && strings.TrimSpace(string(*req.Rating)) != "" {
		n, ok := req.Rating.value()
		if !ok {
			respondBadRequest(c, invalidRatingMessage)
			return
		}
		rating = &n
	}

	review, err := rc.reviews.EditReview(auth.GetUserID(c), id, text, rating)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "edit review")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Review updated successfully",
		"review":  review,
	})
}

// DeleteReview removes a review written by the caller.
// DELETE /delete-review/:id
func (rc *ReviewsController) DeleteReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.reviews.DeleteReview(auth.GetUserID(c), id); err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "delete review")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Review deleted successfully"})
}
