package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).Str("context", context).Str("path", c.FullPath()).Msg("Internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps a service error to its HTTP status. conflictStatus
// lets add-book answer duplicates with 406 while other routes use 400.
func respondServiceError(c *gin.Context, err error, conflictStatus int, context string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		respondBadRequest(c, err.Error())
	case errors.Is(err, services.ErrConflict):
		respondError(c, conflictStatus, err.Error())
	case errors.Is(err, auth.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		respondInternalError(c, err, context)
	}
}

// respondUploadError maps a rejected cover upload to its HTTP status.
func respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, covers.ErrInvalidFileType):
		respondBadRequest(c, "Invalid file type. Only JPEG and PNG images are allowed")
	case errors.Is(err, covers.ErrFileTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, "Cover image is too large")
	default:
		respondInternalError(c, err, "stage cover")
	}
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// queryInt reads a non-negative integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}
