package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/services"
)

// coverField is the multipart field carrying the cover image.
const coverField = "coverImage"

type addBookRequest struct {
	Title       string `form:"title" json:"title"`
	Author      string `form:"author" json:"author"`
	ISBN        string `form:"isbn" json:"isbn"`
	Genre       string `form:"genre" json:"genre"`
	Description string `form:"description" json:"description"`
}

type editBookRequest struct {
	Title       *string `form:"title" json:"title"`
	Author      *string `form:"author" json:"author"`
	ISBN        *string `form:"isbn" json:"isbn"`
	Genre       *string `form:"genre" json:"genre"`
	Description *string `form:"description" json:"description"`
}

type listBooksQuery struct {
	SortBy string `form:"sortBy"`
	Order  string `form:"order"`
	Genre  string `form:"genre"`
	Search string `form:"search"`
}

type BooksController struct {
	books  *services.BookService
	covers *covers.Store
}

func NewBooksController(books *services.BookService, store *covers.Store) *BooksController {
	return &BooksController{
		books:  books,
		covers: store,
	}
}

// AddBook creates a book from a multipart form with a cover image.
// POST /add-book
func (bc *BooksController) AddBook(c *gin.Context) {
	var req addBookRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "Missing required fields")
		return
	}

	cover, ok := bc.stageCover(c)
	if !ok {
		return
	}

	book, err := bc.books.AddBook(auth.GetUserID(c), services.BookInput{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Genre:       req.Genre,
		Description: req.Description,
	}, cover)
	if err != nil {
		respondServiceError(c, err, http.StatusNotAcceptable, "add book")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Book added successfully",
		"book":    book,
	})
}

// EditBook updates the supplied fields of a book owned by the caller.
// PUT /edit-book/:id
func (bc *BooksController) EditBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req editBookRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	cover, ok := bc.stageCover(c)
	if !ok {
		return
	}

	book, err := bc.books.EditBook(auth.GetUserID(c), id, services.BookPatch{
		Title:       req.Title,
		Author:      req.Author,
		ISBN:        req.ISBN,
		Genre:       req.Genre,
		Description: req.Description,
	}, cover)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "edit book")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book updated successfully",
		"book":    book,
	})
}

// DeleteBook removes a book owned by the caller along with its reviews.
// DELETE /delete-book/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := bc.books.DeleteBook(auth.GetUserID(c), id); err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "delete book")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Book deleted successfully"})
}

// GetBooks lists books with optional filtering, search and sorting.
// GET /get-books
func (bc *BooksController) GetBooks(c *gin.Context) {
	var q listBooksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}

	books, err := bc.books.ListBooks(services.BookFilter{
		Genre:  q.Genre,
		Search: q.Search,
		SortBy: q.SortBy,
		Order:  q.Order,
	})
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Books fetched successfully",
		"books":   books,
	})
}

// MyBooks lists the caller's books.
// GET /my-books
func (bc *BooksController) MyBooks(c *gin.Context) {
	books, err := bc.books.ListOwnedBooks(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list own books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User's books fetched successfully",
		"books":   books,
	})
}

// BookDetail returns a book with its reviews and average rating.
// GET /book-detail/:id
func (bc *BooksController) BookDetail(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.books.GetBookDetails(id)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "book detail")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Book details fetched successfully",
		"book":    book,
	})
}

// Recommendations lists other books of the same genre.
// GET /recommendations/:id
func (bc *BooksController) Recommendations(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	books, err := bc.books.GetRecommendations(id)
	if err != nil {
		respondServiceError(c, err, http.StatusBadRequest, "recommendations")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Recommendations fetched successfully",
		"recommendations": books,
	})
}

// stageCover stages the optional cover image. It returns a nil upload when
// the request carries no file and responds itself when the file is rejected.
func (bc *BooksController) stageCover(c *gin.Context) (services.CoverUpload, bool) {
	fh, err := c.FormFile(coverField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		respondBadRequest(c, "invalid cover image")
		return nil, false
	}

	upload, err := bc.covers.Stage(fh)
	if err != nil {
		respondUploadError(c, err)
		return nil, false
	}
	return upload, true
}
