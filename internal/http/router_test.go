package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/database"
	auditrepo "github.com/mrlokans/bookshelf/internal/database/audit"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/services"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type testServer struct {
	router *gin.Engine
	db     *database.Database
	covers *covers.Store
	audit  *audit.Service
	tokens *auth.TokenIssuer
}

func setupServer(t *testing.T) *testServer {
	return setupServerWithBasePath(t, "/")
}

func setupServerWithBasePath(t *testing.T, basePath string) *testServer {
	t.Helper()
	tmpDir := t.TempDir()

	db, err := database.NewQuietDatabase(filepath.Join(tmpDir, "api.db"))
	require.NoError(t, err)

	store, err := covers.NewStore(filepath.Join(tmpDir, "uploads"), 1<<20)
	require.NoError(t, err)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	t.Cleanup(func() {
		auditService.Flush()
		db.Close()
	})

	tokens, err := auth.NewTokenIssuer("test-secret", time.Hour, "bookshelf")
	require.NoError(t, err)

	authCfg := config.Auth{
		BcryptCost:        4,
		MinPasswordLength: 8,
		MaxLoginAttempts:  5,
		RateLimitWindow:   time.Minute,
		LockoutDuration:   time.Minute,
	}
	authController := auth.NewAuthController(
		auth.NewService(users.NewRepository(db.DB), tokens, authCfg), authCfg, auditService)
	t.Cleanup(authController.Stop)

	bookRepo := books.NewRepository(db.DB)
	router := NewRouter(RouterConfig{
		Books:          services.NewBookService(bookRepo, store, auditService),
		Reviews:        services.NewReviewService(reviews.NewRepository(db.DB), bookRepo, auditService),
		Covers:         store,
		Database:       db,
		Activity:       auditService,
		AuthController: authController,
		AuthMiddleware: auth.NewMiddleware(tokens),
		BasePath:       basePath,
		Version:        "test",
	})

	return &testServer{router: router, db: db, covers: store, audit: auditService, tokens: tokens}
}

// newUser stores a user and returns it with a valid bearer token.
func (s *testServer) newUser(t *testing.T, name string) (*entities.User, string) {
	t.Helper()
	user := &entities.User{Name: name, Email: strings.ToLower(name) + "@example.com", PasswordHash: "x"}
	require.NoError(t, s.db.DB.Create(user).Error)
	token, err := s.tokens.Issue(user)
	require.NoError(t, err)
	return user, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, method, path, token, strings.NewReader(body), "application/json")
}

type coverFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, fields map[string]string, cover *coverFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if cover != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, coverField, cover.name))
		h.Set("Content-Type", cover.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(cover.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func bookFields(isbn string) map[string]string {
	return map[string]string{
		"title":       "The Hobbit",
		"author":      "J.R.R. Tolkien",
		"isbn":        isbn,
		"genre":       "Fantasy",
		"description": "There and back again",
	}
}

func pngCover() *coverFile {
	return &coverFile{name: "hobbit cover.png", contentType: "image/png", data: pngBytes}
}

type bookResponse struct {
	Message string        `json:"message"`
	Book    entities.Book `json:"book"`
}

// addBook creates a book through the API and returns it.
func (s *testServer) addBook(t *testing.T, token string, fields map[string]string) entities.Book {
	t.Helper()
	body, ct := multipartBody(t, fields, pngCover())
	w := s.do(t, http.MethodPost, "/add-book", token, body, ct)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp bookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Book
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Error
}

func TestRouter_PublicRoutes(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, http.MethodGet, "/ping", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")

	w = s.do(t, http.MethodGet, "/get-books", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	s := setupServer(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/add-book"},
		{http.MethodPut, "/edit-book/1"},
		{http.MethodDelete, "/delete-book/1"},
		{http.MethodPost, "/add-review/1"},
		{http.MethodPut, "/edit-review/1"},
		{http.MethodDelete, "/delete-review/1"},
		{http.MethodGet, "/my-books"},
		{http.MethodGet, "/book-detail/1"},
		{http.MethodGet, "/my-activity"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := s.do(t, r.method, r.path, "", nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = s.do(t, r.method, r.path, "not-a-token", nil, "")
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_BasePath(t *testing.T) {
	s := setupServerWithBasePath(t, "api/")

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/ping", "", nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/get-books", "", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/ping", "", nil, "").Code)
}

func TestRouter_RegisterLoginAndUseToken(t *testing.T) {
	s := setupServer(t)

	w := s.doJSON(t, http.MethodPost, "/register", "",
		`{"name":"Ada","email":"ada@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.doJSON(t, http.MethodPost, "/login", "", `{"email":"ada@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = s.do(t, http.MethodGet, "/my-books", login.Token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNormalizeBasePath(t *testing.T) {
	tests := map[string]string{
		"":       "/",
		"/":      "/",
		"api":    "/api",
		"/api/":  "/api",
		" v1/x ": "/v1/x",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeBasePath(in), "input %q", in)
	}
}
