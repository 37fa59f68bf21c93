package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/database"
)

func setupHealthTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "health.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func getHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database and uploads are available", func(t *testing.T) {
		db := setupHealthTestDB(t)

		code, response := getHealth(t, NewHealthController(db, t.TempDir(), "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok", response.Checks["uploads"])
		assert.Contains(t, response.Time, "T")
	})

	t.Run("reports unconfigured database", func(t *testing.T) {
		code, response := getHealth(t, NewHealthController(nil, "", "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "not configured", response.Checks["database"])
		assert.NotContains(t, response.Checks, "uploads")
	})

	t.Run("returns unhealthy when database connection is closed", func(t *testing.T) {
		db, err := database.NewQuietDatabase(filepath.Join(t.TempDir(), "closed.db"))
		require.NoError(t, err)
		require.NoError(t, db.Close())

		code, response := getHealth(t, NewHealthController(db, "", "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "error")
	})

	t.Run("missing uploads directory degrades but stays up", func(t *testing.T) {
		db := setupHealthTestDB(t)
		missing := filepath.Join(t.TempDir(), "does-not-exist")

		code, response := getHealth(t, NewHealthController(db, missing, ""))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "missing", response.Checks["uploads"])
		assert.Empty(t, response.Version)
	})
}

func TestHealthController_Ping(t *testing.T) {
	router := gin.New()
	router.GET("/ping", NewHealthController(nil, "", "").Ping)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
