package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"modulehub/internal/config"
	"modulehub/internal/database"
	"modulehub/internal/middleware"
	"modulehub/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

// testEnv is a fully wired server on in-memory SQLite and miniredis.
type testEnv struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	redis *redis.Client
}

func newTestEnv(t *testing.T, modules string) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:        testSecret,
		AllowedOrigins:   "*",
		Modules:          modules,
		MediaStorage:     "local",
		MediaUploadDir:   t.TempDir(),
		MediaBaseURL:     "/media",
		MediaMaxUploadMB: 5,
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.NewApp(), db: db, redis: rdb}
}

// user inserts a user and returns it with a valid access token.
func (e *testEnv) user(t *testing.T, email string, admin bool) (*models.User, string) {
	t.Helper()
	u := &models.User{Name: "Test " + email, Username: email, Email: email, Password: "hash", IsAdmin: admin}
	require.NoError(t, e.db.Create(u).Error)
	token, _, err := middleware.IssueToken(testSecret, u.ID)
	require.NoError(t, err)
	return u, token
}

// do sends a JSON request. body may be nil; token may be empty.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
