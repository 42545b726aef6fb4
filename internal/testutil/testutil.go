package testutil

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/linkshelf/api/internal/database"
)

// TestDB creates an in-memory SQLite database with migrations applied.
// The database is automatically closed when the test completes.
func TestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("running migrations: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db.DB
}

// HTMLServer starts a test server that answers every request with the given
// HTML body. The server is closed when the test completes.
func HTMLServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return Server(t, "text/html; charset=utf-8", http.StatusOK, body)
}

// Server starts a test server answering every request with a fixed content
// type, status code and body.
func Server(t *testing.T, contentType string, status int, body string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}
