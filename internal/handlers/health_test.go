package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"

	"graysky/internal/config"
	"graysky/internal/database"
)

func TestHealthFileBackend(t *testing.T) {
	app := fiber.New()
	app.Get("/health", NewHealthHandler(nil, config.BackendFile).Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Status   string `json:"status"`
		Version  string `json:"version"`
		Database struct {
			Backend string `json:"backend"`
			Status  string `json:"status"`
		} `json:"database"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Status != "healthy" || body.Version != Version {
		t.Fatalf("unexpected health payload: %+v", body)
	}
	if body.Database.Backend != config.BackendFile {
		t.Fatalf("unexpected backend: %q", body.Database.Backend)
	}
}

func TestHealthSQLiteBackend(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New failed: %v", err)
	}
	defer db.Close()
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	app := fiber.New()
	app.Get("/health", NewHealthHandler(db, config.BackendSQLite).Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestHealthReportsUnhealthyDatabase(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("database.New failed: %v", err)
	}
	db.Close()

	app := fiber.New()
	app.Get("/health", NewHealthHandler(db, config.BackendSQLite).Handle)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil), -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}
