// cmd/openpdb/main_test.go
//
// Status endpoint: health, backend version, and pretty-printing.
package main

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/openpdb/openpdb/internal/config"
)

func TestStatusHandler(t *testing.T) {
	cfg, _, err := config.Resolve(map[string]config.Settings{
		"database":  {"subname": "//db/openpdb"},
		"developer": {"pretty-print": "true"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := sqlx.NewDb(raw, "mysql")
	defer db.Close()

	mock.ExpectQuery(`SELECT VERSION\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"VERSION()"}).AddRow("8.0.36"))

	rec := httptest.NewRecorder()
	statusHandler(func() *config.Config { return cfg }, db, db)(
		rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["healthy"] != true {
		t.Errorf("healthy = %v", body["healthy"])
	}
	if body["database_version"] != "8.0.36" {
		t.Errorf("database_version = %v", body["database_version"])
	}
	if body["product"] != "openpdb" {
		t.Errorf("product = %v", body["product"])
	}

	// pretty-print on → indented output.
	if !strings.Contains(rec.Body.String(), "\n  ") {
		t.Error("expected indented response with pretty-print enabled")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
