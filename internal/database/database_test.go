// internal/database/database_test.go
//
// DSN construction from resolved profiles.
package database

import (
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/openpdb/openpdb/internal/config"
)

func TestServerVersion(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	db := sqlx.NewDb(raw, "mysql")
	defer db.Close()

	mock.ExpectQuery(`SELECT VERSION\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"VERSION()"}).AddRow("8.0.36"))

	got, err := ServerVersion(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "8.0.36" {
		t.Fatalf("version = %q", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDSNFromProfile(t *testing.T) {
	p := &config.DatabaseProfile{
		Name:              "default",
		Subname:           "//db.example.net:3306/openpdb",
		User:              "alice",
		Password:          "hunter2",
		MaximumPoolSize:   25,
		ConnectionTimeout: 3000,
		ReportTTL:         14 * 24 * time.Hour,
	}

	got := dsn(p, false)
	want := "alice:hunter2@tcp(db.example.net:3306)/openpdb?parseTime=true&timeout=3000ms"
	if got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}

func TestDSNElidesPassword(t *testing.T) {
	p := &config.DatabaseProfile{
		Subname:  "//localhost/openpdb",
		Username: "svc",
		Password: "secret",
	}

	got := DSN(p)
	if strings.Contains(got, "secret") {
		t.Fatalf("password leaked into logged DSN: %q", got)
	}
	if !strings.Contains(got, "svc:****@") {
		t.Fatalf("expected elided credential, got %q", got)
	}
}

func TestDSNFallsBackToUsername(t *testing.T) {
	p := &config.DatabaseProfile{
		Subname:  "//localhost/openpdb",
		Username: "bob",
	}
	if got := dsn(p, false); !strings.HasPrefix(got, "bob@tcp(") {
		t.Fatalf("expected username fallback, got %q", got)
	}
}

func TestSplitSubname(t *testing.T) {
	cases := []struct {
		in, addr, name string
	}{
		{"//db:5432/openpdb", "db:5432", "openpdb"},
		{"localhost/pdb", "localhost", "pdb"},
		{"//solo", "solo", ""},
	}
	for _, c := range cases {
		addr, name := splitSubname(c.in)
		if addr != c.addr || name != c.name {
			t.Errorf("splitSubname(%q) = (%q, %q), want (%q, %q)",
				c.in, addr, name, c.addr, c.name)
		}
	}
}

func TestIdleConns(t *testing.T) {
	if got := idleConns(25); got != 8 {
		t.Fatalf("idleConns(25) = %d, want 8", got)
	}
	if got := idleConns(3); got != 2 {
		t.Fatalf("idleConns(3) = %d, want 2 (floor)", got)
	}
}
