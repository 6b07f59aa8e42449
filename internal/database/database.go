// Package database centralises sqlx connection helpers.  The default driver
// is go-sql-driver/mysql, which also works with MariaDB and Cockroach when
// configured for the MySQL wire protocol.
//
// Public entry points:
//
//	Open(profile)  – open one pool from a resolved database profile.
//	DSN(profile)   – the connection string Open would use, for logging
//	                 and tests (password elided).
//
// Open pings the database before returning so callers can fail fast during
// bootstrap.  Callers should Close() the returned *sqlx.DB when no longer
// needed; the pool gauge tracks open pools either way.
package database

import (
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/openpdb/openpdb/internal/config"
	"github.com/openpdb/openpdb/internal/metrics"
)

// Open builds a pool from a resolved profile.  Pool sizing, timeouts, and
// the read-only flag all come from the profile; nothing is hard-coded
// beyond the connection lifetime.
func Open(p *config.DatabaseProfile) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsn(p, false))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p.Name, err)
	}

	db.SetMaxOpenConns(p.MaximumPoolSize)
	db.SetMaxIdleConns(idleConns(p.MaximumPoolSize))
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", p.Name, err)
	}

	metrics.DatabasePoolsOpen.Inc()
	return db, nil
}

// Close closes a pool opened by Open and decrements the pool gauge.
func Close(db *sqlx.DB) error {
	metrics.DatabasePoolsOpen.Dec()
	return db.Close()
}

// DSN returns the connection string for a profile with the password
// replaced by "****".  Use it for startup logs; Open uses the real one.
func DSN(p *config.DatabaseProfile) string {
	return dsn(p, true)
}

// ServerVersion reports the backend version string, used by the status
// endpoint and startup logs.
func ServerVersion(db *sqlx.DB) (string, error) {
	var version string
	if err := db.Get(&version, "SELECT VERSION()"); err != nil {
		return "", fmt.Errorf("server version: %w", err)
	}
	return version, nil
}

// dsn renders `user:pass@tcp(host:port)/db?params` from the profile.  The
// subname keeps its JDBC-ish shape (`//host:port/db`), so we strip the
// leading slashes and split on the first remaining one.
func dsn(p *config.DatabaseProfile, elide bool) string {
	addr, name := splitSubname(p.Subname)

	user := p.User
	if user == "" {
		user = p.Username
	}
	pass := p.Password
	if elide && pass != "" {
		pass = "****"
	}

	params := []string{"parseTime=true"}
	if p.ConnectionTimeout > 0 {
		params = append(params, fmt.Sprintf("timeout=%dms", p.ConnectionTimeout))
	}
	if p.HasStatementTimeout && p.StatementTimeout > 0 {
		params = append(params, fmt.Sprintf("readTimeout=%dms", p.StatementTimeout))
	}
	if p.ReadOnly {
		params = append(params, "rejectReadOnly=false")
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	return fmt.Sprintf("%s@tcp(%s)/%s?%s", cred, addr, name, strings.Join(params, "&"))
}

// splitSubname turns `//host:port/db` into its address and database name.
// A bare `host/db` (no leading slashes) is accepted too.
func splitSubname(subname string) (addr, name string) {
	s := strings.TrimPrefix(subname, "//")
	addr, name, ok := strings.Cut(s, "/")
	if !ok {
		return s, ""
	}
	return addr, name
}

func idleConns(maxOpen int) int {
	idle := maxOpen / 3
	if idle < 2 {
		idle = 2
	}
	return idle
}
