// cmd/openpdb/main.go
//
// openpdb – service entry point.
//
// Boot life-cycle
// ---------------
//
//  1. Load env vars (jail-wide file → .env fallback).
//
//  2. Start daily rotating logger (tees to console when running in a TTY).
//
//  3. Optional Vault client when VAULT_ADDR is set, so `vault:` references
//     in the configuration resolve to real secrets.
//
//  4. Resolve the configuration.  Fatal issues (retired settings that must
//     be removed by the operator) are printed with their guidance and the
//     process exits non-zero before touching any database.
//
//  5. Rebuild the logger at the resolved [developer] log-level.
//
//  6. Open the write and read database pools from the resolved profiles.
//
//  7. Status listener: /metrics (Prometheus), /status (JSON, optionally
//     pretty-printed per [developer] pretty-print), wrapped in the
//     security-header middleware.
//
//  8. SIGHUP triggers a config reload; SIGINT/SIGTERM drain the listener.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openpdb/openpdb/internal/config"
	"github.com/openpdb/openpdb/internal/database"
	"github.com/openpdb/openpdb/internal/logger"
	"github.com/openpdb/openpdb/internal/middleware"
	"github.com/openpdb/openpdb/internal/server"
	"github.com/openpdb/openpdb/internal/vault"
)

const (
	serverEnvPath     = "/usr/local/etc/openpdb/global.env"
	defaultListenAddr = ":8080"
)

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, "info", runningInTTY())
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	//
	// ── 1.  Optional Vault client ───────────────────────────────────────
	//
	var secrets config.SecretResolver
	if os.Getenv("VAULT_ADDR") != "" {
		cli, err := vault.New(ctx, logOut.Infof)
		if err != nil {
			logOut.Fatalf("vault client: %v", err)
		}
		secrets = cli
	}

	//
	// ── 2.  Resolve configuration ───────────────────────────────────────
	//
	cfg, fatal, err := config.Load(ctx, secrets)
	if err != nil {
		logOut.Fatalf("resolve configuration: %v", err)
	}
	if len(fatal) > 0 {
		for _, f := range fatal {
			logOut.Errorw("fatal configuration issue", "setting", f.Setting, "guidance", f.Guidance)
		}
		os.Exit(1)
	}

	// Rebuild at the resolved level; the bootstrap logger ran at info.
	if cfg.Developer.LogLevel != "info" {
		if logOut, err = logger.New(rootDir, cfg.Developer.LogLevel, runningInTTY()); err != nil {
			log.Fatalf("rebuild logger: %v", err)
		}
	}

	//
	// ── 3.  Database pools ──────────────────────────────────────────────
	//
	logOut.Infow("connecting write pool", "dsn", database.DSN(cfg.Database))
	writeDB, err := database.Open(cfg.Database)
	if err != nil {
		logOut.Fatalf("connect write pool: %v", err)
	}
	defer database.Close(writeDB)

	logOut.Infow("connecting read pool", "dsn", database.DSN(cfg.ReadDatabase))
	readDB, err := database.Open(cfg.ReadDatabase)
	if err != nil {
		logOut.Fatalf("connect read pool: %v", err)
	}
	defer database.Close(readDB)

	//
	// ── 4.  Status listener ─────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Security)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/status", statusHandler(config.Get, writeDB, readDB))

	addr := os.Getenv("OPENPDB_LISTEN")
	if addr == "" {
		addr = defaultListenAddr
	}
	srv := server.New(addr, r)

	//
	// ── 5.  Reload on SIGHUP ────────────────────────────────────────────
	//
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if err := config.Reload(ctx, secrets); err != nil {
				logOut.Errorw("config reload failed", "err", err)
				continue
			}
			logOut.Infow("config reloaded")
		}
	}()

	go func() {
		logOut.Infof("status listener on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logOut.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logOut.Infow("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutCtx)
}

// statusHandler reports pool health, the backend version, and a few
// resolved highlights.  The response is pretty-printed when [developer]
// pretty-print is on.  getCfg is config.Get in production; tests inject a
// literal.
func statusHandler(getCfg func() *config.Config, writeDB, readDB *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := getCfg()

		healthy := true
		for _, db := range []*sqlx.DB{writeDB, readDB} {
			if err := db.Ping(); err != nil {
				healthy = false
				break
			}
		}

		version := ""
		if healthy {
			if v, err := database.ServerVersion(readDB); err == nil {
				version = v
			}
		}

		body := map[string]any{
			"healthy":          healthy,
			"database_version": version,
			"product":          cfg.Global.ProductName,
			"command_threads":  cfg.CommandConcurrency(),
			"read_only_pool":   cfg.ReadDatabase.ReadOnly,
		}

		w.Header().Set("Content-Type", "application/json")
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		enc := json.NewEncoder(w)
		if cfg.Developer.PrettyPrint {
			enc.SetIndent("", "  ")
		}
		_ = enc.Encode(body)
	}
}
