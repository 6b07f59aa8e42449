// internal/config/loader.go
//
// Configuration loader and reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` from three layers (highest
precedence last):

  1. Optional `.env` file — first `<root>/conf/.env`, then jail-wide fallback.
  2. `conf/openpdb.yaml`, whose top-level keys are git-style section
     headers (`database`, `database "replica"`).
  3. Environment variables prefixed `OPENPDB_`, where `__` maps to “.”
     (e.g., `OPENPDB_GLOBAL__VARDIR → global.vardir`).

After merging, raw values beginning `vault:` are resolved through the
Vault client, the document is handed to the resolution engine
(`Resolve`), and the result is cached in an `atomic.Pointer` for
lock-free reads.  `Reload()` calls `Load()` again and swaps the pointer;
concurrent reloads collapse into one flight.

Fatal issues (the retired global url-prefix) are returned alongside the
config; the engine never exits the process itself.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, resolution failures.
  • INFO  span  — final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/openpdb.yaml`;
    this lets `go run ./cmd/openpdb` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/openpdb/openpdb/internal/metrics"
	"github.com/openpdb/openpdb/internal/vault"
)

var (
	current     atomic.Pointer[Config]
	reloadGroup singleflight.Group
)

// SecretResolver resolves one `vault:mount/path#key` reference to its
// plain value.  internal/vault satisfies this; tests stub it.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string, ttl time.Duration) (string, error)
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves OPENPDB_ROOT or climbs directories until
// conf/openpdb.yaml is found.  Falls back to executable heuristic for
// production layout.
func rootDir() string {
	if r := os.Getenv("OPENPDB_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "openpdb.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, and env overrides, resolves secrets, runs the
// resolution engine, and caches the result.  secrets may be nil when no
// Vault is configured.
func Load(ctx context.Context, secrets SecretResolver) (*Config, []FatalIssue, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "openpdb.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: OPENPDB_GLOBAL__VARDIR → global.vardir
	if err := k.Load(env.Provider("OPENPDB_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, nil, err
	}

	raw := rawDocument(k)
	if err := resolveSecretRefs(ctx, secrets, raw); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, nil, err
	}

	cfg, fatal, err := Resolve(raw)
	if err != nil {
		zap.S().Errorw("config resolution failed", "err", err)
		return nil, nil, err
	}

	current.Store(cfg)
	zap.S().Infow("config loaded",
		"database", cfg.Database.Name,
		"read_database", cfg.ReadDatabase.Subname,
		"command_threads", cfg.CommandProcessing.Threads,
		"vardir", cfg.Global.Vardir,
	)
	return cfg, fatal, nil
}

// rawDocument flattens the koanf tree into the engine's input shape: one
// settings map per top-level section header.
func rawDocument(k *koanf.Koanf) map[string]Settings {
	raw := make(map[string]Settings)
	for section, val := range k.Raw() {
		settings, ok := val.(map[string]any)
		if !ok {
			// Scalar at the top level; keep it so the engine can warn.
			raw[section] = Settings{"": val}
			continue
		}
		s := make(Settings, len(settings))
		for key, v := range settings {
			s[key] = v
		}
		raw[section] = s
	}
	return raw
}

// resolveSecretRefs rewrites every `vault:` value in place.  A reference
// with no resolver configured is an operator error, not a silent string.
func resolveSecretRefs(ctx context.Context, secrets SecretResolver, raw map[string]Settings) error {
	for section, settings := range raw {
		for key, val := range settings {
			ref, ok := val.(string)
			if !ok || !strings.HasPrefix(ref, vault.RefPrefix) {
				continue
			}
			if secrets == nil {
				return newErrorf(KindDomain,
					"section %s: %s references a secret but no Vault is configured", section, key)
			}
			plain, err := secrets.Resolve(ctx, ref, 5*time.Minute)
			if err != nil {
				return newErrorf(KindDomain,
					"section %s: %s secret resolution failed: %v", section, key, err)
			}
			settings[key] = plain
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// Get returns the cached configuration, or nil before the first Load.
func Get() *Config { return current.Load() }

// Reload re-runs Load and swaps the cached pointer.  Concurrent callers
// share one flight.
func Reload(ctx context.Context, secrets SecretResolver) error {
	_, err, _ := reloadGroup.Do("reload", func() (any, error) {
		_, _, err := Load(ctx, secrets)
		if err != nil {
			metrics.ConfigReloadErrorsTotal.Inc()
			return nil, err
		}
		metrics.ConfigReloadTotal.Inc()
		return nil, nil
	})
	return err
}
