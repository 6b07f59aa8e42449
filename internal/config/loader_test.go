// internal/config/loader_test.go
//
// Document flattening and secret-reference rewriting.
package config

import (
	"context"
	"testing"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	koanf "github.com/knadh/koanf/v2"
)

func TestRawDocumentFlattensSections(t *testing.T) {
	src := []byte(`
database:
  subname: //db/openpdb
database "replica":
  subname: //replica/openpdb
global:
  vardir: /var/lib/openpdb
`)
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(src), yaml.Parser()); err != nil {
		t.Fatalf("yaml: %v", err)
	}

	raw := rawDocument(k)
	if raw["database"]["subname"] != "//db/openpdb" {
		t.Errorf("database: %v", raw["database"])
	}
	if raw[`database "replica"`]["subname"] != "//replica/openpdb" {
		t.Errorf("replica: %v", raw[`database "replica"`])
	}
	if raw["global"]["vardir"] != "/var/lib/openpdb" {
		t.Errorf("global: %v", raw["global"])
	}
}

type stubResolver map[string]string

func (s stubResolver) Resolve(_ context.Context, ref string, _ time.Duration) (string, error) {
	return s[ref], nil
}

func TestResolveSecretRefs(t *testing.T) {
	raw := map[string]Settings{
		"database": {
			"subname":  "//db/openpdb",
			"password": "vault:kv/openpdb#db-password",
		},
	}
	secrets := stubResolver{"vault:kv/openpdb#db-password": "s3cret"}

	if err := resolveSecretRefs(context.Background(), secrets, raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raw["database"]["password"] != "s3cret" {
		t.Errorf("password = %v", raw["database"]["password"])
	}
	if raw["database"]["subname"] != "//db/openpdb" {
		t.Errorf("plain value rewritten: %v", raw["database"]["subname"])
	}
}

func TestResolveSecretRefsWithoutResolver(t *testing.T) {
	raw := map[string]Settings{
		"database": {"password": "vault:kv/openpdb#db-password"},
	}
	err := resolveSecretRefs(context.Background(), nil, raw)
	assertKind(t, err, KindDomain)
}
