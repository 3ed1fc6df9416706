package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "hub-config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `secret = "s"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "0.0.0.0:8080" {
		t.Fatalf("Endpoint = %q, want default", cfg.Endpoint)
	}
	if cfg.WebRoot != "./static-files" {
		t.Fatalf("WebRoot = %q, want default", cfg.WebRoot)
	}
	if cfg.ImagePath != "./images" {
		t.Fatalf("ImagePath = %q, want default", cfg.ImagePath)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "0.0.0.0:8080" {
		t.Fatalf("Endpoint = %q, want default", cfg.Endpoint)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	path := writeConfig(t, `
endpoint = "127.0.0.1:9090"
secret = "filesecret"
web_root = "/srv/static"
index_path = "/var/lib/clipharbor/index.db"
image_path = "/var/lib/clipharbor/images"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "127.0.0.1:9090" || cfg.Secret != "filesecret" || cfg.WebRoot != "/srv/static" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadSecretEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `secret = "filesecret"`)
	t.Setenv("CLIPHARBOR_SECRET", "envsecret")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Secret != "envsecret" {
		t.Fatalf("Secret = %q, want env override", cfg.Secret)
	}
}

func TestLoadEndpointEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `endpoint = "127.0.0.1:1111"`)
	t.Setenv("CLIPHARBOR_ENDPOINT", "127.0.0.1:2222")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Endpoint != "127.0.0.1:2222" {
		t.Fatalf("Endpoint = %q, want env override", cfg.Endpoint)
	}
}

func TestLoadRequiresCertAndKeyWhenTLSEnabled(t *testing.T) {
	path := writeConfig(t, `
secret = "s"
use_tls = true
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error when use_tls is set without cert_path/key_path")
	}
}

func TestLoadAcceptsTLSWithCertAndKey(t *testing.T) {
	path := writeConfig(t, `
secret = "s"
use_tls = true
cert_path = "/etc/clipharbor/cert.pem"
key_path = "/etc/clipharbor/key.pem"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.UseTLS {
		t.Fatalf("UseTLS should be true")
	}
}
