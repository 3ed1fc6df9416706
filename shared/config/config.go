// Package config loads the hub's TOML configuration file: file defaults,
// then an environment variable override for secrets.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// HubConfig holds the hub's configuration keys.
type HubConfig struct {
	Endpoint  string `toml:"endpoint"`
	Secret    string `toml:"secret"`
	UseTLS    bool   `toml:"use_tls"`
	CertPath  string `toml:"cert_path"`
	KeyPath   string `toml:"key_path"`
	WebRoot   string `toml:"web_root"`
	IndexPath string `toml:"index_path"`
	ImagePath string `toml:"image_path"`
}

// defaults returns the hub's baseline configuration: `web_root` defaults
// to `./static-files`, `image_path` to `./images`, plus a conventional
// default bind address.
func defaults() HubConfig {
	return HubConfig{
		Endpoint:  "0.0.0.0:8080",
		WebRoot:   "./static-files",
		ImagePath: "./images",
	}
}

// Load reads the hub's TOML config file at path, applying defaults for any
// key the file omits and allowing CLIPHARBOR_SECRET to override the secret
// without committing it to disk.
//
// WHY eager secret env override: lets operators inject bearer secrets via
// container/CI environment variables instead of checking them into a
// config file.
func Load(path string) (*HubConfig, error) {
	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse hub config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read hub config %s: %w", path, err)
	}

	if secret := os.Getenv("CLIPHARBOR_SECRET"); secret != "" {
		cfg.Secret = secret
	}
	if endpoint := os.Getenv("CLIPHARBOR_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = endpoint
	}

	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required (set in config file or CLIPHARBOR_ENDPOINT env var)")
	}
	if cfg.UseTLS && (cfg.CertPath == "" || cfg.KeyPath == "") {
		return nil, fmt.Errorf("cert_path and key_path are required when use_tls is true")
	}

	return &cfg, nil
}
