package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDNSPort    = 5354
	DefaultProxyPort  = 18888
	DefaultTTLMinutes = 60
)

type Config struct {
	// DNSPort and ProxyPort bind on 127.0.0.1.
	DNSPort   int
	ProxyPort int
	// TTLMinutes for the resolution cache; 0 disables caching.
	TTLMinutes int
	// Upstream gateway URL template with an $ADDRESS placeholder;
	// empty means direct chunk fetch.
	Upstream string
	// Answer is the A-record address handed out for names in the
	// zone; empty means 127.0.0.1.
	Answer string
	// MaxCacheEntries bounds the resolution cache.
	MaxCacheEntries int
	// BaseDir for the pid file and key store; empty means the
	// default client data directory.
	BaseDir string
}

func DefaultConfig() Config {
	return Config{
		DNSPort:    DefaultDNSPort,
		ProxyPort:  DefaultProxyPort,
		TTLMinutes: DefaultTTLMinutes,
	}
}

// fileConfig mirrors Config with pointer fields, so that a config
// file can set an option to its zero value (in particular ttlMinutes:
// 0) and omitted options fall back to defaults.
type fileConfig struct {
	DNSPort         *int    `yaml:"dnsPort"`
	ProxyPort       *int    `yaml:"proxyPort"`
	TTLMinutes      *int    `yaml:"ttlMinutes"`
	Upstream        *string `yaml:"upstream"`
	Answer          *string `yaml:"answer"`
	MaxCacheEntries *int    `yaml:"maxCacheEntries"`
	BaseDir         *string `yaml:"baseDir"`
}

// LoadConfig reads a YAML config file and merges it over the
// defaults. A missing path returns the defaults untouched.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %v", err)
	}
	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Config{}, fmt.Errorf("parsing config file %q: %v", path, err)
	}
	merge(&cfg, parsed)
	return cfg, nil
}

func merge(dst *Config, src fileConfig) {
	if src.DNSPort != nil {
		dst.DNSPort = *src.DNSPort
	}
	if src.ProxyPort != nil {
		dst.ProxyPort = *src.ProxyPort
	}
	if src.TTLMinutes != nil {
		dst.TTLMinutes = *src.TTLMinutes
	}
	if src.Upstream != nil {
		dst.Upstream = *src.Upstream
	}
	if src.Answer != nil {
		dst.Answer = *src.Answer
	}
	if src.MaxCacheEntries != nil {
		dst.MaxCacheEntries = *src.MaxCacheEntries
	}
	if src.BaseDir != nil {
		dst.BaseDir = *src.BaseDir
	}
}
