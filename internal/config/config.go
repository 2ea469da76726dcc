package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `toml:"mode"`
}

type StoreConfig struct {
	// Backend is "sqlite" or "memgraph".
	Backend    string `toml:"backend"`
	SQLitePath string `toml:"sqlite_path"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type AuthConfig struct {
	Enabled       bool   `toml:"enabled"`
	JWTSecret     string `toml:"jwt_secret"`
	SecureCookie  bool   `toml:"secure_cookie"`
	ProtectIngest bool   `toml:"protect_ingest"`
}

type CatalogConfig struct {
	Dir      string `toml:"dir"`
	Fallback string `toml:"fallback"`
	// Match is "exact" or "substring".
	Match string `toml:"match"`
}

type LocaleConfig struct {
	Default  string `toml:"default"`
	Timezone string `toml:"timezone"`
}

type ReportConfig struct {
	FontsDir    string `toml:"fonts_dir"`
	LatinFont   string `toml:"latin_font"`
	BengaliFont string `toml:"bengali_font"`
	ArabicFont  string `toml:"arabic_font"`
	// Rasterizer is "native" or "browser".
	Rasterizer        string `toml:"rasterizer"`
	BrowserControlURL string `toml:"browser_control_url"`
	RasterTimeoutSec  int    `toml:"raster_timeout_sec"`
}

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type SummaryPrompts struct {
	Garden string `toml:"garden"`
}

type ConcurrencyConfig struct {
	BulkReports int `toml:"bulk_reports"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type Config struct {
	Server      ServerConfig      `toml:"server"`
	Store       StoreConfig       `toml:"store"`
	Memgraph    MemgraphConfig    `toml:"memgraph"`
	Auth        AuthConfig        `toml:"auth"`
	Catalog     CatalogConfig     `toml:"catalog"`
	Locale      LocaleConfig      `toml:"locale"`
	Report      ReportConfig      `toml:"report"`
	LLM         LLMConfig         `toml:"llm"`
	Summary     SummaryPrompts    `toml:"summary"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
	Log         LogConfig         `toml:"log"`
}

const defaultGardenPrompt = `You are an agronomist writing for citrus growers.
Locale: %s

Aggregated predictions across the garden (class: total score):
%s

Knowledge base notes for the leading classes:
%s

Write a short plain-language summary (at most 4 sentences) of the garden's condition and the first actions to take.
Return a JSON object: { "summary": "..." }`

// Default returns a configuration that runs locally with no external
// services.
func Default() *Config {
	return &Config{
		Server:      ServerConfig{Port: "8080", Mode: "release"},
		Store:       StoreConfig{Backend: "sqlite", SQLitePath: "data/drorange.db"},
		Memgraph:    MemgraphConfig{URI: "bolt://localhost:7687"},
		Auth:        AuthConfig{Enabled: false},
		Catalog:     CatalogConfig{Fallback: "en", Match: "exact"},
		Locale:      LocaleConfig{Default: "cn", Timezone: "Local"},
		Report:      ReportConfig{
			LatinFont:        "NotoSans-Regular.ttf",
			BengaliFont:      "NotoSansBengali-Regular.ttf",
			ArabicFont:       "NotoSansArabic-Regular.ttf",
			Rasterizer:       "native",
			RasterTimeoutSec: 15,
		},
		Summary:     SummaryPrompts{Garden: defaultGardenPrompt},
		Concurrency: ConcurrencyConfig{BulkReports: 4},
		Log:         LogConfig{Level: "info"},
	}
}

// Load reads a TOML file on top of Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// ApplyEnv overrides selected keys from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.Mode = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := os.Getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := os.Getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("AUTH_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Auth.Enabled = b
		}
	}
	if v := os.Getenv("CATALOG_DIR"); v != "" {
		c.Catalog.Dir = v
	}
	if v := os.Getenv("FONTS_DIR"); v != "" {
		c.Report.FontsDir = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "memgraph":
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Store.Backend)
	}
	switch c.Report.Rasterizer {
	case "native", "browser":
	default:
		return fmt.Errorf("unsupported rasterizer: %s", c.Report.Rasterizer)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth enabled but jwt_secret is empty")
	}
	if c.Concurrency.BulkReports < 1 {
		return fmt.Errorf("concurrency.bulk_reports must be at least 1")
	}
	return nil
}
