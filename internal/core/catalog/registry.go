package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

//go:embed data/*.yaml
var embedded embed.FS

// ErrUnknownLocale is returned when neither the locale nor the fallback
// has a catalog file.
var ErrUnknownLocale = errors.New("no catalog for locale")

type file struct {
	Locale  string               `yaml:"locale"`
	Classes []model.CatalogEntry `yaml:"classes"`
}

// Parse decodes a YAML catalog file.
func Parse(locale string, mode MatchMode, data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", locale, err)
	}
	return New(locale, mode, f.Classes)
}

// Registry loads catalogs on first use per locale and swaps a whole table
// on reload, so a lookup never observes a half-loaded catalog.
type Registry struct {
	dir      string
	fallback string
	mode     MatchMode
	logger   *zap.Logger

	mu     sync.RWMutex
	tables map[string]*Catalog
}

type RegistryOptions struct {
	// Dir holds <locale>.yaml overrides. Empty disables overrides.
	Dir string
	// Fallback is used for locales with no file of their own.
	Fallback string
	Mode     MatchMode
	Logger   *zap.Logger
}

func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	mode := opts.Mode
	if mode == "" {
		mode = MatchExact
	}
	return &Registry{
		dir:      opts.Dir,
		fallback: opts.Fallback,
		mode:     mode,
		logger:   logger,
		tables:   make(map[string]*Catalog),
	}
}

// Dir is the override directory, possibly empty.
func (r *Registry) Dir() string {
	return r.dir
}

// Get returns the catalog for locale, loading it on first use.
func (r *Registry) Get(locale string) (*Catalog, error) {
	r.mu.RLock()
	c, ok := r.tables[locale]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}
	return r.Reload(locale)
}

// Reload reads the locale again and replaces the cached table. Cached
// locales served from this locale's file through the fallback are
// reloaded with it. On error the previous table stays in place.
func (r *Registry) Reload(locale string) (*Catalog, error) {
	c, err := r.store(locale)
	if err != nil {
		return nil, err
	}

	for _, dep := range r.servedBy(locale) {
		if _, err := r.store(dep); err != nil {
			r.logger.Warn("catalog reload failed, keeping previous table",
				zap.String("locale", dep), zap.Error(err))
		}
	}
	return c, nil
}

func (r *Registry) store(locale string) (*Catalog, error) {
	c, err := r.load(locale)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.tables[locale] = c
	r.mu.Unlock()

	r.logger.Info("catalog loaded",
		zap.String("locale", locale),
		zap.String("source", c.Locale()),
		zap.Int("classes", c.Len()))
	return c, nil
}

// servedBy lists the other cached locales whose table came from source.
func (r *Registry) servedBy(source string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for l, c := range r.tables {
		if l != source && c.Locale() == source {
			out = append(out, l)
		}
	}
	return out
}

// Loaded lists the locales currently cached.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.tables))
	for l := range r.tables {
		out = append(out, l)
	}
	return out
}

func (r *Registry) load(locale string) (*Catalog, error) {
	data, err := r.read(locale)
	source := locale
	if errors.Is(err, fs.ErrNotExist) && r.fallback != "" && r.fallback != locale {
		data, err = r.read(r.fallback)
		source = r.fallback
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	if err != nil {
		return nil, err
	}
	return Parse(source, r.mode, data)
}

func (r *Registry) read(locale string) ([]byte, error) {
	if r.dir != "" {
		data, err := os.ReadFile(filepath.Join(r.dir, locale+".yaml"))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read catalog override %s: %w", locale, err)
		}
	}
	return embedded.ReadFile("data/" + locale + ".yaml")
}
