// Package catalog holds the localized class knowledge base used to
// annotate predictions in reports and the dashboard.
package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/atanuroy911/drorange-webapp/internal/core/model"
)

// MatchMode selects how Lookup relates an input label to catalog names.
type MatchMode string

const (
	// MatchExact compares normalized keys for equality.
	MatchExact MatchMode = "exact"
	// MatchSubstring accepts either normalized name containing the other
	// and returns the first entry in catalog order. Short names such as
	// "N" match many unrelated labels in this mode.
	MatchSubstring MatchMode = "substring"
)

// ParseMatchMode maps a config string to a MatchMode. Empty means exact.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", MatchExact:
		return MatchExact, nil
	case MatchSubstring:
		return MatchSubstring, nil
	default:
		return "", fmt.Errorf("unknown catalog match mode %q", s)
	}
}

// Lookup resolves a classifier label to its catalog entry.
type Lookup interface {
	Lookup(className string) (model.CatalogEntry, bool)
}

// Key normalizes a label: NFKC, trimmed, inner whitespace collapsed to one
// space, case folded.
func Key(s string) string {
	s = norm.NFKC.String(s)
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	// Casers carry state; one per call keeps Key safe for concurrent use.
	return cases.Fold().String(strings.Join(fields, " "))
}

// Catalog is an immutable table for one locale.
type Catalog struct {
	locale  string
	mode    MatchMode
	entries []model.CatalogEntry
	keys    []string
	index   map[string]int
}

// New builds a catalog. Every entry needs a class name, and no two names
// may share a normalized key.
func New(locale string, mode MatchMode, entries []model.CatalogEntry) (*Catalog, error) {
	c := &Catalog{
		locale:  locale,
		mode:    mode,
		entries: make([]model.CatalogEntry, 0, len(entries)),
		keys:    make([]string, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		k := Key(e.ClassName)
		if k == "" {
			return nil, fmt.Errorf("catalog %s: entry %d has no className", locale, i)
		}
		if prev, dup := c.index[k]; dup {
			return nil, fmt.Errorf("catalog %s: %q and %q share key %q", locale, c.entries[prev].ClassName, e.ClassName, k)
		}
		c.index[k] = len(c.entries)
		c.entries = append(c.entries, e)
		c.keys = append(c.keys, k)
	}
	return c, nil
}

func (c *Catalog) Locale() string {
	return c.locale
}

func (c *Catalog) Mode() MatchMode {
	return c.mode
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the entries in catalog order.
func (c *Catalog) Entries() []model.CatalogEntry {
	out := make([]model.CatalogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup finds the entry for className. Empty input never matches.
func (c *Catalog) Lookup(className string) (model.CatalogEntry, bool) {
	if c == nil {
		return model.CatalogEntry{}, false
	}
	k := Key(className)
	if k == "" {
		return model.CatalogEntry{}, false
	}

	if c.mode != MatchSubstring {
		i, ok := c.index[k]
		if !ok {
			return model.CatalogEntry{}, false
		}
		return c.entries[i], true
	}

	for i, name := range c.keys {
		if strings.Contains(name, k) || strings.Contains(k, name) {
			return c.entries[i], true
		}
	}
	return model.CatalogEntry{}, false
}
