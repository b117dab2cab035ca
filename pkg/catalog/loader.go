// loader.go: Load catalogs from the embedded default, JSON files or ZIP bundles.
package catalog

import (
	"archive/zip"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

//go:embed default.json
var defaultJSON []byte

// bundleEntry is the catalog file name expected inside a ZIP bundle.
const bundleEntry = "catalog.json"

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Parse decodes a catalog document from JSON.
func Parse(data []byte) (*Catalog, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(doc)
}

// Load reads a catalog from path. A ".zip" file must contain catalog.json at
// its root; anything else is parsed as JSON. An empty path yields Default().
func Load(p string) (*Catalog, error) {
	if p == "" {
		return Default(), nil
	}

	if strings.EqualFold(filepath.Ext(p), ".zip") {
		return loadBundle(p)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", p, err)
	}
	return Parse(data)
}

// loadBundle opens a ZIP and parses its catalog.json entry.
func loadBundle(p string) (*Catalog, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", p, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := checkEntryName(f.Name); err != nil {
			return nil, err
		}
		if path.Clean(f.Name) != bundleEntry {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return Parse(data)
	}

	return nil, fmt.Errorf("%s: no %s in bundle", p, bundleEntry)
}

// checkEntryName rejects absolute and parent-relative entries (zip slip).
func checkEntryName(name string) error {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("illegal path in zip: %s", name)
	}
	return nil
}
