// Package bundle reads and writes portable project archives: a ZIP holding
// project.json and the photo files it references under photos/.
package bundle

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/xob0t/GoBooth/pkg/loader"
	"github.com/xob0t/GoBooth/pkg/project"
)

var ErrInvalidBundle = errors.New("invalid project bundle")

const (
	manifestName = "project.json"
	photoDir     = "photos/"
	version      = 1
	// MaxEntryBytes caps a single decompressed entry.
	MaxEntryBytes = 64 << 20
)

// Fetcher returns the raw bytes of a photo source. *loader.Loader satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

type manifest struct {
	Version int             `json:"version"`
	Project project.Project `json:"project"`
}

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

// extensionForMime returns a file extension for a photo mime type.
func extensionForMime(mimeType string) string {
	if ext, ok := extensions[mimeType]; ok {
		return ext
	}
	return ".bin"
}

// Write archives p and every photo's bytes to w.
func Write(ctx context.Context, w io.Writer, p project.Project, fetch Fetcher) error {
	zw := zip.NewWriter(w)
	out := p.Clone()

	for i, ph := range out.Photos {
		data, err := fetch.Fetch(ctx, ph.Source)
		if err != nil {
			return fmt.Errorf("photo %s: %w", ph.ID, err)
		}
		mimeType := ph.MimeType
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		name := photoDir + safeName(ph.ID) + extensionForMime(mimeType)
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		out.Photos[i].Source = name
		out.Photos[i].MimeType = mimeType
	}

	data, err := json.MarshalIndent(manifest{Version: version, Project: out}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", manifestName, err)
	}
	fw, err := zw.Create(manifestName)
	if err != nil {
		return fmt.Errorf("create %s: %w", manifestName, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", manifestName, err)
	}
	return zw.Close()
}

// Read parses an archive produced by Write. Photo sources are rewritten to
// inline data URLs so the project is self-contained.
func Read(r io.ReaderAt, size int64) (project.Project, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return project.Project{}, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		if err := checkEntryName(f.Name); err != nil {
			return project.Project{}, err
		}
		entries[path.Clean(f.Name)] = f
	}

	mf, ok := entries[manifestName]
	if !ok {
		return project.Project{}, fmt.Errorf("%w: no %s", ErrInvalidBundle, manifestName)
	}
	data, err := readEntry(mf)
	if err != nil {
		return project.Project{}, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return project.Project{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidBundle, manifestName, err)
	}
	if m.Version != version {
		return project.Project{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidBundle, m.Version)
	}

	p := m.Project.Clone()
	for i, ph := range p.Photos {
		if !strings.HasPrefix(ph.Source, photoDir) {
			continue
		}
		f, ok := entries[path.Clean(ph.Source)]
		if !ok {
			return project.Project{}, fmt.Errorf("%w: missing %s", ErrInvalidBundle, ph.Source)
		}
		raw, err := readEntry(f)
		if err != nil {
			return project.Project{}, err
		}
		p.Photos[i].Source = loader.DataURL(ph.MimeType, raw)
	}
	if p.LayoutID == "" {
		p.LayoutID = project.DefaultLayoutID
	}
	p.Customization = p.Customization.Normalize()
	return p, nil
}

// Open reads a bundle from disk.
func Open(name string) (project.Project, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return project.Project{}, fmt.Errorf("open %s: %w", name, err)
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrInvalidBundle, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, MaxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalidBundle, f.Name, err)
	}
	if len(data) > MaxEntryBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidBundle, f.Name, MaxEntryBytes)
	}
	return data, nil
}

// checkEntryName rejects absolute and parent-relative entries (zip slip).
func checkEntryName(name string) error {
	clean := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("%w: illegal path in zip: %s", ErrInvalidBundle, name)
	}
	return nil
}

// safeName keeps photo IDs usable as file names.
func safeName(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, id)
}
