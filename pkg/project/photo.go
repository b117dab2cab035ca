package project

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Photo is one imported image. Source is either a URL (http, https, data)
// or an asset reference understood by the loader.
type Photo struct {
	ID       string `json:"id"`
	Source   string `json:"url"`
	Name     string `json:"name"`
	MimeType string `json:"type"`
}

// NewPhoto creates a photo with a fresh ID.
func NewPhoto(source, name, mimeType string) Photo {
	return Photo{
		ID:       uuid.NewString(),
		Source:   source,
		Name:     name,
		MimeType: mimeType,
	}
}

// Validate rejects photos without a source or with a non-image mime type.
func (p Photo) Validate() error {
	if p.Source == "" {
		return fmt.Errorf("photo %q: empty source", p.Name)
	}
	if p.MimeType != "" && !strings.HasPrefix(p.MimeType, "image/") {
		return fmt.Errorf("photo %q: %s is not an image type", p.Name, p.MimeType)
	}
	return nil
}
