// record.go - Wire records for the REST API. The API uses snake_case field
// names; translation to and from the project model happens only here.
package server

import (
	"time"

	"github.com/xob0t/GoBooth/pkg/project"
	"github.com/xob0t/GoBooth/pkg/store"
)

type photoRecord struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type photoCreate struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// customizationRecord replaces a whole customization. A missing spacing
// means the default; an explicit 0 is kept.
type customizationRecord struct {
	BorderColor     string   `json:"border_color"`
	BackgroundColor string   `json:"background_color"`
	Spacing         *float64 `json:"spacing"`
	Text            string   `json:"text"`
	TextColor       string   `json:"text_color"`
	TextSize        float64  `json:"text_size"`
	TextPosition    string   `json:"text_position"`
}

// customizationPatch is a partial update; absent fields keep their value.
type customizationPatch struct {
	BorderColor     *string  `json:"border_color"`
	BackgroundColor *string  `json:"background_color"`
	Spacing         *float64 `json:"spacing"`
	Text            *string  `json:"text"`
	TextColor       *string  `json:"text_color"`
	TextSize        *float64 `json:"text_size"`
	TextPosition    *string  `json:"text_position"`
}

type projectRecord struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Photos        []photoRecord       `json:"photos"`
	Layout        string              `json:"layout"`
	Filter        *string             `json:"filter"`
	Customization customizationRecord `json:"customization"`
	CreatedAt     *time.Time          `json:"created_at,omitempty"`
	UpdatedAt     *time.Time          `json:"updated_at,omitempty"`
}

type projectCreate struct {
	Name          string               `json:"name"`
	Photos        []photoCreate        `json:"photos"`
	Layout        string               `json:"layout"`
	Filter        *string              `json:"filter"`
	Customization *customizationRecord `json:"customization"`
}

type projectUpdate struct {
	Name          *string              `json:"name"`
	Photos        *[]photoCreate       `json:"photos"`
	Layout        *string              `json:"layout"`
	Filter        *string              `json:"filter"`
	Customization *customizationRecord `json:"customization"`
}

func toPhotoRecords(photos []project.Photo) []photoRecord {
	out := make([]photoRecord, len(photos))
	for i, p := range photos {
		out[i] = photoRecord{ID: p.ID, URL: p.Source, Name: p.Name, Type: p.MimeType}
	}
	return out
}

func toCustomizationRecord(c project.Customization) customizationRecord {
	spacing := c.Spacing
	return customizationRecord{
		BorderColor:     c.BorderColor,
		BackgroundColor: c.BackgroundColor,
		Spacing:         &spacing,
		Text:            c.Text,
		TextColor:       c.TextColor,
		TextSize:        c.TextSize,
		TextPosition:    string(c.TextPosition),
	}
}

func (c customizationRecord) toModel() project.Customization {
	m := project.Customization{
		BorderColor:     c.BorderColor,
		BackgroundColor: c.BackgroundColor,
		Spacing:         project.DefaultCustomization().Spacing,
		Text:            c.Text,
		TextColor:       c.TextColor,
		TextSize:        c.TextSize,
		TextPosition:    project.TextPosition(c.TextPosition),
	}
	if c.Spacing != nil {
		m.Spacing = *c.Spacing
	}
	return m.Normalize()
}

func (c customizationPatch) toPartial() project.Partial {
	p := project.Partial{
		BorderColor:     c.BorderColor,
		BackgroundColor: c.BackgroundColor,
		Spacing:         c.Spacing,
		Text:            c.Text,
		TextColor:       c.TextColor,
		TextSize:        c.TextSize,
	}
	if c.TextPosition != nil {
		pos := project.TextPosition(*c.TextPosition)
		p.TextPosition = &pos
	}
	return p
}

func newPhotos(in []photoCreate) []project.Photo {
	out := make([]project.Photo, len(in))
	for i, p := range in {
		out[i] = project.NewPhoto(p.URL, p.Name, p.Type)
	}
	return out
}

func toProjectRecord(p project.Project) projectRecord {
	rec := projectRecord{
		ID:            p.ID,
		Name:          p.Name,
		Photos:        toPhotoRecords(p.Photos),
		Layout:        p.LayoutID,
		Customization: toCustomizationRecord(p.Customization),
	}
	if p.FilterID != "" {
		f := p.FilterID
		rec.Filter = &f
	}
	return rec
}

func fromStoreRecord(r store.Record) projectRecord {
	rec := toProjectRecord(r.Project)
	created, updated := r.CreatedAt, r.UpdatedAt
	rec.CreatedAt, rec.UpdatedAt = &created, &updated
	return rec
}

// toModel builds a new project from a create request.
func (c projectCreate) toModel() project.Project {
	p := project.New(c.Name).AddPhotos(newPhotos(c.Photos)...)
	if c.Layout != "" {
		p = p.WithLayout(c.Layout)
	}
	if c.Filter != nil {
		p = p.WithFilter(*c.Filter)
	}
	if c.Customization != nil {
		p.Customization = c.Customization.toModel()
	}
	return p
}

// apply overlays the present fields of an update request onto p.
func (u projectUpdate) apply(p project.Project) project.Project {
	if u.Name != nil {
		p = p.WithName(*u.Name)
	}
	if u.Photos != nil {
		p = p.WithPhotos(newPhotos(*u.Photos))
	}
	if u.Layout != nil {
		p = p.WithLayout(*u.Layout)
	}
	if u.Filter != nil {
		p = p.WithFilter(*u.Filter)
	}
	if u.Customization != nil {
		p = p.Clone()
		p.Customization = u.Customization.toModel()
	}
	return p
}
