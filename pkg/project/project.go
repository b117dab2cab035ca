// Package project models a photobooth composition: the imported photos, the
// chosen layout and filter, and the visual customization. A Project value is
// treated as an immutable snapshot; every edit returns a new one.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultLayoutID is the layout given to new projects.
const DefaultLayoutID = "strip-4"

var ErrPhotoNotFound = errors.New("photo not found")

// Project is a snapshot of the editable state.
type Project struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Photos        []Photo       `json:"photos"`
	LayoutID      string        `json:"layout"`
	FilterID      string        `json:"filter,omitempty"`
	Customization Customization `json:"customization"`
}

// UnmarshalJSON gives a project without a customization object the default
// one.
func (p *Project) UnmarshalJSON(data []byte) error {
	type plain Project
	v := plain{Customization: DefaultCustomization()}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Project(v)
	return nil
}

// New returns an empty project with the default layout and customization.
func New(name string) Project {
	if strings.TrimSpace(name) == "" {
		name = "Untitled Project"
	}
	return Project{
		ID:            uuid.NewString(),
		Name:          name,
		Photos:        []Photo{},
		LayoutID:      DefaultLayoutID,
		Customization: DefaultCustomization(),
	}
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	out := p
	out.Photos = append([]Photo(nil), p.Photos...)
	if out.Photos == nil {
		out.Photos = []Photo{}
	}
	return out
}

func (p Project) WithName(name string) Project {
	out := p.Clone()
	out.Name = name
	return out
}

// WithPhotos replaces the photo list.
func (p Project) WithPhotos(photos []Photo) Project {
	out := p.Clone()
	out.Photos = append([]Photo{}, photos...)
	return out
}

// AddPhotos appends photos in order.
func (p Project) AddPhotos(photos ...Photo) Project {
	out := p.Clone()
	out.Photos = append(out.Photos, photos...)
	return out
}

// RemovePhoto drops the photo with the given ID.
func (p Project) RemovePhoto(id string) (Project, error) {
	for i, ph := range p.Photos {
		if ph.ID != id {
			continue
		}
		out := p.Clone()
		out.Photos = append(out.Photos[:i:i], out.Photos[i+1:]...)
		return out, nil
	}
	return p, fmt.Errorf("%w: %s", ErrPhotoNotFound, id)
}

// WithLayout selects a layout. The ID is not checked against a catalog here;
// the compositor treats unknown IDs as a layout without slots.
func (p Project) WithLayout(id string) Project {
	out := p.Clone()
	out.LayoutID = id
	return out
}

// WithFilter selects a filter; an empty ID clears it.
func (p Project) WithFilter(id string) Project {
	out := p.Clone()
	out.FilterID = id
	return out
}

// WithCustomization merges a partial update into the customization.
func (p Project) WithCustomization(partial Partial) Project {
	out := p.Clone()
	out.Customization = Merge(p.Customization, partial)
	return out
}

// Validate checks that every photo is usable.
func (p Project) Validate() error {
	var errs []error
	for _, ph := range p.Photos {
		if err := ph.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
