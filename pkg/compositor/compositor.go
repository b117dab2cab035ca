// Package compositor renders a project snapshot onto a raster surface:
// background, slot borders, filtered photos, numbered placeholders for empty
// slots and the overlay text.
package compositor

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/catalog"
	"github.com/xob0t/GoBooth/pkg/filter"
	"github.com/xob0t/GoBooth/pkg/loader"
	"github.com/xob0t/GoBooth/pkg/project"
	"github.com/xob0t/GoBooth/pkg/raster"
)

// Drawing constants, in logical pixels.
const (
	Oversample    = 2.0
	BorderWidth   = 2.0
	PanelInset    = 20.0
	HintSize      = 16.0
	HintOffset    = 10.0
	SlotLabelSize = 14.0
	TextTopY      = 30.0
	TextBottomGap = 20.0
)

var (
	panelColor     = raster.MustColor("#f3f4f6")
	hintColor      = raster.MustColor("#9ca3af")
	slotLabelColor = raster.MustColor("#d1d5db")
	white          = raster.MustColor("#ffffff")
	black          = raster.MustColor("#000000")
)

var (
	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gobooth_renders_total",
		Help: "Render passes by outcome.",
	}, []string{"outcome"})
	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gobooth_render_duration_seconds",
		Help:    "Wall time of a render pass including image loading.",
		Buckets: prometheus.DefBuckets,
	})
)

// ImageLoader resolves photos into decoded images. *loader.Loader satisfies it.
type ImageLoader interface {
	LoadAll(ctx context.Context, photos []project.Photo, limit int) []loader.Result
}

// Compositor holds the collaborators shared by every view.
type Compositor struct {
	catalog      *catalog.Catalog
	filters      *filter.Mapper
	images       ImageLoader
	log          logrus.FieldLogger
	fullFidelity bool
	observe      func(gen uint64, s Stage)
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithLogger sets the logger; the default discards.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.log = l
		}
	}
}

// WithFullFidelity applies every filter operation in order instead of the
// single dominant-operation approximation.
func WithFullFidelity(on bool) Option {
	return func(c *Compositor) { c.fullFidelity = on }
}

// WithStageObserver registers fn to be called on every stage transition.
// fn runs while the view's surface lock is held and must not render.
func WithStageObserver(fn func(gen uint64, s Stage)) Option {
	return func(c *Compositor) { c.observe = fn }
}

// New creates a compositor. A nil mapper is built from cat.
func New(cat *catalog.Catalog, mapper *filter.Mapper, images ImageLoader, opts ...Option) *Compositor {
	if mapper == nil {
		mapper = filter.NewMapper(cat)
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	c := &Compositor{catalog: cat, filters: mapper, images: images, log: l}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Catalog returns the catalog the compositor resolves layouts against.
func (c *Compositor) Catalog() *catalog.Catalog { return c.catalog }

// NewView binds a surface. Each surface should have exactly one view.
func (c *Compositor) NewView(s raster.Surface) *View {
	return &View{c: c, surface: s}
}

// Render draws p onto s with a one-off view.
func (c *Compositor) Render(ctx context.Context, p project.Project, s raster.Surface) Report {
	return c.NewView(s).Render(ctx, p)
}

// adjuster returns the filter to activate for each photo draw, or nil.
func (c *Compositor) adjuster(filterID string) raster.Adjuster {
	effect := c.filters.Resolve(filterID)
	if effect.IsNone() {
		return nil
	}
	if c.fullFidelity {
		return effect
	}
	d := filter.Approximate(effect)
	if d.IsNone() {
		return nil
	}
	return d
}
