package compositor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/catalog"
	"github.com/xob0t/GoBooth/pkg/layout"
	"github.com/xob0t/GoBooth/pkg/loader"
	"github.com/xob0t/GoBooth/pkg/project"
	"github.com/xob0t/GoBooth/pkg/raster"
)

// Report describes one render pass.
type Report struct {
	Generation uint64
	// Stage is the last stage reached; Idle when the pass completed.
	Stage     Stage
	LayoutID  string
	Slots     []layout.Rect
	// Empty is set when the project had no photos and the placeholder
	// panel was drawn instead of slots.
	Empty     bool
	Requested int
	Loaded    int
	Failed    int
	// Stale is set when a newer render superseded this one while it was
	// loading images. A stale pass draws nothing after its load stage.
	Stale bool
	// Err is the context error when the pass was cancelled while loading.
	Err error
}

// View owns one surface and the generation counter guarding it. Renders may
// be issued concurrently; only the newest one draws after its load stage.
type View struct {
	c       *Compositor
	surface raster.Surface

	gen atomic.Uint64
	// mu serializes every write to surface.
	mu    sync.Mutex
	stage Stage
}

// Surface returns the bound surface.
func (v *View) Surface() raster.Surface { return v.surface }

// Generation returns the token of the most recently started render.
func (v *View) Generation() uint64 { return v.gen.Load() }

// Stage returns the stage of the render currently holding the surface.
func (v *View) Stage() Stage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stage
}

// Render draws a snapshot of p. It never fails; per-photo problems are
// drawn as placeholders and reported in the Report.
func (v *View) Render(ctx context.Context, p project.Project) (rep Report) {
	start := time.Now()
	snap := p.Clone()
	gen := v.gen.Add(1)
	rep = Report{Generation: gen, Stage: Configuring}
	log := v.c.log.WithFields(logrus.Fields{
		"project_id": snap.ID,
		"generation": gen,
	})

	defer func() {
		renderDuration.Observe(time.Since(start).Seconds())
		outcome := "ok"
		switch {
		case rep.Stale:
			outcome = "stale"
		case rep.Err != nil:
			outcome = "cancelled"
		case rep.Empty:
			outcome = "empty"
		}
		rendersTotal.WithLabelValues(outcome).Inc()
		if !rep.Stale && rep.Err == nil {
			rep.Stage = Idle
		}
		log.WithFields(logrus.Fields{
			"outcome": outcome,
			"slots":   len(rep.Slots),
			"loaded":  rep.Loaded,
			"failed":  rep.Failed,
		}).Debug("render finished")
	}()

	tpl, known := v.template(snap.LayoutID)
	rep.LayoutID = tpl.ID
	if !known {
		log.WithField("layout_id", snap.LayoutID).Warn("unknown layout, rendering without slots")
	}
	cust := snap.Customization.Normalize()

	v.mu.Lock()
	if v.gen.Load() != gen {
		v.mu.Unlock()
		rep.Stale = true
		return rep
	}
	v.enter(gen, Configuring)
	v.surface.Configure(tpl.Canvas.Width, tpl.Canvas.Height, Oversample)
	w, h := float64(tpl.Canvas.Width), float64(tpl.Canvas.Height)
	v.surface.FillRect(layout.Rect{Width: w, Height: h}, raster.ColorOr(cust.BackgroundColor, white))

	if len(snap.Photos) == 0 {
		v.enter(gen, EmptyPlaceholder)
		drawEmptyPlaceholder(v.surface, w, h)
		v.enter(gen, Idle)
		v.mu.Unlock()
		rep.Stage = EmptyPlaceholder
		rep.Empty = true
		return rep
	}

	if known {
		rep.Slots = layout.Resolve(tpl, cust.Spacing, cust.Text != "")
	}
	v.enter(gen, SlotsResolved)
	rep.Requested = min(len(snap.Photos), len(rep.Slots))
	rep.Stage = ImagesLoading
	v.enter(gen, ImagesLoading)
	v.mu.Unlock()

	var results []loader.Result
	if rep.Requested > 0 {
		results = v.c.images.LoadAll(ctx, snap.Photos, rep.Requested)
	}
	for _, r := range results {
		if r.OK() {
			rep.Loaded++
		} else {
			rep.Failed++
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.gen.Load() != gen {
		rep.Stale = true
		log.Debug("discarding stale render")
		return rep
	}
	if err := ctx.Err(); err != nil {
		rep.Err = fmt.Errorf("render cancelled: %w", err)
		v.enter(gen, Idle)
		return rep
	}

	rep.Stage = Drawing
	v.enter(gen, Drawing)
	adj := v.c.adjuster(snap.FilterID)
	border := raster.ColorOr(cust.BorderColor, white)
	for i, slot := range rep.Slots {
		if i < len(results) && results[i].OK() {
			v.surface.FillRect(slot.Inflate(BorderWidth), border)
			v.surface.DrawImage(results[i].Image, slot, adj, results[i].Opaque)
			continue
		}
		if i < len(results) {
			log.WithField("slot", i).WithError(results[i].Err).Debug("drawing placeholder for failed photo")
		}
		drawSlotPlaceholder(v.surface, slot, i)
	}
	drawOverlayText(v.surface, cust, w, h)
	v.enter(gen, Idle)
	return rep
}

// template resolves the layout, falling back to the default layout's canvas
// with no slots when id is unknown.
func (v *View) template(id string) (catalog.LayoutTemplate, bool) {
	tpl, err := v.c.catalog.Layout(id)
	if err == nil {
		return tpl, true
	}
	def := v.c.catalog.DefaultLayout()
	return catalog.LayoutTemplate{ID: id, Name: id, Canvas: def.Canvas}, false
}

// enter records a stage transition. Callers hold mu.
func (v *View) enter(gen uint64, s Stage) {
	v.stage = s
	if v.c.observe != nil {
		v.c.observe(gen, s)
	}
}

func drawEmptyPlaceholder(s raster.Surface, w, h float64) {
	s.FillRect(layout.Rect{X: PanelInset, Y: PanelInset, Width: w - 2*PanelInset, Height: h - 2*PanelInset}, panelColor)
	s.DrawCenteredText("Add photos to start creating", w/2, h/2-HintOffset, HintSize, hintColor)
	s.DrawCenteredText("Use the tools panel on the left", w/2, h/2+HintOffset, HintSize, hintColor)
}

func drawSlotPlaceholder(s raster.Surface, slot layout.Rect, index int) {
	s.FillRect(slot, panelColor)
	cx, cy := slot.Center()
	s.DrawCenteredText(fmt.Sprintf("Photo %d", index+1), cx, cy, SlotLabelSize, slotLabelColor)
}

func drawOverlayText(s raster.Surface, c project.Customization, w, h float64) {
	if c.Text == "" {
		return
	}
	var y float64
	switch c.TextPosition {
	case project.TextTop:
		y = TextTopY
	case project.TextCenter:
		y = h / 2
	default:
		y = h - TextBottomGap
	}
	s.DrawCenteredText(c.Text, w/2, y, c.TextSize, raster.ColorOr(c.TextColor, black))
}
