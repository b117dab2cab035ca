package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestNewProjectDefaults(t *testing.T) {
	p := New("")
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Untitled Project", p.Name)
	assert.Equal(t, DefaultLayoutID, p.LayoutID)
	assert.Empty(t, p.FilterID)
	assert.Empty(t, p.Photos)
	assert.Equal(t, DefaultCustomization(), p.Customization)

	c := p.Customization
	assert.Equal(t, "#ffffff", c.BorderColor)
	assert.Equal(t, "#ffffff", c.BackgroundColor)
	assert.Equal(t, 10.0, c.Spacing)
	assert.Equal(t, "#000000", c.TextColor)
	assert.Equal(t, 16.0, c.TextSize)
	assert.Equal(t, TextBottom, c.TextPosition)
}

func TestMergeOnlyPresentFields(t *testing.T) {
	base := DefaultCustomization()

	got := Merge(base, Partial{Text: ptr("Hello"), Spacing: ptr(0.0)})
	assert.Equal(t, "Hello", got.Text)
	assert.Equal(t, 0.0, got.Spacing)
	assert.Equal(t, base.BorderColor, got.BorderColor)
	assert.Equal(t, base.TextSize, got.TextSize)

	cleared := Merge(got, Partial{Text: ptr("")})
	assert.Empty(t, cleared.Text)

	assert.Equal(t, base, Merge(base, Partial{}))
}

func TestMergeIgnoresInvalidValues(t *testing.T) {
	base := DefaultCustomization()
	got := Merge(base, Partial{
		Spacing:      ptr(-5.0),
		TextSize:     ptr(0.0),
		TextPosition: ptr(TextPosition("left")),
	})
	assert.Equal(t, base, got)

	got = Merge(base, Partial{TextPosition: ptr(TextTop)})
	assert.Equal(t, TextTop, got.TextPosition)
}

func TestNormalize(t *testing.T) {
	c := Customization{Spacing: -1, TextPosition: "sideways"}.Normalize()
	def := DefaultCustomization()
	assert.Equal(t, def.BorderColor, c.BorderColor)
	assert.Equal(t, def.TextSize, c.TextSize)
	assert.Equal(t, TextBottom, c.TextPosition)
	assert.Equal(t, 0.0, c.Spacing)
}

func TestEditsDoNotMutateSnapshot(t *testing.T) {
	a := New("A")
	photo := NewPhoto("https://example.com/a.jpg", "a.jpg", "image/jpeg")
	b := a.AddPhotos(photo)

	assert.Empty(t, a.Photos)
	require.Len(t, b.Photos, 1)
	assert.Equal(t, photo, b.Photos[0])

	c := b.WithLayout("grid-2x2").WithFilter("bw-1").WithName("C")
	assert.Equal(t, DefaultLayoutID, b.LayoutID)
	assert.Equal(t, "grid-2x2", c.LayoutID)
	assert.Equal(t, "bw-1", c.FilterID)
	assert.Equal(t, "A", b.Name)

	d := c.WithCustomization(Partial{BorderColor: ptr("#ff0000")})
	assert.Equal(t, "#ffffff", c.Customization.BorderColor)
	assert.Equal(t, "#ff0000", d.Customization.BorderColor)
}

func TestRemovePhoto(t *testing.T) {
	p1 := NewPhoto("data:a", "1", "image/png")
	p2 := NewPhoto("data:b", "2", "image/png")
	p3 := NewPhoto("data:c", "3", "image/png")
	p := New("x").AddPhotos(p1, p2, p3)

	out, err := p.RemovePhoto(p2.ID)
	require.NoError(t, err)
	assert.Equal(t, []Photo{p1, p3}, out.Photos)
	assert.Len(t, p.Photos, 3)
	assert.Equal(t, p2, p.Photos[1])

	_, err = p.RemovePhoto("missing")
	assert.ErrorIs(t, err, ErrPhotoNotFound)
}

func TestPhotoValidate(t *testing.T) {
	assert.NoError(t, NewPhoto("https://x/y.png", "y.png", "image/png").Validate())
	assert.NoError(t, NewPhoto("https://x/y.png", "y.png", "").Validate())
	assert.Error(t, NewPhoto("https://x/y.txt", "y.txt", "text/plain").Validate())
	assert.Error(t, NewPhoto("", "empty", "image/png").Validate())

	p := New("v").AddPhotos(NewPhoto("", "bad", "text/plain"))
	assert.Error(t, p.Validate())
}

func TestHistoryUndoRedo(t *testing.T) {
	p0 := New("h")
	h := NewHistory(p0)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	p1 := p0.WithLayout("grid-2x2")
	h.Push(p1)
	p2 := h.Apply(func(p Project) Project { return p.WithFilter("vintage-1") })
	assert.Equal(t, "grid-2x2", p2.LayoutID)
	assert.Equal(t, 3, h.Len())

	got, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, p1, got)
	got, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, p0, got)
	_, ok = h.Undo()
	assert.False(t, ok)

	got, ok = h.Redo()
	require.True(t, ok)
	assert.Equal(t, p1, got)
	assert.True(t, h.CanRedo())

	// Pushing after undo drops the redo branch.
	p3 := p1.WithName("branch")
	h.Push(p3)
	assert.False(t, h.CanRedo())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, p3, h.Current())

	h.Reset(p0)
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, p0, h.Current())
}

func TestDecodeDefaultsMissingSpacing(t *testing.T) {
	var p Project
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","name":"x","customization":{"text":"hi"}}`), &p))
	assert.Equal(t, 10.0, p.Customization.Spacing)
	assert.Equal(t, "hi", p.Customization.Text)
	assert.Equal(t, TextBottom, p.Customization.TextPosition)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"b","customization":{"spacing":0}}`), &p))
	assert.Equal(t, 0.0, p.Customization.Spacing)

	p = Project{}
	require.NoError(t, json.Unmarshal([]byte(`{"id":"c","name":"bare"}`), &p))
	assert.Equal(t, DefaultCustomization(), p.Customization)
}
