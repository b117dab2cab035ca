package loader

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/GoBooth/pkg/project"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func photo(id, source string) project.Photo {
	return project.Photo{ID: id, Source: source, Name: id, MimeType: "image/png"}
}

func TestLoadAllPreservesOrderAndIsolatesFailures(t *testing.T) {
	red := pngBytes(t, 4, 3, color.RGBA{255, 0, 0, 255})
	blue := pngBytes(t, 2, 5, color.RGBA{0, 0, 255, 255})

	l := New(Options{Concurrency: 2})
	results := l.LoadAll(context.Background(), []project.Photo{
		photo("a", DataURL("image/png", red)),
		photo("b", "data:image/png;base64,not-an-image"),
		photo("c", DataURL("image/png", blue)),
	}, -1)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].PhotoID)
	require.True(t, results[0].OK())
	assert.Equal(t, image.Pt(4, 3), results[0].Image.Bounds().Size())

	assert.False(t, results[1].OK())
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Image)

	require.True(t, results[2].OK())
	assert.Equal(t, image.Pt(2, 5), results[2].Image.Bounds().Size())
}

func TestLoadAllTruncatesToLimit(t *testing.T) {
	data := DataURL("image/png", pngBytes(t, 1, 1, color.White))
	photos := []project.Photo{photo("1", data), photo("2", data), photo("3", data)}

	var calls atomic.Int32
	l := New(Options{OnProgress: func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 2, total)
	}})
	results := l.LoadAll(context.Background(), photos, 2)
	assert.Len(t, results, 2)
	assert.EqualValues(t, 2, calls.Load())

	assert.Empty(t, l.LoadAll(context.Background(), photos, 0))
	assert.Empty(t, l.LoadAll(context.Background(), nil, 4))
}

func TestHTTPSourceAndCORSTaint(t *testing.T) {
	body := pngBytes(t, 3, 3, color.Black)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/open.png":
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case "/echo.png":
			w.Header().Set("Access-Control-Allow-Origin", r.Header.Get("Origin"))
		case "/missing.png":
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := New(Options{Origin: "https://booth.example"})
	results := l.LoadAll(context.Background(), []project.Photo{
		photo("open", srv.URL+"/open.png"),
		photo("echo", srv.URL+"/echo.png"),
		photo("closed", srv.URL+"/closed.png"),
		photo("missing", srv.URL+"/missing.png"),
	}, -1)

	require.True(t, results[0].OK())
	assert.False(t, results[0].Opaque)
	require.True(t, results[1].OK())
	assert.False(t, results[1].Opaque)
	require.True(t, results[2].OK(), "a CORS refusal is not a load failure")
	assert.True(t, results[2].Opaque)
	assert.False(t, results[3].OK())

	// Without an origin the check is off.
	res := New(Options{}).Load(context.Background(), photo("closed", srv.URL+"/closed.png"))
	require.True(t, res.OK())
	assert.False(t, res.Opaque)
}

func TestCacheAvoidsRefetch(t *testing.T) {
	body := pngBytes(t, 2, 2, color.White)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	l := New(Options{CacheSize: 8})
	p := photo("x", srv.URL+"/x.png")
	require.True(t, l.Load(context.Background(), p).OK())
	require.True(t, l.Load(context.Background(), p).OK())
	assert.EqualValues(t, 1, hits.Load())

	l.Forget(p.Source)
	require.True(t, l.Load(context.Background(), p).OK())
	assert.EqualValues(t, 2, hits.Load())

	l.Purge()
	require.True(t, l.Load(context.Background(), p).OK())
	assert.EqualValues(t, 3, hits.Load())
}

func TestAssetAndFileSources(t *testing.T) {
	data := pngBytes(t, 5, 5, color.White)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local.png"), data, 0o644))

	l := New(Options{
		AllowFiles: true,
		BaseDir:    dir,
		Assets: func(id string) ([]byte, error) {
			if id == "known" {
				return data, nil
			}
			return nil, os.ErrNotExist
		},
	})
	ctx := context.Background()

	assert.True(t, l.Load(ctx, photo("a", AssetRef("known"))).OK())
	assert.ErrorIs(t, l.Load(ctx, photo("b", AssetRef("unknown"))).Err, os.ErrNotExist)
	assert.True(t, l.Load(ctx, photo("c", "local.png")).OK())
	assert.True(t, l.Load(ctx, photo("d", "file://"+filepath.Join(dir, "local.png"))).OK())
	assert.ErrorIs(t, l.Load(ctx, photo("e", "ftp://host/x.png")).Err, ErrUnsupportedSource)
	assert.ErrorIs(t, l.Load(ctx, photo("f", "")).Err, ErrUnsupportedSource)

	assert.ErrorIs(t, New(Options{}).Load(ctx, photo("g", AssetRef("known"))).Err, ErrUnsupportedSource)
}

func TestMaxBytes(t *testing.T) {
	data := pngBytes(t, 16, 16, color.White)
	l := New(Options{MaxBytes: 10, AllowFiles: true, Assets: func(string) ([]byte, error) { return data, nil }})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.png"), data, 0o644))

	res := l.Load(context.Background(), photo("big", filepath.Join(dir, "big.png")))
	assert.Error(t, res.Err)
}

func TestLocalFilesDisabledByDefault(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "local.png")
	require.NoError(t, os.WriteFile(name, pngBytes(t, 2, 2, color.White), 0o644))

	l := New(Options{BaseDir: dir})
	ctx := context.Background()
	for _, src := range []string{"local.png", name, "file://" + name} {
		res := l.Load(ctx, photo("x", src))
		assert.ErrorIs(t, res.Err, ErrUnsupportedSource, src)
		_, err := l.Fetch(ctx, src)
		assert.ErrorIs(t, err, ErrUnsupportedSource, src)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(Options{}).Load(ctx, photo("x", DataURL("image/png", pngBytes(t, 1, 1, color.White))))
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestDecodeDataURL(t *testing.T) {
	got, err := decodeDataURL("data:text/plain,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	got, err = decodeDataURL("data:;base64,aGk")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))

	_, err = decodeDataURL("data:image/png;base64")
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}
