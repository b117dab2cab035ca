//go:build js && wasm

// GoBooth WASM, the in-browser compositor.
// Compiled with: GOOS=js GOARCH=wasm go build -o gobooth.wasm ./clients/wasm/
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"syscall/js"

	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/catalog"
	"github.com/xob0t/GoBooth/pkg/compositor"
	"github.com/xob0t/GoBooth/pkg/export"
	"github.com/xob0t/GoBooth/pkg/filter"
	"github.com/xob0t/GoBooth/pkg/loader"
	"github.com/xob0t/GoBooth/pkg/project"
	"github.com/xob0t/GoBooth/pkg/raster"
)

// Photo bytes registered from JavaScript, addressed as "asset:<id>".
var (
	photosMu sync.RWMutex
	photos   = make(map[string][]byte)
)

var (
	cat    = catalog.Default()
	images *loader.Loader
	view   *compositor.View
	// cancel aborts the previous render when a newer one starts.
	cancelMu sync.Mutex
	cancel   context.CancelFunc = func() {}
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	images = loader.New(loader.Options{
		Assets:    resolvePhoto,
		CacheSize: 32,
		Logger:    log,
	})
	comp := compositor.New(cat, filter.NewMapper(cat), images, compositor.WithLogger(log))
	view = comp.NewView(raster.NewCanvas(raster.DefaultFontManager()))

	log.Info("GoBooth WASM loaded")

	js.Global().Set("goRenderProject", js.FuncOf(renderProject))
	js.Global().Set("goRegisterPhoto", js.FuncOf(registerPhoto))
	js.Global().Set("goRemovePhoto", js.FuncOf(removePhoto))
	js.Global().Set("goFitScale", js.FuncOf(fitScale))
	js.Global().Set("goCatalog", js.FuncOf(catalogJSON))
	js.Global().Set("goReady", js.ValueOf(true))

	select {}
}

func resolvePhoto(id string) ([]byte, error) {
	photosMu.RLock()
	defer photosMu.RUnlock()
	if data, ok := photos[id]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("photo %s: %w", id, os.ErrNotExist)
}

// goRegisterPhoto(id, base64Data) stores photo bytes in Go memory.
func registerPhoto(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Data")
	}
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	id := args[0].String()
	photosMu.Lock()
	photos[id] = data
	photosMu.Unlock()
	images.Forget(loader.AssetRef(id))
	return js.ValueOf(loader.AssetRef(id))
}

// goRemovePhoto(id) drops registered photo bytes.
func removePhoto(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	id := args[0].String()
	photosMu.Lock()
	delete(photos, id)
	photosMu.Unlock()
	images.Forget(loader.AssetRef(id))
	return js.ValueOf("ok")
}

// goFitScale(width, height, viewportWidth, viewportHeight) returns the
// display scale of a canvas inside the padded viewport.
func fitScale(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf("error: need width, height, viewportWidth, viewportHeight")
	}
	canvas := export.Size{Width: args[0].Float(), Height: args[1].Float()}
	vp := export.Size{Width: args[2].Float(), Height: args[3].Float()}
	return js.ValueOf(export.FitScale(canvas, export.Inset(vp, export.ViewportPadding)))
}

// goCatalog() returns the layout and filter catalog as JSON.
func catalogJSON(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(cat.Document())
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(string(data))
}

// goRenderProject(projectJSON, format, quality) returns a Promise. It
// resolves with {image, mime, loaded, failed, stale}; a render superseded by
// a newer call resolves with stale set and no image.
func renderProject(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need projectJSON")
	}
	raw := args[0].String()
	format := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		format = args[1].String()
	}
	quality := export.DefaultJPEGQuality
	if len(args) > 2 && args[2].Type() == js.TypeNumber {
		quality = args[2].Int()
	}

	handler := js.FuncOf(func(this js.Value, pargs []js.Value) interface{} {
		resolve, reject := pargs[0], pargs[1]
		go func() {
			out, err := render(raw, format, quality)
			if err != nil {
				reject.Invoke(js.ValueOf(err.Error()))
				return
			}
			resolve.Invoke(js.ValueOf(out))
		}()
		return nil
	})
	defer handler.Release()
	return js.Global().Get("Promise").New(handler)
}

func render(raw, format string, quality int) (map[string]interface{}, error) {
	var p project.Project
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if p.LayoutID == "" {
		p.LayoutID = project.DefaultLayoutID
	}
	p.Customization = p.Customization.Normalize()

	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	ctx, cancelThis := context.WithCancel(context.Background())
	cancelMu.Lock()
	cancel()
	cancel = cancelThis
	cancelMu.Unlock()
	defer cancelThis()

	rep := view.Render(ctx, p)
	result := map[string]interface{}{
		"loaded": rep.Loaded,
		"failed": rep.Failed,
		"stale":  rep.Stale || rep.Err != nil,
	}
	if rep.Stale || rep.Err != nil {
		return result, nil
	}

	data, err := export.Serialize(view.Surface(), f, quality)
	if err != nil {
		return nil, err
	}
	result["image"] = base64.StdEncoding.EncodeToString(data)
	result["mime"] = f.MimeType()
	return result, nil
}
