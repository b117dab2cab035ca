package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/xob0t/GoBooth/pkg/loader"
)

// asset is an uploaded photo held in memory. Photos reference it with an
// "asset:<id>" source.
type asset struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mime string `json:"type"`
	Size int    `json:"size"`
	data []byte
}

// errAssetTooLarge is returned for a single upload bigger than the byte cap.
var errAssetTooLarge = errors.New("asset exceeds the asset store limit")

// assetManager keeps uploads in memory, bounded by count and total bytes.
// The oldest uploads are evicted first. A zero limit is unlimited.
type assetManager struct {
	mu        sync.RWMutex
	assets    map[string]*asset
	order     []string
	total     int64
	maxAssets int
	maxBytes  int64
}

func newAssetManager(maxAssets int, maxBytes int64) *assetManager {
	return &assetManager{assets: make(map[string]*asset), maxAssets: maxAssets, maxBytes: maxBytes}
}

// add stores data and returns the new asset along with the ids it evicted.
func (am *assetManager) add(name string, data []byte, mimeType string) (*asset, []string, error) {
	if am.maxBytes > 0 && int64(len(data)) > am.maxBytes {
		return nil, nil, fmt.Errorf("%w: %d > %d bytes", errAssetTooLarge, len(data), am.maxBytes)
	}
	a := &asset{ID: uuid.NewString(), Name: name, Mime: mimeType, Size: len(data), data: data}
	am.mu.Lock()
	defer am.mu.Unlock()
	var evicted []string
	for len(am.order) > 0 && am.full(int64(len(data))) {
		oldest := am.order[0]
		am.order = am.order[1:]
		am.total -= int64(am.assets[oldest].Size)
		delete(am.assets, oldest)
		evicted = append(evicted, oldest)
	}
	am.assets[a.ID] = a
	am.order = append(am.order, a.ID)
	am.total += int64(a.Size)
	return a, evicted, nil
}

// full reports whether adding size more bytes would break a limit.
func (am *assetManager) full(size int64) bool {
	if am.maxAssets > 0 && len(am.order) >= am.maxAssets {
		return true
	}
	return am.maxBytes > 0 && am.total+size > am.maxBytes
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

// bytes resolves an asset id for the image loader.
func (am *assetManager) bytes(id string) ([]byte, error) {
	a, ok := am.get(id)
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, os.ErrNotExist)
	}
	return a.data, nil
}

func (am *assetManager) listAll() []*asset {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]*asset, 0, len(am.assets))
	for _, id := range am.order {
		result = append(result, am.assets[id])
	}
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	if _, ok := am.assets[id]; !ok {
		return false
	}
	am.total -= int64(am.assets[id].Size)
	delete(am.assets, id)
	for i, v := range am.order {
		if v == id {
			am.order = append(am.order[:i], am.order[i+1:]...)
			break
		}
	}
	return true
}

type assetResponse struct {
	*asset
	URL    string `json:"url"`
	Source string `json:"source"`
}

func newAssetResponse(a *asset) assetResponse {
	return assetResponse{asset: a, URL: "/api/assets/" + a.ID, Source: loader.AssetRef(a.ID)}
}

// handleUploadAsset stores the "file" field of a multipart form. The returned
// source can be used as a photo url.
func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_request", fmt.Errorf("no file uploaded: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid_request", err)
		return
	}
	mimeType := uploadMime(header.Header.Get("Content-Type"), header.Filename, data)
	if !strings.HasPrefix(mimeType, "image/") {
		s.respondError(w, r, http.StatusUnsupportedMediaType, "unsupported_media_type",
			fmt.Errorf("%s is %s, not an image", header.Filename, mimeType))
		return
	}

	a, evicted, err := s.assets.add(header.Filename, data, mimeType)
	if err != nil {
		s.respondError(w, r, http.StatusRequestEntityTooLarge, "asset_too_large", err)
		return
	}
	for _, id := range evicted {
		s.images.Forget(loader.AssetRef(id))
	}
	if len(evicted) > 0 {
		s.log.WithField("evicted", evicted).Info("Assets evicted")
	}
	s.log.WithFields(logrus.Fields{"asset_id": a.ID, "name": a.Name, "size": a.Size}).Info("Asset uploaded")
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newAssetResponse(a))
}

// uploadMime trusts a declared image type, then the file extension, then the
// content itself.
func uploadMime(declared, filename string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		if base, _, err := mime.ParseMediaType(mt); err == nil {
			return base
		}
	}
	return http.DetectContentType(data)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(chi.URLParam(r, "id"))
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(a.data)))
	w.Write(a.data)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	all := s.assets.listAll()
	out := make([]assetResponse, len(all))
	for i, a := range all {
		out[i] = newAssetResponse(a)
	}
	render.JSON(w, r, out)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.assets.remove(id) {
		s.respondError(w, r, http.StatusNotFound, "not_found", nil)
		return
	}
	s.images.Forget(loader.AssetRef(id))
	render.JSON(w, r, map[string]string{"status": "deleted", "id": id})
}
