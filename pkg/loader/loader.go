// Package loader resolves photo references into decoded images. A batch is
// loaded with bounded concurrency and always waits for every photo; one
// failing photo never fails the batch.
package loader

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	_ "golang.org/x/image/webp"

	"github.com/xob0t/GoBooth/pkg/project"
)

var (
	imageLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gobooth_image_loads_total",
		Help: "Photo load attempts by result.",
	}, []string{"result"})
	imageCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gobooth_image_cache_hits_total",
		Help: "Decoded-image cache hits.",
	})
	imageCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gobooth_image_cache_misses_total",
		Help: "Decoded-image cache misses.",
	})
)

// Result is the outcome for one photo. Image is nil when Err is set.
// Opaque marks an image whose origin did not allow pixel export; drawing it
// taints the surface.
type Result struct {
	PhotoID string
	Image   image.Image
	Opaque  bool
	Err     error
}

// OK reports whether the photo decoded.
func (r Result) OK() bool { return r.Err == nil && r.Image != nil }

// Options configures a Loader. Zero values select defaults.
type Options struct {
	Concurrency int
	Client      *http.Client
	Timeout     time.Duration
	// Origin is sent on cross-origin requests; empty disables the check.
	Origin string
	// AllowFiles enables bare paths and file:// sources, resolved against
	// BaseDir. Off by default; only trusted local callers turn it on.
	AllowFiles bool
	BaseDir    string
	Assets     AssetFunc
	MaxBytes   int64
	CacheSize  int
	CacheTTL   time.Duration
	// OnProgress is called after each photo settles. Calls are serialized.
	OnProgress func(done, total int)
	Logger     logrus.FieldLogger
}

type cached struct {
	img    image.Image
	opaque bool
}

// Loader decodes photos. It is safe for concurrent use.
type Loader struct {
	opts  Options
	cache *expirable.LRU[string, cached]
}

// New creates a Loader with the given options.
func New(opts Options) *Loader {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = 32 << 20
	}
	if opts.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Logger = l
	}
	ld := &Loader{opts: opts}
	if opts.CacheSize > 0 {
		ld.cache = expirable.NewLRU[string, cached](opts.CacheSize, nil, opts.CacheTTL)
	}
	return ld
}

// LoadAll loads the first limit photos (all of them when limit is negative)
// and returns one Result per photo in input order. It returns once every
// attempted load has finished.
func (l *Loader) LoadAll(ctx context.Context, photos []project.Photo, limit int) []Result {
	if limit < 0 || limit > len(photos) {
		limit = len(photos)
	}
	photos = photos[:limit]
	results := make([]Result, len(photos))
	if len(photos) == 0 {
		return results
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(l.opts.Concurrency)
	for i, ph := range photos {
		g.Go(func() error {
			results[i] = l.Load(ctx, ph)
			if l.opts.OnProgress != nil {
				mu.Lock()
				done++
				l.opts.OnProgress(done, len(photos))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Load resolves and decodes a single photo.
func (l *Loader) Load(ctx context.Context, ph project.Photo) Result {
	res := Result{PhotoID: ph.ID}
	log := l.opts.Logger.WithField("photo_id", ph.ID)

	key := cacheKey(ph.Source)
	if l.cache != nil {
		if c, ok := l.cache.Get(key); ok {
			imageCacheHitsTotal.Inc()
			imageLoadsTotal.WithLabelValues("cached").Inc()
			res.Image, res.Opaque = c.img, c.opaque
			return res
		}
		imageCacheMissesTotal.Inc()
	}

	if err := ctx.Err(); err != nil {
		res.Err = err
		imageLoadsTotal.WithLabelValues("error").Inc()
		return res
	}

	f, err := l.fetch(ctx, ph.Source)
	if err == nil {
		res.Image, err = Decode(f.data)
	}
	if err != nil {
		res.Err = fmt.Errorf("photo %s: %w", ph.ID, err)
		res.Image = nil
		imageLoadsTotal.WithLabelValues("error").Inc()
		log.WithError(err).Warn("photo failed to load")
		return res
	}
	res.Opaque = f.opaque
	if res.Opaque {
		log.Debug("photo origin refused CORS; surface will be tainted")
	}
	if l.cache != nil {
		l.cache.Add(key, cached{img: res.Image, opaque: res.Opaque})
	}
	imageLoadsTotal.WithLabelValues("ok").Inc()
	return res
}

// Purge empties the decoded-image cache.
func (l *Loader) Purge() {
	if l.cache != nil {
		l.cache.Purge()
	}
}

// Forget drops the cached decode of one source.
func (l *Loader) Forget(source string) {
	if l.cache != nil {
		l.cache.Remove(cacheKey(source))
	}
}

// Decode decodes an encoded image, applying its EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
