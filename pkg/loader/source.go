// source.go - Resolve a photo source reference into raw bytes.
// Supported references: data URLs, http(s) URLs, asset:<id> and, when
// Options.AllowFiles is set, local paths.
package loader

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedSource = errors.New("unsupported photo source")

// AssetFunc returns the bytes registered under an asset id.
type AssetFunc func(id string) ([]byte, error)

const assetPrefix = "asset:"

// AssetRef builds the source reference for an uploaded asset.
func AssetRef(id string) string { return assetPrefix + id }

// fetched is the raw payload of a source plus whether pixels may be exported.
type fetched struct {
	data   []byte
	opaque bool
}

func (l *Loader) fetch(ctx context.Context, source string) (fetched, error) {
	switch {
	case source == "":
		return fetched{}, fmt.Errorf("%w: empty reference", ErrUnsupportedSource)
	case strings.HasPrefix(source, "data:"):
		data, err := decodeDataURL(source)
		return fetched{data: data}, err
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.fetchHTTP(ctx, source)
	case strings.HasPrefix(source, assetPrefix):
		if l.opts.Assets == nil {
			return fetched{}, fmt.Errorf("%w: no asset resolver for %q", ErrUnsupportedSource, source)
		}
		data, err := l.opts.Assets(strings.TrimPrefix(source, assetPrefix))
		return fetched{data: data}, err
	case strings.Contains(source, "://") && !strings.HasPrefix(source, "file://"):
		return fetched{}, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	case !l.opts.AllowFiles:
		return fetched{}, fmt.Errorf("%w: local files are disabled: %q", ErrUnsupportedSource, source)
	default:
		data, err := l.readFile(strings.TrimPrefix(source, "file://"))
		return fetched{data: data}, err
	}
}

// decodeDataURL parses data:[<mediatype>][;base64],<payload>.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("%w: malformed data URL", ErrUnsupportedSource)
	}
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("data URL: %w", err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data URL: %w", err)
	}
	return []byte(s), nil
}

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func (l *Loader) fetchHTTP(ctx context.Context, source string) (fetched, error) {
	if l.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return fetched{}, fmt.Errorf("building request: %w", err)
	}
	crossOrigin := l.opts.Origin != "" && !sameOrigin(source, l.opts.Origin)
	if crossOrigin {
		req.Header.Set("Origin", l.opts.Origin)
	}

	resp, err := l.opts.Client.Do(req)
	if err != nil {
		return fetched{}, fmt.Errorf("fetching %s: %w", source, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fetched{}, fmt.Errorf("fetching %s: status %d", source, resp.StatusCode)
	}

	data, err := l.readAll(resp.Body)
	if err != nil {
		return fetched{}, fmt.Errorf("reading %s: %w", source, err)
	}

	out := fetched{data: data}
	if crossOrigin {
		allow := resp.Header.Get("Access-Control-Allow-Origin")
		out.opaque = allow != "*" && allow != l.opts.Origin
	}
	return out, nil
}

func sameOrigin(source, origin string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	o, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, o.Scheme) && strings.EqualFold(u.Host, o.Host)
}

func (l *Loader) readFile(name string) ([]byte, error) {
	if !filepath.IsAbs(name) && l.opts.BaseDir != "" {
		name = filepath.Join(l.opts.BaseDir, name)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return l.readAll(f)
}

func (l *Loader) readAll(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.opts.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.opts.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.opts.MaxBytes)
	}
	return data, nil
}

// Fetch returns the raw bytes behind a source reference without decoding.
func (l *Loader) Fetch(ctx context.Context, source string) ([]byte, error) {
	f, err := l.fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	return f.data, nil
}
