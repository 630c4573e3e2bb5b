package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"docqa/internal/document"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 50 << 20
)

// Fetched is a resolved document reference. Remote documents are spooled
// into a temporary file owned by the Fetched value; Close releases it and
// must be called on every exit path.
type Fetched struct {
	Reference string
	Format    document.Format
	Path      string
	Remote    bool

	once     sync.Once
	closeErr error
}

// Content reads the document bytes.
func (f *Fetched) Content() ([]byte, error) {
	return os.ReadFile(f.Path) // #nosec G304 -- path is either the caller's reference or our own temp file
}

// Close deletes the temporary file of a remote document. It is a no-op for
// local documents and safe to call more than once.
func (f *Fetched) Close() error {
	if !f.Remote {
		return nil
	}
	f.once.Do(func() {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			f.closeErr = err
		}
	})
	return f.closeErr
}

type Option func(*Resolver)

// WithHTTPClient replaces the client used for remote references.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithTempDir sets where remote bodies are spooled. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(r *Resolver) { r.tempDir = dir }
}

// WithMaxBytes bounds the size of a remote body.
func WithMaxBytes(n int64) Option {
	return func(r *Resolver) { r.maxBytes = n }
}

// WithTimeout bounds a remote fetch, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

type Resolver struct {
	client   *http.Client
	tempDir  string
	maxBytes int64
	timeout  time.Duration
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		client:   &http.Client{},
		maxBytes: DefaultMaxBytes,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve turns a path or http(s) URL into a Fetched document with a known
// format. Failures wrap document.ErrNotFound, document.ErrFetch or
// document.ErrUnknownFormat.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Fetched, error) {
	ref = strings.TrimSpace(ref)
	u, err := url.Parse(ref)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return r.fetchRemote(ctx, ref, u)
		case "file":
			return r.resolveLocal(u.Path)
		}
	}
	return r.resolveLocal(ref)
}

func (r *Resolver) resolveLocal(path string) (*Fetched, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", document.ErrNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", document.ErrNotFound, path)
	}

	format := document.FormatFromName(path)
	if !format.Known() {
		return nil, fmt.Errorf("%w: %s", document.ErrUnknownFormat, filepath.Ext(path))
	}

	return &Fetched{Reference: path, Format: format, Path: path}, nil
}

func (r *Resolver) fetchRemote(ctx context.Context, ref string, u *url.URL) (*Fetched, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, &document.FetchError{URL: ref, Err: err}
	}

	resp, err := r.client.Do(req) // #nosec G107 -- fetching caller supplied documents is the purpose of this component
	if err != nil {
		return nil, &document.FetchError{URL: ref, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &document.FetchError{URL: ref, StatusCode: resp.StatusCode}
	}

	format := detectFormat(resp, u)
	if !format.Known() {
		return nil, fmt.Errorf("%w: content-type %q", document.ErrUnknownFormat, resp.Header.Get("Content-Type"))
	}

	path, err := r.spool(resp.Body, format)
	if err != nil {
		return nil, &document.FetchError{URL: ref, Err: err}
	}

	slog.DebugContext(ctx, "remote document spooled", "url", ref, "format", format, "path", path)
	return &Fetched{Reference: ref, Format: format, Path: path, Remote: true}, nil
}

// detectFormat tries the Content-Disposition filename, then the MIME type,
// then the suffix of the final URL path (query string ignored).
func detectFormat(resp *http.Response, u *url.URL) document.Format {
	if f := document.FormatFromContentDisposition(resp.Header.Get("Content-Disposition")); f.Known() {
		return f
	}
	if f := document.FormatFromContentType(resp.Header.Get("Content-Type")); f.Known() {
		return f
	}
	// After redirects the final path is more telling than the requested one.
	if resp.Request != nil && resp.Request.URL != nil {
		if f := document.FormatFromName(resp.Request.URL.Path); f.Known() {
			return f
		}
	}
	return document.FormatFromName(u.Path)
}

// spool copies body into a temp file tagged with the format suffix. The file
// is removed again if anything goes wrong before ownership is handed out.
func (r *Resolver) spool(body io.Reader, format document.Format) (path string, err error) {
	f, err := os.CreateTemp(r.tempDir, "docqa-*"+format.Ext())
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			if rmErr := os.Remove(path); rmErr != nil {
				slog.Warn("failed to remove temp document", "path", path, "error", rmErr)
			}
			path = ""
		}
	}()

	n, err := io.Copy(f, io.LimitReader(body, r.maxBytes+1))
	if err != nil {
		return path, err
	}
	if n > r.maxBytes {
		return path, fmt.Errorf("document exceeds %d bytes", r.maxBytes)
	}
	return path, nil
}
