package jinja2

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/neurodesk/cotton/pkg/netcache"
)

// Loader returns template source by name.
type Loader interface {
	Load(name string) (string, error)
}

type MemoryLoader map[string]string

func (m MemoryLoader) Load(name string) (string, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	return "", ErrTemplateNotFound{name}
}

type ErrTemplateNotFound struct{ Name string }

func (e ErrTemplateNotFound) Error() string { return "template not found: " + e.Name }

// IsNotFound reports whether err means a template does not exist.
func IsNotFound(err error) bool {
	var nf ErrTemplateNotFound
	return errors.As(err, &nf)
}

// FSLoader loads templates from a file system, e.g. os.DirFS or embed.FS.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(name string) (string, error) {
	b, err := fs.ReadFile(l.FS, strings.TrimPrefix(name, "/"))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrTemplateNotFound{name}
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ChainLoader tries each loader in order and returns the first hit.
type ChainLoader []Loader

func (c ChainLoader) Load(name string) (string, error) {
	for _, l := range c {
		src, err := l.Load(name)
		if err == nil {
			return src, nil
		}
		if !IsNotFound(err) {
			return "", err
		}
	}
	return "", ErrTemplateNotFound{name}
}

// CachedLoader keeps loaded sources in memory for ttl so repeated renders do
// not go back to disk or the network.
type CachedLoader struct {
	next  Loader
	ttl   time.Duration
	cache *gocache.Cache
}

// NewCachedLoader caches sources from next for ttl. A ttl of zero or less
// keeps sources until Flush.
func NewCachedLoader(next Loader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{
		next:  next,
		ttl:   ttl,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (c *CachedLoader) Load(name string) (string, error) {
	if v, found := c.cache.Get(name); found {
		if src, ok := v.(string); ok {
			slog.Debug("template source cache hit", "name", name)
			return src, nil
		}
	}
	src, err := c.next.Load(name)
	if err != nil {
		return "", err
	}
	c.cache.Set(name, src, c.ttl)
	return src, nil
}

// Flush drops every cached source.
func (c *CachedLoader) Flush() {
	c.cache.Flush()
}

// HTTPLoader fetches templates relative to BaseURL through a persistent
// HTTP cache.
type HTTPLoader struct {
	BaseURL string
	Cache   *netcache.Cache
	Timeout time.Duration
}

func (h HTTPLoader) Load(name string) (string, error) {
	u, err := url.JoinPath(h.BaseURL, name)
	if err != nil {
		return "", err
	}
	ctx := context.Background()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	path, fromCache, err := h.Cache.Get(ctx, u)
	if errors.Is(err, netcache.ErrNotFound) {
		return "", ErrTemplateNotFound{name}
	}
	if err != nil {
		return "", err
	}
	slog.Debug("remote template", "url", u, "from_cache", fromCache)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
