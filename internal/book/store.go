package book

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/nerdenough/ai-storytime/internal/identifier"
)

const (
	defaultCacheExpiration = 5 * time.Minute
	cacheCleanupInterval   = 10 * time.Minute

	// DefaultURLPrefix is where the data directory is served over HTTP.
	DefaultURLPrefix = "/data"
)

var (
	// ErrAlreadyExists is returned by Create when the identifier is taken.
	ErrAlreadyExists = identifier.ErrTaken

	// ErrNotFound is returned by Read when no book is stored under the identifier.
	ErrNotFound = errors.New("book not found")
)

// StoreConfig configures a Store.
type StoreConfig struct {
	// Root is the data directory; each book is a subdirectory.
	Root string
	// Layout selects the on-disk format (default JSONLayout).
	Layout Layout
	// URLPrefix is the public path Root is served under (default /data).
	URLPrefix string
	// CacheTTL bounds how long Read results are reused (default 5m).
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Store is the durable book namespace rooted at one data directory.
type Store struct {
	root      string
	layout    Layout
	urlPrefix string
	cache     *cache.Cache
	reads     singleflight.Group
	logger    *slog.Logger
}

// NewStore creates the data directory if needed and returns a store over it.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("book store root is required")
	}
	if cfg.Layout == nil {
		cfg.Layout = JSONLayout{}
	}
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = DefaultURLPrefix
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = defaultCacheExpiration
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{
		root:      cfg.Root,
		layout:    cfg.Layout,
		urlPrefix: cfg.URLPrefix,
		cache:     cache.New(cfg.CacheTTL, cacheCleanupInterval),
		logger:    cfg.Logger,
	}, nil
}

// Root returns the data directory.
func (s *Store) Root() string {
	return s.root
}

// Layout returns the store's layout.
func (s *Store) Layout() Layout {
	return s.layout
}

// Dir returns the directory of a book.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// URL returns the public URL of a path inside a book's directory.
func (s *Store) URL(id string, elem ...string) string {
	return path.Join(append([]string{s.urlPrefix, id}, elem...)...)
}

// Exists reports whether a book directory is present, complete or not.
func (s *Store) Exists(id string) bool {
	if !identifier.Valid(id) {
		return false
	}
	_, err := os.Stat(s.Dir(id))
	return err == nil
}

// Create claims id by creating its directory and the layout's subdirectories.
// The root mkdir is atomic, so exactly one concurrent caller can claim an id;
// the others get ErrAlreadyExists.
func (s *Store) Create(id string) error {
	if err := identifier.Validate(id); err != nil {
		return err
	}

	dir := s.Dir(id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("book %q: %w", id, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create book directory: %w", err)
	}
	for _, sub := range s.layout.Subdirs() {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", sub, err)
		}
	}
	return nil
}

// Release removes a claimed directory that never received a record.
// Directories holding a persisted book are left alone.
func (s *Store) Release(id string) error {
	if err := identifier.Validate(id); err != nil {
		return err
	}
	dir := s.Dir(id)
	if s.layout.HasRecord(dir) {
		return nil
	}
	return os.RemoveAll(dir)
}

// Write persists b under its identifier.
func (s *Store) Write(b *Book) error {
	if err := identifier.Validate(b.Identifier); err != nil {
		return err
	}
	if err := s.layout.Write(s.Dir(b.Identifier), b); err != nil {
		return err
	}
	s.cache.Delete(b.Identifier)
	return nil
}

// Read loads a book. Concurrent reads of the same identifier share one disk
// read and results are cached until the next Write. Callers get their own copy.
func (s *Store) Read(id string) (*Book, error) {
	if err := identifier.Validate(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if cached, ok := s.cache.Get(id); ok {
		return cached.(*Book).Clone(), nil
	}

	val, err, _ := s.reads.Do(id, func() (interface{}, error) {
		b, err := s.layout.Read(s.Dir(id), s.URL(id))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("book %q: %w", id, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to read book %q: %w", id, err)
		}
		b.Identifier = id
		s.cache.SetDefault(id, b)
		return b, nil
	})
	if err != nil {
		return nil, err
	}

	b, ok := val.(*Book)
	if !ok {
		return nil, fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return b.Clone(), nil
}

// List returns the identifiers of all persisted books, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !identifier.Valid(e.Name()) {
			continue
		}
		if s.layout.HasRecord(s.Dir(e.Name())) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
