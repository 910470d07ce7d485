// Package registry keeps a set of xorset filters addressed by uuid.
//
// Filters are immutable, so the registry never edits one in place: Put and
// Reload publish a new map and readers holding an Entry keep using the
// filter they already have.
package registry

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/brianolson/xorset"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Entry is one loaded filter.
type Entry struct {
	ID         uuid.UUID
	SourceFile string
	NumEntries int
	Filter     *xorset.Xor8
}

type entries map[uuid.UUID]*Entry

type Registry struct {
	dir string
	log *zap.Logger

	// mu serializes writers; readers only Load current.
	mu      sync.Mutex
	current atomic.Pointer[entries]
}

type Option func(*Registry)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) {
		r.log = log
	}
}

// New returns an empty registry over dir. Call Reload to load it.
func New(dir string, opts ...Option) *Registry {
	r := &Registry{
		dir: dir,
		log: zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	r.current.Store(&entries{})
	return r
}

// Dir returns the directory Reload reads from.
func (r *Registry) Dir() string {
	return r.dir
}

// Reload reads every document in the directory and replaces the whole set
// of filters in one step. Documents that cannot be read or decoded are
// logged and skipped. A missing directory is created and yields an empty
// registry. If ctx is cancelled the current set is left in place.
func (r *Registry) Reload(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	log := r.log.With(zap.String("dir", r.dir))

	if _, err := os.Stat(r.dir); errors.Is(err, fs.ErrNotExist) {
		log.Warn("filters directory does not exist, creating it")
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return 0, err
		}
		r.current.Store(&entries{})
		return 0, nil
	}

	paths, err := filepath.Glob(filepath.Join(r.dir, "*"+DocumentExt))
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		log.Warn("no filter files found")
	}

	next := make(entries, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		entry, err := loadEntry(path)
		if err != nil {
			log.Error("skipping filter file", zap.String("path", path), zap.Error(err))
			continue
		}
		if _, dup := next[entry.ID]; dup {
			log.Warn("duplicate filter uuid, later file wins",
				zap.Stringer("uuid", entry.ID), zap.String("path", path))
		}
		next[entry.ID] = entry
		log.Debug("loaded filter",
			zap.Stringer("uuid", entry.ID), zap.Int("entries", entry.NumEntries))
	}

	r.current.Store(&next)
	log.Info("filters loaded", zap.Int("count", len(next)))
	return len(next), nil
}

func loadEntry(path string) (*Entry, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return doc.Entry()
}

// Put adds entry, replacing any entry with the same ID.
func (r *Registry) Put(entry *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.current.Load()
	next := make(entries, len(old)+1)
	for id, e := range old {
		next[id] = e
	}
	next[entry.ID] = entry
	r.current.Store(&next)
	r.log.Info("filter stored", zap.Stringer("uuid", entry.ID), zap.Int("entries", entry.NumEntries))
}

// Get returns the entry for id.
func (r *Registry) Get(id uuid.UUID) (*Entry, bool) {
	e, ok := (*r.current.Load())[id]
	return e, ok
}

// Query reports whether text is probably in the filter id.
func (r *Registry) Query(id uuid.UUID, text string) (bool, error) {
	e, ok := r.Get(id)
	if !ok {
		return false, ErrNotFound
	}
	return e.Filter.ContainsString(text), nil
}

// List returns the loaded entries ordered by uuid.
func (r *Registry) List() []*Entry {
	cur := *r.current.Load()
	out := make([]*Entry, 0, len(cur))
	for _, e := range cur {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *Entry) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}

func (r *Registry) Len() int {
	return len(*r.current.Load())
}
