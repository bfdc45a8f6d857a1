package rtadapt

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// VFS lets a host intercept binary loading (spec.md §6
// "rt_loader_intercept(vfs)"). VirtualizePath decides whether uri should
// be routed through TryLoadBinary rather than the filesystem; relative
// paths resolved against a virtualized origin inherit that origin's
// virtualization (see Loader.Resolve).
type VFS interface {
	VirtualizePath(uri string) bool
	TryLoadBinary(uri string) ([]byte, error)
}

// Loader is rt_load_binary_default plus its optional client intercept,
// with an fsnotify-backed memo cache for filesystem reads (SPEC_FULL.md
// §4.G / DOMAIN STACK). Loaded bytes are cached by uri until the watched
// file changes (Close stops the watcher but keeps the cache); virtualized
// loads are never
// cached, since the client-supplied vfs owns whatever caching policy it
// wants.
type Loader struct {
	vfs    VFS
	log    *slog.Logger
	watch  *fsnotify.Watcher
	mu     sync.Mutex
	memo   map[string][]byte
	origin map[string]bool // uri -> loaded via vfs (for Resolve's inheritance rule)
}

// NewLoader constructs a Loader. vfs may be nil (no interception: every
// uri is read from the filesystem). If fsnotify.NewWatcher fails (e.g. a
// sandboxed environment with no inotify), the Loader still works, just
// without cache invalidation on external edits.
func NewLoader(vfs VFS, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	l := &Loader{
		vfs:    vfs,
		log:    log,
		memo:   make(map[string][]byte),
		origin: make(map[string]bool),
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("rtadapt: fsnotify unavailable, loader cache will not invalidate on edit", "error", err)
		return l
	}
	l.watch = w
	go l.watchLoop()
	return l
}

func (l *Loader) watchLoop() {
	for {
		select {
		case event, ok := <-l.watch.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				l.invalidate(event.Name)
			}
		case err, ok := <-l.watch.Errors:
			if !ok {
				return
			}
			l.log.Warn("rtadapt: fsnotify watch error", "error", err)
		}
	}
}

func (l *Loader) invalidate(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.memo[path]; ok {
		delete(l.memo, path)
		l.log.Info("rtadapt: dropped memo entry after external edit", "path", path)
	}
}

// Close stops the invalidation watcher. Safe to call on a Loader whose
// watcher failed to start.
func (l *Loader) Close() error {
	if l.watch == nil {
		return nil
	}
	return l.watch.Close()
}

// Resolve joins rel against base's directory, inheriting base's
// virtualization: if base was loaded through the vfs, the joined uri is
// too, even absent an explicit VirtualizePath(joined) == true (spec.md
// §6 "Relative paths inherit virtualisation from their origin").
func (l *Loader) Resolve(base, rel string) string {
	joined := rel
	if !filepath.IsAbs(rel) {
		joined = filepath.Join(filepath.Dir(base), rel)
	}
	l.mu.Lock()
	inherited := l.origin[base]
	l.mu.Unlock()
	if inherited {
		l.mu.Lock()
		l.origin[joined] = true
		l.mu.Unlock()
	}
	return joined
}

// LoadBinary loads uri: through vfs.TryLoadBinary if vfs routes it there
// (either via VirtualizePath or Resolve's inheritance), otherwise from
// the filesystem, with a per-path memo cache invalidated by fsnotify.
func (l *Loader) LoadBinary(uri string) ([]byte, error) {
	l.mu.Lock()
	virtual := l.origin[uri]
	l.mu.Unlock()
	if l.vfs != nil && (virtual || l.vfs.VirtualizePath(uri)) {
		l.mu.Lock()
		l.origin[uri] = true
		l.mu.Unlock()
		return l.vfs.TryLoadBinary(uri)
	}
	return l.loadFile(uri)
}

func (l *Loader) loadFile(path string) ([]byte, error) {
	l.mu.Lock()
	if cached, ok := l.memo[path]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	l.mu.Unlock()

	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rtadapt: load %s: %w", path, err)
	}

	l.mu.Lock()
	l.memo[path] = bs
	l.mu.Unlock()

	if l.watch != nil {
		if err := l.watch.Add(path); err != nil {
			l.log.Warn("rtadapt: could not watch loaded path", "path", path, "error", err)
		}
	}
	return bs, nil
}
