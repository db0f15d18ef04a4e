// Package storageengine implements the storage-server side of the
// filesystem: size/read/write/create/delete against a local-filesystem
// root, idempotent logical-to-local path translation, and the startup
// prune of now-empty directories.
package storageengine

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/arjunmenon/meridian/internal/logservice"
	"github.com/arjunmenon/meridian/internal/nspath"
)

// Engine maps logical paths onto a local-filesystem root and performs the
// size/read/write/create/delete operations a storage server exposes on its
// Storage and Command endpoints.
type Engine struct {
	root string
	ls   logservice.LogService

	pathLocksMu sync.Mutex
	pathLocks   map[string]*sync.Mutex
}

// New creates an Engine rooted at root, creating the directory if it does
// not already exist.
func New(root string, ls logservice.LogService) (*Engine, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, err
	}
	return &Engine{
		root:      absRoot,
		ls:        ls,
		pathLocks: make(map[string]*sync.Mutex),
	}, nil
}

// Root returns the engine's local-filesystem root directory.
func (e *Engine) Root() string {
	return e.root
}

// localPath translates a logical path into a local-filesystem path. A
// path that already carries the root prefix is used as-is, so the
// translation is idempotent.
func (e *Engine) localPath(p nspath.Path) string {
	s := p.String()
	if strings.HasPrefix(s, e.root) {
		return filepath.Clean(s)
	}
	return filepath.Join(e.root, s)
}

func (e *Engine) lockFor(localPath string) *sync.Mutex {
	e.pathLocksMu.Lock()
	defer e.pathLocksMu.Unlock()
	l, ok := e.pathLocks[localPath]
	if !ok {
		l = &sync.Mutex{}
		e.pathLocks[localPath] = l
	}
	return l
}

// Size returns the byte size of the file at path.
func (e *Engine) Size(path nspath.Path) (int64, error) {
	local := e.localPath(path)
	info, err := os.Stat(local)
	if err != nil {
		return 0, ErrNotFound
	}
	if info.IsDir() {
		return 0, ErrNotFound
	}
	return info.Size(), nil
}

// Read returns exactly length bytes starting at offset. offset and length
// must satisfy 0 <= offset, 0 <= length, offset+length <= size.
func (e *Engine) Read(path nspath.Path, offset int64, length int) ([]byte, error) {
	local := e.localPath(path)

	lock := e.lockFor(local)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.Open(local)
	if err != nil {
		return nil, ErrNotFound
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, ErrNotFound
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}
	if offset < 0 || length < 0 || offset+int64(length) > info.Size() {
		return nil, ErrIndexOutOfBounds
	}

	buf := make([]byte, length)
	if length > 0 {
		if _, err := f.ReadAt(buf, offset); err != nil && err != io.EOF {
			return nil, err
		}
	}
	return buf, nil
}

// Write writes data at offset, zero-filling any gap between the current
// end of file and offset, and fsyncs before returning.
func (e *Engine) Write(path nspath.Path, offset int64, data []byte) error {
	if data == nil {
		return ErrNilData
	}
	if offset < 0 {
		return ErrIndexOutOfBounds
	}

	local := e.localPath(path)

	lock := e.lockFor(local)
	lock.Lock()
	defer lock.Unlock()

	f, err := os.OpenFile(local, os.O_RDWR, 0o644)
	if err != nil {
		return ErrNotFound
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if offset > info.Size() {
		if err := f.Truncate(offset); err != nil {
			return err
		}
	}
	if _, err := f.WriteAt(data, offset); err != nil {
		return err
	}
	return f.Sync()
}

// Create creates all missing ancestor directories and then the empty file
// at path. It returns false (not an error) if the path already exists or
// if an I/O error occurs; the caller only observes success/failure.
func (e *Engine) Create(path nspath.Path) bool {
	local := e.localPath(path)

	lock := e.lockFor(local)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(local); err == nil {
		return false
	}

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		e.ls.Error(logservice.LogEvent{Message: "create: mkdir ancestors failed", Metadata: map[string]any{"path": path.String(), "error": err.Error()}})
		return false
	}
	f, err := os.OpenFile(local, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		e.ls.Error(logservice.LogEvent{Message: "create: open failed", Metadata: map[string]any{"path": path.String(), "error": err.Error()}})
		return false
	}
	f.Close()
	return true
}

// Delete removes path. The root path is always rejected. A directory is
// removed recursively, children before parent. Deleting a path that does
// not exist returns false, not an error.
func (e *Engine) Delete(path nspath.Path) bool {
	if path.IsRoot() {
		return false
	}

	local := e.localPath(path)

	lock := e.lockFor(local)
	lock.Lock()
	defer lock.Unlock()

	return e.deleteLocal(local)
}

func (e *Engine) deleteLocal(local string) bool {
	info, err := os.Stat(local)
	if err != nil {
		return false
	}

	if info.IsDir() {
		entries, err := os.ReadDir(local)
		if err != nil {
			e.ls.Error(logservice.LogEvent{Message: "delete: read dir failed", Metadata: map[string]any{"path": local, "error": err.Error()}})
			return false
		}
		for _, entry := range entries {
			if !e.deleteLocal(filepath.Join(local, entry.Name())) {
				return false
			}
		}
	}

	if err := os.Remove(local); err != nil {
		e.ls.Error(logservice.LogEvent{Message: "delete: remove failed", Metadata: map[string]any{"path": local, "error": err.Error()}})
		return false
	}
	return true
}

// Scan walks the engine's root and returns the logical Path of every
// regular file found, for use as the inventory offered at registration.
// A root with no files yields an empty, non-nil slice.
func (e *Engine) Scan() ([]nspath.Path, error) {
	paths := []nspath.Path{}
	err := filepath.Walk(e.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.root, p)
		if err != nil {
			return err
		}
		logical, err := nspath.New("/" + filepath.ToSlash(rel))
		if err != nil {
			return nil // skip paths that can't round-trip through nspath
		}
		paths = append(paths, logical)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

// Prune deletes every path in deleteList (logical paths, as returned by a
// naming server's register call) and then walks the root bottom-up
// removing now-empty directories. A transient I/O error on a single
// directory is logged and skipped, not fatal.
func (e *Engine) Prune(deleteList []nspath.Path) {
	for _, p := range deleteList {
		e.Delete(p)
	}
	e.pruneEmptyDirs(e.root)
}

// pruneEmptyDirs visits dir's children first, removing each subdirectory
// that ends up empty, then reports whether dir itself is now empty. It
// never removes the engine's own root, even if empty.
func (e *Engine) pruneEmptyDirs(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		e.ls.Warn(logservice.LogEvent{Message: "prune: read dir failed", Metadata: map[string]any{"dir": dir, "error": err.Error()}})
		return false
	}

	empty := true
	for _, entry := range entries {
		if !entry.IsDir() {
			empty = false
			continue
		}

		child := filepath.Join(dir, entry.Name())
		if !e.pruneEmptyDirs(child) {
			empty = false
			continue
		}
		if err := os.Remove(child); err != nil {
			e.ls.Warn(logservice.LogEvent{Message: "prune: remove empty dir failed", Metadata: map[string]any{"dir": child, "error": err.Error()}})
			empty = false
		}
	}
	return empty
}
