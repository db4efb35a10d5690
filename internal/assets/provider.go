package assets

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Faultbox/cubemodel/pkg/resource"
)

// Provider is one source of asset files: a resource pack folder, a zip or
// jar archive, or an in-memory table. Paths are slash-separated storage
// paths such as "assets/minecraft/models/block/stone.json".
type Provider interface {
	// Read returns the file at path, or an error wrapping resource.ErrNotFound.
	Read(path string) ([]byte, error)
	// List returns every file path the provider holds.
	List() []string
	Close() error
	String() string
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "/")
}

func notFound(path string) error {
	return fmt.Errorf("%w: %s", resource.ErrNotFound, path)
}

// FolderProvider reads files below a directory on disk.
type FolderProvider struct {
	root fs.FS
	dir  string
}

// NewFolderProvider opens dir as a provider.
func NewFolderProvider(dir string) (*FolderProvider, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("opening folder: %s is not a directory", dir)
	}
	return &FolderProvider{root: os.DirFS(dir), dir: dir}, nil
}

func (p *FolderProvider) Read(path string) ([]byte, error) {
	path = normalizePath(path)
	if !fs.ValidPath(path) {
		return nil, notFound(path)
	}
	data, err := fs.ReadFile(p.root, path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(path)
	}
	return data, err
}

func (p *FolderProvider) List() []string {
	var paths []string
	fs.WalkDir(p.root, ".", func(path string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	return paths
}

func (p *FolderProvider) Close() error { return nil }

func (p *FolderProvider) String() string { return "folder " + p.dir }

// ZipProvider reads files from a zip archive, such as a resource pack or a
// game jar.
type ZipProvider struct {
	name    string
	reader  *zip.ReadCloser
	entries map[string]*zip.File
	mu      sync.Mutex
}

// OpenZip opens a zip or jar archive.
func OpenZip(path string) (*ZipProvider, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	p := &ZipProvider{
		name:    path,
		reader:  r,
		entries: make(map[string]*zip.File, len(r.File)),
	}
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		p.entries[normalizePath(f.Name)] = f
	}
	return p, nil
}

func (p *ZipProvider) Read(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := p.entries[path]
	if !ok {
		return nil, notFound(path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func (p *ZipProvider) List() []string {
	paths := make([]string, 0, len(p.entries))
	for path := range p.entries {
		paths = append(paths, path)
	}
	return paths
}

func (p *ZipProvider) Close() error {
	return p.reader.Close()
}

func (p *ZipProvider) String() string { return "zip " + p.name }

// MemoryProvider serves files from a map. It is mostly useful in tests and
// for overlaying generated documents.
type MemoryProvider struct {
	files map[string][]byte
	mu    sync.RWMutex
}

// NewMemoryProvider creates a provider holding a copy of files.
func NewMemoryProvider(files map[string][]byte) *MemoryProvider {
	p := &MemoryProvider{files: make(map[string][]byte, len(files))}
	for path, data := range files {
		p.files[normalizePath(path)] = data
	}
	return p
}

// Put adds or replaces a file.
func (p *MemoryProvider) Put(path string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[normalizePath(path)] = data
}

func (p *MemoryProvider) Read(path string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	data, ok := p.files[normalizePath(path)]
	if !ok {
		return nil, notFound(path)
	}
	return data, nil
}

func (p *MemoryProvider) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	paths := make([]string, 0, len(p.files))
	for path := range p.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (p *MemoryProvider) Close() error { return nil }

func (p *MemoryProvider) String() string { return "memory" }

// OpenProvider opens path as a folder, or as an archive when it is a file.
func OpenProvider(path string) (Provider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if info.IsDir() {
		return NewFolderProvider(path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".jar":
		return OpenZip(path)
	}
	return nil, fmt.Errorf("opening %s: unsupported asset source", path)
}
