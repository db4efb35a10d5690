// Package resource provides namespaced asset identifiers and the loader
// interface used to fetch asset bytes by storage path.
package resource

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// DefaultNamespace is used when an identifier omits its namespace.
const DefaultNamespace = "minecraft"

// Identifier errors.
var (
	ErrEmptyNamespace = errors.New("identifier has empty namespace")
	ErrEmptyPath      = errors.New("identifier has empty path")

	// ErrNotFound is returned by loaders when no asset exists at a path.
	ErrNotFound = errors.New("asset not found")
)

// Loader returns the raw bytes stored at a canonical storage path such as
// "assets/minecraft/models/block/stone.json".
type Loader interface {
	Load(path string) ([]byte, error)
}

// LoaderFunc adapts a plain function to the Loader interface.
type LoaderFunc func(path string) ([]byte, error)

// Load calls f(path).
func (f LoaderFunc) Load(path string) ([]byte, error) {
	return f(path)
}

// Identifier addresses an asset by namespace and relative path,
// e.g. "minecraft:block/stone".
type Identifier struct {
	Namespace string
	Path      string
}

// New creates an identifier, normalizing the path separator.
func New(namespace, relPath string) (Identifier, error) {
	if namespace == "" {
		return Identifier{}, ErrEmptyNamespace
	}
	relPath = normalizePath(relPath)
	if relPath == "" {
		return Identifier{}, ErrEmptyPath
	}
	return Identifier{Namespace: namespace, Path: relPath}, nil
}

// Parse parses "namespace:path". Without a colon the default namespace is used.
func Parse(s string) (Identifier, error) {
	return ParseDefault(s, DefaultNamespace)
}

// ParseDefault parses "namespace:path", falling back to the given namespace
// when the string has no colon.
func ParseDefault(s, namespace string) (Identifier, error) {
	ns, p, found := strings.Cut(s, ":")
	if !found {
		ns, p = namespace, s
	}
	id, err := New(ns, p)
	if err != nil {
		return Identifier{}, fmt.Errorf("parsing identifier %q: %w", s, err)
	}
	return id, nil
}

// MustParse is like Parse but panics on error. Intended for constants and tests.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// In returns the identifier with a domain segment inserted before the path
// and ext appended, e.g. ("models", ".json"): block/stone -> models/block/stone.json.
func (id Identifier) In(domain, ext string) Identifier {
	p := id.Path
	if domain != "" {
		p = domain + "/" + p
	}
	return Identifier{Namespace: id.Namespace, Path: normalizePath(p + ext)}
}

// StoragePath returns the canonical path "assets/<namespace>/<path>".
func (id Identifier) StoragePath() string {
	return "assets/" + id.Namespace + "/" + normalizePath(id.Path)
}

// Equal reports whether both identifiers address the same storage path.
func (id Identifier) Equal(other Identifier) bool {
	return id.StoragePath() == other.StoragePath()
}

// IsZero reports whether the identifier is unset.
func (id Identifier) IsZero() bool {
	return id.Namespace == "" && id.Path == ""
}

// String returns "namespace:path".
func (id Identifier) String() string {
	return id.Namespace + ":" + id.Path
}

func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}
