package blockmodel

import (
	"fmt"
	"strings"

	"github.com/Faultbox/cubemodel/pkg/math"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// DefaultMaxDepth bounds the length of a parent chain.
const DefaultMaxDepth = 32

const builtinPrefix = "builtin/"

// Resolver loads model documents and flattens their parent chains.
// It holds no state between calls and is safe for concurrent use as long
// as its Loader is.
type Resolver struct {
	Loader resource.Loader
	// Namespace is applied to parent and texture paths without one.
	Namespace string
	MaxDepth  int
}

// NewResolver creates a resolver with default settings.
func NewResolver(loader resource.Loader) *Resolver {
	return &Resolver{
		Loader:    loader,
		Namespace: resource.DefaultNamespace,
		MaxDepth:  DefaultMaxDepth,
	}
}

// Resolve loads the model identified by id (e.g. "minecraft:block/stone",
// stored at assets/minecraft/models/block/stone.json) and merges it with
// its ancestors.
func Resolve(loader resource.Loader, id resource.Identifier) (*Model, error) {
	return NewResolver(loader).Resolve(id)
}

type chainLink struct {
	id  resource.Identifier
	doc *Document
}

// Resolve implements the package-level Resolve.
func (r *Resolver) Resolve(id resource.Identifier) (*Model, error) {
	links, builtin, err := r.loadChain(id)
	if err != nil {
		return nil, err
	}

	chain := make([]resource.Identifier, len(links))
	for i, l := range links {
		chain[i] = l.id
	}

	m := &Model{
		ID:      id,
		Chain:   chain,
		Builtin: builtin,
	}
	textures := make(map[string]string)
	display := make(map[string]math.Mat4)

	// Root first, so each child overrides what it inherits.
	for i := len(links) - 1; i >= 0; i-- {
		doc := links[i].doc
		if len(doc.Cuboids) > 0 {
			m.Cuboids = append([]Cuboid(nil), doc.Cuboids...)
		}
		for name, value := range doc.Textures {
			textures[name] = value
		}
		for name, t := range doc.Display {
			display[name] = t
		}
	}
	display[DefaultDisplay] = math.Identity()
	m.Display = display

	resolved, err := ResolveTextures(textures, r.namespace())
	if err != nil {
		return nil, &ResolveError{ID: id, Chain: chain, Err: err}
	}
	m.Textures = resolved

	return m, nil
}

// loadChain parses id and its ancestors, child first. The builtin root name
// is returned separately since it has no document.
func (r *Resolver) loadChain(id resource.Identifier) ([]chainLink, string, error) {
	maxDepth := r.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var (
		links []chainLink
		chain []resource.Identifier
	)
	fail := func(cur resource.Identifier, err error) ([]chainLink, string, error) {
		return nil, "", &ResolveError{ID: cur, Chain: append([]resource.Identifier(nil), chain...), Err: err}
	}

	cur := id
	for {
		for _, seen := range chain {
			if seen.Equal(cur) {
				return fail(cur, fmt.Errorf("%w: parent cycle at %s", ErrMalformedDocument, cur))
			}
		}
		if len(chain) >= maxDepth {
			return fail(cur, fmt.Errorf("%w: parent chain deeper than %d", ErrMalformedDocument, maxDepth))
		}
		chain = append(chain, cur)

		data, err := r.Loader.Load(cur.In("models", ".json").StoragePath())
		if err != nil {
			if len(chain) > 1 {
				err = fmt.Errorf("%w: %s: %w", ErrMissingParent, cur, err)
			}
			return fail(cur, err)
		}

		doc, err := ParseDocument(data)
		if err != nil {
			return fail(cur, err)
		}
		links = append(links, chainLink{id: cur, doc: doc})

		if doc.Parent == "" {
			return links, "", nil
		}

		parent, err := resource.ParseDefault(doc.Parent, r.namespace())
		if err != nil {
			return fail(cur, fmt.Errorf("%w: parent: %v", ErrMalformedDocument, err))
		}
		if name, ok := strings.CutPrefix(parent.Path, builtinPrefix); ok {
			return links, name, nil
		}
		cur = parent
	}
}

func (r *Resolver) namespace() string {
	if r.Namespace == "" {
		return resource.DefaultNamespace
	}
	return r.Namespace
}
