// Package compiler turns a model identifier into render-ready data: the
// flattened model, a texture atlas, and triangle geometry.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/cubemodel/internal/atlas"
	"github.com/Faultbox/cubemodel/internal/logger"
	"github.com/Faultbox/cubemodel/internal/mesh"
	"github.com/Faultbox/cubemodel/internal/texture"
	"github.com/Faultbox/cubemodel/pkg/blockmodel"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// Stage names the compile step an error came from.
type Stage string

// Compile stages, in execution order.
const (
	StageResolve  Stage = "resolve"
	StageTextures Stage = "textures"
	StageAtlas    Stage = "atlas"
	StageGeometry Stage = "geometry"
)

// Error describes a failed compile.
type Error struct {
	Model resource.Identifier
	// Chain is the parent chain reached before the failure, if known.
	Chain []resource.Identifier
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "compiling %s: %s", e.Model, e.Stage)
	if len(e.Chain) > 1 {
		ids := make([]string, len(e.Chain))
		for i, id := range e.Chain {
			ids[i] = id.String()
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(ids, " -> "))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options configures a Compiler.
type Options struct {
	// Namespace applies to identifiers without one. Default: minecraft
	Namespace string
	// EnforceSquare crops non-square textures to their top-left square.
	EnforceSquare bool
	Atlas         atlas.Config
	// MaxDepth bounds parent chains. Default: blockmodel.DefaultMaxDepth
	MaxDepth int
}

// DefaultOptions returns the options used by the CLI when no config is given.
func DefaultOptions() Options {
	return Options{
		Namespace:     resource.DefaultNamespace,
		EnforceSquare: true,
		Atlas:         atlas.DefaultConfig(),
		MaxDepth:      blockmodel.DefaultMaxDepth,
	}
}

// Result is a compiled model.
type Result struct {
	Model    *blockmodel.Model
	Atlas    *atlas.Atlas
	Geometry *mesh.Geometry
	// Variables maps each referenced texture variable to its atlas key.
	Variables map[string]string
}

// IconOnly reports whether the model has no cuboids and only a texture set.
func (r *Result) IconOnly() bool {
	return !r.Model.HasGeometry()
}

// Compiler compiles models from one asset source. It is safe for concurrent
// use as long as the loader is.
type Compiler struct {
	loader   resource.Loader
	resolver *blockmodel.Resolver
	opts     Options
	log      *zap.Logger
}

// New creates a compiler reading documents and textures through loader.
func New(loader resource.Loader, opts Options) *Compiler {
	def := DefaultOptions()
	if opts.Namespace == "" {
		opts.Namespace = def.Namespace
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = def.MaxDepth
	}

	r := blockmodel.NewResolver(loader)
	r.Namespace = opts.Namespace
	r.MaxDepth = opts.MaxDepth

	return &Compiler{
		loader:   loader,
		resolver: r,
		opts:     opts,
		log:      logger.Named("compiler"),
	}
}

// Options returns the effective options.
func (c *Compiler) Options() Options {
	return c.opts
}

// Resolve runs only the resolve stage.
func (c *Compiler) Resolve(id resource.Identifier) (*blockmodel.Model, error) {
	m, err := c.resolver.Resolve(id)
	if err != nil {
		return nil, c.fail(id, nil, StageResolve, err)
	}
	return m, nil
}

// Compile resolves the model, loads every texture its faces reference,
// packs them into an atlas and builds the geometry. A model without cuboids
// compiles to its atlas alone with empty geometry.
func (c *Compiler) Compile(id resource.Identifier) (*Result, error) {
	start := time.Now()

	model, err := c.Resolve(id)
	if err != nil {
		return nil, err
	}

	vars, textures, err := c.loadTextures(model)
	if err != nil {
		return nil, c.fail(id, model.Chain, StageTextures, err)
	}

	a, err := atlas.Pack(textures, c.opts.Atlas)
	if err != nil {
		return nil, c.fail(id, model.Chain, StageAtlas, err)
	}

	res := &Result{Model: model, Atlas: a, Variables: vars, Geometry: &mesh.Geometry{}}
	if model.HasGeometry() {
		res.Geometry, err = mesh.Compile(model, a)
		if err != nil {
			return nil, c.fail(id, model.Chain, StageGeometry, err)
		}
	}

	c.log.Debug("compiled model",
		zap.Stringer("model", id),
		zap.Int("chain", len(model.Chain)),
		zap.Int("textures", a.Len()),
		zap.Int("vertices", res.Geometry.VertexCount()),
		zap.Duration("took", time.Since(start)))

	return res, nil
}

// loadTextures loads each distinct texture the model references once.
func (c *Compiler) loadTextures(model *blockmodel.Model) (map[string]string, map[string]*texture.Texture, error) {
	names := model.ReferencedTextures()
	if len(names) == 0 {
		return nil, nil, atlas.ErrEmptyTextureSet
	}

	vars := make(map[string]string, len(names))
	textures := make(map[string]*texture.Texture)
	for _, name := range names {
		tid, ok := model.Textures[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: face uses undefined variable %q", blockmodel.ErrUnresolvableTextureReference, name)
		}
		key := tid.String()
		vars[name] = key
		if _, done := textures[key]; done {
			continue
		}
		tex, err := texture.Load(c.loader, tid, c.opts.EnforceSquare)
		if err != nil {
			return nil, nil, err
		}
		if !tex.IsSquare() {
			c.log.Debug("non-square texture packed as is",
				zap.Stringer("texture", tid),
				zap.Int("width", tex.Width),
				zap.Int("height", tex.Height))
		}
		textures[key] = tex
	}
	return vars, textures, nil
}

func (c *Compiler) fail(id resource.Identifier, chain []resource.Identifier, stage Stage, err error) error {
	var rerr *blockmodel.ResolveError
	if chain == nil && errors.As(err, &rerr) {
		chain = rerr.Chain
	}
	c.log.Warn("compile failed",
		zap.Stringer("model", id),
		zap.String("stage", string(stage)),
		zap.Error(err))
	return &Error{Model: id, Chain: chain, Stage: stage, Err: err}
}

// CompileAll compiles ids concurrently with at most workers in flight.
// Results keep the order of ids. The first failure cancels models not yet
// started and is returned.
func (c *Compiler) CompileAll(ctx context.Context, ids []resource.Identifier, workers int) ([]*Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*Result, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := c.Compile(id)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.log.Info("batch compiled", zap.Int("models", len(ids)), zap.Int("workers", workers))
	return results, nil
}
