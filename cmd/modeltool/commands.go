package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/cubemodel/internal/compiler"
	"github.com/Faultbox/cubemodel/internal/export"
	"github.com/Faultbox/cubemodel/internal/logger"
	"github.com/Faultbox/cubemodel/internal/mesh"
	"github.com/Faultbox/cubemodel/pkg/blockmodel"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// resolvedModel is the YAML view printed by the resolve command.
type resolvedModel struct {
	Model    string                 `yaml:"model"`
	Chain    []string               `yaml:"chain"`
	Builtin  string                 `yaml:"builtin,omitempty"`
	Textures map[string]string      `yaml:"textures"`
	Elements []resolvedElement      `yaml:"elements,omitempty"`
	Display  map[string][16]float32 `yaml:"display,flow"`
}

type resolvedElement struct {
	From     [3]float32        `yaml:"from,flow"`
	To       [3]float32        `yaml:"to,flow"`
	Rotation string            `yaml:"rotation,omitempty"`
	Faces    map[string]string `yaml:"faces"`
	UVs      map[string]string `yaml:"uvs,omitempty"`
}

func newResolvedModel(m *blockmodel.Model) resolvedModel {
	out := resolvedModel{
		Model:    m.ID.String(),
		Builtin:  m.Builtin,
		Textures: make(map[string]string, len(m.Textures)),
		Display:  make(map[string][16]float32, len(m.Display)),
	}
	for _, id := range m.Chain {
		out.Chain = append(out.Chain, id.String())
	}
	for name, id := range m.Textures {
		out.Textures[name] = id.String()
	}
	for name, t := range m.Display {
		out.Display[name] = t
	}
	for i := range m.Cuboids {
		c := &m.Cuboids[i]
		el := resolvedElement{From: c.From, To: c.To, Faces: make(map[string]string), UVs: make(map[string]string)}
		if c.Rotation != nil {
			el.Rotation = fmt.Sprintf("%g deg about %s at %v", c.Rotation.Angle, c.Rotation.Axis, c.Rotation.Origin)
		}
		for dir, f := range c.Faces {
			el.Faces[dir.String()] = "#" + f.Texture
			el.UVs[dir.String()] = fmt.Sprint(mesh.FaceUV(c, dir, f))
		}
		out.Elements = append(out.Elements, el)
	}
	return out
}

func parseID(s, namespace string) (resource.Identifier, error) {
	id, err := resource.ParseDefault(s, namespace)
	if err != nil {
		return resource.Identifier{}, fmt.Errorf("model %q: %w", s, err)
	}
	return id, nil
}

func cmdResolve(args []string) error {
	fs, flags := newFlagSet("resolve")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: modeltool resolve [options] <model>")
	}

	e, err := setup(flags)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := parseID(fs.Arg(0), e.cfg.Assets.Namespace)
	if err != nil {
		return err
	}
	m, err := e.compile.Resolve(id)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(newResolvedModel(m))
}

// outputFlags are shared by compile and batch.
type outputFlags struct {
	dir     *string
	display *string
	scale   *int
}

func (o outputFlags) write(res *compiler.Result) error {
	if err := os.MkdirAll(*o.dir, 0755); err != nil {
		return err
	}
	base := filepath.Join(*o.dir, strings.ReplaceAll(res.Model.ID.Namespace+"_"+res.Model.ID.Path, "/", "_"))

	if err := writeFile(base+".png", func(w io.Writer) error {
		return export.WriteAtlasPNG(w, res.Atlas, *o.scale)
	}); err != nil {
		return err
	}

	if contexts := res.Model.DisplayContexts(); !slices.Contains(contexts, *o.display) {
		logger.Warn("display context not defined, bundle uses the default transform",
			zap.Stringer("model", res.Model.ID),
			zap.String("context", *o.display),
			zap.Strings("available", contexts))
	}
	bundle := export.NewBundle(res, *o.display)
	if err := writeFile(base+".cmb", func(w io.Writer) error {
		return export.WriteBundle(w, bundle)
	}); err != nil {
		return err
	}

	fmt.Printf("%-40s %4d vertices  atlas %dx%d (%d textures)  -> %s.{png,cmb}\n",
		res.Model.ID, res.Geometry.VertexCount(), res.Atlas.Width, res.Atlas.Height, res.Atlas.Len(), base)
	return nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fn(w); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func registerOutput(fs *flag.FlagSet) outputFlags {
	return outputFlags{
		dir:     fs.String("o", ".", "Output directory"),
		display: fs.String("display", blockmodel.DefaultDisplay, "Display context stored in the bundle (gui, ground, fixed, ...)"),
		scale:   fs.Int("scale", 1, "Atlas PNG upscale factor"),
	}
}

func cmdCompile(args []string) error {
	fs, flags := newFlagSet("compile")
	out := registerOutput(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: modeltool compile [options] <model>")
	}

	e, err := setup(flags)
	if err != nil {
		return err
	}
	defer e.Close()

	id, err := parseID(fs.Arg(0), e.cfg.Assets.Namespace)
	if err != nil {
		return err
	}
	res, err := e.compile.Compile(id)
	if err != nil {
		return err
	}
	if res.IconOnly() {
		logger.Info("model has no elements, wrote texture atlas only", zap.Stringer("model", id))
	}
	return out.write(res)
}

func cmdBatch(args []string) error {
	fs, flags := newFlagSet("batch")
	out := registerOutput(fs)
	match := fs.String("match", "", "Compile every model whose path matches this glob (e.g. block/*_ore)")
	fs.Parse(args)

	e, err := setup(flags)
	if err != nil {
		return err
	}
	defer e.Close()

	var ids []resource.Identifier
	for _, arg := range fs.Args() {
		id, err := parseID(arg, e.cfg.Assets.Namespace)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if *match != "" {
		for _, id := range e.assets.Models(e.cfg.Assets.Namespace) {
			if ok, _ := path.Match(*match, id.Path); ok {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("usage: modeltool batch [options] [-match glob] <model>...")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := e.compile.CompileAll(ctx, ids, e.cfg.Compile.Workers)
	if err != nil {
		return err
	}
	for _, res := range results {
		if err := out.write(res); err != nil {
			return err
		}
	}
	return nil
}

func cmdList(args []string) error {
	fs, flags := newFlagSet("list")
	limit := fs.Int("n", 0, "Limit output to N models (0 = all)")
	fs.Parse(args)

	e, err := setup(flags)
	if err != nil {
		return err
	}
	defer e.Close()

	prefix := fs.Arg(0)
	count := 0
	for _, id := range e.assets.Models(e.cfg.Assets.Namespace) {
		if !strings.HasPrefix(id.Path, prefix) {
			continue
		}
		fmt.Println(id)
		count++
		if *limit > 0 && count >= *limit {
			break
		}
	}

	fmt.Fprintf(os.Stderr, "\n(%d models)\n", count)
	return nil
}
