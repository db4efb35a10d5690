// modeltool is a CLI utility for resolving and compiling cuboid block models.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/cubemodel/internal/assets"
	"github.com/Faultbox/cubemodel/internal/compiler"
	"github.com/Faultbox/cubemodel/internal/config"
	"github.com/Faultbox/cubemodel/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "resolve":
		err = cmdResolve(args)
	case "compile", "c":
		err = cmdCompile(args)
	case "batch":
		err = cmdBatch(args)
	case "list", "ls":
		err = cmdList(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modeltool - cuboid block model compiler

Usage:
  modeltool <command> [options]

Commands:
  resolve <model>               Print the flattened model as YAML
  compile <model> [-o dir]      Write the atlas PNG and render bundle
  batch [-o dir] <model>...     Compile several models concurrently
  list [prefix]                 List model identifiers in the asset roots

Common options:
  -assets a.jar,pack            Asset folders or zip/jar archives, lowest priority first
  -config file.yaml             Config file (default ./cubemodel.yaml)
  -debug                        Debug logging
  -write-config out.yaml        Save the effective config

Examples:
  modeltool resolve -assets client.jar block/stone
  modeltool compile -assets client.jar,faithful.zip -o out -display gui block/oak_log
  modeltool batch -assets client.jar -workers 8 -o out block/stone block/dirt
  modeltool list -assets client.jar block/`)
}

// env is the shared state each command sets up from its flags.
type env struct {
	cfg     *config.Config
	assets  *assets.Manager
	compile *compiler.Compiler
}

// setup loads config, starts logging and opens the asset roots. The flag
// set holding flags must already be parsed.
func setup(flags *config.Flags) (*env, error) {
	cfg, err := config.Load(flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logger.Sugar.Debugf("config: %+v", cfg)

	mgr := assets.NewManager()
	for _, root := range cfg.Assets.Roots {
		if err := mgr.AddRoot(root); err != nil {
			mgr.Close()
			return nil, err
		}
	}
	logger.Info("asset roots opened", zap.Strings("roots", cfg.Assets.Roots))

	c := compiler.New(mgr, compiler.Options{
		Namespace:     cfg.Assets.Namespace,
		EnforceSquare: cfg.Textures.EnforceSquare,
		Atlas:         cfg.Atlas,
		MaxDepth:      cfg.Compile.MaxDepth,
	})
	return &env{cfg: cfg, assets: mgr, compile: c}, nil
}

func (e *env) Close() {
	hits, misses := e.assets.Cache().Stats()
	logger.Debug("asset cache", zap.Int("hits", hits), zap.Int("misses", misses))
	e.assets.Close()
}

func newFlagSet(name string) (*flag.FlagSet, *config.Flags) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return fs, config.RegisterFlags(fs)
}
