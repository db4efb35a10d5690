// Package config handles compiler configuration loading and management.
package config

import (
	"fmt"
	"runtime"

	"github.com/Faultbox/cubemodel/internal/atlas"
	"github.com/Faultbox/cubemodel/pkg/blockmodel"
	"github.com/Faultbox/cubemodel/pkg/resource"
)

// Config holds all compiler settings.
type Config struct {
	Assets   AssetsConfig   `yaml:"assets"`
	Textures TexturesConfig `yaml:"textures"`
	Atlas    atlas.Config   `yaml:"atlas"`
	Compile  CompileConfig  `yaml:"compile"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AssetsConfig holds asset source settings.
type AssetsConfig struct {
	Roots     []string `yaml:"roots"`     // Folders and zip/jar archives, lowest priority first
	Namespace string   `yaml:"namespace"` // Applied to identifiers without one
}

// TexturesConfig holds source image settings.
type TexturesConfig struct {
	EnforceSquare bool `yaml:"enforce_square"`
}

// CompileConfig holds batch compile settings.
type CompileConfig struct {
	Workers  int `yaml:"workers"`
	MaxDepth int `yaml:"max_depth"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Assets: AssetsConfig{
			Roots:     []string{"."},
			Namespace: resource.DefaultNamespace,
		},
		Textures: TexturesConfig{
			EnforceSquare: true,
		},
		Atlas: atlas.DefaultConfig(),
		Compile: CompileConfig{
			Workers:  runtime.NumCPU(),
			MaxDepth: blockmodel.DefaultMaxDepth,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Assets.Roots) == 0 {
		return fmt.Errorf("config: assets.roots is empty")
	}
	if c.Assets.Namespace == "" {
		return fmt.Errorf("config: assets.namespace is empty")
	}
	if c.Compile.Workers < 1 {
		return fmt.Errorf("config: compile.workers must be positive, got %d", c.Compile.Workers)
	}
	if c.Compile.MaxDepth < 1 {
		return fmt.Errorf("config: compile.max_depth must be positive, got %d", c.Compile.MaxDepth)
	}
	if err := c.Atlas.Validate(); err != nil {
		return err
	}
	return nil
}
