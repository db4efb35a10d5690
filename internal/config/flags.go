package config

import (
	"flag"
	"strings"
)

// Flags holds command-line overrides registered on a FlagSet. Zero values
// mean "not set".
type Flags struct {
	Config     *string
	Debug      *bool
	Roots      *string
	Namespace  *string
	NoCrop     *bool
	TargetEdge *int
	MaxEdge    *int
	Workers    *int
	LogFile    *string
	Write      *string
}

// RegisterFlags adds the shared config flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:     fs.String("config", "", "Path to config file"),
		Debug:      fs.Bool("debug", false, "Enable debug logging"),
		Roots:      fs.String("assets", "", "Comma-separated asset folders or zip/jar archives, lowest priority first"),
		Namespace:  fs.String("namespace", "", "Default namespace for identifiers"),
		NoCrop:     fs.Bool("no-crop", false, "Keep non-square textures uncropped"),
		TargetEdge: fs.Int("target-edge", 0, "Preferred atlas height in pixels"),
		MaxEdge:    fs.Int("max-edge", 0, "Maximum atlas edge in pixels"),
		Workers:    fs.Int("workers", 0, "Concurrent model compiles"),
		LogFile:    fs.String("log-file", "", "Write JSON logs to this file"),
		Write:      fs.String("write-config", "", "Save the effective config as YAML to this path"),
	}
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.Config
}

// WritePath returns the path the effective config should be saved to.
func (f *Flags) WritePath() string {
	if f == nil {
		return ""
	}
	return *f.Write
}

// apply applies CLI flag overrides to the config.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.Roots != "" {
		cfg.Assets.Roots = splitList(*f.Roots)
	}
	if *f.Namespace != "" {
		cfg.Assets.Namespace = *f.Namespace
	}
	if *f.NoCrop {
		cfg.Textures.EnforceSquare = false
	}
	if *f.TargetEdge > 0 {
		cfg.Atlas.TargetEdge = *f.TargetEdge
	}
	if *f.MaxEdge > 0 {
		cfg.Atlas.MaxEdge = *f.MaxEdge
	}
	if *f.Workers > 0 {
		cfg.Compile.Workers = *f.Workers
	}
	if *f.LogFile != "" {
		cfg.Logging.LogFile = *f.LogFile
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
