package xlref

import (
	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/yamitzky/xlref-go/internal/errors"
	"github.com/yamitzky/xlref-go/workbook"
)

// DefaultMaxDepth bounds the nesting of references resolved through filters.
const DefaultMaxDepth = 64

// Options control how references are resolved.
type Options struct {
	// CurrentDir is the directory relative file paths of root references are
	// resolved against. Defaults to ".".
	CurrentDir string

	// Engines opens and parses workbooks. Defaults to the built-in engines.
	Engines *workbook.Registry

	// Extensions overrides the extension to engine table, keyed by lower-case
	// extension without the dot.
	Extensions map[string]string

	// Filters is the filter registry. Defaults to DefaultRegistry.
	Filters *Registry

	// Logger receives debug output. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger

	// MaxDepth bounds reference nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

// withDefaults returns a copy of o with every unset field filled in.
func (o *Options) withDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.CurrentDir == "" {
		out.CurrentDir = "."
	}
	if out.Engines == nil {
		out.Engines = workbook.NewRegistry(workbook.CSVOptions{})
	}
	if out.Filters == nil {
		out.Filters = DefaultRegistry
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	if out.MaxDepth <= 0 {
		out.MaxDepth = DefaultMaxDepth
	}
	return &out
}

// Config is the file form of Options.
type Config struct {
	CurrentDir string              `toml:"current_dir"`
	MaxDepth   int                 `toml:"max_depth"`
	LogLevel   string              `toml:"log_level"`
	Engines    map[string]string   `toml:"engines"`
	CSV        workbook.CSVOptions `toml:"csv"`
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.WithStackTraceAndPrefix(err, "loading config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("config %s: unknown keys %v", path, undecoded)
	}
	if cfg.CSV.Encoding != "" {
		if _, err := workbook.LookupEncoding(cfg.CSV.Encoding); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Options converts the configuration into resolution options.
func (c *Config) Options(logger logrus.FieldLogger) *Options {
	return &Options{
		CurrentDir: c.CurrentDir,
		Engines:    workbook.NewRegistry(c.CSV),
		Extensions: c.Engines,
		Logger:     logger,
		MaxDepth:   c.MaxDepth,
	}
}
