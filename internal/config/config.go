package config

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/flywave/go3d/vec3"
	"github.com/pelletier/go-toml/v2"

	edm "github.com/flywave/go-edm"
)

// Config holds the export settings.
type Config struct {
	UVChannel       int        `toml:"uv_channel"`
	TangentEpsilon  float32    `toml:"tangent_epsilon"`
	TangentFallback [3]float32 `toml:"tangent_fallback"`
	LogLevel        string     `toml:"log_level"`
}

// Flags are command line overrides. Zero values leave the config untouched.
type Flags struct {
	UVChannel int
	LogLevel  string
	Verbose   bool
}

func Default() Config {
	return Config{
		UVChannel:      edm.DEFAULT_UV_CHANNEL,
		TangentEpsilon: edm.DefaultTangentEpsilon,
		LogLevel:       "info",
	}
}

// Load reads a TOML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies CLI flags on top of the loaded values.
func (c *Config) Resolve(flags Flags) {
	if flags.UVChannel > 0 {
		c.UVChannel = flags.UVChannel
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.Verbose {
		c.LogLevel = "debug"
	}
}

func (c *Config) Validate() error {
	if c.UVChannel < 1 {
		return fmt.Errorf("config: uv_channel must be >= 1, got %d", c.UVChannel)
	}
	if c.TangentEpsilon < 0 {
		return fmt.Errorf("config: tangent_epsilon must not be negative, got %g", c.TangentEpsilon)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	return nil
}

func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (c *Config) TangentComputer() *edm.TangentComputer {
	tc := edm.NewTangentComputer()
	tc.Epsilon = c.TangentEpsilon
	tc.Fallback = vec3.T(c.TangentFallback)
	return tc
}

// Marshal renders the config as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
