package constrain

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds an Engine's tunables: whether to memoize probe results
// across identically-shaped chart states, and a size hint a caller can
// use to pre-size its own buffers.
type Config struct {
	UseCache             bool   `toml:"use_cache"`
	UseCompaction        bool   `toml:"use_compaction"`
	ExpectedOutputLength int    `toml:"expected_output_length"`
	StartSymbol          string `toml:"start_symbol"`
}

// defaultConfig matches an Engine created with no options at all.
func defaultConfig() Config {
	return Config{UseCache: true}
}

// Option configures an Engine at construction time.
type Option func(*Config)

// WithCache toggles the probe-result cache keyed by chart fingerprint.
// Enabled by default.
func WithCache(b bool) Option {
	return func(c *Config) { c.UseCache = b }
}

// WithCompaction sets Config.UseCompaction. No Engine code reads that
// field: the chart is never compacted, whichever value is chosen.
func WithCompaction(b bool) Option {
	return func(c *Config) { c.UseCompaction = b }
}

// WithExpectedOutputLength hints the typical number of bytes an Engine
// will be asked to accept, letting callers that pre-size their own
// buffers read the value back via Engine.Config.
func WithExpectedOutputLength(n int) Option {
	return func(c *Config) { c.ExpectedOutputLength = n }
}

// WithStartSymbol roots the Engine at the named nonterminal instead of
// the grammar's first rule, so one grammar file can be compiled once and
// reused as the constraint for several related decodes, each rooted at a
// different rule.
func WithStartSymbol(name string) Option {
	return func(c *Config) { c.StartSymbol = name }
}

// LoadConfig reads a TOML configuration file, starting from
// defaultConfig and overwriting whichever fields the file sets.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
