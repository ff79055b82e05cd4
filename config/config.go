// Package config loads CLI defaults from a TOML file:
//
//	format = "line"
//	tokenizer = "fields"
//	limit = 100
//	max_steps = 1000000
//	timeout = "10s"
//
// Flags given on the command line override the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultFile is read when no --config flag is given. It may be missing.
const DefaultFile = "earley.toml"

type Config struct {
	Format    string   `toml:"format"`
	Tokenizer string   `toml:"tokenizer"`
	Lexicon   string   `toml:"lexicon"`
	Limit     int      `toml:"limit"`
	MaxSteps  int      `toml:"max_steps"`
	Timeout   Duration `toml:"timeout"`
	Addr      string   `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	return Config{
		Format:    "text",
		Tokenizer: "chars",
		MaxSteps:  1_000_000,
		Timeout:   Duration{30 * time.Second},
		Addr:      ":8080",
	}
}

// Load returns the defaults overlaid with the file at path. A missing file
// is not an error when optional is set. Unknown keys are rejected so that
// typos do not go unnoticed.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config: %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
