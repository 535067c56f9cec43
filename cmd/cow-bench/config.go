package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

var (
	// ErrConfigFileRead means the config file exists but could not be read.
	ErrConfigFileRead = errors.New("cannot read config file")

	// ErrConfigInvalid means the config file could not be parsed.
	ErrConfigInvalid = errors.New("invalid config file")
)

// Config holds all benchmark configuration. Flags override file values.
type Config struct {
	// Counts are the element counts each benchmark runs at.
	Counts []int `json:"counts"`

	// Iterations is how many times each benchmark repeats; the report
	// keeps the mean and the min/max spread.
	Iterations int `json:"iterations"`

	// Allocators selects element storage: "heap", "mmap", or both.
	Allocators []string `json:"allocators"`

	// Out is the report path.
	Out string `json:"out"`
}

func defaultConfig() Config {
	return Config{
		Counts:     []int{1 << 10, 1 << 14, 1 << 18},
		Iterations: 5,
		Allocators: []string{"heap"},
		Out:        "cow-bench.json",
	}
}

// loadConfigFile loads a JSONC config file. A missing file is not an
// error unless mustExist is set; it just contributes nothing.
func loadConfigFile(path string, mustExist bool) (Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	cfg, parseErr := parseConfig(data)
	if parseErr != nil {
		return Config{}, false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, parseErr)
	}

	return cfg, true, nil
}

func parseConfig(data []byte) (Config, error) {
	// Standardize JSONC to JSON
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

// mergeConfig overlays non-zero fields of overlay onto base.
func mergeConfig(base, overlay Config) Config {
	if len(overlay.Counts) > 0 {
		base.Counts = overlay.Counts
	}

	if overlay.Iterations > 0 {
		base.Iterations = overlay.Iterations
	}

	if len(overlay.Allocators) > 0 {
		base.Allocators = overlay.Allocators
	}

	if overlay.Out != "" {
		base.Out = overlay.Out
	}

	return base
}

// validate rejects configurations the runner cannot execute.
func (c Config) validate() error {
	if len(c.Counts) == 0 {
		return fmt.Errorf("%w: no element counts", ErrConfigInvalid)
	}

	for _, n := range c.Counts {
		if n <= 0 {
			return fmt.Errorf("%w: element count %d", ErrConfigInvalid, n)
		}
	}

	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations %d", ErrConfigInvalid, c.Iterations)
	}

	if c.Out == "" {
		return fmt.Errorf("%w: empty report path", ErrConfigInvalid)
	}

	for _, name := range c.Allocators {
		if name != "heap" && name != "mmap" {
			return fmt.Errorf("%w: unknown allocator %q", ErrConfigInvalid, name)
		}
	}

	return nil
}
