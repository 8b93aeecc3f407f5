// Package config loads the optional JSON configuration file of the CLI.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"disx86/internal/x86"
)

// Config holds listing defaults. Command-line flags override it.
type Config struct {
	Mode            string   `json:"mode,omitempty" jsonschema:"title=Mode,description=Decode mode used when the input does not imply one,enum=16,enum=32,enum=64,default=64"`
	Format          []string `json:"format,omitempty" jsonschema:"title=Format,description=Format flag names such as hex or pointer-size"`
	Address         string   `json:"address,omitempty" jsonschema:"title=Address,description=Runtime address of the first byte for hex input,example=0x401000"`
	MaxInstructions int      `json:"maxInstructions,omitempty" jsonschema:"title=Max Instructions,description=Stop after this many instructions (0 means no limit),minimum=0"`
	Color           *bool    `json:"color,omitempty" jsonschema:"title=Color,description=Highlight listings on a terminal"`
	Workers         int      `json:"workers,omitempty" jsonschema:"title=Workers,description=Goroutines used to format large listings,minimum=0"`
}

// Default is used when no file is given.
func Default() Config {
	return Config{
		Mode:   "64",
		Format: []string{"default", "pointer-size"},
	}
}

// Load reads path on top of Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field parses.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.DecodeMode(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.FormatFlags(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.RuntimeAddress(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxInstructions < 0 {
		errs = append(errs, fmt.Errorf("maxInstructions must not be negative"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative"))
	}
	return errors.Join(errs...)
}

func (c Config) DecodeMode() (x86.Mode, error) {
	if c.Mode == "" {
		return x86.Mode64, nil
	}
	return x86.ParseMode(c.Mode)
}

func (c Config) FormatFlags() (x86.FormatFlags, error) {
	if len(c.Format) == 0 {
		return x86.FormatDefault, nil
	}
	return x86.ParseFormatFlags(c.Format)
}

// RuntimeAddress parses Address; empty means zero.
func (c Config) RuntimeAddress() (addr uint64, err error) {
	if c.Address == "" {
		return 0, nil
	}
	return ParseAddress(c.Address)
}

// ColorEnabled defaults to true.
func (c Config) ColorEnabled() bool {
	return c.Color == nil || *c.Color
}

// ParseAddress accepts 0x-prefixed or h-suffixed hex and plain decimal.
func ParseAddress(s string) (uint64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", ""))
	var (
		v   uint64
		err error
	)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseUint(s[2:], 16, 64)
	case strings.HasSuffix(s, "h"), strings.HasSuffix(s, "H"):
		v, err = strconv.ParseUint(s[:len(s)-1], 16, 64)
	default:
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return v, nil
}
