// Package config loads the Parser's configuration surface (§6.3) from a
// YAML file, for cmd/twse-dump. Programs embedding the Parser in another Go
// binary may instead call the parser.Parser setter methods directly.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration surface read by cmd/twse-dump.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Admit    AdmitConfig    `yaml:"admit"`
	Checksum string         `yaml:"checksum_mode"` // "strict" or "lenient"
	Log      LogConfig      `yaml:"log"`
}

// ListenConfig is §6.3's transport surface: port plus optional multicast
// group membership.
type ListenConfig struct {
	Port           uint16 `yaml:"port"`
	MulticastGroup string `yaml:"multicast_group"` // IPv4 literal, optional
	Interface      string `yaml:"interface"`        // required iff MulticastGroup set
}

// AdmitConfig is §6.3's admission-filter surface.
type AdmitConfig struct {
	AllowedFormatCodes []byte `yaml:"allowed_format_codes"` // empty: no restriction (0x06, 0x17, 0x23, 0x14 decode; other codes follow deliver_unknown)
	DeliverUnknown     bool   `yaml:"deliver_unknown"`
}

// LogConfig describes a logger level and destination. It is parsed but not
// applied by any command; cmd/twse-dump takes its log destination from the
// -log-file flag.
type LogConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn" (advisory only; stdlib log has no levels)
	File  string `yaml:"file"`  // empty means stderr
}

// Load reads a YAML config file and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Config{
		Checksum: "strict",
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Listen.Port == 0 {
		return fmt.Errorf("listen.port is required")
	}
	if c.Listen.MulticastGroup != "" {
		if c.Listen.Interface == "" {
			return fmt.Errorf("listen.interface is required when listen.multicast_group is set")
		}
		if ip := net.ParseIP(c.Listen.MulticastGroup); ip == nil || ip.To4() == nil {
			return fmt.Errorf("listen.multicast_group %q is not a valid IPv4 literal", c.Listen.MulticastGroup)
		}
	}
	switch c.Checksum {
	case "strict", "lenient", "":
	default:
		return fmt.Errorf("checksum_mode %q must be \"strict\" or \"lenient\"", c.Checksum)
	}
	return nil
}

// AllowedFormatCodesSet converts AllowedFormatCodes into the map shape the
// wire package's Dispatch expects, applying §6.3's default when unset.
func (a AdmitConfig) AllowedFormatCodesSet(defaultSet map[byte]bool) map[byte]bool {
	if len(a.AllowedFormatCodes) == 0 {
		return defaultSet
	}
	set := make(map[byte]bool, len(a.AllowedFormatCodes))
	for _, b := range a.AllowedFormatCodes {
		set[b] = true
	}
	return set
}
