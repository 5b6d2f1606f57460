// Package config provides configuration management for dapflash. It reads
// settings from dapflash.ini using multiple search paths.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// PostFlashPolicy names what to do with the target core once Commit
// finishes.
type PostFlashPolicy string

const (
	PostFlashReset PostFlashPolicy = "reset"
	PostFlashHalt  PostFlashPolicy = "halt"
	PostFlashRun   PostFlashPolicy = "run"
)

// Config holds all configuration settings for dapflash.
type Config struct {
	// Probe/transport settings
	Probe    string
	Protocol string
	Speed    int
	Timeout  int

	// Target settings
	Target    string
	Core      string
	ChunkSize int

	// Flash behavior
	PostFlash  PostFlashPolicy
	ChipErase  bool
	DoubleBuf  bool
	SkipVerify bool
}

// Load reads configuration from dapflash.ini in the following search order:
// 1. Current directory (./dapflash.ini)
// 2. $DAPFLASH directory ($DAPFLASH/dapflash.ini)
// 3. Home directory (~/dapflash.ini)
func Load() (*Config, error) {
	var searchPaths []string

	searchPaths = append(searchPaths, filepath.Join(".", "dapflash.ini"))

	if dir := os.Getenv("DAPFLASH"); dir != "" {
		searchPaths = append(searchPaths, filepath.Join(dir, "dapflash.ini"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, "dapflash.ini"))
	}

	var iniFile *ini.File
	var err error

	for _, path := range searchPaths {
		if _, statErr := os.Stat(path); statErr == nil {
			iniFile, err = ini.Load(path)
			if err == nil {
				break
			}
		}
	}

	if iniFile == nil {
		return defaults(), nil
	}

	section := iniFile.Section("DEFAULT")

	cfg := &Config{
		Probe:      section.Key("probe").MustString(""),
		Protocol:   section.Key("protocol").MustString("swd"),
		Speed:      section.Key("speed").MustInt(4_000_000),
		Timeout:    section.Key("timeout").MustInt(10),
		Target:     section.Key("target").MustString(""),
		Core:       section.Key("core").MustString("core0"),
		ChunkSize:  section.Key("chunk_size").MustInt(1024),
		PostFlash:  PostFlashPolicy(section.Key("post_flash").MustString(string(PostFlashReset))),
		ChipErase:  section.Key("chip_erase").MustBool(false),
		DoubleBuf:  section.Key("double_buffer").MustBool(true),
		SkipVerify: section.Key("skip_verify").MustBool(false),
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Protocol:  "swd",
		Speed:     4_000_000,
		Timeout:   10,
		Core:      "core0",
		ChunkSize: 1024,
		PostFlash: PostFlashReset,
		DoubleBuf: true,
	}
}

// ConfigPath returns the path to the config file that would be loaded, or
// an error if none of the search locations has one.
func ConfigPath() (string, error) {
	paths := []string{filepath.Join(".", "dapflash.ini")}

	if dir := os.Getenv("DAPFLASH"); dir != "" {
		paths = append(paths, filepath.Join(dir, "dapflash.ini"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "dapflash.ini"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no dapflash.ini file found in current directory, $DAPFLASH, or home directory")
}
