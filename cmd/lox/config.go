package main

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk CLI configuration.
type Config struct {
	LogLevel     string `toml:"log_level"`
	MaxCallDepth int    `toml:"max_call_depth"`
	Trace        bool   `toml:"trace"`
	Jobs         int    `toml:"jobs"`
	HistoryFile  string `toml:"history_file"`
}

func defaultConfig() Config {
	return Config{LogLevel: "warn", Jobs: 1}
}

// loadConfig reads a TOML file over the defaults. Unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("loading config %s: unknown keys %v", path, undecoded)
	}
	return cfg, nil
}
