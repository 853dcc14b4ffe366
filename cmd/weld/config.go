package main

import (
	"os"
	"strconv"

	"github.com/spf13/viper"
	"github.com/xyproto/env/v2"

	weld "github.com/xyproto/weld"
)

// config is the layered link configuration: defaults, then .weld.yaml,
// then WELD_* environment variables, then command-line flags, each
// tier overriding the one before it, the same precedence cucaracha's
// initConfig establishes for its own viper setup.
type config struct {
	BaseAddr    uint64
	PageSize    uint64
	EntrySymbol string
	Output      string
	Verbose     bool
}

func defaultConfig() config {
	opts := weld.DefaultLinkOptions()
	return config{
		BaseAddr:    opts.BaseAddr,
		PageSize:    opts.PageSize,
		EntrySymbol: opts.EntrySymbol,
		Output:      "a.out",
	}
}

// loadConfig reads .weld.yaml (if present, via viper) and layers the
// WELD_VERBOSE/WELD_BASE_ADDR environment variables on top, matching
// SPEC_FULL.md's config precedence.
func loadConfig() (config, error) {
	cfg := defaultConfig()

	viper.SetConfigName(".weld")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.IsSet("base_addr") {
			cfg.BaseAddr = viper.GetUint64("base_addr")
		}
		if viper.IsSet("page_size") {
			cfg.PageSize = viper.GetUint64("page_size")
		}
		if viper.IsSet("entry_symbol") {
			cfg.EntrySymbol = viper.GetString("entry_symbol")
		}
		if viper.IsSet("output") {
			cfg.Output = viper.GetString("output")
		}
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return cfg, err
	}

	if env.Bool("WELD_VERBOSE") {
		cfg.Verbose = true
	}
	if raw := env.Str("WELD_BASE_ADDR"); raw != "" {
		if v, err := strconv.ParseUint(raw, 0, 64); err == nil {
			cfg.BaseAddr = v
		}
	}

	return cfg, nil
}
