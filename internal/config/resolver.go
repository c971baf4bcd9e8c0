// Package config resolves pipeline settings from, in rising precedence:
// built-in defaults, an optional YAML config file, environment variables
// (including a .env file in the working directory), and CLI flags. Each
// resolved value remembers where it came from so `threadkeep` can explain
// its configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/threadkeep/threadkeep/internal/store"
)

type ValueSource string

const (
	SourceDefault ValueSource = "default"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath string
	CLIDBPath  string
	CLISource  string
	CLIOut     string
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath    ResolvedValue `json:"db_path"`
	SourceDir ResolvedValue `json:"source_dir"`
	OutPath   ResolvedValue `json:"out_path"`
}

type fileConfig struct {
	DBPath    string `yaml:"db_path"`
	SourceDir string `yaml:"source_dir"`
	OutPath   string `yaml:"out_path"`
}

// DefaultConfigPath is ~/.threadkeep/config.yaml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".threadkeep", "config.yaml")
}

// ResolveConfig loads and layers configuration. A missing config file is
// fine; a present but malformed one is an error.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}
	apply(&out.DBPath, store.DefaultDBPath, SourceDefault, "")

	// .env in the working directory feeds the environment layer, the way
	// deployment scripts expect.
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.SourceDir, cfg.SourceDir, SourceConfig, path)
		apply(&out.OutPath, cfg.OutPath, SourceConfig, path)
	}

	applyEnv(&out.DBPath, "THREADKEEP_DB")
	applyEnv(&out.SourceDir, "THREADKEEP_SOURCE_DIR")
	applyEnv(&out.OutPath, "THREADKEEP_OUT")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "")
	apply(&out.SourceDir, opts.CLISource, SourceCLI, "")
	apply(&out.OutPath, opts.CLIOut, SourceCLI, "")

	return out, nil
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

func apply(dst *ResolvedValue, value string, source ValueSource, from string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	dst.Value = value
	dst.Source = source
	dst.From = from
}

func applyEnv(dst *ResolvedValue, key string) {
	apply(dst, os.Getenv(key), SourceEnv, key)
}
