// Package config loads sunder's configuration: built-in defaults,
// overlaid by one TOML file (the one named by cmd/sunder's --config
// flag, or else the nearest one found on disk). Environment variables
// are not read.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Embedding model constants. These mirror the resource files the
// Embedder loads at startup and the chunking window it uses for long
// inputs — see internal/embedding.
const (
	EmbeddingDim   = 384
	MaxTokens      = 512
	OverlapTokens  = 256
	ModelVersion   = "minilm-v2-q8"
)

// Search/linker/graph request defaults, per the external interface.
const (
	DefaultSearchLimit    = 20
	DefaultSearchMode     = "hybrid"
	DefaultLinksLimit     = 5
	DefaultLinksThreshold = 0.3
	DefaultGraphThreshold = 0.3
)

// Config is the top-level, TOML-serializable configuration.
type Config struct {
	Data      DataConfig      `toml:"data"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Watch     WatchConfig     `toml:"watch"`
	Log       LogConfig       `toml:"log"`
}

// DataConfig locates the on-disk database.
type DataConfig struct {
	Dir string `toml:"dir"` // directory holding sunder.db; "" means OS default
}

// EmbeddingConfig locates the ONNX model/tokenizer resources and tunes
// the inference session.
type EmbeddingConfig struct {
	ResourceDir    string `toml:"resource_dir"`
	IntraOpThreads int    `toml:"intra_op_threads"`
}

// WatchConfig controls which paths the filesystem watcher ignores.
type WatchConfig struct {
	SkipDirs  []string `toml:"skip_dirs"`
	SkipFiles []string `toml:"skip_files"`
}

// LogConfig controls internal/logging.Init.
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// DefaultConfig returns the built-in configuration used when no TOML
// file is present.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{},
		Embedding: EmbeddingConfig{
			IntraOpThreads: 2,
		},
		Watch: WatchConfig{
			SkipDirs:  []string{".git", ".sunder", "node_modules", ".obsidian"},
			SkipFiles: []string{},
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// LoadConfig finds and loads the nearest config.toml, falling back to
// defaults when none exists. Unknown keys are ignored rather than
// rejected, matching the "never block the UI on a config typo" spirit
// of the engine's error-handling design.
func LoadConfig() (*Config, error) {
	path := findConfigFile()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom loads a specific TOML file, layering it over defaults.
func LoadConfigFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// findConfigFile looks for ./.sunder/config.toml, then
// $XDG_CONFIG_HOME/sunder/config.toml, returning "" if neither exists.
func findConfigFile() string {
	if wd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(wd, ".sunder", "config.toml")
		if fileExists(candidate) {
			return candidate
		}
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(dir, "sunder", "config.toml")
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DataDir resolves the directory the database file lives in: the
// configured Data.Dir, or an OS-specific application-data default.
func (c *Config) DataDir() (string, error) {
	if c.Data.Dir != "" {
		return c.Data.Dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "sunder"), nil
}

// DBPath resolves the full path to the SQLite database file.
func (c *Config) DBPath() (string, error) {
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sunder.db"), nil
}

// GenerateConfig writes a commented default config.toml to path,
// creating its parent directory as needed.
func GenerateConfig(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	_, err = f.WriteString(defaultTOMLContent())
	return err
}

func defaultTOMLContent() string {
	return `# sunder configuration
# Unset or empty values fall back to built-in defaults.

[data]
dir = "" # defaults to the OS application-config directory

[embedding]
resource_dir = "" # directory holding model_quantized.onnx + tokenizer.json
intra_op_threads = 2

[watch]
skip_dirs = [".git", ".sunder", "node_modules", ".obsidian"]
skip_files = []

[log]
level = "info"
json = false
`
}
