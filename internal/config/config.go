// Package config resolves the runtime configuration: defaults, then an
// optional YAML config file, then environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"codetree/util"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings.
type Config struct {
	// WorkingDir is the directory the knowledge-tree directory lives in.
	// Empty means auto-detect: walk up from the current directory.
	WorkingDir string `yaml:"working_dir" mapstructure:"working_dir"`

	// LogLevel is a logrus level name: debug, info, warn, error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// LogFile receives log output instead of stderr when set.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`

	// Watch reloads the store when tree files change on disk.
	Watch bool `yaml:"watch" mapstructure:"watch"`

	Render RenderConfig `yaml:"render" mapstructure:"render"`
}

// RenderConfig shapes tree view output.
type RenderConfig struct {
	// DefaultDepth is used when a render request does not give a depth.
	DefaultDepth int `yaml:"default_depth" mapstructure:"default_depth"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Render: RenderConfig{
			DefaultDepth: 5,
		},
	}
}

// Load reads configuration from the given file, or from codetree.yaml in
// the standard locations when path is empty. A missing config file is fine;
// defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("working_dir", cfg.WorkingDir)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("watch", cfg.Watch)
	v.SetDefault("render", cfg.Render)

	v.SetEnvPrefix("CODETREE")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("codetree")
		v.AddConfigPath(".")
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".codetree"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// An explicitly named file must exist and parse.
			if path != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		homeEnvFile := filepath.Join(homeDir, ".codetree", ".env")
		if _, err := os.Stat(homeEnvFile); err == nil {
			godotenv.Load(homeEnvFile)
		}
	}
}

// applyEnvOverrides maps environment variables onto config fields.
func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("CODETREE_WORKING_DIR"); dir != "" {
		cfg.WorkingDir = dir
	}
	if level := os.Getenv("CODETREE_LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if file := os.Getenv("CODETREE_LOG_FILE"); file != "" {
		cfg.LogFile = file
	}
	if watch := os.Getenv("CODETREE_WATCH"); watch != "" {
		if parsed, err := strconv.ParseBool(watch); err == nil {
			cfg.Watch = parsed
		}
	}
	if depth := os.Getenv("CODETREE_RENDER_DEPTH"); depth != "" {
		if parsed, err := strconv.Atoi(depth); err == nil {
			cfg.Render.DefaultDepth = parsed
		}
	}
}

// WriteDefault writes the default configuration to path as commented YAML.
// Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to encode default config: %w", err)
	}

	header := "# codetree configuration.\n" +
		"# Every setting can also come from the environment with a CODETREE_ prefix,\n" +
		"# e.g. CODETREE_WORKING_DIR.\n\n"
	if err := util.WriteFileAtomic(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ResolveWorkingDir returns the configured working directory, or walks up
// from the current directory looking for an existing tree.
func (c *Config) ResolveWorkingDir() (string, error) {
	if c.WorkingDir != "" {
		return c.WorkingDir, nil
	}
	return util.FindTreeRoot()
}

// TreeDir returns the knowledge tree directory under the working directory.
func (c *Config) TreeDir() (string, error) {
	workingDir, err := c.ResolveWorkingDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(workingDir, util.TreeDirName), nil
}
