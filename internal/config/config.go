package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlexercises/datakit/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Config keys.
const (
	KeyDataDir   = "data_dir"
	KeyWorkers   = "workers"
	KeyFolds     = "folds"
	KeyFormat    = "format"
	KeyLogLevel  = "log.level"
	KeyLogFormat = "log.format"
)

// Settings is the resolved view of the config file, environment and defaults.
type Settings struct {
	DataDir   string
	Workers   int
	Folds     int
	Format    string
	LogLevel  string
	LogFormat string
}

// Dir returns the path to the config directory (~/.datakit/).
// DATAKIT_HOME overrides the location.
func Dir() string {
	if v := os.Getenv(branding.EnvVar("HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.datakit/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault(KeyDataDir, ".")
	viper.SetDefault(KeyWorkers, 4)
	viper.SetDefault(KeyFolds, 5)
	viper.SetDefault(KeyFormat, "txt")
	viper.SetDefault(KeyLogLevel, "info")
	viper.SetDefault(KeyLogFormat, "console")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Current returns the resolved settings. Load must be called first.
func Current() Settings {
	return Settings{
		DataDir:   viper.GetString(KeyDataDir),
		Workers:   viper.GetInt(KeyWorkers),
		Folds:     viper.GetInt(KeyFolds),
		Format:    viper.GetString(KeyFormat),
		LogLevel:  viper.GetString(KeyLogLevel),
		LogFormat: viper.GetString(KeyLogFormat),
	}
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
