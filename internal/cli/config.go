package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/datacatalog/internal/logging"
	"github.com/mesh-intelligence/datacatalog/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	defaultAddr     = ":8080"
	defaultLogLevel = "warn"
)

// settings is the merged view of config.yaml, environment and defaults.
type settings struct {
	Backend string         `mapstructure:"backend" yaml:"backend"`
	DataDir string         `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	User    string         `mapstructure:"user" yaml:"user,omitempty"`
	Log     logging.Config `mapstructure:"log" yaml:"log"`
	Server  serverSettings `mapstructure:"server" yaml:"server"`
	// StrictCategoryDelete refuses to delete categories that still hold
	// data types instead of moving them to Uncategorized.
	StrictCategoryDelete bool `mapstructure:"strict_category_delete" yaml:"strict_category_delete"`
}

type serverSettings struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

func defaultSettings(dataDir string) settings {
	return settings{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Log:     logging.Config{Level: defaultLogLevel, Encoding: "console"},
		Server:  serverSettings{Addr: defaultAddr},
	}
}

// envBindings lists the keys that may be overridden from the environment.
// data_dir is resolved separately so that config.yaml outranks
// CATALOG_DATA_DIR.
var envBindings = map[string]string{
	"user":         "CATALOG_USER",
	"log.level":    "CATALOG_LOG_LEVEL",
	"log.encoding": "CATALOG_LOG_ENCODING",
	"server.addr":  "CATALOG_ADDR",
}

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. A missing file is not an error.
func loadConfig(configDir string) (settings, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), ""); err != nil {
		return settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	def := defaultSettings("")
	v.SetDefault("backend", def.Backend)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.encoding", def.Log.Encoding)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("strict_category_delete", false)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return settings{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// writeConfigIfMissing writes a default config.yaml. An existing file is
// left untouched.
func writeConfigIfMissing(path, dataDir string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultSettings(dataDir))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# Data catalog configuration.\n# data_dir, when set, is overridden only by --data-dir.\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
