package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultStoragePath is the relative storage directory used when
// nothing else is configured. When it is in effect LoadConfig prefers
// a directory under the user's Documents folder instead, so records
// survive working-directory changes.
const DefaultStoragePath = "./tides_data"

// Config holds the configuration for the application.
type Config struct {
	Storage struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"storage"`
	Server struct {
		Transport string `mapstructure:"transport"` // "stdio" or "http"
		Addr      string `mapstructure:"addr"`
	} `mapstructure:"server"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from a file and the environment.
// cfgFile may name an explicit config file; when empty the usual
// search paths are tried and a missing file is not an error.
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetDefault("storage.path", DefaultStoragePath)
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.addr", ":8080")
	viper.BindEnv("storage.path", "TIDES_STORAGE_PATH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; everything has a default.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Storage.Path = ResolveStoragePath(config.Storage.Path)

	return &config, nil
}

// ResolveStoragePath expands home-directory tokens in path and, when
// the built-in default is still in effect, switches to
// ~/Documents/tides_data if that directory can be created.
func ResolveStoragePath(path string) string {
	if path == DefaultStoragePath {
		if home, err := os.UserHomeDir(); err == nil {
			docs := filepath.Join(home, "Documents", "tides_data")
			if err := os.MkdirAll(docs, 0o755); err == nil {
				return docs
			}
		}
		return path
	}
	return ExpandHome(path)
}

// ExpandHome replaces a leading "~/" or an embedded "${HOME}" token
// with the user's home directory. The path is returned unchanged if
// the home directory cannot be determined.
func ExpandHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	if strings.Contains(path, "${HOME}") {
		return strings.ReplaceAll(path, "${HOME}", home)
	}
	return path
}
