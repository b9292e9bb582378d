package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort        = "8080"
	defaultKVDBPath    = "notefind.db"
	defaultIndexPath   = "notefind.bleve"
	defaultSimilarTopN = 10
	defaultKeywordTopN = 10
)

type Config struct {
	config *viper.Viper
}

// Load reads config/config.<env>.yaml. An empty env falls back to $ENV and
// then to "local". Environment variables always override file values, and a
// missing file is not an error.
func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func (c *Config) GetPort() string {
	return c.getString("PORT", "server.port", defaultPort)
}

func (c *Config) GetLogLevel() string {
	return c.getString("LOG_LEVEL", "log.level", "info")
}

func (c *Config) GetStoragePath() string {
	return c.getString("STORAGE_PATH", "database.storage_path", "")
}

// GetKVDBPath is the bbolt file holding documents, search history and repair
// job status, relative to the storage path.
func (c *Config) GetKVDBPath() string {
	return filepath.Join(c.GetStoragePath(), c.getString("KVDB_PATH", "database.kvdb_path", defaultKVDBPath))
}

// GetIndexPath is the bleve index directory, relative to the storage path.
func (c *Config) GetIndexPath() string {
	return filepath.Join(c.GetStoragePath(), c.getString("INDEX_PATH", "database.index_path", defaultIndexPath))
}

// GetSimilarTopN is the default number of similar documents returned when a
// request does not say. Zero means the full ranked corpus.
func (c *Config) GetSimilarTopN() int {
	return c.getInt("SIMILAR_TOP_N", "engine.similar_top_n", defaultSimilarTopN)
}

func (c *Config) GetKeywordTopN() int {
	return c.getInt("KEYWORD_TOP_N", "engine.keyword_top_n", defaultKeywordTopN)
}

func (c *Config) getString(envKey string, fileKey string, fallback string) string {
	value := c.config.GetString(envKey)
	if len(value) == 0 {
		value = c.config.GetString(fileKey)
	}
	if len(value) == 0 {
		value = fallback
	}

	return value
}

func (c *Config) getInt(envKey string, fileKey string, fallback int) int {
	if c.config.IsSet(envKey) {
		return c.config.GetInt(envKey)
	}
	if c.config.IsSet(fileKey) {
		return c.config.GetInt(fileKey)
	}

	return fallback
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
