package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"arxivmon/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.SetDefault("fetch.interval", "1h")
	viper.SetDefault("fetch.autoFetch", true)
	viper.SetDefault("fetch.maxResults", 50)
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.queryDelay", "3s")
	viper.SetDefault("cache.ttl", "30s")

	viper.BindEnv("logger.level", "ARXIVMON_LOG_LEVEL")
	viper.BindEnv("fetch.interval", "ARXIVMON_FETCH_INTERVAL")
	viper.BindEnv("fetch.autoFetch", "ARXIVMON_AUTO_FETCH")
	viper.BindEnv("storage.dir", "ARXIVMON_DATA_DIR")
	viper.BindEnv("cache.enabled", "ARXIVMON_CACHE_ENABLED")
	viper.BindEnv("cache.size", "ARXIVMON_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "ArxivPaperMonitor"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
