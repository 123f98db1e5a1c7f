package config

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// DefaultUserAgent is the identifying User-Agent string sent with all requests to the Bangumi API.
const DefaultUserAgent = "Belphemur/BangumiBridge (https://github.com/Belphemur/BangumiBridge)"

// DefaultBangumiAPIDomain is the base URL of the public Bangumi API.
const DefaultBangumiAPIDomain = "https://api.bgm.tv"

type Config struct {
	ProxyConnectionString string  `mapstructure:"proxy_connection_string"`
	BangumiAPIDomain      string  `mapstructure:"bangumi_api_domain"`
	ClientTimeout         string  `mapstructure:"client_timeout"` // Go duration string like "30s", "1h", etc.
	UserAgent             string  `mapstructure:"user_agent"`
	RateLimit             float64 `mapstructure:"rate_limit"` // requests per second towards the Bangumi API, 0 disables
	Server                struct {
		Port    int    `mapstructure:"port"`
		Address string `mapstructure:"address"`
	} `mapstructure:"server"`
	GRPC struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"grpc"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	Cache    struct {
		Provider      string `mapstructure:"provider"` // "memory" or "redis"
		Size          int    `mapstructure:"size"`     // Maximum number of entries in the LRU cache
		TTL           string `mapstructure:"ttl"`      // Go duration string like "1h", "24h", etc.
		RedisAddress  string `mapstructure:"redis_address"`
		RedisPassword string `mapstructure:"redis_password"`
		RedisDB       int    `mapstructure:"redis_db"`
	} `mapstructure:"cache"`
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Storage struct {
		UploadDir string `mapstructure:"upload_dir"`
	} `mapstructure:"storage"`
	Interaction struct {
		Timeout string `mapstructure:"timeout"`
	} `mapstructure:"interaction"`
	Sentry struct {
		DSN         string `mapstructure:"dsn"`
		Environment string `mapstructure:"environment"`
	} `mapstructure:"sentry"`
}

var (
	globalConfig *Config
	logger       zerolog.Logger
)

func init() {
	// Initialize zerolog with console writer for human-readable output
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stdout,
		NoColor: false,
	}).With().Timestamp().Logger()

	config, err := LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	// Parse and set log level from config
	level := zerolog.InfoLevel // default
	if config.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			level = parsedLevel
		} else {
			logger.Warn().Str("invalid_level", config.LogLevel).Msg("Invalid log level, using default 'info'")
		}
	}

	zerolog.SetGlobalLevel(level)

	if config.LogFile != "" {
		logger = zerolog.New(newLogWriter(config.LogFile)).With().Timestamp().Logger()
	}
	logger = logger.Level(level)

	logger.Info().Str("level", level.String()).Str("log_file", config.LogFile).Msg("Logging configured")
	globalConfig = config
	logger.Info().Msg("Configuration loaded successfully")
}

// newLogWriter tees console output into a size-rotated log file.
func newLogWriter(path string) io.Writer {
	return zerolog.MultiLevelWriter(
		zerolog.ConsoleWriter{Out: os.Stdout},
		&lumberjack.Logger{
			Filename:   path,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		},
	)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable support
	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Add specific environment variable for log level
	_ = viper.BindEnv("log_level", "LOG_LEVEL")

	viper.SetDefault("bangumi_api_domain", DefaultBangumiAPIDomain)
	viper.SetDefault("client_timeout", "30s")
	viper.SetDefault("rate_limit", 5)
	viper.SetDefault("server.address", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("grpc.enabled", true)
	viper.SetDefault("grpc.port", 8081)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
	viper.SetDefault("cache.provider", "memory")
	viper.SetDefault("cache.size", 64)
	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("database.path", "./data/bangumi.db")
	viper.SetDefault("storage.upload_dir", "./data/upload/image")
	viper.SetDefault("interaction.timeout", "30s")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.BangumiAPIDomain == "" {
		config.BangumiAPIDomain = DefaultBangumiAPIDomain
	}
	// The conventional proxy variable is honoured when no explicit proxy is configured.
	if config.ProxyConnectionString == "" {
		config.ProxyConnectionString = os.Getenv("HTTP_PROXY")
	}

	return &config, nil
}

func GetConfig() *Config {
	return globalConfig
}

func GetUserAgent() string {
	if globalConfig != nil && globalConfig.UserAgent != "" {
		return globalConfig.UserAgent
	}

	return DefaultUserAgent
}

func GetLogger() zerolog.Logger {
	return logger
}
