package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string

	QueueCapacity int
	CacheTTL      time.Duration

	FFmpegBinary string
	FFplayBinary string
	YTDLPBinary  string

	DiscordToken   string
	CommandPrefix  string
	DiscordGuildID string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		QueueCapacity: getEnvAsIntWithDefault("QUEUE_CAPACITY", 256),
		CacheTTL:      getEnvAsDuration("RESOLVE_CACHE_TTL", 15*time.Minute),

		FFmpegBinary: getEnvWithDefault("FFMPEG_BINARY", "ffmpeg"),
		FFplayBinary: getEnvWithDefault("FFPLAY_BINARY", "ffplay"),
		YTDLPBinary:  getEnvWithDefault("YTDLP_BINARY", "yt-dlp"),

		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		CommandPrefix:  getEnvWithDefault("COMMAND_PREFIX", "!"),
		DiscordGuildID: os.Getenv("DISCORD_GUILD_ID"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvAsIntWithDefault("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvAsIntWithDefault("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvAsIntWithDefault("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.QueueCapacity < 1 {
		return errors.New("QUEUE_CAPACITY must be at least 1")
	}
	if c.CacheTTL < 0 {
		return errors.New("RESOLVE_CACHE_TTL must not be negative")
	}
	if c.CommandPrefix == "" {
		return errors.New("COMMAND_PREFIX must not be empty")
	}
	return nil
}

// HasRedis reports whether a redis host is configured; without one the
// resolver simply runs uncached.
func (c *Config) HasRedis() bool {
	return c.RedisHost != ""
}

// HasDatabase reports whether postgres is configured; without it the
// play history is disabled.
func (c *Config) HasDatabase() bool {
	return c.DBHost != "" && c.DBName != ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

func getEnvAsIntWithDefault(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
