package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultFindingTopic = "dva-finding-events"
	overlayPath         = "internal/config/service.yml"
)

type Config struct {
	Port             string        `yaml:"port"`
	CORSOrigins      string        `yaml:"cors_origins"`
	RedisEnabled     bool          `yaml:"redis_enabled"`
	RedisURL         string        `yaml:"redis_url"`
	ScoreCacheTTL    time.Duration `yaml:"score_cache_ttl"`
	KafkaEnabled     bool          `yaml:"kafka_enabled"`
	KafkaBroker      string        `yaml:"kafka_broker"`
	FindingTopic     string        `yaml:"finding_topic"`
	DLQTopic         string        `yaml:"dlq_topic"`
	ConsumerGroup    string        `yaml:"consumer_group"`
	AutoCreateTopics bool          `yaml:"auto_create_topics"`
	CacheWarmSpec    string        `yaml:"cache_warm_spec"`
	CacheWarmBatch   int           `yaml:"cache_warm_batch"`
	LogDebug         bool          `yaml:"log_debug"`

	overlayErr error
}

var (
	loadOnce sync.Once
	loaded   *Config
)

// LoadConfig returns the process configuration, reading .env, the
// environment and the optional YAML overlay on first use. Precedence is
// environment, then overlay, then built-in defaults.
func LoadConfig() *Config {
	loadOnce.Do(func() {
		_ = godotenv.Load()
		loaded = defaults()
		if file, err := os.ReadFile(overlayPath); err == nil {
			loaded.overlayErr = applyOverlay(loaded, file)
		}
		applyEnv(loaded)
	})
	return loaded
}

// OverlayError reports why the YAML overlay was ignored, if it was.
func (c *Config) OverlayError() error {
	return c.overlayErr
}

func defaults() *Config {
	return &Config{
		Port:             "8004",
		CORSOrigins:      "http://localhost:3000, http://127.0.0.1:3000",
		RedisEnabled:     true,
		RedisURL:         "localhost:6379",
		ScoreCacheTTL:    7 * 24 * time.Hour,
		KafkaEnabled:     true,
		KafkaBroker:      "localhost:9092",
		FindingTopic:     defaultFindingTopic,
		DLQTopic:         defaultFindingTopic + "-dlq",
		ConsumerGroup:    "dva-cvss-group",
		AutoCreateTopics: false,
		CacheWarmSpec:    "@daily",
		CacheWarmBatch:   256,
		LogDebug:         false,
	}
}

// applyEnv overrides cfg with every variable that is set.
func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.CORSOrigins = getEnv("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.RedisEnabled = getEnvBool("REDIS_ENABLED", cfg.RedisEnabled)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.ScoreCacheTTL = getEnvDuration("SCORE_CACHE_TTL", cfg.ScoreCacheTTL)
	cfg.KafkaEnabled = getEnvBool("KAFKA_ENABLED", cfg.KafkaEnabled)
	cfg.KafkaBroker = getEnv("KAFKA_BROKER", cfg.KafkaBroker)
	cfg.FindingTopic = getEnv("FINDING_TOPIC", cfg.FindingTopic)
	cfg.DLQTopic = getEnv("DLQ_TOPIC", cfg.DLQTopic)
	cfg.ConsumerGroup = getEnv("CONSUMER_GROUP", cfg.ConsumerGroup)
	cfg.AutoCreateTopics = getEnvBool("AUTO_CREATE_TOPICS", cfg.AutoCreateTopics)
	cfg.CacheWarmSpec = getEnv("CACHE_WARM_SPEC", cfg.CacheWarmSpec)
	cfg.CacheWarmBatch = getEnvInt("CACHE_WARM_BATCH", cfg.CacheWarmBatch)
	cfg.LogDebug = getEnvBool("LOG_DEBUG", cfg.LogDebug)
}

// overlay mirrors Config for the YAML file. Pointers tell an explicit
// false apart from an absent key.
type overlay struct {
	Port             string        `yaml:"port"`
	CORSOrigins      string        `yaml:"cors_origins"`
	RedisEnabled     *bool         `yaml:"redis_enabled"`
	RedisURL         string        `yaml:"redis_url"`
	ScoreCacheTTL    time.Duration `yaml:"score_cache_ttl"`
	KafkaEnabled     *bool         `yaml:"kafka_enabled"`
	KafkaBroker      string        `yaml:"kafka_broker"`
	FindingTopic     string        `yaml:"finding_topic"`
	DLQTopic         string        `yaml:"dlq_topic"`
	ConsumerGroup    string        `yaml:"consumer_group"`
	AutoCreateTopics *bool         `yaml:"auto_create_topics"`
	CacheWarmSpec    string        `yaml:"cache_warm_spec"`
	CacheWarmBatch   int           `yaml:"cache_warm_batch"`
	LogDebug         *bool         `yaml:"log_debug"`
}

// applyOverlay copies every key present in the YAML document onto cfg.
// A malformed document leaves cfg untouched.
func applyOverlay(cfg *Config, raw []byte) error {
	var y overlay
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return err
	}
	setString(&cfg.Port, y.Port)
	setString(&cfg.CORSOrigins, y.CORSOrigins)
	setBool(&cfg.RedisEnabled, y.RedisEnabled)
	setString(&cfg.RedisURL, y.RedisURL)
	if y.ScoreCacheTTL > 0 {
		cfg.ScoreCacheTTL = y.ScoreCacheTTL
	}
	setBool(&cfg.KafkaEnabled, y.KafkaEnabled)
	setString(&cfg.KafkaBroker, y.KafkaBroker)
	setString(&cfg.FindingTopic, y.FindingTopic)
	setString(&cfg.DLQTopic, y.DLQTopic)
	setString(&cfg.ConsumerGroup, y.ConsumerGroup)
	setBool(&cfg.AutoCreateTopics, y.AutoCreateTopics)
	setString(&cfg.CacheWarmSpec, y.CacheWarmSpec)
	if y.CacheWarmBatch > 0 {
		cfg.CacheWarmBatch = y.CacheWarmBatch
	}
	setBool(&cfg.LogDebug, y.LogDebug)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// Brokers splits the comma separated broker list.
func (c *Config) Brokers() []string {
	return SplitAndTrim(c.KafkaBroker)
}

// SplitAndTrim splits raw on commas and drops empty entries.
func SplitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		return n
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	return defaultValue
}
