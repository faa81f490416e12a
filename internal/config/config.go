package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the entire application configuration
type Config struct {
	Env      string         `json:"env"`
	Port     int            `json:"port"`
	AppName  string         `json:"app_name"`
	Riot     RiotConfig     `json:"riot"`
	PUBG     PUBGConfig     `json:"pubg"`
	OpenAI   OpenAIConfig   `json:"openai"`
	MongoDB  MongoDBConfig  `json:"mongodb"`
	Redis    RedisConfig    `json:"redis"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq"`
	AWS      AWSConfig      `json:"aws"`
	Logging  LoggingConfig  `json:"logging"`
	CORS     CORSConfig     `json:"cors"`
}

type RedisConfig struct {
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age,omitempty"` // Optional, seconds that preflight requests can be cached
}

// RiotConfig contains match-history API settings
type RiotConfig struct {
	APIKey         string `json:"api_key"`
	PlatformURL    string `json:"platform_url"` // summoner-v4, e.g. https://na1.api.riotgames.com
	RegionalURL    string `json:"regional_url"` // account-v1 and match-v5, e.g. https://americas.api.riotgames.com
	MaxRetries     int    `json:"max_retries"`
	MaxRetryWait   int    `json:"max_retry_wait"` // seconds
	AccountTTL     int    `json:"account_ttl"`    // seconds an account lookup stays cached
	RequestTimeout int    `json:"request_timeout"`
}

// PUBGConfig contains PUBG API-related configurations
type PUBGConfig struct {
	APIKey            string `json:"api_key"`
	BaseURL           string `json:"base_url"`
	Shard             string `json:"shard"`
	MaxRetries        int    `json:"max_retries"`
	MaxRetryWait      int    `json:"max_retry_wait"`
	RequestsPerMinute int    `json:"requests_per_minute"`
	DefaultMode       string `json:"default_mode"`
	Cache             bool   `json:"cache"`
	DefaultCacheTTL   int    `json:"default_cache_ttl"`
}

// OpenAIConfig contains image generation settings
type OpenAIConfig struct {
	APIKey       string `json:"api_key"`
	Organization string `json:"organization"`
	BaseURL      string `json:"base_url,omitempty"`
	ImageSize    string `json:"image_size"`
}

// MongoDBConfig contains MongoDB connection details
type MongoDBConfig struct {
	URI      string                 `json:"uri"`
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	DB       string                 `json:"db"`
	Options  map[string]interface{} `json:"options"`
}

// RabbitMQConfig contains broker connection details and the image job routing
type RabbitMQConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	VHost         string `json:"vhost"`
	ExchangeName  string `json:"exchange_name"`
	QueueName     string `json:"queue_name"`
	RoutingKey    string `json:"routing_key"`
	PrefetchCount int    `json:"prefetch_count"`
}

// AWSConfig contains S3 settings for generated note images
type AWSConfig struct {
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
}

// LoggingConfig contains logging-related configurations
type LoggingConfig struct {
	Level     string `json:"level"`
	Format    string `json:"format"`
	Directory string `json:"directory"`
}

// LoadConfig reads configuration from the specified file path, then applies
// secrets from the environment (and an optional .env file next to the binary).
func LoadConfig(filePath string) (*Config, error) {
	// Read the configuration file
	configData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Create a new Config struct
	var config Config

	// Unmarshal the JSON data into the Config struct
	if err := json.Unmarshal(configData, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	return &config, nil
}

// applyEnv lets the environment override secrets from the config file
func (c *Config) applyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"RIOT_API_KEY", &c.Riot.APIKey},
		{"PUBG_API_KEY", &c.PUBG.APIKey},
		{"OPENAI_API_KEY", &c.OpenAI.APIKey},
		{"OPENAI_ORGANIZATION", &c.OpenAI.Organization},
		{"MONGODB_URI", &c.MongoDB.URI},
		{"MONGODB_PASSWORD", &c.MongoDB.Password},
		{"REDIS_PASSWORD", &c.Redis.Password},
		{"RABBITMQ_PASSWORD", &c.RabbitMQ.Password},
		{"AWS_ACCESS_KEY_ID", &c.AWS.AccessKey},
		{"AWS_SECRET_ACCESS_KEY", &c.AWS.SecretKey},
	}

	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && v != "" {
			*o.target = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.AppName == "" {
		c.AppName = "statboard"
	}

	if c.Riot.PlatformURL == "" {
		c.Riot.PlatformURL = "https://na1.api.riotgames.com"
	}
	if c.Riot.RegionalURL == "" {
		c.Riot.RegionalURL = "https://americas.api.riotgames.com"
	}
	if c.Riot.MaxRetries == 0 {
		c.Riot.MaxRetries = 3
	}
	if c.Riot.MaxRetryWait == 0 {
		c.Riot.MaxRetryWait = 30
	}
	if c.Riot.AccountTTL == 0 {
		c.Riot.AccountTTL = 3600
	}
	if c.Riot.RequestTimeout == 0 {
		c.Riot.RequestTimeout = 30
	}

	if c.PUBG.BaseURL == "" {
		c.PUBG.BaseURL = "https://api.pubg.com"
	}
	if c.PUBG.Shard == "" {
		c.PUBG.Shard = "steam"
	}
	if c.PUBG.MaxRetries == 0 {
		c.PUBG.MaxRetries = 3
	}
	if c.PUBG.MaxRetryWait == 0 {
		c.PUBG.MaxRetryWait = 60
	}
	if c.PUBG.RequestsPerMinute < 2 {
		c.PUBG.RequestsPerMinute = 10
	}
	if c.PUBG.DefaultMode == "" {
		c.PUBG.DefaultMode = "squad-fpp"
	}
	if c.PUBG.DefaultCacheTTL == 0 {
		c.PUBG.DefaultCacheTTL = 3600
	}

	if c.OpenAI.ImageSize == "" {
		c.OpenAI.ImageSize = "512x512"
	}

	if c.RabbitMQ.ExchangeName == "" {
		c.RabbitMQ.ExchangeName = "statboard"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "note_images"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = c.RabbitMQ.QueueName
	}

	if c.Redis.Prefix == "" {
		c.Redis.Prefix = c.AppName
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
