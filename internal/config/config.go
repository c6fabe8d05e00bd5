package config

import (
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	Env       string `mapstructure:"env"`
	Port      int    `mapstructure:"port"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MongoConfig struct {
	URI                string `mapstructure:"uri"`
	Database           string `mapstructure:"database"`
	RequestsCollection string `mapstructure:"requests_collection"`
	MessagesCollection string `mapstructure:"messages_collection"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type KafkaConfig struct {
	Brokers        []string `mapstructure:"brokers"`
	TopicLifecycle string   `mapstructure:"topic_lifecycle"`
}

type WSConfig struct {
	PingIntervalSeconds  int   `mapstructure:"ping_interval_seconds"`
	WriteDeadlineSeconds int   `mapstructure:"write_deadline_seconds"`
	MaxMessageSize       int64 `mapstructure:"max_message_size"`
}

type Config struct {
	App           AppConfig   `mapstructure:"app"`
	Mongo         MongoConfig `mapstructure:"mongodb"`
	Redis         RedisConfig `mapstructure:"redis"`
	Kafka         KafkaConfig `mapstructure:"kafka"`
	WS            WSConfig    `mapstructure:"ws"`
	RatePerMinute int         `mapstructure:"rate_per_minute"`

	// derived values
	RequestTimeout time.Duration
	PingInterval   time.Duration
	WriteDeadline  time.Duration
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.AutomaticEnv()
	v.SetEnvPrefix("PORTAL")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	// sensible defaults
	c.RequestTimeout = 10 * time.Second
	if c.App.Port == 0 {
		c.App.Port = 8081
	}
	if c.App.Env == "" {
		c.App.Env = "development"
	}
	if c.Mongo.RequestsCollection == "" {
		c.Mongo.RequestsCollection = "meeting_requests"
	}
	if c.Mongo.MessagesCollection == "" {
		c.Mongo.MessagesCollection = "messages"
	}
	if c.Kafka.TopicLifecycle == "" {
		c.Kafka.TopicLifecycle = "request.lifecycle"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "portal"
	}
	if c.WS.PingIntervalSeconds == 0 {
		c.WS.PingIntervalSeconds = 30
	}
	if c.WS.WriteDeadlineSeconds == 0 {
		c.WS.WriteDeadlineSeconds = 10
	}
	if c.WS.MaxMessageSize == 0 {
		c.WS.MaxMessageSize = 64 * 1024
	}
	if c.RatePerMinute == 0 {
		c.RatePerMinute = 300
	}
	c.PingInterval = time.Duration(c.WS.PingIntervalSeconds) * time.Second
	c.WriteDeadline = time.Duration(c.WS.WriteDeadlineSeconds) * time.Second
	return &c, nil
}

func (c *Config) Development() bool { return c.App.Env != "production" }
