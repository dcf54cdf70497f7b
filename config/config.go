package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	AllowOrigins    string        `mapstructure:"allow_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type GameConfig struct {
	MaxPlayers        int           `mapstructure:"max_players"`
	MaxRooms          int           `mapstructure:"max_rooms"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	ReconnectGrace    time.Duration `mapstructure:"reconnect_grace"`
	OperationTimeout  time.Duration `mapstructure:"operation_timeout"`
	DeckFile          string        `mapstructure:"deck_file"`
	SendBuffer        int           `mapstructure:"send_buffer"`
	ExportBuffer      int           `mapstructure:"export_buffer"`
	ExportTimeout     time.Duration `mapstructure:"export_timeout"`
}

type PostgresConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Port     string `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

type RedisConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Host       string        `mapstructure:"host"`
	Port       string        `mapstructure:"port"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	ResultsTTL time.Duration `mapstructure:"results_ttl"`
}

type KafkaConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Brokers  []string `mapstructure:"brokers"`
	Topic    string   `mapstructure:"topic"`
	ClientID string   `mapstructure:"client_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "humanaiconnection")
	v.SetDefault("app.version", "dev")

	v.SetDefault("server.port", "3001")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.allow_origins", "*")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("game.max_players", 20)
	v.SetDefault("game.max_rooms", 1000)
	v.SetDefault("game.inactivity_timeout", 30*time.Minute)
	v.SetDefault("game.sweep_interval", time.Minute)
	v.SetDefault("game.reconnect_grace", 15*time.Second)
	v.SetDefault("game.operation_timeout", 5*time.Second)
	v.SetDefault("game.deck_file", "")
	v.SetDefault("game.send_buffer", 256)
	v.SetDefault("game.export_buffer", 128)
	v.SetDefault("game.export_timeout", 5*time.Second)

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.user", "myuser")
	v.SetDefault("postgres.password", "mypassword")
	v.SetDefault("postgres.db", "humanaidb")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.results_ttl", 24*time.Hour)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "room-results")
	v.SetDefault("kafka.client_id", "humanaiconnection")
}

func Read() Config {
	return read(viper.GetViper(), []string{".", "./config", "/app", "/"})
}

func read(v *viper.Viper, paths []string) Config {
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	// ENV overrides with prefix HAC_ and dot-to-underscore replacement
	v.SetEnvPrefix("HAC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		zap.L().Warn("Failed to read configuration file", zap.Error(err))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		zap.L().Error("Configuration could not be parsed", zap.Error(err))
	}

	return config
}
