package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	TokenTTL    time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// WSMessageRate limits inbound realtime frames per second per connection;
	// WSMessageBurst is the burst allowance.
	WSMessageRate  float64 `mapstructure:"ws_message_rate" yaml:"ws_message_rate"`
	WSMessageBurst int     `mapstructure:"ws_message_burst" yaml:"ws_message_burst"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "rentloop.db",
		JWTSecret:         "change-me",
		JWTIssuer:         "rentloop",
		JWTAudience:       "rentloop-clients",
		TokenTTL:          24 * time.Hour,
		LogLevel:          "info",
		WSMessageRate:     20,
		WSMessageBurst:    40,
	}
}
