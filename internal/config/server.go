package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Shivanand-hulikatti/eventhorizon/internal/database"
)

// Server is the eventsd configuration.
type Server struct {
	Port            string          `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	AllowedOrigin   string          `mapstructure:"allowed_origin"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	TokenTTL        time.Duration   `mapstructure:"token_ttl"`
	AuthRate        float64         `mapstructure:"auth_rate"`
	AuthBurst       int             `mapstructure:"auth_burst"`
	DB              database.Config `mapstructure:"db"`
}

// legacyEnv maps config keys onto the unprefixed variables older
// deployments already set.
var legacyEnv = map[string]string{
	"port":        "PORT",
	"db.host":     "DB_HOST",
	"db.port":     "DB_PORT",
	"db.user":     "DB_USER",
	"db.password": "DB_PASSWORD",
	"db.name":     "DB_NAME",
	"db.sslmode":  "DB_SSLMODE",
}

func setServerDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origin", "*")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("token_ttl", 24*time.Hour)
	v.SetDefault("auth_rate", 1.0)
	v.SetDefault("auth_burst", 5)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.name", "eventhorizon")
	v.SetDefault("db.sslmode", "disable")
}

// NewServerViper returns a viper instance with defaults and env bindings.
// configFile may be empty, in which case eventsd.yaml is looked up in the
// working directory and ./config.
func NewServerViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setServerDefaults(v)

	v.SetEnvPrefix("EVENTSD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "EVENTSD_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("eventsd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading server config: %w", err)
		}
	}
	return v, nil
}

// ParseServer decodes v into a validated Server config.
func ParseServer(v *viper.Viper) (*Server, error) {
	var c Server
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding server config: %w", err)
	}
	if c.Port == "" {
		return nil, errors.New("port is required")
	}
	if c.TokenTTL <= 0 {
		return nil, errors.New("token_ttl must be positive")
	}
	if c.AuthRate <= 0 || c.AuthBurst <= 0 {
		return nil, errors.New("auth_rate and auth_burst must be positive")
	}
	return &c, nil
}

// LoadServer combines NewServerViper and ParseServer.
func LoadServer(configFile string) (*Server, error) {
	v, err := NewServerViper(configFile)
	if err != nil {
		return nil, err
	}
	return ParseServer(v)
}
