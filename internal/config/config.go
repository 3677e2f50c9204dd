package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	Gateway    GatewayConfig `validate:"required"`
	Webhook    Webhook
	Email      EmailConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
}

// GatewayConfig holds the upstream payment gateway connection settings
type GatewayConfig struct {
	BaseURL      string `mapstructure:"base_url" validate:"required"`
	MerchantID   string `mapstructure:"merchant_id"`
	SaltKey      string `mapstructure:"salt_key"`
	SaltIndex    string `mapstructure:"salt_index" default:"1"`
	RedirectURL  string `mapstructure:"redirect_url"`
	CallbackURL  string `mapstructure:"callback_url"`
	Timeout      time.Duration `mapstructure:"timeout" default:"30s"`
	PollAttempts int           `mapstructure:"poll_attempts" default:"10"`
	PollInterval time.Duration `mapstructure:"poll_interval" default:"3s"`
	// VerifyRatePerSecond caps verify calls against the gateway
	VerifyRatePerSecond float64 `mapstructure:"verify_rate_per_second" default:"5"`
}

type EmailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	AlertTo     string `mapstructure:"alert_to"`
}

func NewConfig() (*Configuration, error) {
	// Load .env if present; real config comes from yaml + env overrides
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cgpey")

	v.SetEnvPrefix("CGPEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Configuration) applyDefaults() {
	if c.Gateway.Timeout == 0 {
		c.Gateway.Timeout = 30 * time.Second
	}
	if c.Gateway.PollAttempts == 0 {
		c.Gateway.PollAttempts = 10
	}
	if c.Gateway.PollInterval == 0 {
		c.Gateway.PollInterval = 3 * time.Second
	}
	if c.Gateway.VerifyRatePerSecond == 0 {
		c.Gateway.VerifyRatePerSecond = 5
	}
	if c.Gateway.SaltIndex == "" {
		c.Gateway.SaltIndex = "1"
	}
	if c.Postgres.MaxOpenConns == 0 {
		c.Postgres.MaxOpenConns = 10
	}
	if c.Postgres.MaxIdleConns == 0 {
		c.Postgres.MaxIdleConns = 5
	}
	c.Webhook.applyDefaults()
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// and tests
func GetDefaultConfig() *Configuration {
	cfg := &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Gateway: GatewayConfig{
			BaseURL: "https://api-preprod.phonepe.com/apis/pg-sandbox",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
