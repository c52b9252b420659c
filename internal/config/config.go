// Package config loads service settings from the environment and an optional .env file.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/campusride/wallet-ledger/internal/ledger"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds every setting of the service.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"` // empty runs on the in-memory store

	KafkaBrokers            string `mapstructure:"KAFKA_BROKERS"` // comma separated, empty disables
	KafkaEventsTopic        string `mapstructure:"KAFKA_EVENTS_TOPIC"`
	KafkaNotificationsTopic string `mapstructure:"KAFKA_NOTIFICATIONS_TOPIC"`

	RedisURL               string `mapstructure:"REDIS_URL"` // empty disables
	RedisNotificationQueue string `mapstructure:"REDIS_NOTIFICATION_QUEUE"`

	PlatformEmail string `mapstructure:"PLATFORM_EMAIL"`
	CarOwnerEmail string `mapstructure:"CAR_OWNER_EMAIL"`

	TopUpFeeRate      string `mapstructure:"TOPUP_FEE_RATE"`
	TopUpFeeThreshold string `mapstructure:"TOPUP_FEE_THRESHOLD"`
	TopUpFeeSurcharge string `mapstructure:"TOPUP_FEE_SURCHARGE"`
	DriverRate        string `mapstructure:"DRIVER_RATE"`
	TransferRate      string `mapstructure:"TRANSFER_RATE"`

	RewardEveryNRides int `mapstructure:"REWARD_EVERY_N_RIDES"`
	RewardMaxRetries  int `mapstructure:"REWARD_MAX_RETRIES"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"SERVER_PORT":               "8080",
	"DATABASE_URL":              "",
	"KAFKA_BROKERS":             "",
	"KAFKA_EVENTS_TOPIC":        "settlement_completed",
	"KAFKA_NOTIFICATIONS_TOPIC": "notifications",
	"REDIS_URL":                 "",
	"REDIS_NOTIFICATION_QUEUE":  "wallet:notifications",
	"PLATFORM_EMAIL":            "platform@moov.test",
	"CAR_OWNER_EMAIL":           "carowner@moov.test",
	"TOPUP_FEE_RATE":            "0.015",
	"TOPUP_FEE_THRESHOLD":       "2500",
	"TOPUP_FEE_SURCHARGE":       "100",
	"DRIVER_RATE":               "0.6",
	"TRANSFER_RATE":             "0.01",
	"REWARD_EVERY_N_RIDES":      10,
	"REWARD_MAX_RETRIES":        5,
	"LOG_LEVEL":                 "info",
	"LOG_FORMAT":                "text",
}

// LoadConfig reads <path>/.env if present, then lets real environment variables win.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	envFile := filepath.Join(path, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("file", envFile).Warn("could not read env file, using environment only")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.ServerPort = port
	}
	if cfg.RewardMaxRetries < 0 {
		cfg.RewardMaxRetries = 0
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if strings.TrimSpace(c.PlatformEmail) == "" {
		return errors.New("PLATFORM_EMAIL must be set")
	}
	for key, value := range map[string]string{
		"TOPUP_FEE_RATE":      c.TopUpFeeRate,
		"TOPUP_FEE_THRESHOLD": c.TopUpFeeThreshold,
		"TOPUP_FEE_SURCHARGE": c.TopUpFeeSurcharge,
		"DRIVER_RATE":         c.DriverRate,
		"TRANSFER_RATE":       c.TransferRate,
	} {
		if _, err := decimal.NewFromString(value); err != nil {
			return errors.New(key + " is not a decimal: " + value)
		}
	}
	return nil
}

// Brokers splits KAFKA_BROKERS
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// EngineConfig builds the settlement engine configuration. Call after LoadConfig validated the values.
func (c Config) EngineConfig() ledger.Config {
	return ledger.Config{
		PlatformEmail:        strings.ToLower(strings.TrimSpace(c.PlatformEmail)),
		DefaultCarOwnerEmail: strings.ToLower(strings.TrimSpace(c.CarOwnerEmail)),
		TopUpFees: ledger.FeeSchedule{
			Rate:      decimal.RequireFromString(c.TopUpFeeRate),
			Threshold: decimal.RequireFromString(c.TopUpFeeThreshold),
			Surcharge: decimal.RequireFromString(c.TopUpFeeSurcharge),
		},
	}
}

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
	return log
}
