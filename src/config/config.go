package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvConfig is the process configuration read from the environment and an
// optional .env file.
type EnvConfig struct {
	TelegramToken string  `mapstructure:"TELEGRAM_TOKEN" validate:"required"`
	TelegramID    []int64 `mapstructure:"TELEGRAM_ID"`

	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID" validate:"required"`
	PayPalClientSecret string `mapstructure:"PAYPAL_CLIENT_SECRET" validate:"required"`
	PayPalMode         string `mapstructure:"PAYPAL_MODE" validate:"oneof=sandbox live"`
	PayPalReturnURL    string `mapstructure:"PAYPAL_RETURN_URL" validate:"required,url"`
	PayPalCancelURL    string `mapstructure:"PAYPAL_CANCEL_URL" validate:"required,url"`

	ForexAPIURL      string `mapstructure:"FOREX_API_URL" validate:"required,url"`
	AppURL           string `mapstructure:"APP_URL" validate:"required,url"`
	PackageTablePath string `mapstructure:"PACKAGE_TABLE_PATH" validate:"required"`

	HTTPAddr           string `mapstructure:"HTTP_ADDR" validate:"required"`
	HTTPTimeoutSeconds int    `mapstructure:"HTTP_TIMEOUT_SECONDS" validate:"gte=0"`
	LogLevel           string `mapstructure:"LOG_LEVEL"`
}

var defaults = map[string]any{
	"PAYPAL_MODE":          "sandbox",
	"PAYPAL_RETURN_URL":    "http://localhost:3000/payment/execute",
	"PAYPAL_CANCEL_URL":    "http://localhost:3000/payment/cancel",
	"FOREX_API_URL":        "https://www.freeforexapi.com/api/live",
	"APP_URL":              "https://telefilm-dapp.glide.page",
	"PACKAGE_TABLE_PATH":   "pkg_table.jpg",
	"HTTP_ADDR":            ":3000",
	"HTTP_TIMEOUT_SECONDS": 15,
	"LOG_LEVEL":            "info",
}

var keys = []string{
	"TELEGRAM_TOKEN",
	"TELEGRAM_ID",
	"PAYPAL_CLIENT_ID",
	"PAYPAL_CLIENT_SECRET",
	"PAYPAL_MODE",
	"PAYPAL_RETURN_URL",
	"PAYPAL_CANCEL_URL",
	"FOREX_API_URL",
	"APP_URL",
	"PACKAGE_TABLE_PATH",
	"HTTP_ADDR",
	"HTTP_TIMEOUT_SECONDS",
	"LOG_LEVEL",
}

// LoadEnvConfig loads path into the process environment if it exists and
// then reads every key from the environment. A missing file is not an error.
func LoadEnvConfig(path string) (*EnvConfig, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	v := viper.New()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg EnvConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// ValidateWithDefaults normalizes the config and checks it.
func (e *EnvConfig) ValidateWithDefaults() error {
	e.PayPalMode = strings.ToLower(strings.TrimSpace(e.PayPalMode))
	if e.PayPalMode == "" {
		e.PayPalMode = "sandbox"
	}
	if e.HTTPTimeoutSeconds == 0 {
		e.HTTPTimeoutSeconds = 15
	}

	if err := validator.New().Struct(e); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}
	return nil
}

// HasTelegramID reports whether id is in the allowlist.
func (e *EnvConfig) HasTelegramID(id int64) bool {
	for _, v := range e.TelegramID {
		if v == id {
			return true
		}
	}
	return false
}

// IsAllowed reports whether id may use the bot. An empty allowlist allows
// everyone.
func (e *EnvConfig) IsAllowed(id int64) bool {
	return len(e.TelegramID) == 0 || e.HasTelegramID(id)
}
