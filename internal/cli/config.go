package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix prefixes every environment variable read by the CLI.
const envPrefix = "S4"

// configKeys lists every key Config decodes.
var configKeys = []string{
	"region", "endpoint", "path-style", "log-level", "bucket",
	"access-key-id", "secret-access-key",
	"part-size", "multipart-threshold", "max-retries",
}

// Config holds the settings shared by every command.
type Config struct {
	Region             string `mapstructure:"region"`
	Endpoint           string `mapstructure:"endpoint" validate:"omitempty,url"`
	PathStyle          bool   `mapstructure:"path-style"`
	LogLevel           string `mapstructure:"log-level" validate:"oneof=debug info warn error"`
	DefaultBucket      string `mapstructure:"bucket"`
	AccessKeyID        string `mapstructure:"access-key-id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey    string `mapstructure:"secret-access-key" validate:"required_with=AccessKeyID"`
	PartSize           int64  `mapstructure:"part-size" validate:"gte=0"`
	MultipartThreshold int64  `mapstructure:"multipart-threshold" validate:"gte=0"`
	MaxRetries         int    `mapstructure:"max-retries" validate:"gte=0,lte=20"`
}

// LoadConfig reads the configuration from flags, the environment and, when
// configFile is not empty, a YAML file.
func LoadConfig(flags *pflag.FlagSet, configFile string) (Config, error) {
	v := viper.New()
	v.SetDefault("log-level", "warn")
	v.SetDefault("max-retries", 3)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, key := range configKeys {
		// Unmarshal only sees keys viper knows about.
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := newValidator().check(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// configValidator validates Config and renders failures in English.
type configValidator struct {
	validate *validator.Validate
	trans    ut.Translator
}

func newValidator() *configValidator {
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")

	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Tag.Get("mapstructure")
	})
	// Translations only change message text; a failure leaves the defaults.
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	return &configValidator{validate: validate, trans: trans}
}

func (v *configValidator) check(cfg Config) error {
	err := v.validate.Struct(cfg)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Translate(v.trans))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
