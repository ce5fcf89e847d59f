package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sagarc03/signet"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SIGNET"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for signet.
type Config struct {
	Env     string        `mapstructure:"env" validate:"omitempty,oneof=dev development prod production"`
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// PublicURL is how clients reach this server. The local backend builds
	// its presigned URLs from it.
	PublicURL          string `mapstructure:"public_url" validate:"omitempty,url"`
	StrictStreamErrors bool   `mapstructure:"strict_stream_errors"`
	MaxBodyBytes       int64  `mapstructure:"max_body_bytes" validate:"min=0"`
}

// StorageConfig selects and configures the object store.
type StorageConfig struct {
	Backend       string `mapstructure:"backend" validate:"required,oneof=s3 minio local"`
	Region        string `mapstructure:"region" validate:"required"`
	Bucket        string `mapstructure:"bucket" validate:"required_unless=Backend local"`
	Endpoint      string `mapstructure:"endpoint" validate:"required_if=Backend minio"`
	AccessKey     string `mapstructure:"access_key" validate:"required_if=Backend minio"`
	SecretKey     string `mapstructure:"secret_key" validate:"required_with=AccessKey"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	PathStyle     bool   `mapstructure:"path_style"`
	PublicBaseURL string `mapstructure:"public_base_url" validate:"omitempty,url"`
	Path          string `mapstructure:"path" validate:"required_if=Backend local"`
}

// UploadsConfig controls which uploads are accepted.
type UploadsConfig struct {
	AllowSVG bool `mapstructure:"allow_svg"`
}

// CORSConfig holds the origin allowlist. A comma separated string is
// accepted wherever a list is, so SIGNET_CORS_ALLOWED_ORIGINS="a,b" works.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxAge         int      `mapstructure:"max_age" validate:"min=0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// IsProduction reports whether Env selects production behaviour.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":            "server.port",
	"public-url":      "server.public_url",
	"backend":         "storage.backend",
	"region":          "storage.region",
	"bucket":          "storage.bucket",
	"endpoint":        "storage.endpoint",
	"storage-path":    "storage.path",
	"allowed-origins": "cors.allowed_origins",
	"log-level":       "log.level",
}

// legacyEnv lists conventional variable names honoured after the SIGNET_ ones.
var legacyEnv = map[string][]string{
	"server.port":             {"PORT"},
	"storage.region":          {"AWS_REGION"},
	"storage.access_key":      {"AWS_ACCESS_KEY_ID"},
	"storage.secret_key":      {"AWS_SECRET_ACCESS_KEY"},
	"storage.bucket":          {"S3_BUCKET"},
	"storage.endpoint":        {"S3_ENDPOINT"},
	"storage.public_base_url": {"PUBLIC_BASE_URL"},
	"cors.allowed_origins":    {"ALLOWED_ORIGINS"},
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		// Use custom mapping if it exists, otherwise use flag name as-is
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// bindEnv binds SIGNET_* names and their legacy aliases, in that order of precedence.
func bindEnv(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_")
	for key, aliases := range legacyEnv {
		names := append([]string{EnvPrefix + "_" + strings.ToUpper(replacer.Replace(key))}, aliases...)
		_ = v.BindEnv(append([]string{key}, names...)...)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()
}

// setDefaults configures default values on the viper instance. Every key gets
// a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.strict_stream_errors", false)
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.use_ssl", false)
	v.SetDefault("storage.path_style", false)
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.path", "./data")

	v.SetDefault("uploads.allow_svg", false)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > .env file > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Load .env into the process environment; real env vars win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("error reading .env file", "err", err)
	}

	// 4. Bind environment variables
	bindEnv(v)

	// 5. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// "a, b" from the environment splits on the comma only
	cfg.CORS.AllowedOrigins = signet.ParseOrigins(strings.Join(cfg.CORS.AllowedOrigins, ","))

	// 7. Validate using go-playground/validator
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
