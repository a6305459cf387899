package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers for local mode.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	DataMode      string
	DataLatency   time.Duration
	DataWriteMode string

	StoreDriver     string
	SQLitePath      string
	DatabaseURL     string
	RedisURL        string
	RedisCacheTTL   time.Duration
	RemoteBaseURL   string
	RemoteTimeout   time.Duration
	JWTSecret       string
	JWTTTL          time.Duration
	OTPTTL          time.Duration
	OTPDelivery     string
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SMTPFrom        string
	NATSURL         string
	RealtimeChannel string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxBytes         int64
	UploadDir              string

	CORSAllowOrigins   string
	OTPRatePerMinute   int
	OTPVerifyPerMinute int
	OTPMaxAttempts     int
	ChatRatePerMinute  int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsDevelopment reports whether development shortcuts are allowed.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "test"
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PLAKSHA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("data.mode", "local")
	v.SetDefault("data.latency", "500ms")
	v.SetDefault("data.write_mode", "serialized")
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.sqlite_path", "file:plaksha.db")
	v.SetDefault("redis.cache_ttl", "60s")
	v.SetDefault("remote.base_url", "http://localhost:8000/api")
	v.SetDefault("remote.timeout", "30s")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("auth.otp_ttl", "10m")
	v.SetDefault("auth.otp_delivery", "dev")
	v.SetDefault("smtp.port", "587")
	v.SetDefault("realtime.channel", "plaksha.realtime")
	v.SetDefault("cloudinary.folder", "plaksha")
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("upload.dir", "uploads")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("rate_limit.otp_per_minute", 5)
	v.SetDefault("rate_limit.otp_verify_per_minute", 10)
	v.SetDefault("auth.otp_max_attempts", 5)
	v.SetDefault("rate_limit.chat_per_minute", 60)
}

func fromViper(v *viper.Viper) (Config, error) {
	durations := map[string]*time.Duration{}
	cfg := Config{
		AppEnv:                 strings.ToLower(v.GetString("app.env")),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DataMode:               strings.ToLower(v.GetString("data.mode")),
		DataWriteMode:          strings.ToLower(v.GetString("data.write_mode")),
		StoreDriver:            strings.ToLower(v.GetString("store.driver")),
		SQLitePath:             v.GetString("store.sqlite_path"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		RemoteBaseURL:          strings.TrimSpace(v.GetString("remote.base_url")),
		JWTSecret:              v.GetString("jwt.secret"),
		OTPDelivery:            strings.ToLower(v.GetString("auth.otp_delivery")),
		SMTPHost:               strings.TrimSpace(v.GetString("smtp.host")),
		SMTPPort:               strings.TrimSpace(v.GetString("smtp.port")),
		SMTPUsername:           v.GetString("smtp.username"),
		SMTPPassword:           v.GetString("smtp.password"),
		SMTPFrom:               strings.TrimSpace(v.GetString("smtp.from")),
		NATSURL:                v.GetString("nats.url"),
		RealtimeChannel:        v.GetString("realtime.channel"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxBytes:         int64(v.GetInt("upload.max_mb")) << 20,
		UploadDir:              v.GetString("upload.dir"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		OTPRatePerMinute:       v.GetInt("rate_limit.otp_per_minute"),
		OTPVerifyPerMinute:     v.GetInt("rate_limit.otp_verify_per_minute"),
		OTPMaxAttempts:         v.GetInt("auth.otp_max_attempts"),
		ChatRatePerMinute:      v.GetInt("rate_limit.chat_per_minute"),
	}
	durations["data.latency"] = &cfg.DataLatency
	durations["redis.cache_ttl"] = &cfg.RedisCacheTTL
	durations["remote.timeout"] = &cfg.RemoteTimeout
	durations["jwt.ttl"] = &cfg.JWTTTL
	durations["auth.otp_ttl"] = &cfg.OTPTTL

	for key, dst := range durations {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		if parsed < 0 {
			return Config{}, fmt.Errorf("invalid %s: must not be negative", key)
		}
		*dst = parsed
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.DataMode {
	case "local", "remote":
	default:
		return fmt.Errorf("unknown data mode %q", c.DataMode)
	}
	switch c.DataWriteMode {
	case "serialized", "unguarded":
	default:
		return fmt.Errorf("unknown write mode %q", c.DataWriteMode)
	}
	switch c.OTPDelivery {
	case "dev", "log":
	case "smtp":
		if c.SMTPHost == "" || c.SMTPFrom == "" {
			return fmt.Errorf("smtp otp delivery requires smtp.host and smtp.from")
		}
	default:
		return fmt.Errorf("unknown otp delivery %q", c.OTPDelivery)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt secret must be provided")
	}
	if c.DataMode == "remote" && c.RemoteBaseURL == "" {
		return fmt.Errorf("remote mode requires remote.base_url")
	}
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis store requires redis.url")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("postgres store requires database.url")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if c.OTPMaxAttempts <= 0 {
		return fmt.Errorf("auth.otp_max_attempts must be positive")
	}
	if c.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload.max_mb must be positive")
	}
	return nil
}
