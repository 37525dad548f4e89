package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppCfg struct {
	Name            string        `mapstructure:"name"`
	Env             string        `mapstructure:"env"`
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxBodyBytes caps every request body; 0 disables the cap.
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
}

type LogCfg struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json | console
}

type DatabaseCfg struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
}

type S3Cfg struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	UsePathStyle  bool   `mapstructure:"use_path_style"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// Configured reports whether bucket, region and static credentials are all
// present. Without them storage runs disabled.
func (c S3Cfg) Configured() bool {
	return c.Bucket != "" && c.Region != "" && c.AccessKey != "" && c.SecretKey != ""
}

type SigningCfg struct {
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	DownloadTTL time.Duration `mapstructure:"download_ttl"`
	MaxAttempts int           `mapstructure:"max_attempts"`
}

type UploadCfg struct {
	Window          int           `mapstructure:"window"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BaseBackoff     time.Duration `mapstructure:"base_backoff"`
	MaxBackoff      time.Duration `mapstructure:"max_backoff"`
	InterChunkDelay time.Duration `mapstructure:"inter_chunk_delay"`
	Deadline        time.Duration `mapstructure:"deadline"`
}

type RedisCfg struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	CacheEnabled bool   `mapstructure:"cache_enabled"`
}

type RabbitMQCfg struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

type TelemetryCfg struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

type GeneratorCfg struct {
	Provider    string `mapstructure:"provider"` // openai | gemini | none
	Model       string `mapstructure:"model"`
	APIKey      string `mapstructure:"api_key"`
	Size        string `mapstructure:"size"`
	Variations  int    `mapstructure:"variations"`
	Concurrency int    `mapstructure:"concurrency"`
}

type Config struct {
	App       AppCfg       `mapstructure:"app"`
	Log       LogCfg       `mapstructure:"log"`
	Database  DatabaseCfg  `mapstructure:"database"`
	S3        S3Cfg        `mapstructure:"s3"`
	Signing   SigningCfg   `mapstructure:"signing"`
	Upload    UploadCfg    `mapstructure:"upload"`
	Redis     RedisCfg     `mapstructure:"redis"`
	RabbitMQ  RabbitMQCfg  `mapstructure:"rabbitmq"`
	Telemetry TelemetryCfg `mapstructure:"telemetry"`
	Generator GeneratorCfg `mapstructure:"generator"`
}

const EnvPrefix = "ROOMFORGE"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "roomforge-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.addr", ":8080")
	v.SetDefault("app.shutdown_timeout", 15*time.Second)
	v.SetDefault("app.max_body_bytes", 64<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("s3.region", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
	v.SetDefault("s3.use_path_style", false)
	v.SetDefault("s3.public_base_url", "")

	v.SetDefault("signing.default_ttl", time.Hour)
	v.SetDefault("signing.download_ttl", 4*time.Hour)
	v.SetDefault("signing.max_attempts", 1)

	v.SetDefault("upload.window", 3)
	v.SetDefault("upload.max_attempts", 3)
	v.SetDefault("upload.base_backoff", time.Second)
	v.SetDefault("upload.max_backoff", 8*time.Second)
	v.SetDefault("upload.inter_chunk_delay", 500*time.Millisecond)
	v.SetDefault("upload.deadline", 2*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_enabled", false)

	v.SetDefault("rabbitmq.url", "")
	v.SetDefault("rabbitmq.exchange", "roomforge.designs")

	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.insecure", true)
	v.SetDefault("telemetry.sample_ratio", 1.0)

	v.SetDefault("generator.provider", "none")
	v.SetDefault("generator.model", "")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.size", "1024x1024")
	v.SetDefault("generator.variations", 2)
	v.SetDefault("generator.concurrency", 2)
}

// Load reads config.yaml (if present) and environment overrides.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Upload.Window < 1 {
		return fmt.Errorf("upload.window must be >= 1, got %d", c.Upload.Window)
	}
	if c.Upload.MaxAttempts < 1 {
		return fmt.Errorf("upload.max_attempts must be >= 1, got %d", c.Upload.MaxAttempts)
	}
	if c.Signing.MaxAttempts < 1 {
		c.Signing.MaxAttempts = 1
	}
	if c.Generator.Variations < 1 {
		c.Generator.Variations = 1
	}
	if c.Generator.Concurrency < 1 {
		c.Generator.Concurrency = 1
	}
	return nil
}
