// Package config loads application configuration with viper
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "QUICKRECEIPT"

// Config holds all application configuration
type Config struct {
	HTTP     HTTPConfig
	Log      LogConfig
	Export   ExportConfig
	Share    ShareConfig
	Settings SettingsConfig
	Redis    RedisConfig
	Items    ItemsConfig
	Printer  PrinterConfig
}

// HTTPConfig holds the API listener
type HTTPConfig struct {
	Addr string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// ExportConfig tunes capture and PDF output
type ExportConfig struct {
	SettleDelay   time.Duration
	Scale         float64
	ViewportWidth float64
	PageWidthMM   float64
	PageHeightMM  float64
	OutputDir     string
	Engine        string // native, chrome
	ChromeURL     string
}

// ShareConfig holds the share target
type ShareConfig struct {
	LinkTemplate string
	NotifyTTL    time.Duration
}

// SettingsConfig selects where company settings live
type SettingsConfig struct {
	Backend string // file, redis
	Path    string
	Key     string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ItemsConfig holds line item input rules
type ItemsConfig struct {
	InvalidQuantity int
}

// PrinterConfig addresses a thermal printer
type PrinterConfig struct {
	Host   string
	Port   int
	Device string
	Baud   int
	Dots   int
}

// Export engines
const (
	EngineNative = "native"
	EngineChrome = "chrome"
)

// Settings backends
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "0.0.0.0:12212")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("export.settle_delay", 100*time.Millisecond)
	v.SetDefault("export.scale", 2.0)
	v.SetDefault("export.viewport_width", 1200.0)
	v.SetDefault("export.page_width_mm", 80.0)
	v.SetDefault("export.page_height_mm", 200.0)
	v.SetDefault("export.output_dir", "./downloads")
	v.SetDefault("export.engine", EngineNative)
	v.SetDefault("export.chrome_url", "")

	v.SetDefault("share.link_template", "https://wa.me/?text=%s")
	v.SetDefault("share.notify_ttl", 4*time.Second)

	v.SetDefault("settings.backend", BackendFile)
	v.SetDefault("settings.path", "./receipt_settings.json")
	v.SetDefault("settings.key", "receipt_settings")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("items.invalid_quantity", 0)

	v.SetDefault("printer.host", "")
	v.SetDefault("printer.port", 9100)
	v.SetDefault("printer.device", "")
	v.SetDefault("printer.baud", 9600)
	v.SetDefault("printer.dots", 576)
}

// Load reads defaults, then the optional config file, then environment overrides
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		HTTP: HTTPConfig{
			Addr: v.GetString("http.addr"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Export: ExportConfig{
			SettleDelay:   v.GetDuration("export.settle_delay"),
			Scale:         v.GetFloat64("export.scale"),
			ViewportWidth: v.GetFloat64("export.viewport_width"),
			PageWidthMM:   v.GetFloat64("export.page_width_mm"),
			PageHeightMM:  v.GetFloat64("export.page_height_mm"),
			OutputDir:     v.GetString("export.output_dir"),
			Engine:        v.GetString("export.engine"),
			ChromeURL:     v.GetString("export.chrome_url"),
		},
		Share: ShareConfig{
			LinkTemplate: v.GetString("share.link_template"),
			NotifyTTL:    v.GetDuration("share.notify_ttl"),
		},
		Settings: SettingsConfig{
			Backend: v.GetString("settings.backend"),
			Path:    v.GetString("settings.path"),
			Key:     v.GetString("settings.key"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Items: ItemsConfig{
			InvalidQuantity: v.GetInt("items.invalid_quantity"),
		},
		Printer: PrinterConfig{
			Host:   v.GetString("printer.host"),
			Port:   v.GetInt("printer.port"),
			Device: v.GetString("printer.device"),
			Baud:   v.GetInt("printer.baud"),
			Dots:   v.GetInt("printer.dots"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check
func (c *Config) Validate() error {
	switch c.Export.Engine {
	case EngineNative, EngineChrome:
	default:
		return fmt.Errorf("export.engine must be %q or %q, got %q", EngineNative, EngineChrome, c.Export.Engine)
	}
	switch c.Settings.Backend {
	case BackendFile, BackendRedis:
	default:
		return fmt.Errorf("settings.backend must be %q or %q, got %q", BackendFile, BackendRedis, c.Settings.Backend)
	}
	if c.Export.Scale <= 0 {
		return fmt.Errorf("export.scale must be positive")
	}
	if c.Export.PageWidthMM <= 0 || c.Export.PageHeightMM <= 0 {
		return fmt.Errorf("export page size must be positive")
	}
	if strings.Count(c.Share.LinkTemplate, "%s") != 1 {
		return fmt.Errorf("share.link_template must contain exactly one %%s")
	}
	if c.Items.InvalidQuantity < 0 {
		return fmt.Errorf("items.invalid_quantity must not be negative")
	}
	return nil
}
