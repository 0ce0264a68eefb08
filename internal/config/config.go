// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig            `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig           `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig           `mapstructure:"network" yaml:"network"`
	Inference InferenceConfig         `mapstructure:"inference" yaml:"inference"`
	Email     EmailConfig             `mapstructure:"email" yaml:"email"`
	Dashboard DashboardConfig         `mapstructure:"dashboard" yaml:"dashboard"`
	Proxy     ProxyConfig             `mapstructure:"proxy" yaml:"proxy"`
	Monitor   MonitorConfig           `mapstructure:"monitor" yaml:"monitor"`
	Shops     []schemas.ShopProfile   `mapstructure:"shops" yaml:"shops"`
	Items     []schemas.MonitoredItem `mapstructure:"items" yaml:"items"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless       bool     `mapstructure:"headless" yaml:"headless"`
	DisableGPU     bool     `mapstructure:"disable_gpu" yaml:"disable_gpu"`
	Args           []string `mapstructure:"args" yaml:"args"`
	ViewportWidth  int      `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int      `mapstructure:"viewport_height" yaml:"viewport_height"`
	ScreenshotDir  string   `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
}

// NetworkConfig tunes page navigation and settle behavior.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	SettleMin         time.Duration `mapstructure:"settle_min" yaml:"settle_min"`
	SettleMax         time.Duration `mapstructure:"settle_max" yaml:"settle_max"`
	ConsentTimeout    time.Duration `mapstructure:"consent_timeout" yaml:"consent_timeout"`
}

// InferenceConfig configures the vision inference boundary. An empty APIKey
// is not an error; it switches the analyzer into mock mode.
type InferenceConfig struct {
	Enabled    bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	Model      string        `mapstructure:"model" yaml:"model"`
	APIKey     string        `mapstructure:"api_key" yaml:"-"`
	APITimeout time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	MaxTokens  int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// EmailConfig configures outbound notification mail.
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	SMTPHost string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" yaml:"smtp_port"`
	From     string `mapstructure:"from" yaml:"from"`
	Password string `mapstructure:"password" yaml:"-"`
	To       string `mapstructure:"to" yaml:"to"`
}

// DashboardConfig configures the static status dashboard output.
type DashboardConfig struct {
	Dir             string `mapstructure:"dir" yaml:"dir"`
	ScreenshotCount int    `mapstructure:"screenshot_count" yaml:"screenshot_count"`
}

// ProxyConfig points at the line-oriented proxy list.
type ProxyConfig struct {
	File string `mapstructure:"file" yaml:"file"`
}

// MonitorConfig tunes the monitoring loop.
type MonitorConfig struct {
	Schedule     string        `mapstructure:"schedule" yaml:"schedule"`
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	BackoffBase  time.Duration `mapstructure:"backoff_base" yaml:"backoff_base"`
	ItemDelayMin time.Duration `mapstructure:"item_delay_min" yaml:"item_delay_min"`
	ItemDelayMax time.Duration `mapstructure:"item_delay_max" yaml:"item_delay_max"`
}

// FindShop returns the profile for the named shop.
func (c *Config) FindShop(name string) (schemas.ShopProfile, bool) {
	for _, shop := range c.Shops {
		if shop.Name == name {
			return shop, true
		}
	}
	return schemas.ShopProfile{}, false
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "stockwatch")
	v.SetDefault("logger.log_file", "stockwatch.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_gpu", true)
	v.SetDefault("browser.viewport_width", 1920)
	v.SetDefault("browser.viewport_height", 1080)
	v.SetDefault("browser.screenshot_dir", "screenshots")

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.settle_min", "2s")
	v.SetDefault("network.settle_max", "5s")
	v.SetDefault("network.consent_timeout", "5s")

	// -- Inference --
	v.SetDefault("inference.enabled", true)
	v.SetDefault("inference.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("inference.model", "gpt-4o")
	v.SetDefault("inference.api_timeout", "60s")
	v.SetDefault("inference.max_tokens", 1000)

	// -- Email --
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)

	// -- Dashboard --
	v.SetDefault("dashboard.dir", "html")
	v.SetDefault("dashboard.screenshot_count", 10)

	// -- Proxy --
	v.SetDefault("proxy.file", "config/proxies.txt")

	// -- Monitor --
	v.SetDefault("monitor.schedule", "*/10 * * * *")
	v.SetDefault("monitor.max_attempts", 3)
	v.SetDefault("monitor.backoff_base", "5s")
	v.SetDefault("monitor.item_delay_min", "2s")
	v.SetDefault("monitor.item_delay_max", "8s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Secrets come from the environment, never from config files.
	v.BindEnv("inference.api_key", "STOCKWATCH_INFERENCE_API_KEY")
	v.BindEnv("email.password", "STOCKWATCH_EMAIL_PASSWORD")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// BindEnv only surfaces through Unmarshal when the key exists in some
	// source, so fall back to the environment directly.
	if cfg.Inference.APIKey == "" {
		cfg.Inference.APIKey = os.Getenv("STOCKWATCH_INFERENCE_API_KEY")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("STOCKWATCH_EMAIL_PASSWORD")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Monitor.MaxAttempts <= 0 {
		return fmt.Errorf("monitor.max_attempts must be a positive integer")
	}
	if c.Network.SettleMax < c.Network.SettleMin {
		return fmt.Errorf("network.settle_max must not be below network.settle_min")
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport dimensions must be positive")
	}
	shops := make(map[string]struct{}, len(c.Shops))
	for _, shop := range c.Shops {
		if shop.Name == "" || shop.BaseURL == "" {
			return fmt.Errorf("every shop needs a name and a url")
		}
		shops[shop.Name] = struct{}{}
	}
	for _, item := range c.Items {
		if item.ProductPath == "" {
			return fmt.Errorf("item %q has no product_path", item.Name)
		}
		if len(item.Sizes) == 0 {
			return fmt.Errorf("item %q has no target sizes", item.Name)
		}
		if _, ok := shops[item.Shop]; !ok {
			return fmt.Errorf("item %q references unknown shop %q", item.Name, item.Shop)
		}
	}
	return nil
}
