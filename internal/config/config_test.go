// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/stockwatch-cli/api/schemas"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 1920, cfg.Browser.ViewportWidth)
	assert.Equal(t, 60*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, "gpt-4o", cfg.Inference.Model)
	assert.Equal(t, 1000, cfg.Inference.MaxTokens)
	assert.Equal(t, 3, cfg.Monitor.MaxAttempts)
	assert.Equal(t, "*/10 * * * *", cfg.Monitor.Schedule)
	assert.False(t, cfg.Email.Enabled)
}

func TestNewConfigFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("logger.level", "debug")
	v.Set("monitor.max_attempts", 5)
	v.Set("shops", []map[string]any{
		{"name": "zara", "url": "https://www.zara.com/ua/uk", "locale": "/ua/uk"},
	})
	v.Set("items", []map[string]any{
		{
			"shop":         "zara",
			"name":         "Linen blazer",
			"product_path": "/linen-blazer-p012345.html",
			"sizes":        []string{"M", "L"},
			"max_price":    120.0,
		},
	})

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 5, cfg.Monitor.MaxAttempts)
	require.Len(t, cfg.Items, 1)
	assert.Equal(t, []string{"M", "L"}, cfg.Items[0].Sizes)

	shop, ok := cfg.FindShop("zara")
	require.True(t, ok)
	assert.Equal(t, "https://www.zara.com/ua/uk", shop.BaseURL)
	_, ok = cfg.FindShop("unknown")
	assert.False(t, ok)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Shops = []schemas.ShopProfile{{Name: "zara", BaseURL: "https://www.zara.com"}}
		cfg.Items = []schemas.MonitoredItem{{
			Shop:        "zara",
			Name:        "Coat",
			ProductPath: "/coat-p1.html",
			Sizes:       []string{"S"},
		}}
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("zero attempts", func(t *testing.T) {
		cfg := base()
		cfg.Monitor.MaxAttempts = 0
		assert.ErrorContains(t, cfg.Validate(), "max_attempts")
	})

	t.Run("settle window inverted", func(t *testing.T) {
		cfg := base()
		cfg.Network.SettleMin = 10 * time.Second
		cfg.Network.SettleMax = time.Second
		assert.ErrorContains(t, cfg.Validate(), "settle_max")
	})

	t.Run("item without sizes", func(t *testing.T) {
		cfg := base()
		cfg.Items[0].Sizes = nil
		assert.ErrorContains(t, cfg.Validate(), "target sizes")
	})

	t.Run("item with unknown shop", func(t *testing.T) {
		cfg := base()
		cfg.Items[0].Shop = "hm"
		assert.ErrorContains(t, cfg.Validate(), "unknown shop")
	})
}

func TestSecretsFromEnvironment(t *testing.T) {
	t.Setenv("STOCKWATCH_INFERENCE_API_KEY", "sk-test-123")
	t.Setenv("STOCKWATCH_EMAIL_PASSWORD", "hunter2")

	v := viper.New()
	SetDefaults(v)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test-123", cfg.Inference.APIKey)
	assert.Equal(t, "hunter2", cfg.Email.Password)
}
