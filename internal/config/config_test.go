package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:12212", cfg.HTTP.Addr)
	assert.Equal(t, 100*time.Millisecond, cfg.Export.SettleDelay)
	assert.Equal(t, 2.0, cfg.Export.Scale)
	assert.Equal(t, 1200.0, cfg.Export.ViewportWidth)
	assert.Equal(t, 80.0, cfg.Export.PageWidthMM)
	assert.Equal(t, 200.0, cfg.Export.PageHeightMM)
	assert.Equal(t, EngineNative, cfg.Export.Engine)
	assert.Equal(t, "https://wa.me/?text=%s", cfg.Share.LinkTemplate)
	assert.Equal(t, 4*time.Second, cfg.Share.NotifyTTL)
	assert.Equal(t, BackendFile, cfg.Settings.Backend)
	assert.Equal(t, "receipt_settings", cfg.Settings.Key)
	assert.Equal(t, 0, cfg.Items.InvalidQuantity)
	assert.Equal(t, 576, cfg.Printer.Dots)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "export:\n  engine: chrome\n  settle_delay: 250ms\nitems:\n  invalid_quantity: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("QUICKRECEIPT_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("QUICKRECEIPT_SHARE_NOTIFY_TTL", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, EngineChrome, cfg.Export.Engine)
	assert.Equal(t, 250*time.Millisecond, cfg.Export.SettleDelay)
	assert.Equal(t, 1, cfg.Items.InvalidQuantity)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTP.Addr)
	assert.Equal(t, 2*time.Second, cfg.Share.NotifyTTL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	bad := []func(*Config){
		func(c *Config) { c.Export.Engine = "gpu" },
		func(c *Config) { c.Settings.Backend = "s3" },
		func(c *Config) { c.Export.Scale = 0 },
		func(c *Config) { c.Export.PageHeightMM = -1 },
		func(c *Config) { c.Share.LinkTemplate = "https://wa.me/" },
		func(c *Config) { c.Items.InvalidQuantity = -1 },
	}
	for i, mutate := range bad {
		c := *base
		mutate(&c)
		assert.Error(t, c.Validate(), i)
	}
}
