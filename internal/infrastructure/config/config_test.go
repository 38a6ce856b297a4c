package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "neuropul-payments", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 15*time.Minute, cfg.Webhook.FreshnessWindow)
	assert.Equal(t, 10000, cfg.Webhook.CacheMaxEntries)
	assert.Equal(t, int64(65536), cfg.HTTP.MaxBodySize)
	assert.Equal(t, "payments_log", cfg.Storage.PaymentsTable)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowOrigins)
	assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "X-Idempotency-Key")
	assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "Stripe-Signature")
}

func TestApplyDefaults_ProductionLogFormat(t *testing.T) {
	cfg := &Config{App: AppConfig{Env: "production"}}
	applyDefaults(cfg)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Storage: StorageConfig{
				URL:            "https://example.supabase.co",
				ServiceRoleKey: "service-role-key",
			},
		}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, valid().validate())
	})

	t.Run("missing storage URL is fatal", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.URL = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.url")
	})

	t.Run("malformed storage URL is fatal", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.URL = "not a url"
		require.Error(t, cfg.validate())
	})

	t.Run("missing service role key is fatal", func(t *testing.T) {
		cfg := valid()
		cfg.Storage.ServiceRoleKey = ""
		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "service_role_key")
	})

	t.Run("production requires stripe webhook secret", func(t *testing.T) {
		cfg := valid()
		cfg.App.Env = "production"
		require.Error(t, cfg.validate())

		cfg.Webhook.StripeWebhookSecret = "whsec_test"
		require.NoError(t, cfg.validate())
	})
}
