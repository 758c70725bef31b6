package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
[server]
http_port = 8080

[database]
host = "localhost"
port = 5432
user = "postgres"
dbname = "maxgateway"

[max]
bot_token = "file-token"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logs.Level)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "https://platform-api.max.ru", cfg.Max.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Max.TimeoutDuration())
	assert.Equal(t, 10*time.Second, cfg.Max.PollGraceDuration())
	assert.Equal(t, 30, cfg.Max.RateLimit)
	assert.Equal(t, 30*time.Second, cfg.Polling.TimeoutDuration())
	assert.Equal(t, 100, cfg.Polling.Limit)
	assert.Equal(t, 5*time.Second, cfg.Polling.RetryDelayDuration())
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "maxgateway", cfg.Metrics.ServiceName)
	assert.False(t, cfg.Webhook.Enabled())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MAX_BOT_TOKEN", "env-token")
	t.Setenv("MAX_API_URL", "https://max.example.com")
	t.Setenv("MAX_API_TIMEOUT", "12")
	t.Setenv("MAX_RATE_LIMIT", "5")
	t.Setenv("POLLING_TIMEOUT", "50")
	t.Setenv("POLLING_LIMIT", "10")
	t.Setenv("POLLING_RETRY_DELAY", "2")
	t.Setenv("POLLING_UPDATE_TYPES", "message_created, bot_started,,")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/webhook/max")
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Max.BotToken)
	assert.Equal(t, "https://max.example.com", cfg.Max.APIURL)
	assert.Equal(t, 12*time.Second, cfg.Max.TimeoutDuration())
	assert.Equal(t, 5, cfg.Max.RateLimit)
	assert.Equal(t, 50, cfg.Polling.Timeout)
	assert.Equal(t, 10, cfg.Polling.Limit)
	assert.Equal(t, 2*time.Second, cfg.Polling.RetryDelayDuration())
	assert.Equal(t, []string{"message_created", "bot_started"}, cfg.Polling.UpdateTypes)
	assert.True(t, cfg.Webhook.Enabled())
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing token",
			env:     map[string]string{"MAX_BOT_TOKEN": " "},
			wantErr: "max bot token is required",
		},
		{
			name:    "insecure webhook",
			env:     map[string]string{"WEBHOOK_URL": "http://bot.example.com/hook"},
			wantErr: "webhook url must be an absolute https URL",
		},
		{
			name:    "polling limit too large",
			env:     map[string]string{"POLLING_LIMIT": "5000"},
			wantErr: "polling limit",
		},
		{
			name:    "bad database port",
			env:     map[string]string{"DB_PORT": "70000"},
			wantErr: "database port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(writeConfig(t, minimalConfig+tt.extra))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
