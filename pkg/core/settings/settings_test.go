package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DEFAULT_LANGUAGE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "kn", cfg.DefaultLanguage)
	assert.Equal(t, 10, cfg.Market.Limit)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	content := `
app_id: kisan-app
server:
  addr: ":9000"
market:
  limit: 25
notify:
  kafka_topic: alerts
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("DATAGOVIN_API_KEY", "secret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "kisan-app", cfg.AppID)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 25, cfg.Market.Limit)
	assert.Equal(t, "secret", cfg.Market.APIKey)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Notify.KafkaBrokers)
	assert.Equal(t, "alerts", cfg.Notify.KafkaTopic)
	// untouched keys keep their defaults
	assert.Equal(t, "9ef84268-d588-465a-a308-a864a43d0070", cfg.Market.ResourceID)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
