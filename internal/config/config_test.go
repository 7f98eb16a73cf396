package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_DefaultsAndOverrides(t *testing.T) {
	path := writeTempConfig(t, `
policy: index
entry_threshold_pct: 1.2
exit_threshold_pct: 0.4
signal_cooldown: 120
stream:
  retry_delay: 3s
  watchdog_silence: 45s
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, PolicyIndex, cfg.Policy)
	assert.Equal(t, 1.2, cfg.EntryThresholdPct)
	assert.Equal(t, 0.4, cfg.ExitThresholdPct)
	assert.Equal(t, 2*time.Minute, cfg.SignalCooldown.Duration())
	assert.Equal(t, 3*time.Second, cfg.Stream.RetryDelay.Duration())
	assert.Equal(t, 45*time.Second, cfg.Stream.WatchdogSilence.Duration())

	// Untouched fields keep their defaults.
	assert.Equal(t, "USDT", cfg.QuoteAsset)
	assert.Equal(t, 23*time.Hour, cfg.Stream.ForcedReconnect.Duration())
	assert.Equal(t, 60*time.Second, cfg.Stats.Interval.Duration())
	assert.Equal(t, 100, cfg.Database.BatchSize)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, `
discord:
  enabled: true
  channel_id: "123456"
`)
	t.Setenv("DISCORD_BOT_TOKEN", "secret-token")
	t.Setenv("DATABASE_URL", "postgres://localhost/spreads")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Discord.BotToken)
	assert.Equal(t, "postgres://localhost/spreads", cfg.Database.URL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_RejectsInvertedThresholds(t *testing.T) {
	path := writeTempConfig(t, `
entry_threshold_pct: 0.2
exit_threshold_pct: 0.5
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry_threshold_pct")
}

func TestLoadConfig_RejectsEqualThresholds(t *testing.T) {
	path := writeTempConfig(t, `
entry_threshold_pct: 0.3
exit_threshold_pct: 0.3
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_DiscordEnabledRequiresCredentials(t *testing.T) {
	path := writeTempConfig(t, `
discord:
  enabled: true
  channel_id: "123456"
`)
	t.Setenv("DISCORD_BOT_TOKEN", "")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_BOT_TOKEN")
}

func TestLoadConfig_UnknownPolicy(t *testing.T) {
	path := writeTempConfig(t, `
policy: magic
`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy")
}

func TestFlexDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		yaml     string
		expected time.Duration
		wantErr  bool
	}{
		{name: "duration string", yaml: `v: 90s`, expected: 90 * time.Second},
		{name: "hours string", yaml: `v: 23h`, expected: 23 * time.Hour},
		{name: "integer seconds", yaml: `v: 30`, expected: 30 * time.Second},
		{name: "float seconds", yaml: `v: 1.5`, expected: 1500 * time.Millisecond},
		{name: "garbage string", yaml: `v: soon`, wantErr: true},
		{name: "sequence", yaml: `v: [1, 2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				V FlexDuration `yaml:"v"`
			}
			err := yaml.Unmarshal([]byte(tt.yaml), &out)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.V.Duration())
		})
	}
}
