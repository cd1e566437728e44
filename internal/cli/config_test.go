package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "marionette.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8910", cfg.Listen.WS)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoadConfig_ParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marionette.yaml")
	content := `
game: Tic Tac Toe
compact_numbers: true
strict_force: true
log_level: debug
listen:
  ws: ":9000"
transcript:
  backend: redis
  redis:
    addr: localhost:6379
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Tic Tac Toe", cfg.Game)
	assert.True(t, cfg.CompactNumbers)
	assert.True(t, cfg.StrictForce)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, ":9000", cfg.Listen.WS)
	// Unset keys keep their defaults.
	assert.Equal(t, ":8911", cfg.Listen.API)
	assert.Equal(t, "redis", cfg.Transcript.Backend)
	assert.Len(t, cfg.SessionOptions(), 3)
}

func TestLoadConfig_RejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marionette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: ["), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestTranscriptStore(t *testing.T) {
	var cfg Config
	store, err := cfg.TranscriptStore()
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.Transcript.Backend = "memory"
	store, err = cfg.TranscriptStore()
	require.NoError(t, err)
	assert.NotNil(t, store)

	cfg.Transcript.Backend = "sqlite"
	_, err = cfg.TranscriptStore()
	require.Error(t, err)
}
