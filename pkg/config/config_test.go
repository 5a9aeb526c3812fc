package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ribasushi/go-fil-spid/pkg/config"
	"github.com/ribasushi/go-fil-spid/pkg/constants"
	"github.com/ribasushi/go-fil-spid/pkg/defs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fil-spid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("full file", func(t *testing.T) {
		// given:
		path := writeConfig(t, `
api_info: /ip4/127.0.0.1/tcp/1234/http
timeout: 7s
retry:
  max_attempts: 4
  max_elapsed: 30s
log:
  level: DEBUG
  handler: json
`)

		// when:
		cfg, err := config.Load(path)

		// then:
		require.NoError(t, err)
		assert.Equal(t, "/ip4/127.0.0.1/tcp/1234/http", cfg.APIInfo)
		assert.Equal(t, 7*time.Second, cfg.Timeout)
		assert.Equal(t, uint(4), cfg.Retry.MaxAttempts)
		assert.Equal(t, 30*time.Second, cfg.Retry.MaxElapsed)
		assert.Equal(t, defs.LogLevelDebug, cfg.Log.Level)
		assert.Equal(t, defs.JSONHandler, cfg.Log.Handler)
	})

	t.Run("partial file keeps defaults", func(t *testing.T) {
		// given:
		path := writeConfig(t, "retry:\n  max_attempts: 2\n")

		// when:
		cfg, err := config.Load(path)

		// then:
		require.NoError(t, err)
		assert.Equal(t, constants.DefaultRPCTimeout, cfg.Timeout)
		assert.Equal(t, defs.LogLevelWarn, cfg.Log.Level)
		assert.Equal(t, defs.TextHandler, cfg.Log.Handler)
		assert.Equal(t, uint(2), cfg.Retry.MaxAttempts)
	})

	t.Run("reject unknown log level", func(t *testing.T) {
		// given:
		path := writeConfig(t, "log:\n  level: chatty\n")

		// when:
		_, err := config.Load(path)

		// then:
		require.ErrorContains(t, err, "log.level")
	})

	t.Run("reject non positive timeout", func(t *testing.T) {
		// given:
		path := writeConfig(t, "timeout: 0s\n")

		// when:
		_, err := config.Load(path)

		// then:
		require.ErrorContains(t, err, "timeout")
	})

	t.Run("missing file", func(t *testing.T) {
		// when:
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))

		// then:
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}
