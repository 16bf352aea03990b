package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nglaszik/docwatch/internal/diff"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "test_", cfg.TablePrefix)
	assert.Equal(t, "word", cfg.Diff.Unit)
	assert.Equal(t, diff.DefaultMaxTokens, cfg.Diff.MaxTokens)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Debug)
	assert.Equal(t, diff.UnitWord, cfg.DiffOptions().Unit)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docwatch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
diff:
  unit: char
  max_tokens: 1000
retry:
  max_attempts: 5
  initial_interval: 10ms
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DIFF_MAX_TOKENS", "2000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "char", cfg.Diff.Unit)
	assert.Equal(t, 2000, cfg.Diff.MaxTokens, "environment wins over the file")
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, cfg.Retry.InitialInterval)
	assert.Equal(t, diff.DefaultMaxEditDistance, cfg.Diff.MaxEditDistance, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown unit", "DIFF_UNIT", "line"},
		{"non-numeric", "DIFF_MAX_TOKENS", "many"},
		{"too many retries", "RETRY_MAX_ATTEMPTS", "50"},
		{"bad duration", "RETRY_INITIAL_INTERVAL", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestTablePrefix(t *testing.T) {
	assert.Equal(t, "prod_", getTablePrefix("prod"))
	assert.Equal(t, "dev_", getTablePrefix("staging"))

	t.Setenv("TABLE_PREFIX", "")
	assert.Equal(t, "", getTablePrefix("prod"), "an explicit empty prefix is honoured")
}

func TestNewLogger_WritesFileAndRotates(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{LogDir: dir, LogMaxFiles: 2}

	for i := 0; i < 4; i++ {
		var stdout bytes.Buffer
		logger, closeFn, err := NewLogger(cfg, "docwatch", &stdout)
		require.NoError(t, err)
		logger.Info("hello", "i", i)
		closeFn()
		assert.Contains(t, stdout.String(), `"msg":"hello"`)
		time.Sleep(5 * time.Millisecond)
	}

	files, err := filepath.Glob(filepath.Join(dir, "docwatch-*.log"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
