package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mockt.log")
	log, closer, err := New(Config{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)

	log.Named("interview").Debug("answer evaluated", zap.Int("score", 80))
	log.Info("second")
	require.NoError(t, log.Sync())
	require.NoError(t, closer.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var entry map[string]any
	require.NoError(t, json.Unmarshal(sc.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "interview", entry["logger"])
	assert.Equal(t, "answer evaluated", entry["msg"])
	assert.EqualValues(t, 80, entry["score"])
	assert.NotEmpty(t, entry["time"])
	assert.True(t, sc.Scan())
}

func TestNewRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockt.log")
	log, closer, err := New(Config{Level: "warn", File: path})
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, _, err := New(Config{Level: "chatty", File: filepath.Join(t.TempDir(), "x.log")})
	assert.Error(t, err)
}

func TestNewWithoutFileIsNop(t *testing.T) {
	log, closer, err := New(Config{})
	require.NoError(t, err)
	log.Error("dropped")
	assert.NoError(t, closer.Close())
}
