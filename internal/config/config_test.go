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

// isolate points every lookup at temp dirs and clears provider keys.
func isolate(t *testing.T) (configHome, dataHome string) {
	t.Helper()
	configHome, dataHome = t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_DATA_HOME", dataHome)
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	return configHome, dataHome
}

func TestLoadDefaults(t *testing.T) {
	_, dataHome := isolate(t)

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, ModeRemote, cfg.Backend.Mode)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, filepath.Join(dataHome, "mockt", "mockt.db"), cfg.Storage.DBPath)
	assert.Equal(t, filepath.Join(dataHome, "mockt", "recordings"), cfg.Media.RecordingsDir)
	assert.Equal(t, "ffmpeg", cfg.Media.FFmpegPath)
	assert.Equal(t, 3*time.Second, cfg.Media.StopTimeout)
	assert.True(t, cfg.Media.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Empty(t, cfg.LLM.Provider)
	assert.Empty(t, cfg.File)
}

func TestLoadFileAndEnv(t *testing.T) {
	configHome, _ := isolate(t)
	dir := filepath.Join(configHome, "mockt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(`
backend:
  mode: local
  timeout: 5s
media:
  manual_advance: true
  question_clips:
    - https://cdn.example.com/q1.mp3
    - https://cdn.example.com/q2.mp3
  audio_input_device: hw:1
upload:
  endpoint: s3.example.com
  bucket: answers
  secret_key: from-file
llm:
  provider: openai
  openai:
    model: gpt-4o
`), 0o644))

	t.Setenv("MOCKT_LLM_OPENAI_API_KEY", "sk-env")
	t.Setenv("MOCKT_UPLOAD_SECRET_KEY", "from-env")

	cfg, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.File)
	assert.Equal(t, ModeLocal, cfg.Backend.Mode)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Media.ManualAdvance)
	assert.Equal(t, []string{"https://cdn.example.com/q1.mp3", "https://cdn.example.com/q2.mp3"}, cfg.Media.QuestionClips)
	assert.Equal(t, "hw:1", cfg.Media.AudioInputDevice)
	assert.True(t, cfg.Upload.Enabled())
	assert.Equal(t, "from-env", cfg.Upload.SecretKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.OpenAI.Model)
	assert.Equal(t, "sk-env", cfg.LLM.OpenAI.APIKey)
	assert.NoError(t, cfg.LLM.Validate())

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "sk-env")
	assert.NotContains(t, string(out), "from-env")
	assert.Contains(t, string(out), redacted)
}

func TestLoadEnvFile(t *testing.T) {
	isolate(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MOCKT_BACKEND_BASE_URL=https://api.example.com\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MOCKT_BACKEND_BASE_URL") })

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)

	_, err = Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.NoError(t, err)
}

func TestLoadDiscoversLLMKey(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-discovered")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-discovered", cfg.LLM.OpenAI.APIKey)
}

func TestLoadErrors(t *testing.T) {
	isolate(t)

	_, err := Load(Options{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.ErrorContains(t, err, "read config")

	t.Setenv("MOCKT_BACKEND_MODE", "carrier-pigeon")
	_, err = Load(Options{})
	assert.ErrorContains(t, err, "backend.mode")
}

func TestWriteDefault(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "mockt", "config.yaml")
	require.NoError(t, WriteDefault(path))
	assert.Error(t, WriteDefault(path), "existing files are not overwritten")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	be, ok := parsed["backend"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "remote", be["mode"])
	assert.Equal(t, "1m0s", be["timeout"])

	cfg, err := Load(Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Backend.Timeout)
}
