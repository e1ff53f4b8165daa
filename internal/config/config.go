// Package config loads mockt settings from a YAML file, MOCKT_*
// environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/llm"
	"github.com/mockt/mockt/internal/logging"
	"github.com/mockt/mockt/internal/media"
	"github.com/mockt/mockt/internal/store"
	"github.com/mockt/mockt/internal/upload"
)

// Backend modes.
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

// Config is the complete application configuration.
type Config struct {
	Backend BackendConfig  `mapstructure:"backend"`
	Auth    auth.Config    `mapstructure:"auth"`
	Media   MediaConfig    `mapstructure:"media"`
	Storage StorageConfig  `mapstructure:"storage"`
	Upload  upload.Config  `mapstructure:"upload"`
	Log     logging.Config `mapstructure:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics"`
	LLM     llm.Config     `mapstructure:"llm"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`

	settings map[string]any
}

// BackendConfig selects the session service.
type BackendConfig struct {
	// Mode is "remote" for the HTTP service or "local" for the LLM coach.
	Mode           string `mapstructure:"mode"`
	backend.Config `mapstructure:",squash"`
}

// MediaConfig adds interview media settings to the device settings.
type MediaConfig struct {
	media.Config `mapstructure:",squash"`

	Enabled       bool     `mapstructure:"enabled"`
	RecordingsDir string   `mapstructure:"recordings_dir"`
	QuestionClips []string `mapstructure:"question_clips"`

	// ManualAdvance gates each next question behind an explicit action.
	ManualAdvance bool `mapstructure:"manual_advance"`
}

// StorageConfig locates the local database.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// MetricsConfig controls the request metrics textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Options locate the configuration sources.
type Options struct {
	// File is an explicit config file. When empty, config.yaml in Home()
	// is read if present.
	File string

	// EnvFile is loaded into the environment before reading. Existing
	// variables win. A missing file is ignored.
	EnvFile string
}

// Home returns the per-user config directory.
func Home() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mockt"), nil
}

// Load reads the configuration.
func Load(opts Options) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", opts.EnvFile, err)
		}
	}

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else if dir, err := Home(); err == nil {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.settings = v.AllSettings()

	if cfg.LLM.Provider == "" {
		if discovered, ok := llm.DiscoverConfig(); ok {
			p := discovered.Provider
			cfg.LLM.Provider = p
			cfg.LLM.SetAPIKey(p, firstNonEmpty(cfg.LLM.APIKey(p), discovered.APIKey(p)))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Backend.Mode {
	case ModeRemote:
		if c.Backend.BaseURL == "" {
			return errors.New("backend.base_url is required in remote mode")
		}
	case ModeLocal:
	default:
		return fmt.Errorf("backend.mode must be %q or %q, got %q", ModeRemote, ModeLocal, c.Backend.Mode)
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Storage.DBPath == "" {
		return errors.New("storage.db_path is required")
	}
	return nil
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("MOCKT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	dataHome, err := store.DataHome()
	if err != nil {
		return nil, err
	}
	for key, value := range defaults(dataHome) {
		v.SetDefault(key, value)
	}
	return v, nil
}

// defaults lists every key so that environment variables can override
// keys absent from the config file.
func defaults(dataHome string) map[string]any {
	be := backend.DefaultConfig()
	md := media.DefaultConfig()
	lc := llm.DefaultConfig()

	return map[string]any{
		"backend.mode":                ModeRemote,
		"backend.base_url":            be.BaseURL,
		"backend.audio_url":           "",
		"backend.timeout":             be.Timeout,
		"backend.requests_per_second": be.RequestsPerSecond,
		"backend.burst":               be.Burst,

		"auth.api_key":      "",
		"auth.identity_url": "",
		"auth.token_url":    "",
		"auth.timeout":      15 * time.Second,

		"media.enabled":             true,
		"media.recordings_dir":      filepath.Join(dataHome, "recordings"),
		"media.question_clips":      []string{},
		"media.manual_advance":      false,
		"media.ffmpeg_path":         md.FFmpegPath,
		"media.audio_input_format":  md.AudioInputFormat,
		"media.audio_input_device":  md.AudioInputDevice,
		"media.video_input_format":  md.VideoInputFormat,
		"media.video_input_device":  md.VideoInputDevice,
		"media.video_output_format": md.VideoOutputFormat,
		"media.audio_output_format": md.AudioOutputFormat,
		"media.audio_output_device": md.AudioOutputDevice,
		"media.audio_codec":         md.AudioCodec,
		"media.audio_bitrate":       md.AudioBitrate,
		"media.startup_grace":       md.StartupGrace,
		"media.stop_timeout":        md.StopTimeout,

		"storage.db_path": filepath.Join(dataHome, "mockt.db"),

		"upload.endpoint":   "",
		"upload.access_key": "",
		"upload.secret_key": "",
		"upload.bucket":     "",
		"upload.prefix":     "",
		"upload.region":     "",
		"upload.secure":     true,

		"log.level":        "info",
		"log.file":         filepath.Join(dataHome, "mockt.log"),
		"log.max_size_mb":  10,
		"log.max_backups":  3,
		"log.max_age_days": 28,
		"log.compress":     false,

		"metrics.textfile": "",

		"llm.provider":            "",
		"llm.timeout":             lc.Timeout,
		"llm.anthropic.api_key":   "",
		"llm.anthropic.model":     lc.Anthropic.Model,
		"llm.openai.api_key":      "",
		"llm.openai.model":        lc.OpenAI.Model,
		"llm.openai.base_url":     "",
		"llm.gemini.api_key":      "",
		"llm.gemini.model":        lc.Gemini.Model,
		"llm.openrouter.api_key":  "",
		"llm.openrouter.model":    lc.OpenRouter.Model,
		"llm.openrouter.base_url": "",
		"llm.retry.max_attempts":  lc.Retry.MaxAttempts,
		"llm.retry.initial_wait":  lc.Retry.InitialWait,
		"llm.retry.max_wait":      lc.Retry.MaxWait,
		"llm.retry.multiplier":    lc.Retry.Multiplier,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
