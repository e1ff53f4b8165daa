package media

import (
	"runtime"
	"time"
)

// Config selects the ffmpeg binary and the capture and playback devices.
type Config struct {
	FFmpegPath string `mapstructure:"ffmpeg_path"`

	AudioInputFormat string `mapstructure:"audio_input_format"`
	AudioInputDevice string `mapstructure:"audio_input_device"`

	VideoInputFormat string `mapstructure:"video_input_format"`
	VideoInputDevice string `mapstructure:"video_input_device"`

	// VideoOutputFormat is the ffmpeg output device that opens the
	// self-view window.
	VideoOutputFormat string `mapstructure:"video_output_format"`

	AudioOutputFormat string `mapstructure:"audio_output_format"`
	AudioOutputDevice string `mapstructure:"audio_output_device"`

	// AudioCodec and AudioBitrate encode voice answers.
	AudioCodec   string `mapstructure:"audio_codec"`
	AudioBitrate string `mapstructure:"audio_bitrate"`

	// StartupGrace is how long a device process must survive after start
	// before it counts as running.
	StartupGrace time.Duration `mapstructure:"startup_grace"`

	// StopTimeout bounds the wait for a process to exit after an
	// interrupt before it is killed.
	StopTimeout time.Duration `mapstructure:"stop_timeout"`
}

// DefaultConfig returns device settings for the current OS.
func DefaultConfig() Config {
	cfg := Config{
		FFmpegPath:        "ffmpeg",
		VideoOutputFormat: "sdl",
		AudioCodec:        "libopus",
		AudioBitrate:      "48k",
		StartupGrace:      300 * time.Millisecond,
		StopTimeout:       3 * time.Second,
	}
	switch runtime.GOOS {
	case "darwin":
		cfg.AudioInputFormat, cfg.AudioInputDevice = "avfoundation", ":0"
		cfg.VideoInputFormat, cfg.VideoInputDevice = "avfoundation", "0"
		cfg.AudioOutputFormat, cfg.AudioOutputDevice = "audiotoolbox", "-"
	case "windows":
		cfg.AudioInputFormat, cfg.AudioInputDevice = "dshow", "audio=default"
		cfg.VideoInputFormat, cfg.VideoInputDevice = "dshow", "video=default"
		cfg.AudioOutputFormat, cfg.AudioOutputDevice = "sdl", "mockt"
	default:
		cfg.AudioInputFormat, cfg.AudioInputDevice = "pulse", "default"
		cfg.VideoInputFormat, cfg.VideoInputDevice = "v4l2", "/dev/video0"
		cfg.AudioOutputFormat, cfg.AudioOutputDevice = "pulse", "mockt"
	}
	return cfg
}
