package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Recorder captures the microphone to an audio file.
type Recorder struct {
	cfg Config
	log *zap.Logger

	mu   sync.Mutex
	proc *process
	path string
}

// NewRecorder creates a Recorder.
func NewRecorder(cfg Config, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{cfg: cfg, log: log.Named("recorder")}
}

func recordStream(cfg Config, path string) *ffmpeg.Stream {
	return ffmpeg.Input(cfg.AudioInputDevice, ffmpeg.KwArgs{"f": cfg.AudioInputFormat}).
		Output(path, ffmpeg.KwArgs{"c:a": cfg.AudioCodec, "b:a": cfg.AudioBitrate, "ac": "1"}).
		SetFfmpegPath(cfg.FFmpegPath)
}

// Start begins capturing to path, creating its directory.
func (r *Recorder) Start(ctx context.Context, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc != nil && r.proc.running() {
		return errors.New("already recording")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create recordings dir: %w", err)
	}

	proc, err := startProcess(ctx, "microphone", recordStream(r.cfg, path), r.cfg.StartupGrace)
	if err != nil {
		return err
	}
	if !proc.running() {
		return &DeviceError{Device: "microphone", Err: errors.New("capture ended immediately"), Output: proc.stderr.String()}
	}
	r.proc, r.path = proc, path
	r.log.Debug("recording started", zap.String("path", path))
	return nil
}

// Stop finalizes the capture and returns the written file.
func (r *Recorder) Stop() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == nil {
		return "", errors.New("not recording")
	}
	proc, path := r.proc, r.path
	r.proc, r.path = nil, ""

	if err := proc.stop(r.cfg.StopTimeout); err != nil {
		return "", fmt.Errorf("stop recording: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("recording not written: %w", err)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("recording %s is empty", path)
	}
	r.log.Debug("recording stopped", zap.String("path", path), zap.Int64("bytes", info.Size()))
	return path, nil
}

// Recording reports whether a capture is running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc != nil && r.proc.running()
}
