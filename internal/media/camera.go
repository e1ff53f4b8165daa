package media

import (
	"context"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// WindowTitle names the self-view window.
const WindowTitle = "mockt camera"

// Camera mirrors the video device into a window.
type Camera struct {
	cfg Config
	log *zap.Logger

	mu   sync.Mutex
	proc *process
}

// NewCamera creates a Camera.
func NewCamera(cfg Config, log *zap.Logger) *Camera {
	if log == nil {
		log = zap.NewNop()
	}
	return &Camera{cfg: cfg, log: log.Named("camera")}
}

func cameraStream(cfg Config) *ffmpeg.Stream {
	return ffmpeg.Input(cfg.VideoInputDevice, ffmpeg.KwArgs{"f": cfg.VideoInputFormat}).
		Output(WindowTitle, ffmpeg.KwArgs{"f": cfg.VideoOutputFormat, "pix_fmt": "yuv420p"}).
		SetFfmpegPath(cfg.FFmpegPath)
}

// Open starts the self-view. Opening an open camera does nothing.
func (c *Camera) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc != nil && c.proc.running() {
		return nil
	}
	proc, err := startProcess(ctx, "camera", cameraStream(c.cfg), c.cfg.StartupGrace)
	if err != nil {
		return err
	}
	c.proc = proc
	c.log.Debug("camera opened")
	return nil
}

// Close stops the self-view and releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.proc == nil {
		return nil
	}
	proc := c.proc
	c.proc = nil
	c.log.Debug("camera closed")
	return proc.stop(c.cfg.StopTimeout)
}

// Active reports whether the self-view is running. Closing the window
// ends the process and makes the camera inactive.
func (c *Camera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proc != nil && c.proc.running()
}
