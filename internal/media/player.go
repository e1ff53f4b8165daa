package media

import (
	"context"
	"fmt"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

// Player plays clips to the audio output. Every playback has an ID that
// is delivered on Ended when it finishes, whether it ran to the end or
// was stopped.
type Player struct {
	cfg Config
	log *zap.Logger

	mu     sync.Mutex
	next   int64
	procs  map[int64]*process
	ended  chan int64
	closed bool
}

// NewPlayer creates a Player.
func NewPlayer(cfg Config, log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	return &Player{
		cfg:   cfg,
		log:   log.Named("player"),
		procs: make(map[int64]*process),
		ended: make(chan int64, 16),
	}
}

func playStream(cfg Config, src string) *ffmpeg.Stream {
	return ffmpeg.Input(src).
		Output(cfg.AudioOutputDevice, ffmpeg.KwArgs{"f": cfg.AudioOutputFormat}).
		SetFfmpegPath(cfg.FFmpegPath)
}

// Ended delivers the IDs of finished playbacks.
func (p *Player) Ended() <-chan int64 { return p.ended }

// Play starts src, a file path or URL, and returns its playback ID.
func (p *Player) Play(ctx context.Context, src string) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, fmt.Errorf("player closed")
	}

	proc, err := startProcess(ctx, "speaker", playStream(p.cfg, src), p.cfg.StartupGrace)
	if err != nil {
		return 0, err
	}
	p.next++
	id := p.next
	p.procs[id] = proc
	p.log.Debug("playback started", zap.Int64("id", id), zap.String("src", src))

	go func() {
		<-proc.done
		p.mu.Lock()
		delete(p.procs, id)
		closed := p.closed
		p.mu.Unlock()
		if closed {
			return
		}
		select {
		case p.ended <- id:
		default:
			p.log.Warn("dropping playback ended event", zap.Int64("id", id))
		}
	}()
	return id, nil
}

// Stop ends playback id. Unknown or finished IDs are ignored.
func (p *Player) Stop(id int64) error {
	p.mu.Lock()
	proc, ok := p.procs[id]
	p.mu.Unlock()
	if !ok {
		return nil
	}
	return proc.stop(p.cfg.StopTimeout)
}

// StopAll ends every playback.
func (p *Player) StopAll() {
	p.mu.Lock()
	procs := make([]*process, 0, len(p.procs))
	for _, proc := range p.procs {
		procs = append(procs, proc)
	}
	p.mu.Unlock()
	for _, proc := range procs {
		_ = proc.stop(p.cfg.StopTimeout)
	}
}

// Close stops all playback. No ended events are delivered afterwards.
func (p *Player) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.StopAll()
}
