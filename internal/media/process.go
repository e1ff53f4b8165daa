package media

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

func init() {
	// The TUI owns stdout.
	ffmpeg.LogCompiledCommand = false
}

const stderrTail = 2048

// globalFlags lead every command line. ffmpeg-go only appends global args
// after the outputs, so they are prepended here instead.
var globalFlags = []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-y"}

// commandArgs returns the full ffmpeg argument list for stream.
func commandArgs(stream *ffmpeg.Stream) []string {
	return append(slices.Clone(globalFlags), stream.GetArgs()...)
}

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - stderrTail; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

// process is a running ffmpeg command.
type process struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
	done   chan struct{}
	err    error // set before done is closed
}

// startProcess starts stream and waits up to grace for an early exit. A
// process that fails within the grace period is reported as a
// DeviceError; one that exits cleanly has simply finished.
func startProcess(ctx context.Context, device string, stream *ffmpeg.Stream, grace time.Duration) (*process, error) {
	cmd := stream.Compile()
	cmd.Args = append(cmd.Args[:1:1], commandArgs(stream)...)
	p := &process{cmd: cmd, stderr: &tailBuffer{}, done: make(chan struct{})}
	cmd.Stdout = nil
	cmd.Stderr = p.stderr

	if err := cmd.Start(); err != nil {
		return nil, &DeviceError{Device: device, Err: err}
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	if grace <= 0 {
		return p, nil
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-p.done:
		if p.err != nil {
			return nil, &DeviceError{Device: device, Err: p.err, Output: p.stderr.String()}
		}
		return p, nil
	case <-timer.C:
		return p, nil
	case <-ctx.Done():
		p.kill()
		return nil, ctx.Err()
	}
}

func (p *process) running() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// stop interrupts the process so ffmpeg can finalize its output, and
// kills it if it has not exited within timeout.
func (p *process) stop(timeout time.Duration) error {
	if !p.running() {
		return p.exitErr()
	}
	if err := p.cmd.Process.Signal(os.Interrupt); err != nil {
		p.kill()
		return nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return p.exitErr()
	case <-timer.C:
		p.kill()
		return errors.New("ffmpeg did not exit after interrupt")
	}
}

func (p *process) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.done
}

// exitErr ignores the exit status ffmpeg reports after an interrupt.
func (p *process) exitErr() error {
	var exitErr *exec.ExitError
	if errors.As(p.err, &exitErr) {
		return nil
	}
	return p.err
}
