package media

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linuxConfig() Config {
	cfg := DefaultConfig()
	cfg.AudioInputFormat, cfg.AudioInputDevice = "pulse", "default"
	cfg.VideoInputFormat, cfg.VideoInputDevice = "v4l2", "/dev/video0"
	cfg.AudioOutputFormat, cfg.AudioOutputDevice = "pulse", "mockt"
	return cfg
}

// containsSeq reports whether want appears contiguously in args.
func containsSeq(args, want []string) bool {
	for i := 0; i+len(want) <= len(args); i++ {
		if slices.Equal(args[i:i+len(want)], want) {
			return true
		}
	}
	return false
}

// leadsWithGlobalFlags reports whether the global flags come before any
// input or output argument.
func leadsWithGlobalFlags(args []string) bool {
	return len(args) > len(globalFlags) && slices.Equal(args[:len(globalFlags)], globalFlags)
}

func TestRecordStreamArgs(t *testing.T) {
	args := commandArgs(recordStream(linuxConfig(), "/tmp/rec/q1.ogg"))

	assert.True(t, leadsWithGlobalFlags(args), "%v", args)
	assert.True(t, containsSeq(args, []string{"-f", "pulse", "-i", "default"}), "%v", args)
	assert.True(t, containsSeq(args, []string{"-c:a", "libopus"}), "%v", args)
	assert.True(t, containsSeq(args, []string{"-b:a", "48k"}), "%v", args)
	assert.True(t, containsSeq(args, []string{"-ac", "1"}), "%v", args)
	assert.Equal(t, "/tmp/rec/q1.ogg", args[len(args)-1], "the output path ends the command")
	assert.Less(t, slices.Index(args, "-y"), slices.Index(args, "/tmp/rec/q1.ogg"))
	assert.Equal(t, 1, countOf(args, "-y"))
}

func TestCameraStreamArgs(t *testing.T) {
	args := commandArgs(cameraStream(linuxConfig()))

	assert.True(t, leadsWithGlobalFlags(args), "%v", args)
	assert.True(t, containsSeq(args, []string{"-f", "v4l2", "-i", "/dev/video0"}), "%v", args)
	assert.True(t, containsSeq(args, []string{"-f", "sdl"}), "%v", args)
	assert.Equal(t, WindowTitle, args[len(args)-1])
}

func TestPlayStreamArgs(t *testing.T) {
	args := commandArgs(playStream(linuxConfig(), "https://cdn.example.com/q1.mp3"))

	assert.True(t, leadsWithGlobalFlags(args), "%v", args)
	assert.True(t, containsSeq(args, []string{"-i", "https://cdn.example.com/q1.mp3"}), "%v", args)
	assert.True(t, containsSeq(args, []string{"-f", "pulse", "mockt"}), "%v", args)
}

func countOf(args []string, want string) int {
	n := 0
	for _, a := range args {
		if a == want {
			n++
		}
	}
	return n
}

func TestStartProcessPassesGlobalFlagsFirst(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	dir := t.TempDir()
	argv := filepath.Join(dir, "argv")
	bin := filepath.Join(dir, "ffmpeg")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > '" + argv + "'\n"
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))

	cfg := linuxConfig()
	cfg.FFmpegPath = bin
	out := filepath.Join(dir, "q1.ogg")
	require.NoError(t, os.WriteFile(out, []byte("old take"), 0o644))

	p, err := startProcess(context.Background(), "microphone", recordStream(cfg, out), 0)
	require.NoError(t, err)
	select {
	case <-p.done:
	case <-time.After(5 * time.Second):
		p.kill()
		t.Fatal("stub ffmpeg did not exit")
	}
	require.NoError(t, p.err)

	data, err := os.ReadFile(argv)
	require.NoError(t, err)
	got := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, commandArgs(recordStream(cfg, out)), got)
	assert.True(t, leadsWithGlobalFlags(got), "%v", got)
}

func TestDefaultConfigHasDevices(t *testing.T) {
	cfg := DefaultConfig()
	assert.NotEmpty(t, cfg.AudioInputFormat)
	assert.NotEmpty(t, cfg.AudioInputDevice)
	assert.NotEmpty(t, cfg.VideoInputFormat)
	assert.NotEmpty(t, cfg.AudioOutputFormat)
	assert.Positive(t, cfg.StopTimeout)
}

func TestDeviceError(t *testing.T) {
	cause := exec.ErrNotFound
	err := error(&DeviceError{Device: "microphone", Err: cause, Output: "Permission denied"})

	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.Contains(t, err.Error(), "microphone unavailable")
	assert.Contains(t, err.Error(), "Permission denied")

	var de *DeviceError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "microphone", de.Device)
}

func TestMissingBinaryIsDeviceError(t *testing.T) {
	cfg := linuxConfig()
	cfg.FFmpegPath = filepath.Join(t.TempDir(), "no-such-ffmpeg")

	rec := NewRecorder(cfg, nil)
	err := rec.Start(context.Background(), filepath.Join(t.TempDir(), "s", "q1.ogg"))
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.False(t, rec.Recording())

	_, err = rec.Stop()
	assert.Error(t, err)

	cam := NewCamera(cfg, nil)
	assert.ErrorIs(t, cam.Open(context.Background()), ErrDeviceUnavailable)
	assert.False(t, cam.Active())
	assert.NoError(t, cam.Close())

	player := NewPlayer(cfg, nil)
	_, err = player.Play(context.Background(), "clip.mp3")
	assert.ErrorIs(t, err, ErrDeviceUnavailable)
	assert.NoError(t, player.Stop(42))
	player.Close()
	_, err = player.Play(context.Background(), "clip.mp3")
	assert.Error(t, err)
}

func TestParseProbeDuration(t *testing.T) {
	d, err := parseProbeDuration(`{"streams":[],"format":{"duration":"12.500000","format_name":"ogg"}}`)
	require.NoError(t, err)
	assert.Equal(t, 12500*time.Millisecond, d)

	_, err = parseProbeDuration(`{"format":{}}`)
	assert.Error(t, err)
	_, err = parseProbeDuration(`not json`)
	assert.Error(t, err)
}

func TestTailBufferKeepsEnd(t *testing.T) {
	var b tailBuffer
	for i := 0; i < 100; i++ {
		b.Write([]byte("0123456789abcdefghij0123456789abcdefghij\n"))
	}
	b.Write([]byte("final error line"))
	assert.LessOrEqual(t, len(b.String()), stderrTail)
	assert.Contains(t, b.String(), "final error line")
}
