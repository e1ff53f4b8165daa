package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/app"
	"github.com/mockt/mockt/internal/backend"
	"github.com/mockt/mockt/internal/coach"
	"github.com/mockt/mockt/internal/config"
	"github.com/mockt/mockt/internal/llm"
	"github.com/mockt/mockt/internal/media"
	"github.com/mockt/mockt/internal/screen"
	"github.com/mockt/mockt/internal/upload"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	cfg := e.cfg

	exportDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working dir: %w", err)
	}
	svc := &screen.Services{
		Sessions:      e.store.SessionRepo(),
		Progress:      e.store.ProgressRepo(),
		Recordings:    e.store.RecordingRepo(),
		Events:        e.store.EventRepo(),
		ManualAdvance: cfg.Media.ManualAdvance,
		QuestionClips: cfg.Media.QuestionClips,
		RecordingsDir: cfg.Media.RecordingsDir,
		ExportDir:     exportDir,
		Logger:        e.log,
	}

	identity, err := e.identity()
	if err != nil {
		return err
	}
	if identity != nil {
		svc.Identity = identity
	}

	metrics := backend.NewMetrics()
	switch cfg.Backend.Mode {
	case config.ModeRemote:
		if identity == nil {
			return errors.New("the remote backend needs sign-in: set auth.api_key, or backend.mode=local to practice offline")
		}
		client, err := backend.NewClient(cfg.Backend.Config, identity, metrics, e.log)
		if err != nil {
			return err
		}
		svc.Backend = client
		if cfg.Backend.AudioURL != "" {
			svc.Speech = client
		}
	case config.ModeLocal:
		provider, err := llm.NewProvider(ctx, cfg.LLM, e.store.EventRepo(), e.log)
		if err != nil {
			return fmt.Errorf("local mode needs an LLM provider: %w", err)
		}
		svc.Backend = coach.New(provider, e.store.SessionRepo(), coach.DefaultConfig(), e.log)
	}

	if cfg.Media.Enabled {
		player := media.NewPlayer(cfg.Media.Config, e.log)
		defer player.Close()
		svc.Recorder = media.NewRecorder(cfg.Media.Config, e.log)
		svc.Camera = media.NewCamera(cfg.Media.Config, e.log)
		svc.Player = player
		svc.Probe = media.Probe
	}

	if cfg.Upload.Enabled() {
		up, err := upload.New(cfg.Upload, e.log)
		if err != nil {
			return fmt.Errorf("configure upload: %w", err)
		}
		if err := up.CheckBucket(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "Recording upload disabled:", err)
			e.log.Warn("upload bucket check failed", zap.Error(err))
		} else {
			svc.Uploader = up
		}
	}

	runErr := app.Run(svc)

	if path := cfg.Metrics.Textfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			e.log.Warn("write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	return runErr
}
