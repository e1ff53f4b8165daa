package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mockt/mockt/internal/auth"
	"github.com/mockt/mockt/internal/config"
	"github.com/mockt/mockt/internal/logging"
	"github.com/mockt/mockt/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "mockt",
	Short: "Mock interviews in your terminal",
	Long:  "mockt: practice job interviews with generated questions, scored answers and instant feedback.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/mockt/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file loaded before the config")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides storage.db_path)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the configuration named by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.Options{File: file, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Storage.DBPath = p
	}
	return cfg, nil
}

// env holds what every command needs: configuration, the logger and the
// local store.
type env struct {
	cfg   *config.Config
	log   *zap.Logger
	store *store.Store

	logFile io.Closer
}

// openEnv loads the configuration and opens the logger and store.
func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.Log.File != "" {
		if err := store.EnsureDir(cfg.Log.File); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	log, logFile, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	if err := store.EnsureDir(cfg.Storage.DBPath); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	st, err := store.Open(cfg.Storage.DBPath)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &env{cfg: cfg, log: log, store: st, logFile: logFile}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close store", zap.Error(err))
	}
	_ = e.log.Sync()
	e.logFile.Close()
}

// identity returns the identity client, or nil when no API key is
// configured.
func (e *env) identity() (*auth.Client, error) {
	if e.cfg.Auth.APIKey == "" {
		return nil, nil
	}
	return auth.NewClient(e.cfg.Auth, e.store.CredentialRepo(), e.log)
}

// requireIdentity is identity for commands that cannot work without one.
func (e *env) requireIdentity() (*auth.Client, error) {
	c, err := e.identity()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.New("sign-in is not configured: set auth.api_key or MOCKT_AUTH_API_KEY")
	}
	return c, nil
}
