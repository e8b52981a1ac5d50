package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/prefs/internal/config"
	"github.com/roach88/prefs/internal/logging"
	"github.com/roach88/prefs/internal/store"
)

// session is the per-invocation state shared by commands that touch the
// store: resolved config, logger, open store and output formatter.
type session struct {
	cfg     config.Config
	store   store.Store
	out     *OutputFormatter
	closers []io.Closer
}

// openSession loads config, installs the logger and opens the configured
// store. The store also becomes store.Default for the invocation.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	s := &session{
		cfg: cfg,
		out: &OutputFormatter{
			Format:  opts.Format,
			Writer:  cmd.OutOrStdout(),
			Verbose: opts.Verbose,
		},
	}

	logOpts := logging.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	}
	if opts.Verbose {
		logOpts.Level = "debug"
	}
	logger, logCloser, err := logging.New(logOpts, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	slog.SetDefault(logger)
	s.closers = append(s.closers, logCloser)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, closer, err := openStore(ctx, cfg.Store)
	if err != nil {
		s.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}
	s.store = st
	store.SetDefault(st)

	slog.Debug("store ready", "backend", cfg.Store.Backend, "path", cfg.Store.Path)
	return s, nil
}

// Close releases the store and the log file in reverse order of opening.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// lister returns the store as a Lister, or an error for backends that
// cannot enumerate keys.
func (s *session) lister() (store.Lister, error) {
	l, ok := s.store.(store.Lister)
	if !ok {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("backend %q cannot list keys", s.cfg.Store.Backend))
	}
	return l, nil
}

// fail reports an error as a JSON error response when --format json is set
// and returns it as an ExitError. Text mode leaves printing to main.
func (s *session) fail(exitCode int, code, message string, err error) error {
	if s.out.Format == "json" {
		var details any
		if err != nil {
			details = err.Error()
		}
		_ = s.out.Error(code, message, details)
	}
	if err == nil {
		return NewExitError(exitCode, message)
	}
	return WrapExitError(exitCode, message, err)
}

func loadConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, error) {
	loadOpts := config.LoadOptions{
		ConfigPath: opts.ConfigPath,
		DotEnvPath: opts.DotEnvPath,
		Env:        opts.Env,
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		loadOpts.Flags.Backend = &opts.Backend
	}
	if flags.Changed("store") {
		loadOpts.Flags.StorePath = &opts.StorePath
	}
	if flags.Changed("log-level") {
		loadOpts.Flags.LogLevel = &opts.LogLevel
	}
	return config.Load(loadOpts)
}

// openStore opens the backend named by cfg. The closer is nil for backends
// that hold no resources.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemory(), nil, nil

	case config.BackendSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		st, err := store.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, st, nil

	case config.BackendFile:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, nil, err
		}
		st, err := store.OpenFile(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil

	case config.BackendDynamo:
		client, err := store.NewDynamoClient(ctx, store.DynamoConfig{
			Region:    cfg.Dynamo.Region,
			Endpoint:  cfg.Dynamo.Endpoint,
			AccessKey: cfg.Dynamo.AccessKey,
			SecretKey: cfg.Dynamo.SecretKey,
		})
		if err != nil {
			return nil, nil, err
		}
		st, err := store.NewDynamo(client, cfg.Dynamo.Table)
		if err != nil {
			return nil, nil, err
		}
		return st, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create store directory %q: %w", dir, err)
	}
	return nil
}

// withSession runs fn against an open session and closes it afterwards.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(*session) error) (err error) {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			slog.Error("error closing store", "error", closeErr)
			if err == nil {
				err = WrapExitError(ExitCommandError, "failed to close store", closeErr)
			}
		}
	}()
	return fn(s)
}
