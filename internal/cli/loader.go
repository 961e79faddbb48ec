package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/rowlock/internal/config"
	"github.com/roach88/rowlock/internal/conflict"
	"github.com/roach88/rowlock/internal/locking"
	"github.com/roach88/rowlock/internal/store"
)

// loadConfig reads --config (or defaults) and applies flag overrides.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.Config != "" {
		loaded, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger builds the process logger on the command's error stream and
// installs it as the slog default.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := cfg.NewLogger(w)
	slog.SetDefault(logger)
	return logger
}

// openStore opens the configured database.
func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.OpenConfig(cfg.StoreConfig())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// controllers wires the locking controllers. The conflict injector is
// attached only when the config allows forced conflicts.
func controllers(cfg *config.Config, st *store.Store, logger *slog.Logger) *locking.Set {
	opts := []locking.Option{locking.WithLogger(logger)}
	if cfg.ForceConflictAllowed() {
		inj := conflict.New(st.DB(),
			conflict.WithAssignee(cfg.Demo.InjectedAssignee),
			conflict.WithLogger(logger),
		)
		opts = append(opts, locking.WithInjector(inj))
	}
	return locking.NewSet(st, opts...)
}

// session is the state every database-backed command needs.
type session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
}

func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("database ready", "path", cfg.Database.Path)
	return &session{cfg: cfg, logger: logger, store: st}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", "error", err)
	}
}
