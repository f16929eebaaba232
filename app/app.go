// Package app holds the command implementations of the hamster command line
// client. Each command loads the configuration, opens the fact store, runs
// against the store through narrow interfaces and renders the result.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gffbss/hamster-cli/config"
	"github.com/gffbss/hamster-cli/db"
	"github.com/gffbss/hamster-cli/internal/mounts"
)

// App is the central orchestrator for the client's commands.
type App struct {
	out               io.Writer
	errOut            io.Writer
	now               func() time.Time
	defaultConfigPath string
}

// New creates and returns a new App writing to stdout and stderr.
func New() *App {
	return &App{
		out:               os.Stdout,
		errOut:            os.Stderr,
		now:               time.Now,
		defaultConfigPath: config.DefaultPath(),
	}
}

// session is the configuration, loggers and store used by a single command.
type session struct {
	cfg     *config.Config
	store   *db.DB
	sqlFS   *mounts.FileMount
	logs    *loggers
	logger  *slog.Logger
	dbPath  string
	closers []func() error
}

// Close closes the store and the log file.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// loadConfig loads the configuration at cfgPath. A missing configuration at the
// default location is created first; elsewhere it is an error.
func (a *App) loadConfig(cfgPath string) (*config.Config, error) {
	if cfgPath == a.defaultConfigPath {
		if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
			if err := config.WriteDefault(cfgPath); err != nil {
				return nil, err
			}
			fmt.Fprintf(a.errOut, "Created default configuration at %s\n", cfgPath)
		}
	}
	return config.Load(cfgPath)
}

// open loads the configuration and opens the fact store for a command.
func (a *App) open(cfgPath string) (*session, error) {
	cfg, err := a.loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	logs, err := newLoggers(cfg.Client, a.errOut)
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg:     cfg,
		logs:    logs,
		logger:  logs.client,
		dbPath:  cfg.Backend.DBPath,
		closers: []func() error{logs.Close},
	}

	s.sqlFS, err = mounts.NewFileMount("sql", db.SQLEmbeddedFS, cfg.Backend.SQLPath)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not mount sql fs: %w", err)
	}

	s.store, err = db.NewConnection(cfg.Backend.DBPath, s.sqlFS, logs.lib)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("database setup error: %w", err)
	}
	s.store.SetFactMinDelta(cfg.Backend.FactMinDelta)
	s.closers = append(s.closers, s.store.Close)

	s.logger.Debug("session opened", "config", cfg.Path(), "db", cfg.Backend.DBPath, "sql", s.sqlFS.Source())
	return s, nil
}

// run opens a session, runs fn and closes the session.
func (a *App) run(cfgPath string, fn func(s *session) error) (err error) {
	s, err := a.open(cfgPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if err := fn(s); err != nil {
		s.logger.Warn("command failed", "error", err)
		return err
	}
	return nil
}

// Start saves a new fact from raw, with start and end overriding any time range
// in raw when they are not empty.
func (a *App) Start(ctx context.Context, cfgPath, raw, start, end string) error {
	return a.run(cfgPath, func(s *session) error {
		now := a.now()
		f, err := startFact(ctx, s.store, raw, start, end, now)
		if err != nil {
			return err
		}
		s.logger.Info("fact started", "id", f.ID, "raw", raw)
		verb := "Started"
		if f.End != nil {
			verb = "Added"
		}
		_, err = fmt.Fprintf(a.out, "%s %s\n", verb, factLine(f, s.cfg.Client.UnsortedLocalized, now))
		return err
	})
}

// Stop closes the ongoing fact at the current time.
func (a *App) Stop(ctx context.Context, cfgPath string) error {
	return a.run(cfgPath, func(s *session) error {
		now := a.now()
		f, err := stopFact(ctx, s.store, now)
		if err != nil {
			return fmt.Errorf("unable to stop: %w", err)
		}
		_, err = fmt.Fprintf(a.out, "Stopped %s\n", factLine(f, s.cfg.Client.UnsortedLocalized, now))
		return err
	})
}

// Cancel deletes the ongoing fact.
func (a *App) Cancel(ctx context.Context, cfgPath string) error {
	return a.run(cfgPath, func(s *session) error {
		f, err := cancelFact(ctx, s.store)
		if err != nil {
			return fmt.Errorf("unable to cancel: %w", err)
		}
		_, err = fmt.Fprintf(a.out, "Ongoing fact %s@%s canceled.\n", f.Activity, categoryName(f.Category, s.cfg.Client.UnsortedLocalized))
		return err
	})
}

// showCurrent writes the ongoing fact.
func (a *App) showCurrent(ctx context.Context, s *session) error {
	now := a.now()
	f, err := currentFact(ctx, s.store)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, factLine(f, s.cfg.Client.UnsortedLocalized, now))
	return err
}

// Current shows the ongoing fact. With watch set, the fact is shown again after
// each write to the database until ctx is done.
func (a *App) Current(ctx context.Context, cfgPath string, watch bool) error {
	return a.run(cfgPath, func(s *session) error {
		if !watch {
			return a.showCurrent(ctx, s)
		}

		w, err := newDBWatcher(s.dbPath)
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return w.Watch(ctx)
		})
		g.Go(func() error {
			show := func() error {
				err := a.showCurrent(ctx, s)
				if errors.Is(err, ErrNothingTracked) {
					_, err = fmt.Fprintln(a.out, ErrNothingTracked.Error())
				}
				return err
			}
			if err := show(); err != nil {
				return err
			}
			for range w.Update() {
				s.logger.Debug("database write")
				if err := show(); err != nil {
					return err
				}
			}
			return nil
		})
		err = g.Wait()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
}

// Search lists the facts whose activity, category or description contain term
// within timeRange, which may be empty.
func (a *App) Search(ctx context.Context, cfgPath, term, timeRange string) error {
	return a.run(cfgPath, func(s *session) error {
		now := a.now()
		facts, err := searchFacts(ctx, s.store, term, timeRange, s.cfg.Backend.DayStart, now)
		if err != nil {
			return err
		}
		s.logger.Debug("search", "term", term, "time", timeRange, "results", len(facts))
		return renderFacts(a.out, facts, s.cfg.Client.UnsortedLocalized, now)
	})
}

// List lists the facts within timeRange, by default the current day.
func (a *App) List(ctx context.Context, cfgPath, timeRange string) error {
	return a.run(cfgPath, func(s *session) error {
		now := a.now()
		facts, tf, err := listFacts(ctx, s.store, timeRange, s.cfg.Backend.DayStart, now)
		if err != nil {
			return err
		}
		s.logger.Debug("list", "timeframe", tf.String(), "results", len(facts))
		return renderFacts(a.out, facts, s.cfg.Client.UnsortedLocalized, now)
	})
}

// Activities lists the activities containing term, or all activities.
func (a *App) Activities(ctx context.Context, cfgPath, term string) error {
	return a.run(cfgPath, func(s *session) error {
		activities, err := listActivities(ctx, s.store, term)
		if err != nil {
			return err
		}
		return renderActivities(a.out, activities, s.cfg.Client.UnsortedLocalized)
	})
}

// Categories lists the categories containing term, or all categories.
func (a *App) Categories(ctx context.Context, cfgPath, term string) error {
	return a.run(cfgPath, func(s *session) error {
		categories, err := listCategories(ctx, s.store, term)
		if err != nil {
			return err
		}
		return renderCategories(a.out, categories)
	})
}

// Details shows the configuration and storage in use.
func (a *App) Details(ctx context.Context, cfgPath string) error {
	return a.run(cfgPath, func(s *session) error {
		logFile := "off"
		if s.cfg.Client.LogFile {
			logFile = s.cfg.Client.LogFilename
		}
		return renderDetails(a.out, [][2]string{
			{"config", s.cfg.Path()},
			{"database", s.cfg.Backend.DBPath},
			{"sql files", s.sqlFS.Source()},
			{"day start", s.cfg.Backend.DayStartStr},
			{"fact min delta", s.cfg.Backend.FactMinDelta.String()},
			{"log level", s.cfg.Client.LogLevel.String()},
			{"log console", strconv.FormatBool(s.cfg.Client.LogConsole)},
			{"log file", logFile},
		})
	})
}
