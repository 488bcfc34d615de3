package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tj/go-naturaldate"
	"golang.org/x/sync/errgroup"
	"libdb.so/boss-reminder/clocker"
	"libdb.so/boss-reminder/notify"
	"libdb.so/boss-reminder/reminder"
	"libdb.so/boss-reminder/schedule"
	"libdb.so/boss-reminder/store"
)

var (
	verbose    = false
	configGlob = "config*.json"
	inputPath  = ""
	clearSaved = false
	watch      = false
	countdown  = false
	icsPath    = ""
	nowFlag    = ""
	dryRun     = false
)

func init() {
	flag.BoolVar(&verbose, "v", verbose, "verbose")
	flag.StringVar(&configGlob, "c", configGlob, "config file")
	flag.StringVar(&inputPath, "i", inputPath, "schedule text file, or - for stdin")
	flag.BoolVar(&clearSaved, "clear", clearSaved, "cancel and forget the saved schedule, then exit")
	flag.BoolVar(&watch, "watch", watch, "re-run the schedule whenever the -i file changes")
	flag.BoolVar(&countdown, "countdown", countdown, "draw a live countdown on stdout")
	flag.StringVar(&icsPath, "ics", icsPath, "also export the schedule as an iCalendar file")
	flag.StringVar(&nowFlag, "now", nowFlag, "pretend it is this time, e.g. \"tomorrow 7am\" (with -dry-run)")
	flag.BoolVar(&dryRun, "dry-run", dryRun, "print the schedule that would be armed and exit")
}

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})))

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalln(err)
	}
}

func run(ctx context.Context) error {
	configFiles, err := filepath.Glob(configGlob)
	if err != nil {
		return errors.Wrap(err, "failed to glob config files")
	}

	for _, path := range configFiles {
		slog.DebugContext(ctx,
			"found config file",
			"path", path)
	}

	cfg, err := parseConfigFiles(configFiles)
	if err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}

	if dryRun {
		return runDryRun(ctx)
	}

	db, err := store.Open(cfg.Store)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}
	defer db.Close()

	gateway, err := newGateway(cfg)
	if err != nil {
		return err
	}

	// Status messages are meant for the user, so they are shown even when
	// the default logger only shows warnings.
	statusLevel := slog.LevelInfo
	if verbose {
		statusLevel = slog.LevelDebug
	}
	status := reminder.LogStatus{
		Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: statusLevel,
		})),
	}

	session := reminder.NewSession(reminder.SessionOpts{
		Gateway:   gateway,
		Store:     db,
		Status:    status,
		BuildOpts: schedule.BuildOpts{Location: time.Local},
	})
	defer session.Close()

	if clearSaved {
		session.Clear(ctx)
		return nil
	}

	session.CheckPermission(ctx)

	// A new input file takes the place of whatever was saved, so the saved
	// schedule is only displayed, not armed.
	session.Restore(ctx, cfg.resume() && inputPath == "")

	if inputPath != "" {
		text, err := readInput(inputPath)
		if err != nil {
			return err
		}
		if _, err := session.Run(ctx, text); err != nil && !isUserError(err) {
			return err
		}
	}

	if icsPath != "" {
		if err := writeICSFile(icsPath, session.Scheduler().Schedule(), time.Now()); err != nil {
			return err
		}
	}

	if !session.Scheduler().Armed() && !watch {
		slog.WarnContext(ctx, "nothing to notify for, exiting")
		return nil
	}

	errg, ctx := errgroup.WithContext(ctx)

	presenter := session.Presenter()
	errg.Go(func() error {
		return presenter.Run(ctx, clocker.Tick(reminder.CountdownInterval), func(rows []reminder.Row) {
			if countdown {
				renderCountdown(os.Stdout, rows)
				return
			}
			for _, row := range rows {
				if row.Imminent {
					slog.DebugContext(ctx,
						"notification imminent",
						"event", row.Event.DisplayName(),
						"countdown", row.Countdown())
				}
			}
		})
	})

	if watch && inputPath != "" && inputPath != "-" {
		errg.Go(func() error {
			return watchFile(ctx, inputPath, func(ctx context.Context, text string) {
				if _, err := session.Replace(ctx, text); err != nil && !isUserError(err) {
					slog.ErrorContext(ctx,
						"failed to replace schedule",
						"path", inputPath,
						"err", err)
				}
			})
		})
	}

	var refreshCh <-chan time.Time
	if cfg.RefreshFrequency > 0 {
		refreshCh = clocker.Tick(cfg.RefreshFrequency.Duration())
	}

	errg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-refreshCh:
				var list strings.Builder
				writeSchedule(&list, presenter.Displayed(), time.Now())
				slog.InfoContext(ctx,
					"pending notifications",
					"refresh_frequency", cfg.RefreshFrequency.Duration(),
					"list", list.String())
			}
		}
	})

	return errg.Wait()
}

// runDryRun builds the schedule from the input without arming or saving
// anything, and prints it.
func runDryRun(ctx context.Context) error {
	if inputPath == "" {
		return errors.New("-dry-run needs -i")
	}

	now := time.Now()
	if nowFlag != "" {
		t, err := naturaldate.Parse(nowFlag, now, naturaldate.WithDirection(naturaldate.Future))
		if err != nil {
			return errors.Wrapf(err, "failed to parse -now %q", nowFlag)
		}
		now = t
	}

	text, err := readInput(inputPath)
	if err != nil {
		return err
	}

	sched := schedule.Build(text, schedule.BuildOpts{
		Now:      now,
		Location: time.Local,
	})

	slog.DebugContext(ctx,
		"built schedule",
		"now", now,
		"events", len(sched))

	writeSchedule(os.Stdout, sched, now)

	if icsPath != "" {
		return writeICSFile(icsPath, sched, now)
	}
	return nil
}

func newGateway(cfg *config) (notify.Gateway, error) {
	var gateways notify.Multi
	if cfg.console() {
		gateways = append(gateways, notify.NewConsole(os.Stdout))
	}
	if cfg.WebhookURL != "" {
		w, err := notify.NewWebhook(cfg.WebhookURL)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create webhook gateway")
		}
		w.Username = cfg.WebhookUsername
		gateways = append(gateways, w)
	}
	return gateways, nil
}

func readInput(path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", errors.Wrap(err, "failed to open input")
		}
		defer f.Close()
		r = f
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "failed to read input")
	}
	return string(b), nil
}

// writeICSFile exports sched to path. The file is only written once the
// calendar has been encoded, and an empty schedule leaves it untouched.
func writeICSFile(path string, sched schedule.Schedule, now time.Time) error {
	var buf bytes.Buffer
	if err := schedule.WriteICS(&buf, sched, now); err != nil {
		if errors.Is(err, schedule.ErrNoEvents) {
			slog.Warn(
				"nothing to export, not writing ics file",
				"path", path)
			return nil
		}
		return errors.Wrap(err, "failed to encode ics file")
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrap(err, "failed to write ics file")
	}
	return nil
}

// isUserError reports whether err is one of the session's refusals, which
// are already reported to the user as status messages.
func isUserError(err error) bool {
	return errors.Is(err, reminder.ErrEmptyInput) ||
		errors.Is(err, reminder.ErrNothingToSchedule) ||
		errors.Is(err, reminder.ErrAlreadyArmed)
}
