package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/jobsearch/app/cmd"
	"github.com/umputun/jobsearch/app/config"
	"github.com/umputun/jobsearch/app/store"
)

var opts struct {
	DB     string `long:"db" env:"JOBSEARCH_DB" description:"database file (default: ~/.local/share/job_search/job_search.db)"`
	Config string `long:"config" env:"JOBSEARCH_CONFIG" description:"optional yaml config file"`
	Dbg    bool   `long:"dbg" env:"JOBSEARCH_DEBUG" description:"debug mode"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging for all commands"`
		Filename        string `long:"file" env:"FILE" description:"log file, stderr if not set"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to retain old log files"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of old log files"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"JOBSEARCH_LOG"`

	Retry struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"5" description:"how many times to retry a busy database write"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"100ms" description:"initial retry delay"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"2" description:"backoff factor"`
	} `group:"retry" namespace:"retry" env-namespace:"JOBSEARCH_RETRY"`

	AddCmd    cmd.AddCommand    `command:"add" description:"add a job application"`
	ListCmd   cmd.ListCommand   `command:"list" description:"list all job applications"`
	SearchCmd cmd.SearchCommand `command:"search" description:"search job applications"`
	RemoveCmd cmd.RemoveCommand `command:"remove" description:"remove job application by id"`
	ServeCmd  cmd.ServeCommand  `command:"serve" description:"run web interface"`
	ExportCmd cmd.ExportCommand `command:"export" description:"export job applications to a file"`
	ClearCmd  cmd.ClearCommand  `command:"clear" description:"remove all job applications"`
}

var revision = "unknown"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		_, isServe := command.(*cmd.ServeCommand)
		setupLogs(isServe || opts.Log.Enabled || opts.Dbg)
		log.Printf("[INFO] jobsearch %s", revision)
		return run(ctx, command, args)
	}

	if _, err := p.Parse(); err != nil {
		cancel()
		os.Exit(exitCode(err))
	}
}

// run loads config, opens the store and executes the command with it
func run(ctx context.Context, command flags.Commander, args []string) error {
	conf := &config.Config{}
	if opts.Config != "" {
		c, err := config.Load(opts.Config)
		if err != nil {
			return err
		}
		conf = c
	}

	dbPath, err := makeDBPath(conf)
	if err != nil {
		return err
	}
	log.Printf("[DEBUG] database %s", dbPath)

	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Retry.Attempts, Duration: opts.Retry.Duration,
		Factor: opts.Retry.Factor, Jitter: true})
	st, err := store.New(ctx, dbPath, store.WithRepeater(rptr))
	if err != nil {
		return fmt.Errorf("can't open database: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[WARN] failed to close database, %v", err)
		}
	}()

	if sc, ok := command.(*cmd.ServeCommand); ok {
		sc.FileConfig = conf.Server
	}

	c, ok := command.(cmd.Commander)
	if !ok {
		return fmt.Errorf("unexpected command %T", command)
	}
	c.SetCommon(cmd.CommonOpts{Ctx: ctx, Store: st, Out: os.Stdout})
	if err := c.Execute(args); err != nil {
		log.Printf("[WARN] command failed, %v", err)
		return err
	}
	return nil
}

// makeDBPath picks the database location from --db, the config file or the default under $HOME
func makeDBPath(conf *config.Config) (string, error) {
	if opts.DB != "" {
		return opts.DB, nil
	}
	if conf.DB != "" {
		return conf.DB, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("can't locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "job_search", "job_search.db"), nil
}

// setupLogs configures lgr and returns the log destination.
// Logs go to stderr so command output on stdout stays clean.
func setupLogs(enabled bool) io.Writer {
	if !enabled {
		log.Setup(log.Out(io.Discard), log.Err(io.Discard))
		return io.Discard
	}

	var out io.Writer = os.Stderr
	if opts.Log.Filename != "" {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxAge:     opts.Log.MaxAge,
			MaxBackups: opts.Log.MaxBackups,
			Compress:   opts.Log.EnabledCompress,
			LocalTime:  true,
		}
	}

	if opts.Dbg {
		log.Setup(log.Out(out), log.Err(out), log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return out
	}
	log.Setup(log.Out(out), log.Err(out), log.Msec)
	return out
}

// exitCode maps parser errors: 0 for help, 2 for bad flags, 1 for failed commands
func exitCode(err error) int {
	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			return 0
		}
		return 2
	}
	return 1
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Fprintln(os.Stderr, string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %v received, stopping", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
