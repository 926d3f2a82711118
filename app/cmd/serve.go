package cmd

import (
	"fmt"
	"time"

	"github.com/umputun/jobsearch/app/config"
	"github.com/umputun/jobsearch/app/server"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
	defaultMaxConns     = 16
)

// ServeCommand set of flags and command for serve. Options left empty fall back to
// the config file, then to built-in defaults.
type ServeCommand struct {
	Listen       string        `long:"listen" env:"JOBSEARCH_LISTEN" description:"listen address (default: 127.0.0.1:8080)"`
	ReadTimeout  time.Duration `long:"read-timeout" env:"JOBSEARCH_READ_TIMEOUT" description:"request read timeout (default: 10s)"`
	WriteTimeout time.Duration `long:"write-timeout" env:"JOBSEARCH_WRITE_TIMEOUT" description:"response write timeout (default: 10s)"`
	MaxConns     int           `long:"max-conns" env:"JOBSEARCH_MAX_CONNS" description:"connections handled concurrently (default: 16)"`

	FileConfig config.Server `no-flag:"true"`
	CommonOpts
}

// Execute is the entry point for "serve" command, blocks until Ctx is canceled
func (sc *ServeCommand) Execute(_ []string) error {
	srv, err := server.New(sc.Store, sc.serverConfig())
	if err != nil {
		return fmt.Errorf("can't make server: %w", err)
	}
	fmt.Fprintf(sc.Out, "Listening on http://%s\n", sc.serverConfig().Address)
	if err := srv.Run(sc.Ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// serverConfig merges flags, config file and defaults, in this order
func (sc *ServeCommand) serverConfig() server.Config {
	return server.Config{
		Address:      firstSet(sc.Listen, sc.FileConfig.Listen, defaultListen),
		ReadTimeout:  firstSet(sc.ReadTimeout, sc.FileConfig.ReadTimeout, defaultReadTimeout),
		WriteTimeout: firstSet(sc.WriteTimeout, sc.FileConfig.WriteTimeout, defaultWriteTimeout),
		MaxConns:     firstSet(sc.MaxConns, sc.FileConfig.MaxConns, defaultMaxConns),
	}
}

func firstSet[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}
