package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/jobsearch/app/cmd"
	"github.com/umputun/jobsearch/app/config"
	"github.com/umputun/jobsearch/app/store"
)

func Test_setupLogsDisabled(t *testing.T) {
	opts.Log.Filename = ""
	assert.Equal(t, io.Discard, setupLogs(false))
}

func Test_setupLogsToStderr(t *testing.T) {
	opts.Log.Filename = ""
	assert.Equal(t, os.Stderr, setupLogs(true))
}

func Test_setupLogsToFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "jobsearch.log")

	opts.Log.Filename = fname
	opts.Log.MaxSize = 100
	opts.Log.MaxBackups = 7
	opts.Log.MaxAge = 0
	opts.Log.EnabledCompress = false
	defer func() { opts.Log.Filename = "" }()

	out := setupLogs(true)
	assert.IsType(t, &lumberjack.Logger{}, out)

	logger := out.(*lumberjack.Logger)
	defer logger.Close()
	assert.Equal(t, fname, logger.Filename)
	assert.Equal(t, 100, logger.MaxSize)
	assert.Equal(t, 7, logger.MaxBackups)
	assert.Equal(t, 0, logger.MaxAge)
	assert.False(t, logger.Compress)
}

func Test_makeDBPath(t *testing.T) {
	defer func() { opts.DB = "" }()

	opts.DB = "/tmp/flag.db"
	res, err := makeDBPath(&config.Config{DB: "/tmp/conf.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/flag.db", res, "flag wins")

	opts.DB = ""
	res, err = makeDBPath(&config.Config{DB: "/tmp/conf.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/conf.db", res)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	res, err = makeDBPath(&config.Config{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local/share/job_search/job_search.db"), res)
}

func Test_exitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(&flags.Error{Type: flags.ErrHelp}))
	assert.Equal(t, 2, exitCode(&flags.Error{Type: flags.ErrRequired}))
	assert.Equal(t, 1, exitCode(errors.New("command failed")))
}

func Test_run(t *testing.T) {
	dir := t.TempDir()
	dbFile := filepath.Join(dir, "sub", "jobs.db")
	confFile := filepath.Join(dir, "jobsearch.yml")
	require.NoError(t, os.WriteFile(confFile, []byte("db: "+dbFile+"\nserver:\n  listen: 127.0.0.1:9090\n"), 0o600))

	opts.Config = confFile
	defer func() { opts.Config = "" }()

	add := &cmd.AddCommand{}
	add.Args.Title, add.Args.Description, add.Args.Date = "Backend Engineer", "Write services", "01-03-2024"
	require.NoError(t, run(context.Background(), add, nil))
	require.FileExists(t, dbFile, "db path taken from config")

	st, err := store.New(context.Background(), dbFile)
	require.NoError(t, err)
	jobs, err := st.List(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)

	add.Args.Date = "31-02-2024"
	assert.ErrorIs(t, run(context.Background(), add, nil), store.ErrInvalidDate)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	serve := &cmd.ServeCommand{Listen: "127.0.0.1:0"}
	require.NoError(t, run(ctx, serve, nil))
	assert.Equal(t, "127.0.0.1:9090", serve.FileConfig.Listen, "server config passed to serve")
}

func Test_runBadConfig(t *testing.T) {
	opts.Config = filepath.Join(t.TempDir(), "missing.yml")
	defer func() { opts.Config = "" }()
	assert.Error(t, run(context.Background(), &cmd.ListCommand{}, nil))
}
