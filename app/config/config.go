// Package config loads optional defaults from a yaml file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds defaults applied to options not set on the command line
type Config struct {
	DB     string `yaml:"db"`
	Server Server `yaml:"server"`
}

// Server holds web server defaults
type Server struct {
	Listen       string        `yaml:"listen"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxConns     int           `yaml:"max_conns"`
}

// Load reads config from file. Unknown keys are rejected.
func Load(fname string) (*Config, error) {
	data, err := os.ReadFile(fname) // nolint gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", fname, err)
	}

	res := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(res); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config %s: %w", fname, err)
	}
	if res.Server.MaxConns < 0 {
		return nil, fmt.Errorf("invalid config %s: max_conns can't be negative", fname)
	}
	return res, nil
}
