package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// config holds the environment-derived defaults; flags override them.
type config struct {
	Input string `envconfig:"INPUT"`
	DB    string `envconfig:"DB"`
	Trace bool   `envconfig:"TRACE"`
}

// app holds shared state for all CLI subcommands.
type app struct {
	cfg config
}

// newApp parses the SEM_* environment.
func newApp() (*app, error) {
	var cfg config
	if err := envconfig.Process("SEM", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &app{cfg: cfg}, nil
}

// logger returns the engine logger: disabled unless tracing is on.
// Traces go to stderr and never touch the computed debt graph.
func (a *app) logger(trace bool) zerolog.Logger {
	if !trace {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.TraceLevel).
		With().Timestamp().Logger()
}

// openInput resolves the ledger source: the given path, or stdin when
// empty. The caller owns the returned closer.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger %q: %w", path, err)
	}
	return f, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
