package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/tsawler/pdfinspect/store"
)

// config holds the settings of one pdftree run. Flags override PDFTREE_*
// environment variables, which may come from a .env file.
type config struct {
	Path        string
	Depth       int
	HTML        bool
	Object      int
	Decode      bool
	StreamCache int
	LogLevel    slog.Level
}

var errUsage = errors.New("usage: pdftree [-depth N] [-html] [-object N] [-decode] file.pdf")

func loadConfig(args []string, stderr io.Writer) (*config, error) {
	_ = godotenv.Load()

	cfg := &config{
		Depth:       envInt("PDFTREE_DEPTH", 3),
		HTML:        envBool("PDFTREE_HTML", false),
		StreamCache: envInt("PDFTREE_STREAM_CACHE", store.DefaultStreamCacheSize),
		LogLevel:    envLevel("PDFTREE_LOG_LEVEL", slog.LevelWarn),
	}

	fs := flag.NewFlagSet("pdftree", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&cfg.Depth, "depth", cfg.Depth, "levels to print below the root (-1 for all)")
	fs.BoolVar(&cfg.HTML, "html", cfg.HTML, "write HTML instead of text")
	fs.IntVar(&cfg.Object, "object", 0, "object number to start from (default: the catalog)")
	fs.BoolVar(&cfg.Decode, "decode", false, "write the decoded data of the -object stream")
	fs.IntVar(&cfg.StreamCache, "stream-cache", cfg.StreamCache, "decoded streams to keep in memory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() != 1 {
		return nil, errUsage
	}
	cfg.Path = fs.Arg(0)

	if cfg.Decode && cfg.Object <= 0 {
		return nil, fmt.Errorf("-decode needs -object")
	}
	if cfg.StreamCache <= 0 {
		return nil, fmt.Errorf("stream cache size must be positive, got %d", cfg.StreamCache)
	}

	return cfg, nil
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

func envLevel(key string, def slog.Level) slog.Level {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return def
	}
	return level
}
