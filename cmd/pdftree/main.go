// Command pdftree prints the object tree of a PDF file.
//
//	pdftree [-depth N] [-html] [-object N] [-decode] file.pdf
//
// The file is read in the background while a counter is shown on stderr,
// then the tree below the catalog (or -object) is written to stdout.
// Settings may also come from PDFTREE_DEPTH, PDFTREE_HTML,
// PDFTREE_STREAM_CACHE and PDFTREE_LOG_LEVEL, or a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tsawler/pdfinspect/export"
	"github.com/tsawler/pdfinspect/pages"
	"github.com/tsawler/pdfinspect/reader"
	"github.com/tsawler/pdfinspect/store"
	"github.com/tsawler/pdfinspect/tree"
	"github.com/tsawler/pdfinspect/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "pdftree:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	r, err := reader.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer r.Close()
	if r.Repaired() {
		logger.Warn("cross-reference table was rebuilt", "path", cfg.Path)
	}

	objects, err := load(ctx, r, cfg, logger, stderr)
	if err != nil {
		return err
	}

	if cfg.Decode {
		data, err := objects.DecodedStream(cfg.Object)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	root, err := rootNode(objects, cfg, logger)
	if err != nil {
		return err
	}

	if cfg.HTML {
		return export.HTML(stdout, root, cfg.Depth)
	}
	return export.Text(stdout, root, cfg.Depth)
}

// loadResult receives the outcome of a load on the foreground.
type loadResult struct {
	objects *store.ObjectStore
	err     error
}

func (l *loadResult) Update(objects *store.ObjectStore) { l.objects = objects }
func (l *loadResult) LoadFailed(err error)              { l.err = err }

// load fills a store through a Coordinator and waits for its finalization.
// Cancelling ctx aborts the load.
func load(ctx context.Context, src store.Source, cfg *config, logger *slog.Logger, stderr io.Writer) (*store.ObjectStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queue := worker.NewQueue(1)
	coord := worker.New(queue,
		worker.WithLogger(logger),
		worker.WithStoreOptions(store.WithStreamCacheSize(cfg.StreamCache)),
		worker.WithProgress(func(title string) worker.Progress {
			return newTerminalProgress(stderr, title)
		}),
	)

	result := &loadResult{}
	if !coord.LoadDocument(result, src) {
		return nil, worker.ErrBusy
	}

	stopCancel := context.AfterFunc(ctx, func() {
		coord.Cancel()
	})
	defer stopCancel()

	// Finalization is the only function ever posted.
	if err := queue.RunOne(context.Background()); err != nil {
		return nil, err
	}
	if result.err != nil {
		return nil, result.err
	}
	return result.objects, nil
}

func rootNode(objects *store.ObjectStore, cfg *config, logger *slog.Logger) (*tree.Node, error) {
	var opts []tree.Option
	idx, err := pages.Build(objects, objects.Trailer())
	if err != nil {
		logger.Warn("page numbers unavailable", "error", err)
	} else {
		if idx.Skipped() > 0 {
			logger.Warn("damaged page tree", "skipped", idx.Skipped())
		}
		opts = append(opts, tree.WithPageIndex(idx))
	}

	t := tree.New(objects, opts...)

	number := cfg.Object
	if number <= 0 {
		ref, ok := objects.Trailer().GetIndirectRef("Root")
		if !ok {
			return t.NewNode(objects.Trailer()), nil
		}
		number = ref.Number
	}

	root, ok := t.Object(number)
	if !ok {
		return nil, fmt.Errorf("object %d is not in the file", number)
	}
	return root, nil
}
