// Package main provides the candidate index build entrypoint.
//
// It streams one or more record dump files, derives normalized
// candidate keys, and writes the type-partitioned index the duplicate
// review step consumes. Each dump file given on the command line is one
// independent shard.
//
// Usage:
//
//	indexbuild --index-dir ./index dump.jsonl
//	indexbuild --index-shards 4 dump-part-*.jsonl.gz
//	indexbuild --index-sink sqlite dump.jsonl
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/config"
	"github.com/shelfmarkapp/shelfmark-server/internal/di"
	"github.com/shelfmarkapp/shelfmark-server/internal/index"
	"github.com/shelfmarkapp/shelfmark-server/internal/ingest"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
)

func main() {
	injector := di.NewContainer()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := do.MustInvoke[*logger.Logger](injector)
	builder := do.MustInvoke[*index.Builder](injector)

	paths := flag.Args()
	if len(paths) == 0 {
		log.Fatal("no dump files given; usage: indexbuild [flags] dump.jsonl[.gz] ...")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sources := make([]ingest.RecordSource, 0, len(paths))
	defer func() {
		for _, src := range sources {
			src.Close()
		}
	}()
	for _, path := range paths {
		reader, err := ingest.NewDumpReader(path, log.Logger)
		if err != nil {
			log.Fatal("failed to open dump", "path", path, "error", err.Error())
		}
		sources = append(sources, reader)
	}

	log.Info("starting index pass",
		"dumps", len(paths),
		"sink", cfg.Index.Sink,
		"output", cfg.Index.OutputDir)

	var stats *index.Stats
	switch cfg.Index.Sink {
	case "sqlite":
		stats, err = runSQLite(ctx, builder, sources, cfg.Index.SQLitePath)
	default:
		stats, err = builder.RunSharded(ctx, sources, cfg.Index.OutputDir)
	}
	if err != nil {
		log.Fatal("index pass failed", "error", err.Error())
	}

	log.Info("index build complete",
		"records", stats.Records,
		"skipped", stats.Skipped)
}

// runSQLite drains every source into one sqlite sink. SQLite has a
// single writer, so shards are processed sequentially here.
func runSQLite(ctx context.Context, builder *index.Builder, sources []ingest.RecordSource, path string) (*index.Stats, error) {
	sink, err := index.NewSQLiteSink(path)
	if err != nil {
		return nil, err
	}

	combined := &index.Stats{Keys: make(map[index.KeyType]int64)}
	for _, source := range sources {
		stats, err := builder.Run(ctx, source, sink, 0)
		if err != nil {
			sink.Close()
			return nil, err
		}
		combined.Records += stats.Records
		combined.Skipped += stats.Skipped
		for kt, n := range stats.Keys {
			combined.Keys[kt] += n
		}
	}

	if err := sink.Close(); err != nil {
		return nil, err
	}
	return combined, nil
}
