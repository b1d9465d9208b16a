package index

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/shelfmarkapp/shelfmark-server/internal/ingest"
)

// Stats summarizes a completed index pass.
type Stats struct {
	Records int64
	Keys    map[KeyType]int64
	Skipped int64
}

// Builder streams records from a source, derives their candidate keys,
// and hands them to a sink.
type Builder struct {
	logger        *slog.Logger
	progressEvery int64
	window        int64
	shards        int
}

// NewBuilder creates a builder. progressEvery controls how often a
// progress line is logged, in records; window is the moving-window size
// for the throughput estimate; shards caps how many sources RunSharded
// processes concurrently.
func NewBuilder(logger *slog.Logger, progressEvery, window int64, shards int) *Builder {
	if progressEvery <= 0 {
		progressEvery = 100000
	}
	if shards <= 0 {
		shards = 1
	}
	return &Builder{
		logger:        logger,
		progressEvery: progressEvery,
		window:        window,
		shards:        shards,
	}
}

// Run drains the source into the sink. total may be 0 when the corpus
// size is unknown; it only affects the logged ETA. The caller retains
// ownership of source and sink and closes them.
func (b *Builder) Run(ctx context.Context, source ingest.RecordSource, sink Sink, total int64) (*Stats, error) {
	tracker := NewTracker(b.window, total)
	stats := &Stats{Keys: make(map[KeyType]int64, len(KeyTypes))}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := source.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		for key := range ProcessRecord(record) {
			if err := sink.Write(key); err != nil {
				return nil, fmt.Errorf("write candidate key for %s: %w", record.Key, err)
			}
			stats.Keys[key.Type]++
		}

		stats.Records++
		tracker.Observe(1)

		if b.logger != nil && stats.Records%b.progressEvery == 0 {
			p := tracker.Snapshot()
			args := []any{
				"records", p.Processed,
				"per_second", int64(p.PerSecond),
			}
			if p.Total > 0 {
				args = append(args, "total", p.Total, "eta", p.ETA.String())
			}
			b.logger.Info("index pass progress", args...)
		}
	}

	if skipper, ok := source.(interface{ Skipped() int64 }); ok {
		stats.Skipped = skipper.Skipped()
	}

	if b.logger != nil {
		b.logger.Info("index pass finished",
			"records", stats.Records,
			"skipped", stats.Skipped,
			"title_keys", stats.Keys[KeyTitle],
			"isbn_keys", stats.Keys[KeyISBN],
			"lccn_keys", stats.Keys[KeyLCCN],
			"oclc_keys", stats.Keys[KeyOCLC],
			"elapsed", tracker.Elapsed().String())
	}
	return stats, nil
}

// RunSharded fans the pass out over independent corpus shards, one
// goroutine per source, each writing its own file sink, then
// concatenates the shard outputs into outputDir. Shards share nothing,
// so the only coordination is the final merge.
func (b *Builder) RunSharded(ctx context.Context, sources []ingest.RecordSource, outputDir string) (*Stats, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no corpus shards")
	}
	if len(sources) == 1 {
		sink, err := NewFileSink(outputDir)
		if err != nil {
			return nil, err
		}
		stats, runErr := b.Run(ctx, sources[0], sink, 0)
		if closeErr := sink.Close(); runErr == nil && closeErr != nil {
			return nil, closeErr
		}
		return stats, runErr
	}

	scratch, err := os.MkdirTemp(filepath.Dir(outputDir), "index-shards-*")
	if err != nil {
		return nil, fmt.Errorf("create shard scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	shardDirs := make([]string, len(sources))
	shardStats := make([]*Stats, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.shards)
	for i, source := range sources {
		dir := filepath.Join(scratch, fmt.Sprintf("shard-%d", i))
		shardDirs[i] = dir

		g.Go(func() error {
			sink, err := NewFileSink(dir)
			if err != nil {
				return err
			}
			stats, runErr := b.Run(ctx, source, sink, 0)
			if closeErr := sink.Close(); runErr == nil && closeErr != nil {
				return closeErr
			}
			if runErr != nil {
				return fmt.Errorf("shard %d: %w", i, runErr)
			}
			shardStats[i] = stats
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := MergeFileSinks(outputDir, shardDirs); err != nil {
		return nil, err
	}

	combined := &Stats{Keys: make(map[KeyType]int64, len(KeyTypes))}
	for _, s := range shardStats {
		combined.Records += s.Records
		combined.Skipped += s.Skipped
		for kt, n := range s.Keys {
			combined.Keys[kt] += n
		}
	}

	if b.logger != nil {
		b.logger.Info("shard outputs merged",
			"shards", len(sources),
			"records", combined.Records)
	}
	return combined, nil
}
