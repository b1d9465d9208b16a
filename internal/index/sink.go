package index

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shelfmarkapp/shelfmark-server/internal/normalize"
)

// Sink receives candidate keys partitioned by key type. A sink is owned
// by a single builder goroutine; sinks are not safe for concurrent use.
type Sink interface {
	Write(key CandidateKey) error
	Close() error
}

// fileSinkBufSize is per key-type file. The pass is write-heavy and
// append-only, so large buffers pay off.
const fileSinkBufSize = 1 << 20

// FileSink appends candidate keys to one tab-delimited file per key
// type, named {type}.tsv. Each line is "value\trecordKey" with control
// characters escaped so downstream sort/join tooling sees one posting
// per line.
type FileSink struct {
	dir     string
	files   map[KeyType]*os.File
	writers map[KeyType]*bufio.Writer
}

// NewFileSink creates the output directory and opens the four
// per-key-type files for appending.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir %s: %w", dir, err)
	}

	s := &FileSink{
		dir:     dir,
		files:   make(map[KeyType]*os.File, len(KeyTypes)),
		writers: make(map[KeyType]*bufio.Writer, len(KeyTypes)),
	}

	for _, kt := range KeyTypes {
		path := filepath.Join(dir, string(kt)+".tsv")
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //#nosec G304 -- Path derived from operator config
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open index file %s: %w", path, err)
		}
		s.files[kt] = file
		s.writers[kt] = bufio.NewWriterSize(file, fileSinkBufSize)
	}
	return s, nil
}

// Write appends one posting to its key type's file.
func (s *FileSink) Write(key CandidateKey) error {
	w, ok := s.writers[key.Type]
	if !ok {
		return fmt.Errorf("unknown key type %q", key.Type)
	}

	if _, err := w.WriteString(normalize.CleanEscapes(key.Value)); err != nil {
		return err
	}
	if err := w.WriteByte('\t'); err != nil {
		return err
	}
	if _, err := w.WriteString(normalize.CleanEscapes(key.Record)); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

// Close flushes and closes every file.
func (s *FileSink) Close() error {
	var firstErr error
	for _, kt := range KeyTypes {
		if w, ok := s.writers[kt]; ok {
			if err := w.Flush(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		if f, ok := s.files[kt]; ok {
			if err := f.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// MergeFileSinks concatenates per-shard file-sink directories into a
// single output directory, one combined file per key type. Shard output
// order within a file is unspecified; the downstream review step sorts
// by value anyway.
func MergeFileSinks(outputDir string, shardDirs []string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create index dir %s: %w", outputDir, err)
	}

	for _, kt := range KeyTypes {
		outPath := filepath.Join(outputDir, string(kt)+".tsv")
		out, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644) //#nosec G304 -- Path derived from operator config
		if err != nil {
			return fmt.Errorf("create merged index file %s: %w", outPath, err)
		}

		for _, dir := range shardDirs {
			shardPath := filepath.Join(dir, string(kt)+".tsv")
			in, err := os.Open(shardPath) //#nosec G304 -- Path derived from operator config
			if err != nil {
				out.Close()
				return fmt.Errorf("open shard index file %s: %w", shardPath, err)
			}
			_, err = io.Copy(out, in)
			in.Close()
			if err != nil {
				out.Close()
				return fmt.Errorf("merge shard index file %s: %w", shardPath, err)
			}
		}

		if err := out.Close(); err != nil {
			return fmt.Errorf("close merged index file %s: %w", outPath, err)
		}
	}
	return nil
}
