// Package ingest reads bibliographic record dumps for the candidate
// index pass. Sources are cursors: forward-only, not restartable, and
// must be reopened to iterate again.
package ingest

import (
	"bufio"
	"compress/gzip"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// RecordSource is a forward-only cursor over bibliographic records.
// Next returns io.EOF once the source is exhausted.
type RecordSource interface {
	Next() (*domain.BibRecord, error)
	Close() error
}

// Scanner buffer sizing. Some bookseller feeds pack hundreds of ISBNs
// into one record, so lines can get long.
const (
	initialBufSize = 64 * 1024
	maxLineSize    = 16 * 1024 * 1024
)

// DumpReader reads records from a JSON-lines dump file, one record per
// line. Files ending in .gz are decompressed transparently.
//
// Malformed lines and records without a key are skipped and counted
// rather than failing the pass; a multi-hundred-gigabyte dump always
// has a few.
type DumpReader struct {
	path    string
	file    *os.File
	gz      *gzip.Reader
	scanner *bufio.Scanner
	logger  *slog.Logger

	line    int64
	skipped int64
}

// NewDumpReader opens a dump file for reading.
func NewDumpReader(path string, logger *slog.Logger) (*DumpReader, error) {
	file, err := os.Open(path) //#nosec G304 -- Dump path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open dump %s: %w", path, err)
	}

	r := &DumpReader{
		path:   path,
		file:   file,
		logger: logger,
	}

	var src io.Reader = file
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("open gzip dump %s: %w", path, err)
		}
		r.gz = gz
		src = gz
	}

	r.scanner = bufio.NewScanner(src)
	r.scanner.Buffer(make([]byte, initialBufSize), maxLineSize)
	return r, nil
}

// Next returns the next record, or io.EOF when the dump is exhausted.
func (r *DumpReader) Next() (*domain.BibRecord, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var record domain.BibRecord
		if err := json.Unmarshal(line, &record); err != nil {
			r.skip("malformed record", err)
			continue
		}
		if record.Key == "" {
			r.skip("record without key", nil)
			continue
		}
		return &record, nil
	}

	if err := r.scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dump %s: %w", r.path, err)
	}
	return nil, io.EOF
}

// Skipped reports how many lines were dropped so far.
func (r *DumpReader) Skipped() int64 {
	return r.skipped
}

// Close releases the underlying file.
func (r *DumpReader) Close() error {
	if r.gz != nil {
		if err := r.gz.Close(); err != nil {
			r.file.Close()
			return err
		}
	}
	return r.file.Close()
}

func (r *DumpReader) skip(reason string, err error) {
	r.skipped++
	if r.logger == nil {
		return
	}
	if err != nil {
		r.logger.Debug("skipping dump line", "line", r.line, "reason", reason, "error", err.Error())
	} else {
		r.logger.Debug("skipping dump line", "line", r.line, "reason", reason)
	}
}

// SliceSource serves records from memory. Test and seed helper.
type SliceSource struct {
	records []*domain.BibRecord
	pos     int
}

// NewSliceSource creates a source over the given records.
func NewSliceSource(records ...*domain.BibRecord) *SliceSource {
	return &SliceSource{records: records}
}

// Next implements RecordSource.
func (s *SliceSource) Next() (*domain.BibRecord, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// Close implements RecordSource.
func (s *SliceSource) Close() error { return nil }
