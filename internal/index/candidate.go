// Package index builds the candidate-key indexes used to find likely
// duplicate records. One pass over a record dump emits normalized
// (value, record-key) pairs partitioned by key type; collisions in the
// output are exactly the merge candidates a later review step examines.
package index

import (
	"iter"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/normalize"
)

// KeyType partitions candidate keys by the field they were derived from.
type KeyType string

const (
	KeyTitle KeyType = "title"
	KeyISBN  KeyType = "isbn"
	KeyLCCN  KeyType = "lccn"
	KeyOCLC  KeyType = "oclc"
)

// KeyTypes lists every key type in output order.
var KeyTypes = []KeyType{KeyTitle, KeyISBN, KeyLCCN, KeyOCLC}

// minISBNLen drops normalized ISBN fragments too short to identify an
// edition.
const minISBNLen = 10

// CandidateKey is one inverted-index posting: a normalized value and
// the record it came from. The same record usually emits several, and
// distinct records emitting the same (Type, Value) is the whole point.
type CandidateKey struct {
	Type  KeyType
	Value string
	// Record is the owning record's document key.
	Record string
}

// ProcessRecord derives every candidate key a record yields. The
// sequence is lazy and single-use; re-iterating requires re-scanning
// the record.
//
// Emission rules:
//   - a title key whenever the record has a title, plus a second title
//     key for prefix+title when the source split a leading prefix into
//     its own field (sources disagree on where "The" belongs)
//   - an isbn key per ISBN-10/ISBN-13 value, dropped when the
//     normalized form is shorter than 10 characters
//   - an lccn key per LCCN that survives normalization
//   - an oclc key per OCLC number, whitespace-trimmed only
func ProcessRecord(record *domain.BibRecord) iter.Seq[CandidateKey] {
	return func(yield func(CandidateKey) bool) {
		emit := func(kt KeyType, value string) bool {
			if value == "" {
				return true
			}
			return yield(CandidateKey{Type: kt, Value: value, Record: record.Key})
		}

		if record.Title != "" {
			if !emit(KeyTitle, normalize.Title(record.Title)) {
				return
			}
			if record.TitlePrefix != "" {
				if !emit(KeyTitle, normalize.Title(record.TitlePrefix+record.Title)) {
					return
				}
			}
		}

		for _, raw := range record.ISBN10 {
			isbn := normalize.ISBN(raw)
			if len(isbn) < minISBNLen {
				continue
			}
			if !emit(KeyISBN, isbn) {
				return
			}
		}
		for _, raw := range record.ISBN13 {
			isbn := normalize.ISBN(raw)
			if len(isbn) < minISBNLen {
				continue
			}
			if !emit(KeyISBN, isbn) {
				return
			}
		}

		for _, raw := range record.LCCN {
			if !emit(KeyLCCN, normalize.LCCN(raw)) {
				return
			}
		}

		for _, raw := range record.OCLCNumbers {
			if !emit(KeyOCLC, normalize.OCLC(raw)) {
				return
			}
		}
	}
}
