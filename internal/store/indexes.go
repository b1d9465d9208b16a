package store

import (
	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

// Indexed reference fields, by kind.
const (
	FieldAuthors = "authors"
	FieldWorks   = "works"
)

// indexEntry is one inverted-index posting: "this document references
// value through field".
type indexEntry struct {
	field string
	value string
}

// indexEntries returns the postings a document contributes. Authors and
// redirects reference nothing, so they contribute none.
func indexEntries(doc domain.Document) []indexEntry {
	var entries []indexEntry
	switch d := doc.(type) {
	case *domain.Work:
		for _, a := range d.Authors {
			entries = append(entries, indexEntry{FieldAuthors, a})
		}
	case *domain.Edition:
		for _, a := range d.Authors {
			entries = append(entries, indexEntry{FieldAuthors, a})
		}
		for _, w := range d.Works {
			entries = append(entries, indexEntry{FieldWorks, w})
		}
	}
	return entries
}

// Things performs an inverted lookup: all document keys of the given
// kind whose field contains value. Results come back in key order.
func (s *Store) Things(kind domain.Kind, field, value string) ([]string, error) {
	if !kind.IsValid() {
		return nil, errors.Validationf("invalid kind %q", kind)
	}

	prefix := indexScanPrefix(string(kind), field, value)
	var keys []string

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Postings carry no value
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := it.Item().Key()
			keys = append(keys, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "index scan failed")
	}
	return keys, nil
}

// diffIndexEntries computes which postings to delete and which to add
// when a document transitions from old to new. Unchanged postings are
// left alone to keep merge writes small.
func diffIndexEntries(old, updated []indexEntry) (remove, add []indexEntry) {
	oldSet := make(map[indexEntry]bool, len(old))
	for _, e := range old {
		oldSet[e] = true
	}
	newSet := make(map[indexEntry]bool, len(updated))
	for _, e := range updated {
		newSet[e] = true
	}

	for _, e := range old {
		if !newSet[e] {
			remove = append(remove, e)
		}
	}
	for _, e := range updated {
		if !oldSet[e] {
			add = append(add, e)
		}
	}
	return remove, add
}
