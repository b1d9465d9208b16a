package store

import (
	"encoding/json/v2"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

// maxRedirectHops bounds Resolve against redirect cycles left by
// interleaved merges in opposite directions.
const maxRedirectHops = 10

// decodeDocument unmarshals a stored document into its concrete type,
// dispatching on the kind field.
func decodeDocument(raw []byte) (domain.Document, error) {
	var probe struct {
		Kind domain.Kind `json:"kind"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("probe document kind: %w", err)
	}

	var doc domain.Document
	switch probe.Kind {
	case domain.KindAuthor:
		doc = &domain.Author{}
	case domain.KindWork:
		doc = &domain.Work{}
	case domain.KindEdition:
		doc = &domain.Edition{}
	case domain.KindRedirect:
		doc = &domain.Redirect{}
	default:
		return nil, fmt.Errorf("unknown document kind %q", probe.Kind)
	}

	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", probe.Kind, err)
	}
	return doc, nil
}

// Get retrieves a document by its key. A merged-away key returns its
// redirect stub; callers that want the surviving document should use
// Resolve.
func (s *Store) Get(key string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = getDocument(txn, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// getDocument reads and decodes a document inside an open transaction.
func getDocument(txn *badger.Txn, key string) (domain.Document, error) {
	dbKey := buildKey(docPrefix, key)
	defer releaseKey(dbKey)

	item, err := txn.Get(dbKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NotFoundf("document %s not found", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeUnavailable, "read document %s", key)
	}

	var doc domain.Document
	err = item.Value(func(val []byte) error {
		var derr error
		doc, derr = decodeDocument(val)
		return derr
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInternal, "decode document %s", key)
	}
	return doc, nil
}

// GetMany retrieves documents for the given keys in a single snapshot.
// Missing keys are simply absent from the result map.
func (s *Store) GetMany(keys []string) (map[string]domain.Document, error) {
	docs := make(map[string]domain.Document, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, key := range keys {
			doc, err := getDocument(txn, key)
			if errors.Is(err, errors.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			docs[key] = doc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Resolve follows redirect stubs until it reaches a live document and
// returns it along with its key. Chains longer than maxRedirectHops are
// treated as data corruption.
func (s *Store) Resolve(key string) (domain.Document, string, error) {
	current := key
	for range maxRedirectHops {
		doc, err := s.Get(current)
		if err != nil {
			return nil, "", err
		}
		redirect, ok := doc.(*domain.Redirect)
		if !ok {
			return doc, current, nil
		}
		current = redirect.Location
	}
	return nil, "", errors.Internalf("redirect chain from %s exceeds %d hops", key, maxRedirectHops)
}

// Exists reports whether a document key is present, redirect stubs
// included.
func (s *Store) Exists(key string) (bool, error) {
	dbKey := buildKey(docPrefix, key)
	defer releaseKey(dbKey)
	return s.exists(dbKey)
}
