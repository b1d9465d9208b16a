package store

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/id"
)

// SaveRequest is a batch of document writes committed as one unit.
type SaveRequest struct {
	Documents []domain.Document
	Action    string
	Comment   string
	Data      ChangesetData
}

// savedMeta snapshots a document's envelope so a failed batch can hand
// the caller's documents back untouched.
type savedMeta struct {
	meta      *domain.Meta
	revision  int64
	createdAt time.Time
	updatedAt time.Time
}

// SaveMany writes every document in the request, or none of them.
//
// Each document's Revision must match the stored revision (0 for a
// document that does not exist yet); any mismatch fails the whole batch
// with a conflict error listing the stale keys, and the caller is
// expected to re-plan against current state rather than retry blindly.
// On success the documents carry their new revisions and timestamps,
// inverted indexes are in line, and the returned changeset has been
// persisted in the same transaction.
func (s *Store) SaveMany(req SaveRequest) (*Changeset, error) {
	if len(req.Documents) == 0 {
		return nil, errors.Validation("save request contains no documents")
	}

	seen := make(map[string]bool, len(req.Documents))
	for _, doc := range req.Documents {
		meta := doc.DocMeta()
		if meta.Key == "" {
			return nil, errors.Validation("document with empty key")
		}
		if !meta.Kind.IsValid() {
			return nil, errors.Validationf("document %s has invalid kind %q", meta.Key, meta.Kind)
		}
		if seen[meta.Key] {
			return nil, errors.Validationf("document %s appears twice in one save", meta.Key)
		}
		seen[meta.Key] = true
	}

	cs := &Changeset{
		ID:        id.MustGenerate("cs"),
		Action:    req.Action,
		Comment:   req.Comment,
		Data:      req.Data,
		Touched:   make([]TouchedDoc, 0, len(req.Documents)),
		CreatedAt: time.Now(),
	}

	var snapshots []savedMeta

	err := s.db.Update(func(txn *badger.Txn) error {
		now := time.Now()
		var staleKeys []string

		for _, doc := range req.Documents {
			meta := doc.DocMeta()

			prior, priorRaw, err := readPrior(txn, meta.Key)
			if err != nil {
				return err
			}

			var priorRevision int64
			var oldEntries []indexEntry
			priorKind := meta.Kind
			createdAt := meta.CreatedAt
			if prior != nil {
				priorRevision = prior.DocMeta().Revision
				priorKind = prior.DocMeta().Kind
				oldEntries = indexEntries(prior)
				createdAt = prior.DocMeta().CreatedAt
			} else if createdAt.IsZero() {
				createdAt = now
			}

			if meta.Revision != priorRevision {
				staleKeys = append(staleKeys, meta.Key)
				continue
			}
			if len(staleKeys) > 0 {
				// Already failing; keep scanning to report every stale key.
				continue
			}

			snapshots = append(snapshots, savedMeta{
				meta:      meta,
				revision:  meta.Revision,
				createdAt: meta.CreatedAt,
				updatedAt: meta.UpdatedAt,
			})
			meta.Revision = priorRevision + 1
			meta.CreatedAt = createdAt
			meta.UpdatedAt = now

			data, err := json.Marshal(doc)
			if err != nil {
				return errors.Wrapf(err, errors.CodeInternal, "marshal document %s", meta.Key)
			}
			if err := txn.Set([]byte(docPrefix+meta.Key), data); err != nil {
				return errors.Wrapf(err, errors.CodeUnavailable, "write document %s", meta.Key)
			}

			// Removals use the prior kind: a work replaced by a redirect
			// stub must shed its work-kind postings. A kind change also
			// invalidates every surviving posting, since kind is part of
			// the index key.
			remove, add := diffIndexEntries(oldEntries, indexEntries(doc))
			if priorKind != meta.Kind {
				remove, add = oldEntries, indexEntries(doc)
			}
			for _, e := range remove {
				key := indexKeyOwned(string(priorKind), e.field, e.value, meta.Key)
				if err := txn.Delete(key); err != nil {
					return errors.Wrapf(err, errors.CodeUnavailable, "drop index entry for %s", meta.Key)
				}
			}
			for _, e := range add {
				key := indexKeyOwned(string(meta.Kind), e.field, e.value, meta.Key)
				if err := txn.Set(key, nil); err != nil {
					return errors.Wrapf(err, errors.CodeUnavailable, "write index entry for %s", meta.Key)
				}
			}

			cs.Touched = append(cs.Touched, TouchedDoc{
				Key:           meta.Key,
				Kind:          meta.Kind,
				PriorRevision: priorRevision,
				NewRevision:   meta.Revision,
				Prior:         priorRaw,
			})
		}

		if len(staleKeys) > 0 {
			return errors.Conflict("stale document revisions").WithDetails(staleKeys)
		}

		csData, err := json.Marshal(cs)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "marshal changeset")
		}
		return txn.Set([]byte(changesetPrefix+cs.ID), csData)
	})
	if err != nil {
		for _, snap := range snapshots {
			snap.meta.Revision = snap.revision
			snap.meta.CreatedAt = snap.createdAt
			snap.meta.UpdatedAt = snap.updatedAt
		}
		var domainErr *errors.Error
		if errors.As(err, &domainErr) {
			return nil, domainErr
		}
		return nil, errors.Wrap(err, errors.CodeUnavailable, "save failed")
	}

	if s.logger != nil {
		s.logger.Info("changeset committed",
			"changeset", cs.ID,
			"action", cs.Action,
			"documents", len(cs.Touched))
	}
	return cs, nil
}

// readPrior fetches the stored document and its raw body, or (nil, nil)
// if the key has never been written.
func readPrior(txn *badger.Txn, key string) (domain.Document, jsontext.Value, error) {
	dbKey := buildKey(docPrefix, key)
	defer releaseKey(dbKey)

	item, err := txn.Get(dbKey)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.CodeUnavailable, "read document %s", key)
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.CodeUnavailable, "read document %s", key)
	}

	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.CodeInternal, "decode document %s", key)
	}
	return doc, jsontext.Value(raw), nil
}
