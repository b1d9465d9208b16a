package store

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

// Changeset is the audit record written alongside every SaveMany
// commit. It is immutable after commit; the prior document bodies it
// carries are what a future undo would restore.
type Changeset struct {
	ID        string        `json:"id"`
	Action    string        `json:"action"`
	Comment   string        `json:"comment,omitempty"`
	Data      ChangesetData `json:"data"`
	Touched   []TouchedDoc  `json:"touched"`
	CreatedAt time.Time     `json:"created_at"`
}

// ChangesetData carries the merge metadata: which key survived and
// which keys were folded into it.
type ChangesetData struct {
	Master     string   `json:"master,omitempty"`
	Duplicates []string `json:"duplicates,omitempty"`
}

// TouchedDoc records one document the changeset wrote, with enough
// state to audit or reverse the write.
type TouchedDoc struct {
	Key           string         `json:"key"`
	Kind          domain.Kind    `json:"kind"`
	PriorRevision int64          `json:"prior_revision"`
	NewRevision   int64          `json:"new_revision"`
	Prior         jsontext.Value `json:"prior,omitempty"` // body before the write, absent for creates
}

// GetChangeset retrieves a changeset by its ID.
func (s *Store) GetChangeset(id string) (*Changeset, error) {
	key := buildKey(changesetPrefix, id)
	defer releaseKey(key)

	var cs Changeset
	err := s.get(key, &cs)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NotFoundf("changeset %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeUnavailable, "read changeset %s", id)
	}
	return &cs, nil
}

// Changesets returns every committed changeset, newest first.
func (s *Store) Changesets() ([]*Changeset, error) {
	var sets []*Changeset

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(changesetPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var cs Changeset
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &cs)
			})
			if err != nil {
				return err
			}
			sets = append(sets, &cs)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnavailable, "list changesets failed")
	}

	slices.SortFunc(sets, func(a, b *Changeset) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sets, nil
}
