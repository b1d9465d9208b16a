package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

func main() {
	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = os.ExpandEnv("$HOME/Shelfmark/store")
	}

	opts := badger.DefaultOptions(storePath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Store Inspection ===")
	fmt.Println()

	kindCounts := map[domain.Kind]int{}
	redirectSamples := 0
	indexEntries := 0
	changesets := 0
	var newestChangeset string
	var newestChangesetAt time.Time

	err = db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte("doc:")
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek([]byte("doc:")); it.ValidForPrefix([]byte("doc:")); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(val []byte) error {
				var probe struct {
					Kind     domain.Kind `json:"kind"`
					Location string      `json:"location"`
					Name     string      `json:"name"`
					Title    string      `json:"title"`
				}
				if err := json.Unmarshal(val, &probe); err != nil {
					return err
				}

				kindCounts[probe.Kind]++

				// Show the first few redirect stubs; a growing pile of
				// these means the merge queue is actually being worked.
				if probe.Kind == domain.KindRedirect && redirectSamples < 5 {
					redirectSamples++
					fmt.Printf("Redirect: %s -> %s\n", key[len("doc:"):], probe.Location)
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading document %s: %v", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating documents: %v", err)
	}

	err = db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte("idx:")
		itOpts.PrefetchValues = false
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek([]byte("idx:")); it.ValidForPrefix([]byte("idx:")); it.Next() {
			indexEntries++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating index entries: %v", err)
	}

	err = db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.Prefix = []byte("changeset:")
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek([]byte("changeset:")); it.ValidForPrefix([]byte("changeset:")); it.Next() {
			item := it.Item()

			err := item.Value(func(val []byte) error {
				var cs struct {
					ID        string    `json:"id"`
					Action    string    `json:"action"`
					CreatedAt time.Time `json:"created_at"`
					Touched   []struct {
						Key string `json:"key"`
					} `json:"touched"`
				}
				if err := json.Unmarshal(val, &cs); err != nil {
					return err
				}

				changesets++
				if cs.CreatedAt.After(newestChangesetAt) {
					newestChangesetAt = cs.CreatedAt
					newestChangeset = fmt.Sprintf("%s (%s, %d documents)",
						cs.ID, cs.Action, len(cs.Touched))
				}
				return nil
			})
			if err != nil {
				log.Printf("Error reading changeset: %v", err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating changesets: %v", err)
	}

	if redirectSamples > 0 {
		fmt.Println()
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Authors:   %d\n", kindCounts[domain.KindAuthor])
	fmt.Printf("Works:     %d\n", kindCounts[domain.KindWork])
	fmt.Printf("Editions:  %d\n", kindCounts[domain.KindEdition])
	fmt.Printf("Redirects: %d\n", kindCounts[domain.KindRedirect])
	fmt.Printf("Index entries: %d\n", indexEntries)
	fmt.Printf("Changesets: %d\n", changesets)
	if newestChangeset != "" {
		fmt.Printf("Most recent changeset: %s at %s\n",
			newestChangeset, newestChangesetAt.Format(time.RFC3339))
	}
}
