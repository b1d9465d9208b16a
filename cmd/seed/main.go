// Package main provides a tool to seed the store with a small sample
// catalog.
//
// The sample includes a deliberately duplicated author pair and works
// and editions crediting both, so merge planning has something real to
// chew on. Pass --dump to also write a JSONL record dump usable as
// indexbuild input.
//
// Usage:
//
//	STORE_PATH=~/Shelfmark/store go run ./cmd/seed
//	go run ./cmd/seed --dump sample-dump.jsonl
package main

import (
	"bufio"
	"encoding/json/v2"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

var dumpPath = flag.String("dump", "", "Also write a JSONL record dump to this path")

func main() {
	flag.Parse()

	storePath := os.Getenv("STORE_PATH")
	if storePath == "" {
		storePath = os.ExpandEnv("$HOME/Shelfmark/store")
	}

	fmt.Printf("Opening store at: %s\n", storePath)

	s, err := store.New(storePath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	docs := sampleCatalog()

	// Skip documents that already exist so re-running the tool against
	// a live store does not clobber curated edits.
	var fresh []domain.Document
	for _, doc := range docs {
		key := doc.DocMeta().Key
		exists, err := s.Exists(key)
		if err != nil {
			log.Fatalf("Failed to check %s: %v", key, err)
		}
		if exists {
			fmt.Printf("  %s already exists, skipping\n", key)
			continue
		}
		doc.DocMeta().InitTimestamps()
		fresh = append(fresh, doc)
	}

	if len(fresh) > 0 {
		cs, err := s.SaveMany(store.SaveRequest{
			Documents: fresh,
			Action:    "seed",
			Comment:   "sample catalog seed",
		})
		if err != nil {
			log.Fatalf("Failed to seed store: %v", err)
		}
		fmt.Printf("Seeded %d documents (changeset %s)\n", len(fresh), cs.ID)
	} else {
		fmt.Println("Store already seeded, nothing written")
	}

	if *dumpPath != "" {
		if err := writeDump(*dumpPath, sampleRecords()); err != nil {
			log.Fatalf("Failed to write dump: %v", err)
		}
		fmt.Printf("Wrote record dump to %s\n", *dumpPath)
	}

	fmt.Println("Seeding complete!")
}

// sampleCatalog builds the seed documents. The Twain/Clemens pair is
// the same person cataloged twice; try:
//
//	merge --master /authors/A1 --duplicates /authors/A2
func sampleCatalog() []domain.Document {
	return []domain.Document{
		&domain.Author{
			Meta: domain.Meta{Key: "/authors/A1", Kind: domain.KindAuthor},
			Name: "Mark Twain",
			AlternateNames: []string{
				"Twain, Mark",
			},
			BirthYear: 1835,
			DeathYear: 1910,
		},
		&domain.Author{
			Meta:      domain.Meta{Key: "/authors/A2", Kind: domain.KindAuthor},
			Name:      "Samuel Langhorne Clemens",
			BirthYear: 1835,
			DeathYear: 1910,
		},
		&domain.Author{
			Meta: domain.Meta{Key: "/authors/A3", Kind: domain.KindAuthor},
			Name: "Charles Dudley Warner",
		},
		&domain.Work{
			Meta:     domain.Meta{Key: "/works/W1", Kind: domain.KindWork},
			Title:    "Adventures of Huckleberry Finn",
			Authors:  []string{"/authors/A1"},
			Subjects: []string{"Mississippi River", "Runaway children"},
		},
		&domain.Work{
			Meta:    domain.Meta{Key: "/works/W2", Kind: domain.KindWork},
			Title:   "The Gilded Age",
			Authors: []string{"/authors/A2", "/authors/A3"},
		},
		&domain.Edition{
			Meta:    domain.Meta{Key: "/books/B1", Kind: domain.KindEdition},
			Title:   "Adventures of Huckleberry Finn",
			Authors: []string{"/authors/A1"},
			Works:   []string{"/works/W1"},
		},
		&domain.Edition{
			Meta:    domain.Meta{Key: "/books/B2", Kind: domain.KindEdition},
			Title:   "Adventures of Huckleberry Finn (Norton Critical Edition)",
			Authors: []string{"/authors/A2"},
			Works:   []string{"/works/W1"},
		},
		&domain.Edition{
			Meta:    domain.Meta{Key: "/books/B3", Kind: domain.KindEdition},
			Title:   "The Gilded Age: A Tale of Today",
			Authors: []string{"/authors/A2", "/authors/A3"},
			Works:   []string{"/works/W2"},
		},
	}
}

// sampleRecords builds raw bib records matching the catalog, including
// a pair whose ISBN-10s normalize to the same key.
func sampleRecords() []*domain.BibRecord {
	return []*domain.BibRecord{
		{
			Key:         "/books/B1",
			Title:       "Adventures of Huckleberry Finn",
			TitlePrefix: "The",
			ISBN10:      []string{"0-19-853453-1"},
			Authors:     []string{"Mark Twain"},
			Source:      "marc",
		},
		{
			Key:     "/books/B2",
			Title:   "Adventures of Huckleberry Finn (Norton Critical Edition)",
			ISBN10:  []string{"0198534531"},
			LCCN:    []string{"76030544"},
			Authors: []string{"Samuel Langhorne Clemens"},
			Source:  "onix",
		},
		{
			Key:         "/books/B3",
			Title:       "Gilded Age",
			TitlePrefix: "The",
			ISBN10:      []string{"080442957X"},
			OCLCNumbers: []string{"1033041"},
			Authors:     []string{"Samuel Langhorne Clemens", "Charles Dudley Warner"},
			Source:      "marc",
		},
	}
}

func writeDump(path string, records []*domain.BibRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return w.Flush()
}
