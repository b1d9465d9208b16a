package index

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

func collect(record *domain.BibRecord) []CandidateKey {
	return slices.Collect(ProcessRecord(record))
}

func TestProcessRecordTitle(t *testing.T) {
	keys := collect(&domain.BibRecord{
		Key:   "/books/B1",
		Title: "The Adventures of Tom Sawyer",
	})

	assert.Equal(t, []CandidateKey{
		{Type: KeyTitle, Value: "adventures of tom sawyer", Record: "/books/B1"},
	}, keys)
}

func TestProcessRecordTitlePrefix(t *testing.T) {
	// A source that split the leading article into its own field emits
	// a second title key for the joined form.
	keys := collect(&domain.BibRecord{
		Key:         "/books/B1",
		Title:       "Adventures of Tom Sawyer",
		TitlePrefix: "The ",
	})

	assert.Len(t, keys, 2)
	assert.Equal(t, "adventures of tom sawyer", keys[0].Value)
	assert.Equal(t, "adventures of tom sawyer", keys[1].Value)
}

func TestProcessRecordNoTitle(t *testing.T) {
	keys := collect(&domain.BibRecord{
		Key:  "/books/B1",
		LCCN: []string{"96-39190"},
	})

	assert.Equal(t, []CandidateKey{
		{Type: KeyLCCN, Value: "96039190", Record: "/books/B1"},
	}, keys)
}

func TestProcessRecordISBN(t *testing.T) {
	keys := collect(&domain.BibRecord{
		Key:    "/books/B1",
		ISBN10: []string{"0-19-853453-1", "123"}, // second too short after normalization
		ISBN13: []string{"978-0-19-853453-9"},
	})

	assert.Equal(t, []CandidateKey{
		{Type: KeyISBN, Value: "0198534531", Record: "/books/B1"},
		{Type: KeyISBN, Value: "9780198534539", Record: "/books/B1"},
	}, keys)
}

func TestProcessRecordDropsEmptyKeys(t *testing.T) {
	keys := collect(&domain.BibRecord{
		Key:         "/books/B1",
		LCCN:        []string{"not an lccn!"},
		OCLCNumbers: []string{"   "},
	})
	assert.Empty(t, keys)
}

func TestProcessRecordOCLC(t *testing.T) {
	keys := collect(&domain.BibRecord{
		Key:         "/books/B1",
		OCLCNumbers: []string{" 12345 "},
	})

	assert.Equal(t, []CandidateKey{
		{Type: KeyOCLC, Value: "12345", Record: "/books/B1"},
	}, keys)
}

// Three records where two share an ISBN-10 after normalization and the
// third carries the ISBN-13 form of the same book: the shared value
// colliding in the isbn partition is what marks records as merge
// candidates, and the 13-digit form stays a separate value because
// 10/13 equivalence folding is a later step's job.
func TestProcessRecordISBNCollision(t *testing.T) {
	records := []*domain.BibRecord{
		{Key: "/books/B1", ISBN10: []string{"0-19-853453-1"}},
		{Key: "/books/B2", ISBN10: []string{"0198534531"}},
		{Key: "/books/B3", ISBN13: []string{"9780198534538"}},
	}

	byValue := make(map[string][]string)
	for _, rec := range records {
		for key := range ProcessRecord(rec) {
			byValue[key.Value] = append(byValue[key.Value], key.Record)
		}
	}

	assert.Equal(t, []string{"/books/B1", "/books/B2"}, byValue["0198534531"])
	assert.Equal(t, []string{"/books/B3"}, byValue["9780198534538"])
}

func TestProcessRecordDeterministic(t *testing.T) {
	record := &domain.BibRecord{
		Key:    "/books/B1",
		Title:  "Les Misérables",
		ISBN10: []string{"0-19-853453-1"},
		LCCN:   []string{"n78-89035"},
	}

	assert.Equal(t, collect(record), collect(record))
}

func TestProcessRecordEarlyStop(t *testing.T) {
	record := &domain.BibRecord{
		Key:    "/books/B1",
		Title:  "Tom Sawyer",
		ISBN10: []string{"0198534531"},
	}

	var got []CandidateKey
	for key := range ProcessRecord(record) {
		got = append(got, key)
		break
	}
	assert.Len(t, got, 1)
}
