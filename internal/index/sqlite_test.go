package index

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.db")

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)

	require.NoError(t, sink.Write(CandidateKey{Type: KeyISBN, Value: "0198534531", Record: "/books/B1"}))
	require.NoError(t, sink.Write(CandidateKey{Type: KeyISBN, Value: "0198534531", Record: "/books/B2"}))
	require.NoError(t, sink.Write(CandidateKey{Type: KeyTitle, Value: "tom sawyer", Record: "/books/B1"}))
	require.NoError(t, sink.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT record_key FROM candidate_isbn WHERE value = ? ORDER BY record_key", "0198534531")
	require.NoError(t, err)
	defer rows.Close()

	var records []string
	for rows.Next() {
		var rec string
		require.NoError(t, rows.Scan(&rec))
		records = append(records, rec)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"/books/B1", "/books/B2"}, records)

	var titleCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM candidate_title").Scan(&titleCount))
	assert.Equal(t, 1, titleCount)
}

func TestSQLiteSinkRejectsUnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "candidates.db")

	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	err = sink.Write(CandidateKey{Type: "bogus", Value: "v", Record: "r"})
	assert.Error(t, err)
}
