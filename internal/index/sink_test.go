package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readIndexFile(t *testing.T, dir string, kt KeyType) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, string(kt)+".tsv"))
	require.NoError(t, err)
	return string(data)
}

func TestFileSinkPartitionsByType(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	require.NoError(t, sink.Write(CandidateKey{Type: KeyTitle, Value: "tom sawyer", Record: "/books/B1"}))
	require.NoError(t, sink.Write(CandidateKey{Type: KeyISBN, Value: "0198534531", Record: "/books/B1"}))
	require.NoError(t, sink.Write(CandidateKey{Type: KeyTitle, Value: "tom sawyer", Record: "/books/B2"}))
	require.NoError(t, sink.Close())

	assert.Equal(t, "tom sawyer\t/books/B1\ntom sawyer\t/books/B2\n", readIndexFile(t, dir, KeyTitle))
	assert.Equal(t, "0198534531\t/books/B1\n", readIndexFile(t, dir, KeyISBN))
	assert.Empty(t, readIndexFile(t, dir, KeyLCCN))
	assert.Empty(t, readIndexFile(t, dir, KeyOCLC))
}

func TestFileSinkEscapesControlCharacters(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)

	require.NoError(t, sink.Write(CandidateKey{
		Type:   KeyTitle,
		Value:  "line\nbreak\tand tab",
		Record: "/books/B1",
	}))
	require.NoError(t, sink.Close())

	assert.Equal(t, `line\nbreak\tand tab`+"\t/books/B1\n", readIndexFile(t, dir, KeyTitle))
}

func TestFileSinkRejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	defer sink.Close()

	err = sink.Write(CandidateKey{Type: "bogus", Value: "v", Record: "r"})
	assert.Error(t, err)
}

func TestMergeFileSinks(t *testing.T) {
	base := t.TempDir()
	shardA := filepath.Join(base, "shard-0")
	shardB := filepath.Join(base, "shard-1")

	for i, dir := range []string{shardA, shardB} {
		sink, err := NewFileSink(dir)
		require.NoError(t, err)
		require.NoError(t, sink.Write(CandidateKey{
			Type:   KeyLCCN,
			Value:  "96039190",
			Record: filepath.Join("/books", string(rune('A'+i))),
		}))
		require.NoError(t, sink.Close())
	}

	out := filepath.Join(base, "merged")
	require.NoError(t, MergeFileSinks(out, []string{shardA, shardB}))

	assert.Equal(t, "96039190\t/books/A\n96039190\t/books/B\n", readIndexFile(t, out, KeyLCCN))
	// Every key type gets a merged file even when shards emitted nothing
	assert.Empty(t, readIndexFile(t, out, KeyTitle))
}
