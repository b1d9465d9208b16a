package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
)

// setupTestStore creates a temporary store for testing
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "shelfmark-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := New(dbPath, nil)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func newAuthor(key, name string) *domain.Author {
	a := &domain.Author{Name: name}
	a.Key = key
	a.Kind = domain.KindAuthor
	return a
}

func newWork(key, title string, authors ...string) *domain.Work {
	w := &domain.Work{Title: title, Authors: authors}
	w.Key = key
	w.Kind = domain.KindWork
	return w
}

func newEdition(key string, authors, works []string) *domain.Edition {
	e := &domain.Edition{Authors: authors, Works: works}
	e.Key = key
	e.Kind = domain.KindEdition
	return e
}

func mustSave(t *testing.T, s *Store, action string, docs ...domain.Document) *Changeset {
	t.Helper()
	cs, err := s.SaveMany(SaveRequest{Documents: docs, Action: action})
	require.NoError(t, err)
	return cs
}

func TestSaveManyAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	author := newAuthor("/authors/A1", "Mark Twain")
	mustSave(t, store, "seed", author)

	assert.Equal(t, int64(1), author.Revision)
	assert.False(t, author.CreatedAt.IsZero())

	got, err := store.Get("/authors/A1")
	require.NoError(t, err)

	retrieved, ok := got.(*domain.Author)
	require.True(t, ok)
	assert.Equal(t, "Mark Twain", retrieved.Name)
	assert.Equal(t, int64(1), retrieved.Revision)
}

func TestGetNotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.Get("/authors/missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestGetMany(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	mustSave(t, store, "seed",
		newAuthor("/authors/A1", "Mark Twain"),
		newAuthor("/authors/A2", "Samuel Clemens"))

	docs, err := store.GetMany([]string{"/authors/A1", "/authors/A2", "/authors/missing"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Contains(t, docs, "/authors/A1")
	assert.Contains(t, docs, "/authors/A2")
	assert.NotContains(t, docs, "/authors/missing")
}

func TestSaveManyStaleRevision(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	author := newAuthor("/authors/A1", "Mark Twain")
	mustSave(t, store, "seed", author)

	// A second writer saves with a stale copy
	stale := newAuthor("/authors/A1", "Mark Twain (stale)")
	_, err := store.SaveMany(SaveRequest{Documents: []domain.Document{stale}, Action: "edit"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConflict)

	var domainErr *errors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, []string{"/authors/A1"}, domainErr.Details)

	// Stored document is untouched
	got, err := store.Get("/authors/A1")
	require.NoError(t, err)
	assert.Equal(t, "Mark Twain", got.(*domain.Author).Name)
}

func TestSaveManyAllOrNothing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	mustSave(t, store, "seed", newAuthor("/authors/A1", "Mark Twain"))

	fresh := newAuthor("/authors/A2", "New Author")
	stale := newAuthor("/authors/A1", "Stale Edit") // revision 0, stored is 1

	_, err := store.SaveMany(SaveRequest{
		Documents: []domain.Document{fresh, stale},
		Action:    "edit",
	})
	assert.ErrorIs(t, err, errors.ErrConflict)

	// The fresh document must not have been written
	_, err = store.Get("/authors/A2")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	// And its meta must be back to unsaved state so the caller can re-plan
	assert.Equal(t, int64(0), fresh.Revision)
}

func TestSaveManyUpdateBumpsRevision(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	author := newAuthor("/authors/A1", "Mark Twain")
	mustSave(t, store, "seed", author)
	created := author.CreatedAt

	author.AddAlternateName("Samuel Clemens")
	mustSave(t, store, "edit", author)

	assert.Equal(t, int64(2), author.Revision)
	assert.Equal(t, created, author.CreatedAt)

	got, err := store.Get("/authors/A1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DocMeta().Revision)
}

func TestSaveManyRejectsDuplicateKeys(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.SaveMany(SaveRequest{
		Documents: []domain.Document{
			newAuthor("/authors/A1", "One"),
			newAuthor("/authors/A1", "Two"),
		},
		Action: "seed",
	})
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestThings(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	mustSave(t, store, "seed",
		newAuthor("/authors/A1", "Mark Twain"),
		newWork("/works/W1", "Tom Sawyer", "/authors/A1"),
		newEdition("/books/B1", []string{"/authors/A1"}, []string{"/works/W1"}),
		newEdition("/books/B2", []string{"/authors/A1"}, []string{"/works/W1"}),
		newEdition("/books/B3", []string{"/authors/other"}, nil))

	editions, err := store.Things(domain.KindEdition, FieldAuthors, "/authors/A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/books/B1", "/books/B2"}, editions)

	works, err := store.Things(domain.KindWork, FieldAuthors, "/authors/A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/works/W1"}, works)

	byWork, err := store.Things(domain.KindEdition, FieldWorks, "/works/W1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/books/B1", "/books/B2"}, byWork)
}

func TestThingsIndexFollowsRewrites(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	edition := newEdition("/books/B1", []string{"/authors/A2"}, nil)
	mustSave(t, store, "seed", edition)

	edition.Authors = []string{"/authors/A1"}
	mustSave(t, store, "merge-authors", edition)

	stale, err := store.Things(domain.KindEdition, FieldAuthors, "/authors/A2")
	require.NoError(t, err)
	assert.Empty(t, stale)

	current, err := store.Things(domain.KindEdition, FieldAuthors, "/authors/A1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/books/B1"}, current)
}

func TestResolveFollowsRedirects(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	mustSave(t, store, "seed", newAuthor("/authors/A1", "Mark Twain"))

	redirect := &domain.Redirect{Location: "/authors/A1"}
	redirect.Key = "/authors/A2"
	redirect.Kind = domain.KindRedirect
	mustSave(t, store, "merge-authors", redirect)

	doc, key, err := store.Resolve("/authors/A2")
	require.NoError(t, err)
	assert.Equal(t, "/authors/A1", key)
	assert.Equal(t, "Mark Twain", doc.(*domain.Author).Name)

	// Get does not follow the redirect
	raw, err := store.Get("/authors/A2")
	require.NoError(t, err)
	_, isRedirect := raw.(*domain.Redirect)
	assert.True(t, isRedirect)
}

func TestResolveCycleDetection(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	r1 := &domain.Redirect{Location: "/authors/A2"}
	r1.Key = "/authors/A1"
	r1.Kind = domain.KindRedirect
	r2 := &domain.Redirect{Location: "/authors/A1"}
	r2.Key = "/authors/A2"
	r2.Kind = domain.KindRedirect
	mustSave(t, store, "seed", r1, r2)

	_, _, err := store.Resolve("/authors/A1")
	assert.ErrorIs(t, err, errors.ErrInternal)
}

func TestRedirectDropsIndexEntries(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	work := newWork("/works/W1", "Tom Sawyer", "/authors/A1")
	mustSave(t, store, "seed", work)

	// Work replaced by a redirect stub, as in a work merge
	stub := &domain.Redirect{Location: "/works/W2"}
	stub.Key = "/works/W1"
	stub.Kind = domain.KindRedirect
	stub.Revision = work.Revision
	_, err := store.SaveMany(SaveRequest{Documents: []domain.Document{stub}, Action: "merge-works"})
	require.NoError(t, err)

	works, err := store.Things(domain.KindWork, FieldAuthors, "/authors/A1")
	require.NoError(t, err)
	assert.Empty(t, works)
}
