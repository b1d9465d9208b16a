// Package domain defines the catalog's document types: authors, works,
// editions, redirect stubs, and the raw bibliographic records they are
// built from.
package domain

import "time"

// Kind discriminates the document types stored in the catalog.
type Kind string

const (
	KindAuthor   Kind = "author"
	KindWork     Kind = "work"
	KindEdition  Kind = "edition"
	KindRedirect Kind = "redirect"
)

// IsValid checks if the kind is a recognized value.
func (k Kind) IsValid() bool {
	switch k {
	case KindAuthor, KindWork, KindEdition, KindRedirect:
		return true
	default:
		return false
	}
}

// Meta carries the envelope fields every stored document shares.
// Revision starts at 0 for a document that has never been saved and is
// bumped by the store on every committed write. A save whose Revision
// does not match the stored revision is rejected as stale.
type Meta struct {
	Key       string    `json:"key"`
	Kind      Kind      `json:"kind"`
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (m *Meta) Touch() {
	m.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new document.
func (m *Meta) InitTimestamps() {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
}

// Document is implemented by every storable catalog type.
type Document interface {
	DocMeta() *Meta
}

// DocMeta implements Document.
func (m *Meta) DocMeta() *Meta { return m }
