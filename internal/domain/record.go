package domain

// BibRecord is a decoded bibliographic record from any upstream source
// (MARC catalog, bookseller feed, ONIX). Records arrive already decoded
// by the source crawlers; this engine never parses the wire formats
// itself. A record is immutable once read.
//
// Every field except Key is optional. Missing list fields are nil, not
// empty slices, and callers must not distinguish the two.
type BibRecord struct {
	Key         string   `json:"key"`
	Title       string   `json:"title,omitempty"`
	TitlePrefix string   `json:"title_prefix,omitempty"`
	Subtitle    string   `json:"subtitle,omitempty"`
	ISBN10      []string `json:"isbn_10,omitempty"`
	ISBN13      []string `json:"isbn_13,omitempty"`
	LCCN        []string `json:"lccn,omitempty"`
	OCLCNumbers []string `json:"oclc_numbers,omitempty"`
	Authors     []string `json:"authors,omitempty"` // author display names as credited by the source
	Source      string   `json:"source,omitempty"`  // e.g. "marc", "onix", "amazon"
}
