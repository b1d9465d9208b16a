package domain

// Work groups editions under shared authorship and subject metadata.
type Work struct {
	Meta
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"` // author keys, ordered, deduplicated
	Subjects      []string `json:"subjects,omitempty"`
	SubjectPlaces []string `json:"subject_places,omitempty"`
	SubjectTimes  []string `json:"subject_times,omitempty"`
	SubjectPeople []string `json:"subject_people,omitempty"`
}

// Edition is a specific published instance of a work.
type Edition struct {
	Meta
	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"` // author keys
	Works   []string `json:"works,omitempty"`   // work keys, normally exactly one
}

// Redirect is the tombstone left in place of a merged-away duplicate.
// Readers must treat it as "this key has moved to Location".
type Redirect struct {
	Meta
	Location string `json:"location"`
}

// RewriteRefs replaces every occurrence of a key in replaced with
// master, deduplicating so master never appears twice even when an
// original direct reference and a rewritten duplicate reference would
// collide. First-seen order of the survivors is preserved. Used on
// author lists during author merges and on edition work lists during
// work merges.
//
// Returns the rewritten list and whether anything changed.
func RewriteRefs(refs []string, master string, replaced map[string]bool) ([]string, bool) {
	changed := false
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, key := range refs {
		if replaced[key] {
			key = master
			changed = true
		}
		if seen[key] {
			// Collapsed onto an entry already in the list.
			changed = true
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out, changed
}
