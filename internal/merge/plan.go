// Package merge plans and executes duplicate-entity merges: duplicates
// become redirect stubs, every edition and work referencing them is
// rewritten to the surviving master, and the whole mutation set commits
// atomically with an audit changeset.
package merge

import (
	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
)

// Merge actions recorded on changesets.
const (
	ActionMergeAuthors = "merge-authors"
	ActionMergeWorks   = "merge-works"
)

// Request identifies a merge: the surviving master and the duplicates
// to fold into it. Pairs come from the candidate review step.
type Request struct {
	Master     string   `json:"master"     validate:"required,dockey"`
	Duplicates []string `json:"duplicates" validate:"required,min=1,dive,required,dockey"`
	Comment    string   `json:"comment,omitempty"`
}

// Plan is the full set of document mutations one merge requires. It is
// computed read-only and can be inspected or diffed before committing;
// nothing has been written until Execute.
type Plan struct {
	Master     string
	Duplicates []string
	Kind       domain.Kind
	Mutations  []domain.Document
}

// Action returns the changeset action for the plan's entity kind.
func (p *Plan) Action() string {
	if p.Kind == domain.KindWork {
		return ActionMergeWorks
	}
	return ActionMergeAuthors
}

// Empty reports whether the plan has nothing to write, which happens
// when the requested merge already committed.
func (p *Plan) Empty() bool {
	return len(p.Mutations) == 0
}
