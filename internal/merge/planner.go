package merge

import (
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/domain"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/names"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// Planner computes merge plans. It only reads from the store; planning
// the same merge twice against an unmodified store yields structurally
// identical plans.
type Planner struct {
	store  *store.Store
	logger *slog.Logger
}

// NewPlanner creates a planner.
func NewPlanner(s *store.Store, logger *slog.Logger) *Planner {
	return &Planner{store: s, logger: logger}
}

// Plan computes every document mutation merging the duplicates into the
// master requires.
//
// The master must exist and not be a redirect. A duplicate that is
// already a redirect to the master is skipped (the merge is a re-run);
// a redirect anywhere else fails the plan. Any referenced edition or
// work that cannot be fetched fails the whole plan: a partial merge
// that leaves some editions pointing at a duplicate is a correctness
// violation, not a degraded success.
func (p *Planner) Plan(masterKey string, duplicateKeys []string) (*Plan, error) {
	master, err := p.fetchMaster(masterKey)
	if err != nil {
		return nil, err
	}

	duplicates := dedupeKeys(duplicateKeys, masterKey)
	if len(duplicates) == 0 {
		return nil, errors.Validation("no duplicate keys to merge")
	}

	switch master.DocMeta().Kind {
	case domain.KindAuthor:
		return p.planAuthors(master.(*domain.Author), duplicates)
	case domain.KindWork:
		return p.planWorks(master.(*domain.Work), duplicates)
	default:
		return nil, errors.InvalidMergeTargetf("cannot merge documents of kind %q", master.DocMeta().Kind)
	}
}

func (p *Planner) fetchMaster(key string) (domain.Document, error) {
	doc, err := p.store.Get(key)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, errors.InvalidMergeTargetf("master %s does not exist", key)
	}
	if err != nil {
		return nil, err
	}
	if _, isRedirect := doc.(*domain.Redirect); isRedirect {
		return nil, errors.InvalidMergeTargetf("master %s is a redirect", key)
	}
	return doc, nil
}

// planAuthors merges duplicate author records into the master author.
func (p *Planner) planAuthors(master *domain.Author, duplicates []string) (*Plan, error) {
	plan := &Plan{
		Master:     master.Key,
		Duplicates: duplicates,
		Kind:       domain.KindAuthor,
	}

	affectedEditions := newKeySet()
	affectedWorks := newKeySet()
	replaced := make(map[string]bool, len(duplicates))
	masterNeedsSave := false

	var redirects []domain.Document
	for _, dupKey := range duplicates {
		editions, err := p.store.Things(domain.KindEdition, store.FieldAuthors, dupKey)
		if err != nil {
			return nil, err
		}
		affectedEditions.addAll(editions)

		works, err := p.store.Things(domain.KindWork, store.FieldAuthors, dupKey)
		if err != nil {
			return nil, err
		}
		affectedWorks.addAll(works)

		dup, skip, err := p.fetchDuplicate(dupKey, master.Key)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		replaced[dupKey] = true

		dupAuthor, ok := dup.(*domain.Author)
		if !ok {
			return nil, errors.InvalidMergeTargetf("duplicate %s is a %s, master is an author",
				dupKey, dup.DocMeta().Kind)
		}

		// Fold the duplicate's names into the master's alternates. The
		// name matcher only classifies here; the curator already decided
		// these are the same person, so a non-match is logged, not fatal.
		if p.logger != nil && dupAuthor.Name != "" && !names.Match(master.Name, dupAuthor.Name) {
			p.logger.Warn("merging authors whose names do not match heuristically",
				"master", master.Key,
				"master_name", master.Name,
				"duplicate", dupKey,
				"duplicate_name", dupAuthor.Name)
		}
		if dupAuthor.Name != "" && dupAuthor.Name != master.Name {
			if master.AddAlternateName(dupAuthor.Name) {
				masterNeedsSave = true
			}
		}
		for _, alt := range dupAuthor.AlternateNames {
			if alt == master.Name {
				continue
			}
			if master.AddAlternateName(alt) {
				masterNeedsSave = true
			}
		}

		redirects = append(redirects, newRedirect(dupKey, master.Key, dup.DocMeta().Revision))
	}

	// Editions can reference an affected work without referencing any
	// duplicate author directly; pull those in before rewriting.
	for _, workKey := range affectedWorks.keys {
		editions, err := p.store.Things(domain.KindEdition, store.FieldWorks, workKey)
		if err != nil {
			return nil, err
		}
		affectedEditions.addAll(editions)
	}

	plan.Mutations = append(plan.Mutations, redirects...)

	workDocs, err := p.fetchAll(affectedWorks.keys)
	if err != nil {
		return nil, err
	}
	for _, workKey := range affectedWorks.keys {
		work, ok := workDocs[workKey].(*domain.Work)
		if !ok {
			return nil, errors.Internalf("indexed document %s is not a work", workKey)
		}
		if rewritten, changed := domain.RewriteRefs(work.Authors, master.Key, replaced); changed {
			work.Authors = rewritten
			plan.Mutations = append(plan.Mutations, work)
		}
	}

	editionDocs, err := p.fetchAll(affectedEditions.keys)
	if err != nil {
		return nil, err
	}
	for _, editionKey := range affectedEditions.keys {
		edition, ok := editionDocs[editionKey].(*domain.Edition)
		if !ok {
			return nil, errors.Internalf("indexed document %s is not an edition", editionKey)
		}
		if rewritten, changed := domain.RewriteRefs(edition.Authors, master.Key, replaced); changed {
			edition.Authors = rewritten
			plan.Mutations = append(plan.Mutations, edition)
		}
	}

	if masterNeedsSave {
		plan.Mutations = append(plan.Mutations, master)
	}

	if p.logger != nil {
		p.logger.Info("merge plan computed",
			"master", master.Key,
			"duplicates", len(duplicates),
			"works", affectedWorks.len(),
			"editions", affectedEditions.len(),
			"mutations", len(plan.Mutations))
	}
	return plan, nil
}

// planWorks merges duplicate work records into the master work.
// Editions referencing a duplicate work are repointed; works carry no
// alternate-name list, so the master itself is only written if an
// edition rewrite requires it (it never does today).
func (p *Planner) planWorks(master *domain.Work, duplicates []string) (*Plan, error) {
	plan := &Plan{
		Master:     master.Key,
		Duplicates: duplicates,
		Kind:       domain.KindWork,
	}

	affectedEditions := newKeySet()
	replaced := make(map[string]bool, len(duplicates))

	for _, dupKey := range duplicates {
		editions, err := p.store.Things(domain.KindEdition, store.FieldWorks, dupKey)
		if err != nil {
			return nil, err
		}
		affectedEditions.addAll(editions)

		dup, skip, err := p.fetchDuplicate(dupKey, master.Key)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		replaced[dupKey] = true

		if _, ok := dup.(*domain.Work); !ok {
			return nil, errors.InvalidMergeTargetf("duplicate %s is a %s, master is a work",
				dupKey, dup.DocMeta().Kind)
		}

		plan.Mutations = append(plan.Mutations, newRedirect(dupKey, master.Key, dup.DocMeta().Revision))
	}

	editionDocs, err := p.fetchAll(affectedEditions.keys)
	if err != nil {
		return nil, err
	}
	for _, editionKey := range affectedEditions.keys {
		edition, ok := editionDocs[editionKey].(*domain.Edition)
		if !ok {
			return nil, errors.Internalf("indexed document %s is not an edition", editionKey)
		}
		if rewritten, changed := domain.RewriteRefs(edition.Works, master.Key, replaced); changed {
			edition.Works = rewritten
			plan.Mutations = append(plan.Mutations, edition)
		}
	}

	if p.logger != nil {
		p.logger.Info("merge plan computed",
			"master", master.Key,
			"duplicates", len(duplicates),
			"editions", affectedEditions.len(),
			"mutations", len(plan.Mutations))
	}
	return plan, nil
}

// fetchDuplicate resolves one duplicate key. skip is true when the
// duplicate is already a redirect to the master, which makes this merge
// a re-run for that key.
func (p *Planner) fetchDuplicate(dupKey, masterKey string) (doc domain.Document, skip bool, err error) {
	doc, err = p.store.Get(dupKey)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, false, errors.MissingReferencef("duplicate %s does not exist", dupKey)
	}
	if err != nil {
		return nil, false, err
	}

	if redirect, ok := doc.(*domain.Redirect); ok {
		if redirect.Location == masterKey {
			if p.logger != nil {
				p.logger.Debug("duplicate already merged", "duplicate", dupKey, "master", masterKey)
			}
			return nil, true, nil
		}
		return nil, false, errors.InvalidMergeTargetf("duplicate %s already redirects to %s",
			dupKey, redirect.Location)
	}
	return doc, false, nil
}

// fetchAll loads every key and fails on the first one missing. A
// referenced document that cannot be fetched aborts the plan.
func (p *Planner) fetchAll(keys []string) (map[string]domain.Document, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	docs, err := p.store.GetMany(keys)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		if _, ok := docs[key]; !ok {
			return nil, errors.MissingReferencef("referenced document %s cannot be fetched", key)
		}
	}
	return docs, nil
}

func newRedirect(key, location string, revision int64) *domain.Redirect {
	r := &domain.Redirect{Location: location}
	r.Key = key
	r.Kind = domain.KindRedirect
	r.Revision = revision
	return r
}

// dedupeKeys drops repeated duplicate keys and any accidental
// occurrence of the master itself, preserving order.
func dedupeKeys(keys []string, master string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" || key == master || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}

// keySet is an insertion-ordered string set.
type keySet struct {
	keys []string
	seen map[string]bool
}

func newKeySet() *keySet {
	return &keySet{seen: make(map[string]bool)}
}

func (s *keySet) addAll(keys []string) {
	for _, key := range keys {
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.keys = append(s.keys, key)
	}
}

func (s *keySet) len() int { return len(s.keys) }
