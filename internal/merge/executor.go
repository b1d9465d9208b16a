package merge

import (
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/store"
)

// Executor commits merge plans. One plan, one SaveMany call; the
// store's all-or-nothing contract is what makes an aborted merge leave
// the corpus untouched.
type Executor struct {
	store  *store.Store
	logger *slog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(s *store.Store, logger *slog.Logger) *Executor {
	return &Executor{store: s, logger: logger}
}

// Execute commits the plan and returns the persisted changeset. An
// empty plan (the merge already committed) returns (nil, nil).
//
// A conflict means a touched document moved since the plan was
// computed. The executor never retries: a blind retry could re-apply a
// rewrite that is wrong against the new state. The caller re-plans.
func (e *Executor) Execute(plan *Plan, comment string) (*store.Changeset, error) {
	if plan.Empty() {
		if e.logger != nil {
			e.logger.Info("merge plan has no mutations, nothing to commit",
				"master", plan.Master)
		}
		return nil, nil
	}

	cs, err := e.store.SaveMany(store.SaveRequest{
		Documents: plan.Mutations,
		Action:    plan.Action(),
		Comment:   comment,
		Data: store.ChangesetData{
			Master:     plan.Master,
			Duplicates: plan.Duplicates,
		},
	})
	if errors.Is(err, errors.ErrConflict) {
		if e.logger != nil {
			e.logger.Warn("merge plan is stale, caller must re-plan",
				"master", plan.Master,
				"error", err.Error())
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if e.logger != nil {
		e.logger.Info("merge committed",
			"changeset", cs.ID,
			"action", cs.Action,
			"master", plan.Master,
			"duplicates", len(plan.Duplicates),
			"documents", len(cs.Touched))
	}
	return cs, nil
}
