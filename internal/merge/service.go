package merge

import (
	"log/slog"

	"github.com/shelfmarkapp/shelfmark-server/internal/store"
	"github.com/shelfmarkapp/shelfmark-server/internal/validation"
)

// Service ties request validation, planning, and execution together for
// the merge entrypoints.
type Service struct {
	planner   *Planner
	executor  *Executor
	validator *validation.Validator
}

// NewService creates a merge service.
func NewService(s *store.Store, logger *slog.Logger) *Service {
	return &Service{
		planner:   NewPlanner(s, logger),
		executor:  NewExecutor(s, logger),
		validator: validation.New(),
	}
}

// Plan validates the request and computes its plan without writing.
func (s *Service) Plan(req Request) (*Plan, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.planner.Plan(req.Master, req.Duplicates)
}

// Merge validates, plans, and commits in one call. Returns the
// persisted changeset, or nil when there was nothing left to do.
func (s *Service) Merge(req Request) (*store.Changeset, error) {
	plan, err := s.Plan(req)
	if err != nil {
		return nil, err
	}
	return s.executor.Execute(plan, req.Comment)
}
