// Package main provides the merge entrypoint: plan a merge, inspect the
// plan, and optionally commit it.
//
// By default the plan is printed and nothing is written; pass --execute
// to commit. A conflict on execute means the store moved since
// planning; re-run to plan against current state.
//
// Usage:
//
//	merge --master /authors/A1 --duplicates /authors/A2,/authors/A3
//	merge --master /authors/A1 --duplicates /authors/A2 --execute --merge-comment "dup pair 1138"
package main

import (
	"encoding/json/v2"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/samber/do/v2"

	"github.com/shelfmarkapp/shelfmark-server/internal/di"
	"github.com/shelfmarkapp/shelfmark-server/internal/errors"
	"github.com/shelfmarkapp/shelfmark-server/internal/logger"
	"github.com/shelfmarkapp/shelfmark-server/internal/merge"
)

//nolint:gochecknoglobals // Command-line flags
var (
	masterFlag     = flag.String("master", "", "Key of the surviving master document")
	duplicatesFlag = flag.String("duplicates", "", "Comma-separated keys of the duplicates to merge away")
	executeFlag    = flag.Bool("execute", false, "Commit the plan (default is plan-only)")
	commentFlag    = flag.String("merge-comment", "", "Comment recorded on the changeset")
)

// planSummary is the plan-only output format.
type planSummary struct {
	Master     string         `json:"master"`
	Duplicates []string       `json:"duplicates"`
	Action     string         `json:"action"`
	Mutations  []mutationLine `json:"mutations"`
}

type mutationLine struct {
	Key  string `json:"key"`
	Kind string `json:"kind"`
}

func main() {
	injector := di.NewContainer()
	defer di.Shutdown(injector) //nolint:errcheck // Best-effort close on exit

	log := do.MustInvoke[*logger.Logger](injector)
	svc := do.MustInvoke[*merge.Service](injector)

	req := merge.Request{
		Master:  *masterFlag,
		Comment: *commentFlag,
	}
	for _, key := range strings.Split(*duplicatesFlag, ",") {
		if key = strings.TrimSpace(key); key != "" {
			req.Duplicates = append(req.Duplicates, key)
		}
	}

	if !*executeFlag {
		plan, err := svc.Plan(req)
		if err != nil {
			log.Fatal("planning failed", "error", err.Error())
		}
		printPlan(plan)
		if plan.Empty() {
			log.Info("nothing to do, merge already committed")
		} else {
			log.Info("plan only, pass --execute to commit",
				"mutations", len(plan.Mutations))
		}
		return
	}

	cs, err := svc.Merge(req)
	if errors.Is(err, errors.ErrConflict) {
		log.Fatal("store changed since planning, re-run to plan against current state",
			"error", err.Error())
	}
	if err != nil {
		log.Fatal("merge failed", "error", err.Error())
	}
	if cs == nil {
		log.Info("nothing to do, merge already committed")
		return
	}

	log.Info("merge committed",
		"changeset", cs.ID,
		"documents", len(cs.Touched))
}

func printPlan(plan *merge.Plan) {
	summary := planSummary{
		Master:     plan.Master,
		Duplicates: plan.Duplicates,
		Action:     plan.Action(),
		Mutations:  make([]mutationLine, 0, len(plan.Mutations)),
	}
	for _, doc := range plan.Mutations {
		meta := doc.DocMeta()
		summary.Mutations = append(summary.Mutations, mutationLine{
			Key:  meta.Key,
			Kind: string(meta.Kind),
		})
	}

	out, err := json.Marshal(summary, json.Deterministic(true))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render plan: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
