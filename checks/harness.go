// Package checks runs the post-startup verification battery against the
// live fabric. Checks are scored independently and always run to
// completion — a failing check never skips the rest.
package checks

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"
)

// Check is one verification step. Run returns a detail string for the
// scorecard; a non-nil error marks the check failed.
type Check struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
}

// Result is one scored check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Scorecard is the ordered outcome of a battery run.
type Scorecard struct {
	Results []Result `json:"results"`
	Passed  int      `json:"passed"`
	Failed  int      `json:"failed"`
}

// Ok reports whether every check passed.
func (s Scorecard) Ok() bool { return s.Failed == 0 }

// FailureError signals that at least one check failed. The fabric is left
// running — the scorecard is for diagnosis, not rollback.
type FailureError struct {
	Scorecard Scorecard
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("verification failed: %d/%d checks passed",
		e.Scorecard.Passed, e.Scorecard.Passed+e.Scorecard.Failed)
}

// Run executes every check in order and scores each independently.
func Run(ctx context.Context, battery []Check) Scorecard {
	logger := log.WithFunc("checks.Run")
	card := Scorecard{Results: make([]Result, 0, len(battery))}
	for _, check := range battery {
		detail, err := check.Run(ctx)
		res := Result{Name: check.Name, Passed: err == nil, Detail: detail}
		if err != nil {
			res.Detail = err.Error()
			card.Failed++
			logger.Warnf(ctx, "FAIL %s: %v", check.Name, err)
		} else {
			card.Passed++
			logger.Infof(ctx, "PASS %s: %s", check.Name, detail)
		}
		card.Results = append(card.Results, res)
	}
	return card
}
