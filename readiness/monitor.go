package readiness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Observation is the final state of one signal after a wait.
type Observation struct {
	Name      string `json:"name"`
	Satisfied bool   `json:"satisfied"`
	// Detail is the last thing the signal reported — for unsatisfied
	// signals this is the diagnosis the operator needs.
	Detail   string `json:"detail"`
	Attempts int    `json:"attempts"`
}

// Report is the outcome of AwaitReady: per-signal partial satisfaction
// rather than a single boolean, so callers can proceed degraded or abort
// with full knowledge of what never happened.
type Report struct {
	Observations []Observation `json:"observations"`
	Elapsed      time.Duration `json:"elapsed"`
}

// AllSatisfied reports whether every signal was observed.
func (r Report) AllSatisfied() bool {
	for _, o := range r.Observations {
		if !o.Satisfied {
			return false
		}
	}
	return true
}

// SatisfiedCount returns how many signals were observed.
func (r Report) SatisfiedCount() int {
	n := 0
	for _, o := range r.Observations {
		if o.Satisfied {
			n++
		}
	}
	return n
}

// Unsatisfied lists the names of signals that were never observed.
func (r Report) Unsatisfied() []string {
	var names []string
	for _, o := range r.Observations {
		if !o.Satisfied {
			names = append(names, o.Name)
		}
	}
	return names
}

// TimeoutError carries the partial-satisfaction report past a failed wait.
type TimeoutError struct {
	Report  Report
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("readiness timeout after %s: %d/%d signals observed, missing: %s",
		e.Timeout, e.Report.SatisfiedCount(), len(e.Report.Observations),
		strings.Join(e.Report.Unsatisfied(), "; "))
}

// AwaitReady polls every signal at interval until all are satisfied or
// timeout elapses. Signals are independent: each is polled on its own
// goroutine and a satisfied signal stays satisfied. The wait is bounded by
// timeout plus one interval, never longer. The returned Report always has
// one Observation per signal, in input order; inspect AllSatisfied to
// decide whether to proceed.
func AwaitReady(ctx context.Context, signals []Signal, timeout, interval time.Duration) Report {
	start := time.Now()
	report := Report{Observations: make([]Observation, len(signals))}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var eg errgroup.Group
	for i, sig := range signals {
		i, sig := i, sig
		eg.Go(func() error {
			obs := &report.Observations[i]
			obs.Name = sig.Name()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				obs.Attempts++
				ok, detail := sig.Check(ctx)
				obs.Detail = detail
				if ok {
					obs.Satisfied = true
					return nil
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		})
	}
	_ = eg.Wait() // pollers never return errors; partiality lives in the report

	report.Elapsed = time.Since(start)
	return report
}
