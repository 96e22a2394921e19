package orchestrator

import (
	"context"
	"fmt"

	"github.com/gofrs/flock"
)

// acquireRunLock takes the per-fabric flock. Exactly one live orchestration
// per fabric is allowed; a second invocation fails immediately instead of
// queueing behind a possibly long-running one.
func (o *Orchestrator) acquireRunLock(_ context.Context) (func(), error) {
	if err := o.conf.EnsureDirs(); err != nil {
		return nil, err
	}
	fl := flock.New(o.conf.RunLockPath())
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("another invocation holds %s — one orchestration per fabric", fl.Path())
	}
	return func() { _ = fl.Unlock() }, nil
}
