package topology

import (
	"fmt"

	"github.com/projectloom/loom/types"
)

var errNotSupported = fmt.Errorf("%w: network namespace operations require linux", ErrResourceUnavailable)

func detectConflicts(_ *types.FabricSpec) error { return errNotSupported }

func createNetns(_ string) error { return errNotSupported }

func deleteNetns(_ string) error { return errNotSupported }

func netnsExists(_ string) bool { return false }

func createVethPair(_, _ string) error { return errNotSupported }

func moveIntoNetns(_, _ string) error { return errNotSupported }

func configureInNetns(_, _, _ string) error { return errNotSupported }

func linkUp(_ string) error { return errNotSupported }

func deleteLink(_ string) error { return errNotSupported }
