package executor

import (
	"fmt"
	"os"

	"github.com/vk/proofgridgo/internal/apperrors"
	"github.com/vk/proofgridgo/internal/store"
)

// needsRebuild decides whether target must be (re)produced: it is stale if
// it does not exist or any direct producer is strictly newer. A missing
// producer is an error, not a silent skip — generated producers are built
// by the caller before this check, so anything absent here is a missing
// input and the unit's chain must fail.
func needsRebuild(st store.Store, target store.Artifact, producers []store.Artifact) (bool, error) {
	targetTime, targetExists, err := st.Stat(target.Path)
	if err != nil {
		return false, apperrors.IO(target.Unit, "stat "+target.Path, err)
	}

	stale := !targetExists
	for _, producer := range producers {
		producerTime, producerExists, err := st.Stat(producer.Path)
		if err != nil {
			return false, apperrors.IO(target.Unit, "stat "+producer.Path, err)
		}
		if !producerExists {
			return false, apperrors.IO(target.Unit,
				fmt.Sprintf("missing %s %s", producer.Kind, producer.Path), os.ErrNotExist)
		}
		if targetExists && producerTime.After(targetTime) {
			stale = true
		}
	}
	return stale, nil
}
