package photomanager

import (
	"github.com/cluain/photomanager/internal/cleaner"
)

// Clean removes stored files of superseded variants once their uid's
// current primary verifies against disk. Refusals (a uid whose primary
// does not verify) are reported per-uid without aborting the batch.
// The catalog is saved once after the pass, unless dryRun is set.
func (m *manager) Clean(destination string, dryRun bool) ([]cleaner.Action, error) {
	m.recordCommand("clean", destination)

	actions := cleaner.Run(m.cat, cleaner.Options{
		Destination: mustAbsFilepath(destination),
		Algo:        m.algo,
		DryRun:      dryRun,
	})

	if dryRun {
		return actions, nil
	}
	if err := m.PersistChanges(); err != nil {
		return actions, err
	}
	return actions, nil
}
