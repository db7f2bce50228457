package photomanager

import (
	"context"

	"github.com/cluain/photomanager/internal/indexer"
)

// Index discovers media under roots and merges the results into the
// catalog in memory. Changes need to be committed with
// PersistChanges.
func (m *manager) Index(roots []string, opts IndexOptions) ([]indexer.Outcome, error) {
	m.recordCommand("index", roots...)

	outcomes, err := indexer.Run(m.cat, indexer.Options{
		Roots:           roots,
		Excludes:        opts.Excludes,
		Priority:        opts.Priority,
		DigestAlgo:      m.algo,
		DigestWorkers:   opts.StorageClass.DigestWorkers(),
		ExifWorkers:     opts.StorageClass.ExifWorkers(),
		SkipExisting:    opts.SkipExisting,
		TimezoneDefault: m.cat.TimezoneDefault,
		Integrity:       opts.Integrity,
	})

	for _, o := range outcomes {
		if o.Err != nil {
			m.log.Warn(context.Background(), "index: per-path failure", "path", o.Path, "error", o.Err)
			continue
		}
		m.log.Debug(context.Background(), "index: resolved", "path", o.Path, "uid", o.UID, "outcome", o.Added.String())
	}

	return outcomes, err
}
