package photomanager

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cluain/photomanager/internal/collector"
	"github.com/cluain/photomanager/internal/errs"
)

// Collect copies the primary variant of every uid into destination.
// The catalog is saved once after the full pass; the collector's
// filesystem copies are individually logged to the rollback log so
// RollbackAllFilesystemChanges can unwind a partially failed pass.
func (m *manager) Collect(destination string, collectDB bool) ([]collector.Result, error) {
	m.recordCommand("collect", destination)

	dest := mustAbsFilepath(destination)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, errs.New(errs.IoError, "mkdir-destination", dest, err)
	}

	results := collector.Run(m.cat, dest)

	for _, r := range results {
		switch r.Status {
		case collector.Collected:
			sto := r.Sto
			m.rollbackLog = append(m.rollbackLog, func() error {
				return os.Remove(filepath.Join(dest, filepath.FromSlash(sto)))
			})
			m.log.Debug(context.Background(), "collect: stored", "uid", r.UID, "sto", sto)
		case collector.Uncollected:
			m.log.Warn(context.Background(), "collect: uncollected", "uid", r.UID, "error", r.Err)
		}
	}

	if err := m.PersistChanges(); err != nil {
		return results, err
	}

	if collectDB {
		if err := collector.WriteCatalogCopy(m.cat, dest, m.now()); err != nil {
			return results, err
		}
	}

	return results, nil
}
