package photomanager

import (
	"github.com/cluain/photomanager/internal/verifier"
)

// Verify recomputes digests for every stored variant under
// destination and classifies each PASS/FAIL/MISSING. It mutates
// nothing.
func (m *manager) Verify(destination string, opts VerifyOptions) (verifier.Summary, error) {
	m.recordCommand("verify", destination)

	summary := verifier.Run(m.cat, verifier.Options{
		Destination:    mustAbsFilepath(destination),
		Subdir:         opts.Subdir,
		RandomFraction: opts.RandomFraction,
		Algo:           m.algo,
		Concurrency:    opts.StorageClass.DigestWorkers(),
	})

	return summary, nil
}
