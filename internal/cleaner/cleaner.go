// Package cleaner removes stored files for superseded variants once a
// uid's current primary is confirmed present and correct on disk.
package cleaner

import (
	"os"
	"path/filepath"

	"github.com/cluain/photomanager/internal/catalog"
	"github.com/cluain/photomanager/internal/digest"
	"github.com/cluain/photomanager/internal/errs"
)

// Action records what the cleaner did (or would do, in dry-run) for
// one superseded variant.
type Action struct {
	UID     string
	Sto     string
	Removed bool
	Err     error
}

// Options configures one clean pass.
type Options struct {
	Destination string
	Algo        digest.Algorithm
	DryRun      bool
}

// Run walks every uid with more than one stored variant. For a uid
// whose current primary (BestPhotos[0]) verifies against disk, it
// removes the stored files of any other variant still carrying a
// non-empty Sto and clears Sto on those in memory. A uid whose primary
// does not verify is skipped and reported as an error, without
// aborting the rest of the batch.
func Run(cat *catalog.Catalog, opts Options) []Action {
	var actions []Action
	for _, uid := range cat.UIDs() {
		variants := cat.BestPhotos(uid)
		if len(variants) == 0 {
			continue
		}

		primary := variants[0]
		var extras []*catalog.PhotoFile
		for _, v := range variants[1:] {
			if v.Sto != "" {
				extras = append(extras, v)
			}
		}
		if primary.Sto == "" || len(extras) == 0 {
			continue
		}

		if !verifyOne(opts.Destination, primary, opts.Algo) {
			actions = append(actions, Action{
				UID: uid, Sto: primary.Sto,
				Err: errs.New(errs.VerificationMismatch, "clean", primary.Sto, nil),
			})
			continue
		}

		for _, v := range extras {
			actions = append(actions, removeExtra(uid, v, opts))
		}
	}
	return actions
}

func verifyOne(destination string, v *catalog.PhotoFile, algo digest.Algorithm) bool {
	path := filepath.Join(destination, filepath.FromSlash(v.Sto))
	got, _, err := digest.HashFile(path, algo)
	return err == nil && got == v.Chk
}

func removeExtra(uid string, v *catalog.PhotoFile, opts Options) Action {
	sto := v.Sto
	if opts.DryRun {
		return Action{UID: uid, Sto: sto, Removed: false}
	}

	target := filepath.Join(opts.Destination, filepath.FromSlash(sto))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return Action{UID: uid, Sto: sto, Err: errs.New(errs.IoError, "remove", target, err)}
	}
	v.Sto = ""
	return Action{UID: uid, Sto: sto, Removed: true}
}
