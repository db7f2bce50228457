// Package indexer discovers media files, fingerprints them with the
// digest engine and metadata extractor in parallel, resolves a
// capture datetime, and merges the result into a catalog.
package indexer

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/multierr"

	"github.com/cluain/photomanager/internal/catalog"
	"github.com/cluain/photomanager/internal/dateresolve"
	"github.com/cluain/photomanager/internal/digest"
	"github.com/cluain/photomanager/internal/errs"
	"github.com/cluain/photomanager/internal/exif"
)

// Outcome pairs a catalog add outcome with the path it came from, for
// per-path reporting.
type Outcome struct {
	Path  string
	UID   string
	Added catalog.AddOutcome
	Err   error
}

// Options configures one indexing run.
type Options struct {
	Roots           []string
	Excludes        []string
	Priority        int
	DigestAlgo      digest.Algorithm
	DigestWorkers   int
	ExifWorkers     int
	SkipExisting    bool
	TimezoneDefault string
	// Integrity, when set, is checked against each candidate path before
	// hashing. A false result routes the path to the per-path result
	// stream as damaged rather than adding it.
	Integrity func(path string) (bool, error)
}

// Run discovers files under opts.Roots, fingerprints them, and adds
// each resulting candidate to cat. It returns one Outcome per
// discovered path that SkipExisting did not filter out (order is not
// guaranteed; callers that need determinism should sort on Path) and
// an aggregated error combining every per-path failure. A failure to
// discover the roots or to start the metadata extractor aborts the
// run: it is returned with nil outcomes. Otherwise a non-nil error
// means the run completed with per-path failures; see errs for
// fatal-vs-accumulated semantics.
func Run(cat *catalog.Catalog, opts Options) ([]Outcome, error) {
	candidates, err := discover(opts.Roots, opts.Excludes)
	if err != nil {
		return nil, err
	}
	sort.Strings(candidates)

	if opts.SkipExisting {
		candidates = filterExisting(cat, candidates)
	}

	extractor, err := exif.New(opts.ExifWorkers)
	if err != nil {
		return nil, err
	}
	defer extractor.Close()

	var aggregated error
	outcomes := make([]Outcome, 0, len(candidates))

	toHash := candidates
	if opts.Integrity != nil {
		var clean []string
		for _, path := range candidates {
			ok, ierr := opts.Integrity(path)
			if ierr != nil {
				aggregated = multierr.Append(aggregated, ierr)
				outcomes = append(outcomes, Outcome{Path: path, Err: ierr})
				continue
			}
			if !ok {
				ierr := errs.New(errs.IoError, "integrity-check", path, nil)
				aggregated = multierr.Append(aggregated, ierr)
				outcomes = append(outcomes, Outcome{Path: path, Err: ierr})
				continue
			}
			clean = append(clean, path)
		}
		toHash = clean
	}

	var digests map[string]digest.Result
	hashed := make(chan struct{})
	go func() {
		digests = digest.HashBatch(toHash, opts.DigestAlgo, opts.DigestWorkers)
		close(hashed)
	}()
	records, exifErr := extractor.ExtractBatch(toHash)
	<-hashed
	if exifErr != nil {
		aggregated = multierr.Append(aggregated, exifErr)
	}

	for _, path := range toHash {
		result := digests[path]
		if result.Err != nil {
			aggregated = multierr.Append(aggregated, result.Err)
			outcomes = append(outcomes, Outcome{Path: path, Err: result.Err})
			continue
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			wrapped := errs.New(errs.IoError, "stat", path, statErr)
			aggregated = multierr.Append(aggregated, wrapped)
			outcomes = append(outcomes, Outcome{Path: path, Err: wrapped})
			continue
		}

		rec := records[path]
		dt, ts, tzo, dateErr := dateresolve.Resolve(rec, path, info.ModTime(), opts.TimezoneDefault)
		if dateErr != nil {
			aggregated = multierr.Append(aggregated, dateErr)
			outcomes = append(outcomes, Outcome{Path: path, Err: dateErr})
			continue
		}

		prio := opts.Priority
		if prio == 0 {
			prio = catalog.DefaultPriority
		}

		candidate := &catalog.PhotoFile{
			Chk:  result.Digest,
			Src:  path,
			Dt:   dt,
			Ts:   ts,
			Fsz:  result.Size,
			Prio: prio,
			Tzo:  tzo,
		}

		uid, outcome := cat.Add(candidate)
		outcomes = append(outcomes, Outcome{Path: path, UID: uid, Added: outcome})
	}

	return outcomes, aggregated
}

func filterExisting(cat *catalog.Catalog, candidates []string) []string {
	known := make(map[string]bool)
	for _, variants := range cat.PhotoDB {
		for _, v := range variants {
			known[v.Src] = true
		}
	}
	out := candidates[:0:0]
	for _, c := range candidates {
		if !known[c] {
			out = append(out, c)
		}
	}
	return out
}

// discover walks roots and returns every matching candidate as an
// absolute path, since catalog.PhotoFile.Src must be stable across
// future runs regardless of the working directory a root was given
// relative to.
func discover(roots []string, excludes []string) ([]string, error) {
	var out []string
	for _, givenRoot := range roots {
		root, err := filepath.Abs(givenRoot)
		if err != nil {
			return nil, errs.New(errs.IoError, "abs-root", givenRoot, err)
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, errs.New(errs.IoError, "stat-root", root, err)
		}
		if !info.IsDir() {
			if !hasMediaExtension(filepath.Base(root)) || excluded(filepath.Base(root), excludes) {
				continue
			}
			out = append(out, root)
			continue
		}

		walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if !hasMediaExtension(d.Name()) {
				return nil
			}
			if excluded(d.Name(), excludes) {
				return nil
			}
			out = append(out, p)
			return nil
		})
		if walkErr != nil {
			return nil, errs.New(errs.IoError, "walk-root", root, walkErr)
		}
	}
	return out, nil
}

func excluded(basename string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, basename); err == nil && matched {
			return true
		}
	}
	return false
}
