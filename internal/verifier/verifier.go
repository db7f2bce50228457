// Package verifier recomputes digests for stored catalog variants and
// classifies them PASS/FAIL/MISSING without mutating anything.
package verifier

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/cluain/photomanager/internal/catalog"
	"github.com/cluain/photomanager/internal/digest"
)

// Classification is the per-file verification outcome.
type Classification int

const (
	Pass Classification = iota
	Fail
	Missing
)

func (c Classification) String() string {
	switch c {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	case Missing:
		return "MISSING"
	default:
		return "UNKNOWN"
	}
}

// Finding is the per-variant verification result.
type Finding struct {
	Sto            string
	Classification Classification
}

// Summary aggregates a verification pass.
type Summary struct {
	NPass      int
	NFail      int
	NMissing   int
	TotalBytes int64
	Findings   []Finding
}

// Options configures one verify pass.
type Options struct {
	Destination    string
	Subdir         string
	RandomFraction float64
	Algo           digest.Algorithm
	Concurrency    int
	// RandSource allows tests to make --random-fraction sampling
	// deterministic; nil uses the package-level default source.
	RandSource *rand.Rand
}

// Run verifies every stored variant in cat matching opts.Subdir and
// sampled at opts.RandomFraction (1.0 verifies everything).
func Run(cat *catalog.Catalog, opts Options) Summary {
	fraction := opts.RandomFraction
	if fraction <= 0 {
		fraction = 1.0
	}
	sample := rand.Float64
	if opts.RandSource != nil {
		sample = opts.RandSource.Float64
	}

	var toVerify []catalog.StoredEntry
	var paths []string
	for _, entry := range cat.StoredPhotos() {
		if opts.Subdir != "" && !strings.HasPrefix(entry.Photo.Sto, opts.Subdir) {
			continue
		}
		if fraction < 1.0 && sample() >= fraction {
			continue
		}
		toVerify = append(toVerify, entry)
		paths = append(paths, filepath.Join(opts.Destination, filepath.FromSlash(entry.Photo.Sto)))
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	existing := make([]string, 0, len(paths))
	existingIdx := make([]int, 0, len(paths))
	var summary Summary
	for i, p := range paths {
		if _, err := os.Stat(p); err != nil {
			summary.NMissing++
			summary.Findings = append(summary.Findings, Finding{Sto: toVerify[i].Photo.Sto, Classification: Missing})
			continue
		}
		existing = append(existing, p)
		existingIdx = append(existingIdx, i)
	}

	results := digest.HashBatch(existing, opts.Algo, concurrency)
	for j, p := range existing {
		i := existingIdx[j]
		entry := toVerify[i]
		result := results[p]

		if result.Err != nil {
			summary.NMissing++
			summary.Findings = append(summary.Findings, Finding{Sto: entry.Photo.Sto, Classification: Missing})
			continue
		}
		if result.Digest == entry.Photo.Chk {
			summary.NPass++
			summary.TotalBytes += result.Size
			summary.Findings = append(summary.Findings, Finding{Sto: entry.Photo.Sto, Classification: Pass})
		} else {
			summary.NFail++
			summary.Findings = append(summary.Findings, Finding{Sto: entry.Photo.Sto, Classification: Fail})
		}
	}

	return summary
}
