// Package digest implements the content-fingerprinting engine: a
// streaming single-file hasher under a selectable algorithm, and a
// parallel batch API whose concurrency is an explicit parameter rather
// than a property of the algorithm.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/zeebo/blake3"

	"github.com/cluain/photomanager/internal/errs"
)

// Algorithm identifies one of the three supported digest functions.
type Algorithm int

const (
	BLAKE2b256 Algorithm = iota
	BLAKE3
	SHA256
)

// String returns the catalog's on-disk spelling for the algorithm.
func (a Algorithm) String() string {
	switch a {
	case BLAKE2b256:
		return "blake2b-256"
	case BLAKE3:
		return "blake3"
	case SHA256:
		return "sha256"
	default:
		return "unknown"
	}
}

// ParseAlgorithm converts a catalog's on-disk algorithm name back to an
// Algorithm.
func ParseAlgorithm(s string) (Algorithm, bool) {
	switch s {
	case "blake2b-256":
		return BLAKE2b256, true
	case "blake3":
		return BLAKE3, true
	case "sha256":
		return SHA256, true
	default:
		return 0, false
	}
}

func (a Algorithm) newHash() (hash.Hash, error) {
	switch a {
	case BLAKE2b256:
		return blake2b.New256(nil)
	case BLAKE3:
		return blake3.New(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, errs.New(errs.HashError, "new-hash", "", nil)
	}
}

const blockSize = 64 * 1024

// HashFile streams path in fixed-size blocks through the chosen
// algorithm and returns a lowercase hex digest along with the number of
// bytes read.
func HashFile(path string, algo Algorithm) (digest string, size int64, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		return "", 0, errs.New(errs.IoError, "open", path, openErr)
	}
	defer f.Close()

	h, hashErr := algo.newHash()
	if hashErr != nil {
		return "", 0, errs.New(errs.HashError, "new-hash", path, hashErr)
	}

	buf := make([]byte, blockSize)
	n, copyErr := io.CopyBuffer(h, f, buf)
	if copyErr != nil {
		return "", 0, errs.New(errs.HashError, "stream", path, copyErr)
	}

	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Result is the outcome of hashing one path within a batch.
type Result struct {
	Digest string
	Size   int64
	Err    error
}

// HashBatch hashes every path in paths under algo, running concurrency
// workers in parallel. Ordering of completion is unspecified;
// completeness is guaranteed. A per-path error does not abort the batch.
func HashBatch(paths []string, algo Algorithm, concurrency int) map[string]Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(map[string]Result, len(paths))
	var mu sync.Mutex

	jobs := make(chan string)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for path := range jobs {
			digest, size, err := HashFile(path, algo)
			mu.Lock()
			results[path] = Result{Digest: digest, Size: size, Err: err}
			mu.Unlock()
		}
	}

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker()
	}

	for _, p := range paths {
		jobs <- p
	}
	close(jobs)

	wg.Wait()
	return results
}
