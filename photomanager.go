// Package photomanager is the root facade for content-addressed photo
// and video archival: it wires the catalog, indexer, collector,
// verifier, and cleaner behind a small API and manages the on-disk
// catalog's lifecycle.
package photomanager

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cluain/photomanager/internal/catalog"
	"github.com/cluain/photomanager/internal/cleaner"
	"github.com/cluain/photomanager/internal/collector"
	"github.com/cluain/photomanager/internal/digest"
	"github.com/cluain/photomanager/internal/indexer"
	"github.com/cluain/photomanager/internal/logging"
	"github.com/cluain/photomanager/internal/storageclass"
	"github.com/cluain/photomanager/internal/verifier"
)

// VerbosityLevel controls how much of a Manager's ambient output
// reaches its writers.
type VerbosityLevel int

const (
	DefaultVerbosity VerbosityLevel = iota
	VerboseMode
	QuietMode
)

// CreateConfig holds switches common to every call against a Manager.
// The zero value is a sensible default.
type CreateConfig struct {
	Verbosity VerbosityLevel
	Debug     bool
}

// Manager is the facade PhotoManager's command layer drives.
type Manager interface {
	Index(roots []string, opts IndexOptions) ([]indexer.Outcome, error)
	Collect(destination string, collectDB bool) ([]collector.Result, error)
	Verify(destination string, opts VerifyOptions) (verifier.Summary, error)
	Clean(destination string, dryRun bool) ([]cleaner.Action, error)
	Stats() Stats
	PersistChanges() error
	RollbackAllFilesystemChanges() (complete bool)
}

// IndexOptions surfaces the indexer's tunables through the facade.
type IndexOptions struct {
	Excludes     []string
	Priority     int
	StorageClass storageclass.Class
	SkipExisting bool
	Integrity    func(path string) (bool, error)
}

// VerifyOptions surfaces the verifier's tunables through the facade.
type VerifyOptions struct {
	Subdir         string
	RandomFraction float64
	StorageClass   storageclass.Class
}

// Stats summarizes the current catalog for the `stats` subcommand.
type Stats struct {
	TotalUIDs     int
	TotalVariants int
	TotalStored   int
	TotalFileSize int64
}

type rollbackStep func() error

type manager struct {
	cat         *catalog.Catalog
	dbFile      string
	algo        digest.Algorithm
	rollbackLog []rollbackStep

	out        io.Writer
	extraOut   io.Writer
	verboseOut io.Writer
	errOut     io.Writer

	log *logging.Logger
	now func() time.Time
}

// New creates a new catalog at dbFile under algo, failing if a file
// already exists there.
func New(dbFile string, algo digest.Algorithm, timezoneDefault string, config CreateConfig) (Manager, error) {
	if _, err := os.Stat(dbFile); err == nil {
		return nil, fmt.Errorf("photomanager: catalog already exists at %s", dbFile)
	}
	m := makeManager(config)
	m.dbFile = mustAbsFilepath(dbFile)
	m.algo = algo
	m.cat = catalog.New(catalogAlgo(algo), timezoneDefault)
	return m, nil
}

// Open loads an existing catalog from dbFile.
func Open(dbFile string, config CreateConfig) (Manager, error) {
	m := makeManager(config)
	m.dbFile = mustAbsFilepath(dbFile)

	cat, err := catalog.Load(m.dbFile)
	if err != nil {
		return nil, fmt.Errorf("photomanager: load error: %w", err)
	}
	m.cat = cat

	algo, ok := digest.ParseAlgorithm(string(cat.HashAlgorithm))
	if !ok {
		return nil, fmt.Errorf("photomanager: unknown hash_algorithm %q in catalog", cat.HashAlgorithm)
	}
	m.algo = algo
	return m, nil
}

func makeManager(config CreateConfig) *manager {
	m := &manager{out: os.Stdout, extraOut: io.Discard, verboseOut: io.Discard, errOut: os.Stderr, now: time.Now}
	switch config.Verbosity {
	case VerboseMode:
		m.verboseOut = os.Stdout
		fallthrough
	case DefaultVerbosity:
		m.extraOut = os.Stdout
	}
	m.log = logging.New(config.Debug)
	return m
}

func catalogAlgo(a digest.Algorithm) catalog.Algorithm {
	return catalog.Algorithm(a.String())
}

func (m *manager) PersistChanges() error {
	if err := catalog.Save(m.cat, m.dbFile, m.now()); err != nil {
		return fmt.Errorf("photomanager: save error: %w", err)
	}
	m.rollbackLog = nil
	return nil
}

func (m *manager) RollbackAllFilesystemChanges() (complete bool) {
	complete = true
	if len(m.rollbackLog) == 0 {
		return
	}
	fmt.Fprint(m.extraOut, "Executing filesystem rollback...")
	for i := len(m.rollbackLog) - 1; i >= 0; i-- {
		if err := m.rollbackLog[i](); err != nil {
			fmt.Fprintf(m.errOut, "rollback issue: %s\n", err)
			complete = false
		}
	}
	m.rollbackLog = nil
	return
}

func (m *manager) Stats() Stats {
	var s Stats
	s.TotalUIDs = len(m.cat.PhotoDB)
	for _, variants := range m.cat.PhotoDB {
		s.TotalVariants += len(variants)
	}
	for _, entry := range m.cat.StoredPhotos() {
		s.TotalStored++
		s.TotalFileSize += entry.Photo.Fsz
	}
	return s
}

func (m *manager) recordCommand(name string, args ...string) {
	cmd := name
	for _, a := range args {
		cmd += " " + a
	}
	m.cat.RecordCommand(m.now().Format(time.RFC3339), cmd)
}

func mustAbsFilepath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		panic(err)
	}
	return abs
}
