package indexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cluain/photomanager/internal/catalog"
	"github.com/cluain/photomanager/internal/digest"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func TestRunDiscoversAndAdds(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), []byte("hello world"))
	writeFile(t, filepath.Join(dir, "b.jpg"), []byte("hello world"))
	writeFile(t, filepath.Join(dir, "skip.txt"), []byte("not a photo"))

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	outcomes, err := Run(cat, Options{
		Roots:           []string{dir},
		Excludes:        []string{"*.txt"},
		DigestAlgo:      digest.SHA256,
		DigestWorkers:   2,
		ExifWorkers:     1,
		TimezoneDefault: "+0000",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes (excludes honored), got %d: %+v", len(outcomes), outcomes)
	}

	var inserted, merged int
	for _, o := range outcomes {
		if o.Err != nil {
			t.Fatalf("unexpected per-path error for %s: %v", o.Path, o.Err)
		}
		switch o.Added {
		case catalog.Inserted:
			inserted++
		case catalog.Merged:
			merged++
		}
	}
	if inserted != 1 || merged != 1 {
		t.Fatalf("expected 1 insert + 1 merge for identical-content files, got inserted=%d merged=%d", inserted, merged)
	}
}

func TestRunSkipExistingFiltersKnownSrc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	writeFile(t, path, []byte("content"))

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	abs, _ := filepath.Abs(path)
	cat.Add(&catalog.PhotoFile{Chk: "preexisting", Src: abs, Prio: 10})

	outcomes, err := Run(cat, Options{
		Roots:           []string{dir},
		DigestAlgo:      digest.SHA256,
		DigestWorkers:   1,
		ExifWorkers:     1,
		SkipExisting:    true,
		TimezoneDefault: "+0000",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 0 {
		t.Fatalf("expected skip-existing to filter the only candidate, got %+v", outcomes)
	}
}

func TestRunAbsolutizesRelativeRoots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), []byte("hello world"))

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(wd)

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	outcomes, err := Run(cat, Options{
		Roots:           []string{"."},
		DigestAlgo:      digest.SHA256,
		DigestWorkers:   1,
		ExifWorkers:     1,
		TimezoneDefault: "+0000",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	if !filepath.IsAbs(outcomes[0].Path) {
		t.Fatalf("expected absolute Src for a relative root, got %q", outcomes[0].Path)
	}
}

func TestRunSkipsNonMediaExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.jpg"), []byte("hello world"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("not a photo"))
	writeFile(t, filepath.Join(dir, "archive.zip"), []byte("not a photo either"))

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	outcomes, err := Run(cat, Options{
		Roots:           []string{dir},
		DigestAlgo:      digest.SHA256,
		DigestWorkers:   1,
		ExifWorkers:     1,
		TimezoneDefault: "+0000",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("expected only the .jpg file to be discovered, got %+v", outcomes)
	}
}

func TestRunIntegrityPredicateRoutesDamagedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.jpg")
	writeFile(t, path, []byte("corrupt"))

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	outcomes, err := Run(cat, Options{
		Roots:         []string{dir},
		DigestAlgo:    digest.SHA256,
		DigestWorkers: 1,
		ExifWorkers:   1,
		Integrity: func(path string) (bool, error) {
			return false, nil
		},
		TimezoneDefault: "+0000",
	})
	if err == nil {
		t.Fatalf("expected aggregated error for damaged file")
	}
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("expected 1 outcome carrying the integrity failure, got %+v", outcomes)
	}
	if len(cat.PhotoDB) != 0 {
		t.Fatalf("damaged file must not be added to the catalog")
	}
}
