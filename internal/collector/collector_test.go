package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cluain/photomanager/internal/catalog"
)

func newSourceFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunCollectsPrimaryVariant(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	content := []byte("hello world")
	src := newSourceFile(t, srcDir, "IMG_0001.JPG", content)

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	uid, _ := cat.Add(&catalog.PhotoFile{
		Chk: "abcdef01234567", Src: src, Ts: 1_617_000_000, Fsz: int64(len(content)), Prio: 10,
	})

	results := Run(cat, dstDir)
	if len(results) != 1 || results[0].Status != Collected {
		t.Fatalf("expected 1 Collected result, got %+v", results)
	}

	v := cat.PhotoDB[uid][0]
	if v.Sto == "" {
		t.Fatalf("expected Sto to be set after collect")
	}

	target := filepath.Join(dstDir, filepath.FromSlash(v.Sto))
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("collected file missing: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("collected content mismatch")
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatalf("Stat(target): %v", err)
	}
	if info.Mode().Perm() != 0o444 {
		t.Fatalf("expected collected file to be read-only (0444), got %v", info.Mode().Perm())
	}
}

func TestRunIsIdempotentOnSecondPass(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	content := []byte("hello world")
	src := newSourceFile(t, srcDir, "IMG_0001.JPG", content)

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	cat.Add(&catalog.PhotoFile{Chk: "abcdef01234567", Src: src, Ts: 1_617_000_000, Fsz: int64(len(content)), Prio: 10})

	Run(cat, dstDir)
	var before []string
	filepath.WalkDir(dstDir, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			info, _ := d.Info()
			before = append(before, p+":"+info.ModTime().String())
		}
		return nil
	})

	results := Run(cat, dstDir)
	if len(results) != 1 || results[0].Status != AlreadyStored {
		t.Fatalf("expected AlreadyStored on second pass, got %+v", results)
	}

	var after []string
	filepath.WalkDir(dstDir, func(p string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			info, _ := d.Info()
			after = append(after, p+":"+info.ModTime().String())
		}
		return nil
	})

	if len(before) != len(after) {
		t.Fatalf("second pass changed the set of files on disk: %v vs %v", before, after)
	}
}

func TestRunFallsThroughUnreadablePrimary(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	missing := filepath.Join(srcDir, "gone.NEF")
	content := []byte("jpeg bytes")
	fallback := newSourceFile(t, t.TempDir(), "gone.NEF", content)

	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	uid, _ := cat.Add(&catalog.PhotoFile{Chk: "aaaa", Src: missing, Ts: 1, Fsz: 1, Prio: 10})
	cat.Add(&catalog.PhotoFile{Chk: "bbbb", Src: fallback, Ts: 1, Fsz: int64(len(content)), Prio: 30})

	results := Run(cat, dstDir)
	if len(results) != 1 || results[0].Status != Collected {
		t.Fatalf("expected fallback collection to succeed, got %+v", results)
	}

	stored := cat.PhotoDB[uid]
	foundStored := false
	for _, v := range stored {
		if v.Sto != "" {
			foundStored = true
		}
	}
	if !foundStored {
		t.Fatalf("expected the readable fallback variant to end up stored")
	}
}

func TestWriteCatalogCopy(t *testing.T) {
	dstDir := t.TempDir()
	cat := catalog.New(catalog.AlgoSHA256, "+0000")
	cat.Add(&catalog.PhotoFile{Chk: "aaaa", Src: "/a.jpg", Ts: 1, Fsz: 1, Prio: 10})

	if err := WriteCatalogCopy(cat, dstDir, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("WriteCatalogCopy: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dstDir, "catalog.json")); err != nil {
		t.Fatalf("expected catalog.json in destination: %v", err)
	}
}
