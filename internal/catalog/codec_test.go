package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRoundTripPlainJSON(t *testing.T) {
	c := New(AlgoBLAKE3, "local")
	c.Add(mustPhoto("aaaa", "/A/1.jpg", 100))

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	if err := Save(c, path, now); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.HashAlgorithm != c.HashAlgorithm {
		t.Fatalf("algorithm mismatch after round-trip: %v != %v", reloaded.HashAlgorithm, c.HashAlgorithm)
	}
	if len(reloaded.PhotoDB) != len(c.PhotoDB) {
		t.Fatalf("photo_db size mismatch after round-trip")
	}
}

func TestRoundTripGzip(t *testing.T) {
	c := New(AlgoSHA256, "-0400")
	c.Add(mustPhoto("bbbb", "/A/2.jpg", 200))

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json.gz")
	now := time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)

	if err := Save(c, path, now); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		t.Fatalf("expected gzip magic bytes, got %x", raw[:2])
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reloaded.PhotoDB) != 1 {
		t.Fatalf("expected 1 uid after gzip round-trip, got %d", len(reloaded.PhotoDB))
	}
}

func TestSaveRotatesPriorVersionWithoutOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.json")

	c1 := New(AlgoSHA256, "-0400")
	c1.Add(mustPhoto("aaaa", "/A/1.jpg", 1))
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := Save(c1, path, t1); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	c2 := New(AlgoSHA256, "-0400")
	c2.Add(mustPhoto("bbbb", "/B/2.jpg", 2))
	t2 := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	if err := Save(c2, path, t2); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected original rotated copy plus new catalog.json, got %d entries", len(entries))
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := reloaded.PhotoDB[reloaded.UIDs()[0]]; !ok {
		t.Fatalf("reloaded catalog missing expected uid")
	}
	if reloaded.hashToUID["bbbb"] == "" {
		t.Fatalf("expected second catalog's content after rotation, got first's")
	}
}

func TestUpgradeFromV1(t *testing.T) {
	v1 := `{
		"version": 1,
		"hash_algorithm": "sha256",
		"photo_db": {
			"deadbeef": [{
				"checksum": "deadbeefcafe",
				"source_path": "/A/old.jpg",
				"datetime": "2020:01:01 00:00:00+0000",
				"timestamp": 1577836800,
				"file_size": 12345,
				"stored_path": "",
				"priority": 10
			}]
		},
		"command_history": {}
	}`

	c := &Catalog{}
	if err := json.Unmarshal([]byte(v1), c); err != nil {
		t.Fatalf("UnmarshalJSON v1: %v", err)
	}
	if c.Version != CurrentVersion {
		t.Fatalf("expected upgrade to version %d, got %d", CurrentVersion, c.Version)
	}
	variants := c.PhotoDB["deadbeef"]
	if len(variants) != 1 || variants[0].Chk != "deadbeefcafe" || variants[0].Src != "/A/old.jpg" {
		t.Fatalf("v1 fields not mapped onto short keys: %+v", variants)
	}
}

func TestUpgradeFromV2(t *testing.T) {
	v2 := `{
		"version": 2,
		"hash_algorithm": "blake2b-256",
		"photo_db": {
			"deadbeef": [{"chk":"deadbeefcafe","src":"/A/x.jpg","dt":"2020:01:01 00:00:00+0000","ts":1577836800,"fsz":1,"sto":"","prio":10}]
		},
		"command_history": {}
	}`

	c := &Catalog{}
	if err := json.Unmarshal([]byte(v2), c); err != nil {
		t.Fatalf("UnmarshalJSON v2: %v", err)
	}
	if c.Version != CurrentVersion {
		t.Fatalf("expected upgrade to version %d, got %d", CurrentVersion, c.Version)
	}
	if c.PhotoDB["deadbeef"][0].Tzo != nil {
		t.Fatalf("v2 catalogs have no tzo, expected nil after upgrade")
	}
}
