// Package collector copies the primary variant of each catalog uid
// into a deterministic, content-named layout under a destination
// root, recording the store path back into the catalog.
package collector

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cluain/photomanager/internal/catalog"
	"github.com/cluain/photomanager/internal/errs"
)

// Status classifies the per-uid outcome of one collect pass.
type Status int

const (
	Collected Status = iota
	AlreadyStored
	Uncollected
)

// Result is the per-uid outcome of a collect pass.
type Result struct {
	UID    string
	Status Status
	Sto    string
	Err    error
}

// Run collects the primary (or first readable) variant of every uid in
// cat into destination, mutating Sto in memory on success. It does not
// save the catalog; callers persist it once after a full pass, per the
// one-save-per-pass contract.
func Run(cat *catalog.Catalog, destination string) []Result {
	var results []Result
	for _, uid := range cat.UIDs() {
		results = append(results, collectOne(cat, uid, destination))
	}
	return results
}

func collectOne(cat *catalog.Catalog, uid string, destination string) Result {
	variants := cat.BestPhotos(uid)
	if len(variants) == 0 {
		return Result{UID: uid, Status: Uncollected}
	}

	for _, v := range variants {
		if v.Sto != "" {
			target := filepath.Join(destination, filepath.FromSlash(v.Sto))
			if info, err := os.Stat(target); err == nil && info.Size() == v.Fsz {
				return Result{UID: uid, Status: AlreadyStored, Sto: v.Sto}
			}
		}

		if _, err := os.Stat(v.Src); err != nil {
			continue
		}

		sto, err := storeVariant(v, destination)
		if err != nil {
			continue
		}
		v.Sto = sto
		return Result{UID: uid, Status: Collected, Sto: sto}
	}

	return Result{UID: uid, Status: Uncollected, Err: errs.New(errs.CollectionError, "collect", uid, nil)}
}

// storeVariant computes v's target path from ts, copies the source
// atomically, marks the stored copy read-only, and returns the relative
// (forward-slashed) store path.
func storeVariant(v *catalog.PhotoFile, destination string) (string, error) {
	when := timeFromVariant(v)
	base := sanitizeBasename(filepath.Base(v.Src))
	shortChk := v.Chk
	if len(shortChk) > 7 {
		shortChk = shortChk[:7]
	}

	rel := filepath.ToSlash(filepath.Join(
		when.Format("2006"),
		when.Format("01-Jan"),
		fmt.Sprintf("%s-%s-%s", when.Format("2006-01-02_15-04-05"), shortChk, base),
	))

	rel, alreadyPresent, err := resolveCollision(v, destination, rel)
	if err != nil {
		return "", err
	}
	if alreadyPresent {
		return rel, nil
	}

	target := filepath.Join(destination, filepath.FromSlash(rel))
	if err := removePartial(target); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errs.New(errs.IoError, "mkdir", filepath.Dir(target), err)
	}

	if err := copyFsync(v.Src, target); err != nil {
		return "", err
	}

	return rel, nil
}

// resolveCollision appends -1, -2, … to the basename stem while a
// target at rel already exists with a size different from v.Fsz. A
// target whose size matches is assumed to be this same variant from a
// prior interrupted run and is reused as-is; its digest is not checked.
func resolveCollision(v *catalog.PhotoFile, destination string, rel string) (string, bool, error) {
	dir := filepath.Dir(rel)
	base := filepath.Base(rel)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := rel
	for i := 1; ; i++ {
		target := filepath.Join(destination, filepath.FromSlash(candidate))
		info, err := os.Stat(target)
		if err != nil {
			return candidate, false, nil
		}
		if info.Size() == v.Fsz {
			return candidate, true, nil
		}
		candidate = filepath.ToSlash(filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext)))
	}
}

func removePartial(target string) error {
	partial := target + ".partial"
	if _, err := os.Stat(partial); err == nil {
		if err := os.Remove(partial); err != nil {
			return errs.New(errs.IoError, "remove-partial", partial, err)
		}
	}
	return nil
}

func copyFsync(src, dst string) error {
	partial := dst + ".partial"

	in, err := os.Open(src)
	if err != nil {
		return errs.New(errs.IoError, "open-source", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(partial, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errs.New(errs.CollectionError, "create-target", partial, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(partial)
		return errs.New(errs.IoError, "copy", dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(partial)
		return errs.New(errs.IoError, "fsync", dst, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partial)
		return errs.New(errs.IoError, "close", dst, err)
	}

	if err := os.Rename(partial, dst); err != nil {
		return errs.New(errs.IoError, "rename", dst, err)
	}

	if err := os.Chmod(dst, 0o444); err != nil {
		return errs.New(errs.IoError, "chmod-readonly", dst, err)
	}
	return nil
}

func sanitizeBasename(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "/", "_"), string(filepath.Separator), "_")
}

func timeFromVariant(v *catalog.PhotoFile) time.Time {
	sec := int64(v.Ts)
	loc := time.UTC
	if v.Tzo != nil {
		loc = time.FixedZone("variant", *v.Tzo)
	}
	return time.Unix(sec, 0).In(loc)
}

// WriteCatalogCopy implements --collect-db: it writes a copy of the
// catalog file into the destination root after a collect pass.
func WriteCatalogCopy(cat *catalog.Catalog, destination string, now time.Time) error {
	return catalog.Save(cat, filepath.Join(destination, "catalog.json"), now)
}
