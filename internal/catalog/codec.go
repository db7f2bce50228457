package catalog

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/cluain/photomanager/internal/errs"
)

// framing identifies the compressed container chosen by a catalog
// file's extension.
type framing int

const (
	framingPlain framing = iota
	framingGzip
	framingZstd
)

func framingFor(path string) framing {
	switch {
	case strings.HasSuffix(path, ".json.gz"):
		return framingGzip
	case strings.HasSuffix(path, ".json.zst"):
		return framingZstd
	default:
		return framingPlain
	}
}

// Load reads a catalog file, transparently decompressing by extension
// and upgrading older on-disk versions in memory.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.IoError, "read-catalog", path, err)
	}

	plain, err := decode(raw, framingFor(path))
	if err != nil {
		return nil, errs.New(errs.DatabaseError, "decompress-catalog", path, err)
	}

	c := &Catalog{}
	if err := json.Unmarshal(plain, c); err != nil {
		return nil, errs.New(errs.DatabaseError, "parse-catalog", path, err)
	}
	return c, nil
}

func decode(raw []byte, f framing) ([]byte, error) {
	switch f {
	case framingGzip:
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case framingZstd:
		d, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return io.ReadAll(d)
	default:
		return raw, nil
	}
}

func encode(plain []byte, f framing) ([]byte, error) {
	switch f {
	case framingGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(plain); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case framingZstd:
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(plain); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return plain, nil
	}
}

// Save writes the catalog to path, atomically and without ever
// overwriting a prior version: it serializes to "<path>.wip" in the
// same directory, fsyncs, and renames over the destination, first
// rotating any existing destination whose bytes differ to
// "<name>_YYYYMMDD_HHMMSS_<short-digest>.<ext>".
//
// now is supplied by the caller (RFC3339-adjacent "20060102_150405"
// layout expected) so this package performs no wall-clock reads.
func Save(c *Catalog, path string, now time.Time) error {
	plain, err := json.Marshal(c)
	if err != nil {
		return errs.New(errs.DatabaseError, "marshal-catalog", path, err)
	}

	framed, err := encode(plain, framingFor(path))
	if err != nil {
		return errs.New(errs.DatabaseError, "compress-catalog", path, err)
	}

	if existing, readErr := os.ReadFile(path); readErr == nil {
		if !bytes.Equal(existing, framed) {
			if err := rotate(path, existing, now); err != nil {
				return err
			}
		}
	}

	dir := filepath.Dir(path)
	wip := path + ".wip"

	f, err := os.OpenFile(wip, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errs.New(errs.IoError, "create-wip", wip, err)
	}
	if _, err := f.Write(framed); err != nil {
		f.Close()
		os.Remove(wip)
		return errs.New(errs.IoError, "write-wip", wip, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(wip)
		return errs.New(errs.IoError, "fsync-wip", wip, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(wip)
		return errs.New(errs.IoError, "close-wip", wip, err)
	}

	if err := os.Rename(wip, path); err != nil {
		return errs.New(errs.IoError, "rename-catalog", path, err)
	}

	if dirF, err := os.Open(dir); err == nil {
		dirF.Sync()
		dirF.Close()
	}

	return nil
}

func rotate(path string, existing []byte, now time.Time) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	ext := ""
	name := base
	for _, suffix := range []string{".json.gz", ".json.zst", ".json"} {
		if strings.HasSuffix(base, suffix) {
			ext = suffix
			name = strings.TrimSuffix(base, suffix)
			break
		}
	}

	sum := sha256.Sum256(existing)
	short := hex.EncodeToString(sum[:])[:8]
	rotated := fmt.Sprintf("%s_%s_%s%s", name, now.Format("20060102_150405"), short, ext)

	if err := os.Rename(path, filepath.Join(dir, rotated)); err != nil {
		return errs.New(errs.IoError, "rotate-catalog", path, err)
	}
	return nil
}
