package exif

import (
	"sync"

	"github.com/barasher/go-exiftool"

	"github.com/cluain/photomanager/internal/errs"
)

// BatchSize is the default number of paths issued to exiftool in one
// -stay_open request.
const BatchSize = 200

// Extractor owns a small pool of persistent exiftool processes. A
// single process serializes requests, so the pool size should track
// the storage class's worker count; callers pick that number.
type Extractor struct {
	pool []*exiftool.Exiftool

	mu   sync.Mutex
	memo map[string]Record
	next int
}

// New starts n persistent exiftool processes. n is clamped to at
// least 1. The caller must call Close when done.
func New(n int) (*Extractor, error) {
	if n < 1 {
		n = 1
	}
	e := &Extractor{memo: make(map[string]Record)}
	for i := 0; i < n; i++ {
		proc, err := exiftool.NewExiftool()
		if err != nil {
			e.Close()
			return nil, errs.New(errs.ExifError, "start-exiftool", "", err)
		}
		e.pool = append(e.pool, proc)
	}
	return e, nil
}

// Close terminates every pooled exiftool process.
func (e *Extractor) Close() {
	for _, proc := range e.pool {
		proc.Close()
	}
	e.pool = nil
}

// ExtractBatch extracts metadata for every path in paths, splitting
// into groups of BatchSize and round-robining groups across the pool.
// Previously-seen absolute paths are served from memory. A per-file
// parse failure yields a zero-value Record for that path rather than
// aborting the batch; only a dead process surfaces as an error.
func (e *Extractor) ExtractBatch(paths []string) (map[string]Record, error) {
	out := make(map[string]Record, len(paths))
	var pending []string

	e.mu.Lock()
	for _, p := range paths {
		if rec, ok := e.memo[p]; ok {
			out[p] = rec
		} else {
			pending = append(pending, p)
		}
	}
	e.mu.Unlock()

	for start := 0; start < len(pending); start += BatchSize {
		end := start + BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		group := pending[start:end]

		proc := e.nextProcess()
		if proc == nil {
			return out, errs.New(errs.ExifError, "extract-batch", "", nil)
		}

		metas := proc.ExtractMetadata(group...)
		e.mu.Lock()
		for _, m := range metas {
			rec := toRecord(m)
			e.memo[m.File] = rec
			out[m.File] = rec
		}
		e.mu.Unlock()
	}

	return out, nil
}

func (e *Extractor) nextProcess() *exiftool.Exiftool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pool) == 0 {
		return nil
	}
	proc := e.pool[e.next%len(e.pool)]
	e.next++
	return proc
}

func toRecord(m exiftool.FileMetadata) Record {
	var rec Record
	if m.Err != nil {
		return rec
	}
	rec.DateTimeOriginal, _ = m.GetString("DateTimeOriginal")
	rec.CreateDate, _ = m.GetString("CreateDate")
	rec.ModifyDate, _ = m.GetString("ModifyDate")
	rec.FileModifyDate, _ = m.GetString("FileModifyDate")
	rec.FileSize, _ = m.GetInt("FileSize")
	rec.MIMEType, _ = m.GetString("MIMEType")
	rec.FileType, _ = m.GetString("FileType")
	return rec
}
