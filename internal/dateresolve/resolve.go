// Package dateresolve picks a best-available capture datetime for a
// file from EXIF candidates, filename patterns, and filesystem times,
// applying a default timezone when the result is naive.
package dateresolve

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/cluain/photomanager/internal/exif"
)

// exifLayout is exiftool's conventional datetime rendering, with or
// without a trailing zone offset.
const (
	exifLayoutNaive = "2006:01:02 15:04:05"
	exifLayoutZoned = "2006:01:02 15:04:05-0700"
)

// filenamePattern pairs a regex capturing a date/time substring with
// the Go reference layout that parses it.
type filenamePattern struct {
	regex  *regexp.Regexp
	layout string
}

// filenamePatterns is the fixed set of recognized embedded-date
// filename conventions, checked in order; the first match wins.
var filenamePatterns = []filenamePattern{
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2})`), "2006-01-02_15-04-05"},
	{regexp.MustCompile(`(\d{4}-\d{2}-\d{2} \d{2}\.\d{2}\.\d{2})`), "2006-01-02 15.04.05"},
	{regexp.MustCompile(`IMG_(\d{8}_\d{6})`), "20060102_150405"},
	{regexp.MustCompile(`VID_(\d{8}_\d{6})`), "20060102_150405"},
	{regexp.MustCompile(`(\d{8}_\d{6})`), "20060102_150405"},
	{regexp.MustCompile(`Screen Shot (\d{4}-\d{2}-\d{2} at \d{2}\.\d{2}\.\d{2})`), "2006-01-02 at 15.04.05"},
}

// Resolve picks dt in the six-step priority order (EXIF fields,
// filename patterns, FileModifyDate, filesystem mtime), applying
// tzDefault ("local" or a "+HHMM"/"-HHMM" offset string) to a naive
// result. It returns the formatted dt, its POSIX seconds, and the
// effective offset recorded as tzo (nil when the source was already
// offset-aware).
func Resolve(rec exif.Record, filename string, mtime time.Time, tzDefault string) (dt string, ts float64, tzo *int, err error) {
	candidates := []string{rec.DateTimeOriginal, rec.CreateDate, rec.ModifyDate}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if t, naive, ok := parseExifDatetime(c); ok {
			return finish(t, naive, tzDefault)
		}
	}

	if t, ok := parseFilename(filepath.Base(filename)); ok {
		return finish(t, true, tzDefault)
	}

	if rec.FileModifyDate != "" {
		if t, naive, ok := parseExifDatetime(rec.FileModifyDate); ok {
			return finish(t, naive, tzDefault)
		}
	}

	return finish(mtime, false, tzDefault)
}

// parseExifDatetime tries the zoned layout first, falling back to the
// naive layout. The bool return reports whether the parsed time lacks
// an offset and therefore needs tzDefault applied.
func parseExifDatetime(s string) (time.Time, bool, bool) {
	if t, err := time.Parse(exifLayoutZoned, s); err == nil {
		return t, false, true
	}
	if t, err := time.Parse(exifLayoutNaive, s); err == nil {
		return t, true, true
	}
	return time.Time{}, false, false
}

func parseFilename(base string) (time.Time, bool) {
	for _, p := range filenamePatterns {
		m := p.regex.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		if t, err := time.Parse(p.layout, m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// finish applies tzDefault to a naive time (one with no recorded
// offset, i.e. an unzoned filename/EXIF match) and formats the result
// in the catalog's dt shape. Filesystem mtime is an absolute instant
// and is passed in as not naive, so it keeps its own offset.
func finish(t time.Time, naive bool, tzDefault string) (string, float64, *int, error) {
	if !naive {
		return formatDt(t), float64(t.Unix()), nil, nil
	}

	offsetSeconds, err := resolveOffsetSeconds(tzDefault)
	if err != nil {
		return "", 0, nil, err
	}
	loc := time.FixedZone(fmt.Sprintf("UTC%+03d:%02d", offsetSeconds/3600, (offsetSeconds%3600)/60), offsetSeconds)
	localized := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	return formatDt(localized), float64(localized.Unix()), &offsetSeconds, nil
}

func formatDt(t time.Time) string {
	return t.Format("2006:01:02 15:04:05-0700")
}

// resolveOffsetSeconds turns tzDefault ("local" or "+HHMM"/"-HHMM")
// into a signed offset in seconds east of UTC.
func resolveOffsetSeconds(tzDefault string) (int, error) {
	if tzDefault == "" || tzDefault == "local" {
		_, offset := time.Now().Local().Zone()
		return offset, nil
	}

	t, err := time.Parse("-0700", tzDefault)
	if err != nil {
		return 0, fmt.Errorf("dateresolve: invalid timezone_default %q: %w", tzDefault, err)
	}
	_, offset := t.Zone()
	return offset, nil
}
