package exif

import (
	"testing"

	"github.com/barasher/go-exiftool"
)

func TestToRecordTolerantOfMissingFields(t *testing.T) {
	m := exiftool.FileMetadata{
		File: "/A/1.jpg",
		Fields: map[string]interface{}{
			"DateTimeOriginal": "2021:03:29 00:00:00",
			"FileSize":         int64(12345),
		},
	}

	rec := toRecord(m)
	if rec.DateTimeOriginal != "2021:03:29 00:00:00" {
		t.Fatalf("DateTimeOriginal = %q", rec.DateTimeOriginal)
	}
	if rec.CreateDate != "" {
		t.Fatalf("expected empty CreateDate for a file lacking it, got %q", rec.CreateDate)
	}
}

func TestToRecordErrorYieldsZeroValue(t *testing.T) {
	m := exiftool.FileMetadata{
		File: "/A/broken.jpg",
		Err:  errFake{},
	}
	rec := toRecord(m)
	if rec != (Record{}) {
		t.Fatalf("expected zero-value Record for an errored file, got %+v", rec)
	}
}

type errFake struct{}

func (errFake) Error() string { return "fake exiftool error" }
