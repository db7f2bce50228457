package indexer

import (
	"path/filepath"
	"strings"
)

// mediaExtensions is the allowlist of photo, video, and audio file
// extensions the indexer will fingerprint. Anything else under a
// scanned root is skipped without being hashed or cataloged.
var mediaExtensions = map[string]bool{
	// photo
	"jpeg": true, "jpg": true, "png": true, "apng": true, "gif": true,
	"nef": true, "cr2": true, "orf": true, "tif": true, "tiff": true,
	"ico": true, "bmp": true, "dng": true, "arw": true, "rw2": true,
	"heic": true, "avif": true, "heif": true, "heics": true, "heifs": true,
	"avics": true, "avci": true, "avcs": true, "mng": true, "webp": true,
	"psd": true, "jp2": true, "psb": true,
	// video
	"mov": true, "mp4": true, "m4v": true, "avi": true, "mpg": true,
	"mpeg": true, "avchd": true, "mts": true, "ts": true, "m2ts": true,
	"3gp": true, "gifv": true, "mkv": true, "asf": true, "ogg": true,
	"webm": true, "flv": true, "3g2": true, "svi": true, "mpv": true,
	// audio
	"m4a": true, "aiff": true, "wav": true, "flac": true, "caf": true,
	"mp3": true,
}

func hasMediaExtension(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	return mediaExtensions[ext]
}
