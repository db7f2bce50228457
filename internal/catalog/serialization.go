package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// onDiskV3 is the persisted shape of a current-version catalog. Derived
// indexes are deliberately absent; they are rebuilt by rebuildIndexes
// after unmarshaling.
type onDiskV3 struct {
	Version         int                     `json:"version"`
	HashAlgorithm   Algorithm               `json:"hash_algorithm"`
	TimezoneDefault string                  `json:"timezone_default"`
	PhotoDB         map[string][]*PhotoFile `json:"photo_db"`
	CommandHistory  map[string]string       `json:"command_history"`
}

// onDiskV2 lacks tzo on PhotoFile and timezone_default on the catalog;
// versions 2 used the same short keys as v3 otherwise.
type onDiskV2 struct {
	Version        int                       `json:"version"`
	HashAlgorithm  Algorithm                 `json:"hash_algorithm"`
	PhotoDB        map[string][]*photoFileV2 `json:"photo_db"`
	CommandHistory map[string]string         `json:"command_history"`
}

type photoFileV2 struct {
	Chk  string  `json:"chk"`
	Src  string  `json:"src"`
	Dt   string  `json:"dt"`
	Ts   float64 `json:"ts"`
	Fsz  int64   `json:"fsz"`
	Sto  string  `json:"sto"`
	Prio int     `json:"prio"`
}

// onDiskV1 used long-form field names throughout.
type onDiskV1 struct {
	Version        int                       `json:"version"`
	HashAlgorithm  Algorithm                 `json:"hash_algorithm"`
	PhotoDB        map[string][]*photoFileV1 `json:"photo_db"`
	CommandHistory map[string]string         `json:"command_history"`
}

type photoFileV1 struct {
	Checksum   string  `json:"checksum"`
	SourcePath string  `json:"source_path"`
	Datetime   string  `json:"datetime"`
	Timestamp  float64 `json:"timestamp"`
	FileSize   int64   `json:"file_size"`
	StoredPath string  `json:"stored_path"`
	Priority   int     `json:"priority"`
}

// versionProbe reads only the version discriminator so UnmarshalJSON can
// dispatch to the right upgrade path before parsing the rest of the
// document.
type versionProbe struct {
	Version int `json:"version"`
}

// MarshalJSON always emits the current version's shape with sorted
// keys, independent of the in-memory derived indexes.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	out := onDiskV3{
		Version:         CurrentVersion,
		HashAlgorithm:   c.HashAlgorithm,
		TimezoneDefault: c.TimezoneDefault,
		PhotoDB:         c.PhotoDB,
		CommandHistory:  c.CommandHistory,
	}
	if out.PhotoDB == nil {
		out.PhotoDB = map[string][]*PhotoFile{}
	}
	if out.CommandHistory == nil {
		out.CommandHistory = map[string]string{}
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	// Struct fields marshal in declaration order; re-encoding through
	// generic maps sorts the keys of every object, PhotoFile included.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic map[string]interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// UnmarshalJSON detects the persisted version and upgrades v1 and v2
// shapes to the current in-memory representation before rebuilding the
// derived indexes.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("catalog: detect version: %w", err)
	}

	switch probe.Version {
	case 1:
		var v1 onDiskV1
		if err := json.Unmarshal(data, &v1); err != nil {
			return fmt.Errorf("catalog: parse v1: %w", err)
		}
		c.upgradeFromV1(v1)
	case 2:
		var v2 onDiskV2
		if err := json.Unmarshal(data, &v2); err != nil {
			return fmt.Errorf("catalog: parse v2: %w", err)
		}
		c.upgradeFromV2(v2)
	case 3:
		var v3 onDiskV3
		if err := json.Unmarshal(data, &v3); err != nil {
			return fmt.Errorf("catalog: parse v3: %w", err)
		}
		c.Version = CurrentVersion
		c.HashAlgorithm = v3.HashAlgorithm
		c.TimezoneDefault = v3.TimezoneDefault
		c.PhotoDB = v3.PhotoDB
		c.CommandHistory = v3.CommandHistory
	default:
		return fmt.Errorf("catalog: unknown version %d", probe.Version)
	}

	if c.PhotoDB == nil {
		c.PhotoDB = make(map[string][]*PhotoFile)
	}
	if c.CommandHistory == nil {
		c.CommandHistory = make(map[string]string)
	}
	c.rebuildIndexes()
	return nil
}

func (c *Catalog) upgradeFromV2(v2 onDiskV2) {
	c.Version = CurrentVersion
	c.HashAlgorithm = v2.HashAlgorithm
	c.TimezoneDefault = ""
	c.CommandHistory = v2.CommandHistory
	c.PhotoDB = make(map[string][]*PhotoFile, len(v2.PhotoDB))
	for uid, variants := range v2.PhotoDB {
		upgraded := make([]*PhotoFile, len(variants))
		for i, v := range variants {
			upgraded[i] = &PhotoFile{
				Chk: v.Chk, Src: v.Src, Dt: v.Dt, Ts: v.Ts,
				Fsz: v.Fsz, Sto: v.Sto, Prio: v.Prio,
			}
		}
		c.PhotoDB[uid] = upgraded
	}
}

func (c *Catalog) upgradeFromV1(v1 onDiskV1) {
	c.Version = CurrentVersion
	c.HashAlgorithm = v1.HashAlgorithm
	c.TimezoneDefault = ""
	c.CommandHistory = v1.CommandHistory
	c.PhotoDB = make(map[string][]*PhotoFile, len(v1.PhotoDB))
	for uid, variants := range v1.PhotoDB {
		upgraded := make([]*PhotoFile, len(variants))
		for i, v := range variants {
			upgraded[i] = &PhotoFile{
				Chk:  v.Checksum,
				Src:  v.SourcePath,
				Dt:   v.Datetime,
				Ts:   v.Timestamp,
				Fsz:  v.FileSize,
				Sto:  v.StoredPath,
				Prio: v.Priority,
			}
		}
		c.PhotoDB[uid] = upgraded
	}
}
