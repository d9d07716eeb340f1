package pebbledict

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/pebble/vfs"
)

// ConfigFileName is the sidecar written into the database directory (and
// every checkpoint) holding the configuration a reopen must agree on.
const ConfigFileName = "pebbledict-config.json"

// DefaultColumnFamilyName identifies the partition used when no other is
// selected. It always exists and cannot be dropped.
const DefaultColumnFamilyName = "default"

const defaultColumnFamilyID uint32 = 0

// dbConfig is the persisted per-database configuration. The column-family
// registry maps names to envelope IDs; IDs are never reused so stale data
// from an interrupted drop cannot leak into a newer family.
type dbConfig struct {
	RawMode        bool              `json:"raw_mode"`
	ColumnFamilies map[string]uint32 `json:"column_families"`
	NextFamilyID   uint32            `json:"next_family_id"`
}

func defaultDBConfig(rawMode bool) *dbConfig {
	return &dbConfig{
		RawMode:        rawMode,
		ColumnFamilies: map[string]uint32{DefaultColumnFamilyName: defaultColumnFamilyID},
		NextFamilyID:   defaultColumnFamilyID + 1,
	}
}

func (c *dbConfig) clone() *dbConfig {
	families := make(map[string]uint32, len(c.ColumnFamilies))
	for name, id := range c.ColumnFamilies {
		families[name] = id
	}
	return &dbConfig{
		RawMode:        c.RawMode,
		ColumnFamilies: families,
		NextFamilyID:   c.NextFamilyID,
	}
}

func loadConfig(fs vfs.FS, dir string) (*dbConfig, error) {
	f, err := fs.Open(fs.PathJoin(dir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	var cfg dbConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}
	if cfg.ColumnFamilies == nil {
		cfg.ColumnFamilies = map[string]uint32{DefaultColumnFamilyName: defaultColumnFamilyID}
	}
	if cfg.NextFamilyID == 0 {
		cfg.NextFamilyID = defaultColumnFamilyID + 1
	}
	return &cfg, nil
}

func saveConfig(fs vfs.FS, dir string, cfg *dbConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", ConfigFileName, err)
	}

	f, err := fs.Create(fs.PathJoin(dir, ConfigFileName))
	if err != nil {
		return fmt.Errorf("creating %s: %w", ConfigFileName, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", ConfigFileName, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing %s: %w", ConfigFileName, err)
	}
	return f.Close()
}

// ListColumnFamilies reads the family names recorded for the database at
// path without opening the engine.
func ListColumnFamilies(path string, opts *Options) ([]string, error) {
	fs := vfs.Default
	if opts != nil {
		fs = opts.Engine.Filesystem()
	}

	cfg, err := loadConfig(fs, path)
	if err != nil {
		return nil, fmt.Errorf("listing column families at %q: %w", path, err)
	}

	names := make([]string, 0, len(cfg.ColumnFamilies))
	for name := range cfg.ColumnFamilies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Every stored key carries a fixed-width family envelope so one engine
// keyspace hosts all partitions; snapshots, batches and checkpoints stay
// atomic across them.
const familyPrefixLen = 4

func familyPrefix(id uint32) []byte {
	var p [familyPrefixLen]byte
	binary.BigEndian.PutUint32(p[:], id)
	return p[:]
}

// familySpan returns the half-open key range holding everything in the
// family.
func familySpan(id uint32) (lower, upper []byte) {
	return familyPrefix(id), familyPrefix(id + 1)
}
