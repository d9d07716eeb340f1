package pebble

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/bloom"
	"github.com/cockroachdb/pebble/vfs"
)

// Compression selects the block compression for on-disk tables.
type Compression string

const (
	SnappyCompression Compression = "snappy"
	ZstdCompression   Compression = "zstd"
	NoCompression     Compression = "none"
)

// DefaultCacheSize is the block cache size used when the caller does not
// pick one. Deliberately small; embedding programs tune it up.
const DefaultCacheSize int64 = 8 << 20

// Options is the engine tuning bag. It is forwarded to the engine without
// interpretation; zero values fall back to engine defaults.
type Options struct {
	// ReadOnly opens the store without write access; mutation attempts
	// fail at the engine.
	ReadOnly bool

	// ErrorIfExists refuses to open a directory that already holds a
	// store. ErrorIfMissing refuses to create a fresh one.
	ErrorIfExists  bool
	ErrorIfMissing bool

	CacheSize                   int64
	MemTableSize                uint64
	MemTableStopWritesThreshold int
	L0CompactionThreshold       int
	L0StopWritesThreshold       int
	LBaseMaxBytes               int64
	MaxOpenFiles                int
	MaxConcurrentCompactions    int
	BytesPerSync                int
	WALBytesPerSync             int
	DisableWAL                  bool

	Compression     Compression
	BloomBitsPerKey int
	BlockSize       int
	TargetFileSize  int64

	// FS overrides the filesystem the store lives on. vfs.NewMem() yields
	// a memory-backed store, useful for tests and scratch data.
	FS vfs.FS
}

// engineOptions converts the bag into the engine's native form. The returned
// cache carries one reference owned by the caller; the engine takes its own
// on open.
func (o Options) engineOptions() (*pebble.Options, *pebble.Cache) {
	cacheSize := o.CacheSize
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache := pebble.NewCache(cacheSize)

	opts := &pebble.Options{
		Cache:            cache,
		ReadOnly:         o.ReadOnly,
		ErrorIfExists:    o.ErrorIfExists,
		ErrorIfNotExists: o.ErrorIfMissing,
		DisableWAL:       o.DisableWAL,
		Logger:           engineLogger{},
	}
	if o.MemTableSize > 0 {
		opts.MemTableSize = o.MemTableSize
	}
	if o.MemTableStopWritesThreshold > 0 {
		opts.MemTableStopWritesThreshold = o.MemTableStopWritesThreshold
	}
	if o.L0CompactionThreshold > 0 {
		opts.L0CompactionThreshold = o.L0CompactionThreshold
	}
	if o.L0StopWritesThreshold > 0 {
		opts.L0StopWritesThreshold = o.L0StopWritesThreshold
	}
	if o.LBaseMaxBytes > 0 {
		opts.LBaseMaxBytes = o.LBaseMaxBytes
	}
	if o.MaxOpenFiles > 0 {
		opts.MaxOpenFiles = o.MaxOpenFiles
	}
	if o.MaxConcurrentCompactions > 0 {
		n := o.MaxConcurrentCompactions
		opts.MaxConcurrentCompactions = func() int { return n }
	}
	if o.BytesPerSync > 0 {
		opts.BytesPerSync = o.BytesPerSync
	}
	if o.WALBytesPerSync > 0 {
		opts.WALBytesPerSync = o.WALBytesPerSync
	}
	if o.FS != nil {
		opts.FS = o.FS
	}

	var level pebble.LevelOptions
	levelSet := false
	if o.BlockSize > 0 {
		level.BlockSize = o.BlockSize
		levelSet = true
	}
	if o.TargetFileSize > 0 {
		level.TargetFileSize = o.TargetFileSize
		levelSet = true
	}
	if o.BloomBitsPerKey > 0 {
		level.FilterPolicy = bloom.FilterPolicy(o.BloomBitsPerKey)
		levelSet = true
	}
	switch o.Compression {
	case SnappyCompression:
		level.Compression = pebble.SnappyCompression
		levelSet = true
	case ZstdCompression:
		level.Compression = pebble.ZstdCompression
		levelSet = true
	case NoCompression:
		level.Compression = pebble.NoCompression
		levelSet = true
	}
	if levelSet {
		opts.Levels = []pebble.LevelOptions{level}
	}

	return opts, cache
}

// Filesystem returns the configured FS, or the host filesystem when unset.
func (o Options) Filesystem() vfs.FS {
	if o.FS != nil {
		return o.FS
	}
	return vfs.Default
}
