package pebbledict

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/eigerco/pebbledict/pkg/log"
)

// Checkpoint produces openable point-in-time copies of the database. It
// holds the engine open until released.
type Checkpoint struct {
	state  *dbState
	closed atomic.Bool
}

// NewCheckpoint returns a checkpoint maker for this database.
func (d *Dict) NewCheckpoint() (*Checkpoint, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}
	if !d.state.cell.Acquire() {
		return nil, ErrClosed
	}
	return &Checkpoint{state: d.state}, nil
}

// Create writes a physical copy of the database into destDir, including the
// configuration sidecar, so the copy opens exactly like the original.
// destDir must not exist.
func (c *Checkpoint) Create(destDir string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	st := c.state

	if _, err := st.fs.Stat(destDir); err == nil {
		return &EngineError{Op: "checkpoint", Err: fmt.Errorf("target %q already exists", destDir)}
	} else if !errors.Is(err, os.ErrNotExist) {
		return &EngineError{Op: "checkpoint", Err: err}
	}

	if err := st.cell.Value().Checkpoint(destDir); err != nil {
		return convertErr("checkpoint", err)
	}

	st.mu.Lock()
	cfg := st.cfg.clone()
	st.mu.Unlock()
	if err := saveConfig(st.fs, destDir, cfg); err != nil {
		return fmt.Errorf("persisting checkpoint configuration: %w", err)
	}

	log.Store.Debug().Str("dest", destDir).Msg("checkpoint created")
	return nil
}

// Close releases the checkpoint's hold on the engine. Closing again is a
// no-op.
func (c *Checkpoint) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return convertErr("checkpoint close", c.state.cell.Release())
}
