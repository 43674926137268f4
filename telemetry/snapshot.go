package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/drape/cloth"
)

// CheckpointVersion is incremented when the format changes.
const CheckpointVersion = 1

// Checkpoint bundles the state of every cloth body at one tick, usually
// written when a bookmark fires. Each body uses the cloth snapshot format and
// can be restored on its own with cloth.Simulator.Restore.
type Checkpoint struct {
	Version  int               `json:"version"`
	Tick     int32             `json:"tick"`
	Bookmark *Bookmark         `json:"bookmark,omitempty"`
	Bodies   []*cloth.Snapshot `json:"bodies"`
}

// CheckpointName returns the file name for a checkpoint: checkpoint_<tick>
// with the bookmark type appended when present.
func CheckpointName(tick int32, bookmark *Bookmark) string {
	name := fmt.Sprintf("checkpoint_%d", tick)
	if bookmark != nil {
		name += "_" + strings.ReplaceAll(string(bookmark.Type), " ", "_")
	}
	return name + ".json"
}

// SaveCheckpoint writes cp into dir and returns the file path. The file is
// written to a temporary name first and renamed into place.
func SaveCheckpoint(cp *Checkpoint, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create checkpoint dir: %w", err)
	}
	cp.Version = CheckpointVersion

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal checkpoint: %w", err)
	}

	path := filepath.Join(dir, CheckpointName(cp.Tick, cp.Bookmark))
	tmp, err := os.CreateTemp(dir, ".checkpoint-*")
	if err != nil {
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write checkpoint: %w", err)
	}
	return path, nil
}

// LoadCheckpoint reads a checkpoint and validates every body.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if cp.Version != CheckpointVersion {
		return nil, fmt.Errorf("checkpoint version %d, want %d", cp.Version, CheckpointVersion)
	}
	for i, body := range cp.Bodies {
		if body == nil {
			return nil, fmt.Errorf("checkpoint body %d missing", i)
		}
		if err := body.Validate(); err != nil {
			return nil, fmt.Errorf("checkpoint body %d: %w", i, err)
		}
	}
	return &cp, nil
}
