package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pthm-cable/drape/cloth"
)

func steppedSheet(t *testing.T, width int) *cloth.Simulator {
	t.Helper()
	sim := cloth.New(cloth.DefaultOptions())
	if err := sim.Initialize(width, 4, 0.1); err != nil {
		t.Fatal(err)
	}
	if err := sim.Pin(cloth.PresetAnchors(cloth.Fabric, width, 4)); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		sim.Update(1.0 / 60.0)
	}
	return sim
}

func TestCheckpointSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	a, b := steppedSheet(t, 4), steppedSheet(t, 6)

	cp := &Checkpoint{
		Tick:     600,
		Bookmark: &Bookmark{Type: BookmarkSettled, Tick: 600, Description: "test"},
		Bodies:   []*cloth.Snapshot{a.Capture(), b.Capture()},
	}
	path, err := SaveCheckpoint(cp, tmpDir)
	if err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("checkpoint not written: %v", err)
	}

	loaded, err := LoadCheckpoint(path)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.Tick != 600 || loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkSettled {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Bodies) != 2 {
		t.Fatalf("got %d bodies, want 2", len(loaded.Bodies))
	}

	restored := cloth.New(cloth.DefaultOptions())
	if err := restored.Restore(loaded.Bodies[1]); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if !reflect.DeepEqual(restored.Capture(), b.Capture()) {
		t.Error("restored body differs from the saved one")
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestCheckpointName(t *testing.T) {
	tests := []struct {
		tick     int32
		bookmark *Bookmark
		want     string
	}{
		{5000, &Bookmark{Type: BookmarkContactOnset}, "checkpoint_5000_contact_onset.json"},
		{3000, nil, "checkpoint_3000.json"},
		{1, &Bookmark{Type: "two words"}, "checkpoint_1_two_words.json"},
	}
	for _, tt := range tests {
		if got := CheckpointName(tt.tick, tt.bookmark); got != tt.want {
			t.Errorf("CheckpointName(%d) = %s, want %s", tt.tick, got, tt.want)
		}
	}
}

func TestLoadCheckpointRejectsBadBodies(t *testing.T) {
	dir := t.TempDir()
	snap := steppedSheet(t, 4).Capture()
	snap.Particles = snap.Particles[1:]

	data, err := json.Marshal(&Checkpoint{Version: CheckpointVersion, Bodies: []*cloth.Snapshot{snap}})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCheckpoint(path); err == nil {
		t.Error("expected an error for a body with missing particles")
	}

	data, _ = json.Marshal(&Checkpoint{Version: CheckpointVersion + 1})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCheckpoint(path); err == nil {
		t.Error("expected an error for a version mismatch")
	}
}
