package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/drape/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir should disable output, got %v %v", om, err)
	}
	// Every method is safe on nil.
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" || om.CheckpointDir() != "" || om.Close() != nil {
		t.Error("nil manager should be inert")
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 60), Frames: 60, Contacts: i}); err != nil {
			t.Fatal(err)
		}
	}
	if err := om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, 60); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSettled, Tick: 180, Description: "at rest"}); err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(config.Defaults()); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	read := func(name string) []string {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatal(err)
		}
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	rows := read("telemetry.csv")
	if len(rows) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header plus 3 rows", len(rows))
	}
	if !strings.HasPrefix(rows[0], "window_end,sim_time,frames") || strings.Contains(rows[0], "WindowStartTick") {
		t.Errorf("unexpected header %q", rows[0])
	}
	if !strings.HasPrefix(rows[3], "180,") {
		t.Errorf("unexpected last row %q", rows[3])
	}

	perf := read("perf.csv")
	if len(perf) != 2 || !strings.Contains(perf[0], "solve_pct") || !strings.HasPrefix(perf[1], "60,1000,") {
		t.Errorf("unexpected perf.csv %q", perf)
	}

	bm := read("bookmarks.csv")
	if len(bm) != 2 || bm[0] != "type,tick,description" || bm[1] != "settled,180,at rest" {
		t.Errorf("unexpected bookmarks.csv %q", bm)
	}

	if _, err := config.Load(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("written config does not reload: %v", err)
	}
	if om.CheckpointDir() != filepath.Join(dir, "checkpoints") {
		t.Errorf("checkpoint dir %s", om.CheckpointDir())
	}
}
