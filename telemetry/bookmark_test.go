package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_EnergySpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		if got := bd.Check(WindowStats{WindowEndTick: int32(i * 60), EnergyMean: 0.1}); hasBookmark(got, BookmarkEnergySpike) {
			t.Fatal("steady energy should not spike")
		}
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 360, EnergyMean: 0.5})
	if !hasBookmark(bookmarks, BookmarkEnergySpike) {
		t.Error("expected energy_spike bookmark")
	}
}

func TestBookmarkDetector_EnergySpikeNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{EnergyMean: 0.01})
	if hasBookmark(bd.Check(WindowStats{EnergyMean: 10}), BookmarkEnergySpike) {
		t.Error("spike reported before three windows of history")
	}
}

func TestBookmarkDetector_OverstretchFiresOnEntry(t *testing.T) {
	bd := NewBookmarkDetector(10)
	seq := []struct {
		stretch float64
		want    bool
	}{
		{0.05, false},
		{0.40, true},
		{0.50, false}, // still over the limit
		{0.10, false},
		{0.30, true},
	}
	for i, s := range seq {
		got := hasBookmark(bd.Check(WindowStats{WindowEndTick: int32(i), MaxStretch: s.stretch}), BookmarkOverstretch)
		if got != s.want {
			t.Errorf("window %d stretch %.2f: bookmark %v, want %v", i, s.stretch, got, s.want)
		}
	}
}

func TestBookmarkDetector_ContactOnset(t *testing.T) {
	bd := NewBookmarkDetector(10)
	contacts := []int{0, 0, 12, 30, 0, 5}
	want := []bool{false, false, true, false, false, true}
	for i, n := range contacts {
		got := hasBookmark(bd.Check(WindowStats{WindowEndTick: int32(i), Contacts: n}), BookmarkContactOnset)
		if got != want[i] {
			t.Errorf("window %d: bookmark %v, want %v", i, got, want[i])
		}
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(10)
	calm := WindowStats{Frames: 60, Particles: 100, EnergyMean: 1e-3}

	fired := 0
	for i := 0; i < 8; i++ {
		calm.WindowEndTick = int32(i * 60)
		if hasBookmark(bd.Check(calm), BookmarkSettled) {
			if i != settledWindows-1 {
				t.Errorf("settled fired at window %d", i)
			}
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("settled fired %d times, want once", fired)
	}

	// Motion resets the count.
	bd.Check(WindowStats{Frames: 60, Particles: 100, EnergyMean: 5})
	for i := 0; i < settledWindows-1; i++ {
		if hasBookmark(bd.Check(calm), BookmarkSettled) {
			t.Fatal("settled fired before enough calm windows")
		}
	}
	if !hasBookmark(bd.Check(calm), BookmarkSettled) {
		t.Error("settled should fire again after the cloth moved")
	}
}
