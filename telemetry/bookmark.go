package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkEnergySpike  BookmarkType = "energy_spike"
	BookmarkOverstretch  BookmarkType = "overstretch"
	BookmarkContactOnset BookmarkType = "contact_onset"
	BookmarkSettled      BookmarkType = "settled"
)

// Detection thresholds.
const (
	spikeFactor              = 3.0
	spikeFloor               = 1e-3
	overstretchLimit         = 0.25 // |length/rest - 1|
	settledEnergyPerParticle = 1e-4
	settledWindows           = 5
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector flags interesting windows: sudden energy spikes, the cloth
// tearing past its stretch limit, first contact with a collider and coming
// to rest.
type BookmarkDetector struct {
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	overstretched bool
	touching      bool
	calmWindows   int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark
	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkEnergySpike,
		bd.checkOverstretch,
		bd.checkContactOnset,
		bd.checkSettled,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkEnergySpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	var total float64
	for _, h := range history {
		total += h.EnergyMean
	}
	avg := total / float64(len(history))

	if stats.EnergyMean > spikeFloor && stats.EnergyMean > avg*spikeFactor {
		return &Bookmark{
			Type:        BookmarkEnergySpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Kinetic energy %.4f is %.1fx the rolling average (%.4f)", stats.EnergyMean, stats.EnergyMean/max(avg, 1e-12), avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkOverstretch(stats WindowStats) *Bookmark {
	over := stats.MaxStretch > overstretchLimit
	defer func() { bd.overstretched = over }()
	if !over || bd.overstretched {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkOverstretch,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Max stretch %.0f%% exceeds %.0f%%", stats.MaxStretch*100, overstretchLimit*100),
	}
}

func (bd *BookmarkDetector) checkContactOnset(stats WindowStats) *Bookmark {
	touching := stats.Contacts > 0
	defer func() { bd.touching = touching }()
	if !touching || bd.touching {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkContactOnset,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Cloth touched colliders (%d contacts)", stats.Contacts),
	}
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.Particles == 0 || stats.Frames == 0 {
		bd.calmWindows = 0
		return nil
	}
	if stats.EnergyMean/float64(stats.Particles) >= settledEnergyPerParticle {
		bd.calmWindows = 0
		return nil
	}
	bd.calmWindows++
	if bd.calmWindows != settledWindows {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSettled,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Cloth at rest for %d windows (energy %.2g)", settledWindows, stats.EnergyMean),
	}
}
