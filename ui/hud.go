package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/systems"
	"github.com/pthm-cable/drape/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Bodies       int
	Particles    int
	Constraints  int
	Tick         int32
	SimTime      float64
	FPS          int32
	Paused       bool
	Viewers      int
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Bodies: %d | Particles: %d | Constraints: %d", data.Bodies, data.Particles, data.Constraints),
		10, 35, 16, rl.LightGray,
	)

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.2fs | FPS: %d | Viewers: %d", data.Tick, data.SimTime, data.FPS, data.Viewers),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// DrawMessage shows a transient status line above the control legend.
func (h *HUD) DrawMessage(screenHeight int32, msg string) {
	if msg == "" {
		return
	}
	rl.DrawText(msg, 10, screenHeight-45, 14, rl.Yellow)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	Stats    telemetry.PerfStats
	Registry *systems.SystemRegistry
}

// PerfPanel renders the frame phase performance panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel with phases in frame order.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	rl.DrawText("Frame Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s | %.0f ticks/s", data.Stats.AvgTickDuration.Round(time.Microsecond), data.Stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range data.Registry.IDs() {
		avg, ok := data.Stats.PhaseAvg[name]
		if !ok {
			continue
		}
		pct := data.Stats.PhasePct[name]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-16s %6s %5.1f%%", data.Registry.GetName(name), avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// windowSections describes the last stats window.
var windowSections = []SectionDescriptor{
	{
		ID:    "window",
		Title: "Last Window",
		Fields: []FieldDescriptor{
			{ID: "substeps", Label: "Substeps", Widget: WidgetText, Format: "%.2f/frame",
				Getter: func(d any) float32 { return float32(d.(*telemetry.WindowStats).MeanSubsteps) }},
			{ID: "contacts", Label: "Contacts", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(d.(*telemetry.WindowStats).Contacts) }},
			{ID: "self_contacts", Label: "Self contacts", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(d.(*telemetry.WindowStats).SelfContacts) }},
			{ID: "max_stretch", Label: "Max stretch", Widget: WidgetBar, Range: FieldRange{Max: 0.5}, Warn: 0.25,
				Getter: func(d any) float32 { return float32(d.(*telemetry.WindowStats).MaxStretch) }},
			{ID: "energy", Label: "Energy p50", Widget: WidgetText, Format: "%.4f J",
				Getter: func(d any) float32 { return float32(d.(*telemetry.WindowStats).EnergyP50) }},
			{ID: "lowest", Label: "Lowest Y", Widget: WidgetText, Format: "%.3f m",
				Getter: func(d any) float32 { return float32(d.(*telemetry.WindowStats).LowestY) }},
		},
	},
}

// StatsPanel renders the most recent telemetry window and its bookmarks.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the panel. Nothing is drawn before the first window closes.
func (s *StatsPanel) Draw(ws telemetry.WindowStats, bookmarks []telemetry.Bookmark) int32 {
	if ws.Frames == 0 {
		return s.y
	}
	r := s.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range windowSections {
		height += r.sectionHeight(sd, &ws)
	}
	height += int32(len(bookmarks)) * r.Theme.LineHeight
	r.DrawPanel(s.x, s.y, s.width, height)

	y := s.y + padding
	for _, sd := range windowSections {
		y = r.DrawSection(s.x+padding, y, sd, &ws, s.width-padding*2)
	}
	for _, bm := range bookmarks {
		rl.DrawText(fmt.Sprintf("* %s", bm.Description), s.x+padding, y, r.Theme.FontSize, rl.Orange)
		y += r.Theme.LineHeight
	}
	return s.y + height
}
