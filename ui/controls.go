package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
)

// ControlsPanel renders the overlay toggle legend.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the controls panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	if !c.visible {
		return c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	categories := overlays.Categories()
	totalItems := 0
	for _, cat := range categories {
		totalItems += len(overlays.ByCategory(cat)) + 1 // +1 for category header
	}
	panelHeight := int32(totalItems)*lineHeight + padding*3 + lineHeight

	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	rl.DrawText("Overlays", c.x+padding, y, 16, rl.White)
	y += lineHeight + 4

	for _, category := range categories {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight

		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}

		y += 4
	}

	return y
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}

// SceneControls is the part of the scene the settings panel drives.
type SceneControls interface {
	Primary() *cloth.Simulator
	WindCount() int
	Wind(i int) (*components.Wind, error)
	SetWindStrength(i int, strength float64) error
	SetIterations(n int)
	SetSelfCollision(enable bool)
	Paused() bool
	TogglePause()
	Reset()
}

// Action is a request from the settings panel the caller must carry out.
type Action int

const (
	ActionNone Action = iota
	ActionSave
	ActionLoad
)

// Slider limits.
const (
	maxWindStrength = 10
	maxIterations   = 32
)

// SettingsPanel renders raygui widgets for the live solver settings.
type SettingsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewSettingsPanel creates a new settings panel.
func NewSettingsPanel(x, y, width int32) *SettingsPanel {
	return &SettingsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *SettingsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Draw renders the panel, applies slider changes to scene and returns any
// file action the user asked for.
func (s *SettingsPanel) Draw(scene SceneControls) Action {
	r := s.renderer
	padding := float32(r.Theme.Padding)
	x := float32(s.x) + padding
	w := float32(s.width) - 2*padding
	sliderW := w - 50

	winds := scene.WindCount()
	height := int32(padding*2) + 20 + int32(winds)*36 + 36 + 26 + 34
	r.DrawPanel(s.x, s.y, s.width, height)

	y := float32(s.y) + padding
	rl.DrawText("Settings", int32(x), int32(y), 16, rl.White)
	y += 20

	for i := 0; i < winds; i++ {
		wind, err := scene.Wind(i)
		if err != nil {
			continue
		}
		rl.DrawText(fmt.Sprintf("Wind %d strength", i+1), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		y += 14
		strength := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 16}, "", "",
			float32(wind.Base.Strength), 0, maxWindStrength)
		rl.DrawText(fmt.Sprintf("%.2f", wind.Current.Strength), int32(x+sliderW+6), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
		if float64(strength) != wind.Base.Strength {
			scene.SetWindStrength(i, float64(strength))
		}
		y += 22
	}

	cfg := scene.Primary().Config()
	rl.DrawText("Iterations", int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
	y += 14
	iters := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: sliderW, Height: 16}, "", "",
		float32(cfg.Iterations), 1, maxIterations)
	rl.DrawText(fmt.Sprintf("%d", cfg.Iterations), int32(x+sliderW+6), int32(y+2), r.Theme.FontSize, r.Theme.ValueColor)
	if n := int(iters + 0.5); n != cfg.Iterations {
		scene.SetIterations(n)
	}
	y += 22

	if self := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 16, Height: 16}, "Self collision", cfg.SelfCollision); self != cfg.SelfCollision {
		scene.SetSelfCollision(self)
	}
	y += 26

	buttonW := (w - 3*6) / 4
	action := ActionNone
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: buttonW, Height: 24}, pauseLabel(scene.Paused())) {
		scene.TogglePause()
	}
	if gui.Button(rl.Rectangle{X: x + buttonW + 6, Y: y, Width: buttonW, Height: 24}, "Reset") {
		scene.Reset()
	}
	if gui.Button(rl.Rectangle{X: x + 2*(buttonW+6), Y: y, Width: buttonW, Height: 24}, "Save") {
		action = ActionSave
	}
	if gui.Button(rl.Rectangle{X: x + 3*(buttonW+6), Y: y, Width: buttonW, Height: 24}, "Load") {
		action = ActionLoad
	}
	return action
}

func pauseLabel(paused bool) string {
	if paused {
		return "Resume"
	}
	return "Pause"
}
