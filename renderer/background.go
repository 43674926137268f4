package renderer

import rl "github.com/gen2brain/raylib-go/raylib"

// BackgroundRenderer paints a vertical sky gradient behind the 3D scene.
type BackgroundRenderer struct {
	screenW, screenH int32
	top, bottom      rl.Color
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW: screenW,
		screenH: screenH,
		top:     rl.Color{R: 32, G: 38, B: 48, A: 255},
		bottom:  rl.Color{R: 70, G: 78, B: 90, A: 255},
	}
}

// Resize updates the painted area.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW = screenW
	b.screenH = screenH
}

// Draw clears the frame and paints the gradient.
func (b *BackgroundRenderer) Draw() {
	rl.ClearBackground(b.bottom)
	rl.DrawRectangleGradientV(0, 0, b.screenW, b.screenH, b.top, b.bottom)
}
