package main

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/drape/camera"
	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
	"github.com/pthm-cable/drape/game"
	"github.com/pthm-cable/drape/renderer"
	"github.com/pthm-cable/drape/stream"
	"github.com/pthm-cable/drape/systems"
	"github.com/pthm-cable/drape/ui"
)

// defaultSavePath is used by the S key when no -save path was given.
const defaultSavePath = "cloth.json"

// messageDuration is how long status messages stay on screen.
const messageDuration = 3 * time.Second

// Mouse sensitivity.
const (
	orbitPerPixel = 0.006
	zoomPerNotch  = 1.1
)

// viewer owns the window-side state: camera, renderers and panels.
type viewer struct {
	g        *game.Game
	hub      *stream.Hub
	savePath string

	cam        *camera.Camera
	background *renderer.BackgroundRenderer
	cloth      *renderer.ClothRenderer

	overlays   *ui.OverlayRegistry
	registry   *systems.SystemRegistry
	hud        *ui.HUD
	perfPanel  *ui.PerfPanel
	statsPanel *ui.StatsPanel
	inspector  *ui.Inspector
	settings   *ui.SettingsPanel
	controls   *ui.ControlsPanel

	selected   int
	positions  []cloth.Vec3
	winds      []cloth.WindForce
	message    string
	messageEnd time.Time
}

func newViewer(g *game.Game, hub *stream.Hub, savePath string) *viewer {
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if savePath == "" {
		savePath = defaultSavePath
	}

	cam := camera.New(float64(w), float64(h), sceneCenter(g), 3)
	cam.Orbit(0.35, 0.2)
	cam.SetHome()

	return &viewer{
		g:          g,
		hub:        hub,
		savePath:   savePath,
		cam:        cam,
		background: renderer.NewBackgroundRenderer(w, h),
		cloth:      renderer.NewClothRenderer(),
		overlays:   ui.NewOverlayRegistry(),
		registry:   systems.NewSystemRegistry(),
		hud:        ui.NewHUD(),
		perfPanel:  ui.NewPerfPanel(10, 100),
		statsPanel: ui.NewStatsPanel(10, 100, 260),
		inspector:  ui.NewInspector(w-290, 10, 280),
		settings:   ui.NewSettingsPanel(w-290, h-230, 280),
		controls:   ui.NewControlsPanel(10, 100, 220),
	}
}

// sceneCenter returns the mean particle position of the primary body.
func sceneCenter(g *game.Game) r3.Vec {
	pos := g.Primary().Positions()
	var sum r3.Vec
	for _, p := range pos {
		sum = r3.Add(sum, p)
	}
	if len(pos) == 0 {
		return sum
	}
	return r3.Scale(1/float64(len(pos)), sum)
}

func (v *viewer) flash(format string, args ...any) {
	v.message = fmt.Sprintf(format, args...)
	v.messageEnd = time.Now().Add(messageDuration)
}

// Update handles input and advances the scene one frame.
func (v *viewer) Update() {
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	v.cam.Resize(float64(w), float64(h))
	v.background.Resize(w, h)
	v.inspector.SetPosition(w-290, 10)
	v.settings.SetPosition(w-290, h-230)

	v.handleInput()
	v.g.Update()
}

func (v *viewer) handleInput() {
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		v.cam.Orbit(-float64(d.X)*orbitPerPixel, float64(d.Y)*orbitPerPixel)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		d := rl.GetMouseDelta()
		v.cam.Pan(float64(d.X), float64(d.Y))
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		if wheel > 0 {
			v.cam.ZoomBy(zoomPerNotch)
		} else {
			v.cam.ZoomBy(1 / zoomPerNotch)
		}
	}

	switch {
	case rl.IsKeyPressed(rl.KeySpace):
		v.g.TogglePause()
	case rl.IsKeyPressed(rl.KeyR):
		v.g.Reset()
		v.flash("scene reset")
	case rl.IsKeyPressed(rl.KeyS):
		v.save()
	case rl.IsKeyPressed(rl.KeyL):
		v.load()
	case rl.IsKeyPressed(rl.KeyTab):
		v.selected = (v.selected + 1) % v.g.BodyCount()
	case rl.IsKeyPressed(rl.KeyH):
		v.controls.Toggle()
	case rl.IsKeyPressed(rl.KeyHome):
		v.cam.Reset()
	}
	v.overlays.HandleInput()
}

func (v *viewer) save() {
	if err := v.g.SavePrimary(v.savePath); err != nil {
		v.flash("save failed: %v", err)
		return
	}
	v.flash("saved %s", v.savePath)
}

func (v *viewer) load() {
	if err := v.g.LoadPrimary(v.savePath); err != nil {
		v.flash("load failed: %v", err)
		return
	}
	v.flash("loaded %s", v.savePath)
}

// Draw renders the scene and the panels.
func (v *viewer) Draw() {
	v.g.Perf().RecordFrame()
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

	rl.BeginDrawing()
	v.background.Draw()

	rl.BeginMode3D(renderer.Camera3D(v.cam))
	if v.overlays.IsEnabled(ui.OverlayColliders) {
		renderer.DrawColliders(v.g.Colliders())
	}
	opts := renderer.DrawOptions{
		BodyColors: v.overlays.IsEnabled(ui.OverlayBodyColors),
		Stretch:    v.overlays.IsEnabled(ui.OverlayStretch),
		Wireframe:  v.overlays.IsEnabled(ui.OverlayWireframe),
		Pins:       v.overlays.IsEnabled(ui.OverlayPins),
		Normals:    v.overlays.IsEnabled(ui.OverlayNormals),
	}
	v.g.EachBody(func(i int, b *components.Body) {
		v.cloth.Draw(b.Sim, i, opts)
	})
	if v.overlays.IsEnabled(ui.OverlayWind) {
		v.winds = v.winds[:0]
		for i := 0; i < v.g.WindCount(); i++ {
			if wind, err := v.g.Wind(i); err == nil {
				v.winds = append(v.winds, wind.Current)
			}
		}
		renderer.DrawWind(r3.Add(v.cam.Target, cloth.V3(0, 0.8, 0)), v.winds)
	}
	rl.EndMode3D()

	v.drawPanels(w, h)
	rl.EndDrawing()
}

func (v *viewer) drawPanels(w, h int32) {
	particles, constraints := 0, 0
	v.g.EachBody(func(_ int, b *components.Body) {
		particles += b.Sim.ParticleCount()
		constraints += b.Sim.ConstraintCount()
	})
	viewers := 0
	if v.hub != nil {
		viewers = v.hub.Clients()
	}
	v.hud.Draw(ui.HUDData{
		Title:        v.g.Config().Screen.Title,
		Bodies:       v.g.BodyCount(),
		Particles:    particles,
		Constraints:  constraints,
		Tick:         v.g.Tick(),
		SimTime:      v.g.Time(),
		FPS:          rl.GetFPS(),
		Paused:       v.g.Paused(),
		Viewers:      viewers,
		ScreenWidth:  w,
		ScreenHeight: h,
	})

	y := int32(100)
	if v.controls.IsVisible() {
		v.controls.SetPosition(10, y)
		y = v.controls.Draw(v.overlays) + 10
	}
	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perfPanel.SetPosition(10, y)
		v.perfPanel.Draw(ui.PerfPanelData{Stats: v.g.Perf().Stats(), Registry: v.registry})
		y += 20 + 16 + 14*int32(len(v.registry.IDs())) + 10
	}
	ws, bookmarks := v.g.LastStats()
	v.statsPanel.SetPosition(10, y)
	v.statsPanel.Draw(ws, bookmarks)

	if body, err := v.g.Body(v.selected); err == nil {
		v.positions = body.Sim.PositionsInto(v.positions[:0])
		v.inspector.Draw(ui.InspectorData{
			Index:     v.selected,
			Count:     v.g.BodyCount(),
			Body:      body,
			Stats:     body.Sim.Stats(),
			Positions: v.positions,
		})
	}

	switch v.settings.Draw(v.g) {
	case ui.ActionSave:
		v.save()
	case ui.ActionLoad:
		v.load()
	}

	if time.Now().Before(v.messageEnd) {
		v.hud.DrawMessage(h, v.message)
	}
	v.hud.DrawControls(w, h, "[Space] Pause  [R] Reset  [S] Save  [L] Load  [Tab] Next body  [H] Overlays  [Home] Camera  RMB orbit, MMB pan, wheel zoom")
}
