package ui

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/drape/cloth"
	"github.com/pthm-cable/drape/components"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Index     int
	Count     int
	Body      *components.Body
	Stats     cloth.Stats
	Positions []cloth.Vec3
}

func inspected(d any) *InspectorData { return d.(*InspectorData) }

// inspectorSections lists the inspector fields in display order.
var inspectorSections = []SectionDescriptor{
	{
		ID:    "layout",
		Title: "Layout",
		Fields: []FieldDescriptor{
			{ID: "grid", Label: "Grid", Widget: WidgetText, TextGetter: func(d any) string {
				s := inspected(d).Body.Sim
				return fmt.Sprintf("%dx%d @ %.3f m", s.Width(), s.Height(), s.Spacing())
			}},
			{ID: "topology", Label: "Topology", Widget: WidgetText, TextGetter: func(d any) string {
				t := inspected(d).Body.Sim.Topology()
				return fmt.Sprintf("%d-conn bend=%v %s", t.Connectivity, t.Bend, t.Orientation)
			}},
			{ID: "constraints", Label: "Constraints", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(inspected(d).Stats.ConstraintCount) }},
			{ID: "pinned", Label: "Pinned", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(inspected(d).Stats.FixedCount) }},
		},
	},
	{
		ID:    "material",
		Title: "Material",
		Fields: []FieldDescriptor{
			{ID: "stiffness", Label: "Stiffness", Widget: WidgetBar, Range: UnitRange(),
				Getter: func(d any) float32 { return float32(inspected(d).Body.Sim.Material().Stiffness) }},
			{ID: "bend", Label: "Bend", Widget: WidgetBar, Range: UnitRange(),
				Getter: func(d any) float32 { return float32(inspected(d).Body.Sim.Material().BendStiffness) }},
			{ID: "damping", Label: "Damping", Widget: WidgetBar, Range: FieldRange{Min: 0.9, Max: 1},
				Getter: func(d any) float32 { return float32(inspected(d).Body.Sim.Material().Damping) }},
			{ID: "friction", Label: "Friction", Widget: WidgetBar, Range: UnitRange(),
				Getter: func(d any) float32 { return float32(inspected(d).Body.Sim.Material().Friction) }},
		},
	},
	{
		ID:    "frame",
		Title: "Last Frame",
		Fields: []FieldDescriptor{
			{ID: "substeps", Label: "Substeps", Widget: WidgetText, Format: "%.0f",
				Getter: func(d any) float32 { return float32(inspected(d).Stats.Substeps) }},
			{ID: "contacts", Label: "Contacts", Widget: WidgetText, TextGetter: func(d any) string {
				st := inspected(d).Stats
				return fmt.Sprintf("%d (+%d self)", st.Contacts, st.SelfContacts)
			}},
			{ID: "stretch", Label: "Max stretch", Widget: WidgetBar, Range: FieldRange{Max: 0.5}, Warn: 0.25,
				Getter: func(d any) float32 { return float32(inspected(d).Stats.MaxStretch) }},
			{ID: "energy", Label: "Energy", Widget: WidgetText, Format: "%.4f J",
				Getter: func(d any) float32 { return float32(inspected(d).Stats.KineticEnergy) }},
			{ID: "speed", Label: "Max speed", Widget: WidgetText, Format: "%.3f m/s",
				Getter: func(d any) float32 { return float32(inspected(d).Stats.MaxSpeed) }},
		},
	},
	{
		ID:      "broken",
		Visible: func(d any) bool { return inspected(d).Body.Broken },
		Fields: []FieldDescriptor{
			{ID: "frozen", Label: "State", Widget: WidgetText, TextGetter: func(any) string { return "FROZEN (non-finite)" }},
		},
	},
}

// Inspector renders the body inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// previewHeight is the height of the sheet preview box.
const previewHeight = 110

// Draw renders the inspector panel for the given data.
func (ins *Inspector) Draw(data InspectorData) int32 {
	if data.Body == nil {
		return ins.y
	}
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	panelHeight := padding*2 + r.Theme.LineHeight + 4 + previewHeight + 8
	for _, sd := range inspectorSections {
		panelHeight += r.sectionHeight(sd, &data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, panelHeight)

	y := ins.y + padding
	title := fmt.Sprintf("%s (%d/%d)", data.Body.Name, data.Index+1, data.Count)
	rl.DrawText(title, ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	y = ins.drawPreview(ins.x+padding, y, contentWidth, previewHeight, data)
	y = r.DrawSpacer(y, 8)

	for _, sd := range inspectorSections {
		y = r.DrawSection(ins.x+padding, y, sd, &data, contentWidth)
	}
	return y
}

// drawPreview draws the sheet's particles projected onto its own plane, with
// pinned particles highlighted.
func (ins *Inspector) drawPreview(x, y, width, height int32, data InspectorData) int32 {
	rl.DrawRectangle(x, y, width, height, rl.Color{R: 25, G: 30, B: 35, A: 255})
	rl.DrawRectangleLinesEx(rl.Rectangle{X: float32(x), Y: float32(y), Width: float32(width), Height: float32(height)}, 1, rl.Color{R: 50, G: 60, B: 70, A: 255})

	if len(data.Positions) == 0 {
		return y + height
	}

	horizontal := data.Body.Sim.Topology().Orientation == cloth.Horizontal
	project := func(p cloth.Vec3) (float64, float64) {
		if horizontal {
			return p.X, p.Z
		}
		return p.X, -p.Y
	}

	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, p := range data.Positions {
		u, v := project(p)
		minU, maxU = math.Min(minU, u), math.Max(maxU, u)
		minV, maxV = math.Min(minV, v), math.Max(maxV, v)
	}

	pad := 10.0
	span := math.Max(maxU-minU, maxV-minV)
	scale := 1.0
	if span > 1e-9 {
		scale = math.Min((float64(width)-2*pad)/math.Max(maxU-minU, 1e-9), (float64(height)-2*pad)/math.Max(maxV-minV, 1e-9))
	}
	cx := float64(x) + float64(width)/2
	cy := float64(y) + float64(height)/2
	midU, midV := (minU+maxU)/2, (minV+maxV)/2

	for i, p := range data.Positions {
		u, v := project(p)
		sx := float32(cx + (u-midU)*scale)
		sy := float32(cy + (v-midV)*scale)
		color := rl.Color{R: 150, G: 170, B: 190, A: 255}
		size := float32(1.5)
		if fixed, _ := data.Body.Sim.IsParticleFixed(i); fixed {
			color = rl.Orange
			size = 2.5
		}
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, size, color)
	}

	return y + height
}
