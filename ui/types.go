// Package ui provides a descriptor-driven UI for the cloth viewer.
// Instead of hard-coding field names and layouts, panels are defined
// through metadata that can be updated alongside the simulator stats.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// WidgetType specifies how a field should be rendered.
type WidgetType int

const (
	WidgetText    WidgetType = iota // Plain text with format string
	WidgetBar                       // Progress bar over Range
	WidgetSection                   // Section header
	WidgetSpacer                    // Vertical spacing
)

// FieldRange defines the value range for bar widgets.
type FieldRange struct {
	Min float32
	Max float32
}

// DefaultRange returns a [0, 1] range.
func UnitRange() FieldRange {
	return FieldRange{Min: 0, Max: 1}
}

// FieldDescriptor defines how to display a single piece of data.
type FieldDescriptor struct {
	ID         string            // Unique identifier for the field
	Label      string            // Display label
	Widget     WidgetType        // How to render
	Format     string            // Printf format for text (e.g., "%.2f")
	Range      FieldRange        // Value range for bars
	Warn       float32           // Bars at or above this use the warning color (0 = never)
	Visible    func(any) bool    // Optional visibility check (nil = always visible)
	Getter     func(any) float32 // Value extractor (for numeric fields)
	TextGetter func(any) string  // Value extractor (for text fields)
}

// SectionDescriptor defines a group of fields with a header.
type SectionDescriptor struct {
	ID      string            // Unique identifier
	Title   string            // Section header text
	Fields  []FieldDescriptor // Fields in this section
	Visible func(any) bool    // Optional visibility check for entire section
}

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarWarn        rl.Color
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme is the viewer's dark slate palette.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 18, G: 22, B: 30, A: 230},
		PanelBorder:    rl.Color{R: 70, G: 84, B: 104, A: 255},
		SectionHeader:  rl.Color{R: 240, G: 200, B: 110, A: 255},
		LabelColor:     rl.Color{R: 170, G: 178, B: 190, A: 255},
		ValueColor:     rl.RayWhite,
		BarBg:          rl.Color{R: 36, G: 42, B: 52, A: 255},
		BarFill:        rl.Color{R: 90, G: 160, B: 210, A: 255},
		BarWarn:        rl.Color{R: 220, G: 90, B: 80, A: 255},
		Padding:        10,
		LineHeight:     18,
		LabelWidth:     100,
		BarHeight:      12,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}
