package inspector

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Widget colors
var (
	ColorBarBg       = rl.Color{R: 40, G: 40, B: 40, A: 255}
	ColorBarFill     = rl.Color{R: 100, G: 180, B: 100, A: 255}
	ColorBarLow      = rl.Color{R: 180, G: 80, B: 80, A: 255}
	ColorText        = rl.Color{R: 220, G: 220, B: 220, A: 255}
	ColorTextDim     = rl.Color{R: 150, G: 150, B: 150, A: 255}
	ColorAngleBg     = rl.Color{R: 50, G: 50, B: 60, A: 255}
	ColorAngleNeedle = rl.Color{R: 255, G: 200, B: 100, A: 255}
	ColorBoolOn      = rl.Color{R: 100, G: 200, B: 100, A: 255}
	ColorBoolOff     = rl.Color{R: 80, G: 80, B: 80, A: 255}
)

// Row heights returned by the widgets.
const (
	labelRowHeight int32 = 20
	barHeightTotal int32 = 18
	angleHeight    int32 = 44
	boolHeight     int32 = 18
)

const (
	valueColumn = 80 // x offset of bars and indicators
	barWidth    = 120
)

// FieldHeight returns how many pixels DrawField will use for field,
// without drawing anything.
func FieldHeight(field Field) int32 {
	_, numeric := asFloat(field.Value)
	switch {
	case field.Widget == WidgetBar && numeric:
		return barHeightTotal
	case field.Widget == WidgetAngle && numeric:
		return angleHeight
	case field.Widget == WidgetBool:
		if _, ok := field.Value.(bool); ok {
			return boolHeight
		}
	}
	return labelRowHeight
}

// DrawField renders a field using its widget, falling back to a label when
// the value does not suit the widget.
func DrawField(x, y int32, field Field) int32 {
	v, numeric := asFloat(field.Value)
	switch {
	case field.Widget == WidgetBar && numeric:
		return DrawBar(x, y, field.Name, v, field.Hints)
	case field.Widget == WidgetAngle && numeric:
		return DrawAngle(x, y, field.Name, v, field.Hints)
	case field.Widget == WidgetBool:
		if b, ok := field.Value.(bool); ok {
			return DrawBool(x, y, field.Name, b)
		}
	}
	return DrawLabel(x, y, field.Name, field.Value, field.Hints)
}

// DrawLabel renders "name: value".
func DrawLabel(x, y int32, name string, value any, h Hints) int32 {
	rl.DrawText(fmt.Sprintf("%s: %s", name, FormatValue(value, h.Format)), x, y, 16, ColorText)
	return labelRowHeight
}

// DrawBar renders a horizontal bar filled across the hint range.
func DrawBar(x, y int32, name string, value float32, h Hints) int32 {
	ratio := h.Ratio(value)
	const barHeight = 14

	rl.DrawText(name, x, y, 14, ColorTextDim)

	barX := x + valueColumn
	rl.DrawRectangle(barX, y, barWidth, barHeight, ColorBarBg)
	rl.DrawRectangle(barX, y, int32(barWidth*ratio), barHeight, lerpColor(ColorBarLow, ColorBarFill, ratio))

	rl.DrawText(FormatValue(value, h.Format), barX+barWidth+5, y, 14, ColorTextDim)
	return barHeightTotal
}

// DrawAngle renders a dial. Positive angles turn the needle counter-clockwise
// from the right, the way a bird tilts its beak up.
func DrawAngle(x, y int32, name string, value float32, h Hints) int32 {
	radians := float64(h.Radians(value))
	const size = 40
	cx := float32(x + valueColumn - 20 + size/2)
	cy := float32(y + size/2)

	rl.DrawText(name, x, y+size/2-7, 14, ColorTextDim)

	rl.DrawCircleV(rl.Vector2{X: cx, Y: cy}, size/2, ColorAngleBg)
	rl.DrawCircleLinesV(rl.Vector2{X: cx, Y: cy}, size/2, ColorTextDim)

	needle := float32(size/2 - 4)
	end := rl.Vector2{
		X: cx + needle*float32(math.Cos(radians)),
		Y: cy - needle*float32(math.Sin(radians)),
	}
	rl.DrawLineEx(rl.Vector2{X: cx, Y: cy}, end, 2, ColorAngleNeedle)

	degrees := radians * 180 / math.Pi
	rl.DrawText(fmt.Sprintf("%.0f deg", degrees), int32(cx)+size/2+5, y+size/2-7, 14, ColorTextDim)
	return angleHeight
}

// DrawBool renders an on/off indicator.
func DrawBool(x, y int32, name string, value bool) int32 {
	rl.DrawText(name, x, y, 14, ColorTextDim)

	color, text := ColorBoolOff, "OFF"
	if value {
		color, text = ColorBoolOn, "ON"
	}
	const indicator = 14
	rl.DrawRectangle(x+valueColumn, y, indicator, indicator, color)
	rl.DrawText(text, x+valueColumn+indicator+5, y, 14, color)
	return boolHeight
}

// lerpColor interpolates between two colors.
func lerpColor(a, b rl.Color, t float32) rl.Color {
	return rl.Color{
		R: uint8(float32(a.R) + (float32(b.R)-float32(a.R))*t),
		G: uint8(float32(a.G) + (float32(b.G)-float32(a.G))*t),
		B: uint8(float32(a.B) + (float32(b.B)-float32(a.B))*t),
		A: 255,
	}
}
