package inspector

import (
	"math"
	"testing"

	"github.com/pthm-cable/flappy/components"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag  string
		want Hints
	}{
		{"", Hints{Max: 1}},
		{"bar", Hints{Widget: WidgetBar, Max: 1}},
		{"bar,max:630", Hints{Widget: WidgetBar, Max: 630}},
		{"bar,min:-16,max:16", Hints{Widget: WidgetBar, Min: -16, Max: 16}},
		{"bar,max:0", Hints{Widget: WidgetBar, Max: 1}},
		{"bar,max:many", Hints{Widget: WidgetBar, Max: 1}},
		{"angle,unit:deg", Hints{Widget: WidgetAngle, Max: 1, Degrees: true}},
		{"label,fmt:%.1f", Hints{Widget: WidgetLabel, Format: "%.1f", Max: 1}},
		{"skip", Hints{Widget: WidgetSkip, Max: 1}},
		{"unknown,max:5", Hints{Widget: WidgetAuto, Max: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := ParseTag(tt.tag); got != tt.want {
				t.Errorf("ParseTag(%q) = %+v, want %+v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestHintsRatio(t *testing.T) {
	tests := []struct {
		name  string
		hints Hints
		value float32
		want  float32
	}{
		{"middle", Hints{Max: 630}, 315, 0.5},
		{"below", Hints{Max: 630}, -5, 0},
		{"above", Hints{Max: 630}, 700, 1},
		{"signed", Hints{Min: -10, Max: 10}, 0, 0.5},
		{"empty range", Hints{}, 0.25, 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hints.Ratio(tt.value); math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("Ratio(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestExtractFieldsBird(t *testing.T) {
	bird := components.NewBird(230, 350, 68, 48)
	bird.Tilt = 25

	fields := ExtractFields(&bird)
	byName := make(map[string]Field)
	for _, f := range fields {
		byName[f.Name] = f
	}

	for _, skipped := range []string{"AnimCounter", "SpriteW", "SpriteH"} {
		if _, ok := byName[skipped]; ok {
			t.Errorf("%s should be skipped", skipped)
		}
	}
	if fields[0].Name != "X" {
		t.Errorf("first field = %s, want declaration order starting at X", fields[0].Name)
	}

	y, ok := byName["Y"]
	if !ok || y.Widget != WidgetBar || y.Max != 630 {
		t.Errorf("Y field = %+v, want a bar with max 630", y)
	}

	tilt, ok := byName["Tilt"]
	if !ok || tilt.Widget != WidgetAngle {
		t.Fatalf("Tilt field = %+v, want an angle", tilt)
	}
	v, _ := asFloat(tilt.Value)
	if got := tilt.Radians(v); math.Abs(float64(got)-25*math.Pi/180) > 1e-6 {
		t.Errorf("tilt radians = %v, want %v", got, 25*math.Pi/180)
	}
}

func TestExtractFieldsAutoDetect(t *testing.T) {
	type sample struct {
		Passed bool
		Score  int
		hidden float64
	}
	fields := ExtractFields(sample{Passed: true, Score: 3})
	if len(fields) != 2 {
		t.Fatalf("got %d fields, want 2 exported", len(fields))
	}
	if fields[0].Widget != WidgetBool || fields[1].Widget != WidgetLabel {
		t.Errorf("widgets = %v, %v, want bool then label", fields[0].Widget, fields[1].Widget)
	}
}

func TestExtractFieldsNonStruct(t *testing.T) {
	if fields := ExtractFields(42); fields != nil {
		t.Errorf("expected nil fields for a non-struct, got %v", fields)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value any
		fmt   string
		want  string
	}{
		{1.5, "", "1.50"},
		{float32(2), "", "2.00"},
		{7, "", "7"},
		{350.0, "%.0f", "350"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.value, tt.fmt); got != tt.want {
			t.Errorf("FormatValue(%v, %q) = %q, want %q", tt.value, tt.fmt, got, tt.want)
		}
	}
}

func TestFieldHeight(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		want  int32
	}{
		{"label", Field{Value: 3, Hints: Hints{Widget: WidgetLabel}}, labelRowHeight},
		{"bar", Field{Value: 3.0, Hints: Hints{Widget: WidgetBar}}, barHeightTotal},
		{"bar fallback", Field{Value: "tall", Hints: Hints{Widget: WidgetBar}}, labelRowHeight},
		{"angle", Field{Value: 1.0, Hints: Hints{Widget: WidgetAngle}}, angleHeight},
		{"bool", Field{Value: true, Hints: Hints{Widget: WidgetBool}}, boolHeight},
		{"bool fallback", Field{Value: "yes", Hints: Hints{Widget: WidgetBool}}, labelRowHeight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FieldHeight(tt.field); got != tt.want {
				t.Errorf("FieldHeight = %d, want %d", got, tt.want)
			}
		})
	}
}
