package inspector

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Widget selects how a field is drawn.
type Widget int

const (
	WidgetAuto Widget = iota
	WidgetLabel
	WidgetBar
	WidgetAngle
	WidgetBool
	WidgetSkip
)

var widgetNames = map[string]Widget{
	"label": WidgetLabel,
	"bar":   WidgetBar,
	"angle": WidgetAngle,
	"bool":  WidgetBool,
	"skip":  WidgetSkip,
}

// Hints are the parsed form of an `inspect` struct tag:
//
//	`inspect:"bar,max:630"`
//	`inspect:"angle,unit:deg"`
//	`inspect:"label,fmt:%.1f"`
//	`inspect:"skip"`
//
// Unknown widgets fall back to auto detection; unknown options are ignored.
type Hints struct {
	Widget  Widget
	Format  string  // fmt:
	Min     float32 // min:, bar lower bound
	Max     float32 // max:, bar upper bound, 1 when unset
	Degrees bool    // unit:deg, angle is stored in degrees
}

// ParseTag parses an inspect struct tag.
func ParseTag(tag string) Hints {
	h := Hints{Max: 1}
	if tag == "" {
		return h
	}

	parts := strings.Split(tag, ",")
	h.Widget = widgetNames[strings.TrimSpace(parts[0])]

	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			continue
		}
		switch key {
		case "fmt":
			h.Format = value
		case "unit":
			h.Degrees = value == "deg"
		case "min":
			if v, err := strconv.ParseFloat(value, 32); err == nil {
				h.Min = float32(v)
			}
		case "max":
			if v, err := strconv.ParseFloat(value, 32); err == nil {
				h.Max = float32(v)
			}
		}
	}
	if h.Max <= h.Min {
		h.Min, h.Max = 0, 1
	}
	return h
}

// Ratio maps v into [0, 1] across the bar range.
func (h Hints) Ratio(v float32) float32 {
	lo, hi := h.Min, h.Max
	if hi <= lo {
		lo, hi = 0, 1
	}
	return clamp32((v-lo)/(hi-lo), 0, 1)
}

// Radians converts an angle field to radians.
func (h Hints) Radians(v float32) float32 {
	if h.Degrees {
		return v * math.Pi / 180
	}
	return v
}

// Field is one exported struct field with its rendering hints.
type Field struct {
	Name  string
	Value any
	Hints
}

// ExtractFields lists the exported fields of a struct (or pointer to one)
// in declaration order. Fields tagged skip are left out.
func ExtractFields(v any) []Field {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	t := rv.Type()
	var fields []Field
	for i := 0; i < rv.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		hints := ParseTag(sf.Tag.Get("inspect"))
		if hints.Widget == WidgetSkip {
			continue
		}
		if hints.Widget == WidgetAuto {
			hints.Widget = detectWidget(rv.Field(i).Kind())
		}

		fields = append(fields, Field{
			Name:  sf.Name,
			Value: rv.Field(i).Interface(),
			Hints: hints,
		})
	}
	return fields
}

func detectWidget(k reflect.Kind) Widget {
	if k == reflect.Bool {
		return WidgetBool
	}
	return WidgetLabel
}

// FormatValue formats a field value, with two decimals for floats unless
// format says otherwise.
func FormatValue(value any, format string) string {
	if format != "" {
		return fmt.Sprintf(format, value)
	}
	switch value.(type) {
	case float32, float64:
		return fmt.Sprintf("%.2f", value)
	}
	return fmt.Sprint(value)
}

// asFloat converts numeric field values for bars and angles.
func asFloat(value any) (float32, bool) {
	switch v := value.(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	case int:
		return float32(v), true
	case int32:
		return float32(v), true
	case int64:
		return float32(v), true
	}
	return 0, false
}
