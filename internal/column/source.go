package column

import (
	"strconv"
	"strings"
)

// Source is one of the two column declaration shapes accepted by the
// builder: [TemplateSource] or [ConfigSource].
type Source interface {
	// Normalize resolves the declarations into Column values. The result
	// never aliases the declarations.
	Normalize() []Column
}

// TemplateColumn is a column declared inline, as a widget would see it in
// markup: a bag of props and attrs plus slot and listener references.
type TemplateColumn struct {
	Props    map[string]any
	Attrs    map[string]any
	Slots    map[string]any
	On       map[string]any
	Children []TemplateColumn
}

// TemplateSource holds inline-declared columns.
type TemplateSource []TemplateColumn

// ConfigSource holds columns declared as data.
type ConfigSource []Column

// Normalize merges props and attrs (attrs win) and lifts the known keys
// into typed fields. Everything else stays in Attrs.
func (s TemplateSource) Normalize() []Column {
	if len(s) == 0 {
		return nil
	}
	out := make([]Column, 0, len(s))
	for _, tc := range s {
		out = append(out, tc.normalize())
	}
	return out
}

func (tc TemplateColumn) normalize() Column {
	merged := make(map[string]any, len(tc.Props)+len(tc.Attrs))
	for k, v := range tc.Props {
		merged[k] = v
	}
	for k, v := range tc.Attrs {
		merged[k] = v
	}

	var c Column
	for k, v := range merged {
		switch k {
		case "prop":
			c.Prop = asString(v)
		case "label":
			c.Label = asString(v)
		case "type":
			c.Type = ParseType(asString(v))
		case "order":
			if n, ok := asInt(v); ok {
				c.Order = OrderOf(n)
			}
		case "render":
			c.Render = v
		case "renderHeader", "render-header":
			c.RenderHeader = v
		case "labelClassName", "label-class-name":
			c.LabelClassName = asString(v)
		default:
			if c.Attrs == nil {
				c.Attrs = make(map[string]any)
			}
			c.Attrs[k] = v
		}
	}
	c.Slots = tc.Slots
	c.On = tc.On

	for _, ch := range tc.Children {
		c.Children = append(c.Children, ch.normalize())
	}
	return c
}

// Normalize deep-copies the config columns.
func (s ConfigSource) Normalize() []Column {
	if len(s) == 0 {
		return nil
	}
	out := make([]Column, len(s))
	for i, c := range s {
		out[i] = c.Clone()
	}
	return out
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
