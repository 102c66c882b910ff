package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var errNotIntegral = errors.New("not an integral value")

// VertexAttrs holds the DOT attributes read for a flow-graph vertex.
// Draw and LDraw are xdot rendering hints and carry no comparison meaning.
type VertexAttrs struct {
	Name       string  `json:"name" yaml:"name"` // DOT node ID, e.g. "k3_80"
	Level      Level   `json:"level" yaml:"level"`
	Label      string  `json:"label,omitempty" yaml:"label,omitempty"`
	Shape      string  `json:"shape,omitempty" yaml:"shape,omitempty"`
	URL        string  `json:"url,omitempty" yaml:"url,omitempty"`
	FontSize   int     `json:"fontsize,omitempty" yaml:"fontsize,omitempty"`
	Height     float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Width      float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Pos        string  `json:"pos,omitempty" yaml:"pos,omitempty"`
	Style      string  `json:"style,omitempty" yaml:"style,omitempty"`
	RoleNumber int     `json:"rolnum,omitempty" yaml:"rolnum,omitempty"`
	IP         string  `json:"ip,omitempty" yaml:"ip,omitempty"`
	FontName   string  `json:"fontname,omitempty" yaml:"fontname,omitempty"`
	Draw       string  `json:"-" yaml:"-"`
	LDraw      string  `json:"-" yaml:"-"`
}

// EdgeAttrs holds the DOT attributes read for a flow-graph edge.
type EdgeAttrs struct {
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
	Dir   string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Style string `json:"style,omitempty" yaml:"style,omitempty"`
	Pos   string `json:"pos,omitempty" yaml:"pos,omitempty"`
	Draw  string `json:"-" yaml:"-"`
	HDraw string `json:"-" yaml:"-"`
	LDraw string `json:"-" yaml:"-"`
	TDraw string `json:"-" yaml:"-"`
	LP    string `json:"-" yaml:"-"`
}

// GraphAttrs holds the graph-level DOT attributes. They are cosmetic and
// never take part in a comparison.
type GraphAttrs struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	RankDir     string `json:"rankdir,omitempty" yaml:"rankdir,omitempty"`
	Rank        string `json:"rank,omitempty" yaml:"rank,omitempty"`
	BB          string `json:"bb,omitempty" yaml:"bb,omitempty"`
	XDotVersion string `json:"xdotversion,omitempty" yaml:"xdotversion,omitempty"`
	Shape       string `json:"shape,omitempty" yaml:"shape,omitempty"`
	Style       string `json:"style,omitempty" yaml:"style,omitempty"`
	Draw        string `json:"-" yaml:"-"`
}

// AttributeError reports a known attribute whose value could not be converted
// to the schema type.
type AttributeError struct {
	Key   string
	Value string
	Err   error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("attribute %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// Set assigns a DOT vertex attribute. Unknown keys are ignored.
func (a *VertexAttrs) Set(key, value string) error {
	switch key {
	case "label":
		a.Label = value
	case "shape":
		a.Shape = value
	case "URL":
		a.URL = value
	case "fontsize":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		a.FontSize = n
	case "height":
		f, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		a.Height = f
	case "width":
		f, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		a.Width = f
	case "pos":
		a.Pos = value
	case "style":
		a.Style = value
	case "rolnum":
		n, err := parseInt(key, value)
		if err != nil {
			return err
		}
		a.RoleNumber = n
	case "ip":
		a.IP = value
	case "fontname":
		a.FontName = value
	case "_draw_":
		a.Draw = value
	case "_ldraw_":
		a.LDraw = value
	}
	return nil
}

// SetName assigns the vertex name and decodes its hierarchy level.
func (a *VertexAttrs) SetName(name string) {
	a.Name = name
	a.Level = ParseLevel(name)
}

// Set assigns a DOT edge attribute. Unknown keys are ignored.
func (a *EdgeAttrs) Set(key, value string) error {
	switch key {
	case "color":
		a.Color = value
	case "dir":
		a.Dir = value
	case "label":
		a.Label = value
	case "style":
		a.Style = value
	case "pos":
		a.Pos = value
	case "_draw_":
		a.Draw = value
	case "_hdraw_":
		a.HDraw = value
	case "_ldraw_":
		a.LDraw = value
	case "_tdraw_":
		a.TDraw = value
	case "lp":
		a.LP = value
	}
	return nil
}

// Set assigns a graph-level DOT attribute. Unknown keys are ignored.
func (a *GraphAttrs) Set(key, value string) error {
	switch key {
	case "name":
		a.Name = value
	case "rankdir":
		a.RankDir = value
	case "rank":
		a.Rank = value
	case "bb":
		a.BB = value
	case "xdotversion":
		a.XDotVersion = value
	case "shape":
		a.Shape = value
	case "style":
		a.Style = value
	case "_draw_":
		a.Draw = value
	}
	return nil
}

// parseInt accepts integers and integral decimals such as "14.00". Other
// values fail with an *AttributeError wrapping the conversion error.
func parseInt(key, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err == nil {
		return n, nil
	}
	f, ferr := strconv.ParseFloat(value, 64)
	if ferr != nil {
		return 0, &AttributeError{Key: key, Value: value, Err: ferr}
	}
	if math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &AttributeError{Key: key, Value: value, Err: errNotIntegral}
	}
	return int(f), nil
}

func parseFloat(key, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &AttributeError{Key: key, Value: value, Err: err}
	}
	return f, nil
}
