package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/evolution"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

type document struct {
	Attributes map[string]any `json:"attributes,omitempty"`
	Nodes      []node         `json:"nodes"`
	Edges      []edge         `json:"edges"`
}

type node struct {
	ID         string         `json:"id"`
	Presence   []span         `json:"presence,omitempty"`
	Position   []position     `json:"position,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type edge struct {
	ID         string         `json:"id"`
	From       string         `json:"from"`
	To         string         `json:"to"`
	Presence   []span         `json:"presence,omitempty"`
	Points     []curve        `json:"points,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type span struct {
	From      *float64 `json:"from"`
	To        *float64 `json:"to"`
	LeftOpen  bool     `json:"left_open,omitempty"`
	RightOpen *bool    `json:"right_open,omitempty"`
}

type position struct {
	span
	X             float64  `json:"x"`
	Y             float64  `json:"y"`
	X2            *float64 `json:"x2,omitempty"`
	Y2            *float64 `json:"y2,omitempty"`
	Interpolation string   `json:"interpolation,omitempty"`
}

type curve struct {
	span
	Points        [][]float64 `json:"points"`
	Points2       [][]float64 `json:"points2,omitempty"`
	Interpolation string      `json:"interpolation,omitempty"`
}

// ReadDynamic decodes a dynamic graph from r.
//
// It returns an INVALID_FORMAT error for malformed JSON and an
// INVALID_INPUT error for bad identifiers, unknown edge endpoints,
// duplicates, empty spans, overlapping position spans or attribute values
// that cannot be coerced. ReadDynamic does not close r.
func ReadDynamic(r io.Reader) (*dyngraph.Graph, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode dynamic graph")
	}

	g := dyngraph.New()
	if err := setAttributes(g, doc.Attributes); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "graph attributes")
	}
	for _, n := range doc.Nodes {
		if err := readNode(g, n); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.Edges {
		if err := readEdge(g, e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// ImportDynamic reads a dynamic graph from the JSON file at path.
func ImportDynamic(path string) (*dyngraph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDynamic(f)
}

// UnmarshalDynamic decodes a dynamic graph from data.
func UnmarshalDynamic(data []byte) (*dyngraph.Graph, error) {
	return ReadDynamic(bytes.NewReader(data))
}

func readNode(g *dyngraph.Graph, n node) error {
	if err := errors.ValidateIdentifier("node", n.ID); err != nil {
		return err
	}
	dn, err := g.AddNode(n.ID)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s", n.ID)
	}

	last := lastBound(n.Presence)
	for _, s := range n.Presence {
		iv, err := s.interval(last)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s presence", n.ID)
		}
		dn.SetPresent(iv)
	}

	spans := make([]span, len(n.Position))
	for i, p := range n.Position {
		spans[i] = p.span
	}
	last = lastBound(spans)
	for _, p := range n.Position {
		f, err := p.function(last)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s position", n.ID)
		}
		if err := dn.Position().InsertStrict(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s position %s", n.ID, f.Interval())
		}
	}

	if err := setAttributes(dn, n.Attributes); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "node %s", n.ID)
	}
	return nil
}

func readEdge(g *dyngraph.Graph, e edge) error {
	if err := errors.ValidateIdentifier("edge", e.ID); err != nil {
		return err
	}
	de, err := g.AddEdge(e.ID, e.From, e.To)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s (%s->%s)", e.ID, e.From, e.To)
	}

	last := lastBound(e.Presence)
	for _, s := range e.Presence {
		iv, err := s.interval(last)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s presence", e.ID)
		}
		de.SetPresent(iv)
	}

	spans := make([]span, len(e.Points))
	for i, c := range e.Points {
		spans[i] = c.span
	}
	last = lastBound(spans)
	for _, c := range e.Points {
		f, err := c.function(last)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s points", e.ID)
		}
		if err := de.Points().InsertStrict(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s points %s", e.ID, f.Interval())
		}
	}

	if err := setAttributes(de, e.Attributes); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "edge %s", e.ID)
	}
	return nil
}

// lastBound returns the largest finite right bound, or +Inf when none is
// finite.
func lastBound(spans []span) float64 {
	last := math.Inf(1)
	found := false
	for _, s := range spans {
		if s.To == nil {
			continue
		}
		if !found || *s.To > last {
			last = *s.To
			found = true
		}
	}
	return last
}

func (s span) interval(last float64) (interval.Interval, error) {
	left, right := math.Inf(-1), math.Inf(1)
	if s.From != nil {
		left = *s.From
	}
	if s.To != nil {
		right = *s.To
	}
	if err := errors.ValidateTime(left); err != nil {
		return interval.Interval{}, err
	}
	if err := errors.ValidateTime(right); err != nil {
		return interval.Interval{}, err
	}
	rightClosed := right == last
	if s.RightOpen != nil {
		rightClosed = !*s.RightOpen
	}
	iv, ok := interval.New(left, right, !s.LeftOpen, rightClosed)
	if !ok {
		return interval.Interval{}, fmt.Errorf("empty span from %v to %v", left, right)
	}
	return iv, nil
}

func (p position) function(last float64) (evolution.Function[r3.Vec], error) {
	iv, err := p.interval(last)
	if err != nil {
		return evolution.Function[r3.Vec]{}, err
	}
	from := r3.Vec{X: p.X, Y: p.Y}
	if p.X2 == nil && p.Y2 == nil {
		return evolution.Const(iv, from), nil
	}
	to := from
	if p.X2 != nil {
		to.X = *p.X2
	}
	if p.Y2 != nil {
		to.Y = *p.Y2
	}
	interp, err := evolution.ParseInterpolation(p.Interpolation)
	if err != nil {
		return evolution.Function[r3.Vec]{}, err
	}
	return evolution.Rect(iv, from, to, interp), nil
}

func (c curve) function(last float64) (evolution.Function[geom.ControlPoints], error) {
	iv, err := c.interval(last)
	if err != nil {
		return evolution.Function[geom.ControlPoints]{}, err
	}
	from, err := controlPoints(c.Points)
	if err != nil {
		return evolution.Function[geom.ControlPoints]{}, err
	}
	if c.Points2 == nil {
		return evolution.Const(iv, from), nil
	}
	to, err := controlPoints(c.Points2)
	if err != nil {
		return evolution.Function[geom.ControlPoints]{}, err
	}
	interp, err := evolution.ParseInterpolation(c.Interpolation)
	if err != nil {
		return evolution.Function[geom.ControlPoints]{}, err
	}
	return evolution.Rect(iv, from, to, interp), nil
}

func controlPoints(raw [][]float64) (geom.ControlPoints, error) {
	out := make(geom.ControlPoints, len(raw))
	for i, p := range raw {
		v, err := vec(p)
		if err != nil {
			return nil, fmt.Errorf("control point %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func vec(p []float64) (r3.Vec, error) {
	switch len(p) {
	case 2:
		return r3.Vec{X: p[0], Y: p[1]}, nil
	case 3:
		return r3.Vec{X: p[0], Y: p[1], Z: p[2]}, nil
	}
	return r3.Vec{}, fmt.Errorf("want 2 or 3 coordinates, got %d", len(p))
}

type attributeSetter interface {
	SetAttribute(name string, attr evolution.Attribute)
}

func setAttributes(target attributeSetter, attrs map[string]any) error {
	for name, raw := range attrs {
		attr, err := coerce(raw)
		if err != nil {
			return fmt.Errorf("attribute %s: %w", name, err)
		}
		target.SetAttribute(name, attr)
	}
	return nil
}

// coerce turns a decoded JSON value into an evolution that is constant over
// all time.
func coerce(raw any) (evolution.Attribute, error) {
	all := interval.Everything()
	switch v := raw.(type) {
	case bool:
		e := evolution.NewPresence()
		e.Insert(evolution.Const(all, v))
		return e, nil
	case string:
		if strings.HasPrefix(v, "#") {
			c, err := geom.ParseHex(v)
			if err != nil {
				return nil, err
			}
			e := evolution.NewColor(c)
			e.Insert(evolution.Const(all, c))
			return e, nil
		}
	case []any:
		items, err := cast.ToSliceE(v)
		if err != nil {
			return nil, err
		}
		coords := make([]float64, len(items))
		for i, item := range items {
			if coords[i], err = cast.ToFloat64E(item); err != nil {
				return nil, err
			}
		}
		p, err := vec(coords)
		if err != nil {
			return nil, err
		}
		e := evolution.NewPosition(p)
		e.Insert(evolution.Const(all, p))
		return e, nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported attribute value %v", raw)
	}
	e := evolution.NewNumber(f)
	e.Insert(evolution.Const(all, f))
	return e, nil
}

// WriteDynamic encodes g as JSON and writes it to w. Presence, position and
// control point functions are written in full; other attributes are
// written when they are constant over all time. The output can be read back
// with [ReadDynamic].
func WriteDynamic(g *dyngraph.Graph, w io.Writer) error {
	out := document{
		Attributes: constantAttributes(g.AttributeNames(), g.Attribute),
		Nodes:      make([]node, 0, g.NodeCount()),
		Edges:      make([]edge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		nd := node{
			ID:         n.ID,
			Presence:   presenceSpans(n.Attribute),
			Attributes: constantAttributes(n.AttributeNames(), n.Attribute),
		}
		if a, ok := n.Attribute(dyngraph.AttrPosition); ok {
			if pos, ok := evolution.As[r3.Vec](a); ok {
				nd.Position = positionSpans(pos)
			}
		}
		out.Nodes = append(out.Nodes, nd)
	}
	for _, e := range g.Edges() {
		ed := edge{
			ID:         e.ID,
			From:       e.From,
			To:         e.To,
			Presence:   presenceSpans(e.Attribute),
			Attributes: constantAttributes(e.AttributeNames(), e.Attribute),
		}
		if a, ok := e.Attribute(dyngraph.AttrEdgePoints); ok {
			if pts, ok := evolution.As[geom.ControlPoints](a); ok {
				ed.Points = curveSpans(pts)
			}
		}
		out.Edges = append(out.Edges, ed)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportDynamic writes g to a JSON file at path.
func ExportDynamic(g *dyngraph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteDynamic(g, f)
}

// MarshalDynamic encodes g as indented JSON.
func MarshalDynamic(g *dyngraph.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDynamic(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toSpan(iv interval.Interval) span {
	s := span{LeftOpen: !iv.IsLeftClosed()}
	if l := iv.Left(); !math.IsInf(l, 0) {
		s.From = &l
	}
	if r := iv.Right(); !math.IsInf(r, 0) {
		s.To = &r
	}
	open := !iv.IsRightClosed()
	s.RightOpen = &open
	return s
}

func presenceSpans(lookup func(string) (evolution.Attribute, bool)) []span {
	a, ok := lookup(dyngraph.AttrPresence)
	if !ok {
		return nil
	}
	p, ok := evolution.As[bool](a)
	if !ok {
		return nil
	}
	var out []span
	for _, f := range p.Functions() {
		if f.LeftValue() || f.RightValue() {
			out = append(out, toSpan(f.Interval()))
		}
	}
	return out
}

func positionSpans(e *evolution.Evolution[r3.Vec]) []position {
	var out []position
	for _, f := range e.Functions() {
		a := f.LeftValue()
		p := position{span: toSpan(f.Interval()), X: a.X, Y: a.Y}
		if !f.IsConst() {
			b := f.RightValue()
			p.X2, p.Y2 = &b.X, &b.Y
			p.Interpolation = f.Interpolation().String()
		}
		out = append(out, p)
	}
	return out
}

func curveSpans(e *evolution.Evolution[geom.ControlPoints]) []curve {
	var out []curve
	for _, f := range e.Functions() {
		c := curve{span: toSpan(f.Interval()), Points: rawPoints(f.LeftValue())}
		if !f.IsConst() {
			c.Points2 = rawPoints(f.RightValue())
			c.Interpolation = f.Interpolation().String()
		}
		out = append(out, c)
	}
	return out
}

func rawPoints(cps geom.ControlPoints) [][]float64 {
	out := make([][]float64, len(cps))
	for i, p := range cps {
		out[i] = []float64{p.X, p.Y, p.Z}
	}
	return out
}

var reserved = map[string]bool{
	dyngraph.AttrPresence:   true,
	dyngraph.AttrPosition:   true,
	dyngraph.AttrEdgePoints: true,
}

func constantAttributes(names []string, lookup func(string) (evolution.Attribute, bool)) map[string]any {
	var out map[string]any
	for _, name := range names {
		if reserved[name] {
			continue
		}
		a, _ := lookup(name)
		ivs := a.Intervals()
		if len(ivs) != 1 || ivs[0] != interval.Everything() {
			continue
		}
		v, ok := encodeValue(a.ValueAnyAt(0))
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]any)
		}
		out[name] = v
	}
	return out
}

func encodeValue(v any) (any, bool) {
	switch x := v.(type) {
	case bool, float64:
		return x, true
	case geom.Color:
		return x.Hex(), true
	case r3.Vec:
		return []float64{x.X, x.Y, x.Z}, true
	}
	return nil, false
}
