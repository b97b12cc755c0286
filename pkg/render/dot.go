package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/dynlayout/pkg/dyngraph"
	"github.com/matzehuels/dynlayout/pkg/errors"
	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
)

// DefaultScale is the drawing size, in inches, of one layout distance unit.
const DefaultScale = 1.0

// Options configures snapshot rendering.
type Options struct {
	// Scale is inches per layout unit. Zero means DefaultScale.
	Scale float64
	// Labels shows node IDs. When false, nodes are drawn as small points.
	Labels bool
	// Detailed adds node metadata to the labels. Implies Labels.
	Detailed bool
}

// ToDOT converts a static graph to Graphviz DOT with pinned node positions.
// The Y axis is flipped so that the drawing has the layout's orientation.
func ToDOT(g *graph.Graph, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	if opts.Labels || opts.Detailed {
		buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.05,0.02\"];\n")
	} else {
		buf.WriteString("  node [shape=circle, style=filled, fillcolor=\"#4a6fa5\", label=\"\", width=0.12, fixedsize=true];\n")
	}
	buf.WriteString("  edge [arrowsize=0.5, color=\"#555555\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		attrs := []string{fmt.Sprintf("pos=\"%s,%s!\"", coord(n.Pos.X*scale), coord(-n.Pos.Y*scale))}
		if opts.Labels || opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", fmtLabel(*n, opts.Detailed)))
		}
		if c, ok := n.Meta[dyngraph.AttrColor].(geom.Color); ok {
			attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c.Hex()))
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if w := e.EffectiveWeight(); w != 1 {
			fmt.Fprintf(&buf, "  %q -> %q [penwidth=%s];\n", e.From, e.To, coord(penWidth(w)))
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func penWidth(w float64) float64 {
	return math.Max(0.5, math.Min(6, 1+math.Log(math.Max(w, 1e-3))))
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}

	parts := []string{fmt.Sprintf("pos: %.2f, %.2f", n.Pos.X, n.Pos.Y)}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}

	return n.ID + "\n" + strings.Join(parts, "\n")
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders DOT source as PDF via SVG conversion.
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}

// RenderPNG renders DOT source as PNG via SVG conversion.
func RenderPNG(dot string, resolution float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, resolution)
}

// Formats lists the output formats understood by [Render].
var Formats = []string{"dot", "svg", "pdf", "png"}

// Render produces the snapshot in the named format.
func Render(g *graph.Graph, format string, opts Options) ([]byte, error) {
	dot := ToDOT(g, opts)
	switch strings.ToLower(format) {
	case "", "dot":
		return []byte(dot), nil
	case "svg":
		return RenderSVG(dot)
	case "pdf":
		return RenderPDF(dot)
	case "png":
		return RenderPNG(dot, pngResolution)
	}
	return nil, errors.New(errors.ErrCodeInvalidOption, "unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
}
