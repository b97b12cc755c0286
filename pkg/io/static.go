package io

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/graph"
	"github.com/matzehuels/dynlayout/pkg/stats"
)

type staticGraph struct {
	Meta  graph.Metadata `json:"meta,omitempty"`
	Nodes []staticNode   `json:"nodes"`
	Edges []staticEdge   `json:"edges"`
}

type staticNode struct {
	ID     string         `json:"id"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Z      float64        `json:"z,omitempty"`
	Kind   string         `json:"kind,omitempty"`
	Owner  string         `json:"owner,omitempty"`
	Anchor bool           `json:"anchor,omitempty"`
	Meta   graph.Metadata `json:"meta,omitempty"`
}

type staticEdge struct {
	From   string         `json:"from"`
	To     string         `json:"to"`
	Kind   string         `json:"kind,omitempty"`
	Owner  string         `json:"owner,omitempty"`
	Weight float64        `json:"weight,omitempty"`
	Meta   graph.Metadata `json:"meta,omitempty"`
}

// WriteGraph encodes a static graph such as a snapshot or a mirror.
// Regular kinds are omitted; Z is omitted when zero, which is the case for
// every snapshot node.
func WriteGraph(g *graph.Graph, w io.Writer) error {
	out := staticGraph{
		Meta:  encodeMeta(g.Meta()),
		Nodes: make([]staticNode, 0, g.NodeCount()),
		Edges: make([]staticEdge, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		sn := staticNode{
			ID:     n.ID,
			X:      n.Pos.X,
			Y:      n.Pos.Y,
			Z:      n.Pos.Z,
			Owner:  n.Owner,
			Anchor: n.Anchor,
			Meta:   encodeMeta(n.Meta),
		}
		if n.Kind != graph.NodeKindRegular {
			sn.Kind = n.Kind.String()
		}
		out.Nodes = append(out.Nodes, sn)
	}
	for _, e := range g.Edges() {
		se := staticEdge{From: e.From, To: e.To, Owner: e.Owner, Weight: e.Weight, Meta: encodeMeta(e.Meta)}
		if e.Kind != graph.EdgeKindRegular {
			se.Kind = e.Kind.String()
		}
		out.Edges = append(out.Edges, se)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// encodeMeta converts attribute values to their JSON forms and drops the
// ones that have none.
func encodeMeta(m graph.Metadata) graph.Metadata {
	if len(m) == 0 {
		return nil
	}
	out := make(graph.Metadata, len(m))
	for k, v := range m {
		if ev, ok := encodeValue(v); ok {
			out[k] = ev
			continue
		}
		switch x := v.(type) {
		case string, int, int64:
			out[k] = x
		case geom.ControlPoints:
			out[k] = rawPoints(x)
		}
	}
	return out
}

// WriteStats encodes statistics as an indented metric list.
func WriteStats(s *stats.Statistics, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadStats decodes statistics written by [WriteStats].
func ReadStats(r io.Reader) (*stats.Statistics, error) {
	s := stats.New()
	if err := json.NewDecoder(r).Decode(s); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return s, nil
}
