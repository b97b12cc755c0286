// Package stats collects the named measurements produced by layout runs.
//
// A [Statistics] value is an ordered list of [Metric]s. Each metric has a
// name, a unit and a sequence of values, so per-iteration or per-level
// series and single totals share one shape.
package stats

import (
	"encoding/json"
	"slices"
	"time"
)

// Metric names reported by the layout engine and the multilevel pipeline.
const (
	RunningTime      = "RunningTime"
	Iterations       = "Iterations"
	MaxMovement      = "MaxMovement"
	HierarchyDepth   = "HierarchyDepth"
	CoarseningTime   = "CoarseningTime"
	LevelRunningTime = "LevelRunningTime"
	LevelNodeCount   = "LevelNodeCount"
	Tau              = "Tau"
)

// Units.
const (
	UnitMilliseconds = "ms"
	UnitCount        = "count"
	UnitDistance     = "distance"
	UnitNone         = ""
)

// Metric is one named series of values.
type Metric struct {
	Name   string    `json:"name"`
	Unit   string    `json:"unit,omitempty"`
	Values []float64 `json:"values"`
}

// Last returns the most recent value, or 0 for an empty series.
func (m Metric) Last() float64 {
	if len(m.Values) == 0 {
		return 0
	}
	return m.Values[len(m.Values)-1]
}

// Sum returns the total of all values.
func (m Metric) Sum() float64 {
	var s float64
	for _, v := range m.Values {
		s += v
	}
	return s
}

// Statistics is an ordered set of metrics. The zero value is ready to use.
type Statistics struct {
	metrics []Metric
}

// New returns empty statistics.
func New() *Statistics { return &Statistics{} }

func (s *Statistics) find(name string) int {
	return slices.IndexFunc(s.metrics, func(m Metric) bool { return m.Name == name })
}

// Append adds v to the named series, creating it with unit if needed.
func (s *Statistics) Append(name, unit string, v float64) {
	if i := s.find(name); i >= 0 {
		s.metrics[i].Values = append(s.metrics[i].Values, v)
		return
	}
	s.metrics = append(s.metrics, Metric{Name: name, Unit: unit, Values: []float64{v}})
}

// Set replaces the named series with the single value v.
func (s *Statistics) Set(name, unit string, v float64) {
	if i := s.find(name); i >= 0 {
		s.metrics[i] = Metric{Name: name, Unit: unit, Values: []float64{v}}
		return
	}
	s.metrics = append(s.metrics, Metric{Name: name, Unit: unit, Values: []float64{v}})
}

// SetDuration records d in milliseconds.
func (s *Statistics) SetDuration(name string, d time.Duration) {
	s.Set(name, UnitMilliseconds, float64(d)/float64(time.Millisecond))
}

// AppendDuration appends d in milliseconds.
func (s *Statistics) AppendDuration(name string, d time.Duration) {
	s.Append(name, UnitMilliseconds, float64(d)/float64(time.Millisecond))
}

// Metric returns a copy of the named metric.
func (s *Statistics) Metric(name string) (Metric, bool) {
	i := s.find(name)
	if i < 0 {
		return Metric{}, false
	}
	m := s.metrics[i]
	m.Values = slices.Clone(m.Values)
	return m, true
}

// Value returns the last value of the named metric.
func (s *Statistics) Value(name string) (float64, bool) {
	m, ok := s.Metric(name)
	if !ok {
		return 0, false
	}
	return m.Last(), true
}

// Metrics returns copies of all metrics in insertion order.
func (s *Statistics) Metrics() []Metric {
	out := make([]Metric, len(s.metrics))
	for i, m := range s.metrics {
		m.Values = slices.Clone(m.Values)
		out[i] = m
	}
	return out
}

// Len returns the number of metrics.
func (s *Statistics) Len() int { return len(s.metrics) }

// Merge appends every series of other to s, prefixing names with prefix.
func (s *Statistics) Merge(prefix string, other *Statistics) {
	if other == nil {
		return
	}
	for _, m := range other.metrics {
		for _, v := range m.Values {
			s.Append(prefix+m.Name, m.Unit, v)
		}
	}
}

// MarshalJSON encodes the metrics as an ordered array.
func (s *Statistics) MarshalJSON() ([]byte, error) {
	if s.metrics == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.metrics)
}

// UnmarshalJSON decodes an array produced by MarshalJSON.
func (s *Statistics) UnmarshalJSON(data []byte) error {
	var ms []Metric
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	s.metrics = ms
	return nil
}
