package evolution

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/dynlayout/pkg/geom"
	"github.com/matzehuels/dynlayout/pkg/interval"
)

// Kind identifies the value type of an attribute.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindNumber
	KindCoordinates
	KindColor
	KindCurve
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindCoordinates:
		return "coordinates"
	case KindColor:
		return "color"
	case KindCurve:
		return "curve"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attribute is an evolution with its value type erased, so that graphs can
// hold attributes of different types in one map.
type Attribute interface {
	// Kind reports the value type.
	Kind() Kind
	// ValueAnyAt returns the value at t.
	ValueAnyAt(t float64) any
	// Intervals returns the intervals of the stored functions in order.
	Intervals() []interval.Interval
	// Len returns the number of stored functions.
	Len() int
	// CloneAttribute returns an independent copy.
	CloneAttribute() Attribute
}

// Kind reports the value type of the evolution.
func (e *Evolution[T]) Kind() Kind {
	switch any(e.def).(type) {
	case bool:
		return KindBool
	case float64:
		return KindNumber
	case r3.Vec:
		return KindCoordinates
	case geom.Color:
		return KindColor
	case geom.ControlPoints:
		return KindCurve
	default:
		return KindUnknown
	}
}

// ValueAnyAt is ValueAt with the type erased.
func (e *Evolution[T]) ValueAnyAt(t float64) any { return e.ValueAt(t) }

// CloneAttribute is Clone with the type erased.
func (e *Evolution[T]) CloneAttribute() Attribute { return e.Clone() }

// As recovers the typed evolution behind an attribute.
func As[T any](a Attribute) (*Evolution[T], bool) {
	e, ok := a.(*Evolution[T])
	return e, ok
}
