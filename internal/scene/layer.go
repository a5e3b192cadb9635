// Package scene composes images out of a declarative tree of conditional
// layers.
//
// A tree is a list of Group and Leaf nodes. Each node may carry a Rule and a
// Probability; a leaf also names an asset and where to draw it. Render walks
// the tree in declaration order and draws every admitted leaf over the ones
// before it.
package scene

import (
	"fmt"
	"image"
	"math/rand/v2"
)

// Layer is a node of the layer tree: a Group or a Leaf.
type Layer interface {
	layer()
}

// Group is an ordered list of child layers with no content of its own.
// Children are only considered when the group itself is admitted.
type Group struct {
	Rule        Rule
	Probability *float64
	Layers      []Layer
}

// Leaf draws one asset. ID names it for Else rules and defaults to Asset.
type Leaf struct {
	ID          string
	Asset       string
	Rule        Rule
	Probability *float64
	Position    Position
}

func (Group) layer() {}
func (Leaf) layer()  {}

// Key returns the identifier recorded when the leaf is drawn.
func (l Leaf) Key() string {
	if l.ID != "" {
		return l.ID
	}
	return l.Asset
}

// Chance returns a probability in percent for a node.
func Chance(percent float64) *float64 {
	return &percent
}

// Rule decides whether a node is admitted: Is, Not, All, Any or Else.
type Rule interface {
	rule()
}

// Is admits when the named predicate holds.
type Is string

// Not admits when the named predicate does not hold.
type Not string

// All admits when every named predicate holds.
type All []string

// Any admits when at least one named predicate holds.
type Any []string

// Else admits when none of the listed leaves has been drawn so far in the
// current pass, anywhere in the tree.
type Else []string

func (Is) rule()   {}
func (Not) rule()  {}
func (All) rule()  {}
func (Any) rule()  {}
func (Else) rule() {}

// Position yields the top-left corner of a leaf.
type Position interface {
	Point(r *rand.Rand) image.Point
}

// At is a fixed position.
type At image.Point

// Point returns the fixed point.
func (a At) Point(*rand.Rand) image.Point { return image.Point(a) }

// Choice picks one of its points uniformly.
type Choice []image.Point

// Point returns a random element.
func (c Choice) Point(r *rand.Rand) image.Point {
	return c[r.IntN(len(c))]
}

// Line picks a uniformly random point on the segment From-To.
type Line struct {
	From, To image.Point
}

// Point returns a random point along the segment.
func (l Line) Point(r *rand.Rand) image.Point {
	alpha := r.Float64()
	return image.Pt(
		l.From.X+int(alpha*float64(l.To.X-l.From.X)),
		l.From.Y+int(alpha*float64(l.To.Y-l.From.Y)),
	)
}

// Assets lists the distinct asset names a tree refers to, in declaration
// order.
func Assets(layers []Layer) []string {
	var (
		out  []string
		seen = make(map[string]bool)
		walk func([]Layer)
	)
	walk = func(layers []Layer) {
		for _, l := range layers {
			switch n := l.(type) {
			case Group:
				walk(n.Layers)
			case Leaf:
				if !seen[n.Asset] {
					seen[n.Asset] = true
					out = append(out, n.Asset)
				}
			}
		}
	}
	walk(layers)
	return out
}

// Validate checks a tree before use: every leaf has an asset and a
// position, probabilities lie within 0-100, and Else rules only refer to
// leaves declared before them.
func Validate(layers []Layer) error {
	seen := make(map[string]bool)
	return validate(layers, seen, "")
}

func validate(layers []Layer, seen map[string]bool, path string) error {
	for i, l := range layers {
		where := fmt.Sprintf("%s/%d", path, i)
		switch n := l.(type) {
		case Group:
			if err := validateNode(n.Rule, n.Probability, seen); err != nil {
				return fmt.Errorf("layer %s: %w", where, err)
			}
			if err := validate(n.Layers, seen, where); err != nil {
				return err
			}
		case Leaf:
			if n.Asset == "" {
				return fmt.Errorf("layer %s: leaf without asset", where)
			}
			if err := validateNode(n.Rule, n.Probability, seen); err != nil {
				return fmt.Errorf("layer %s (%s): %w", where, n.Key(), err)
			}
			switch pos := n.Position.(type) {
			case nil:
				return fmt.Errorf("layer %s (%s): no position", where, n.Key())
			case Choice:
				if len(pos) == 0 {
					return fmt.Errorf("layer %s (%s): empty choice", where, n.Key())
				}
			}
			seen[n.Key()] = true
		default:
			return fmt.Errorf("layer %s: unknown layer type %T", where, l)
		}
	}
	return nil
}

func validateNode(rule Rule, probability *float64, seen map[string]bool) error {
	if probability != nil && (*probability < 0 || *probability > 100) {
		return fmt.Errorf("probability %v outside 0-100", *probability)
	}
	if e, ok := rule.(Else); ok {
		for _, id := range e {
			if !seen[id] {
				return fmt.Errorf("else refers to %q before it is declared", id)
			}
		}
	}
	return nil
}
