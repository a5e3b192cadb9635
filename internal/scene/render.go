package scene

import (
	"fmt"
	"image"
	"image/draw"
	"math/rand/v2"
)

// Predicate evaluates one named condition, such as whether it is daylight.
type Predicate func() (bool, error)

// Loader returns decoded assets by name.
type Loader interface {
	Load(name string) (image.Image, error)
}

// Context carries what rules and positions depend on during one pass.
type Context struct {
	Predicates map[string]Predicate
	// Rand drives probabilities and generated positions. Nil uses a fresh
	// randomly seeded source.
	Rand   *rand.Rand
	Assets Loader
}

// Render draws layers onto a new white canvas of the given size.
func Render(layers []Layer, ctx Context, width, height int) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	if _, err := Compose(canvas, layers, ctx); err != nil {
		return nil, err
	}
	return canvas, nil
}

// Compose draws layers onto canvas and returns the keys of the drawn leaves
// in drawing order.
func Compose(canvas draw.Image, layers []Layer, ctx Context) ([]string, error) {
	p := &pass{
		ctx:    ctx,
		canvas: canvas,
		drawn:  make(map[string]bool),
		rand:   ctx.Rand,
		values: make(map[string]bool),
	}
	if p.rand == nil {
		p.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if err := p.walk(layers); err != nil {
		return p.order, err
	}
	return p.order, nil
}

// pass is the state of one render: the drawn-set accumulates across the
// whole walk, not per subtree.
type pass struct {
	ctx    Context
	canvas draw.Image
	rand   *rand.Rand
	drawn  map[string]bool
	order  []string
	// values memoizes predicates so each is evaluated at most once.
	values map[string]bool
}

func (p *pass) walk(layers []Layer) error {
	for _, l := range layers {
		switch n := l.(type) {
		case Group:
			ok, err := p.admit(n.Rule, n.Probability)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := p.walk(n.Layers); err != nil {
				return err
			}
		case Leaf:
			ok, err := p.admit(n.Rule, n.Probability)
			if err != nil {
				return fmt.Errorf("layer %s: %w", n.Key(), err)
			}
			if !ok {
				continue
			}
			if err := p.draw(n); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown layer type %T", l)
		}
	}
	return nil
}

// admit checks the rule first and only then draws against the probability.
func (p *pass) admit(rule Rule, probability *float64) (bool, error) {
	ok, err := p.eval(rule)
	if err != nil || !ok {
		return false, err
	}
	if probability == nil {
		return true, nil
	}
	return p.rand.Float64()*100 < *probability, nil
}

func (p *pass) eval(rule Rule) (bool, error) {
	switch r := rule.(type) {
	case nil:
		return true, nil
	case Is:
		return p.predicate(string(r))
	case Not:
		v, err := p.predicate(string(r))
		return !v, err
	case All:
		for _, name := range r {
			v, err := p.predicate(name)
			if err != nil || !v {
				return false, err
			}
		}
		return true, nil
	case Any:
		for _, name := range r {
			v, err := p.predicate(name)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case Else:
		for _, id := range r {
			if p.drawn[id] {
				return false, nil
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("unknown rule type %T", rule)
	}
}

func (p *pass) predicate(name string) (bool, error) {
	if v, ok := p.values[name]; ok {
		return v, nil
	}
	fn, ok := p.ctx.Predicates[name]
	if !ok {
		return false, fmt.Errorf("unknown predicate %q", name)
	}
	v, err := fn()
	if err != nil {
		return false, fmt.Errorf("predicate %s: %w", name, err)
	}
	p.values[name] = v
	return v, nil
}

func (p *pass) draw(leaf Leaf) error {
	if p.ctx.Assets == nil {
		return fmt.Errorf("layer %s: no asset loader", leaf.Key())
	}
	if leaf.Position == nil {
		return fmt.Errorf("layer %s: no position", leaf.Key())
	}
	img, err := p.ctx.Assets.Load(leaf.Asset)
	if err != nil {
		return fmt.Errorf("layer %s: %w", leaf.Key(), err)
	}
	at := leaf.Position.Point(p.rand)
	b := img.Bounds()
	draw.Draw(p.canvas, b.Sub(b.Min).Add(at), img, b.Min, draw.Over)

	p.drawn[leaf.Key()] = true
	p.order = append(p.order, leaf.Key())
	return nil
}
