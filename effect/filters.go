package effect

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	bildeffect "github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/transform"
)

const (
	paramAmount = "amount"
	paramRadius = "radius"

	// maxBlurRadius bounds blur cost per frame.
	maxBlurRadius = 32.0
)

// Filter is one step of an effect chain. Its parameters may be changed by
// scripting methods between frames.
type Filter struct {
	kind   string
	amount float64
	radius float64
}

func newFilter(spec FilterSpec) (*Filter, error) {
	f := &Filter{kind: spec.Type}
	switch spec.Type {
	case "brightness", "contrast", "saturation":
		if err := f.Set(paramAmount, spec.Amount); err != nil {
			return nil, err
		}
	case "gamma":
		amount := spec.Amount
		if amount == 0 {
			amount = 1
		}
		if err := f.Set(paramAmount, amount); err != nil {
			return nil, err
		}
	case "blur":
		if err := f.Set(paramRadius, spec.Radius); err != nil {
			return nil, err
		}
	case "grayscale", "sepia", "invert", "sharpen", "flipv":
	default:
		return nil, fmt.Errorf("unknown filter type %q", spec.Type)
	}
	return f, nil
}

// Name returns the filter description, for example "brightness(+0.10)".
func (f *Filter) Name() string {
	switch f.kind {
	case "brightness", "contrast", "saturation", "gamma":
		return fmt.Sprintf("%s(%+.2f)", f.kind, f.amount)
	case "blur":
		return fmt.Sprintf("blur(%.2f)", f.radius)
	default:
		return f.kind
	}
}

// Set changes a parameter, validating it for the filter kind.
func (f *Filter) Set(param string, value float64) error {
	switch param {
	case paramAmount:
		switch f.kind {
		case "brightness", "contrast", "saturation":
			if value < -1 || value > 1 {
				return fmt.Errorf("%w: %s amount %.2f outside [-1, 1]", ErrInvalidParam, f.kind, value)
			}
		case "gamma":
			if value <= 0 {
				return fmt.Errorf("%w: gamma must be positive", ErrInvalidParam)
			}
		default:
			return fmt.Errorf("%w: %s has no amount", ErrInvalidParam, f.kind)
		}
		f.amount = value
	case paramRadius:
		if f.kind != "blur" {
			return fmt.Errorf("%w: %s has no radius", ErrInvalidParam, f.kind)
		}
		if value < 0 || value > maxBlurRadius {
			return fmt.Errorf("%w: blur radius %.2f outside [0, %.0f]", ErrInvalidParam, value, maxBlurRadius)
		}
		f.radius = value
	default:
		return fmt.Errorf("%w: unknown parameter %q", ErrInvalidParam, param)
	}
	return nil
}

// Apply returns a filtered copy of img.
func (f *Filter) Apply(img image.Image) *image.RGBA {
	switch f.kind {
	case "brightness":
		return adjust.Brightness(img, f.amount)
	case "contrast":
		return adjust.Contrast(img, f.amount)
	case "saturation":
		return adjust.Saturation(img, f.amount)
	case "gamma":
		return adjust.Gamma(img, f.amount)
	case "grayscale":
		return clone.AsRGBA(bildeffect.Grayscale(img))
	case "sepia":
		return bildeffect.Sepia(img)
	case "invert":
		return bildeffect.Invert(img)
	case "sharpen":
		return bildeffect.Sharpen(img)
	case "blur":
		return blur.Gaussian(img, f.radius)
	case "flipv":
		return transform.FlipV(img)
	default:
		return clone.AsRGBA(img)
	}
}

// Chain applies filters in sequence.
type Chain struct {
	filters []*Filter
}

// NewChain builds a chain from specs.
func NewChain(specs []FilterSpec) (*Chain, error) {
	c := &Chain{filters: make([]*Filter, 0, len(specs))}
	for i, spec := range specs {
		f, err := newFilter(spec)
		if err != nil {
			return nil, fmt.Errorf("filter %d: %w", i, err)
		}
		c.filters = append(c.filters, f)
	}
	return c, nil
}

// Len returns the number of filters.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Filter returns the filter at index i.
func (c *Chain) Filter(i int) *Filter {
	return c.filters[i]
}

// Apply runs img through every filter. An empty chain returns a copy.
func (c *Chain) Apply(img image.Image) *image.RGBA {
	if len(c.filters) == 0 {
		return clone.AsRGBA(img)
	}
	var out *image.RGBA
	current := img
	for _, f := range c.filters {
		out = f.Apply(current)
		current = out
	}
	return out
}
