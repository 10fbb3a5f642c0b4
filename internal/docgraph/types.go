package docgraph

import (
	"fmt"
	"math"
)

// LayerKind enumerates the layer variants a stack can hold.
type LayerKind int

const (
	LayerProcedural LayerKind = iota // flat color base
	LayerGroup                       // nested stack
	LayerLink                        // read-only reference to another channel
)

func (k LayerKind) String() string {
	switch k {
	case LayerProcedural:
		return "procedural"
	case LayerGroup:
		return "group"
	case LayerLink:
		return "link"
	default:
		return "unknown"
	}
}

// ParseLayerKind is the inverse of LayerKind.String.
func ParseLayerKind(s string) (LayerKind, error) {
	switch s {
	case "procedural":
		return LayerProcedural, nil
	case "group":
		return LayerGroup, nil
	case "link":
		return LayerLink, nil
	default:
		return 0, fmt.Errorf("unknown layer kind %q", s)
	}
}

// RGBA is a color with components in [0,1].
type RGBA struct {
	R, G, B, A float64
}

var (
	Black = RGBA{0, 0, 0, 1}
	White = RGBA{1, 1, 1, 1}
)

// Validate checks every component is a finite number within [0,1].
func (c RGBA) Validate() error {
	for i, v := range [4]float64{c.R, c.G, c.B, c.A} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("color component %d out of range: %g", i, v)
		}
	}
	return nil
}

// Slice returns the components in r, g, b, a order.
func (c RGBA) Slice() []float64 {
	return []float64{c.R, c.G, c.B, c.A}
}

// Dims is the resolution and bit depth of a channel.
type Dims struct {
	Width  int
	Height int
	Depth  int
}

// DefaultDims matches the size new material channels are created with.
var DefaultDims = Dims{Width: 4096, Height: 4096, Depth: 8}

// BlendMode names how a layer composites onto the layers below it.
type BlendMode string

const (
	BlendNormal    BlendMode = "Normal"
	BlendMultiply  BlendMode = "Multiply"
	BlendScreen    BlendMode = "Screen"
	BlendOverlay   BlendMode = "Overlay"
	BlendAdd       BlendMode = "Add"
	BlendSubtract  BlendMode = "Subtract"
	BlendDarken    BlendMode = "Darken"
	BlendLighten   BlendMode = "Lighten"
	BlendSoftLight BlendMode = "SoftLight"
	BlendHardLight BlendMode = "HardLight"
)

var blendModes = map[BlendMode]struct{}{
	BlendNormal: {}, BlendMultiply: {}, BlendScreen: {}, BlendOverlay: {}, BlendAdd: {},
	BlendSubtract: {}, BlendDarken: {}, BlendLighten: {}, BlendSoftLight: {}, BlendHardLight: {},
}

// Valid reports whether m is a known blend mode.
func (m BlendMode) Valid() bool {
	_, ok := blendModes[m]
	return ok
}

// BlendType selects between the basic and the advanced blend pipeline.
type BlendType string

const (
	BlendTypeBasic    BlendType = "Basic"
	BlendTypeAdvanced BlendType = "Advanced"
)

// Valid reports whether t is a known blend type.
func (t BlendType) Valid() bool {
	return t == BlendTypeBasic || t == BlendTypeAdvanced
}

// BlendComponent is the component set the advanced blend acts on.
type BlendComponent string

const (
	ComponentRGBA  BlendComponent = "RGBA"
	ComponentRGB   BlendComponent = "RGB"
	ComponentAlpha BlendComponent = "Alpha"
)

// Valid reports whether c is a known component set.
func (c BlendComponent) Valid() bool {
	return c == ComponentRGBA || c == ComponentRGB || c == ComponentAlpha
}

// DefaultCurve is the identity blend curve.
const DefaultCurve = "0,0;1,1"
