package hcldoc

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot is used to decode every top-level block of a document file.
type fileRoot struct {
	Shaders   []*shaderBlock  `hcl:"shader,block"`
	Channels  []*channelBlock `hcl:"channel,block"`
	Selection *selectionBlock `hcl:"selection,block"`
}

type shaderBlock struct {
	Name     string       `hcl:"name,label"`
	Inputs   []string     `hcl:"inputs,optional"`
	Bindings []*bindBlock `hcl:"bind,block"`
	Tags     []*tagBlock  `hcl:"tag,block"`
	DefRange hcl.Range    `hcl:",def_range"`
}

type bindBlock struct {
	Input    string    `hcl:"input,label"`
	Channel  string    `hcl:"channel"`
	DefRange hcl.Range `hcl:",def_range"`
}

type channelBlock struct {
	Name     string        `hcl:"name,label"`
	Width    *int          `hcl:"width,optional"`
	Height   *int          `hcl:"height,optional"`
	Depth    *int          `hcl:"depth,optional"`
	Tags     []*tagBlock   `hcl:"tag,block"`
	Layers   []*layerBlock `hcl:"layer,block"`
	DefRange hcl.Range     `hcl:",def_range"`
}

type tagBlock struct {
	Key      string    `hcl:"key,label"`
	Value    cty.Value `hcl:"value,optional"`
	Curve    *string   `hcl:"curve,optional"`
	Session  bool      `hcl:"session,optional"`
	DefRange hcl.Range `hcl:",def_range"`
}

type layerBlock struct {
	Name               string        `hcl:"name,label"`
	Kind               string        `hcl:"kind"`
	Target             *string       `hcl:"target,optional"`
	Color              []float64     `hcl:"color,optional"`
	Locked             bool          `hcl:"locked,optional"`
	BlendMode          *string       `hcl:"blend_mode,optional"`
	BlendType          *string       `hcl:"blend_type,optional"`
	BlendAmount        *float64      `hcl:"blend_amount,optional"`
	BlendAmountEnabled *bool         `hcl:"blend_amount_enabled,optional"`
	AdvancedBlend      *string       `hcl:"advanced_blend,optional"`
	LayerBelowCurve    *string       `hcl:"layer_below_curve,optional"`
	ThisLayerCurve     *string       `hcl:"this_layer_curve,optional"`
	Visible            *bool         `hcl:"visible,optional"`
	ColorTag           *int          `hcl:"color_tag,optional"`
	Swizzle            []int         `hcl:"swizzle,optional"`
	Tags               []*tagBlock   `hcl:"tag,block"`
	Mask               *maskBlock    `hcl:"mask,block"`
	Layers             []*layerBlock `hcl:"layer,block"`
	DefRange           hcl.Range     `hcl:",def_range"`
}

type maskBlock struct {
	Layers []*layerBlock `hcl:"layer,block"`
}

type selectionBlock struct {
	Channel string  `hcl:"channel"`
	Layer   *string `hcl:"layer,optional"`
}
