package memdoc

import (
	"errors"
	"fmt"
	"math"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// ErrLocked is returned when editing the color of a locked layer.
var ErrLocked = errors.New("layer is locked")

type attributes struct {
	blendMode     docgraph.BlendMode
	blendType     docgraph.BlendType
	blendAmount   float64
	amountEnabled bool
	component     docgraph.BlendComponent
	belowCurve    string
	thisCurve     string
	visible       bool
	colorTag      int
	swizzle       [4]int
}

func defaultAttributes() attributes {
	return attributes{
		blendMode:     docgraph.BlendNormal,
		blendType:     docgraph.BlendTypeBasic,
		blendAmount:   1,
		amountEnabled: true,
		component:     docgraph.ComponentRGBA,
		belowCurve:    docgraph.DefaultCurve,
		thisCurve:     docgraph.DefaultCurve,
		visible:       true,
		swizzle:       [4]int{0, 1, 2, 3},
	}
}

// Layer is an in-memory layer.
type Layer struct {
	doc    *Document
	owner  *Channel
	id     string
	name   string
	kind   docgraph.LayerKind
	tags   *tag.Bag
	group  *Stack
	link   *Channel
	mask   *Stack
	color  docgraph.RGBA
	locked bool
	attrs  attributes
}

func (l *Layer) ID() string                   { return l.id }
func (l *Layer) Name() string                 { return l.name }
func (l *Layer) Kind() docgraph.LayerKind     { return l.kind }
func (l *Layer) Tags() *tag.Bag               { return l.tags }
func (l *Layer) Locked() bool                 { return l.locked }
func (l *Layer) SetLocked(locked bool)        { l.locked = locked }
func (l *Layer) Visible() bool                { return l.attrs.visible }
func (l *Layer) SetVisible(v bool)            { l.attrs.visible = v }
func (l *Layer) BlendAmountEnabled() bool     { return l.attrs.amountEnabled }
func (l *Layer) SetBlendAmountEnabled(v bool) { l.attrs.amountEnabled = v }

// SetName renames the layer.
func (l *Layer) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("layer name must not be empty")
	}
	l.name = name
	return nil
}

// GroupStack returns the nested stack of a group layer.
func (l *Layer) GroupStack() (docgraph.Stack, bool) {
	if l.group == nil {
		return nil, false
	}
	return l.group, true
}

// LinkedChannel returns the referenced channel of a link layer.
func (l *Layer) LinkedChannel() (docgraph.Channel, bool) {
	if l.link == nil {
		return nil, false
	}
	return l.link, true
}

// MaskStack returns the mask stack, if any.
func (l *Layer) MaskStack() (docgraph.Stack, bool) {
	if l.mask == nil {
		return nil, false
	}
	return l.mask, true
}

// MakeMaskStack replaces the mask stack with an empty one.
func (l *Layer) MakeMaskStack() (docgraph.Stack, error) {
	if err := l.doc.check(OpMakeMaskStack, l.name); err != nil {
		return nil, err
	}
	if l.mask != nil && l.doc.selLayer != nil && l.mask.contains(l.doc.selLayer) {
		l.doc.selLayer = nil
	}
	l.mask = &Stack{doc: l.doc, owner: l.owner}
	return l.mask, nil
}

// Color returns the flat color of a procedural layer.
func (l *Layer) Color() (docgraph.RGBA, bool) {
	if l.kind != docgraph.LayerProcedural {
		return docgraph.RGBA{}, false
	}
	return l.color, true
}

// SetColor changes the flat color of an unlocked procedural layer.
func (l *Layer) SetColor(c docgraph.RGBA) error {
	if l.kind != docgraph.LayerProcedural {
		return fmt.Errorf("layer %q: color is only defined on procedural layers", l.name)
	}
	if l.locked {
		return fmt.Errorf("layer %q: %w", l.name, ErrLocked)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("layer %q: %w", l.name, err)
	}
	l.color = c
	return nil
}

func (l *Layer) BlendMode() docgraph.BlendMode { return l.attrs.blendMode }

func (l *Layer) SetBlendMode(m docgraph.BlendMode) error {
	if !m.Valid() {
		return fmt.Errorf("layer %q: unknown blend mode %q", l.name, m)
	}
	l.attrs.blendMode = m
	return nil
}

func (l *Layer) BlendType() docgraph.BlendType { return l.attrs.blendType }

func (l *Layer) SetBlendType(t docgraph.BlendType) error {
	if !t.Valid() {
		return fmt.Errorf("layer %q: unknown blend type %q", l.name, t)
	}
	l.attrs.blendType = t
	return nil
}

func (l *Layer) BlendAmount() float64 { return l.attrs.blendAmount }

func (l *Layer) SetBlendAmount(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("layer %q: blend amount out of range: %g", l.name, v)
	}
	l.attrs.blendAmount = v
	return nil
}

func (l *Layer) AdvancedBlendComponent() docgraph.BlendComponent { return l.attrs.component }

func (l *Layer) SetAdvancedBlendComponent(c docgraph.BlendComponent) error {
	if !c.Valid() {
		return fmt.Errorf("layer %q: unknown blend component %q", l.name, c)
	}
	l.attrs.component = c
	return nil
}

func (l *Layer) LayerBelowCurve() string { return l.attrs.belowCurve }

func (l *Layer) SetLayerBelowCurve(points string) error {
	if _, err := docgraph.ParseCurve(points); err != nil {
		return fmt.Errorf("layer %q: layer-below curve: %w", l.name, err)
	}
	l.attrs.belowCurve = points
	return nil
}

func (l *Layer) ThisLayerCurve() string { return l.attrs.thisCurve }

func (l *Layer) SetThisLayerCurve(points string) error {
	if _, err := docgraph.ParseCurve(points); err != nil {
		return fmt.Errorf("layer %q: this-layer curve: %w", l.name, err)
	}
	l.attrs.thisCurve = points
	return nil
}

func (l *Layer) ColorTag() int { return l.attrs.colorTag }

func (l *Layer) SetColorTag(t int) error {
	if t < 0 {
		return fmt.Errorf("layer %q: color tag must not be negative", l.name)
	}
	l.attrs.colorTag = t
	return nil
}

// Swizzle returns the source component feeding component i.
func (l *Layer) Swizzle(component int) int {
	if component < 0 || component > 3 {
		return -1
	}
	return l.attrs.swizzle[component]
}

// SetSwizzle routes source into component.
func (l *Layer) SetSwizzle(component, source int) error {
	if component < 0 || component > 3 || source < 0 || source > 3 {
		return fmt.Errorf("layer %q: swizzle %d<-%d out of range", l.name, component, source)
	}
	l.attrs.swizzle[component] = source
	return nil
}

func (l *Layer) contains(target *Layer) bool {
	if l.group != nil && l.group.contains(target) {
		return true
	}
	return l.mask != nil && l.mask.contains(target)
}

func (l *Layer) clone(doc *Document, owner *Channel) *Layer {
	out := &Layer{
		doc:    doc,
		owner:  owner,
		id:     newID(),
		name:   l.name,
		kind:   l.kind,
		tags:   l.tags.Clone(),
		link:   l.link,
		color:  l.color,
		locked: l.locked,
		attrs:  l.attrs,
	}
	if l.group != nil {
		out.group = l.group.clone(doc, owner)
	}
	if l.mask != nil {
		out.mask = l.mask.clone(doc, owner)
	}
	return out
}
