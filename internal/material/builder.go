package material

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/notify"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// CreateShader creates the material shader with the given input slots. An
// empty name uses the configured shader name.
func (e *Engine) CreateShader(ctx context.Context, doc docgraph.Document, name string, inputs []string) (docgraph.Shader, error) {
	if existing, ok := MaterialShader(doc); ok {
		return nil, fmt.Errorf("material shader %q already exists: %w", existing.Name(), ErrNameCollision)
	}
	if name == "" {
		name = e.cfg.ShaderName
	}
	sh, err := doc.CreateShader(name, inputs)
	if err != nil {
		if errors.Is(err, docgraph.ErrNameInUse) {
			return nil, fmt.Errorf("shader %q: %w", name, ErrNameCollision)
		}
		return nil, err
	}
	sh.Tags().Set(tag.Bool(tag.KeyMaterialShader, true))
	ctxlog.FromContext(ctx).Info("Material shader created.", "shader", name, "inputs", len(inputs))
	return sh, nil
}

// CreatePrimaryInputs creates and binds a primary channel for every unbound
// input of the material shader. It returns the inputs it bound.
func (e *Engine) CreatePrimaryInputs(ctx context.Context, doc docgraph.Document) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	sh, ok := MaterialShader(doc)
	if !ok {
		return nil, fmt.Errorf("no material shader: %w", ErrStructural)
	}

	var pending []string
	for _, in := range sh.Inputs() {
		if in.Channel != nil {
			logger.Debug("Input already bound, skipping.", "input", in.Name, "channel", in.Channel.Name())
			continue
		}
		name := PrimaryChannelName(in.Name)
		if _, taken := doc.Channel(name); taken {
			return nil, fmt.Errorf("channel %q: %w", name, ErrNameCollision)
		}
		pending = append(pending, in.Name)
	}

	sel := doc.Selection()
	defer restoreSelection(ctx, doc, sel)

	var bound []string
	for _, input := range pending {
		ch, err := doc.CreateChannel(PrimaryChannelName(input), e.cfg.ChannelDims)
		if err != nil {
			return bound, fmt.Errorf("primary channel for %q: %w", input, err)
		}
		ch.Tags().Set(tag.Bool(tag.KeyPrimaryInput, true))
		if _, err := ch.Stack().CreateProceduralLayer(PrimaryBaseName, docgraph.Black); err != nil {
			return bound, fmt.Errorf("primary channel for %q: %w", input, err)
		}
		if _, err := materialGroup(ch); err != nil {
			return bound, err
		}
		if err := sh.SetInput(input, ch); err != nil {
			return bound, fmt.Errorf("bind %q: %w", input, err)
		}
		logger.Info("Primary input created.", "input", input, "channel", ch.Name())
		bound = append(bound, input)
	}
	return bound, nil
}

// materialGroup returns the material group of a primary channel, creating it
// on top of the stack when missing.
func materialGroup(primary docgraph.Channel) (docgraph.Layer, error) {
	if g, ok := MaterialGroup(primary); ok {
		return g, nil
	}
	g, err := primary.Stack().CreateGroupLayer(GroupLayerName)
	if err != nil {
		return nil, fmt.Errorf("material group of %q: %w", primary.Name(), err)
	}
	g.Tags().Set(tag.Bool(tag.KeyMaterialGroup, true))
	return g, nil
}

// CreateMaterial creates material name with one channel per bound shader
// input, a mask channel, and a link in every material group. colors gives the
// base color per input; inputs without one are white.
//
// Collisions are checked before anything is created. Creation across inputs
// is not atomic: on a later failure the error lists the channels that were
// already made.
func (e *Engine) CreateMaterial(ctx context.Context, doc docgraph.Document, name string, colors map[string]docgraph.RGBA) (*Material, error) {
	logger := ctxlog.FromContext(ctx).With("op", "create_material", "material", name)
	id := MaterialID(name)
	if err := id.Validate(); err != nil {
		return nil, err
	}
	inputs := ShaderInputs(doc)
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no bound material shader inputs: %w", ErrStructural)
	}
	if err := checkColors(inputs, colors); err != nil {
		return nil, err
	}
	if MaterialExists(doc, id) {
		return nil, fmt.Errorf("material %q: %w", id, ErrNameCollision)
	}
	names := []string{id.MaskName()}
	for _, in := range inputs {
		names = append(names, id.ChannelName(in.Name))
	}
	if err := checkFree(doc, names); err != nil {
		return nil, err
	}

	sel := doc.Selection()
	defer restoreSelection(ctx, doc, sel)

	m := &Material{ID: id, Inputs: make(map[string]docgraph.Channel)}
	var created []string
	partial := func(err error) error {
		return fmt.Errorf("create material %q: created %v before failing: %w", id, created, err)
	}

	mask, err := e.newMaterialChannel(doc, id.MaskName(), id.BaseColorName(), docgraph.Black)
	if err != nil {
		return nil, partial(err)
	}
	created = append(created, mask.Name())
	tagMaterial(mask.Tags(), id, MaskInput)
	mask.Tags().Set(tag.Bool(tag.KeyMask, true))
	m.Mask = mask
	m.Inputs[MaskInput] = mask

	for _, in := range inputs {
		color, ok := colors[in.Name]
		if !ok {
			color = docgraph.White
		}
		ch, err := e.newMaterialChannel(doc, id.ChannelName(in.Name), id.BaseColorName(), color)
		if err != nil {
			return nil, partial(err)
		}
		created = append(created, ch.Name())
		tagMaterial(ch.Tags(), id, in.Name)
		m.Inputs[in.Name] = ch

		group, err := materialGroup(in.Channel)
		if err != nil {
			return nil, partial(err)
		}
		gs, _ := group.GroupStack()
		if _, err := addLink(gs, id, ch, mask); err != nil {
			return nil, partial(err)
		}
		logger.Debug("Material input created.", "input", in.Name, "channel", ch.Name())
	}

	logger.Info("Material created.", "inputs", len(inputs))
	e.publish(ctx, notify.NewEvent(notify.MaterialCreated, string(id)))
	return m, nil
}

// newMaterialChannel creates a channel whose only layer is a locked base color.
func (e *Engine) newMaterialChannel(doc docgraph.Document, name, baseName string, color docgraph.RGBA) (docgraph.Channel, error) {
	ch, err := doc.CreateChannel(name, e.cfg.ChannelDims)
	if err != nil {
		if errors.Is(err, docgraph.ErrNameInUse) {
			return nil, fmt.Errorf("channel %q: %w", name, ErrNameCollision)
		}
		return nil, fmt.Errorf("channel %q: %w", name, err)
	}
	if _, err := newBaseColor(ch.Stack(), baseName, color); err != nil {
		return nil, err
	}
	return ch, nil
}

func newBaseColor(stack docgraph.Stack, name string, color docgraph.RGBA) (docgraph.Layer, error) {
	l, err := stack.CreateProceduralLayer(name, color)
	if err != nil {
		return nil, fmt.Errorf("base color %q: %w", name, err)
	}
	l.Tags().Set(tag.Bool(tag.KeyBaseColor, true))
	l.SetLocked(true)
	return l, nil
}

func tagMaterial(bag *tag.Bag, id MaterialID, input string) {
	bag.Set(tag.String(tag.KeyMaterial, string(id)))
	bag.Set(tag.String(tag.KeyMaterialType, input))
	bag.Set(tag.Bool(tag.KeyMaterialVisibility, true))
}

func checkColors(inputs []BoundInput, colors map[string]docgraph.RGBA) error {
	for name, c := range colors {
		if !slices.ContainsFunc(inputs, func(in BoundInput) bool { return in.Name == name }) {
			return fmt.Errorf("color for input %q: %w", name, ErrNotFound)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("color for input %q: %w", name, err)
		}
	}
	return nil
}

func checkFree(doc docgraph.Document, names []string) error {
	for _, n := range names {
		if _, taken := doc.Channel(n); taken {
			return fmt.Errorf("channel %q: %w", n, ErrNameCollision)
		}
	}
	return nil
}

// CreateElement adds element to material id: an element mask channel and,
// inside every non-mask channel of the material, a group layer with its own
// base color whose mask stack links the element mask.
func (e *Engine) CreateElement(ctx context.Context, doc docgraph.Document, id MaterialID, element string, colors map[string]docgraph.RGBA) (*Element, error) {
	logger := ctxlog.FromContext(ctx).With("op", "create_element", "material", id, "element", element)
	if err := MaterialID(element).Validate(); err != nil {
		return nil, fmt.Errorf("element: %w", err)
	}
	ix := Scan(doc)
	if !ix.Has(id) {
		return nil, fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	if _, exists := ix.Elements(id)[element]; exists {
		return nil, fmt.Errorf("element %q of %q: %w", element, id, ErrNameCollision)
	}
	maskName := id.ChannelName(element)
	if err := checkFree(doc, []string{maskName}); err != nil {
		return nil, err
	}
	inputs := ix.Inputs(id)
	delete(inputs, MaskInput)
	for name, c := range colors {
		if _, ok := inputs[name]; !ok {
			return nil, fmt.Errorf("color for input %q: %w", name, ErrNotFound)
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("color for input %q: %w", name, err)
		}
	}

	sel := doc.Selection()
	defer restoreSelection(ctx, doc, sel)

	mask, err := e.newMaterialChannel(doc, maskName, maskName+baseColorSuffix, docgraph.Black)
	if err != nil {
		return nil, err
	}
	tagMaterial(mask.Tags(), id, ElementType)
	mask.Tags().Set(tag.String(tag.KeyElement, element))
	mask.Tags().Set(tag.Bool(tag.KeyMask, true))

	for _, input := range slices.Sorted(maps.Keys(inputs)) {
		color, ok := colors[input]
		if !ok {
			color = docgraph.White
		}
		if err := addElementGroup(inputs[input], mask, element, color); err != nil {
			return nil, fmt.Errorf("create element %q in %q: %w", element, inputs[input].Name(), err)
		}
		logger.Debug("Element group created.", "input", input)
	}

	logger.Info("Element created.", "inputs", len(inputs))
	ev := notify.NewEvent(notify.ElementCreated, string(id))
	ev.Element = element
	e.publish(ctx, ev)
	return &Element{Material: id, Name: element, Mask: mask}, nil
}

func addElementGroup(ch, mask docgraph.Channel, element string, color docgraph.RGBA) error {
	g, err := ch.Stack().CreateGroupLayer(mask.Name())
	if err != nil {
		return err
	}
	g.Tags().Set(tag.String(tag.KeyElementGroup, element))
	gs, _ := g.GroupStack()
	if _, err := newBaseColor(gs, mask.Name()+baseColorSuffix, color); err != nil {
		return err
	}
	return maskWith(g, mask)
}

// maskWith replaces the mask stack of l with a single link to mask.
func maskWith(l docgraph.Layer, mask docgraph.Channel) error {
	ms, err := l.MakeMaskStack()
	if err != nil {
		return err
	}
	_, err = ms.CreateLinkLayer(mask.Name(), mask)
	return err
}

// SetBaseColor changes the base color of the material's channel for input.
// The base layer is unlocked for the edit and locked again afterwards.
func (e *Engine) SetBaseColor(ctx context.Context, doc docgraph.Document, id MaterialID, input string, color docgraph.RGBA) error {
	ch, ok := ListInputs(doc, id)[input]
	if !ok {
		return fmt.Errorf("material %q input %q: %w", id, input, ErrNotFound)
	}
	l, ok := BaseColorLayer(ch)
	if !ok {
		return fmt.Errorf("channel %q has no base color layer: %w", ch.Name(), ErrStructural)
	}
	if err := setLockedColor(l, color); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Base color changed.", "material", id, "input", input)
	e.publish(ctx, notify.NewEvent(notify.BaseColorChanged, string(id)))
	return nil
}

// SetElementBaseColor changes the base color of element inside the
// material's channel for input.
func (e *Engine) SetElementBaseColor(ctx context.Context, doc docgraph.Document, id MaterialID, element, input string, color docgraph.RGBA) error {
	ix := Scan(doc)
	if _, ok := ix.Elements(id)[element]; !ok {
		return fmt.Errorf("element %q of %q: %w", element, id, ErrNotFound)
	}
	ch, ok := ix.Inputs(id)[input]
	if !ok || input == MaskInput {
		return fmt.Errorf("material %q input %q: %w", id, input, ErrNotFound)
	}
	l, ok := ElementBaseColorLayer(ch, element)
	if !ok {
		return fmt.Errorf("channel %q has no base color for element %q: %w", ch.Name(), element, ErrStructural)
	}
	if err := setLockedColor(l, color); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("Element base color changed.", "material", id, "element", element, "input", input)
	ev := notify.NewEvent(notify.BaseColorChanged, string(id))
	ev.Element = element
	e.publish(ctx, ev)
	return nil
}

func setLockedColor(l docgraph.Layer, color docgraph.RGBA) error {
	locked := l.Locked()
	l.SetLocked(false)
	defer l.SetLocked(locked)
	if err := l.SetColor(color); err != nil {
		return fmt.Errorf("base color %q: %w", l.Name(), err)
	}
	return nil
}

// PickBaseColor asks picker for a new base color starting from the current
// one. A dismissed prompt changes nothing.
func (e *Engine) PickBaseColor(ctx context.Context, doc docgraph.Document, picker docgraph.ColorPicker, id MaterialID, input string) (Outcome, error) {
	ch, ok := ListInputs(doc, id)[input]
	if !ok {
		return Outcome{}, fmt.Errorf("material %q input %q: %w", id, input, ErrNotFound)
	}
	initial := docgraph.White
	if l, ok := BaseColorLayer(ch); ok {
		if c, ok := l.Color(); ok {
			initial = c
		}
	}
	color, err := picker.PickColor(ctx, fmt.Sprintf("%s %s", id, input), initial)
	if errors.Is(err, docgraph.ErrCancelled) {
		return skipped(ReasonCancelled), nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if err := e.SetBaseColor(ctx, doc, id, input, color); err != nil {
		return Outcome{}, err
	}
	return Done, nil
}
