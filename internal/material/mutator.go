package material

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/notify"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// SelectedMaterial derives the selected material from the host cursor: the
// material of the selected layer, else of the selected channel.
func SelectedMaterial(doc docgraph.Document) Selection {
	sel := doc.Selection()
	if sel.Layer != nil {
		if name, ok := sel.Layer.Tags().LookupString(tag.KeyMaterial); ok && name != "" {
			return Selected(MaterialID(name))
		}
	}
	if sel.Channel != nil {
		if name, ok := sel.Channel.Tags().LookupString(tag.KeyMaterial); ok && name != "" {
			return Selected(MaterialID(name))
		}
	}
	return NoSelection
}

type channelRename struct {
	ch   docgraph.Channel
	name string
}

type layerRename struct {
	layer docgraph.Layer
	name  string
	// retag sets the material tag of the layer as well.
	retag bool
}

// Rename renames the selected material. Links, mask links, channels, element
// groups and element channels are renamed and retagged; the position in the
// order is unchanged. Every node is located before the first change, so a
// missing group or link leaves the document untouched.
func (e *Engine) Rename(ctx context.Context, doc docgraph.Document, sel Selection, newName string) (Outcome, error) {
	old, ok := sel.Get()
	if !ok {
		return skipped(ReasonNoSelection), nil
	}
	id := MaterialID(newName)
	if id == old {
		return skipped(ReasonUnchanged), nil
	}
	if err := id.Validate(); err != nil {
		return Outcome{}, err
	}
	logger := ctxlog.FromContext(ctx).With("op", "rename", "material", old, "to", id)

	ix := Scan(doc)
	if !ix.Has(old) {
		return Outcome{}, fmt.Errorf("material %q: %w", old, ErrNotFound)
	}
	if ix.Has(id) {
		return Outcome{}, fmt.Errorf("material %q: %w", id, ErrNameCollision)
	}
	inputs := ix.Inputs(old)
	elements := ix.Elements(old)
	mask, _ := ix.Mask(old)

	var channels []channelRename
	for _, input := range slices.Sorted(maps.Keys(inputs)) {
		channels = append(channels, channelRename{ch: inputs[input], name: id.ChannelName(input)})
	}
	for _, element := range slices.Sorted(maps.Keys(elements)) {
		channels = append(channels, channelRename{ch: elements[element], name: id.ChannelName(element)})
	}
	if err := checkRenameTargets(doc, channels); err != nil {
		return Outcome{}, err
	}

	var layers []layerRename
	for _, in := range ShaderInputs(doc) {
		if _, ok := inputs[in.Name]; !ok || in.Name == MaskInput {
			continue
		}
		group, ok := MaterialGroup(in.Channel)
		if !ok {
			return Outcome{}, fmt.Errorf("input %q has no material group: %w", in.Name, ErrStructural)
		}
		link, ok := findLink(group, old)
		if !ok {
			return Outcome{}, fmt.Errorf("input %q has no link for %q: %w", in.Name, old, ErrStructural)
		}
		layers = append(layers, layerRename{layer: link, name: id.ChannelName(in.Name), retag: true})
		if m, ok := findMaskLink(link, mask); ok {
			layers = append(layers, layerRename{layer: m, name: id.MaskName()})
		}
	}
	for input, ch := range inputs {
		if l, ok := BaseColorLayer(ch); ok && l.Name() == old.BaseColorName() {
			layers = append(layers, layerRename{layer: l, name: id.BaseColorName()})
		}
		if input == MaskInput {
			continue
		}
		for element, elementCh := range elements {
			g, ok := ElementGroup(ch, element)
			if !ok {
				logger.Warn("Element group missing, skipping.", "channel", ch.Name(), "element", element)
				continue
			}
			elementName := id.ChannelName(element)
			layers = append(layers, layerRename{layer: g, name: elementName})
			if m, ok := findMaskLink(g, elementCh); ok {
				layers = append(layers, layerRename{layer: m, name: elementName})
			}
			if b, ok := ElementBaseColorLayer(ch, element); ok {
				layers = append(layers, layerRename{layer: b, name: elementName + baseColorSuffix})
			}
		}
	}
	for element, ch := range elements {
		if l, ok := BaseColorLayer(ch); ok && l.Name() == old.ChannelName(element)+baseColorSuffix {
			layers = append(layers, layerRename{layer: l, name: id.ChannelName(element) + baseColorSuffix})
		}
	}

	for _, r := range layers {
		if err := r.layer.SetName(r.name); err != nil {
			return Outcome{}, fmt.Errorf("rename layer %q: %w", r.layer.Name(), err)
		}
		if r.retag {
			r.layer.Tags().Set(tag.String(tag.KeyMaterial, string(id)))
		}
	}
	for _, r := range channels {
		logger.Debug("Renaming channel.", "channel", r.ch.Name(), "to", r.name)
		if err := r.ch.SetName(r.name); err != nil {
			return Outcome{}, fmt.Errorf("rename channel %q: %w", r.ch.Name(), err)
		}
		r.ch.Tags().Set(tag.String(tag.KeyMaterial, string(id)))
	}

	logger.Info("Material renamed.", "channels", len(channels), "layers", len(layers))
	ev := notify.NewEvent(notify.MaterialRenamed, string(id))
	ev.From = string(old)
	e.publish(ctx, ev)
	return Done, nil
}

// checkRenameTargets rejects target names held by channels outside the rename.
func checkRenameTargets(doc docgraph.Document, renames []channelRename) error {
	moving := make(map[string]struct{}, len(renames))
	for _, r := range renames {
		moving[r.ch.ID()] = struct{}{}
	}
	for _, r := range renames {
		if other, taken := doc.Channel(r.name); taken {
			if _, ok := moving[other.ID()]; !ok {
				return fmt.Errorf("channel %q: %w", r.name, ErrNameCollision)
			}
		}
	}
	return nil
}

// Duplicate copies the selected material under newName using the host's
// channel duplication. The copy gets its own mask and element masks and
// starts with the source's link settings.
func (e *Engine) Duplicate(ctx context.Context, doc docgraph.Document, sel Selection, newName string) (Outcome, error) {
	src, ok := sel.Get()
	if !ok {
		return skipped(ReasonNoSelection), nil
	}
	dup, ok := doc.(docgraph.ChannelDuplicator)
	if !ok {
		return Outcome{}, fmt.Errorf("duplicate channel: %w", ErrCapabilityMissing)
	}
	id := MaterialID(newName)
	if err := id.Validate(); err != nil {
		return Outcome{}, err
	}
	logger := ctxlog.FromContext(ctx).With("op", "duplicate", "material", src, "to", id)

	ix := Scan(doc)
	if !ix.Has(src) {
		return Outcome{}, fmt.Errorf("material %q: %w", src, ErrNotFound)
	}
	if ix.Has(id) {
		return Outcome{}, fmt.Errorf("material %q: %w", id, ErrNameCollision)
	}
	inputs := ix.Inputs(src)
	elements := ix.Elements(src)
	srcMask, ok := ix.Mask(src)
	if !ok {
		return Outcome{}, fmt.Errorf("material %q has no mask channel: %w", src, ErrStructural)
	}
	var names []string
	for input := range inputs {
		names = append(names, id.ChannelName(input))
	}
	for element := range elements {
		names = append(names, id.ChannelName(element))
	}
	if err := checkFree(doc, names); err != nil {
		return Outcome{}, err
	}

	type target struct {
		input BoundInput
		group docgraph.Layer
	}
	var targets []target
	for _, in := range ShaderInputs(doc) {
		if _, ok := inputs[in.Name]; !ok || in.Name == MaskInput {
			continue
		}
		group, ok := MaterialGroup(in.Channel)
		if !ok {
			return Outcome{}, fmt.Errorf("input %q has no material group: %w", in.Name, ErrStructural)
		}
		targets = append(targets, target{input: in, group: group})
	}

	// Save the source link settings onto the source channels so the copies
	// carry them.
	for _, t := range targets {
		if link, ok := findLink(t.group, src); ok {
			if _, err := Capture(link); err != nil {
				return Outcome{}, err
			}
		}
	}

	prev := doc.Selection()
	defer restoreSelection(ctx, doc, prev)

	copyChannel := func(ch docgraph.Channel, name string) (docgraph.Channel, error) {
		c, err := dup.DuplicateChannel(ch)
		if err != nil {
			return nil, fmt.Errorf("duplicate %q: %w", ch.Name(), err)
		}
		if err := c.SetName(name); err != nil {
			return nil, fmt.Errorf("rename copy of %q: %w", ch.Name(), err)
		}
		c.Tags().Set(tag.String(tag.KeyMaterial, string(id)))
		if l, ok := BaseColorLayer(c); ok {
			if err := l.SetName(strings.Replace(l.Name(), string(src), string(id), 1)); err != nil {
				return nil, err
			}
		}
		logger.Debug("Channel duplicated.", "source", ch.Name(), "copy", name)
		return c, nil
	}

	newElements := make(map[string]docgraph.Channel, len(elements))
	for _, element := range slices.Sorted(maps.Keys(elements)) {
		c, err := copyChannel(elements[element], id.ChannelName(element))
		if err != nil {
			return Outcome{}, err
		}
		newElements[element] = c
	}

	newInputs := make(map[string]docgraph.Channel, len(inputs))
	for _, input := range slices.Sorted(maps.Keys(inputs)) {
		c, err := copyChannel(inputs[input], id.ChannelName(input))
		if err != nil {
			return Outcome{}, err
		}
		newInputs[input] = c
		if input == MaskInput {
			continue
		}
		for element, em := range newElements {
			g, ok := ElementGroup(c, element)
			if !ok {
				continue
			}
			if err := g.SetName(em.Name()); err != nil {
				return Outcome{}, err
			}
			if b, ok := ElementBaseColorLayer(c, element); ok {
				if err := b.SetName(em.Name() + baseColorSuffix); err != nil {
					return Outcome{}, err
				}
			}
			if err := maskWith(g, em); err != nil {
				return Outcome{}, fmt.Errorf("mask element %q in %q: %w", element, c.Name(), err)
			}
		}
	}
	newMask := newInputs[MaskInput]
	if newMask == nil {
		return Outcome{}, fmt.Errorf("mask copy of %q missing: %w", srcMask.Name(), ErrStructural)
	}

	var masks []docgraph.Stack
	for _, t := range targets {
		gs, _ := t.group.GroupStack()
		link, err := addLink(gs, id, newInputs[t.input.Name], nil)
		if err != nil {
			return Outcome{}, err
		}
		ms, _ := link.MaskStack()
		masks = append(masks, ms)
	}
	for _, ms := range masks {
		if _, err := ms.CreateLinkLayer(newMask.Name(), newMask); err != nil {
			return Outcome{}, fmt.Errorf("mask link %q: %w", newMask.Name(), err)
		}
	}

	logger.Info("Material duplicated.", "channels", len(newInputs)+len(newElements))
	ev := notify.NewEvent(notify.MaterialDuplicated, string(id))
	ev.From = string(src)
	e.publish(ctx, ev)
	return Done, nil
}

// materialLinks returns, per primary input, the links in its group that
// render material id.
func materialLinks(doc docgraph.Document, id MaterialID) map[docgraph.Stack][]docgraph.Layer {
	out := make(map[docgraph.Stack][]docgraph.Layer)
	for _, in := range ShaderInputs(doc) {
		group, ok := MaterialGroup(in.Channel)
		if !ok {
			continue
		}
		gs, _ := group.GroupStack()
		for _, l := range gs.Layers() {
			if l.Kind() == docgraph.LayerLink && l.Tags().Is(tag.KeyMaterial, string(id)) {
				out[gs] = append(out[gs], l)
			}
		}
	}
	return out
}

// Remove deletes the selected material. With metadataOnly the channels stay
// but lose their identity tags, and the links lose their material tag, so
// the material disappears from the catalog and the order.
func (e *Engine) Remove(ctx context.Context, doc docgraph.Document, sel Selection, metadataOnly bool) (Outcome, error) {
	id, ok := sel.Get()
	if !ok {
		return skipped(ReasonNoSelection), nil
	}
	logger := ctxlog.FromContext(ctx).With("op", "remove", "material", id, "metadata_only", metadataOnly)
	ix := Scan(doc)
	if !ix.Has(id) {
		return Outcome{}, fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	channels := ix.channels(id)
	links := materialLinks(doc, id)

	if metadataOnly {
		for _, ch := range channels {
			ch.Tags().Remove(tag.IdentityKeys...)
		}
		for _, ls := range links {
			for _, l := range ls {
				l.Tags().Remove(tag.KeyMaterial)
			}
		}
	} else {
		for gs, ls := range links {
			if err := gs.RemoveLayers(ls...); err != nil {
				return Outcome{}, fmt.Errorf("remove links of %q: %w", id, err)
			}
		}
		for _, ch := range channels {
			logger.Debug("Removing channel.", "channel", ch.Name())
			if err := doc.RemoveChannel(ch); err != nil {
				return Outcome{}, fmt.Errorf("remove channel %q: %w", ch.Name(), err)
			}
		}
	}

	logger.Info("Material removed.", "channels", len(channels))
	e.publish(ctx, notify.NewEvent(notify.MaterialRemoved, string(id)))
	return Done, nil
}

// RemoveElement deletes element from the selected material: its group layer
// in every non-mask channel and its mask channel.
func (e *Engine) RemoveElement(ctx context.Context, doc docgraph.Document, sel Selection, element string) (Outcome, error) {
	id, ok := sel.Get()
	if !ok {
		return skipped(ReasonNoSelection), nil
	}
	ix := Scan(doc)
	if !ix.Has(id) {
		return Outcome{}, fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	elementCh, ok := ix.Elements(id)[element]
	if !ok {
		return Outcome{}, fmt.Errorf("element %q of %q: %w", element, id, ErrNotFound)
	}
	for input, ch := range ix.Inputs(id) {
		if input == MaskInput {
			continue
		}
		var groups []docgraph.Layer
		for _, l := range ch.Stack().Layers() {
			if l.Kind() == docgraph.LayerGroup && l.Tags().Is(tag.KeyElementGroup, element) {
				groups = append(groups, l)
			}
		}
		if err := ch.Stack().RemoveLayers(groups...); err != nil {
			return Outcome{}, fmt.Errorf("remove element %q from %q: %w", element, ch.Name(), err)
		}
	}
	if err := doc.RemoveChannel(elementCh); err != nil {
		return Outcome{}, fmt.Errorf("remove channel %q: %w", elementCh.Name(), err)
	}

	ctxlog.FromContext(ctx).Info("Element removed.", "material", id, "element", element)
	ev := notify.NewEvent(notify.ElementRemoved, string(id))
	ev.Element = element
	e.publish(ctx, ev)
	return Done, nil
}

// SetVisibility sets the materialVisibility tag on every channel of id and
// the visibility of its links.
func (e *Engine) SetVisibility(ctx context.Context, doc docgraph.Document, id MaterialID, visible bool) error {
	ix := Scan(doc)
	if !ix.Has(id) {
		return fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	for _, ch := range ix.channels(id) {
		ch.Tags().Set(tag.Bool(tag.KeyMaterialVisibility, visible))
	}
	for _, ls := range materialLinks(doc, id) {
		for _, l := range ls {
			l.SetVisible(visible)
		}
	}
	ctxlog.FromContext(ctx).Info("Material visibility changed.", "material", id, "visible", visible)
	e.publish(ctx, notify.NewEvent(notify.VisibilityChanged, string(id)))
	return nil
}

// ToggleVisibility flips the visibility of the selected material.
func (e *Engine) ToggleVisibility(ctx context.Context, doc docgraph.Document, sel Selection) (Outcome, error) {
	id, ok := sel.Get()
	if !ok {
		return skipped(ReasonNoSelection), nil
	}
	ix := Scan(doc)
	if !ix.Has(id) {
		return Outcome{}, fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	if err := e.SetVisibility(ctx, doc, id, !ix.Visible(id)); err != nil {
		return Outcome{}, err
	}
	return Done, nil
}
