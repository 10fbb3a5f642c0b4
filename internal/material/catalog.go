package material

import (
	"fmt"
	"maps"
	"slices"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

type indexEntry struct {
	visible  bool
	mask     docgraph.Channel
	inputs   map[string]docgraph.Channel
	elements map[string]docgraph.Channel
}

// Index is a one-shot view of the materials in a document. Build a new one
// after every mutation.
type Index struct {
	entries map[MaterialID]*indexEntry
}

// Scan builds an Index from the channel tags of doc.
func Scan(doc docgraph.Document) *Index {
	ix := &Index{entries: make(map[MaterialID]*indexEntry)}
	for _, ch := range doc.Channels() {
		bag := ch.Tags()
		name, ok := bag.LookupString(tag.KeyMaterial)
		if !ok {
			continue
		}
		id := MaterialID(name)
		e := ix.entries[id]
		if e == nil {
			e = &indexEntry{
				visible:  true,
				inputs:   make(map[string]docgraph.Channel),
				elements: make(map[string]docgraph.Channel),
			}
			ix.entries[id] = e
		}
		// One hidden channel hides the material.
		if !bag.BoolOr(tag.KeyMaterialVisibility, true) {
			e.visible = false
		}
		if element, ok := bag.LookupString(tag.KeyElement); ok {
			if _, dup := e.elements[element]; !dup {
				e.elements[element] = ch
			}
			continue
		}
		input := bag.StringOr(tag.KeyMaterialType, "")
		if _, dup := e.inputs[input]; !dup {
			e.inputs[input] = ch
		}
		if input == MaskInput && e.mask == nil {
			e.mask = ch
		}
	}
	return ix
}

// Materials returns every material sorted by name.
func (ix *Index) Materials() []Summary {
	out := make([]Summary, 0, len(ix.entries))
	for _, id := range ix.IDs() {
		out = append(out, Summary{ID: id, Visible: ix.entries[id].visible})
	}
	return out
}

// IDs returns the material ids sorted by name.
func (ix *Index) IDs() []MaterialID {
	return slices.Sorted(maps.Keys(ix.entries))
}

// Has reports whether id is a known material.
func (ix *Index) Has(id MaterialID) bool {
	_, ok := ix.entries[id]
	return ok
}

// Visible reports the visibility of id, true when unknown.
func (ix *Index) Visible(id MaterialID) bool {
	if e, ok := ix.entries[id]; ok {
		return e.visible
	}
	return true
}

// Inputs returns the non-element channels of id keyed by materialType,
// including the mask channel under "Mask".
func (ix *Index) Inputs(id MaterialID) map[string]docgraph.Channel {
	e, ok := ix.entries[id]
	if !ok {
		return map[string]docgraph.Channel{}
	}
	return maps.Clone(e.inputs)
}

// Elements returns the element channels of id keyed by element name.
func (ix *Index) Elements(id MaterialID) map[string]docgraph.Channel {
	e, ok := ix.entries[id]
	if !ok {
		return map[string]docgraph.Channel{}
	}
	return maps.Clone(e.elements)
}

// Mask returns the mask channel of id.
func (ix *Index) Mask(id MaterialID) (docgraph.Channel, bool) {
	e, ok := ix.entries[id]
	if !ok || e.mask == nil {
		return nil, false
	}
	return e.mask, true
}

// channels returns every channel of id: inputs, mask and elements.
func (ix *Index) channels(id MaterialID) []docgraph.Channel {
	e, ok := ix.entries[id]
	if !ok {
		return nil
	}
	var out []docgraph.Channel
	for _, k := range slices.Sorted(maps.Keys(e.inputs)) {
		out = append(out, e.inputs[k])
	}
	for _, k := range slices.Sorted(maps.Keys(e.elements)) {
		out = append(out, e.elements[k])
	}
	return out
}

// ListMaterials returns every material of doc sorted by name.
func ListMaterials(doc docgraph.Document) []Summary {
	return Scan(doc).Materials()
}

// ListInputs returns the non-element channels of id keyed by input name.
func ListInputs(doc docgraph.Document, id MaterialID) map[string]docgraph.Channel {
	return Scan(doc).Inputs(id)
}

// ListElements returns the element channels of id keyed by element name.
func ListElements(doc docgraph.Document, id MaterialID) map[string]docgraph.Channel {
	return Scan(doc).Elements(id)
}

// MaterialExists reports whether any channel carries id.
func MaterialExists(doc docgraph.Document, id MaterialID) bool {
	return Scan(doc).Has(id)
}

// MaterialShader returns the shader tagged as the material shader.
func MaterialShader(doc docgraph.Document) (docgraph.Shader, bool) {
	for _, sh := range doc.Shaders() {
		if sh.Tags().BoolOr(tag.KeyMaterialShader, false) {
			return sh, true
		}
	}
	return nil, false
}

// ShaderInputs returns the bound inputs of the material shader in slot order.
func ShaderInputs(doc docgraph.Document) []BoundInput {
	sh, ok := MaterialShader(doc)
	if !ok {
		return nil
	}
	var out []BoundInput
	for _, in := range sh.Inputs() {
		if in.Channel == nil {
			continue
		}
		out = append(out, BoundInput{Name: in.Name, Channel: in.Channel})
	}
	return out
}

// PrimaryChannel returns the channel bound to the named shader input.
func PrimaryChannel(doc docgraph.Document, input string) (docgraph.Channel, bool) {
	for _, in := range ShaderInputs(doc) {
		if in.Name == input {
			return in.Channel, true
		}
	}
	return nil, false
}

// MaterialGroup returns the material group layer of a primary channel.
func MaterialGroup(ch docgraph.Channel) (docgraph.Layer, bool) {
	for _, l := range ch.Stack().Layers() {
		if l.Kind() == docgraph.LayerGroup && l.Tags().BoolOr(tag.KeyMaterialGroup, false) {
			return l, true
		}
	}
	return nil, false
}

// BaseColorLayer returns the base color layer at the top level of ch.
func BaseColorLayer(ch docgraph.Channel) (docgraph.Layer, bool) {
	return findBaseColor(ch.Stack())
}

// ElementGroup returns the group layer of element inside material channel ch.
func ElementGroup(ch docgraph.Channel, element string) (docgraph.Layer, bool) {
	for _, l := range ch.Stack().Layers() {
		if l.Kind() == docgraph.LayerGroup && l.Tags().Is(tag.KeyElementGroup, element) {
			return l, true
		}
	}
	return nil, false
}

// ElementBaseColorLayer returns the base color layer inside the element group.
func ElementBaseColorLayer(ch docgraph.Channel, element string) (docgraph.Layer, bool) {
	g, ok := ElementGroup(ch, element)
	if !ok {
		return nil, false
	}
	gs, _ := g.GroupStack()
	return findBaseColor(gs)
}

func findBaseColor(s docgraph.Stack) (docgraph.Layer, bool) {
	for _, l := range s.Layers() {
		if l.Kind() == docgraph.LayerProcedural && l.Tags().BoolOr(tag.KeyBaseColor, false) {
			return l, true
		}
	}
	return nil, false
}

// findLink returns the first link layer in group tagged with id.
func findLink(group docgraph.Layer, id MaterialID) (docgraph.Layer, bool) {
	gs, ok := group.GroupStack()
	if !ok {
		return nil, false
	}
	for _, l := range gs.Layers() {
		if l.Kind() == docgraph.LayerLink && l.Tags().Is(tag.KeyMaterial, string(id)) {
			return l, true
		}
	}
	return nil, false
}

// findMaskLink returns the layer in l's mask stack that links target.
func findMaskLink(l docgraph.Layer, target docgraph.Channel) (docgraph.Layer, bool) {
	ms, ok := l.MaskStack()
	if !ok || target == nil {
		return nil, false
	}
	for _, m := range ms.Layers() {
		if linked, ok := m.LinkedChannel(); ok && linked.ID() == target.ID() {
			return m, true
		}
	}
	return nil, false
}

// InputDetail describes one channel of a material.
type InputDetail struct {
	Input     string
	Channel   string
	BaseColor *docgraph.RGBA
	Settings  *SettingsRecord
}

// ElementDetail describes one element of a material.
type ElementDetail struct {
	Name       string
	Channel    string
	BaseColors map[string]docgraph.RGBA
}

// Detail is the full description of one material.
type Detail struct {
	ID       MaterialID
	Visible  bool
	Position int // -1 when the material has no link in the order
	Inputs   []InputDetail
	Elements []ElementDetail
}

// Describe collects everything known about id.
func Describe(doc docgraph.Document, id MaterialID) (Detail, error) {
	ix := Scan(doc)
	if !ix.Has(id) {
		return Detail{}, fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	d := Detail{ID: id, Visible: ix.Visible(id), Position: -1}
	for i, e := range CurrentOrder(doc) {
		if e.ID == id {
			d.Position = i
			break
		}
	}

	inputs := ix.Inputs(id)
	for _, name := range slices.Sorted(maps.Keys(inputs)) {
		ch := inputs[name]
		in := InputDetail{Input: name, Channel: ch.Name()}
		if l, ok := BaseColorLayer(ch); ok {
			if c, ok := l.Color(); ok {
				in.BaseColor = &c
			}
		}
		if r, ok := ReadSettings(ch); ok {
			in.Settings = &r
		}
		d.Inputs = append(d.Inputs, in)
	}

	elements := ix.Elements(id)
	for _, name := range slices.Sorted(maps.Keys(elements)) {
		ed := ElementDetail{Name: name, Channel: elements[name].Name(), BaseColors: map[string]docgraph.RGBA{}}
		for input, ch := range inputs {
			if input == MaskInput {
				continue
			}
			if l, ok := ElementBaseColorLayer(ch, name); ok {
				if c, ok := l.Color(); ok {
					ed.BaseColors[input] = c
				}
			}
		}
		d.Elements = append(d.Elements, ed)
	}
	return d, nil
}
