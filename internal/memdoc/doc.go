// Package memdoc provides an in-memory implementation of docgraph.Document.
//
// # Purpose
//
// memdoc stands in for the host application: it owns channels, their layer
// stacks, shaders and the selection cursor. The CLI loads it from a document
// file (internal/hcldoc) and the engine tests run against it directly.
//
// # Characteristics
//
//   - **Top-first stacks:** every Create*Layer call inserts at index 0, the way
//     the host stacks new layers above existing ones.
//   - **Stable identities:** channels and layers get a uuid at creation; names
//     may change, identities never do.
//   - **Host cleanup:** removing a channel removes every link layer in the
//     document that references it and drops it from shader inputs and the
//     selection.
//   - **Not thread-safe:** the host model is single-user; callers serialize.
package memdoc

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// Op names a host primitive for fault injection.
type Op string

const (
	OpCreateChannel   Op = "create_channel"
	OpCreateLink      Op = "create_link_layer"
	OpCreateGroup     Op = "create_group_layer"
	OpCreateProcedure Op = "create_procedural_layer"
	OpRemoveLayers    Op = "remove_layers"
	OpMakeMaskStack   Op = "make_mask_stack"
	OpDuplicate       Op = "duplicate_channel"
)

// FaultFunc decides whether a host primitive fails. name is the channel or
// layer name the primitive acts on.
type FaultFunc func(op Op, name string) error

// Document is the in-memory host document.
type Document struct {
	channels []*Channel
	shaders  []*Shader
	selCh    *Channel
	selLayer *Layer
	fault    FaultFunc
}

var (
	_ docgraph.Document          = (*Document)(nil)
	_ docgraph.ChannelDuplicator = (*Document)(nil)
)

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// InjectFault installs f to be consulted before every mutating primitive.
// Passing nil clears it.
func (d *Document) InjectFault(f FaultFunc) {
	d.fault = f
}

func (d *Document) check(op Op, name string) error {
	if d.fault == nil {
		return nil
	}
	return d.fault(op, name)
}

func newID() string {
	return uuid.NewString()
}

// Channels returns the channels in creation order.
func (d *Document) Channels() []docgraph.Channel {
	out := make([]docgraph.Channel, 0, len(d.channels))
	for _, ch := range d.channels {
		out = append(out, ch)
	}
	return out
}

// Channel looks a channel up by name.
func (d *Document) Channel(name string) (docgraph.Channel, bool) {
	ch := d.channelByName(name)
	if ch == nil {
		return nil, false
	}
	return ch, true
}

func (d *Document) channelByName(name string) *Channel {
	for _, ch := range d.channels {
		if ch.name == name {
			return ch
		}
	}
	return nil
}

// CreateChannel appends a new, empty channel.
func (d *Document) CreateChannel(name string, dims docgraph.Dims) (docgraph.Channel, error) {
	ch, err := d.createChannel(name, dims)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (d *Document) createChannel(name string, dims docgraph.Dims) (*Channel, error) {
	if name == "" {
		return nil, fmt.Errorf("channel name must not be empty")
	}
	if err := d.check(OpCreateChannel, name); err != nil {
		return nil, err
	}
	if d.channelByName(name) != nil {
		return nil, fmt.Errorf("channel %q: %w", name, docgraph.ErrNameInUse)
	}
	if dims.Width <= 0 || dims.Height <= 0 || dims.Depth <= 0 {
		return nil, fmt.Errorf("channel %q: invalid dimensions %+v", name, dims)
	}
	ch := &Channel{
		doc:  d,
		id:   newID(),
		name: name,
		dims: dims,
		tags: &tag.Bag{},
	}
	ch.stack = &Stack{doc: d, owner: ch}
	d.channels = append(d.channels, ch)
	return ch, nil
}

// RemoveChannel deletes ch and every link layer that references it.
func (d *Document) RemoveChannel(c docgraph.Channel) error {
	ch, ok := c.(*Channel)
	if !ok || ch == nil {
		return fmt.Errorf("memdoc: foreign channel %T", c)
	}
	idx := slices.Index(d.channels, ch)
	if idx < 0 {
		return nil
	}
	d.channels = slices.Delete(d.channels, idx, idx+1)

	for _, other := range d.channels {
		other.stack.walk(func(s *Stack) {
			s.layers = slices.DeleteFunc(s.layers, func(l *Layer) bool {
				if l.link == ch {
					d.unselectLayer(l)
					return true
				}
				return false
			})
		})
	}
	for _, sh := range d.shaders {
		for name, bound := range sh.bindings {
			if bound == ch {
				delete(sh.bindings, name)
			}
		}
	}
	if d.selCh == ch {
		d.selCh, d.selLayer = nil, nil
	}
	return nil
}

// Shaders returns the shaders in creation order.
func (d *Document) Shaders() []docgraph.Shader {
	out := make([]docgraph.Shader, 0, len(d.shaders))
	for _, sh := range d.shaders {
		out = append(out, sh)
	}
	return out
}

// CreateShader appends a shader with unbound inputs.
func (d *Document) CreateShader(name string, inputs []string) (docgraph.Shader, error) {
	if name == "" {
		return nil, fmt.Errorf("shader name must not be empty")
	}
	for _, sh := range d.shaders {
		if sh.name == name {
			return nil, fmt.Errorf("shader %q: %w", name, docgraph.ErrNameInUse)
		}
	}
	seen := make(map[string]struct{}, len(inputs))
	for _, in := range inputs {
		if in == "" {
			return nil, fmt.Errorf("shader %q: empty input name", name)
		}
		if _, dup := seen[in]; dup {
			return nil, fmt.Errorf("shader %q: duplicate input %q", name, in)
		}
		seen[in] = struct{}{}
	}
	sh := &Shader{
		doc:      d,
		name:     name,
		inputs:   slices.Clone(inputs),
		bindings: make(map[string]*Channel),
		tags:     &tag.Bag{},
	}
	d.shaders = append(d.shaders, sh)
	return sh, nil
}

// Selection returns the current cursor.
func (d *Document) Selection() docgraph.Selection {
	var sel docgraph.Selection
	if d.selCh != nil {
		sel.Channel = d.selCh
	}
	if d.selLayer != nil {
		sel.Layer = d.selLayer
	}
	return sel
}

// Select moves the cursor. The layer, if any, must live somewhere inside the
// selected channel's stack.
func (d *Document) Select(sel docgraph.Selection) error {
	var ch *Channel
	if sel.Channel != nil {
		c, ok := sel.Channel.(*Channel)
		if !ok || !slices.Contains(d.channels, c) {
			return fmt.Errorf("memdoc: channel not in document")
		}
		ch = c
	}
	var layer *Layer
	if sel.Layer != nil {
		l, ok := sel.Layer.(*Layer)
		if !ok || ch == nil || !ch.stack.contains(l) {
			return fmt.Errorf("memdoc: layer not in selected channel")
		}
		layer = l
	}
	d.selCh, d.selLayer = ch, layer
	return nil
}

func (d *Document) unselectLayer(l *Layer) {
	if d.selLayer == nil {
		return
	}
	if d.selLayer == l || l.contains(d.selLayer) {
		d.selLayer = nil
	}
}

// DuplicateChannel deep-copies ch under "<name> copy" and selects the copy.
func (d *Document) DuplicateChannel(c docgraph.Channel) (docgraph.Channel, error) {
	src, ok := c.(*Channel)
	if !ok || src == nil || !slices.Contains(d.channels, src) {
		return nil, fmt.Errorf("memdoc: channel not in document")
	}
	if err := d.check(OpDuplicate, src.name); err != nil {
		return nil, err
	}
	name := src.name + " copy"
	for i := 2; d.channelByName(name) != nil; i++ {
		name = fmt.Sprintf("%s copy %d", src.name, i)
	}
	dup, err := d.createChannel(name, src.dims)
	if err != nil {
		return nil, err
	}
	dup.tags = src.tags.Clone()
	dup.stack = src.stack.clone(d, dup)
	d.selCh, d.selLayer = dup, nil
	return dup, nil
}
