package memdoc

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// Channel is an in-memory channel.
type Channel struct {
	doc   *Document
	id    string
	name  string
	dims  docgraph.Dims
	tags  *tag.Bag
	stack *Stack
}

func (c *Channel) ID() string            { return c.id }
func (c *Channel) Name() string          { return c.name }
func (c *Channel) Dims() docgraph.Dims   { return c.dims }
func (c *Channel) Tags() *tag.Bag        { return c.tags }
func (c *Channel) Stack() docgraph.Stack { return c.stack }

// SetName renames the channel. Names are unique per document.
func (c *Channel) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("channel name must not be empty")
	}
	if name == c.name {
		return nil
	}
	if other := c.doc.channelByName(name); other != nil {
		return fmt.Errorf("channel %q: %w", name, docgraph.ErrNameInUse)
	}
	c.name = name
	return nil
}

// Stack is an ordered, top-first list of layers.
type Stack struct {
	doc    *Document
	owner  *Channel
	layers []*Layer
}

// Layers returns the layers top first.
func (s *Stack) Layers() []docgraph.Layer {
	out := make([]docgraph.Layer, 0, len(s.layers))
	for _, l := range s.layers {
		out = append(out, l)
	}
	return out
}

// FindLayer returns the first layer named name in this stack.
func (s *Stack) FindLayer(name string) (docgraph.Layer, bool) {
	for _, l := range s.layers {
		if l.name == name {
			return l, true
		}
	}
	return nil, false
}

func (s *Stack) insertTop(l *Layer) {
	s.layers = slices.Insert(s.layers, 0, l)
}

func (s *Stack) newLayer(name string, kind docgraph.LayerKind) *Layer {
	return &Layer{
		doc:   s.doc,
		owner: s.owner,
		id:    newID(),
		name:  name,
		kind:  kind,
		tags:  &tag.Bag{},
		attrs: defaultAttributes(),
	}
}

// CreateProceduralLayer inserts a flat color layer at the top.
func (s *Stack) CreateProceduralLayer(name string, color docgraph.RGBA) (docgraph.Layer, error) {
	if err := s.doc.check(OpCreateProcedure, name); err != nil {
		return nil, err
	}
	if err := color.Validate(); err != nil {
		return nil, fmt.Errorf("layer %q: %w", name, err)
	}
	l := s.newLayer(name, docgraph.LayerProcedural)
	l.color = color
	s.insertTop(l)
	return l, nil
}

// CreateGroupLayer inserts a group layer at the top.
func (s *Stack) CreateGroupLayer(name string) (docgraph.Layer, error) {
	if err := s.doc.check(OpCreateGroup, name); err != nil {
		return nil, err
	}
	l := s.newLayer(name, docgraph.LayerGroup)
	l.group = &Stack{doc: s.doc, owner: s.owner}
	s.insertTop(l)
	return l, nil
}

// CreateLinkLayer inserts a reference to target at the top.
func (s *Stack) CreateLinkLayer(name string, target docgraph.Channel) (docgraph.Layer, error) {
	if err := s.doc.check(OpCreateLink, name); err != nil {
		return nil, err
	}
	ch, ok := target.(*Channel)
	if !ok || ch == nil || !slices.Contains(s.doc.channels, ch) {
		return nil, fmt.Errorf("layer %q: link target not in document", name)
	}
	if ch == s.owner {
		return nil, fmt.Errorf("layer %q: channel cannot link to itself", name)
	}
	l := s.newLayer(name, docgraph.LayerLink)
	l.link = ch
	s.insertTop(l)
	return l, nil
}

// RemoveLayers deletes the given layers from this stack.
func (s *Stack) RemoveLayers(layers ...docgraph.Layer) error {
	if len(layers) == 0 {
		return nil
	}
	if err := s.doc.check(OpRemoveLayers, s.ownerName()); err != nil {
		return err
	}
	drop := make(map[*Layer]struct{}, len(layers))
	for _, l := range layers {
		if ml, ok := l.(*Layer); ok {
			drop[ml] = struct{}{}
		}
	}
	s.layers = slices.DeleteFunc(s.layers, func(l *Layer) bool {
		if _, ok := drop[l]; ok {
			s.doc.unselectLayer(l)
			return true
		}
		return false
	})
	return nil
}

func (s *Stack) ownerName() string {
	if s.owner == nil {
		return ""
	}
	return s.owner.name
}

// walk visits s and every nested group and mask stack below it.
func (s *Stack) walk(fn func(*Stack)) {
	fn(s)
	for _, l := range s.layers {
		if l.group != nil {
			l.group.walk(fn)
		}
		if l.mask != nil {
			l.mask.walk(fn)
		}
	}
}

func (s *Stack) contains(target *Layer) bool {
	found := false
	s.walk(func(st *Stack) {
		if slices.Contains(st.layers, target) {
			found = true
		}
	})
	return found
}

func (s *Stack) clone(doc *Document, owner *Channel) *Stack {
	out := &Stack{doc: doc, owner: owner, layers: make([]*Layer, 0, len(s.layers))}
	for _, l := range s.layers {
		out.layers = append(out.layers, l.clone(doc, owner))
	}
	return out
}
