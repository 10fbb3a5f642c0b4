package memdoc

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// Shader is an in-memory shader with named input slots.
type Shader struct {
	doc      *Document
	name     string
	inputs   []string
	bindings map[string]*Channel
	tags     *tag.Bag
}

func (s *Shader) Name() string   { return s.name }
func (s *Shader) Tags() *tag.Bag { return s.tags }

// Inputs returns the slots in declaration order. Unbound slots carry a nil Channel.
func (s *Shader) Inputs() []docgraph.ShaderInput {
	out := make([]docgraph.ShaderInput, 0, len(s.inputs))
	for _, name := range s.inputs {
		in := docgraph.ShaderInput{Name: name}
		if ch := s.bindings[name]; ch != nil {
			in.Channel = ch
		}
		out = append(out, in)
	}
	return out
}

// SetInput binds ch to the named slot. A nil ch unbinds it.
func (s *Shader) SetInput(name string, c docgraph.Channel) error {
	if !slices.Contains(s.inputs, name) {
		return fmt.Errorf("shader %q: unknown input %q", s.name, name)
	}
	if c == nil {
		delete(s.bindings, name)
		return nil
	}
	ch, ok := c.(*Channel)
	if !ok || ch == nil || !slices.Contains(s.doc.channels, ch) {
		return fmt.Errorf("shader %q: input %q: channel not in document", s.name, name)
	}
	s.bindings[name] = ch
	return nil
}
