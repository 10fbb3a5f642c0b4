package material

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/memdoc"
	"github.com/specialistvlad/materialmgr/internal/notify/notifytest"
)

var testDims = docgraph.Dims{Width: 64, Height: 64, Depth: 8}

type fixture struct {
	ctx    context.Context
	doc    *memdoc.Document
	eng    *Engine
	events *notifytest.Recorder
}

// newFixture returns a document with a material shader and one bound primary
// channel per input.
func newFixture(t *testing.T, policy Policy, inputs ...string) *fixture {
	t.Helper()
	if len(inputs) == 0 {
		inputs = []string{"Diffuse", "Specular"}
	}
	f := &fixture{
		ctx:    context.Background(),
		doc:    memdoc.New(),
		events: &notifytest.Recorder{},
	}
	f.eng = New(Config{ChannelDims: testDims, Policy: policy}, f.events)
	_, err := f.eng.CreateShader(f.ctx, f.doc, "", inputs)
	require.NoError(t, err)
	_, err = f.eng.CreatePrimaryInputs(f.ctx, f.doc)
	require.NoError(t, err)
	return f
}

// create builds materials and reconciles them into the given order.
func (f *fixture) create(t *testing.T, names ...string) {
	t.Helper()
	ids := make([]MaterialID, 0, len(names))
	for _, n := range names {
		_, err := f.eng.CreateMaterial(f.ctx, f.doc, n, nil)
		require.NoError(t, err)
		ids = append(ids, MaterialID(n))
	}
	_, err := f.eng.Reconcile(f.ctx, f.doc, ids)
	require.NoError(t, err)
}

func (f *fixture) channel(t *testing.T, name string) docgraph.Channel {
	t.Helper()
	ch, ok := f.doc.Channel(name)
	require.True(t, ok, "channel %q", name)
	return ch
}

// group returns the material group stack of the primary channel for input.
func (f *fixture) group(t *testing.T, input string) docgraph.Stack {
	t.Helper()
	g, ok := MaterialGroup(f.channel(t, PrimaryChannelName(input)))
	require.True(t, ok)
	gs, ok := g.GroupStack()
	require.True(t, ok)
	return gs
}

// link returns the link layer of id in the group of input.
func (f *fixture) link(t *testing.T, input string, id MaterialID) docgraph.Layer {
	t.Helper()
	g, ok := MaterialGroup(f.channel(t, PrimaryChannelName(input)))
	require.True(t, ok)
	l, ok := findLink(g, id)
	require.True(t, ok, "link of %q in %q", id, input)
	return l
}

func (f *fixture) order() []MaterialID {
	return IDs(CurrentOrder(f.doc))
}

func groupIDs(t *testing.T, f *fixture, input string) []MaterialID {
	t.Helper()
	g, ok := MaterialGroup(f.channel(t, PrimaryChannelName(input)))
	require.True(t, ok)
	return IDs(groupOrder(g))
}

func ids(names ...string) []MaterialID {
	out := make([]MaterialID, len(names))
	for i, n := range names {
		out[i] = MaterialID(n)
	}
	return out
}

func names(layers []docgraph.Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.Name()
	}
	return out
}

// failOnce returns a fault that fails op on name the first time only.
func failOnce(op memdoc.Op, name string, err error) memdoc.FaultFunc {
	fired := false
	return func(o memdoc.Op, n string) error {
		if !fired && o == op && n == name {
			fired = true
			return err
		}
		return nil
	}
}
