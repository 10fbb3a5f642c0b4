package memdoc

import (
	"errors"
	"math"
	"testing"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layerNames(s docgraph.Stack) []string {
	var out []string
	for _, l := range s.Layers() {
		out = append(out, l.Name())
	}
	return out
}

func TestCreateChannel_RejectsDuplicateName(t *testing.T) {
	d := New()
	_, err := d.CreateChannel("Rust_Diffuse", docgraph.DefaultDims)
	require.NoError(t, err)

	_, err = d.CreateChannel("Rust_Diffuse", docgraph.DefaultDims)
	require.ErrorIs(t, err, docgraph.ErrNameInUse)
	assert.Len(t, d.Channels(), 1)
}

func TestCreateChannel_InvalidDims(t *testing.T) {
	d := New()
	_, err := d.CreateChannel("x", docgraph.Dims{Width: 0, Height: 10, Depth: 8})
	assert.Error(t, err)
	_, err = d.CreateChannel("", docgraph.DefaultDims)
	assert.Error(t, err)
}

func TestStack_InsertsAtTop(t *testing.T) {
	d := New()
	ch, err := d.CreateChannel("c", docgraph.DefaultDims)
	require.NoError(t, err)

	_, err = ch.Stack().CreateProceduralLayer("first", docgraph.Black)
	require.NoError(t, err)
	_, err = ch.Stack().CreateGroupLayer("second")
	require.NoError(t, err)
	_, err = ch.Stack().CreateProceduralLayer("third", docgraph.White)
	require.NoError(t, err)

	assert.Equal(t, []string{"third", "second", "first"}, layerNames(ch.Stack()))
}

func TestCreateLinkLayer_Validation(t *testing.T) {
	d := New()
	a, _ := d.CreateChannel("a", docgraph.DefaultDims)
	b, _ := d.CreateChannel("b", docgraph.DefaultDims)

	_, err := a.Stack().CreateLinkLayer("self", a)
	assert.Error(t, err, "a channel cannot link itself")

	other := New()
	foreign, _ := other.CreateChannel("foreign", docgraph.DefaultDims)
	_, err = a.Stack().CreateLinkLayer("foreign", foreign)
	assert.Error(t, err, "link target must belong to the document")

	l, err := a.Stack().CreateLinkLayer("b", b)
	require.NoError(t, err)
	assert.Equal(t, docgraph.LayerLink, l.Kind())
	target, ok := l.LinkedChannel()
	require.True(t, ok)
	assert.Equal(t, b.ID(), target.ID())
}

func TestRemoveChannel_PurgesLinksShadersAndSelection(t *testing.T) {
	d := New()
	primary, _ := d.CreateChannel("mDiffuse", docgraph.DefaultDims)
	mat, _ := d.CreateChannel("Rust_Diffuse", docgraph.DefaultDims)
	group, err := primary.Stack().CreateGroupLayer("mGroup")
	require.NoError(t, err)
	gs, _ := group.GroupStack()
	link, err := gs.CreateLinkLayer("Rust_Diffuse", mat)
	require.NoError(t, err)

	sh, err := d.CreateShader("mBeauty", []string{"Diffuse"})
	require.NoError(t, err)
	require.NoError(t, sh.SetInput("Diffuse", mat))
	require.NoError(t, d.Select(docgraph.Selection{Channel: primary, Layer: link}))

	require.NoError(t, d.RemoveChannel(mat))

	assert.Empty(t, gs.Layers())
	assert.Nil(t, sh.Inputs()[0].Channel)
	sel := d.Selection()
	assert.NotNil(t, sel.Channel)
	assert.Nil(t, sel.Layer)

	// Removing again is a no-op.
	require.NoError(t, d.RemoveChannel(mat))
}

func TestSelect_LayerMustBeInsideChannel(t *testing.T) {
	d := New()
	a, _ := d.CreateChannel("a", docgraph.DefaultDims)
	b, _ := d.CreateChannel("b", docgraph.DefaultDims)
	g, _ := a.Stack().CreateGroupLayer("g")
	gs, _ := g.GroupStack()
	nested, _ := gs.CreateProceduralLayer("nested", docgraph.Black)

	require.NoError(t, d.Select(docgraph.Selection{Channel: a, Layer: nested}))
	assert.Error(t, d.Select(docgraph.Selection{Channel: b, Layer: nested}))
	assert.Error(t, d.Select(docgraph.Selection{Layer: nested}))

	require.NoError(t, d.Select(docgraph.Selection{}))
	assert.Nil(t, d.Selection().Channel)
}

func TestDuplicateChannel_IsIndependent(t *testing.T) {
	d := New()
	src, _ := d.CreateChannel("Metal_Diffuse", docgraph.DefaultDims)
	src.Tags().Set(tag.String(tag.KeyMaterial, "Metal"))
	l, _ := src.Stack().CreateProceduralLayer("Metal_baseColor", docgraph.White)

	dup, err := d.DuplicateChannel(src)
	require.NoError(t, err)
	assert.Equal(t, "Metal_Diffuse copy", dup.Name())
	assert.NotEqual(t, src.ID(), dup.ID())
	assert.Equal(t, dup.ID(), d.Selection().Channel.ID())

	dupLayer := dup.Stack().Layers()[0]
	assert.NotEqual(t, l.ID(), dupLayer.ID())

	dup.Tags().Set(tag.String(tag.KeyMaterial, "Other"))
	require.NoError(t, dupLayer.SetColor(docgraph.Black))
	assert.Equal(t, "Metal", src.Tags().StringOr(tag.KeyMaterial, ""))
	c, _ := l.Color()
	assert.Equal(t, docgraph.White, c)

	again, err := d.DuplicateChannel(src)
	require.NoError(t, err)
	assert.Equal(t, "Metal_Diffuse copy 2", again.Name())
}

func TestInjectFault(t *testing.T) {
	d := New()
	boom := errors.New("boom")
	ch, _ := d.CreateChannel("a", docgraph.DefaultDims)
	d.InjectFault(func(op Op, name string) error {
		if op == OpCreateGroup && name == "mGroup" {
			return boom
		}
		return nil
	})

	_, err := ch.Stack().CreateGroupLayer("mGroup")
	require.ErrorIs(t, err, boom)
	assert.Empty(t, ch.Stack().Layers())

	_, err = ch.Stack().CreateGroupLayer("other")
	require.NoError(t, err)

	d.InjectFault(nil)
	_, err = ch.Stack().CreateGroupLayer("mGroup")
	require.NoError(t, err)
}

func TestLayer_LockedColor(t *testing.T) {
	d := New()
	ch, _ := d.CreateChannel("a", docgraph.DefaultDims)
	l, _ := ch.Stack().CreateProceduralLayer("base", docgraph.White)
	l.SetLocked(true)

	err := l.SetColor(docgraph.Black)
	require.ErrorIs(t, err, ErrLocked)

	l.SetLocked(false)
	require.NoError(t, l.SetColor(docgraph.RGBA{R: 0.5, G: 0.5, B: 0.5, A: 1}))
	assert.Error(t, l.SetColor(docgraph.RGBA{R: 2, A: 1}))
}

func TestLayer_AttributeValidation(t *testing.T) {
	d := New()
	ch, _ := d.CreateChannel("a", docgraph.DefaultDims)
	l, _ := ch.Stack().CreateGroupLayer("g")

	assert.Equal(t, docgraph.BlendNormal, l.BlendMode())
	assert.Equal(t, 1.0, l.BlendAmount())
	assert.True(t, l.Visible())
	assert.Equal(t, 2, l.Swizzle(2))

	assert.Error(t, l.SetBlendMode("Dissolve"))
	assert.Error(t, l.SetBlendAmount(1.5))
	assert.Error(t, l.SetBlendAmount(math.NaN()))
	assert.Equal(t, 1.0, l.BlendAmount())
	assert.Error(t, l.SetLayerBelowCurve("1,1;0,0"))
	assert.Error(t, l.SetSwizzle(4, 0))
	assert.Error(t, l.SetColorTag(-1))

	require.NoError(t, l.SetSwizzle(0, 3))
	assert.Equal(t, 3, l.Swizzle(0))
	assert.Equal(t, -1, l.Swizzle(7))
}

func TestMakeMaskStack_ReplacesExisting(t *testing.T) {
	d := New()
	a, _ := d.CreateChannel("a", docgraph.DefaultDims)
	m, _ := d.CreateChannel("m", docgraph.DefaultDims)
	l, _ := a.Stack().CreateGroupLayer("g")

	_, ok := l.MaskStack()
	assert.False(t, ok)

	ms, err := l.MakeMaskStack()
	require.NoError(t, err)
	masked, err := ms.CreateLinkLayer("m", m)
	require.NoError(t, err)
	require.NoError(t, d.Select(docgraph.Selection{Channel: a, Layer: masked}))

	fresh, err := l.MakeMaskStack()
	require.NoError(t, err)
	assert.Empty(t, fresh.Layers())
	assert.Nil(t, d.Selection().Layer)
}

func TestShader_SetInput(t *testing.T) {
	d := New()
	ch, _ := d.CreateChannel("mDiffuse", docgraph.DefaultDims)
	sh, err := d.CreateShader("mBeauty", []string{"Diffuse", "Specular"})
	require.NoError(t, err)

	assert.Error(t, sh.SetInput("Normal", ch))
	require.NoError(t, sh.SetInput("Diffuse", ch))

	inputs := sh.Inputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "Diffuse", inputs[0].Name)
	assert.Equal(t, ch.ID(), inputs[0].Channel.ID())
	assert.Nil(t, inputs[1].Channel)

	require.NoError(t, sh.SetInput("Diffuse", nil))
	assert.Nil(t, sh.Inputs()[0].Channel)

	_, err = d.CreateShader("mBeauty", nil)
	assert.ErrorIs(t, err, docgraph.ErrNameInUse)
	_, err = d.CreateShader("dup", []string{"a", "a"})
	assert.Error(t, err)
}
