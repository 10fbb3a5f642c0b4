package material

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/memdoc"
	"github.com/specialistvlad/materialmgr/internal/notify"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

func TestSelectedMaterial(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")
	primary := f.channel(t, "mDiffuse")

	assert.Equal(t, NoSelection, SelectedMaterial(f.doc))

	require.NoError(t, f.doc.Select(docgraph.Selection{Channel: primary, Layer: f.link(t, "Diffuse", "Wood")}))
	assert.Equal(t, Selected("Wood"), SelectedMaterial(f.doc))

	require.NoError(t, f.doc.Select(docgraph.Selection{Channel: f.channel(t, "Rust_Specular")}))
	assert.Equal(t, Selected("Rust"), SelectedMaterial(f.doc))

	base, _ := primary.Stack().FindLayer(PrimaryBaseName)
	require.NoError(t, f.doc.Select(docgraph.Selection{Channel: primary, Layer: base}))
	assert.Equal(t, NoSelection, SelectedMaterial(f.doc))
}

func TestRename(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Wood", "Rust", "Metal")
	_, err := f.eng.CreateElement(f.ctx, f.doc, "Rust", "Scratches", nil)
	require.NoError(t, err)
	require.NoError(t, f.link(t, "Diffuse", "Rust").SetBlendMode(docgraph.BlendMultiply))
	f.events.Events = nil

	out, err := f.eng.Rename(f.ctx, f.doc, Selected("Rust"), "Oxide")
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.Equal(t, ids("Wood", "Oxide", "Metal"), f.order(), "position is kept")
	assert.False(t, MaterialExists(f.doc, "Rust"))
	for _, n := range []string{"Rust_Diffuse", "Rust_Specular", "Rust_Mask", "Rust_Scratches"} {
		_, ok := f.doc.Channel(n)
		assert.False(t, ok, n)
	}

	mask := f.channel(t, "Oxide_Mask")
	scratches := f.channel(t, "Oxide_Scratches")
	assert.True(t, scratches.Tags().Is(tag.KeyMaterial, "Oxide"))
	assert.True(t, scratches.Tags().Is(tag.KeyElement, "Scratches"))
	_, ok := scratches.Stack().FindLayer("Oxide_Scratches_baseColor")
	assert.True(t, ok)
	_, ok = mask.Stack().FindLayer("Oxide_baseColor")
	assert.True(t, ok)

	for _, input := range []string{"Diffuse", "Specular"} {
		ch := f.channel(t, "Oxide_"+input)
		assert.True(t, ch.Tags().Is(tag.KeyMaterial, "Oxide"))
		base, ok := BaseColorLayer(ch)
		require.True(t, ok)
		assert.Equal(t, "Oxide_baseColor", base.Name())

		link := f.link(t, input, "Oxide")
		assert.Equal(t, "Oxide_"+input, link.Name())
		ml, ok := findMaskLink(link, mask)
		require.True(t, ok)
		assert.Equal(t, "Oxide_Mask", ml.Name())

		g, ok := ElementGroup(ch, "Scratches")
		require.True(t, ok)
		assert.Equal(t, "Oxide_Scratches", g.Name())
		el, ok := findMaskLink(g, scratches)
		require.True(t, ok)
		assert.Equal(t, "Oxide_Scratches", el.Name())
		eb, ok := ElementBaseColorLayer(ch, "Scratches")
		require.True(t, ok)
		assert.Equal(t, "Oxide_Scratches_baseColor", eb.Name())
	}
	assert.Equal(t, docgraph.BlendMultiply, f.link(t, "Diffuse", "Oxide").BlendMode(), "links are renamed in place")

	require.Len(t, f.events.Events, 1)
	assert.Equal(t, notify.MaterialRenamed, f.events.Events[0].Kind)
	assert.Equal(t, "Rust", f.events.Events[0].From)

	// The renamed material reconciles like any other.
	_, err = f.eng.Reconcile(f.ctx, f.doc, ids("Oxide", "Wood", "Metal"))
	require.NoError(t, err)
	assert.Equal(t, ids("Oxide", "Wood", "Metal"), groupIDs(t, f, "Specular"))
}

func TestRename_Skips(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust")

	out, err := f.eng.Rename(f.ctx, f.doc, NoSelection, "Oxide")
	require.NoError(t, err)
	assert.Equal(t, ReasonNoSelection, out.Reason)

	out, err = f.eng.Rename(f.ctx, f.doc, Selected("Rust"), "Rust")
	require.NoError(t, err)
	assert.Equal(t, ReasonUnchanged, out.Reason)
	assert.True(t, MaterialExists(f.doc, "Rust"))
}

func TestRename_Rejections(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")
	_, err := f.doc.CreateChannel("Oxide_Specular", testDims)
	require.NoError(t, err)

	tests := []struct {
		name string
		from MaterialID
		to   string
		want error
	}{
		{name: "existing material", from: "Rust", to: "Wood", want: ErrNameCollision},
		{name: "stray channel", from: "Rust", to: "Oxide", want: ErrNameCollision},
		{name: "unknown material", from: "Nope", to: "Iron", want: ErrNotFound},
		{name: "empty name", from: "Rust", to: "", want: ErrInvalidName},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.eng.Rename(f.ctx, f.doc, Selected(tc.from), tc.to)
			assert.ErrorIs(t, err, tc.want)
			_, ok := f.doc.Channel("Rust_Diffuse")
			assert.True(t, ok, "nothing renamed")
		})
	}
}

func TestRename_MissingLinkLeavesDocumentUntouched(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust")
	require.NoError(t, f.group(t, "Specular").RemoveLayers(f.link(t, "Specular", "Rust")))

	_, err := f.eng.Rename(f.ctx, f.doc, Selected("Rust"), "Oxide")
	assert.ErrorIs(t, err, ErrStructural)

	assert.Equal(t, "Rust_Diffuse", f.link(t, "Diffuse", "Rust").Name())
	_, ok := f.doc.Channel("Rust_Diffuse")
	assert.True(t, ok)
	assert.False(t, MaterialExists(f.doc, "Oxide"))
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")
	_, err := f.eng.CreateElement(f.ctx, f.doc, "Rust", "Scratches", nil)
	require.NoError(t, err)
	src := f.link(t, "Diffuse", "Rust")
	require.NoError(t, src.SetBlendMode(docgraph.BlendMultiply))
	require.NoError(t, src.SetBlendAmount(0.5))
	f.events.Events = nil

	out, err := f.eng.Duplicate(f.ctx, f.doc, Selected("Rust"), "Oxide")
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.Equal(t, ids("Oxide", "Rust", "Wood"), f.order(), "the copy lands on top")
	assert.Equal(t, ids("Oxide", "Rust", "Wood"), groupIDs(t, f, "Specular"))
	assert.Len(t, ListInputs(f.doc, "Oxide"), 3)
	assert.Len(t, ListElements(f.doc, "Oxide"), 1)

	copyLink := f.link(t, "Diffuse", "Oxide")
	assert.Equal(t, "Oxide_Diffuse", copyLink.Name())
	assert.Equal(t, docgraph.BlendMultiply, copyLink.BlendMode())
	assert.Equal(t, 0.5, copyLink.BlendAmount())

	mask := f.channel(t, "Oxide_Mask")
	_, ok := findMaskLink(copyLink, mask)
	assert.True(t, ok, "the copy is masked by its own mask")
	_, ok = findMaskLink(copyLink, f.channel(t, "Rust_Mask"))
	assert.False(t, ok)

	scratches := f.channel(t, "Oxide_Scratches")
	assert.True(t, scratches.Tags().Is(tag.KeyMaterial, "Oxide"))
	_, ok = scratches.Stack().FindLayer("Oxide_Scratches_baseColor")
	assert.True(t, ok)
	ch := f.channel(t, "Oxide_Diffuse")
	base, ok := BaseColorLayer(ch)
	require.True(t, ok)
	assert.Equal(t, "Oxide_baseColor", base.Name())
	g, ok := ElementGroup(ch, "Scratches")
	require.True(t, ok)
	assert.Equal(t, "Oxide_Scratches", g.Name())
	_, ok = findMaskLink(g, scratches)
	assert.True(t, ok, "the element group follows the copied element mask")

	// Editing the copy leaves the source alone.
	blue := docgraph.RGBA{B: 1, A: 1}
	require.NoError(t, f.eng.SetBaseColor(f.ctx, f.doc, "Oxide", "Diffuse", blue))
	srcBase, _ := BaseColorLayer(f.channel(t, "Rust_Diffuse"))
	c, _ := srcBase.Color()
	assert.Equal(t, docgraph.White, c)

	assert.Equal(t, []notify.Kind{notify.MaterialDuplicated, notify.BaseColorChanged}, f.events.Kinds())
	assert.Equal(t, "Rust", f.events.Events[0].From)
}

func TestDuplicate_RestoresSelection(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust")
	primary := f.channel(t, "mSpecular")
	require.NoError(t, f.doc.Select(docgraph.Selection{Channel: primary}))

	_, err := f.eng.Duplicate(f.ctx, f.doc, Selected("Rust"), "Oxide")
	require.NoError(t, err)
	assert.Equal(t, primary.ID(), f.doc.Selection().Channel.ID())
}

type plainDocument struct {
	docgraph.Document
}

func TestDuplicate_Rejections(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")

	_, err := f.eng.Duplicate(f.ctx, plainDocument{f.doc}, Selected("Rust"), "Oxide")
	assert.ErrorIs(t, err, ErrCapabilityMissing)

	_, err = f.eng.Duplicate(f.ctx, f.doc, Selected("Rust"), "Wood")
	assert.ErrorIs(t, err, ErrNameCollision)
	_, err = f.eng.Duplicate(f.ctx, f.doc, Selected("Nope"), "Oxide")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.Duplicate(f.ctx, f.doc, Selected("Rust"), " ")
	assert.ErrorIs(t, err, ErrInvalidName)

	out, err := f.eng.Duplicate(f.ctx, f.doc, NoSelection, "Oxide")
	require.NoError(t, err)
	assert.Equal(t, ReasonNoSelection, out.Reason)
	assert.False(t, MaterialExists(f.doc, "Oxide"))
}

func TestDuplicate_HostFailure(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust")
	boom := errors.New("disk full")
	f.doc.InjectFault(failOnce(memdoc.OpDuplicate, "Rust_Diffuse", boom))

	_, err := f.eng.Duplicate(f.ctx, f.doc, Selected("Rust"), "Oxide")
	assert.ErrorIs(t, err, boom)
}

func TestRemove_MetadataOnly(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")
	_, err := f.eng.CreateElement(f.ctx, f.doc, "Rust", "Scratches", nil)
	require.NoError(t, err)
	count := len(f.doc.Channels())

	out, err := f.eng.Remove(f.ctx, f.doc, Selected("Rust"), true)
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.Len(t, f.doc.Channels(), count, "channels are kept")
	assert.Equal(t, []Summary{{ID: "Wood", Visible: true}}, ListMaterials(f.doc))
	assert.Equal(t, ids("Wood"), f.order())
	for _, n := range []string{"Rust_Diffuse", "Rust_Mask", "Rust_Scratches"} {
		bag := f.channel(t, n).Tags()
		for _, k := range tag.IdentityKeys {
			assert.False(t, bag.Has(k), "%s keeps %s", n, k)
		}
	}
	// The untagged links stay in the group.
	assert.Len(t, f.group(t, "Diffuse").Layers(), 2)

	// A reconcile of the remaining materials drops the orphaned link.
	_, err = f.eng.Reconcile(f.ctx, f.doc, ids("Wood"))
	require.NoError(t, err)
	assert.Len(t, f.group(t, "Diffuse").Layers(), 1)
}

func TestRemove(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")
	_, err := f.eng.CreateElement(f.ctx, f.doc, "Rust", "Scratches", nil)
	require.NoError(t, err)
	f.events.Events = nil

	out, err := f.eng.Remove(f.ctx, f.doc, Selected("Rust"), false)
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.False(t, MaterialExists(f.doc, "Rust"))
	assert.Equal(t, ids("Wood"), f.order())
	assert.Equal(t, ids("Wood"), groupIDs(t, f, "Specular"))
	for _, n := range []string{"Rust_Diffuse", "Rust_Specular", "Rust_Mask", "Rust_Scratches"} {
		_, ok := f.doc.Channel(n)
		assert.False(t, ok, n)
	}
	assert.Equal(t, []notify.Kind{notify.MaterialRemoved}, f.events.Kinds())

	_, err = f.eng.Remove(f.ctx, f.doc, Selected("Rust"), false)
	assert.ErrorIs(t, err, ErrNotFound)
	out, err = f.eng.Remove(f.ctx, f.doc, NoSelection, false)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
}

func TestRemoveElement(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust")
	_, err := f.eng.CreateElement(f.ctx, f.doc, "Rust", "Scratches", nil)
	require.NoError(t, err)
	_, err = f.eng.CreateElement(f.ctx, f.doc, "Rust", "Edges", nil)
	require.NoError(t, err)

	out, err := f.eng.RemoveElement(f.ctx, f.doc, Selected("Rust"), "Scratches")
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	_, ok := f.doc.Channel("Rust_Scratches")
	assert.False(t, ok)
	for _, input := range []string{"Diffuse", "Specular"} {
		ch := f.channel(t, "Rust_"+input)
		_, ok := ElementGroup(ch, "Scratches")
		assert.False(t, ok)
		_, ok = ElementGroup(ch, "Edges")
		assert.True(t, ok)
	}
	assert.Len(t, ListElements(f.doc, "Rust"), 1)

	_, err = f.eng.RemoveElement(f.ctx, f.doc, Selected("Rust"), "Scratches")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.eng.RemoveElement(f.ctx, f.doc, Selected("Nope"), "Edges")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVisibility(t *testing.T) {
	f := newFixture(t, AllOrNothing)
	f.create(t, "Rust", "Wood")

	out, err := f.eng.ToggleVisibility(f.ctx, f.doc, Selected("Rust"))
	require.NoError(t, err)
	assert.Equal(t, Done, out)

	assert.Equal(t, []OrderEntry{{ID: "Rust", Visible: false}, {ID: "Wood", Visible: true}}, CurrentOrder(f.doc))
	assert.False(t, f.link(t, "Specular", "Rust").Visible())
	assert.False(t, f.channel(t, "Rust_Mask").Tags().BoolOr(tag.KeyMaterialVisibility, true))
	assert.Equal(t, []Summary{{ID: "Rust", Visible: false}, {ID: "Wood", Visible: true}}, ListMaterials(f.doc))

	// Hidden survives a reconcile.
	_, err = f.eng.Reconcile(f.ctx, f.doc, ids("Wood", "Rust"))
	require.NoError(t, err)
	assert.False(t, f.link(t, "Diffuse", "Rust").Visible())

	_, err = f.eng.ToggleVisibility(f.ctx, f.doc, Selected("Rust"))
	require.NoError(t, err)
	assert.True(t, f.link(t, "Diffuse", "Rust").Visible())
	assert.True(t, Scan(f.doc).Visible("Rust"))

	out, err = f.eng.ToggleVisibility(f.ctx, f.doc, NoSelection)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.ErrorIs(t, f.eng.SetVisibility(f.ctx, f.doc, "Nope", false), ErrNotFound)
}
