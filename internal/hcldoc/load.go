package hcldoc

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/memdoc"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// Load reads the document file at path. A missing file is an error; use
// memdoc.New for a fresh document.
func Load(ctx context.Context, path string) (*memdoc.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return Parse(ctx, src, path)
}

// Parse decodes a document from src. filename is used in diagnostics only.
func Parse(ctx context.Context, src []byte, filename string) (*memdoc.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing document.", "file", filename, "bytes", len(src))

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse document %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode document %s: %w", filename, diags)
	}

	doc := memdoc.New()
	b := &builder{doc: doc}

	// Channels first so link layers and shader bindings can resolve targets
	// regardless of declaration order.
	for _, cb := range root.Channels {
		if err := b.channel(cb); err != nil {
			return nil, err
		}
	}
	for _, sb := range root.Shaders {
		if err := b.shader(sb); err != nil {
			return nil, err
		}
	}
	for _, cb := range root.Channels {
		ch, _ := doc.Channel(cb.Name)
		if err := b.layers(ch.Stack(), cb.Layers); err != nil {
			return nil, err
		}
	}
	if root.Selection != nil {
		if err := b.selection(root.Selection); err != nil {
			return nil, err
		}
	}

	logger.Debug("Document loaded.", "channels", len(root.Channels), "shaders", len(root.Shaders))
	return doc, nil
}

type builder struct {
	doc *memdoc.Document
}

func errAt(rng hcl.Range, format string, args ...any) error {
	return fmt.Errorf("%s: %s", rng.String(), fmt.Sprintf(format, args...))
}

func (b *builder) channel(cb *channelBlock) error {
	dims := docgraph.DefaultDims
	if cb.Width != nil {
		dims.Width = *cb.Width
	}
	if cb.Height != nil {
		dims.Height = *cb.Height
	}
	if cb.Depth != nil {
		dims.Depth = *cb.Depth
	}
	ch, err := b.doc.CreateChannel(cb.Name, dims)
	if err != nil {
		return errAt(cb.DefRange, "%v", err)
	}
	return decodeTags(ch.Tags(), cb.Tags)
}

func (b *builder) shader(sb *shaderBlock) error {
	sh, err := b.doc.CreateShader(sb.Name, sb.Inputs)
	if err != nil {
		return errAt(sb.DefRange, "%v", err)
	}
	for _, bind := range sb.Bindings {
		ch, ok := b.doc.Channel(bind.Channel)
		if !ok {
			return errAt(bind.DefRange, "shader %q binds unknown channel %q", sb.Name, bind.Channel)
		}
		if err := sh.SetInput(bind.Input, ch); err != nil {
			return errAt(bind.DefRange, "%v", err)
		}
	}
	return decodeTags(sh.Tags(), sb.Tags)
}

// layers creates blocks into stack. Blocks are listed top first and every
// create call inserts at the top, so they are created bottom up.
func (b *builder) layers(stack docgraph.Stack, blocks []*layerBlock) error {
	for _, lb := range slices.Backward(blocks) {
		if err := b.layer(stack, lb); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) layer(stack docgraph.Stack, lb *layerBlock) error {
	kind, err := docgraph.ParseLayerKind(lb.Kind)
	if err != nil {
		return errAt(lb.DefRange, "layer %q: %v", lb.Name, err)
	}

	var l docgraph.Layer
	switch kind {
	case docgraph.LayerProcedural:
		color := docgraph.Black
		if lb.Color != nil {
			if color, err = rgbaFromSlice(lb.Color); err != nil {
				return errAt(lb.DefRange, "layer %q: %v", lb.Name, err)
			}
		}
		l, err = stack.CreateProceduralLayer(lb.Name, color)
	case docgraph.LayerGroup:
		l, err = stack.CreateGroupLayer(lb.Name)
	case docgraph.LayerLink:
		if lb.Target == nil {
			return errAt(lb.DefRange, "link layer %q has no target", lb.Name)
		}
		target, ok := b.doc.Channel(*lb.Target)
		if !ok {
			return errAt(lb.DefRange, "link layer %q targets unknown channel %q", lb.Name, *lb.Target)
		}
		l, err = stack.CreateLinkLayer(lb.Name, target)
	}
	if err != nil {
		return errAt(lb.DefRange, "%v", err)
	}

	if err := applyAttributes(l, lb); err != nil {
		return errAt(lb.DefRange, "%v", err)
	}
	if err := decodeTags(l.Tags(), lb.Tags); err != nil {
		return err
	}

	if len(lb.Layers) > 0 {
		gs, ok := l.GroupStack()
		if !ok {
			return errAt(lb.DefRange, "layer %q: only group layers may nest layers", lb.Name)
		}
		if err := b.layers(gs, lb.Layers); err != nil {
			return err
		}
	}
	if lb.Mask != nil {
		ms, err := l.MakeMaskStack()
		if err != nil {
			return errAt(lb.DefRange, "%v", err)
		}
		if err := b.layers(ms, lb.Mask.Layers); err != nil {
			return err
		}
	}
	return nil
}

func applyAttributes(l docgraph.Layer, lb *layerBlock) error {
	if lb.BlendMode != nil {
		if err := l.SetBlendMode(docgraph.BlendMode(*lb.BlendMode)); err != nil {
			return err
		}
	}
	if lb.BlendType != nil {
		if err := l.SetBlendType(docgraph.BlendType(*lb.BlendType)); err != nil {
			return err
		}
	}
	if lb.BlendAmount != nil {
		if err := l.SetBlendAmount(*lb.BlendAmount); err != nil {
			return err
		}
	}
	if lb.BlendAmountEnabled != nil {
		l.SetBlendAmountEnabled(*lb.BlendAmountEnabled)
	}
	if lb.AdvancedBlend != nil {
		if err := l.SetAdvancedBlendComponent(docgraph.BlendComponent(*lb.AdvancedBlend)); err != nil {
			return err
		}
	}
	if lb.LayerBelowCurve != nil {
		if err := l.SetLayerBelowCurve(*lb.LayerBelowCurve); err != nil {
			return err
		}
	}
	if lb.ThisLayerCurve != nil {
		if err := l.SetThisLayerCurve(*lb.ThisLayerCurve); err != nil {
			return err
		}
	}
	if lb.Visible != nil {
		l.SetVisible(*lb.Visible)
	}
	if lb.ColorTag != nil {
		if err := l.SetColorTag(*lb.ColorTag); err != nil {
			return err
		}
	}
	if lb.Swizzle != nil {
		if len(lb.Swizzle) != 4 {
			return fmt.Errorf("layer %q: swizzle needs 4 entries, got %d", lb.Name, len(lb.Swizzle))
		}
		for i, src := range lb.Swizzle {
			if err := l.SetSwizzle(i, src); err != nil {
				return err
			}
		}
	}
	l.SetLocked(lb.Locked)
	return nil
}

func decodeTags(bag *tag.Bag, blocks []*tagBlock) error {
	for _, tb := range blocks {
		value, curve := tb.Value, false
		if tb.Curve != nil {
			if !value.IsNull() {
				return errAt(tb.DefRange, "tag %q sets both value and curve", tb.Key)
			}
			value, curve = cty.StringVal(*tb.Curve), true
		}
		if value.IsNull() {
			return errAt(tb.DefRange, "tag %q needs a value or a curve", tb.Key)
		}
		t, err := tag.FromValue(tb.Key, value, curve)
		if err != nil {
			return errAt(tb.DefRange, "%v", err)
		}
		if tb.Session {
			t = t.Session()
		}
		bag.Set(t)
	}
	return nil
}

func (b *builder) selection(sb *selectionBlock) error {
	ch, ok := b.doc.Channel(sb.Channel)
	if !ok {
		return fmt.Errorf("selection: unknown channel %q", sb.Channel)
	}
	sel := docgraph.Selection{Channel: ch}
	if sb.Layer != nil {
		l, ok := findLayer(ch.Stack(), *sb.Layer)
		if !ok {
			return fmt.Errorf("selection: channel %q has no layer %q", sb.Channel, *sb.Layer)
		}
		sel.Layer = l
	}
	return b.doc.Select(sel)
}

// findLayer searches stack depth first, including group and mask stacks.
func findLayer(stack docgraph.Stack, name string) (docgraph.Layer, bool) {
	for _, l := range stack.Layers() {
		if l.Name() == name {
			return l, true
		}
		if gs, ok := l.GroupStack(); ok {
			if found, ok := findLayer(gs, name); ok {
				return found, true
			}
		}
		if ms, ok := l.MaskStack(); ok {
			if found, ok := findLayer(ms, name); ok {
				return found, true
			}
		}
	}
	return nil, false
}

func rgbaFromSlice(v []float64) (docgraph.RGBA, error) {
	var c docgraph.RGBA
	switch len(v) {
	case 3:
		c = docgraph.RGBA{R: v[0], G: v[1], B: v[2], A: 1}
	case 4:
		c = docgraph.RGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
	default:
		return c, fmt.Errorf("color needs 3 or 4 components, got %d", len(v))
	}
	return c, c.Validate()
}
