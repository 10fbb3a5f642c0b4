package hcldoc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// Save writes doc to path, replacing the file atomically.
func Save(ctx context.Context, doc docgraph.Document, path string) error {
	logger := ctxlog.FromContext(ctx)

	tmp, err := os.CreateTemp(filepath.Dir(path), ".materialmgr-*.hcl")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(doc, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	logger.Debug("Document saved.", "path", path)
	return nil
}

// Write encodes doc in the document file format.
func Write(doc docgraph.Document, w io.Writer) error {
	_, err := w.Write(Encode(doc))
	return err
}

// Encode renders doc as HCL source. Session tags are omitted.
func Encode(doc docgraph.Document) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	for _, sh := range doc.Shaders() {
		block := root.AppendNewBlock("shader", []string{sh.Name()})
		body := block.Body()
		inputs := sh.Inputs()
		names := make([]cty.Value, 0, len(inputs))
		for _, in := range inputs {
			names = append(names, cty.StringVal(in.Name))
		}
		if len(names) == 0 {
			body.SetAttributeValue("inputs", cty.ListValEmpty(cty.String))
		} else {
			body.SetAttributeValue("inputs", cty.ListVal(names))
		}
		for _, in := range inputs {
			if in.Channel == nil {
				continue
			}
			bind := body.AppendNewBlock("bind", []string{in.Name})
			bind.Body().SetAttributeValue("channel", cty.StringVal(in.Channel.Name()))
		}
		encodeTags(body, sh.Tags())
		root.AppendNewline()
	}

	for _, ch := range doc.Channels() {
		block := root.AppendNewBlock("channel", []string{ch.Name()})
		body := block.Body()
		dims := ch.Dims()
		body.SetAttributeValue("width", cty.NumberIntVal(int64(dims.Width)))
		body.SetAttributeValue("height", cty.NumberIntVal(int64(dims.Height)))
		body.SetAttributeValue("depth", cty.NumberIntVal(int64(dims.Depth)))
		encodeTags(body, ch.Tags())
		encodeLayers(body, ch.Stack())
		root.AppendNewline()
	}

	sel := doc.Selection()
	if sel.Channel != nil {
		body := root.AppendNewBlock("selection", nil).Body()
		body.SetAttributeValue("channel", cty.StringVal(sel.Channel.Name()))
		if sel.Layer != nil {
			body.SetAttributeValue("layer", cty.StringVal(sel.Layer.Name()))
		}
	}
	return f.Bytes()
}

func encodeTags(body *hclwrite.Body, bag *tag.Bag) {
	for _, t := range bag.All() {
		if t.Persistence == tag.Session {
			continue
		}
		tb := body.AppendNewBlock("tag", []string{t.Key}).Body()
		if t.Kind == tag.KindCurve {
			tb.SetAttributeValue("curve", t.Value)
		} else {
			tb.SetAttributeValue("value", t.Value)
		}
	}
}

func encodeLayers(body *hclwrite.Body, stack docgraph.Stack) {
	for _, l := range stack.Layers() {
		lb := body.AppendNewBlock("layer", []string{l.Name()}).Body()
		lb.SetAttributeValue("kind", cty.StringVal(l.Kind().String()))
		if target, ok := l.LinkedChannel(); ok {
			lb.SetAttributeValue("target", cty.StringVal(target.Name()))
		}
		if c, ok := l.Color(); ok {
			lb.SetAttributeValue("color", floats(c.Slice()))
		}
		if l.Locked() {
			lb.SetAttributeValue("locked", cty.True)
		}
		encodeAttributes(lb, l)
		encodeTags(lb, l.Tags())
		if gs, ok := l.GroupStack(); ok {
			encodeLayers(lb, gs)
		}
		if ms, ok := l.MaskStack(); ok {
			mb := lb.AppendNewBlock("mask", nil).Body()
			encodeLayers(mb, ms)
		}
	}
}

// encodeAttributes writes the rendering attributes that differ from a fresh layer.
func encodeAttributes(body *hclwrite.Body, l docgraph.Layer) {
	if m := l.BlendMode(); m != docgraph.BlendNormal {
		body.SetAttributeValue("blend_mode", cty.StringVal(string(m)))
	}
	if t := l.BlendType(); t != docgraph.BlendTypeBasic {
		body.SetAttributeValue("blend_type", cty.StringVal(string(t)))
	}
	if a := l.BlendAmount(); a != 1 {
		body.SetAttributeValue("blend_amount", cty.NumberFloatVal(a))
	}
	if !l.BlendAmountEnabled() {
		body.SetAttributeValue("blend_amount_enabled", cty.False)
	}
	if c := l.AdvancedBlendComponent(); c != docgraph.ComponentRGBA {
		body.SetAttributeValue("advanced_blend", cty.StringVal(string(c)))
	}
	if c := l.LayerBelowCurve(); c != docgraph.DefaultCurve {
		body.SetAttributeValue("layer_below_curve", cty.StringVal(c))
	}
	if c := l.ThisLayerCurve(); c != docgraph.DefaultCurve {
		body.SetAttributeValue("this_layer_curve", cty.StringVal(c))
	}
	if !l.Visible() {
		body.SetAttributeValue("visible", cty.False)
	}
	if t := l.ColorTag(); t != 0 {
		body.SetAttributeValue("color_tag", cty.NumberIntVal(int64(t)))
	}
	swizzle := make([]cty.Value, 4)
	identity := true
	for i := range 4 {
		src := l.Swizzle(i)
		identity = identity && src == i
		swizzle[i] = cty.NumberIntVal(int64(src))
	}
	if !identity {
		body.SetAttributeValue("swizzle", cty.ListVal(swizzle))
	}
}

func floats(v []float64) cty.Value {
	out := make([]cty.Value, len(v))
	for i, f := range v {
		out[i] = cty.NumberFloatVal(f)
	}
	return cty.ListVal(out)
}
