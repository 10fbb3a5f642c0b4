package material

import (
	"fmt"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// SettingsRecord is the rendering configuration of a link layer, kept as tags
// on the channel the layer renders so it outlives the layer.
type SettingsRecord struct {
	AdvancedBlend      docgraph.BlendComponent
	LayerBelowCurve    string
	ThisLayerCurve     string
	BlendAmount        float64
	BlendAmountEnabled bool
	BlendMode          docgraph.BlendMode
	BlendType          docgraph.BlendType
	Visible            bool
	ColorTag           int
	Swizzle            [4]int
}

// ReadLayer reads the record of l without persisting it.
func ReadLayer(l docgraph.Layer) SettingsRecord {
	r := SettingsRecord{
		AdvancedBlend:      l.AdvancedBlendComponent(),
		LayerBelowCurve:    l.LayerBelowCurve(),
		ThisLayerCurve:     l.ThisLayerCurve(),
		BlendAmount:        l.BlendAmount(),
		BlendAmountEnabled: l.BlendAmountEnabled(),
		BlendMode:          l.BlendMode(),
		BlendType:          l.BlendType(),
		Visible:            l.Visible(),
		ColorTag:           l.ColorTag(),
	}
	for i := range r.Swizzle {
		r.Swizzle[i] = l.Swizzle(i)
	}
	return r
}

// Capture reads the settings of link layer l and stores them on the channel
// it links to, together with the availability sentinel.
func Capture(l docgraph.Layer) (SettingsRecord, error) {
	ch, ok := l.LinkedChannel()
	if !ok {
		return SettingsRecord{}, fmt.Errorf("capture settings of %q: %w", l.Name(), docgraph.ErrNotLinked)
	}
	r := ReadLayer(l)
	r.Store(ch.Tags())
	return r, nil
}

// Store writes r into bag as persistent tags.
func (r SettingsRecord) Store(bag *tag.Bag) {
	bag.Set(tag.String(tag.KeyAdvancedBlend, string(r.AdvancedBlend)))
	bag.Set(tag.Curve(tag.KeyLayerBelowCurve, r.LayerBelowCurve))
	bag.Set(tag.Curve(tag.KeyThisLayerCurve, r.ThisLayerCurve))
	bag.Set(tag.Float(tag.KeyBlendAmount, r.BlendAmount))
	bag.Set(tag.Bool(tag.KeyBlendAmountEnabled, r.BlendAmountEnabled))
	bag.Set(tag.String(tag.KeyBlendMode, string(r.BlendMode)))
	bag.Set(tag.String(tag.KeyBlendType, string(r.BlendType)))
	bag.Set(tag.Bool(tag.KeyLayerVisibility, r.Visible))
	bag.Set(tag.Float(tag.KeyColorTag, float64(r.ColorTag)))
	for i, key := range tag.SwizzleKeys {
		bag.Set(tag.Float(key, float64(r.Swizzle[i])))
	}
	bag.Set(tag.Bool(tag.KeySettingsAvailable, true))
}

// ReadSettings decodes the record stored on ch. Fields missing from the tags
// take the value a fresh layer has.
func ReadSettings(ch docgraph.Channel) (SettingsRecord, bool) {
	bag := ch.Tags()
	if !bag.BoolOr(tag.KeySettingsAvailable, false) {
		return SettingsRecord{}, false
	}
	r := SettingsRecord{
		AdvancedBlend:      docgraph.BlendComponent(bag.StringOr(tag.KeyAdvancedBlend, string(docgraph.ComponentRGBA))),
		LayerBelowCurve:    bag.StringOr(tag.KeyLayerBelowCurve, docgraph.DefaultCurve),
		ThisLayerCurve:     bag.StringOr(tag.KeyThisLayerCurve, docgraph.DefaultCurve),
		BlendAmount:        bag.FloatOr(tag.KeyBlendAmount, 1),
		BlendAmountEnabled: bag.BoolOr(tag.KeyBlendAmountEnabled, true),
		BlendMode:          docgraph.BlendMode(bag.StringOr(tag.KeyBlendMode, string(docgraph.BlendNormal))),
		BlendType:          docgraph.BlendType(bag.StringOr(tag.KeyBlendType, string(docgraph.BlendTypeBasic))),
		Visible:            bag.BoolOr(tag.KeyLayerVisibility, true),
		ColorTag:           int(bag.FloatOr(tag.KeyColorTag, 0)),
	}
	for i, key := range tag.SwizzleKeys {
		r.Swizzle[i] = int(bag.FloatOr(key, float64(i)))
	}
	return r, true
}

// Apply writes every field of r onto l in capture order.
func (r SettingsRecord) Apply(l docgraph.Layer) error {
	if err := l.SetAdvancedBlendComponent(r.AdvancedBlend); err != nil {
		return err
	}
	if err := l.SetLayerBelowCurve(r.LayerBelowCurve); err != nil {
		return err
	}
	if err := l.SetThisLayerCurve(r.ThisLayerCurve); err != nil {
		return err
	}
	if err := l.SetBlendAmount(r.BlendAmount); err != nil {
		return err
	}
	l.SetBlendAmountEnabled(r.BlendAmountEnabled)
	if err := l.SetBlendMode(r.BlendMode); err != nil {
		return err
	}
	if err := l.SetBlendType(r.BlendType); err != nil {
		return err
	}
	l.SetVisible(r.Visible)
	if err := l.SetColorTag(r.ColorTag); err != nil {
		return err
	}
	for i, src := range r.Swizzle {
		if err := l.SetSwizzle(i, src); err != nil {
			return err
		}
	}
	return nil
}

// Restore re-applies the record stored on ch onto l. It reports false and
// does nothing when ch carries no record.
func Restore(ch docgraph.Channel, l docgraph.Layer) (bool, error) {
	r, ok := ReadSettings(ch)
	if !ok {
		return false, nil
	}
	if err := r.Apply(l); err != nil {
		return true, fmt.Errorf("restore settings of %q onto %q: %w", ch.Name(), l.Name(), err)
	}
	return true, nil
}
