package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestBag_SetGetPreservesInsertionOrder(t *testing.T) {
	b := NewBag(
		String(KeyMaterial, "Rust"),
		String(KeyMaterialType, "DiffuseColor"),
		Bool(KeyMaterialVisibility, true),
	)

	// Overwriting an existing key keeps its slot.
	b.Set(String(KeyMaterial, "Oxide"))

	assert.Equal(t, []string{KeyMaterial, KeyMaterialType, KeyMaterialVisibility}, b.Keys())
	v, ok := b.LookupString(KeyMaterial)
	require.True(t, ok)
	assert.Equal(t, "Oxide", v)
}

func TestBag_AbsentKeyIsNotAnError(t *testing.T) {
	var b Bag

	_, ok := b.Get("nope")
	assert.False(t, ok)
	assert.False(t, b.Has("nope"))
	assert.True(t, b.BoolOr("nope", true))
	assert.Equal(t, "fallback", b.StringOr("nope", "fallback"))
	assert.Equal(t, 0.25, b.FloatOr("nope", 0.25))
}

func TestBag_TypedReadMismatchReadsAsAbsent(t *testing.T) {
	b := NewBag(String(KeyMaterialVisibility, "True"))

	_, ok := b.LookupBool(KeyMaterialVisibility)
	assert.False(t, ok)
	assert.True(t, b.BoolOr(KeyMaterialVisibility, true))
}

func TestBag_RemoveIsIdempotent(t *testing.T) {
	b := NewBag(String(KeyMaterial, "Wood"), Bool(KeyMask, true), String(KeyElement, "Grain"))

	b.Remove(IdentityKeys...)
	b.Remove(IdentityKeys...)

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Keys())
}

func TestBag_CloneIsIndependent(t *testing.T) {
	b := NewBag(Float(KeyBlendAmount, 0.5))
	c := b.Clone()

	c.Set(Float(KeyBlendAmount, 1))
	c.Set(Curve(KeyLayerBelowCurve, "0,0;1,1"))

	assert.Equal(t, 0.5, b.FloatOr(KeyBlendAmount, -1))
	assert.False(t, b.Has(KeyLayerBelowCurve))
	assert.Equal(t, 2, c.Len())
}

func TestFromValue(t *testing.T) {
	tests := []struct {
		name     string
		value    cty.Value
		curve    bool
		wantKind Kind
		wantErr  bool
	}{
		{name: "bool", value: cty.True, wantKind: KindBool},
		{name: "number", value: cty.NumberFloatVal(0.5), wantKind: KindFloat},
		{name: "string", value: cty.StringVal("Rust"), wantKind: KindString},
		{name: "curve", value: cty.StringVal("0,0;1,1"), curve: true, wantKind: KindCurve},
		{name: "curve must be string", value: cty.True, curve: true, wantErr: true},
		{name: "null", value: cty.NullVal(cty.String), wantErr: true},
		{name: "list unsupported", value: cty.ListVal([]cty.Value{cty.True}), wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromValue("k", tc.value, tc.curve)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantKind, got.Kind)
			assert.Equal(t, Persistent, got.Persistence)
		})
	}
}

func TestTag_SessionAndEqual(t *testing.T) {
	a := Bool(KeyBaseColor, true)
	b := a.Session()

	assert.Equal(t, Session, b.Persistence)
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(Bool(KeyBaseColor, true)))
	assert.Equal(t, "true", a.GoString())
	assert.Equal(t, `"0,0;1,1"`, Curve("c", "0,0;1,1").GoString())
}
