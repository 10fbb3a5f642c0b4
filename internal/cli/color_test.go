package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want docgraph.RGBA
	}{
		{in: "tomato", want: docgraph.RGBA{R: 1, G: 99.0 / 255, B: 71.0 / 255, A: 1}},
		{in: "  Black ", want: docgraph.Black},
		{in: "#ff0000", want: docgraph.RGBA{R: 1, A: 1}},
		{in: "#FFFFFF00", want: docgraph.RGBA{R: 1, G: 1, B: 1}},
		{in: "0.5,0.25,0", want: docgraph.RGBA{R: 0.5, G: 0.25, A: 1}},
		{in: "0, 0, 1, 0.5", want: docgraph.RGBA{B: 1, A: 0.5}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseColor(tc.in)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ParseColor(%q) mismatch (-want +got):\n%s", tc.in, diff)
			}
		})
	}
}

func TestParseColor_Errors(t *testing.T) {
	for _, in := range []string{"", "mauvish", "#12", "#gg0000", "1,2", "1,2,3,4,5", "1.5,0,0", "a,b,c", "nan,0,0", "0,NaN,0", "inf,0,0", "0,0,0,-Inf"} {
		_, err := ParseColor(in)
		assert.Error(t, err, "%q", in)
	}
}

func TestParseColorFlags(t *testing.T) {
	got, err := parseColorFlags([]string{"Diffuse=red", "Specular = 0,0,0"})
	require.NoError(t, err)
	assert.Equal(t, map[string]docgraph.RGBA{
		"Diffuse":  {R: 1, A: 1},
		"Specular": docgraph.Black,
	}, got)

	got, err = parseColorFlags(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, bad := range []string{"red", "=red", "Diffuse=nope", "Diffuse=nan,0,0", "Diffuse=0,+Inf,0"} {
		_, err := parseColorFlags([]string{bad})
		assert.Error(t, err, "%q", bad)
	}
}

func TestTerminalPicker(t *testing.T) {
	ctx := context.Background()

	t.Run("retries until a color parses", func(t *testing.T) {
		var out bytes.Buffer
		p := NewTerminalPicker(strings.NewReader("nope\n#ffffff\n"), &out)
		got, err := p.PickColor(ctx, "Rust Diffuse", docgraph.Black)
		require.NoError(t, err)
		assert.Equal(t, docgraph.White, got)
		assert.Contains(t, out.String(), "Rust Diffuse [0,0,0,1]")
		assert.Contains(t, out.String(), `unknown color name "nope"`)
	})

	t.Run("last line without newline", func(t *testing.T) {
		p := NewTerminalPicker(strings.NewReader("red"), &bytes.Buffer{})
		got, err := p.PickColor(ctx, "x", docgraph.Black)
		require.NoError(t, err)
		assert.Equal(t, docgraph.RGBA{R: 1, A: 1}, got)
	})

	for name, input := range map[string]string{
		"empty line":          "\n",
		"q":                   "Q\n",
		"end of input":        "",
		"bad answer then EOF": "nope",
	} {
		t.Run("cancel on "+name, func(t *testing.T) {
			p := NewTerminalPicker(strings.NewReader(input), &bytes.Buffer{})
			_, err := p.PickColor(ctx, "x", docgraph.Black)
			assert.ErrorIs(t, err, docgraph.ErrCancelled)
		})
	}

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		p := NewTerminalPicker(strings.NewReader("red\n"), &bytes.Buffer{})
		_, err := p.PickColor(cctx, "x", docgraph.Black)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
