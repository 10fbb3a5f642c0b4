package cli

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
)

// ParseColor reads a color given as an SVG color name ("tomato"), a hex
// triplet or quadruplet ("#ff6347", "#ff634780") or comma separated floats in
// [0,1] ("1,0.39,0.28" with an optional alpha).
func ParseColor(s string) (docgraph.RGBA, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return docgraph.RGBA{}, fmt.Errorf("empty color")
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.Contains(s, ","):
		return parseFloats(s)
	}
	named, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return docgraph.RGBA{}, fmt.Errorf("unknown color name %q", s)
	}
	return docgraph.RGBA{
		R: float64(named.R) / 255,
		G: float64(named.G) / 255,
		B: float64(named.B) / 255,
		A: float64(named.A) / 255,
	}, nil
}

func parseHex(s string) (docgraph.RGBA, error) {
	hex := s[1:]
	if len(hex) != 6 && len(hex) != 8 {
		return docgraph.RGBA{}, fmt.Errorf("hex color %q must have 6 or 8 digits", s)
	}
	comps := [4]float64{0, 0, 0, 1}
	for i := 0; i < len(hex)/2; i++ {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return docgraph.RGBA{}, fmt.Errorf("hex color %q: %w", s, err)
		}
		comps[i] = float64(v) / 255
	}
	return docgraph.RGBA{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}, nil
}

func parseFloats(s string) (docgraph.RGBA, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return docgraph.RGBA{}, fmt.Errorf("color %q must have 3 or 4 components", s)
	}
	comps := [4]float64{0, 0, 0, 1}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return docgraph.RGBA{}, fmt.Errorf("color %q: %w", s, err)
		}
		comps[i] = v
	}
	c := docgraph.RGBA{R: comps[0], G: comps[1], B: comps[2], A: comps[3]}
	if err := c.Validate(); err != nil {
		return docgraph.RGBA{}, err
	}
	return c, nil
}

// parseColorFlags turns repeated INPUT=COLOR flag values into a color map.
func parseColorFlags(values []string) (map[string]docgraph.RGBA, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]docgraph.RGBA, len(values))
	for _, v := range values {
		input, spec, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(input) == "" {
			return nil, fmt.Errorf("color %q must look like INPUT=COLOR", v)
		}
		c, err := ParseColor(spec)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", input, err)
		}
		out[strings.TrimSpace(input)] = c
	}
	return out, nil
}

func formatColor(c docgraph.RGBA) string {
	return fmt.Sprintf("%.3g,%.3g,%.3g,%.3g", c.R, c.G, c.B, c.A)
}
