package docgraph

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ControlPoint is one point of a blend curve, both coordinates in [0,1].
type ControlPoint struct {
	X, Y float64
}

// ParseCurve decodes the "x,y;x,y;..." control-point form used to persist
// blend curves. X must be non-decreasing.
func ParseCurve(s string) ([]ControlPoint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty curve")
	}
	parts := strings.Split(s, ";")
	points := make([]ControlPoint, 0, len(parts))
	for i, p := range parts {
		xy := strings.Split(strings.TrimSpace(p), ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("curve point %d: want x,y got %q", i, p)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("curve point %d: %w", i, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("curve point %d: %w", i, err)
		}
		if math.IsNaN(x) || math.IsNaN(y) || x < 0 || x > 1 || y < 0 || y > 1 {
			return nil, fmt.Errorf("curve point %d out of range: %g,%g", i, x, y)
		}
		if i > 0 && x < points[i-1].X {
			return nil, fmt.Errorf("curve point %d: x decreases", i)
		}
		points = append(points, ControlPoint{X: x, Y: y})
	}
	return points, nil
}

// FormatCurve is the inverse of ParseCurve.
func FormatCurve(points []ControlPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
	}
	return strings.Join(parts, ";")
}
