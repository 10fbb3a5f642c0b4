// Package tag implements the typed key/value attribute bag attached to every
// channel and layer of a document.
//
// Tags are the only identity and settings-storage mechanism the material
// engine has: which channels belong to a material, which group holds the
// material links, and the rendering settings of a link layer that is about to
// be destroyed all live here. Values are carried as cty.Value so the same
// representation flows from the document file into the engine unchanged.
package tag

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Kind is the value type of a tag.
type Kind int

const (
	KindBool Kind = iota
	KindString
	KindFloat
	// KindCurve holds blend-curve control points. Stored as a string but kept
	// distinct so it round-trips as a curve.
	KindCurve
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindCurve:
		return "curve"
	default:
		return "unknown"
	}
}

// Persistence decides whether a tag survives a save/reload of the document.
type Persistence int

const (
	// Persistent tags are written when the document is saved.
	Persistent Persistence = iota
	// Session tags live only as long as the open document.
	Session
)

func (p Persistence) String() string {
	switch p {
	case Persistent:
		return "persistent"
	case Session:
		return "session"
	default:
		return "unknown"
	}
}

// Tag is a single key/value attribute.
type Tag struct {
	Key         string
	Kind        Kind
	Value       cty.Value
	Persistence Persistence
}

// Bool returns a persistent boolean tag.
func Bool(key string, v bool) Tag {
	return Tag{Key: key, Kind: KindBool, Value: cty.BoolVal(v)}
}

// String returns a persistent string tag.
func String(key, v string) Tag {
	return Tag{Key: key, Kind: KindString, Value: cty.StringVal(v)}
}

// Float returns a persistent number tag.
func Float(key string, v float64) Tag {
	return Tag{Key: key, Kind: KindFloat, Value: cty.NumberFloatVal(v)}
}

// Curve returns a persistent curve tag holding control points.
func Curve(key, points string) Tag {
	return Tag{Key: key, Kind: KindCurve, Value: cty.StringVal(points)}
}

// Session returns a copy of t that is not saved with the document.
func (t Tag) Session() Tag {
	t.Persistence = Session
	return t
}

// FromValue builds a tag from a cty value, inferring its kind. Strings are
// treated as plain strings unless curve is set.
func FromValue(key string, v cty.Value, curve bool) (Tag, error) {
	if v.IsNull() || !v.IsKnown() {
		return Tag{}, fmt.Errorf("tag %q: value must be known and non-null", key)
	}
	switch v.Type() {
	case cty.Bool:
		if curve {
			return Tag{}, fmt.Errorf("tag %q: curve value must be a string", key)
		}
		return Tag{Key: key, Kind: KindBool, Value: v}, nil
	case cty.Number:
		if curve {
			return Tag{}, fmt.Errorf("tag %q: curve value must be a string", key)
		}
		return Tag{Key: key, Kind: KindFloat, Value: v}, nil
	case cty.String:
		if curve {
			return Tag{Key: key, Kind: KindCurve, Value: v}, nil
		}
		return Tag{Key: key, Kind: KindString, Value: v}, nil
	default:
		return Tag{}, fmt.Errorf("tag %q: unsupported value type %s", key, v.Type().FriendlyName())
	}
}

// Equal reports whether two tags carry the same key, kind, value and persistence.
func (t Tag) Equal(o Tag) bool {
	if t.Key != o.Key || t.Kind != o.Kind || t.Persistence != o.Persistence {
		return false
	}
	return t.Value.RawEquals(o.Value)
}

// GoString renders the value for logs and CLI output.
func (t Tag) GoString() string {
	switch t.Kind {
	case KindBool:
		return fmt.Sprintf("%t", t.Value.True())
	case KindFloat:
		f, _ := t.Value.AsBigFloat().Float64()
		return fmt.Sprintf("%g", f)
	default:
		return fmt.Sprintf("%q", t.Value.AsString())
	}
}
