package tag

import (
	"github.com/zclconf/go-cty/cty"
)

// Bag is the ordered tag collection of one node. The zero value is ready to use.
// A missing key reads as "not present", never as an error.
type Bag struct {
	keys []string
	tags map[string]Tag
}

// NewBag returns a bag holding the given tags in order.
func NewBag(tags ...Tag) *Bag {
	b := &Bag{}
	for _, t := range tags {
		b.Set(t)
	}
	return b
}

// Set stores t, replacing any tag with the same key in place.
func (b *Bag) Set(t Tag) {
	if b.tags == nil {
		b.tags = make(map[string]Tag)
	}
	if _, ok := b.tags[t.Key]; !ok {
		b.keys = append(b.keys, t.Key)
	}
	b.tags[t.Key] = t
}

// Get returns the tag stored under key.
func (b *Bag) Get(key string) (Tag, bool) {
	t, ok := b.tags[key]
	return t, ok
}

// Has reports whether key is present.
func (b *Bag) Has(key string) bool {
	_, ok := b.tags[key]
	return ok
}

// Remove deletes the given keys. Absent keys are ignored.
func (b *Bag) Remove(keys ...string) {
	for _, key := range keys {
		if _, ok := b.tags[key]; !ok {
			continue
		}
		delete(b.tags, key)
		for i, k := range b.keys {
			if k == key {
				b.keys = append(b.keys[:i], b.keys[i+1:]...)
				break
			}
		}
	}
}

// Keys returns the keys in insertion order.
func (b *Bag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// All returns every tag in insertion order.
func (b *Bag) All() []Tag {
	out := make([]Tag, 0, len(b.keys))
	for _, k := range b.keys {
		out = append(out, b.tags[k])
	}
	return out
}

// Len returns the number of tags.
func (b *Bag) Len() int {
	return len(b.keys)
}

// Clone returns an independent copy. cty values are immutable, so a shallow
// copy of each Tag is enough.
func (b *Bag) Clone() *Bag {
	out := &Bag{}
	for _, t := range b.All() {
		out.Set(t)
	}
	return out
}

// LookupBool returns the boolean under key. A value of another type reads as absent.
func (b *Bag) LookupBool(key string) (bool, bool) {
	t, ok := b.tags[key]
	if !ok || t.Value.Type() != cty.Bool {
		return false, false
	}
	return t.Value.True(), true
}

// LookupString returns the string (or curve) under key.
func (b *Bag) LookupString(key string) (string, bool) {
	t, ok := b.tags[key]
	if !ok || t.Value.Type() != cty.String {
		return "", false
	}
	return t.Value.AsString(), true
}

// LookupFloat returns the number under key.
func (b *Bag) LookupFloat(key string) (float64, bool) {
	t, ok := b.tags[key]
	if !ok || t.Value.Type() != cty.Number {
		return 0, false
	}
	f, _ := t.Value.AsBigFloat().Float64()
	return f, true
}

// BoolOr returns the boolean under key or def.
func (b *Bag) BoolOr(key string, def bool) bool {
	if v, ok := b.LookupBool(key); ok {
		return v
	}
	return def
}

// StringOr returns the string under key or def.
func (b *Bag) StringOr(key, def string) string {
	if v, ok := b.LookupString(key); ok {
		return v
	}
	return def
}

// FloatOr returns the number under key or def.
func (b *Bag) FloatOr(key string, def float64) float64 {
	if v, ok := b.LookupFloat(key); ok {
		return v
	}
	return def
}

// Is reports whether key holds the given string value.
func (b *Bag) Is(key, value string) bool {
	v, ok := b.LookupString(key)
	return ok && v == value
}
