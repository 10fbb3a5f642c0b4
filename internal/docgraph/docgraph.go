// Package docgraph defines the narrow interface the material engine consumes
// from the host's layered document.
//
// # Why docgraph Exists
//
// The document (channels, their layer stacks, shaders, the current
// selection) is owned by the host application, not by this module. The engine
// only needs a small slice of it: enumerate and create channels and layers,
// read and write tags, and move the host's selection cursor. Keeping that slice
// behind interfaces lets the engine run unchanged against the in-memory host
// in internal/memdoc and against any real host adapter.
//
// # Ownership and Lifetime
//
// A Document is shared mutable state with the lifetime of the open document.
// No engine component caches Channels or Layers across operations: every call
// receives the Document and re-reads what it needs.
//
// # Thread-Safety
//
// None. The host model is single-user and non-reentrant; callers serialize access.
package docgraph

import (
	"context"
	"errors"

	"github.com/specialistvlad/materialmgr/internal/tag"
)

var (
	// ErrNameInUse is returned when creating a channel whose name already exists.
	ErrNameInUse = errors.New("name already in use")

	// ErrCancelled is returned by blocking user-input primitives when the user
	// dismissed the prompt.
	ErrCancelled = errors.New("cancelled")

	// ErrNotLinked is returned when a link-only operation targets another layer kind.
	ErrNotLinked = errors.New("layer is not a link layer")
)

// Document is the host-owned graph of channels and shaders.
type Document interface {
	// Channels returns a snapshot of every channel. No order is guaranteed.
	Channels() []Channel

	// Channel looks a channel up by name.
	Channel(name string) (Channel, bool)

	// CreateChannel creates an empty channel. Fails with ErrNameInUse if the
	// name is taken.
	CreateChannel(name string, dims Dims) (Channel, error)

	// RemoveChannel deletes a channel. Removing an absent channel is a no-op.
	RemoveChannel(ch Channel) error

	// Shaders returns every shader of the document.
	Shaders() []Shader

	// CreateShader creates a shader exposing the given input slots, all unbound.
	CreateShader(name string, inputs []string) (Shader, error)

	// Selection reads the host's current channel/layer cursor.
	Selection() Selection

	// Select moves the host's cursor. A nil Layer selects only the channel.
	Select(sel Selection) error
}

// Channel is a named image buffer with an ordered layer stack.
type Channel interface {
	ID() string
	Name() string
	SetName(name string) error
	Dims() Dims
	Tags() *tag.Bag
	Stack() Stack
}

// Stack is an ordered list of layers, top first.
type Stack interface {
	// Layers returns the layers top first.
	Layers() []Layer

	// FindLayer returns the first layer with the given name, searching this
	// stack only.
	FindLayer(name string) (Layer, bool)

	// CreateProceduralLayer inserts a flat color layer at the top.
	CreateProceduralLayer(name string, color RGBA) (Layer, error)

	// CreateGroupLayer inserts a group layer with an empty nested stack at the top.
	CreateGroupLayer(name string) (Layer, error)

	// CreateLinkLayer inserts a reference to target at the top.
	CreateLinkLayer(name string, target Channel) (Layer, error)

	// RemoveLayers deletes the given layers. Layers not in this stack are ignored.
	RemoveLayers(layers ...Layer) error
}

// Layer is a node inside a channel's stack.
type Layer interface {
	ID() string
	Name() string
	SetName(name string) error
	Kind() LayerKind
	Tags() *tag.Bag

	// GroupStack returns the nested stack of a group layer.
	GroupStack() (Stack, bool)

	// LinkedChannel returns the channel a link layer references.
	LinkedChannel() (Channel, bool)

	// MaskStack returns the layer's mask stack if it has one.
	MaskStack() (Stack, bool)

	// MakeMaskStack replaces any mask stack with a fresh, empty one.
	MakeMaskStack() (Stack, error)

	// Color and SetColor apply to procedural layers.
	Color() (RGBA, bool)
	SetColor(c RGBA) error
	Locked() bool
	SetLocked(locked bool)

	// Rendering attributes.
	BlendMode() BlendMode
	SetBlendMode(m BlendMode) error
	BlendType() BlendType
	SetBlendType(t BlendType) error
	BlendAmount() float64
	SetBlendAmount(v float64) error
	BlendAmountEnabled() bool
	SetBlendAmountEnabled(v bool)
	AdvancedBlendComponent() BlendComponent
	SetAdvancedBlendComponent(c BlendComponent) error
	LayerBelowCurve() string
	SetLayerBelowCurve(points string) error
	ThisLayerCurve() string
	SetThisLayerCurve(points string) error
	Visible() bool
	SetVisible(v bool)
	ColorTag() int
	SetColorTag(tag int) error
	Swizzle(component int) int
	SetSwizzle(component, source int) error
}

// Shader exposes named input slots that channels are bound to.
type Shader interface {
	Name() string
	Tags() *tag.Bag
	Inputs() []ShaderInput
	SetInput(name string, ch Channel) error
}

// ShaderInput is one slot of a shader. Channel is nil when the slot is unbound.
type ShaderInput struct {
	Name    string
	Channel Channel
}

// Selection is the host's cursor. Either field may be nil.
type Selection struct {
	Channel Channel
	Layer   Layer
}

// ChannelDuplicator is an optional Document capability.
type ChannelDuplicator interface {
	// DuplicateChannel copies ch with its layers and tags under a host-chosen
	// name and returns the copy.
	DuplicateChannel(ch Channel) (Channel, error)
}

// ColorPicker is the host's blocking color prompt. A dismissed prompt returns
// ErrCancelled.
type ColorPicker interface {
	PickColor(ctx context.Context, label string, initial RGBA) (RGBA, error)
}
