package material

import (
	"fmt"
	"strings"

	"github.com/specialistvlad/materialmgr/internal/docgraph"
)

// Names the engine gives to nodes it creates.
const (
	DefaultShaderName = "mBeauty"
	GroupLayerName    = "mGroup"
	PrimaryBaseName   = "Base"
	MaskInput         = "Mask"
	ElementType       = "element"
	primaryPrefix     = "m"
	baseColorSuffix   = "_baseColor"
)

// MaterialID is the name shared by every channel of a material.
type MaterialID string

func (id MaterialID) String() string { return string(id) }

// Validate rejects names that cannot be used to derive channel names.
func (id MaterialID) Validate() error {
	s := string(id)
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: material name must not be empty", ErrInvalidName)
	}
	if s != strings.TrimSpace(s) {
		return fmt.Errorf("%w: material name %q has surrounding whitespace", ErrInvalidName, s)
	}
	return nil
}

// ChannelName returns the name of the material's channel for input.
func (id MaterialID) ChannelName(input string) string {
	return string(id) + "_" + input
}

// MaskName returns the name of the material's mask channel.
func (id MaterialID) MaskName() string {
	return id.ChannelName(MaskInput)
}

// BaseColorName returns the name of the material's base color layers.
func (id MaterialID) BaseColorName() string {
	return string(id) + baseColorSuffix
}

// PrimaryChannelName returns the name of the primary channel for input.
func PrimaryChannelName(input string) string {
	return primaryPrefix + input
}

// Summary is one catalog entry.
type Summary struct {
	ID      MaterialID
	Visible bool
}

// OrderEntry is one position in the user-visible order.
type OrderEntry struct {
	ID      MaterialID
	Visible bool
}

// IDs projects entries to their ids.
func IDs(entries []OrderEntry) []MaterialID {
	out := make([]MaterialID, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// Material is the set of channels created for one material.
type Material struct {
	ID     MaterialID
	Mask   docgraph.Channel
	Inputs map[string]docgraph.Channel
}

// Element is a named sub-entity of a material.
type Element struct {
	Material MaterialID
	Name     string
	Mask     docgraph.Channel
}

// BoundInput is a shader input slot with its primary channel.
type BoundInput struct {
	Name    string
	Channel docgraph.Channel
}

// Direction is a one-step move in the order.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// ParseDirection accepts "up" and "down".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	default:
		return 0, fmt.Errorf("unknown direction %q", s)
	}
}

// Policy decides what Reconcile does when an input fails mid-rebuild.
type Policy int

const (
	// AllOrNothing rebuilds every touched input to its previous order.
	AllOrNothing Policy = iota
	// BestEffort keeps going and reports which inputs failed.
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case AllOrNothing:
		return "all-or-nothing"
	case BestEffort:
		return "best-effort"
	default:
		return "unknown"
	}
}

// ParsePolicy is the inverse of Policy.String.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "all-or-nothing", "":
		return AllOrNothing, nil
	case "best-effort":
		return BestEffort, nil
	default:
		return 0, fmt.Errorf("unknown reconcile policy %q", s)
	}
}

// Selection is the material a user operation targets. The zero value means
// nothing is selected.
type Selection struct {
	id MaterialID
	ok bool
}

// Selected returns a selection of id.
func Selected(id MaterialID) Selection {
	return Selection{id: id, ok: true}
}

// NoSelection is the empty selection.
var NoSelection = Selection{}

// Get returns the selected material.
func (s Selection) Get() (MaterialID, bool) { return s.id, s.ok }

// SkipReason explains why an operation did nothing.
type SkipReason string

const (
	ReasonNone        SkipReason = ""
	ReasonNoSelection SkipReason = "no selection"
	ReasonAtBoundary  SkipReason = "already at the end of the order"
	ReasonUnchanged   SkipReason = "nothing to change"
	ReasonCancelled   SkipReason = "cancelled"
)

// Outcome reports whether a user operation changed the document.
type Outcome struct {
	Skipped bool
	Reason  SkipReason
}

// Done is the outcome of an operation that mutated the document.
var Done = Outcome{}

func skipped(r SkipReason) Outcome {
	return Outcome{Skipped: true, Reason: r}
}

// ReconcileReport lists the outcome of a Reconcile call per shader input.
type ReconcileReport struct {
	Order      []MaterialID
	Succeeded  []string
	Failed     []InputFailure
	RolledBack bool
}
