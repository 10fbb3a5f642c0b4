package material

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/notify"
	"github.com/specialistvlad/materialmgr/internal/tag"
)

// CurrentOrder reads the order from the material group of the first primary
// input channel. All primary inputs carry the same order, so one is sampled.
// It returns nil when there is no primary input or it has no group yet.
func CurrentOrder(doc docgraph.Document) []OrderEntry {
	for _, ch := range doc.Channels() {
		if !ch.Tags().BoolOr(tag.KeyPrimaryInput, false) {
			continue
		}
		group, ok := MaterialGroup(ch)
		if !ok {
			return nil
		}
		return groupOrder(group)
	}
	return nil
}

// groupOrder lists the materials linked in group, top first. The first link
// of a material decides its position and visibility.
func groupOrder(group docgraph.Layer) []OrderEntry {
	gs, ok := group.GroupStack()
	if !ok {
		return nil
	}
	var out []OrderEntry
	seen := make(map[MaterialID]struct{})
	for _, l := range gs.Layers() {
		if l.Kind() != docgraph.LayerLink {
			continue
		}
		name, ok := l.Tags().LookupString(tag.KeyMaterial)
		if !ok {
			continue
		}
		id := MaterialID(name)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, OrderEntry{ID: id, Visible: l.Visible()})
	}
	return out
}

// DisplayOrder returns the order to present to the user. When the links and
// the catalog disagree on how many materials exist, the catalog wins.
func DisplayOrder(doc docgraph.Document) []OrderEntry {
	order := CurrentOrder(doc)
	catalog := ListMaterials(doc)
	if len(order) == len(catalog) {
		return order
	}
	out := make([]OrderEntry, len(catalog))
	for i, s := range catalog {
		out[i] = OrderEntry(s)
	}
	return out
}

type linkSpec struct {
	id      MaterialID
	channel docgraph.Channel
	mask    docgraph.Channel
}

type inputPlan struct {
	input   BoundInput
	group   docgraph.Layer
	desired []linkSpec
	prior   []linkSpec
	// selected is the name of the host-selected layer when it sits directly
	// in this group.
	selected string
}

// Reconcile rebuilds the material group of every bound shader input so its
// links follow desired, top first.
//
// Every input and material is validated before anything is touched; a
// validation failure returns an error and leaves the document unchanged.
// If an input then fails mid-rebuild, the configured Policy applies:
// AllOrNothing stops and rebuilds every touched input to the order it had
// before the call, BestEffort carries on with the remaining inputs. Either
// way the returned report names the inputs that failed and the error is a
// *ReconcileError.
func (e *Engine) Reconcile(ctx context.Context, doc docgraph.Document, desired []MaterialID) (*ReconcileReport, error) {
	logger := ctxlog.FromContext(ctx).With("op", "reconcile")
	sel := doc.Selection()

	plans, err := planReconcile(doc, desired, sel)
	if err != nil {
		return nil, err
	}
	logger.Debug("Reconcile planned.", "inputs", len(plans), "materials", len(desired), "policy", e.cfg.Policy)

	report := &ReconcileReport{Order: slices.Clone(desired)}
	var touched []*inputPlan
	for _, p := range plans {
		touched = append(touched, p)
		if err := rebuildGroup(p.group, p.desired, true); err != nil {
			logger.Warn("Material group rebuild failed.", "input", p.input.Name, "error", err)
			report.Failed = append(report.Failed, InputFailure{Input: p.input.Name, Err: err})
			if e.cfg.Policy == AllOrNothing {
				break
			}
			continue
		}
		logger.Debug("Material group rebuilt.", "input", p.input.Name)
		report.Succeeded = append(report.Succeeded, p.input.Name)
	}

	if len(report.Failed) > 0 && e.cfg.Policy == AllOrNothing {
		report.RolledBack = true
		report.Succeeded = nil
		for _, p := range touched {
			if err := rebuildGroup(p.group, p.prior, false); err != nil {
				logger.Error("Rollback of material group failed.", "input", p.input.Name, "error", err)
				report.Failed = append(report.Failed, InputFailure{Input: p.input.Name, Rollback: true, Err: err})
				continue
			}
			logger.Warn("Material group rolled back.", "input", p.input.Name)
		}
	}

	reselect(ctx, doc, sel, plans)

	if len(report.Failed) > 0 {
		return report, &ReconcileError{Report: report}
	}

	ev := notify.NewEvent(notify.OrderChanged, "")
	ev.Order = make([]string, len(desired))
	for i, id := range desired {
		ev.Order[i] = string(id)
	}
	e.publish(ctx, ev)
	logger.Info("Material order reconciled.", "inputs", len(report.Succeeded), "materials", len(desired))
	return report, nil
}

func planReconcile(doc docgraph.Document, desired []MaterialID, sel docgraph.Selection) ([]*inputPlan, error) {
	ix := Scan(doc)
	seen := make(map[MaterialID]struct{}, len(desired))
	for _, id := range desired {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: material %q listed twice", ErrInvalidOrder, id)
		}
		seen[id] = struct{}{}
		if !ix.Has(id) {
			return nil, fmt.Errorf("material %q: %w", id, ErrNotFound)
		}
	}

	var plans []*inputPlan
	for _, in := range ShaderInputs(doc) {
		group, ok := MaterialGroup(in.Channel)
		if !ok {
			return nil, fmt.Errorf("input %q: channel %q has no material group: %w", in.Name, in.Channel.Name(), ErrStructural)
		}
		p := &inputPlan{input: in, group: group, prior: currentLinks(group)}
		for _, id := range desired {
			ch, ok := ix.Inputs(id)[in.Name]
			if !ok {
				return nil, fmt.Errorf("material %q has no channel for input %q: %w", id, in.Name, ErrStructural)
			}
			mask, ok := ix.Mask(id)
			if !ok {
				return nil, fmt.Errorf("material %q has no mask channel: %w", id, ErrStructural)
			}
			p.desired = append(p.desired, linkSpec{id: id, channel: ch, mask: mask})
		}
		if sel.Layer != nil {
			gs, _ := group.GroupStack()
			for _, l := range gs.Layers() {
				if l.ID() == sel.Layer.ID() {
					p.selected = l.Name()
				}
			}
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// currentLinks records the material links of group so it can be rebuilt as it was.
func currentLinks(group docgraph.Layer) []linkSpec {
	gs, ok := group.GroupStack()
	if !ok {
		return nil
	}
	var out []linkSpec
	for _, l := range gs.Layers() {
		name, ok := l.Tags().LookupString(tag.KeyMaterial)
		if !ok || l.Kind() != docgraph.LayerLink {
			continue
		}
		ch, ok := l.LinkedChannel()
		if !ok {
			continue
		}
		spec := linkSpec{id: MaterialID(name), channel: ch}
		if ms, ok := l.MaskStack(); ok {
			for _, m := range ms.Layers() {
				if target, ok := m.LinkedChannel(); ok {
					spec.mask = target
					break
				}
			}
		}
		out = append(out, spec)
	}
	return out
}

// rebuildGroup tears down every layer of group and links specs in order, top
// first. With capture set, the settings of each link are saved onto its
// channel before teardown.
func rebuildGroup(group docgraph.Layer, specs []linkSpec, capture bool) error {
	gs, ok := group.GroupStack()
	if !ok {
		return fmt.Errorf("layer %q is not a group: %w", group.Name(), ErrStructural)
	}
	old := gs.Layers()
	if capture {
		for _, l := range old {
			if l.Kind() != docgraph.LayerLink {
				continue
			}
			if _, err := Capture(l); err != nil {
				return err
			}
		}
	}
	if err := gs.RemoveLayers(old...); err != nil {
		return fmt.Errorf("tear down %q: %w", group.Name(), err)
	}
	// Each link is created at the top, so walk backwards to end up in order.
	for _, s := range slices.Backward(specs) {
		if _, err := addLink(gs, s.id, s.channel, s.mask); err != nil {
			return err
		}
	}
	return nil
}

// addLink links ch at the top of stack as material id, restores its saved
// settings and masks it with mask. A nil mask leaves the mask stack empty.
func addLink(stack docgraph.Stack, id MaterialID, ch, mask docgraph.Channel) (docgraph.Layer, error) {
	link, err := stack.CreateLinkLayer(ch.Name(), ch)
	if err != nil {
		return nil, fmt.Errorf("link %q: %w", ch.Name(), err)
	}
	link.Tags().Set(tag.String(tag.KeyMaterial, string(id)))
	link.SetVisible(ch.Tags().BoolOr(tag.KeyMaterialVisibility, true))
	if _, err := Restore(ch, link); err != nil {
		return nil, err
	}
	ms, err := link.MakeMaskStack()
	if err != nil {
		return nil, fmt.Errorf("mask stack of %q: %w", ch.Name(), err)
	}
	if mask != nil {
		if _, err := ms.CreateLinkLayer(mask.Name(), mask); err != nil {
			return nil, fmt.Errorf("mask link %q: %w", mask.Name(), err)
		}
	}
	return link, nil
}

// reselect points the host cursor back where it was before a rebuild. A
// selected link that was rebuilt is replaced by its namesake.
func reselect(ctx context.Context, doc docgraph.Document, sel docgraph.Selection, plans []*inputPlan) {
	if sel.Channel == nil {
		return
	}
	logger := ctxlog.FromContext(ctx)
	for _, p := range plans {
		if p.selected == "" {
			continue
		}
		gs, _ := p.group.GroupStack()
		if l, ok := gs.FindLayer(p.selected); ok {
			restoreSelection(ctx, doc, docgraph.Selection{Channel: p.input.Channel, Layer: l})
			return
		}
		logger.Debug("Previously selected layer no longer exists.", "layer", p.selected)
		restoreSelection(ctx, doc, docgraph.Selection{Channel: p.input.Channel})
		return
	}
	if err := doc.Select(sel); err != nil {
		logger.Debug("Previous selection is gone, keeping the channel.", "error", err)
		restoreSelection(ctx, doc, docgraph.Selection{Channel: sel.Channel})
	}
}

// Move shifts the selected material one slot and reconciles. Moving the first
// material up or the last one down does nothing.
func (e *Engine) Move(ctx context.Context, doc docgraph.Document, sel Selection, dir Direction) (Outcome, error) {
	id, ok := sel.Get()
	if !ok {
		return skipped(ReasonNoSelection), nil
	}
	ids := IDs(DisplayOrder(doc))
	i := slices.Index(ids, id)
	if i < 0 {
		return Outcome{}, fmt.Errorf("material %q: %w", id, ErrNotFound)
	}
	j := i + 1
	if dir == Up {
		j = i - 1
	}
	if j < 0 || j >= len(ids) {
		return skipped(ReasonAtBoundary), nil
	}
	ids[i], ids[j] = ids[j], ids[i]
	ctxlog.FromContext(ctx).Debug("Moving material.", "material", id, "direction", dir, "from", i, "to", j)
	if _, err := e.Reconcile(ctx, doc, ids); err != nil {
		return Outcome{}, err
	}
	return Done, nil
}
