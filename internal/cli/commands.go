package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/material"
	"github.com/specialistvlad/materialmgr/internal/memdoc"
)

// skipError carries a skipped outcome out of an app operation so the
// document is not saved. It is never a failure.
type skipError struct {
	reason material.SkipReason
}

func (e *skipError) Error() string { return string(e.reason) }

// outcome converts a skipped outcome into a skipError.
func outcome(o material.Outcome, err error) error {
	if err != nil {
		return err
	}
	if o.Skipped {
		return &skipError{reason: o.Reason}
	}
	return nil
}

// update runs op through the app and prints done on success. A command with
// nothing selected is silent; other skips are shown as warnings.
func (r *runner) update(cmd *cobra.Command, op func(ctx context.Context, doc *memdoc.Document) error, done string) error {
	err := r.app.Update(cmd.Context(), op)
	var skip *skipError
	if errors.As(err, &skip) {
		if skip.reason == material.ReasonNoSelection {
			ctxlog.FromContext(r.app.Context(cmd.Context())).Debug("No material selected, nothing done.", "command", cmd.CommandPath())
			return nil
		}
		r.out.Warning("Nothing done: %s.", skip.reason)
		return nil
	}
	if err != nil {
		return err
	}
	r.out.Success("%s", done)
	return nil
}

// target resolves the material a command acts on: the --material flag, else
// the document's selection.
func target(name string, doc *memdoc.Document) material.Selection {
	if name != "" {
		return material.Selected(material.MaterialID(name))
	}
	return material.SelectedMaterial(doc)
}

func addMaterialFlag(cmd *cobra.Command, name *string) {
	cmd.Flags().StringVarP(name, "material", "m", "", "Material to act on (defaults to the selected one).")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (r *runner) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [INPUT...]",
		Short: "Create a document with the material shader and its primary channels",
		Long: fmt.Sprintf(`Create a new document holding the material shader and one primary
channel per shader input. Inputs default to %s.`, strings.Join(DefaultInputs, ", ")),
		RunE: func(cmd *cobra.Command, inputs []string) error {
			if len(inputs) == 0 {
				inputs = DefaultInputs
			}
			if err := r.app.Init(cmd.Context(), inputs); err != nil {
				return err
			}
			r.out.Success("Document %s created with inputs %s.", r.app.Config().DocumentPath, strings.Join(inputs, ", "))
			return nil
		},
	}
}

type listEntry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Visible  bool   `json:"visible"`
}

func (r *runner) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List materials in display order",
		Args:    args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			var entries []material.OrderEntry
			err := r.app.View(cmd.Context(), func(_ context.Context, doc *memdoc.Document) error {
				entries = material.DisplayOrder(doc)
				return nil
			})
			if err != nil {
				return err
			}

			list := make([]listEntry, len(entries))
			for i, e := range entries {
				list[i] = listEntry{Position: i, Name: string(e.ID), Visible: e.Visible}
			}
			if r.opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			if len(list) == 0 {
				r.out.Info("No materials.")
				return nil
			}
			for _, e := range list {
				line := fmt.Sprintf("%3d  %s", e.Position, e.Name)
				if !e.Visible {
					line += " " + r.out.Dim("(hidden)")
				}
				r.out.Info("%s", line)
			}
			return nil
		},
	}
}

type inputView struct {
	Input     string                   `json:"input"`
	Channel   string                   `json:"channel"`
	BaseColor *docgraph.RGBA           `json:"base_color,omitempty"`
	Settings  *material.SettingsRecord `json:"settings,omitempty"`
}

type elementView struct {
	Name       string                   `json:"name"`
	Channel    string                   `json:"channel"`
	BaseColors map[string]docgraph.RGBA `json:"base_colors"`
}

type detailView struct {
	Name     string        `json:"name"`
	Visible  bool          `json:"visible"`
	Position int           `json:"position"`
	Inputs   []inputView   `json:"inputs"`
	Elements []elementView `json:"elements"`
}

func newDetailView(d material.Detail) detailView {
	v := detailView{
		Name:     string(d.ID),
		Visible:  d.Visible,
		Position: d.Position,
		Inputs:   []inputView{},
		Elements: []elementView{},
	}
	for _, in := range d.Inputs {
		v.Inputs = append(v.Inputs, inputView(in))
	}
	for _, e := range d.Elements {
		v.Elements = append(v.Elements, elementView(e))
	}
	return v
}

func (r *runner) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the channels, colors and settings of a material",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			var d material.Detail
			err := r.app.View(cmd.Context(), func(_ context.Context, doc *memdoc.Document) error {
				var err error
				d, err = material.Describe(doc, material.MaterialID(a[0]))
				return err
			})
			if err != nil {
				return err
			}

			v := newDetailView(d)
			if r.opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), v)
			}
			r.out.Info("%s", v.Name)
			position := "unlinked"
			if v.Position >= 0 {
				position = fmt.Sprint(v.Position)
			}
			r.out.LabelValue("Position", position)
			r.out.LabelValue("Visible", fmt.Sprint(v.Visible))
			for _, in := range v.Inputs {
				value := in.Channel
				if in.BaseColor != nil {
					value += " " + r.out.Dim("color %s", formatColor(*in.BaseColor))
				}
				if in.Settings != nil {
					value += " " + r.out.Dim("blend %s %.2f", in.Settings.BlendMode, in.Settings.BlendAmount)
				}
				r.out.LabelValue(in.Input, value)
			}
			for _, e := range v.Elements {
				r.out.LabelValue("Element "+e.Name, e.Channel)
			}
			return nil
		},
	}
}

func (r *runner) createCmd() *cobra.Command {
	var colors []string
	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a material with one channel per shader input and a mask",
		Example: `  materialmgr create Rust
  materialmgr create Rust --color DiffuseColor=sienna --color SpecularColor=#404040`,
		Args: args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			parsed, err := parseColorFlags(colors)
			if err != nil {
				return usageError(err)
			}
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				_, err := r.app.Engine().CreateMaterial(ctx, doc, a[0], parsed)
				return err
			}, fmt.Sprintf("Material %s created.", a[0]))
		},
	}
	cmd.Flags().StringArrayVar(&colors, "color", nil, "Base color of an input as INPUT=COLOR (repeatable).")
	return cmd
}

func (r *runner) elementCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "element",
		Short: "Add or remove material elements",
	}

	var colors []string
	add := &cobra.Command{
		Use:   "add MATERIAL ELEMENT",
		Short: "Add an element with its own mask to a material",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			parsed, err := parseColorFlags(colors)
			if err != nil {
				return usageError(err)
			}
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				_, err := r.app.Engine().CreateElement(ctx, doc, material.MaterialID(a[0]), a[1], parsed)
				return err
			}, fmt.Sprintf("Element %s added to %s.", a[1], a[0]))
		},
	}
	add.Flags().StringArrayVar(&colors, "color", nil, "Base color of an input as INPUT=COLOR (repeatable).")

	rm := &cobra.Command{
		Use:   "rm MATERIAL ELEMENT",
		Short: "Remove an element from a material",
		Args:  args(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				return outcome(r.app.Engine().RemoveElement(ctx, doc, material.Selected(material.MaterialID(a[0])), a[1]))
			}, fmt.Sprintf("Element %s removed from %s.", a[1], a[0]))
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func (r *runner) renameCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "rename NEW",
		Short: "Rename a material and every channel and layer it owns",
		Args:  args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				return outcome(r.app.Engine().Rename(ctx, doc, target(name, doc), a[0]))
			}, fmt.Sprintf("Material renamed to %s.", a[0]))
		},
	}
	addMaterialFlag(cmd, &name)
	return cmd
}

func (r *runner) duplicateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "duplicate NEW",
		Aliases: []string{"dup"},
		Short:   "Copy a material under a new name",
		Args:    args(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				return outcome(r.app.Engine().Duplicate(ctx, doc, target(name, doc), a[0]))
			}, fmt.Sprintf("Material %s created.", a[0]))
		},
	}
	addMaterialFlag(cmd, &name)
	return cmd
}

func (r *runner) rmCmd() *cobra.Command {
	var (
		name         string
		metadataOnly bool
	)
	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove a material",
		Long: `Remove a material and its channels. With --metadata-only the channels are
kept but no longer identified as a material.`,
		Args: args(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				return outcome(r.app.Engine().Remove(ctx, doc, target(name, doc), metadataOnly))
			}, "Material removed.")
		},
	}
	addMaterialFlag(cmd, &name)
	cmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "Keep the channels, drop only the material identity.")
	return cmd
}

func (r *runner) baseColorCmd() *cobra.Command {
	var (
		name    string
		element string
		pick    bool
	)
	cmd := &cobra.Command{
		Use:   "base-color INPUT [COLOR]",
		Short: "Set the base color of a material input",
		Example: `  materialmgr base-color DiffuseColor tomato -m Rust
  materialmgr base-color DiffuseColor 0.2,0.1,0.05 -m Rust --element Scratches
  materialmgr base-color DiffuseColor --pick -m Rust`,
		Args: args(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, a []string) error {
			input := a[0]
			if pick {
				if len(a) == 2 || element != "" {
					return usageError(errors.New("--pick takes no COLOR and no --element"))
				}
				picker := NewTerminalPicker(cmd.InOrStdin(), cmd.OutOrStdout())
				return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
					id, ok := target(name, doc).Get()
					if !ok {
						return &skipError{reason: material.ReasonNoSelection}
					}
					return outcome(r.app.Engine().PickBaseColor(ctx, doc, picker, id, input))
				}, fmt.Sprintf("Base color of %s updated.", input))
			}

			if len(a) != 2 {
				return usageError(errors.New("COLOR is required unless --pick is set"))
			}
			c, err := ParseColor(a[1])
			if err != nil {
				return usageError(err)
			}
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				id, ok := target(name, doc).Get()
				if !ok {
					return &skipError{reason: material.ReasonNoSelection}
				}
				if element != "" {
					return r.app.Engine().SetElementBaseColor(ctx, doc, id, element, input, c)
				}
				return r.app.Engine().SetBaseColor(ctx, doc, id, input, c)
			}, fmt.Sprintf("Base color of %s set to %s.", input, formatColor(c)))
		},
	}
	addMaterialFlag(cmd, &name)
	cmd.Flags().StringVar(&element, "element", "", "Set the color of this element instead of the material.")
	cmd.Flags().BoolVar(&pick, "pick", false, "Prompt for the color interactively.")
	return cmd
}

func (r *runner) orderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order NAME...",
		Short: "Reorder materials, topmost first",
		Long: `Rebuild the material group of every primary input so it holds one link per
material in the given order. Materials left out of the order lose their links.
With the best-effort policy inputs that could be rebuilt are saved even when
others fail.`,
		Args: args(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, a []string) error {
			desired := make([]material.MaterialID, len(a))
			for i, n := range a {
				desired[i] = material.MaterialID(n)
			}

			var partial *material.ReconcileError
			err := r.app.Update(cmd.Context(), func(ctx context.Context, doc *memdoc.Document) error {
				_, err := r.app.Engine().Reconcile(ctx, doc, desired)
				var recErr *material.ReconcileError
				if errors.As(err, &recErr) && !recErr.Report.RolledBack {
					partial = recErr
					return nil
				}
				return err
			})
			if err != nil {
				return err
			}
			if partial != nil {
				r.out.Warning("Order applied to %s only.", strings.Join(partial.Report.Succeeded, ", "))
				return partial
			}
			r.out.Success("Order set to %s.", strings.Join(a, ", "))
			return nil
		},
	}
}

func (r *runner) moveCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:       "move up|down",
		Short:     "Move a material one slot up or down the order",
		Args:      args(cobra.ExactArgs(1)),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, a []string) error {
			dir, err := material.ParseDirection(a[0])
			if err != nil {
				return usageError(err)
			}
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				return outcome(r.app.Engine().Move(ctx, doc, target(name, doc), dir))
			}, fmt.Sprintf("Material moved %s.", dir))
		},
	}
	addMaterialFlag(cmd, &name)
	return cmd
}

func (r *runner) visibilityCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:       "visibility on|off|toggle",
		Short:     "Show, hide or toggle a material in every input",
		Args:      args(cobra.ExactArgs(1)),
		ValidArgs: []string{"on", "off", "toggle"},
		RunE: func(cmd *cobra.Command, a []string) error {
			mode := strings.ToLower(a[0])
			switch mode {
			case "on", "off", "toggle":
			default:
				return usageError(fmt.Errorf("unknown visibility %q, want on, off or toggle", a[0]))
			}
			return r.update(cmd, func(ctx context.Context, doc *memdoc.Document) error {
				sel := target(name, doc)
				if mode == "toggle" {
					return outcome(r.app.Engine().ToggleVisibility(ctx, doc, sel))
				}
				id, ok := sel.Get()
				if !ok {
					return &skipError{reason: material.ReasonNoSelection}
				}
				return r.app.Engine().SetVisibility(ctx, doc, id, mode == "on")
			}, "Visibility updated.")
		},
	}
	addMaterialFlag(cmd, &name)
	return cmd
}
