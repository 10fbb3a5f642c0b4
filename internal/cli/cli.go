package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/specialistvlad/materialmgr/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return &ExitError{Code: 2, Message: err.Error()}
}

// DefaultInputs are the shader inputs `init` creates when none are given.
var DefaultInputs = []string{"DiffuseColor", "SpecularColor"}

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	document   string
	logLevel   string
	logFormat  string
	policy     string
	notifyURL  string
	dryRun     bool
	jsonOutput bool
	noColor    bool
}

// runner is the state shared by the commands of one invocation.
type runner struct {
	opts rootOptions
	app  *app.App
	out  *printer
}

// Execute runs the command line args. Usage errors are returned as
// *ExitError with code 2.
func Execute(ctx context.Context, args []string, in io.Reader, outW, errW io.Writer) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(outW)
	root.SetErr(errW)
	err := root.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		return usageError(err)
	}
	return err
}

// PrintError writes err to w in the error color.
func PrintError(w io.Writer, err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(w, "✗ %v\n", err)
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	r := &runner{}

	root := &cobra.Command{
		Use:   "materialmgr",
		Short: "Manage ordered, tag-identified materials in a layered document",
		Long: `materialmgr maintains a collection of named materials inside a layered
document file. Each material owns one channel per shader input plus a mask,
and every primary input channel links the materials in a shared order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return r.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&r.opts.document, "document", "d", "", "Path to the document file.")
	pf.StringVar(&r.opts.configPath, "config", "", "Path to a TOML config file.")
	pf.StringVar(&r.opts.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&r.opts.logFormat, "log-format", "", "Log output format: 'text' or 'json'.")
	pf.StringVar(&r.opts.policy, "policy", "", "Reorder failure policy: 'all-or-nothing' or 'best-effort'.")
	pf.StringVar(&r.opts.notifyURL, "notify-url", "", "socket.io endpoint that receives change events.")
	pf.BoolVar(&r.opts.dryRun, "dry-run", false, "Run without saving the document.")
	pf.BoolVar(&r.opts.jsonOutput, "json", false, "Output in JSON format.")
	pf.BoolVar(&r.opts.noColor, "no-color", false, "Disable colored output.")

	root.AddGroup(
		&cobra.Group{ID: "document", Title: "Document:"},
		&cobra.Group{ID: "materials", Title: "Materials:"},
		&cobra.Group{ID: "order", Title: "Order and Visibility:"},
	)
	for _, c := range []*cobra.Command{r.initCmd()} {
		c.GroupID = "document"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		r.lsCmd(), r.showCmd(), r.createCmd(), r.elementCmd(), r.renameCmd(),
		r.duplicateCmd(), r.rmCmd(), r.baseColorCmd(),
	} {
		c.GroupID = "materials"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{r.orderCmd(), r.moveCmd(), r.visibilityCmd()} {
		c.GroupID = "order"
		root.AddCommand(c)
	}
	return root
}

// setup resolves the configuration (flags over environment over file over
// defaults) and builds the app.
func (r *runner) setup(cmd *cobra.Command) error {
	r.out = newPrinter(cmd.OutOrStdout(), r.opts.noColor)

	cfg := app.DefaultConfig()
	if r.opts.configPath != "" {
		if err := app.LoadFile(r.opts.configPath, &cfg); err != nil {
			return usageError(err)
		}
	}
	app.ApplyEnv(&cfg)

	flags := cmd.Flags()
	if flags.Changed("document") {
		cfg.DocumentPath = r.opts.document
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = strings.ToLower(r.opts.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = strings.ToLower(r.opts.logFormat)
	}
	if flags.Changed("policy") {
		cfg.ReconcilePolicy = r.opts.policy
	}
	if flags.Changed("notify-url") {
		cfg.NotifyURL = r.opts.notifyURL
	}
	cfg.DryRun = r.opts.dryRun

	validated, err := app.NewConfig(cfg)
	if err != nil {
		return usageError(err)
	}
	a, err := app.NewApp(cmd.ErrOrStderr(), validated)
	if err != nil {
		return usageError(err)
	}
	r.app = a
	return nil
}

// args wraps a cobra positional-argument validator so its failures are
// usage errors.
func args(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, a []string) error {
		if err := v(cmd, a); err != nil {
			return usageError(err)
		}
		return nil
	}
}

// printer writes command output, colored unless disabled.
type printer struct {
	out     io.Writer
	success *color.Color
	warning *color.Color
	label   *color.Color
	dim     *color.Color
}

func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		label:   color.New(color.FgWhite, color.Bold),
		dim:     color.New(color.FgHiBlack),
	}
	if noColor {
		for _, c := range []*color.Color{p.success, p.warning, p.label, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) Success(format string, a ...any) {
	_, _ = p.success.Fprintf(p.out, "✓ "+format+"\n", a...)
}

func (p *printer) Warning(format string, a ...any) {
	_, _ = p.warning.Fprintf(p.out, "⚠ "+format+"\n", a...)
}

func (p *printer) Info(format string, a ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", a...)
}

func (p *printer) LabelValue(label, value string) {
	_, _ = p.label.Fprintf(p.out, "  %s: ", label)
	_, _ = fmt.Fprintln(p.out, value)
}

func (p *printer) Dim(format string, a ...any) string {
	return p.dim.Sprintf(format, a...)
}
