package material

import (
	"context"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/docgraph"
	"github.com/specialistvlad/materialmgr/internal/notify"
)

// Config holds engine settings.
type Config struct {
	// ChannelDims is used for every channel the engine creates.
	ChannelDims docgraph.Dims
	// Policy governs partial Reconcile failures.
	Policy Policy
	// ShaderName names the shader CreateShader makes when given no name.
	ShaderName string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		ChannelDims: docgraph.DefaultDims,
		Policy:      AllOrNothing,
		ShaderName:  DefaultShaderName,
	}
}

// Engine runs material operations against a document. It holds no document
// state; every call receives the document it acts on.
type Engine struct {
	cfg      Config
	notifier notify.Notifier
}

// New creates an engine. A nil notifier discards events.
func New(cfg Config, n notify.Notifier) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	if cfg.ChannelDims == (docgraph.Dims{}) {
		cfg.ChannelDims = docgraph.DefaultDims
	}
	if cfg.ShaderName == "" {
		cfg.ShaderName = DefaultShaderName
	}
	return &Engine{cfg: cfg, notifier: n}
}

// Config returns the engine settings.
func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) publish(ctx context.Context, ev notify.Event) {
	if err := e.notifier.Publish(ctx, ev); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to publish change event.", "kind", ev.Kind, "error", err)
	}
}

// restoreSelection moves the host cursor back to sel. Failure is logged only.
func restoreSelection(ctx context.Context, doc docgraph.Document, sel docgraph.Selection) {
	if err := doc.Select(sel); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not restore selection.", "error", err)
	}
}
