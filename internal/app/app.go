package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/material"
	"github.com/specialistvlad/materialmgr/internal/notify"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	engine *material.Engine
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and engine.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	logger.Debug("Logger configured successfully.")

	var n notify.Notifier = notify.Nop{}
	if cfg.NotifyURL != "" {
		sio, err := notify.NewSocketIO(notify.SocketIOConfig{
			URL:       cfg.NotifyURL,
			Namespace: cfg.NotifyNamespace,
			Timeout:   cfg.NotifyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure notifier: %w", err)
		}
		n = sio
		logger.Debug("Change notifications enabled.", "url", cfg.NotifyURL, "namespace", cfg.NotifyNamespace)
	}

	engCfg := cfg.EngineConfig()
	logger.Debug("Engine configured.", "policy", engCfg.Policy, "dims", engCfg.ChannelDims)

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		engine: material.New(engCfg, n),
	}, nil
}

// Engine returns the material engine.
func (a *App) Engine() *material.Engine {
	return a.engine
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.config
}

// Context returns ctx carrying the app logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
