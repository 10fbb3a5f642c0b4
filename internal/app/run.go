package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/specialistvlad/materialmgr/internal/ctxlog"
	"github.com/specialistvlad/materialmgr/internal/hcldoc"
	"github.com/specialistvlad/materialmgr/internal/memdoc"
)

// Op is one engine operation run against the open document.
type Op func(ctx context.Context, doc *memdoc.Document) error

// Init creates a new document holding the material shader and one primary
// channel per input. It refuses to overwrite an existing file.
func (a *App) Init(ctx context.Context, inputs []string) error {
	ctx = a.Context(ctx)
	path := a.config.DocumentPath
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("document %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	doc := memdoc.New()
	if _, err := a.engine.CreateShader(ctx, doc, "", inputs); err != nil {
		return err
	}
	if _, err := a.engine.CreatePrimaryInputs(ctx, doc); err != nil {
		return err
	}
	return a.save(ctx, doc)
}

// Update opens the document, runs op and saves the result. Nothing is saved
// when op fails or the app runs dry.
func (a *App) Update(ctx context.Context, op Op) error {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Update started.", "document", a.config.DocumentPath)
	doc, err := hcldoc.Load(ctx, a.config.DocumentPath)
	if err != nil {
		return err
	}
	if err := op(ctx, doc); err != nil {
		return err
	}
	return a.save(ctx, doc)
}

// View opens the document and runs op without saving.
func (a *App) View(ctx context.Context, op Op) error {
	ctx = a.Context(ctx)
	doc, err := hcldoc.Load(ctx, a.config.DocumentPath)
	if err != nil {
		return err
	}
	return op(ctx, doc)
}

func (a *App) save(ctx context.Context, doc *memdoc.Document) error {
	logger := ctxlog.FromContext(ctx)
	if a.config.DryRun {
		logger.Info("Dry run, document not saved.", "document", a.config.DocumentPath)
		return nil
	}
	if err := hcldoc.Save(ctx, doc, a.config.DocumentPath); err != nil {
		return err
	}
	logger.Info("Document saved.", "document", a.config.DocumentPath)
	return nil
}
