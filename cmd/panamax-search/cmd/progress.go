package cmd

import (
	"context"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/ui"
)

// rebuildProgress shows index rebuild progress on stderr. A nil
// *rebuildProgress is valid and shows nothing.
type rebuildProgress struct {
	renderer ui.Renderer
	begin    time.Time
}

// newRebuildProgress picks a renderer for stderr: the TUI on an
// interactive terminal, plain lines with -v, otherwise none. colorMode is
// the already resolved --color setting.
func newRebuildProgress(cmd *cobra.Command, a *app, colorMode string) *rebuildProgress {
	errOut := cmd.ErrOrStderr()
	interactive := ui.IsTTY(errOut) && !ui.DetectCI()
	if !interactive && a.opts.verbose == 0 {
		return nil
	}
	return &rebuildProgress{renderer: ui.NewRenderer(progressConfig(errOut, interactive, a.cfg.Mirror.Path, colorMode))}
}

func progressConfig(errOut io.Writer, interactive bool, mirror, colorMode string) ui.Config {
	return ui.NewConfig(errOut,
		ui.WithForcePlain(!interactive),
		ui.WithMirrorDir(mirror),
		ui.WithNoColor(!ui.ColorEnabled(colorMode, errOut)))
}

func (p *rebuildProgress) start(ctx context.Context, mirror string) {
	if p == nil {
		return
	}
	p.begin = time.Now()
	_ = p.renderer.Start(ctx)
	p.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageReading, Message: mirror})
}

// report is an index.ProgressFunc.
func (p *rebuildProgress) report(done, total int) {
	if p == nil {
		return
	}
	p.renderer.UpdateProgress(ui.ProgressEvent{Stage: ui.StageReading, Current: done, Total: total})
}

func (p *rebuildProgress) finish(idx *index.Index, cachePath string, saveErr error) {
	if p == nil {
		return
	}
	p.renderer.Complete(ui.CompletionStats{
		Packages:  idx.Len(),
		Duration:  time.Since(p.begin),
		CachePath: cachePath,
		SaveErr:   saveErr,
	})
	_ = p.renderer.Stop()
}

func (p *rebuildProgress) stop() {
	if p == nil {
		return
	}
	_ = p.renderer.Stop()
}
