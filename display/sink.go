// Package display drives the panel: the external renderer that draws a photo
// and the wlr-randr output power switch.
package display

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/aouyang1/einkframe/slideshow"
)

// ExecSink renders by running an external program once per image. The
// program owns decoding, resizing and dithering for the panel.
type ExecSink struct {
	Cmd     string
	Timeout time.Duration
}

func NewExecSink(cmd string, timeout time.Duration) *ExecSink {
	return &ExecSink{Cmd: cmd, Timeout: timeout}
}

func (e *ExecSink) args(path string, opts slideshow.DisplayConfig) []string {
	return []string{
		"--image", path,
		"--orientation", opts.Orientation,
		"--fit", opts.FitMode,
		"--saturation", strconv.FormatFloat(opts.Saturation, 'f', -1, 64),
	}
}

// Render draws the image at path and blocks until the panel refresh is done.
func (e *ExecSink) Render(ctx context.Context, path string, opts slideshow.DisplayConfig) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("unable to read image for display, %s, %w", path, err)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, e.Cmd, e.args(path, opts)...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("display command failed, %s: %w", bytes.TrimSpace(out.Bytes()), err)
	}

	slog.Debug("display command finished", "path", path, "elapsed", time.Since(start))
	return nil
}
