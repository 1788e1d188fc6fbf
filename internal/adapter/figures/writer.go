// Package figures writes rendered charts to the figure directories.
package figures

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/temperature-dispersion/internal/chart"
)

// Writer renders charts and stores them as files. It implements
// pipeline.FigureSink.
type Writer struct {
	svgDir string
	pngDir string
	opts   chart.Options
	logger *slog.Logger
}

// NewWriter creates a Writer. SVG files always go to svgDir; PNG copies are
// written to pngDir only when it is non-empty.
func NewWriter(svgDir, pngDir string, opts chart.Options, logger *slog.Logger) *Writer {
	return &Writer{svgDir: svgDir, pngDir: pngDir, opts: opts, logger: logger}
}

// Write renders c under the base file name and returns the written paths.
func (w *Writer) Write(ctx context.Context, name string, c chart.Chart) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	svg, err := chart.RenderSVG(c, w.opts)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	svgPath, err := writeFile(w.svgDir, name+".svg", []byte(svg))
	if err != nil {
		return nil, err
	}
	paths := []string{svgPath}

	if w.pngDir != "" {
		var buf bytes.Buffer
		if err := chart.RenderPNG(&buf, c, w.opts); err != nil {
			return paths, fmt.Errorf("render %s png: %w", name, err)
		}
		pngPath, err := writeFile(w.pngDir, name+".png", buf.Bytes())
		if err != nil {
			return paths, err
		}
		paths = append(paths, pngPath)
	}

	w.logger.Debug("figure written", "name", name, "paths", paths)
	return paths, nil
}

func writeFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create figure dir: %w", err)
	}
	path := filepath.Join(dir, sanitize(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write figure: %w", err)
	}
	return path, nil
}

// sanitize keeps province names from escaping the figure directory.
func sanitize(name string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(name)
}
