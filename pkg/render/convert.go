package render

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/dynlayout/pkg/errors"
)

// rsvgTool is the converter binary. Tests point it elsewhere.
var rsvgTool = "rsvg-convert"

// convertTimeout bounds a single conversion.
const convertTimeout = 30 * time.Second

// pngResolution is the pixel density multiplier used by [Render] for PNG.
const pngResolution = 2.0

// ToPDF converts SVG bytes to PDF with rsvg-convert.
func ToPDF(svg []byte) ([]byte, error) {
	return convert(svg, "pdf")
}

// ToPNG converts SVG bytes to PNG with rsvg-convert. A resolution of 2
// doubles the pixel density.
func ToPNG(svg []byte, resolution float64) ([]byte, error) {
	if resolution <= 0 {
		resolution = 1
	}
	return convert(svg, "png", "-z", strconv.FormatFloat(resolution, 'f', 2, 64))
}

func convert(svg []byte, format string, extra ...string) ([]byte, error) {
	path, err := exec.LookPath(rsvgTool)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s output needs %s from librsvg (brew install librsvg, apt install librsvg2-bin)", format, rsvgTool)
	}

	ctx, cancel := context.WithTimeout(context.Background(), convertTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, append([]string{"-f", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, &errors.TimeoutError{Stage: format + " conversion", Budget: convertTimeout}
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", rsvgTool, strings.TrimSpace(stderr.String()))
	}
	return out.Bytes(), nil
}
