// Package render turns a stroke list into a PNG snapshot. It is the
// rendering collaborator the sync core feeds: it consumes the ordered stroke
// list and plays no part in synchronisation.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/scribl/scribl-client-go/pkg/scribdto"
)

// RenderPNG rasterises strokes onto a white canvas of the given dimensions.
// Strokes draw in list order, matching how observers accumulated them.
func RenderPNG(strokes []scribdto.Stroke, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}

	svg := buildSVG(strokes, width, height)
	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("parse canvas svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func buildSVG(strokes []scribdto.Stroke, width, height int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height)
	for _, s := range strokes {
		if len(s.Points) == 0 {
			continue
		}
		size := s.Size
		if size <= 0 {
			size = 1
		}
		b.WriteString(`<path d="`)
		for i, p := range s.Points {
			cmd := byte('L')
			if i == 0 {
				cmd = 'M'
			}
			fmt.Fprintf(&b, "%c%.2f %.2f ", cmd, p.X, p.Y)
		}
		if len(s.Points) == 1 {
			// a dot: zero-length segment still paints with round caps
			fmt.Fprintf(&b, "L%.2f %.2f ", s.Points[0].X, s.Points[0].Y)
		}
		fmt.Fprintf(&b, `" fill="none" stroke="%s" stroke-width="%d" stroke-linecap="round" stroke-linejoin="round"/>`,
			hexColor(s.RGB), size)
	}
	b.WriteString(`</svg>`)
	return b.String()
}

func hexColor(rgb [3]int) string {
	c := rgb
	for i := range c {
		if c[i] < 0 {
			c[i] = 0
		}
		if c[i] > 255 {
			c[i] = 255
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
