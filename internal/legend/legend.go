// Package legend draws the depth color legend as an image.
package legend

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/woozymasta/quakemap/internal/style"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	padding  = 6
	rowSize  = 18
	swatch   = 12
	width    = 110
	title    = "Depth"
	textGray = 0x22
)

// Render draws the entries as a vertical legend.
func Render(entries []style.LegendEntry) (*image.RGBA, error) {
	height := padding*2 + rowSize*(len(entries)+1)
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	background := image.NewUniform(color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xe6})
	xdraw.Draw(img, img.Bounds(), background, image.Point{}, xdraw.Src)

	face := basicfont.Face7x13
	ink := image.NewUniform(color.RGBA{R: textGray, G: textGray, B: textGray, A: 0xff})
	drawer := &font.Drawer{Dst: img, Src: ink, Face: face}

	baseline := func(row int) fixed.Int26_6 {
		return fixed.I(padding + row*rowSize + (rowSize+face.Ascent)/2)
	}

	drawer.Dot = fixed.Point26_6{X: fixed.I(padding), Y: baseline(0)}
	drawer.DrawString(title)

	for i, e := range entries {
		c, err := parseHex(e.Color)
		if err != nil {
			return nil, fmt.Errorf("legend entry %q: %w", e.Label, err)
		}

		top := padding + (i+1)*rowSize + (rowSize-swatch)/2
		box := image.Rect(padding, top, padding+swatch, top+swatch)
		xdraw.Draw(img, box, image.NewUniform(color.Black), image.Point{}, xdraw.Src)
		xdraw.Draw(img, box.Inset(1), image.NewUniform(c), image.Point{}, xdraw.Src)

		drawer.Dot = fixed.Point26_6{X: fixed.I(padding + swatch + padding), Y: baseline(i + 1)}
		drawer.DrawString(e.Label)
	}

	return img, nil
}

// Encode renders the entries and writes them as a lossless WebP image.
func Encode(w io.Writer, entries []style.LegendEntry) error {
	img, err := Render(entries)
	if err != nil {
		return err
	}
	return webp.Encode(w, img, &webp.Options{Lossless: true})
}

// Bytes returns the encoded legend of the depth buckets.
func Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, style.Legend()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseHex parses a #rrggbb color.
func parseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}

	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
