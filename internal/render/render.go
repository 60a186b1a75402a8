// Package render composites decoded match facts onto the map graphic:
// each positioned player is labeled at one of six anchor positions, and
// a centered block carries the match summary.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/temasictfic/bfme2replaybot/internal/config"
	"github.com/temasictfic/bfme2replaybot/internal/geo"
	"github.com/temasictfic/bfme2replaybot/internal/model"
)

// lineHeight is the vertical advance between stacked labels.
const lineHeight = 16

// Renderer draws match summaries onto a map asset.
type Renderer struct {
	asset   image.Image
	quality int
}

// NewRenderer loads the map asset from the configured path.
func NewRenderer(cfg config.RenderConfig) (*Renderer, error) {
	f, err := os.Open(cfg.AssetPath)
	if err != nil {
		return nil, fmt.Errorf("error opening map asset: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("error decoding map asset: %w", err)
	}
	return NewRendererFromImage(img, cfg.Quality), nil
}

// NewRendererFromImage creates a renderer over an already-decoded asset.
func NewRendererFromImage(img image.Image, quality int) *Renderer {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &Renderer{asset: img, quality: quality}
}

// Render composites one match onto a copy of the map asset.
func (r *Renderer) Render(info *model.ReplayInfo, filename string) *image.RGBA {
	bounds := r.asset.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.BiLinear.Scale(canvas, canvas.Bounds(), r.asset, bounds, xdraw.Src, nil)

	w, h := canvas.Bounds().Dx(), canvas.Bounds().Dy()

	// Positioned players stack under their anchor; the rest go into the
	// center block with the match summary.
	anchorLines := make(map[geo.Anchor]int)
	var unpositioned []string

	for i := range info.Players {
		p := &info.Players[i]
		label := fmt.Sprintf("%s (%s)", p.Name, p.DisplayFaction())

		if p.MapPosition == nil || !geo.Valid(*p.MapPosition) {
			unpositioned = append(unpositioned, label)
			continue
		}

		anchor := geo.AnchorOf(*p.MapPosition)
		x, y := anchor.PixelsOn(w, h)
		y += anchorLines[anchor] * lineHeight
		anchorLines[anchor]++

		rgb := p.Color
		drawLabel(canvas, x, y, label, color.RGBA{rgb[0], rgb[1], rgb[2], 255}, true)
	}

	// Centered summary block.
	lines := []string{
		filename,
		info.StartDate(),
		"Duration: " + info.DurationText(),
		"Winner: " + info.Winner.String(),
	}
	if info.GameCrashed {
		lines = append(lines, "Game did not conclude")
	}
	lines = append(lines, unpositioned...)

	cy := h/2 - len(lines)*lineHeight/2
	for i, line := range lines {
		drawLabel(canvas, w/2, cy+i*lineHeight, line, color.RGBA{255, 255, 255, 255}, true)
	}

	// Spectators along the bottom edge.
	for i, s := range info.Spectators {
		drawLabel(canvas, w/2, h-(len(info.Spectators)-i+1)*lineHeight,
			"Spectator: "+s.Name, color.RGBA{200, 200, 200, 255}, true)
	}

	return canvas
}

// RenderJPEG writes the composited image as JPEG.
func (r *Renderer) RenderJPEG(w io.Writer, info *model.ReplayInfo, filename string) error {
	img := r.Render(info, filename)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: r.quality}); err != nil {
		return fmt.Errorf("error encoding map image: %w", err)
	}
	return nil
}

// drawLabel draws one text line with a one-pixel shadow so light colors
// stay readable on light terrain. centered puts x at the line middle.
func drawLabel(dst draw.Image, x, y int, text string, c color.Color, centered bool) {
	face := basicfont.Face7x13

	if centered {
		width := font.MeasureString(face, text).Ceil()
		x -= width / 2
	}

	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: face,
		Dot:  fixed.P(x+1, y+1),
	}
	shadow.DrawString(text)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
