package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temasictfic/bfme2replaybot/internal/model"
)

func testAsset() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 406, 405))
	for y := 0; y < 405; y++ {
		for x := 0; x < 406; x++ {
			img.Set(x, y, color.RGBA{40, 60, 40, 255})
		}
	}
	return img
}

func testInfo() *model.ReplayInfo {
	left := geom.XY{X: 1000, Y: 500}
	right := geom.XY{X: 4000, Y: 500}
	return &model.ReplayInfo{
		MapName: "map wor rhun",
		Players: []model.Player{
			{Name: "Alice", Faction: model.FactionMen, Color: model.PlayerColors[0], MapPosition: &left},
			{Name: "Bob", Faction: model.FactionElves, Color: model.PlayerColors[1], MapPosition: &right},
			{Name: "Carol", Faction: model.FactionMordor, Color: model.PlayerColors[2]},
		},
		Spectators: []model.Spectator{{Name: "Obs"}},
		StartTime:  1700000000,
		EndTime:    1700001000,
		Winner:     model.WinnerLeftTeam,
	}
}

func TestRender_ProducesModifiedCanvas(t *testing.T) {
	r := NewRendererFromImage(testAsset(), 85)
	img := r.Render(testInfo(), "match.bfme2replay")

	require.NotNil(t, img)
	assert.Equal(t, 406, img.Bounds().Dx())
	assert.Equal(t, 405, img.Bounds().Dy())

	// Drawing text changes pixels away from the uniform background.
	changed := 0
	bg := color.RGBA{40, 60, 40, 255}
	for y := 0; y < img.Bounds().Dy(); y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.RGBAAt(x, y) != bg {
				changed++
			}
		}
	}
	assert.Greater(t, changed, 100, "labels should be drawn onto the canvas")
}

func TestRenderJPEG(t *testing.T) {
	r := NewRendererFromImage(testAsset(), 85)

	var buf bytes.Buffer
	err := r.RenderJPEG(&buf, testInfo(), "match.bfme2replay")
	require.NoError(t, err)

	// JPEG SOI marker.
	require.Greater(t, buf.Len(), 2)
	assert.Equal(t, []byte{0xFF, 0xD8}, buf.Bytes()[:2])
}

func TestRender_CrashNote(t *testing.T) {
	info := testInfo()
	info.Winner = model.WinnerNotConcluded
	info.GameCrashed = true

	r := NewRendererFromImage(testAsset(), 85)
	assert.NotPanics(t, func() {
		r.Render(info, "match.bfme2replay")
	})
}

func TestNewRendererFromImage_QualityClamped(t *testing.T) {
	r := NewRendererFromImage(testAsset(), 0)
	assert.Equal(t, 75, r.quality)

	r = NewRendererFromImage(testAsset(), 300)
	assert.Equal(t, 75, r.quality)

	r = NewRendererFromImage(testAsset(), 90)
	assert.Equal(t, 90, r.quality)
}
