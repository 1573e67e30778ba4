// Package text turns strings into textured quads that float in the scene.
package text

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"GopherAR/internal/loader"
	"GopherAR/internal/renderer"
	"GopherAR/internal/scene"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const DefaultPixelHeight = 64

var ErrNoFont = errors.New("text: nil font")

type Style struct {
	Size       float32 // world-space height of one line
	LineHeight float32 // world-space distance between baselines
	Origin     mgl32.Vec3
	Color      [3]float32
	// PixelHeight is the raster resolution of one line; 0 uses DefaultPixelHeight.
	PixelHeight int
}

// Rasterize draws s in white on a transparent image whose height is
// pixelHeight plus the face's descent padding.
func Rasterize(f *opentype.Font, s string, pixelHeight int) (*image.RGBA, error) {
	if f == nil {
		return nil, ErrNoFont
	}
	if pixelHeight <= 0 {
		pixelHeight = DefaultPixelHeight
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(pixelHeight),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: new face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := ascent + metrics.Descent.Ceil()
	pad := pixelHeight / 8
	width := font.MeasureString(face, s).Ceil() + 2*pad
	if width < 1 {
		width = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(pad, ascent),
	}
	d.DrawString(s)
	return img, nil
}

// BuildLabels returns a group holding one quad per line. Line i sits at
// Origin - (0, i*LineHeight, 0); each quad is Size tall and as wide as the
// rendered line's aspect requires. Empty lines keep their slot but draw nothing.
func BuildLabels(f *opentype.Font, lines []string, style Style) (*scene.Node, error) {
	group := scene.NewNode("labels")
	group.Position = style.Origin

	for i, line := range lines {
		if line == "" {
			continue
		}
		img, err := Rasterize(f, line, style.PixelHeight)
		if err != nil {
			return nil, err
		}

		b := img.Bounds()
		width := style.Size * float32(b.Dx()) / float32(b.Dy())
		mesh := loader.LoadQuad(width, style.Size)
		mat := renderer.NewBasicMaterial("label", style.Color)
		mat.Image = img
		mesh.Material = mat

		node := scene.NewMeshNode(fmt.Sprintf("label-%d", i), mesh)
		node.Position = mgl32.Vec3{0, -float32(i) * style.LineHeight, 0}
		group.Add(node)
	}
	return group, nil
}
