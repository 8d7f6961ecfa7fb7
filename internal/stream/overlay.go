package stream

import (
	"fmt"
	"image"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Label is a detection annotation for one face box.
type Label struct {
	Region image.Rectangle
	Text   string
	Known  bool
}

// Overlay draws detection boxes and name labels onto frames.
type Overlay struct {
	face font.Face
}

// NewOverlay builds a renderer. A TTF font file is optional; without one
// the built-in bitmap face is used.
func NewOverlay(fontFile string) (*Overlay, error) {
	if fontFile == "" {
		return &Overlay{face: basicfont.Face7x13}, nil
	}
	data, err := os.ReadFile(fontFile)
	if err != nil {
		return nil, fmt.Errorf("read font file: %w", err)
	}
	parsed, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font file: %w", err)
	}
	face := truetype.NewFace(parsed, &truetype.Options{Size: 16})
	return &Overlay{face: face}, nil
}

// Draw renders the labels onto a copy of the frame.
func (o *Overlay) Draw(frame image.Image, labels []Label) image.Image {
	dc := gg.NewContextForImage(frame)
	dc.SetFontFace(o.face)

	for _, label := range labels {
		if label.Known {
			dc.SetRGB(0, 0.8, 0)
		} else {
			dc.SetRGB(0.9, 0.1, 0.1)
		}
		r := label.Region
		dc.SetLineWidth(2)
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		if label.Text != "" {
			dc.DrawStringAnchored(label.Text, float64(r.Min.X), float64(r.Min.Y)-6, 0, 0)
		}
	}
	return dc.Image()
}
