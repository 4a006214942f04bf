// Package infoscreen draws the frame status card shown on the panel.
package infoscreen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/aouyang1/einkframe/slideshow"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 480
)

var (
	background = color.White
	titleColor = color.RGBA{0, 0, 0, 255}
	textColor  = color.RGBA{45, 55, 72, 255}
	alertColor = color.RGBA{200, 30, 30, 255}
)

// Painter renders info screens at a fixed panel resolution.
type Painter struct {
	Width  int
	Height int

	font *truetype.Font
}

func NewPainter(width, height int) (*Painter, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid info screen size %dx%d", width, height)
	}

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing embedded font: %w", err)
	}
	return &Painter{Width: width, Height: height, font: font}, nil
}

func (p *Painter) setFont(dc *gg.Context, size float64) {
	dc.SetFontFace(truetype.NewFace(p.font, &truetype.Options{Size: size}))
}

// Lines is the text body of the card, one entry per row.
func Lines(info slideshow.InfoScreen) []string {
	st := info.Status

	state := "stopped"
	if st.Running {
		state = fmt.Sprintf("running every %d min", st.IntervalMinutes)
	}

	lines := []string{
		fmt.Sprintf("Photos: %d", st.PhotoCount),
		fmt.Sprintf("Slideshow: %s", state),
		fmt.Sprintf("Order: %s", st.OrderMode),
	}
	if st.NextRun != nil {
		lines = append(lines, "Next change: "+st.NextRun.Local().Format("15:04"))
	}
	if st.Current != nil {
		lines = append(lines, "Showing: "+st.Current.ID)
	}
	if info.Address != "" {
		lines = append(lines, "Web: "+info.Address)
	}
	if info.SyncConfigured {
		lines = append(lines, "Sync: configured")
	} else {
		lines = append(lines, "Sync: not configured")
	}
	if !info.GeneratedAt.IsZero() {
		lines = append(lines, "Updated "+info.GeneratedAt.Local().Format(time.DateTime))
	}
	return lines
}

// Render draws info into an image.
func (p *Painter) Render(info slideshow.InfoScreen) image.Image {
	w, h := float64(p.Width), float64(p.Height)
	margin := w / 20

	dc := gg.NewContext(p.Width, p.Height)
	dc.SetColor(background)
	dc.Clear()

	titleSize := h / 10
	p.setFont(dc, titleSize)
	dc.SetColor(titleColor)
	dc.DrawStringAnchored("Photo Frame", w/2, margin+titleSize/2, 0.5, 0.5)

	y := margin + titleSize*1.5
	if info.Status.PhotoCount == 0 || info.Message != "" {
		msg := info.Message
		if msg == "" {
			msg = "No photos yet. Sync or upload some to start the slideshow."
		}
		p.setFont(dc, h/20)
		dc.SetColor(alertColor)
		for _, line := range dc.WordWrap(msg, w-2*margin) {
			y += h / 16
			dc.DrawString(line, margin, y)
		}
		y += h / 32
	}

	bodySize := h / 18
	p.setFont(dc, bodySize)
	dc.SetColor(textColor)
	for _, line := range Lines(info) {
		y += bodySize * 1.4
		if y > h-margin/2 {
			break
		}
		dc.DrawString(line, margin, y)
	}
	return dc.Image()
}

// Paint renders info and writes it as a PNG at path.
func (p *Painter) Paint(info slideshow.InfoScreen, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create info screen directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating info screen file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, p.Render(info)); err != nil {
		return fmt.Errorf("encoding info screen: %w", err)
	}
	return f.Close()
}
