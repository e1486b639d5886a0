package report

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Layout of the snapshot in logical pixels; the bitmap is scaled by RasterScale.
const (
	RasterWidth = 800
	RasterScale = 2

	fontSize    = 12
	padding     = 40
	lineHeight  = 13
	cardGap     = 20
	cardHeight  = 64
	rowHeight   = 32
	sectionGap  = 32
	headerBlock = 2*lineHeight + 12
)

var (
	colorText    = color.RGBA{0x11, 0x18, 0x27, 0xff}
	colorSubtle  = color.RGBA{0x37, 0x41, 0x51, 0xff}
	colorMuted   = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	colorBorder  = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	colorSurface = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
)

// column x offsets relative to the content box, plus alignment.
var columns = [4]struct {
	x, w  int
	right bool
}{
	{0, 300, false},
	{300, 120, true},
	{420, 150, true},
	{570, 150, true},
}

// parseFont loads the embedded Go Regular face once. The parsed font is safe
// for concurrent use; the faces built from it are not.
var parseFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// newFace returns a fresh face for one rasterization.
func newFace() (font.Face, error) {
	f, err := parseFont()
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build font face: %w", err)
	}
	return face, nil
}

// painter draws text and boxes onto the logical canvas.
type painter struct {
	dst  *image.RGBA
	face font.Face
}

// Rasterize draws the snapshot off-screen and returns it at RasterScale.
func Rasterize(s Snapshot) (*image.RGBA, error) {
	face, err := newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	h := rasterHeight(len(s.Rows))
	canvas := image.NewRGBA(image.Rect(0, 0, RasterWidth, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	p := painter{dst: canvas, face: face}

	content := RasterWidth - 2*padding
	y := padding

	p.centered(s.Title, y+lineHeight, colorText)
	p.centered(s.MonthLabel, y+2*lineHeight+8, colorSubtle)
	y += headerBlock + sectionGap

	cardW := (content - 2*cardGap) / 3
	for i, c := range s.Cards {
		x := padding + i*(cardW+cardGap)
		p.box(image.Rect(x, y, x+cardW, y+cardHeight), colorSurface)
		p.text(c.Label, x+(cardW-p.measure(c.Label))/2, y+20, colorMuted)
		p.text(c.Value, x+(cardW-p.measure(c.Value))/2, y+46, colorText)
	}
	y += cardHeight + sectionGap

	p.text(s.Heading, padding, y+lineHeight, colorText)
	y += lineHeight + 16

	p.row(s.Columns, y, colorSurface, colorSubtle)
	y += rowHeight
	for _, r := range s.Rows {
		p.row(r, y, color.White, colorSubtle)
		y += rowHeight
	}

	out := image.NewRGBA(image.Rect(0, 0, RasterWidth*RasterScale, h*RasterScale))
	draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	return out, nil
}

func rasterHeight(rows int) int {
	return padding + headerBlock + sectionGap + cardHeight + sectionGap +
		lineHeight + 16 + (rows+1)*rowHeight + padding
}

func (p painter) row(cells [4]string, y int, bg color.Color, fg color.Color) {
	for i, col := range columns {
		x := padding + col.x
		p.box(image.Rect(x, y, x+col.w, y+rowHeight), bg)
		tx := x + 10
		if col.right {
			tx = x + col.w - 10 - p.measure(cells[i])
		}
		p.text(cells[i], tx, y+rowHeight/2+lineHeight/2-2, fg)
	}
}

// box fills r and strokes a one pixel border around it.
func (p painter) box(r image.Rectangle, fill color.Color) {
	draw.Draw(p.dst, r, image.NewUniform(colorBorder), image.Point{}, draw.Src)
	draw.Draw(p.dst, r.Inset(1), image.NewUniform(fill), image.Point{}, draw.Src)
}

func (p painter) centered(s string, baseline int, c color.Color) {
	p.text(s, (RasterWidth-p.measure(s))/2, baseline, c)
}

func (p painter) text(s string, x, baseline int, c color.Color) {
	d := font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(c),
		Face: p.face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

func (p painter) measure(s string) int {
	return font.MeasureString(p.face, s).Ceil()
}
