package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/TobiSchelling/reliefboard/internal/relief"
	"github.com/TobiSchelling/reliefboard/internal/views"
)

// DefaultTitle heads the image snapshot.
const DefaultTitle = "大埔火災救援物資 Relief Board"

// PNGOptions control the image snapshot.
type PNGOptions struct {
	// Face draws all text. Nil uses a built-in ASCII-only face; load a CJK
	// font with LoadFace to render Chinese text.
	Face     font.Face
	Title    string
	Location *time.Location
	Now      time.Time
	Width    int
}

// LoadFace loads a TrueType/OpenType font or font collection at the given
// point size. Collections use their first font.
func LoadFace(path string, size float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	f, err := opentype.Parse(data)
	if err != nil {
		coll, cerr := opentype.ParseCollection(data)
		if cerr != nil {
			return nil, fmt.Errorf("parsing font %s: %w", path, err)
		}
		if f, err = coll.Font(0); err != nil {
			return nil, fmt.Errorf("parsing font %s: %w", path, err)
		}
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("creating font face: %w", err)
	}
	return face, nil
}

type column struct {
	title  string
	weight int
	value  func(relief.Entry, *time.Location) string
}

var pngColumns = []column{
	{"類型", 6, func(e relief.Entry, _ *time.Location) string { return views.TypeText(e.Type) }},
	{"急迫性", 7, func(e relief.Entry, _ *time.Location) string { return views.UrgencyText(e.Urgency) }},
	{"類別", 9, func(e relief.Entry, _ *time.Location) string { return e.Category }},
	{"物品", 18, func(e relief.Entry, _ *time.Location) string { return e.Item }},
	{"數量", 9, func(e relief.Entry, _ *time.Location) string { return e.Quantity }},
	{"地點", 18, func(e relief.Entry, _ *time.Location) string { return e.Location }},
	{"聯絡方法", 18, func(e relief.Entry, _ *time.Location) string { return e.ContactInfo }},
	{"時間", 10, func(e relief.Entry, loc *time.Location) string { return e.Time().In(loc).Format("1/2 15:04") }},
	{"狀態", 7, func(e relief.Entry, _ *time.Location) string { return views.StatusText(e.Status) }},
}

var (
	colText      = color.RGBA{0x0f, 0x17, 0x2a, 0xff}
	colMuted     = color.RGBA{0x64, 0x74, 0x8b, 0xff}
	colHeaderBg  = color.RGBA{0xf1, 0xf5, 0xf9, 0xff}
	colRule      = color.RGBA{0xe2, 0xe8, 0xf0, 0xff}
	colDoneRowBg = color.RGBA{0xf8, 0xfa, 0xfc, 0xff}
)

const (
	padding  = 24
	barWidth = 6
)

// layout holds the vertical geometry of a snapshot.
type layout struct {
	width, height int
	lineH, ascent int
	rowH          int
	headerTop     int
	rowsTop       int
	colX          []int
}

func newLayout(face font.Face, width, rows int) layout {
	m := face.Metrics()
	l := layout{
		width:  width,
		lineH:  m.Height.Ceil(),
		ascent: m.Ascent.Ceil(),
	}
	l.rowH = l.lineH + 14
	l.headerTop = padding + 2*l.lineH + 16
	l.rowsTop = l.headerTop + l.rowH
	if rows == 0 {
		rows = 1
	}
	l.height = l.rowsTop + rows*l.rowH + padding

	total := 0
	for _, c := range pngColumns {
		total += c.weight
	}
	inner := width - 2*padding - barWidth - 8
	x := padding + barWidth + 8
	for _, c := range pngColumns {
		l.colX = append(l.colX, x)
		x += inner * c.weight / total
	}
	l.colX = append(l.colX, width-padding)
	return l
}

// WritePNG renders entries, in the given order, as a PNG table. Only the
// record content is drawn; there are no controls in the image.
func WritePNG(w io.Writer, entries []relief.Entry, opts PNGOptions) error {
	face := opts.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	width := opts.Width
	if width <= 0 {
		width = 1200
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	l := newLayout(face, width, len(entries))
	img := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	drawText(img, face, colText, padding, padding+l.ascent, title, width-2*padding)
	stats := views.ComputeStats(entries)
	sub := fmt.Sprintf("%s  ·  需求 %d  提供 %d  緊急 %d  已完成 %d",
		now.In(loc).Format(TimeLayout), stats.TotalNeeds, stats.TotalOffers, stats.HighUrgency, stats.Completed)
	drawText(img, face, colMuted, padding, padding+l.lineH+8+l.ascent, sub, width-2*padding)

	fillRect(img, padding, l.headerTop, width-padding, l.headerTop+l.rowH, colHeaderBg)
	for i, c := range pngColumns {
		drawText(img, face, colMuted, l.colX[i], l.baseline(l.headerTop), c.title, l.colX[i+1]-l.colX[i]-8)
	}

	if len(entries) == 0 {
		drawText(img, face, colMuted, l.colX[0], l.baseline(l.rowsTop), "沒有記錄", width-2*padding)
	}
	for n, e := range entries {
		top := l.rowsTop + n*l.rowH
		textCol := colText
		if !e.Active() {
			fillRect(img, padding, top, width-padding, top+l.rowH, colDoneRowBg)
			textCol = colMuted
		}
		fillRect(img, padding, top+2, padding+barWidth, top+l.rowH-2, hexColor(views.UrgencyColor(e.Urgency).Hex()))
		for i, c := range pngColumns {
			drawText(img, face, textCol, l.colX[i], l.baseline(top), c.value(e, loc), l.colX[i+1]-l.colX[i]-8)
		}
		fillRect(img, padding, top+l.rowH-1, width-padding, top+l.rowH, colRule)
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding png: %w", err)
	}
	return nil
}

func (l layout) baseline(top int) int {
	return top + (l.rowH-l.lineH)/2 + l.ascent
}

func fillRect(img draw.Image, x0, y0, x1, y1 int, c color.Color) {
	draw.Draw(img, image.Rect(x0, y0, x1, y1), image.NewUniform(c), image.Point{}, draw.Src)
}

func drawText(img draw.Image, face font.Face, c color.Color, x, baseline int, s string, maxWidth int) {
	s = fitText(face, strings.ReplaceAll(s, "\n", " "), maxWidth)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, baseline),
	}
	d.DrawString(s)
}

// fitText shortens s with an ellipsis until it fits in maxWidth pixels.
func fitText(face font.Face, s string, maxWidth int) string {
	if maxWidth <= 0 || font.MeasureString(face, s).Ceil() <= maxWidth {
		return s
	}
	r := []rune(s)
	for len(r) > 0 {
		r = r[:len(r)-1]
		candidate := string(r) + "..."
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return ""
}

func hexColor(h string) color.RGBA {
	v, err := strconv.ParseUint(strings.TrimPrefix(h, "#"), 16, 32)
	if err != nil {
		return colMuted
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}
