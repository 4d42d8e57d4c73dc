// Package render draws commute heatmap pivots as PNG-ready images using a
// compact bitmap font. One image per direction: weekday rows, departure-time
// columns, a viridis colorbar, and median minutes printed in each cell.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"gonum.org/v1/gonum/floats"

	"commutewatch/pkg/heatmap"
)

const (
	cellWidth     = 56
	cellHeight    = 44
	marginLeft    = 72
	marginTop     = 36
	marginBottom  = 52
	colorbarGap   = 16
	colorbarWidth = 16
	marginRight   = 64

	// basicfont.Face7x13 metrics
	lineHeight = 13
	ascent     = 11
)

var (
	white    = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black    = color.RGBA{0x00, 0x00, 0x00, 0xff}
	gridline = color.RGBA{0xd9, 0xd9, 0xd9, 0xff}
)

// asciiFold rewrites the label glyphs the bitmap font cannot draw.
var asciiFold = strings.NewReplacer("→", "to", "–", "-")

// SafeLabel converts a direction label into a filename-safe token:
// "Home → Work" becomes "HometoWork".
func SafeLabel(label string) string {
	return strings.NewReplacer(" ", "", "→", "to").Replace(label)
}

// OutputFilename names the PNG written for one direction's heatmap.
func OutputFilename(direction string) string {
	return "heatmap_pretty_" + SafeLabel(direction) + ".png"
}

// Heatmap renders one direction's pivot. Cells without observations stay
// white and unlabeled. The output is deterministic for a given input.
func Heatmap(hm *heatmap.DirectionHeatmap, direction string) *image.RGBA {
	ncols := len(hm.TimeAxis)
	nrows := len(hm.WeekdayOrder)

	gridW := ncols * cellWidth
	gridH := nrows * cellHeight
	width := marginLeft + gridW + colorbarGap + colorbarWidth + marginRight
	height := marginTop + gridH + marginBottom

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)

	vmin, vmax := valueRange(hm)

	for r, weekday := range hm.WeekdayOrder {
		row := hm.CellGrid[weekday]
		for c, t := range hm.TimeAxis {
			x0 := marginLeft + c*cellWidth
			y0 := marginTop + r*cellHeight
			rect := image.Rect(x0, y0, x0+cellWidth, y0+cellHeight)

			v := row[t]
			if v == nil {
				drawBorder(img, rect, gridline)
				continue
			}

			bg := Viridis(position(*v, vmin, vmax))
			draw.Draw(img, rect, image.NewUniform(bg), image.Point{}, draw.Src)
			drawBorder(img, rect, gridline)

			fg := black
			if Luminance(bg) <= 0.5 {
				fg = white
			}
			drawCellLabel(img, rect, heatmap.FormatMinutes(v), fg)
		}
	}

	title := asciiFold.Replace(hm.Period + " | " + direction + " | " + hm.DateRange)
	drawTextCentered(img, marginLeft+gridW/2, 22, title, black)

	for r, weekday := range hm.WeekdayOrder {
		y := marginTop + r*cellHeight + cellHeight/2 + ascent/2
		drawText(img, marginLeft-8-textWidth(weekday), y, weekday, black)
	}

	tickY := marginTop + gridH + 16
	drawText(img, 8, tickY, "Weekday", black)

	step := ncols / 16
	if step < 1 {
		step = 1
	}
	for c := 0; c < ncols; c += step {
		x := marginLeft + c*cellWidth + cellWidth/2
		drawTextCentered(img, x, tickY, hm.TimeAxis[c], black)
	}

	drawTextCentered(img, marginLeft+gridW/2, marginTop+gridH+38, "Departure time (leave at)", black)

	drawColorbar(img, marginLeft+gridW+colorbarGap, marginTop, gridH, vmin, vmax)

	return img
}

// valueRange returns the smallest and largest observed cell values, or
// zeros when every cell is empty.
func valueRange(hm *heatmap.DirectionHeatmap) (float64, float64) {
	var values []float64
	for _, row := range hm.CellGrid {
		for _, v := range row {
			if v != nil {
				values = append(values, *v)
			}
		}
	}
	if len(values) == 0 {
		return 0, 0
	}
	return floats.Min(values), floats.Max(values)
}

// position scales a value into colormap space. A flat range maps
// everything to the low end.
func position(v, vmin, vmax float64) float64 {
	if vmax <= vmin {
		return 0
	}
	return (v - vmin) / (vmax - vmin)
}

func drawColorbar(img *image.RGBA, x, y, h int, vmin, vmax float64) {
	for dy := 0; dy < h; dy++ {
		c := Viridis(1 - float64(dy)/float64(h-1))
		for dx := 0; dx < colorbarWidth; dx++ {
			img.SetRGBA(x+dx, y+dy, c)
		}
	}
	drawBorder(img, image.Rect(x, y, x+colorbarWidth, y+h), black)

	labelX := x + colorbarWidth + 6
	drawText(img, labelX, y+ascent, formatValue(vmax), black)
	drawText(img, labelX, y+h/2+ascent/2, formatValue((vmin+vmax)/2), black)
	drawText(img, labelX, y+h, formatValue(vmin), black)

	drawText(img, x, y-8, "Minutes", black)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func drawBorder(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetRGBA(x, r.Min.Y, c)
		img.SetRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetRGBA(r.Min.X, y, c)
		img.SetRGBA(r.Max.X-1, y, c)
	}
}

func drawText(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func drawTextCentered(img *image.RGBA, cx, y int, s string, c color.RGBA) {
	drawText(img, cx-textWidth(s)/2, y, s, c)
}

// drawCellLabel centers a one or two line minutes label inside a cell.
func drawCellLabel(img *image.RGBA, rect image.Rectangle, label string, c color.RGBA) {
	if label == "" {
		return
	}
	lines := strings.Split(label, "\n")
	cx := (rect.Min.X + rect.Max.X) / 2
	top := (rect.Min.Y+rect.Max.Y)/2 - len(lines)*lineHeight/2
	for i, line := range lines {
		drawTextCentered(img, cx, top+i*lineHeight+ascent, line, c)
	}
}

func textWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil()
}
