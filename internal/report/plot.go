// Package report renders crack results and run history for the terminal and
// for machine-readable export.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series is a named run of values plotted against a shared x axis.
type Series struct {
	Name   string
	Values []float64
}

// Plot renders series as braille line charts sharing one y scale.
type Plot struct {
	Title  string
	Width  int
	Height int
	// XLabels annotate the first and last column.
	XLabels [2]string
	// Color forces ANSI colors even when w is not a terminal.
	Color bool
	// Marks highlights x indexes of the input series.
	Marks []int
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	axisLabelWidth    = 8
	axisSeparator     = " │ "
	fallbackWidth     = 80
	colorReset        = "\x1b[0m"
	markColor         = "\x1b[1;31m"
)

var palette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// PlotWidthFor returns the chart width that fits totalWidth columns after the
// y axis labels.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	width := totalWidth - axisLabelWidth - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		width = minPlotWidth
	}
	return width
}

// TerminalWidth returns the width of stdout or a fallback when stdout is not a
// terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// Render writes the chart to w. Empty series are skipped; nothing is written
// when no series has values.
func (p Plot) Render(w io.Writer, series ...Series) error {
	kept := series[:0:0]
	longest := 0
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
			longest = max(longest, len(s.Values))
		}
	}
	if len(kept) == 0 {
		return nil
	}

	height := p.Height
	if height <= 0 {
		height = defaultPlotHeight
	}
	width := p.Width
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth())
	}
	// Short sweeps get one column per point so marks land on exact periods.
	if longest < width {
		width = max(longest, 1)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range kept {
		for _, v := range s.Values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if hi-lo < 1e-9 {
		lo, hi = lo-1, hi+1
	}

	canvases := make([]*canvas, len(kept))
	for i, s := range kept {
		c := newCanvas(width, height)
		points := resample(s.Values, width)
		prevX, prevY := -1, -1
		for x, v := range points {
			y := c.rowFor(v, lo, hi)
			if prevX >= 0 {
				c.line(prevX, prevY, x*2, y)
			} else {
				c.dot(x*2, y)
			}
			prevX, prevY = x*2, y
		}
		canvases[i] = c
	}

	marked := make(map[int]bool, len(p.Marks))
	for _, m := range p.Marks {
		if longest > 0 {
			marked[m*width/longest] = true
		}
	}

	color := useColor(w, p.Color)
	var b strings.Builder
	if p.Title != "" {
		b.WriteString(p.Title)
		b.WriteByte('\n')
	}
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = formatAxis(hi)
		case height - 1:
			label = formatAxis(lo)
		}
		b.WriteString(padCell(label, axisLabelWidth, true))
		b.WriteString(axisSeparator)
		for x := 0; x < width; x++ {
			mask, owner := uint8(0), -1
			for i, c := range canvases {
				if m := c.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			switch {
			case color && marked[x] && mask != 0:
				b.WriteString(markColor + string(ch) + colorReset)
			case color && owner >= 0:
				b.WriteString(palette[owner%len(palette)] + string(ch) + colorReset)
			default:
				b.WriteRune(ch)
			}
		}
		b.WriteByte('\n')
	}
	if p.XLabels[0] != "" || p.XLabels[1] != "" {
		gap := max(width-runewidth.StringWidth(p.XLabels[0])-runewidth.StringWidth(p.XLabels[1]), 1)
		b.WriteString(strings.Repeat(" ", axisLabelWidth+runewidth.StringWidth(axisSeparator)))
		b.WriteString(p.XLabels[0] + strings.Repeat(" ", gap) + p.XLabels[1])
		b.WriteByte('\n')
	}
	names := make([]string, len(kept))
	for i, s := range kept {
		names[i] = s.Name
		if color {
			names[i] = palette[i%len(palette)] + s.Name + colorReset
		}
	}
	b.WriteString("Legend: " + strings.Join(names, "  ") + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func formatAxis(v float64) string {
	if math.Abs(v) >= 100 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.3f", v)
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// canvas holds braille cells; each cell is 2 dots wide and 4 dots tall.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

func (c *canvas) rowFor(v, lo, hi float64) int {
	dots := len(c.cells) * 4
	pos := (v - lo) / (hi - lo)
	row := int(math.Round((1 - pos) * float64(dots-1)))
	return min(max(row, 0), dots-1)
}

// brailleBits maps a dot position (x in 0..1, y in 0..3) to its bit.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) dot(x, y int) {
	cy, cx := y/4, x/2
	if x < 0 || y < 0 || cy >= len(c.cells) || cx >= len(c.cells[cy]) {
		return
	}
	c.cells[cy][cx] |= brailleBits[x%2][y%4]
}

// line draws with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.dot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// resample averages buckets when shrinking and interpolates when stretching.
func resample(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start := i * n / width
			end := max((i+1)*n/width, start+1)
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := min(int(pos), n-2)
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}
