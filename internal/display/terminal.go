// internal/display/terminal.go
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal cell size in panel pixels.
const (
	cellW = CharWidth
	cellH = 8
)

type cell struct {
	ch     rune
	fg, bg Color
}

// Terminal is a Surface that keeps a character grid of the panel and
// paints it to a terminal with lipgloss. Text scale only affects layout
// on the real panel; every glyph takes one cell here.
type Terminal struct {
	mu     sync.Mutex
	w      io.Writer
	cols   int
	rows   int
	cells  []cell
	styles map[[2]Color]lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	t := &Terminal{
		w:      w,
		cols:   Width / cellW,
		rows:   Height / cellH,
		styles: make(map[[2]Color]lipgloss.Style),
	}
	t.cells = make([]cell, t.cols*t.rows)
	for i := range t.cells {
		t.cells[i] = cell{ch: ' ', fg: Text, bg: Black}
	}
	return t
}

func (t *Terminal) FillRect(x1, y1, x2, y2 int, c Color) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c1, c2 := clampInt(x1/cellW, 0, t.cols-1), clampInt(x2/cellW, 0, t.cols-1)
	r1, r2 := clampInt(y1/cellH, 0, t.rows-1), clampInt(y2/cellH, 0, t.rows-1)
	for r := r1; r <= r2; r++ {
		for col := c1; col <= c2; col++ {
			t.cells[r*t.cols+col] = cell{ch: ' ', fg: Text, bg: c}
		}
	}
}

func (t *Terminal) DrawText(s string, x, y, scale int, fg, bg Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.put(s, x/cellW, y/cellH, fg, bg)
}

func (t *Terminal) DrawCenteredText(s string, x, y, scale int, fg, bg Color) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.put(s, x/cellW-len(s)/2, y/cellH, fg, bg)
}

func (t *Terminal) put(s string, col, row int, fg, bg Color) {
	if row < 0 || row >= t.rows {
		return
	}
	for _, ch := range s {
		if col >= 0 && col < t.cols {
			t.cells[row*t.cols+col] = cell{ch: ch, fg: fg, bg: bg}
		}
		col++
	}
}

// Text returns the grid as plain text, one line per row.
func (t *Terminal) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for r := 0; r < t.rows; r++ {
		for col := 0; col < t.cols; col++ {
			b.WriteRune(t.cells[r*t.cols+col].ch)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Render returns the styled grid.
func (t *Terminal) Render() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var b strings.Builder
	for r := 0; r < t.rows; r++ {
		row := t.cells[r*t.cols : (r+1)*t.cols]
		start := 0
		for i := 1; i <= len(row); i++ {
			if i < len(row) && row[i].fg == row[start].fg && row[i].bg == row[start].bg {
				continue
			}
			var run strings.Builder
			for _, c := range row[start:i] {
				run.WriteRune(c.ch)
			}
			b.WriteString(t.style(row[start].fg, row[start].bg).Render(run.String()))
			start = i
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Flush repaints the terminal from the top-left corner.
func (t *Terminal) Flush() error {
	_, err := io.WriteString(t.w, "\x1b[H"+t.Render())
	return err
}

func (t *Terminal) style(fg, bg Color) lipgloss.Style {
	key := [2]Color{fg, bg}
	if st, ok := t.styles[key]; ok {
		return st
	}
	st := lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor(fg))).
		Background(lipgloss.Color(hexColor(bg)))
	t.styles[key] = st
	return st
}

func hexColor(c Color) string {
	r, g, b := c.RGB8()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
