// Package display is a character-grid display in the shape of a 20x4 LCD
package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

const (
	Columns = 20
	Rows    = 4
)

// Grid is a fixed character grid with a write cursor. Text written past the
// last column is clipped; out-of-range cursor positions are ignored.
type Grid struct {
	mu    sync.Mutex
	cells [Rows][Columns]byte
	col   int
	row   int
}

// NewGrid creates a blank grid
func NewGrid() *Grid {
	g := &Grid{}
	g.clear()
	return g
}

// Clear blanks the grid and homes the cursor
func (g *Grid) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clear()
}

func (g *Grid) clear() {
	for r := range g.cells {
		for c := range g.cells[r] {
			g.cells[r][c] = ' '
		}
	}
	g.col, g.row = 0, 0
}

// SetCursor moves the cursor; positions outside the grid are ignored
func (g *Grid) SetCursor(col, row int) {
	if col < 0 || col >= Columns || row < 0 || row >= Rows {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.col, g.row = col, row
}

// Print writes s at the cursor and advances it
func (g *Grid) Print(s string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < len(s); i++ {
		if g.col >= Columns {
			return
		}
		b := s[i]
		if b < 0x20 || b > 0x7e {
			b = '?'
		}
		g.cells[g.row][g.col] = b
		g.col++
	}
}

// PrintFloat writes v with prec digits after the decimal point
func (g *Grid) PrintFloat(v float64, prec int) {
	g.Print(strconv.FormatFloat(v, 'f', prec, 64))
}

// PrintRow clears row and writes s from its first column
func (g *Grid) PrintRow(row int, s string) {
	if row < 0 || row >= Rows {
		return
	}
	g.mu.Lock()
	for c := range g.cells[row] {
		g.cells[row][c] = ' '
	}
	g.col, g.row = 0, row
	g.mu.Unlock()
	g.Print(s)
}

// Rows returns a snapshot of every row with trailing blanks trimmed
func (g *Grid) Rows() [Rows]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out [Rows]string
	for r := range g.cells {
		out[r] = strings.TrimRight(string(g.cells[r][:]), " ")
	}
	return out
}

// WriteTo renders the grid inside a border
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	rows := g.Rows()
	var b strings.Builder
	border := "+" + strings.Repeat("-", Columns) + "+\n"
	b.WriteString(border)
	for _, r := range rows {
		fmt.Fprintf(&b, "|%-*s|\n", Columns, r)
	}
	b.WriteString(border)

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
