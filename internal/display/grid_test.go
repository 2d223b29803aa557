package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintAndClip(t *testing.T) {
	g := NewGrid()
	g.SetCursor(0, 0)
	g.Print("Device: 1")
	g.SetCursor(15, 1)
	g.Print("0123456789")

	rows := g.Rows()
	if rows[0] != "Device: 1" {
		t.Errorf("Row 0: got %q", rows[0])
	}
	if rows[1] != strings.Repeat(" ", 15)+"01234" {
		t.Errorf("Row 1 should clip at column 20, got %q", rows[1])
	}
}

func TestCursorOutOfRangeIgnored(t *testing.T) {
	g := NewGrid()
	g.SetCursor(2, 2)
	g.SetCursor(25, 1)
	g.SetCursor(0, 4)
	g.SetCursor(-1, 0)
	g.Print("x")

	if got := g.Rows()[2]; got != "  x" {
		t.Errorf("Expected write at (2,2), got row %q", got)
	}
}

func TestPrintFloat(t *testing.T) {
	g := NewGrid()
	g.PrintFloat(1234.5678, 2)
	g.Print("Hz")
	if got := g.Rows()[0]; got != "1234.57Hz" {
		t.Errorf("Got %q", got)
	}
}

func TestPrintRowReplacesContent(t *testing.T) {
	g := NewGrid()
	g.PrintRow(3, "long long long text")
	g.PrintRow(3, "short")
	if got := g.Rows()[3]; got != "short" {
		t.Errorf("Got %q", got)
	}

	g.Clear()
	for i, r := range g.Rows() {
		if r != "" {
			t.Errorf("Row %d not cleared: %q", i, r)
		}
	}
}

func TestWriteTo(t *testing.T) {
	g := NewGrid()
	g.Print("hi")

	var buf bytes.Buffer
	if _, err := g.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != Rows+2 {
		t.Fatalf("Expected %d lines, got %d", Rows+2, len(lines))
	}
	if lines[1] != "|hi"+strings.Repeat(" ", Columns-2)+"|" {
		t.Errorf("Unexpected first row %q", lines[1])
	}
}
