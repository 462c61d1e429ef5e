package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/inkgrid/server/internal/grid"
	"github.com/inkgrid/server/pkg/hexcolor"
)

func testGrid(t *testing.T) *grid.ColorGrid {
	t.Helper()
	g, err := grid.NewColorGrid(grid.Spec{Cols: 3, Rows: 2}, [][]hexcolor.RGB{
		{{R: 0, G: 0, B: 0}, {R: 255, G: 255, B: 255}, {R: 255}},
		{{B: 255}, {R: 51, G: 51, B: 51}, {R: 100, G: 150, B: 200}},
	})
	if err != nil {
		t.Fatalf("NewColorGrid: %v", err)
	}
	return g
}

func TestBuildOrderAndNumbering(t *testing.T) {
	records := Build(testGrid(t))

	want := []struct{ no, addr, hex string }{
		{"0001", "0101", "#000000"},
		{"0002", "0201", "#ffffff"},
		{"0003", "0301", "#ff0000"},
		{"0004", "0102", "#0000ff"},
		{"0005", "0202", "#333333"},
		{"0006", "0302", "#6496c8"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		r := records[i]
		if r.Ordinal != w.no || r.Address != w.addr || r.Hex != w.hex {
			t.Errorf("record %d = %+v, want %s %s %s", i, r, w.no, w.addr, w.hex)
		}
	}

	if records[0].Ink.Black != 100 {
		t.Errorf("black cell: expected 100%% black, got %+v", records[0].Ink)
	}
	if records[1].Ink.White != 100 {
		t.Errorf("white cell: expected 100%% white, got %+v", records[1].Ink)
	}
	if records[4].Ink.Black != 80 || records[4].Ink.White != 20 {
		t.Errorf("grey cell: unexpected mix %+v", records[4].Ink)
	}
}

func TestBuildLargeGridOrdinals(t *testing.T) {
	img := grid.Uniform(100, 100, hexcolor.RGB{R: 9, G: 9, B: 9})
	g, err := grid.Sample(img, grid.Spec{Cols: 50, Rows: 50})
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	records := Build(g)
	if len(records) != 2500 {
		t.Fatalf("got %d records, want 2500", len(records))
	}
	last := records[len(records)-1]
	if last.Ordinal != "2500" || last.Address != "5050" {
		t.Fatalf("unexpected last record %+v", last)
	}
	// Row 2, col 1 is ordinal 51.
	if r := records[50]; r.Ordinal != "0051" || r.Address != "0102" {
		t.Fatalf("unexpected record 51: %+v", r)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Build(testGrid(t))); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data := buf.Bytes()
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatal("missing UTF-8 BOM")
	}

	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(rows) != 7 {
		t.Fatalf("got %d rows, want header + 6", len(rows))
	}
	if got := strings.Join(rows[0], ","); got != "No,Grid Position,Color Code,Cyan(%),Magenta(%),Yellow(%),Black(%),White(%)" {
		t.Fatalf("unexpected header %q", got)
	}
	if got := strings.Join(rows[1], ","); got != "0001,0101,#000000,0.0,0.0,0.0,100.0,0.0" {
		t.Fatalf("unexpected first row %q", got)
	}
	if got := strings.Join(rows[3], ","); got != "0003,0301,#ff0000,0.0,50.0,50.0,0.0,0.0" {
		t.Fatalf("unexpected third row %q", got)
	}
}

func TestFormatShare(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{100, "100.0"},
		{50, "50.0"},
		{53.12, "53.12"},
		{15.6, "15.6"},
		{0.01, "0.01"},
	}
	for _, tt := range tests {
		if got := formatShare(tt.in); got != tt.want {
			t.Errorf("formatShare(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
