package tle

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"

	starlinkLine1 = "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995"
	starlinkLine2 = "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  []int
		names []string
	}{
		{"three line", "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n", []int{25544}, []string{"ISS (ZARYA)"}},
		{"two line", issLine1 + "\n" + issLine2 + "\n", []int{25544}, []string{""}},
		{
			"mixed with blank lines",
			issLine1 + "\n\n" + issLine2 + "\nSTARLINK-1007\r\n" + starlinkLine1 + "\r\n" + starlinkLine2 + "\r\n",
			[]int{25544, 44713},
			[]string{"", "STARLINK-1007"},
		},
		{"name line without prefix", "JUNK\n" + issLine1 + "\n" + issLine2 + "\n", []int{25544}, []string{"JUNK"}},
		{"mismatched ids", issLine1 + "\n" + starlinkLine2 + "\n", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := Parse(strings.NewReader(tt.in), testLogger())
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(entries), len(tt.want))
			}
			for i, e := range entries {
				if e.NORADID != tt.want[i] {
					t.Errorf("entry %d NORAD = %d, want %d", i, e.NORADID, tt.want[i])
				}
				if e.Name != tt.names[i] {
					t.Errorf("entry %d name = %q, want %q", i, e.Name, tt.names[i])
				}
			}
		})
	}
}

func TestParseEpoch(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"24100.50000000", time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)},
		{"99001.00000000", time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"57001.25000000", time.Date(1957, 1, 1, 6, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEpoch(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if d := got.Sub(tt.want); d > time.Millisecond || d < -time.Millisecond {
				t.Errorf("parseEpoch(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
	if _, err := parseEpoch("2x"); err == nil {
		t.Error("expected error for short epoch")
	}
}

func TestLookup(t *testing.T) {
	older := TLEEntry{NORADID: 1, Epoch: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Line1: "old"}
	newer := TLEEntry{NORADID: 1, Epoch: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Line1: "new"}
	other := TLEEntry{NORADID: 2}
	got, ok := Lookup([]TLEEntry{older, other, newer}, 1)
	if !ok || got.Line1 != "new" {
		t.Errorf("Lookup = %+v, %v; want newest entry", got, ok)
	}
	if _, ok := Lookup([]TLEEntry{other}, 1); ok {
		t.Error("Lookup found a missing id")
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sats.tle")
	if err := os.WriteFile(path, []byte("ISS\n"+issLine1+"\n"+issLine2+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, err := ParseFile(path, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Line2 != issLine2 {
		t.Errorf("ParseFile = %+v", entries)
	}
	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.tle"), testLogger()); err == nil {
		t.Error("expected error for missing file")
	}
}
