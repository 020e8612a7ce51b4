// Package datafile reads and writes the header block shared by state and
// access files:
//
//	<label>
//	Epoch [JDUT1] is <float>
//	Step size [s] is <float>
//	Mission Duration [Days] is <float>
//
// followed by a comma-separated column row and data rows.
package datafile

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

const (
	epochPrefix    = "Epoch [JDUT1] is "
	stepPrefix     = "Step size [s] is "
	durationPrefix = "Mission Duration [Days] is "
)

// Header is the metadata block at the top of a state or access file.
type Header struct {
	Label    string
	Epoch    float64 // Julian Date UT1
	StepSize float64 // seconds
	Duration float64 // days
}

// ParseError reports a malformed line. Line is 1-based.
type ParseError struct {
	Path   string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}

// FormatFloat renders a float the way the file formats expect: shortest
// round-trip representation, with a trailing ".0" on integral values.
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !math.IsInf(f, 0) && !math.IsNaN(f) && !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// FormatFixed renders a float with a fixed number of decimals.
func FormatFixed(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// WriteHeader writes the four header lines.
func WriteHeader(w io.Writer, h Header) error {
	_, err := fmt.Fprintf(w, "%s\n%s%s\n%s%s\n%s%s\n",
		h.Label,
		epochPrefix, FormatFloat(h.Epoch),
		stepPrefix, FormatFloat(h.StepSize),
		durationPrefix, FormatFloat(h.Duration),
	)
	return err
}

// ReadHeader consumes the four header lines from r.
func ReadHeader(r *bufio.Reader) (Header, error) {
	var h Header
	label, err := readLine(r, 1)
	if err != nil {
		return h, err
	}
	h.Label = label

	fields := []struct {
		prefix string
		dst    *float64
	}{
		{epochPrefix, &h.Epoch},
		{stepPrefix, &h.StepSize},
		{durationPrefix, &h.Duration},
	}
	for i, f := range fields {
		line, err := readLine(r, i+2)
		if err != nil {
			return h, err
		}
		v, err := parsePrefixed(line, f.prefix)
		if err != nil {
			return h, &ParseError{Line: i + 2, Reason: err.Error()}
		}
		*f.dst = v
	}
	return h, nil
}

// ReadColumns consumes the column row and checks it against want.
func ReadColumns(r *bufio.Reader, line int, want []string) error {
	got, err := readLine(r, line)
	if err != nil {
		return err
	}
	if got != strings.Join(want, ",") {
		return &ParseError{Line: line, Reason: fmt.Sprintf("column row %q, want %q", got, strings.Join(want, ","))}
	}
	return nil
}

func readLine(r *bufio.Reader, line int) (string, error) {
	s, err := r.ReadString('\n')
	if err == io.EOF && s == "" {
		return "", &ParseError{Line: line, Reason: "unexpected end of file"}
	}
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("reading line %d: %w", line, err)
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func parsePrefixed(line, prefix string) (float64, error) {
	if !strings.HasPrefix(line, prefix) {
		return 0, fmt.Errorf("expected %q, got %q", strings.TrimSpace(prefix)+" <float>", line)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[len(prefix):]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in %q: %w", line, err)
	}
	return v, nil
}
