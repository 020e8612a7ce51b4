package datafile

import (
	"bufio"
	"fmt"
	"io"
)

// PairHeader is the three-line preamble of contact and eclipse files.
type PairHeader struct {
	Title    string // names both entity ids
	Epoch    float64
	StepSize float64
}

// PairTitle builds the first preamble line. The ids sit at fixed word
// positions (5 and 10, 0-based) so they can be recovered by splitting on
// spaces.
func PairTitle(kind, idA, idB string) string {
	return fmt.Sprintf("%s between Entity1 with id %s with Entity2 with id %s", kind, idA, idB)
}

// WritePairHeader writes the three preamble lines.
func WritePairHeader(w io.Writer, h PairHeader) error {
	_, err := fmt.Fprintf(w, "%s\n%s%s\n%s%s\n",
		h.Title,
		epochPrefix, FormatFloat(h.Epoch),
		stepPrefix, FormatFloat(h.StepSize),
	)
	return err
}

// ReadPairHeader consumes the three preamble lines.
func ReadPairHeader(r *bufio.Reader) (PairHeader, error) {
	var h PairHeader
	title, err := readLine(r, 1)
	if err != nil {
		return h, err
	}
	h.Title = title
	line, err := readLine(r, 2)
	if err != nil {
		return h, err
	}
	if h.Epoch, err = parsePrefixed(line, epochPrefix); err != nil {
		return h, &ParseError{Line: 2, Reason: err.Error()}
	}
	line, err = readLine(r, 3)
	if err != nil {
		return h, err
	}
	if h.StepSize, err = parsePrefixed(line, stepPrefix); err != nil {
		return h, &ParseError{Line: 3, Reason: err.Error()}
	}
	return h, nil
}
