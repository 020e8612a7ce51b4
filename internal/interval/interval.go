// Package interval turns sampled boolean signals into closed index intervals.
// Contact, eclipse and inter-satellite finders all go through Extract so that
// they share one boundary policy.
package interval

import "fmt"

// Interval is an inclusive [Start, End] range of time indices over which a
// condition held at every sample.
type Interval struct {
	Start int
	End   int
}

// Extract returns the sorted, gap-separated intervals over which signal is
// true. index holds the time index of each sample and must be strictly
// increasing and the same length as signal.
//
// A rising edge at sample i opens a run at index[i]; a falling edge at
// sample i closes it at index[i-1], the last true sample. A run that is true
// at the first sample opens at index[0], and a run still open at the last
// sample is closed at index[n-1].
func Extract(signal []bool, index []int) ([]Interval, error) {
	if len(signal) != len(index) {
		return nil, fmt.Errorf("signal length %d != index length %d", len(signal), len(index))
	}
	for i := 1; i < len(index); i++ {
		if index[i] <= index[i-1] {
			return nil, fmt.Errorf("time index not strictly increasing at position %d (%d after %d)", i, index[i], index[i-1])
		}
	}
	b := boundaries(signal, index)
	out := make([]Interval, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		out = append(out, Interval{Start: b[i], End: b[i+1]})
	}
	return out, nil
}

// boundaries returns the run boundaries after the closing rule, which always
// leaves an even count.
func boundaries(signal []bool, index []int) []int {
	n := len(signal)
	if n == 0 {
		return nil
	}
	var b []int
	if signal[0] {
		b = append(b, index[0])
	}
	for i := 1; i < n; i++ {
		switch {
		case signal[i] && !signal[i-1]:
			b = append(b, index[i])
		case !signal[i] && signal[i-1]:
			b = append(b, index[i-1])
		}
	}
	if len(b)%2 == 1 {
		b = append(b, index[n-1])
	}
	return b
}

// Expand writes intervals back into a boolean signal aligned with index.
func Expand(intervals []Interval, index []int) []bool {
	out := make([]bool, len(index))
	for _, iv := range intervals {
		for i, t := range index {
			if t >= iv.Start && t <= iv.End {
				out[i] = true
			}
		}
	}
	return out
}

// Duration returns the number of samples covered by iv on a contiguous index.
func (iv Interval) Duration() int {
	return iv.End - iv.Start + 1
}
