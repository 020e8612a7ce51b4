// Package access holds coverage access records, the access file format and
// the mid-interval access filter.
package access

import (
	"cmp"
	"slices"
)

// Kind identifies which coverage variant produced a set of records. It
// decides the file label and columns.
type Kind int

const (
	Grid Kind = iota
	PointingOptions
	PointingOptionsWithGrid
)

// Label returns the first header line for the kind.
func (k Kind) Label() string {
	switch k {
	case PointingOptions:
		return "POINTING OPTIONS COVERAGE"
	case PointingOptionsWithGrid:
		return "POINTING OPTIONS WITH GRID COVERAGE"
	default:
		return "GRID COVERAGE"
	}
}

// Columns returns the column row for the kind.
func (k Kind) Columns() []string {
	switch k {
	case PointingOptions:
		return []string{"time index", "pnt-opt index", "lat [deg]", "lon [deg]"}
	case PointingOptionsWithGrid:
		return []string{"time index", "pnt-opt index", "GP index", "lat [deg]", "lon [deg]"}
	default:
		return []string{"time index", "GP index", "lat [deg]", "lon [deg]"}
	}
}

// HasPointingOption reports whether records of this kind carry a pointing
// option index.
func (k Kind) HasPointingOption() bool {
	return k == PointingOptions || k == PointingOptionsWithGrid
}

// HasGridPoint reports whether records of this kind carry a grid point index.
func (k Kind) HasGridPoint() bool {
	return k == Grid || k == PointingOptionsWithGrid
}

// Record is one access event. PointingOption and GridPoint are -1 when the
// kind does not carry them.
type Record struct {
	TimeIndex      int
	PointingOption int
	GridPoint      int
	Lat            float64 // degrees
	Lon            float64 // degrees
}

// compare orders records by time, then pointing option, then grid point.
func compare(a, b Record) int {
	if c := cmp.Compare(a.TimeIndex, b.TimeIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(a.PointingOption, b.PointingOption); c != 0 {
		return c
	}
	return cmp.Compare(a.GridPoint, b.GridPoint)
}

// Sort orders records by time index, breaking ties by pointing option and
// then grid point. Equal records keep their relative order.
func Sort(recs []Record) {
	slices.SortStableFunc(recs, compare)
}

type groupKey struct {
	pntOpt, gp int
}

// FilterMidAccess collapses every contiguous access run to its middle row.
//
// Rows are grouped by (pointing option, grid point); the -1 placeholder
// makes this the grid point alone for grid coverage and the pointing option
// alone for pointing-options coverage. Within a group a new run starts
// wherever the time index jumps by more than one. A run spanning group
// positions [a, b] is represented by position floor((a+b)/2 + 0.5). The
// result is sorted by time index, then pointing option, then grid point.
func FilterMidAccess(recs []Record) []Record {
	groups := make(map[groupKey][]Record)
	var order []groupKey
	for _, r := range recs {
		k := groupKey{r.PointingOption, r.GridPoint}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]Record, 0, len(order))
	for _, k := range order {
		g := groups[k]
		start := 0
		for i := 1; i <= len(g); i++ {
			if i == len(g) || g[i].TimeIndex-g[i-1].TimeIndex > 1 {
				out = append(out, g[midpoint(start, i-1)])
				start = i
			}
		}
	}
	Sort(out)
	return out
}

// midpoint rounds half up: floor((a+b)/2 + 0.5) on non-negative positions.
func midpoint(a, b int) int {
	return (a + b + 1) / 2
}
