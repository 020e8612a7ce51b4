// Package grid builds the fixed sets of ground points coverage is evaluated on.
package grid

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/datafile"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/transform"
)

// Columns is the column row of a custom grid file.
var Columns = []string{"lat [deg]", "lon [deg]"}

// PointSet is an ordered, 0-indexed collection of surface points.
// It is immutable once built.
type PointSet struct {
	ID  string
	Lat []float64 // degrees, [-90, 90]
	Lon []float64 // degrees, [-180, 180]

	group *geometry.PointGroup
}

// New builds a point set from parallel latitude and longitude slices.
func New(id string, lat, lon []float64) (*PointSet, error) {
	if len(lat) != len(lon) {
		return nil, fmt.Errorf("grid %s: %d latitudes and %d longitudes", id, len(lat), len(lon))
	}
	for i := range lat {
		if lat[i] < -90 || lat[i] > 90 || lon[i] < -180 || lon[i] > 180 {
			return nil, fmt.Errorf("grid %s: point %d (%g, %g) out of range", id, i, lat[i], lon[i])
		}
	}
	return &PointSet{
		ID:    id,
		Lat:   lat,
		Lon:   lon,
		group: geometry.NewPointGroup(lat, lon, transform.EarthRadius),
	}, nil
}

// Len returns the number of points.
func (p *PointSet) Len() int { return len(p.Lat) }

// Group returns the query structure over the points.
func (p *PointSet) Group() *geometry.PointGroup { return p.group }

// FromBounds generates points between the bounds (degrees, inclusive) with
// approximately equal spacing: latitude rows res apart, and within each row
// a longitude step of res/cos(lat) so points stay about res apart on the
// ground. A pole row holds a single point.
func FromBounds(id string, latLower, latUpper, lonLower, lonUpper, res float64) (*PointSet, error) {
	if !(res > 0) {
		return nil, fmt.Errorf("grid %s: resolution %g must be positive", id, res)
	}
	const eps = 1e-9
	var lat, lon []float64
	nLat := int(math.Floor((latUpper-latLower)/res+eps)) + 1
	for i := 0; i < nLat; i++ {
		la := latLower + float64(i)*res
		c := math.Cos(geometry.Deg2Rad(la))
		if c < eps {
			lat = append(lat, la)
			lon = append(lon, lonLower)
			continue
		}
		step := res / c
		span := lonUpper - lonLower
		nLon := int(math.Floor(span/step+eps)) + 1
		if lonLower == -180 && lonUpper == 180 {
			// -180 and 180 are the same meridian.
			nLon = int(math.Ceil(360/step - eps))
		}
		for j := 0; j < nLon; j++ {
			lat = append(lat, la)
			lon = append(lon, lonLower+float64(j)*step)
		}
	}
	return New(id, lat, lon)
}

// Read parses a custom grid CSV with columns "lat [deg],lon [deg]".
func Read(id string, r io.Reader) (*PointSet, error) {
	br := bufio.NewReader(r)
	if err := datafile.ReadColumns(br, 1, Columns); err != nil {
		return nil, err
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = len(Columns)
	cr.TrimLeadingSpace = true
	var lat, lon []float64
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var ce *csv.ParseError
			if errors.As(err, &ce) {
				return nil, &datafile.ParseError{Line: ce.Line + 1, Reason: ce.Err.Error()}
			}
			return nil, fmt.Errorf("reading grid rows: %w", err)
		}
		line, _ := cr.FieldPos(0)
		la, err1 := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		lo, err2 := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err1 != nil || err2 != nil {
			return nil, &datafile.ParseError{Line: line + 1, Reason: fmt.Sprintf("invalid point %q", strings.Join(row, ","))}
		}
		lat = append(lat, la)
		lon = append(lon, lo)
	}
	return New(id, lat, lon)
}

// ReadFile parses the custom grid file at path.
func ReadFile(id, path string) (*PointSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening grid file: %w", err)
	}
	defer f.Close()
	p, err := Read(id, f)
	if err != nil {
		var pe *datafile.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, fmt.Errorf("reading grid file %s: %w", path, err)
	}
	return p, nil
}

// Write writes the point set as a custom grid CSV.
func (p *PointSet) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for i := range p.Lat {
		if err := cw.Write([]string{datafile.FormatFloat(p.Lat[i]), datafile.FormatFloat(p.Lon[i])}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FromConfig builds the grid a mission entry describes. Relative custom grid
// paths are resolved against baseDir.
func FromConfig(g config.Grid, baseDir string) (*PointSet, error) {
	switch g.Type {
	case config.GridAuto:
		return FromBounds(g.ID, g.LatLower, g.LatUpper, g.LonLower, g.LonUpper, g.GridRes)
	case config.GridCustom:
		path := g.FilePath
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return ReadFile(g.ID, path)
	default:
		return nil, &config.ConfigError{Field: "grid.@type", Reason: fmt.Sprintf("unknown grid type %q", g.Type)}
	}
}
