// Package config decodes and validates mission definitions: epoch and
// duration, spacecraft with their orbits and instruments, coverage grids,
// ground stations and run settings.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/star/orbitcov/internal/transform"
)

// Coverage type labels. They double as the first header line of access files.
const (
	CoverageGrid                    = "GRID COVERAGE"
	CoveragePointingOptions         = "POINTING OPTIONS COVERAGE"
	CoveragePointingOptionsWithGrid = "POINTING OPTIONS WITH GRID COVERAGE"
)

// Contact output types.
const (
	OutputInterval = "INTERVAL"
	OutputDetail   = "DETAIL"
)

// Propagator types.
const (
	PropagatorKepler = "KEPLER"
	PropagatorSGP4   = "SGP4"
)

// Mission is the top-level mission document.
type Mission struct {
	Epoch          Epoch           `json:"epoch"`
	Duration       float64         `json:"duration"` // days
	Propagator     Propagator      `json:"propagator"`
	Spacecraft     []Spacecraft    `json:"spacecraft"`
	Grid           []Grid          `json:"grid"`
	GroundStations []GroundStation `json:"groundStation"`
	Settings       Settings        `json:"settings"`
}

// Epoch is the mission start, either as a Julian Date or a UT1 calendar date.
type Epoch struct {
	Type   string  `json:"@type"` // JULIAN_DATE_UT1 or GREGORIAN_UT1
	JD     float64 `json:"jd"`
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Day    int     `json:"day"`
	Hour   int     `json:"hour"`
	Minute int     `json:"minute"`
	Second float64 `json:"second"`
}

// JulianDate returns the epoch as a Julian Date UT1.
func (e Epoch) JulianDate() (float64, error) {
	switch e.Type {
	case "JULIAN_DATE_UT1":
		if !(e.JD > 0) {
			return 0, invalid("epoch.jd", "must be positive, got %g", e.JD)
		}
		return e.JD, nil
	case "GREGORIAN_UT1":
		if e.Month < 1 || e.Month > 12 || e.Day < 1 || e.Day > 31 {
			return 0, invalid("epoch", "calendar date %04d-%02d-%02d out of range", e.Year, e.Month, e.Day)
		}
		whole, frac := math.Modf(e.Second)
		t := time.Date(e.Year, time.Month(e.Month), e.Day, e.Hour, e.Minute, int(whole), int(frac*1e9), time.UTC)
		return transform.JulianDate(t), nil
	default:
		return 0, invalid("epoch.@type", "unknown epoch type %q", e.Type)
	}
}

// Propagator selects orbit propagation settings.
type Propagator struct {
	Type     string  `json:"@type"`
	StepSize float64 `json:"stepSize"` // seconds
}

// Spacecraft is one satellite with its bus and instruments.
type Spacecraft struct {
	ID          string       `json:"@id"`
	Name        string       `json:"name"`
	Bus         Bus          `json:"spacecraftBus"`
	Orbit       OrbitState   `json:"orbitState"`
	Instruments []Instrument `json:"instrument"`
}

// Bus carries the spacecraft bus orientation relative to the nadir-pointing frame.
type Bus struct {
	Orientation *Orientation `json:"orientation"`
}

// OrbitState is the initial orbit: Keplerian elements (km, degrees), a TLE,
// or a previously written state file.
type OrbitState struct {
	Type string `json:"@type"` // KEPLERIAN_EARTH_CENTERED_INERTIAL, TLE or STATE_FILE

	SMA  float64 `json:"sma"`
	Ecc  float64 `json:"ecc"`
	Inc  float64 `json:"inc"`
	RAAN float64 `json:"raan"`
	AOP  float64 `json:"aop"`
	TA   float64 `json:"ta"`

	Line1   string `json:"line1"`
	Line2   string `json:"line2"`
	TLEFile string `json:"tleFile"`
	NoradID int    `json:"noradId"`

	StateFile string `json:"stateFile"`
}

// Orbit state types.
const (
	OrbitKeplerian = "KEPLERIAN_EARTH_CENTERED_INERTIAL"
	OrbitTLE       = "TLE"
	OrbitStateFile = "STATE_FILE"
)

// Grid is a coverage grid: either generated from bounds or read from a CSV.
type Grid struct {
	ID       string  `json:"@id"`
	Type     string  `json:"@type"` // autogrid or customGrid
	LatUpper float64 `json:"latUpper"`
	LatLower float64 `json:"latLower"`
	LonUpper float64 `json:"lonUpper"`
	LonLower float64 `json:"lonLower"`
	GridRes  float64 `json:"gridRes"` // degrees
	FilePath string  `json:"covGridFilePath"`
}

// Grid types.
const (
	GridAuto   = "autogrid"
	GridCustom = "customGrid"
)

// GroundStation is a fixed site on the Earth sphere.
type GroundStation struct {
	ID               string  `json:"@id"`
	Name             string  `json:"name"`
	Latitude         float64 `json:"latitude"`         // degrees
	Longitude        float64 `json:"longitude"`        // degrees
	Altitude         float64 `json:"altitude"`         // km
	MinimumElevation float64 `json:"minimumElevation"` // degrees
}

// Settings selects which evaluations run and how their output looks.
type Settings struct {
	CoverageType      string  `json:"coverageType"`
	UseFieldOfRegard  bool    `json:"useFieldOfRegard"`
	FilterMidAccess   bool    `json:"filterMidAccess"`
	OpaqueAtmosHeight float64 `json:"opaqueAtmosHeight"` // km
	OutputType        string  `json:"outputType"`
	ComputeEclipses   bool    `json:"computeEclipses"`
	ComputeContacts   bool    `json:"computeContacts"`
}

// Load reads and validates a mission file.
func Load(path string) (*Mission, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening mission file: %w", err)
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("mission file %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes, defaults and validates a mission document.
func Parse(r io.Reader) (*Mission, error) {
	var m Mission
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding mission json: %w", err)
	}
	m.applyDefaults()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Mission) applyDefaults() {
	if m.Propagator.Type == "" {
		m.Propagator.Type = PropagatorKepler
	}
	if m.Settings.CoverageType == "" {
		m.Settings.CoverageType = CoverageGrid
	}
	if m.Settings.OutputType == "" {
		m.Settings.OutputType = OutputInterval
	}
	for i := range m.Spacecraft {
		sc := &m.Spacecraft[i]
		if sc.ID == "" {
			sc.ID = "sat" + strconv.Itoa(i)
		}
		for j := range sc.Instruments {
			if sc.Instruments[j].ID == "" {
				sc.Instruments[j].ID = "instru" + strconv.Itoa(j)
			}
			for k := range sc.Instruments[j].Modes {
				if sc.Instruments[j].Modes[k].ID == "" {
					sc.Instruments[j].Modes[k].ID = strconv.Itoa(k)
				}
			}
		}
	}
	for i := range m.Grid {
		if m.Grid[i].ID == "" {
			m.Grid[i].ID = "grid" + strconv.Itoa(i)
		}
	}
	for i := range m.GroundStations {
		if m.GroundStations[i].ID == "" {
			m.GroundStations[i].ID = "gs" + strconv.Itoa(i)
		}
	}
}

// Validate checks every field needed before evaluation starts.
func (m *Mission) Validate() error {
	if _, err := m.Epoch.JulianDate(); err != nil {
		return err
	}
	if !(m.Duration > 0) {
		return invalid("duration", "must be positive, got %g days", m.Duration)
	}
	if !(m.Propagator.StepSize > 0) {
		return invalid("propagator.stepSize", "must be positive, got %g s", m.Propagator.StepSize)
	}
	switch m.Propagator.Type {
	case PropagatorKepler, PropagatorSGP4:
	default:
		return invalid("propagator.@type", "unknown propagator %q", m.Propagator.Type)
	}
	switch m.Settings.CoverageType {
	case CoverageGrid, CoveragePointingOptions, CoveragePointingOptionsWithGrid:
	default:
		return invalid("settings.coverageType", "unknown coverage type %q", m.Settings.CoverageType)
	}
	switch m.Settings.OutputType {
	case OutputInterval, OutputDetail:
	default:
		return invalid("settings.outputType", "unknown output type %q", m.Settings.OutputType)
	}
	if m.Settings.OpaqueAtmosHeight < 0 {
		return invalid("settings.opaqueAtmosHeight", "must not be negative, got %g km", m.Settings.OpaqueAtmosHeight)
	}

	seen := make(map[string]bool)
	for i, sc := range m.Spacecraft {
		field := fmt.Sprintf("spacecraft[%d]", i)
		if seen[sc.ID] {
			return invalid(field+".@id", "duplicate spacecraft id %q", sc.ID)
		}
		seen[sc.ID] = true
		if err := sc.Orbit.validate(field+".orbitState", m.Propagator.Type); err != nil {
			return err
		}
		if err := sc.Bus.Orientation.validate(field + ".spacecraftBus.orientation"); err != nil {
			return err
		}
		if o := sc.Bus.Orientation; o != nil && o.ReferenceFrame != "" && o.ReferenceFrame != "NADIR_POINTING" {
			return invalid(field+".spacecraftBus.orientation.referenceFrame", "bus must be oriented relative to NADIR_POINTING, got %q", o.ReferenceFrame)
		}
		for j, in := range sc.Instruments {
			if err := in.validate(fmt.Sprintf("%s.instrument[%d]", field, j)); err != nil {
				return err
			}
		}
	}
	for i, g := range m.Grid {
		if err := g.validate(fmt.Sprintf("grid[%d]", i)); err != nil {
			return err
		}
	}
	for i, gs := range m.GroundStations {
		field := fmt.Sprintf("groundStation[%d]", i)
		if gs.Latitude < -90 || gs.Latitude > 90 {
			return invalid(field+".latitude", "%g out of range [-90, 90]", gs.Latitude)
		}
		if gs.Longitude < -180 || gs.Longitude > 180 {
			return invalid(field+".longitude", "%g out of range [-180, 180]", gs.Longitude)
		}
		if gs.MinimumElevation < 0 || gs.MinimumElevation >= 90 {
			return invalid(field+".minimumElevation", "%g out of range [0, 90)", gs.MinimumElevation)
		}
	}
	return nil
}

func (o OrbitState) validate(field, propagator string) error {
	switch o.Type {
	case OrbitKeplerian:
		if propagator != PropagatorKepler {
			return invalid(field+".@type", "keplerian state needs the %s propagator", PropagatorKepler)
		}
		if !(o.SMA > transform.EarthRadius) {
			return invalid(field+".sma", "%g km is inside the Earth", o.SMA)
		}
		if o.Ecc < 0 || o.Ecc >= 1 {
			return invalid(field+".ecc", "%g out of range [0, 1)", o.Ecc)
		}
		if o.SMA*(1-o.Ecc) <= transform.EarthRadius {
			return invalid(field, "perigee radius %g km is inside the Earth", o.SMA*(1-o.Ecc))
		}
	case OrbitTLE:
		if propagator != PropagatorSGP4 {
			return invalid(field+".@type", "TLE state needs the %s propagator", PropagatorSGP4)
		}
		if o.TLEFile == "" && (o.Line1 == "" || o.Line2 == "") {
			return invalid(field, "TLE state needs line1 and line2 or tleFile")
		}
		if o.TLEFile != "" && o.NoradID == 0 {
			return invalid(field+".noradId", "required with tleFile")
		}
	case OrbitStateFile:
		if o.StateFile == "" {
			return invalid(field+".stateFile", "required")
		}
	default:
		return invalid(field+".@type", "unknown orbit state type %q", o.Type)
	}
	return nil
}

func (g Grid) validate(field string) error {
	switch g.Type {
	case GridAuto:
		if g.LatLower < -90 || g.LatUpper > 90 || g.LatLower > g.LatUpper {
			return invalid(field, "latitude bounds [%g, %g] invalid", g.LatLower, g.LatUpper)
		}
		if g.LonLower < -180 || g.LonUpper > 180 || g.LonLower > g.LonUpper {
			return invalid(field, "longitude bounds [%g, %g] invalid", g.LonLower, g.LonUpper)
		}
		if !(g.GridRes > 0) || g.GridRes > 180 {
			return invalid(field+".gridRes", "%g out of range (0, 180]", g.GridRes)
		}
	case GridCustom:
		if g.FilePath == "" {
			return invalid(field+".covGridFilePath", "required for %s", GridCustom)
		}
	default:
		return invalid(field+".@type", "unknown grid type %q", g.Type)
	}
	return nil
}
