package contact

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/star/orbitcov/internal/datafile"
	"github.com/star/orbitcov/internal/interval"
	"github.com/star/orbitcov/internal/metrics"
	"github.com/star/orbitcov/internal/state"
	"github.com/star/orbitcov/internal/transform"
	"github.com/star/orbitcov/internal/visibility"
)

// Request is the input to one contact evaluation.
type Request struct {
	A, B       Entity
	OutputType OutputType
	// OpaqueAtmosHeight (km) raises the obstructing sphere for
	// spacecraft-to-spacecraft pairs. Ground-station pairs ignore it.
	OpaqueAtmosHeight float64
	// OutPath is the file to write. Empty skips the file.
	OutPath string
}

// Result describes a completed contact or eclipse evaluation. A is always
// the spacecraft.
type Result struct {
	RunID     uuid.UUID
	AID, BID  string
	Header    datafile.PairHeader
	Samples   []visibility.Access
	Intervals []interval.Interval
	OutPath   string
}

// Finder runs contact and eclipse evaluations.
type Finder struct {
	logger *slog.Logger
}

// NewFinder creates a Finder.
func NewFinder(logger *slog.Logger) *Finder {
	return &Finder{logger: logger}
}

// Contacts evaluates line of sight between a pair of entities at every
// step of the spacecraft's state series.
func (f *Finder) Contacts(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	sc, other, err := canonical(req.A, req.B)
	if err != nil {
		return nil, err
	}
	if err := checkStates(sc); err != nil {
		return nil, err
	}

	t := &table{flag: "access"}
	var sample func(i int) (visibility.Access, error)
	switch o := other.(type) {
	case *Spacecraft:
		if err := checkStates(o); err != nil {
			return nil, err
		}
		if err := checkSync(sc, o); err != nil {
			return nil, err
		}
		radius := transform.EarthRadius + req.OpaqueAtmosHeight
		sample = func(i int) (visibility.Access, error) {
			return visibility.Evaluate(sc.States.Records[i].Position, o.States.Records[i].Position, radius, nil)
		}
	case *GroundStation:
		t.elevation = true
		site := o.Position()
		minEl := o.MinElevation
		sample = func(i int) (visibility.Access, error) {
			gs := sc.States.EarthRotation(i).ApplyT(site)
			return visibility.Evaluate(sc.States.Records[i].Position, gs, transform.EarthRadius, &minEl)
		}
	}

	t.header = datafile.PairHeader{
		Title:    datafile.PairTitle("Contacts", sc.ID, other.EntityID()),
		Epoch:    sc.States.Epoch,
		StepSize: sc.States.StepSize,
	}
	res, err := f.evaluate(ctx, t, sc.States, sample, req.OutputType, req.OutPath)
	if err != nil {
		return nil, fmt.Errorf("contacts %s to %s: %w", sc.ID, other.EntityID(), err)
	}
	res.AID, res.BID = sc.ID, other.EntityID()

	elapsed := time.Since(start)
	metrics.RecordPair("contact", elapsed, len(res.Intervals))
	f.logger.Info("contacts complete",
		"run_id", res.RunID.String(),
		"entity_a", res.AID,
		"entity_b", res.BID,
		"output_type", req.OutputType.String(),
		"intervals", len(res.Intervals),
		"out_path", req.OutPath,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

// EclipseRequest is the input to one eclipse evaluation.
type EclipseRequest struct {
	Spacecraft *Spacecraft
	OutputType OutputType
	OutPath    string
}

// SunID names the Sun in eclipse file titles.
const SunID = "Sun"

// Eclipses evaluates, at every step, whether the Earth blocks the line of
// sight from the spacecraft to the Sun.
func (f *Finder) Eclipses(ctx context.Context, req EclipseRequest) (*Result, error) {
	start := time.Now()
	sc := req.Spacecraft
	if sc == nil {
		return nil, fmt.Errorf("eclipses: no spacecraft")
	}
	if err := checkStates(sc); err != nil {
		return nil, err
	}
	t := &table{
		header: datafile.PairHeader{
			Title:    datafile.PairTitle("Eclipses", sc.ID, SunID),
			Epoch:    sc.States.Epoch,
			StepSize: sc.States.StepSize,
		},
		flag:      "eclipse",
		elevation: true,
	}
	sample := func(i int) (visibility.Access, error) {
		rec := sc.States.Records[i]
		sun := transform.SunPositionECI(sc.States.JD(rec.Index))
		los, err := visibility.LineOfSight(rec.Position, sun, transform.EarthRadius)
		if err != nil {
			return visibility.Access{}, err
		}
		el, err := visibility.Elevation(sun, rec.Position)
		if err != nil {
			return visibility.Access{}, err
		}
		return visibility.Access{Visible: !los, RangeKm: visibility.Range(rec.Position, sun), Elevation: el}, nil
	}
	res, err := f.evaluate(ctx, t, sc.States, sample, req.OutputType, req.OutPath)
	if err != nil {
		return nil, fmt.Errorf("eclipses of %s: %w", sc.ID, err)
	}
	res.AID, res.BID = sc.ID, SunID

	elapsed := time.Since(start)
	metrics.RecordPair("eclipse", elapsed, len(res.Intervals))
	f.logger.Info("eclipses complete",
		"run_id", res.RunID.String(),
		"spacecraft_id", sc.ID,
		"output_type", req.OutputType.String(),
		"intervals", len(res.Intervals),
		"out_path", req.OutPath,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

// evaluate samples every step, extracts intervals and writes the file.
func (f *Finder) evaluate(ctx context.Context, t *table, s *state.Series, sample func(int) (visibility.Access, error), out OutputType, path string) (*Result, error) {
	n := len(s.Records)
	t.index = s.Indices()
	t.samples = make([]visibility.Access, n)
	signal := make([]bool, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := sample(i)
		if err != nil {
			return nil, fmt.Errorf("time index %d: %w", t.index[i], err)
		}
		t.samples[i] = a
		signal[i] = a.Visible
	}
	ivs, err := interval.Extract(signal, t.index)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := t.writeFile(path, out, ivs); err != nil {
			return nil, err
		}
	}
	return &Result{
		RunID:     uuid.New(),
		Header:    t.header,
		Samples:   t.samples,
		Intervals: ivs,
		OutPath:   path,
	}, nil
}

func checkStates(sc *Spacecraft) error {
	if sc.States == nil || len(sc.States.Records) == 0 {
		return fmt.Errorf("spacecraft %s has no states", sc.ID)
	}
	return nil
}
