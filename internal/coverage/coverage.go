// Package coverage evaluates which ground points or surface intersections a
// spacecraft sensor sees at each step of a state time series.
//
// The variants form a closed set selected by Type: grid coverage over a
// scene field of view or field-of-regard lobes, pointing-options coverage
// by boresight intersection, and pointing-options coverage over a grid.
package coverage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/star/orbitcov/internal/access"
	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/datafile"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/grid"
	"github.com/star/orbitcov/internal/instrument"
	"github.com/star/orbitcov/internal/metrics"
	"github.com/star/orbitcov/internal/state"
	"github.com/star/orbitcov/internal/visibility"
)

// Type selects a coverage variant. It is the access record kind the
// variant produces.
type Type = access.Kind

const (
	TypeGrid                    = access.Grid
	TypePointingOptions         = access.PointingOptions
	TypePointingOptionsWithGrid = access.PointingOptionsWithGrid
)

// ParseType maps a coverage type label to a Type.
func ParseType(label string) (Type, error) {
	switch label {
	case config.CoverageGrid:
		return TypeGrid, nil
	case config.CoveragePointingOptions:
		return TypePointingOptions, nil
	case config.CoveragePointingOptionsWithGrid:
		return TypePointingOptionsWithGrid, nil
	default:
		return 0, &config.ConfigError{Field: "settings.coverageType", Reason: fmt.Sprintf("unknown coverage type %q", label)}
	}
}

// Request is the input to one coverage evaluation. Inputs are read-only.
type Request struct {
	States       *state.Series
	Grid         *grid.PointSet // required by the grid variants
	Spacecraft   *instrument.Spacecraft
	InstrumentID string // empty selects the first instrument
	ModeID       string // empty selects the first mode

	UseFieldOfRegard bool // grid variant only
	FilterMidAccess  bool

	// OutPath is the access file to write. Empty skips the file.
	OutPath string
}

// Result describes a completed evaluation.
type Result struct {
	RunID        uuid.UUID
	Type         Type
	SpacecraftID string
	InstrumentID string
	ModeID       string
	GridID       string
	Header       datafile.Header
	Records      []access.Record
	OutPath      string
	// Skipped is set when the mode declares no pointing options and a
	// pointing-options variant had nothing to evaluate.
	Skipped bool
}

// Evaluator runs one coverage variant.
type Evaluator interface {
	Type() Type
	Execute(ctx context.Context, req Request) (*Result, error)
}

// New returns the evaluator for t.
func New(t Type, logger *slog.Logger) (Evaluator, error) {
	switch t {
	case TypeGrid:
		return &GridEvaluator{logger: logger}, nil
	case TypePointingOptions:
		return &PointingOptionsEvaluator{logger: logger}, nil
	case TypePointingOptionsWithGrid:
		return &PointingOptionsGridEvaluator{logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown coverage type %d", t)
	}
}

// stepFrame is the Earth-fixed observer position and the Earth-fixed to
// nadir-pointing rotation at one time step.
type stepFrame struct {
	obs       geometry.Vec3
	ecefNadir geometry.DCM
}

func frameAt(s *state.Series, i int) (stepFrame, error) {
	rec := s.Records[i]
	nadir, ok := geometry.NadirFrame(rec.Position, rec.Velocity)
	if !ok {
		return stepFrame{}, fmt.Errorf("time index %d: %w", rec.Index, &visibility.GeometryDegenerateError{
			A: rec.Position, B: rec.Velocity, Reason: "position and velocity do not define a nadir frame",
		})
	}
	earth := s.EarthRotation(i)
	return stepFrame{
		obs:       earth.Apply(rec.Position),
		ecefNadir: nadir.Mul(earth.Transpose()),
	}, nil
}

// prepared holds what every variant resolves before its time loop.
type prepared struct {
	runID uuid.UUID
	inst  *instrument.Instrument
	mode  *instrument.Mode
	start time.Time
}

func prepare(req Request, needGrid bool) (prepared, error) {
	if req.States == nil || len(req.States.Records) == 0 {
		return prepared{}, &config.ConfigError{Field: "states", Reason: "empty state time series"}
	}
	if req.Spacecraft == nil {
		return prepared{}, &config.ConfigError{Field: "spacecraft", Reason: "required"}
	}
	if needGrid && req.Grid == nil {
		return prepared{}, &config.ConfigError{Field: "grid", Reason: "required for grid coverage"}
	}
	inst, mode, err := req.Spacecraft.Select(req.InstrumentID, req.ModeID)
	if err != nil {
		return prepared{}, err
	}
	return prepared{runID: uuid.New(), inst: inst, mode: mode, start: time.Now()}, nil
}

// finish filters, writes and records a completed evaluation.
func finish(logger *slog.Logger, t Type, p prepared, req Request, recs []access.Record) (*Result, error) {
	if req.FilterMidAccess {
		recs = access.FilterMidAccess(recs)
	}
	res := &Result{
		RunID:        p.runID,
		Type:         t,
		SpacecraftID: req.Spacecraft.ID,
		InstrumentID: p.inst.ID,
		ModeID:       p.mode.ID,
		Header:       req.States.Header(t.Label()),
		Records:      recs,
		OutPath:      req.OutPath,
	}
	if req.Grid != nil && t.HasGridPoint() {
		res.GridID = req.Grid.ID
	}
	if req.OutPath != "" {
		if err := access.WriteFile(req.OutPath, t, res.Header, recs); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(p.start)
	metrics.RecordCoverage(t.Label(), elapsed, len(recs))
	logger.Info("coverage complete",
		"run_id", p.runID.String(),
		"coverage_type", t.Label(),
		"spacecraft_id", res.SpacecraftID,
		"instrument_id", res.InstrumentID,
		"mode_id", res.ModeID,
		"grid_id", res.GridID,
		"records", len(recs),
		"out_path", req.OutPath,
		"duration_ms", elapsed.Milliseconds(),
	)
	return res, nil
}

func skipped(logger *slog.Logger, t Type, p prepared, req Request) *Result {
	logger.Info("no pointing options declared, skipping",
		"run_id", p.runID.String(),
		"coverage_type", t.Label(),
		"spacecraft_id", req.Spacecraft.ID,
		"instrument_id", p.inst.ID,
		"mode_id", p.mode.ID,
	)
	return &Result{
		RunID:        p.runID,
		Type:         t,
		SpacecraftID: req.Spacecraft.ID,
		InstrumentID: p.inst.ID,
		ModeID:       p.mode.ID,
		Header:       req.States.Header(t.Label()),
		Skipped:      true,
	}
}
