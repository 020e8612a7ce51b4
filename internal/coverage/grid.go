package coverage

import (
	"context"
	"log/slog"
	"slices"

	"github.com/star/orbitcov/internal/access"
	"github.com/star/orbitcov/internal/geometry"
)

// GridEvaluator reports, per time step, the grid points inside the scene
// field of view or inside any field-of-regard lobe.
type GridEvaluator struct {
	logger *slog.Logger
}

func (e *GridEvaluator) Type() Type { return TypeGrid }

// view is a shape with its nadir-to-sensor rotation resolved.
type view struct {
	shape       geometry.Shape
	nadirSensor geometry.DCM
}

func resolveViews(bus geometry.Orientation, vgs []geometry.ViewGeometry) ([]view, error) {
	out := make([]view, len(vgs))
	for i, vg := range vgs {
		c, err := geometry.SensorToNadir(bus, vg.Orientation)
		if err != nil {
			return nil, err
		}
		out[i] = view{shape: vg.Shape, nadirSensor: c}
	}
	return out, nil
}

// Execute evaluates grid coverage.
func (e *GridEvaluator) Execute(ctx context.Context, req Request) (*Result, error) {
	p, err := prepare(req, true)
	if err != nil {
		return nil, err
	}
	vgs := []geometry.ViewGeometry{p.mode.SceneFOV}
	if req.UseFieldOfRegard {
		vgs = p.mode.FieldOfRegard
	}
	views, err := resolveViews(req.Spacecraft.Bus, vgs)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("grid coverage views resolved",
		"run_id", p.runID.String(),
		"use_field_of_regard", req.UseFieldOfRegard,
		"views", len(views),
		"grid_points", req.Grid.Len(),
	)

	group := req.Grid.Group()
	var recs []access.Record
	var hits []int
	for i, rec := range req.States.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := frameAt(req.States, i)
		if err != nil {
			return nil, err
		}
		hits = hits[:0]
		for _, v := range views {
			hits = group.InView(f.obs, v.nadirSensor.Mul(f.ecefNadir), v.shape, hits)
		}
		if len(views) > 1 {
			slices.Sort(hits)
			hits = slices.Compact(hits)
		}
		for _, gp := range hits {
			recs = append(recs, access.Record{
				TimeIndex:      rec.Index,
				PointingOption: -1,
				GridPoint:      gp,
				Lat:            req.Grid.Lat[gp],
				Lon:            req.Grid.Lon[gp],
			})
		}
	}
	return finish(e.logger, TypeGrid, p, req, recs)
}
