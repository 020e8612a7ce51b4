package coverage

import (
	"context"
	"log/slog"

	"github.com/star/orbitcov/internal/access"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/transform"
)

// PointingOptionsEvaluator reports, per time step and pointing option, the
// point where the sensor boresight meets the Earth.
type PointingOptionsEvaluator struct {
	logger *slog.Logger
}

func (e *PointingOptionsEvaluator) Type() Type { return TypePointingOptions }

func pointingViews(bus geometry.Orientation, opts []geometry.Orientation, shape geometry.Shape) ([]view, error) {
	vgs := make([]geometry.ViewGeometry, len(opts))
	for i, o := range opts {
		vgs[i] = geometry.ViewGeometry{Orientation: o, Shape: shape}
	}
	return resolveViews(bus, vgs)
}

// Execute evaluates pointing-options coverage. A mode without pointing
// options yields a skipped result and no file.
func (e *PointingOptionsEvaluator) Execute(ctx context.Context, req Request) (*Result, error) {
	p, err := prepare(req, false)
	if err != nil {
		return nil, err
	}
	if len(p.mode.PointingOptions) == 0 {
		return skipped(e.logger, TypePointingOptions, p, req), nil
	}
	views, err := pointingViews(req.Spacecraft.Bus, p.mode.PointingOptions, nil)
	if err != nil {
		return nil, err
	}

	var recs []access.Record
	for i, rec := range req.States.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := frameAt(req.States, i)
		if err != nil {
			return nil, err
		}
		for po, v := range views {
			// Row 2 of the Earth-fixed to sensor rotation is the boresight.
			boresight := v.nadirSensor.Mul(f.ecefNadir).Row(2)
			hit, ok := geometry.RaySphere(f.obs, boresight, transform.EarthRadius)
			if !ok {
				continue
			}
			lat, lon, _ := transform.ECEFToGeo(hit)
			recs = append(recs, access.Record{
				TimeIndex:      rec.Index,
				PointingOption: po,
				GridPoint:      -1,
				Lat:            lat,
				Lon:            lon,
			})
		}
	}
	return finish(e.logger, TypePointingOptions, p, req, recs)
}

// PointingOptionsGridEvaluator points the scene field of view at each
// pointing option in turn and reports the grid points inside it.
type PointingOptionsGridEvaluator struct {
	logger *slog.Logger
}

func (e *PointingOptionsGridEvaluator) Type() Type { return TypePointingOptionsWithGrid }

// Execute evaluates pointing-options coverage over a grid.
func (e *PointingOptionsGridEvaluator) Execute(ctx context.Context, req Request) (*Result, error) {
	p, err := prepare(req, true)
	if err != nil {
		return nil, err
	}
	if len(p.mode.PointingOptions) == 0 {
		return skipped(e.logger, TypePointingOptionsWithGrid, p, req), nil
	}
	views, err := pointingViews(req.Spacecraft.Bus, p.mode.PointingOptions, p.mode.SceneFOV.Shape)
	if err != nil {
		return nil, err
	}

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
		for po, v := range views {
			hits = group.InView(f.obs, v.nadirSensor.Mul(f.ecefNadir), v.shape, hits[:0])
			for _, gp := range hits {
				recs = append(recs, access.Record{
					TimeIndex:      rec.Index,
					PointingOption: po,
					GridPoint:      gp,
					Lat:            req.Grid.Lat[gp],
					Lon:            req.Grid.Lon[gp],
				})
			}
		}
	}
	return finish(e.logger, TypePointingOptionsWithGrid, p, req, recs)
}
