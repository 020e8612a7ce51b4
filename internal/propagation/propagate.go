package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/state"
	"github.com/star/orbitcov/internal/tle"
	"github.com/star/orbitcov/internal/transform"
)

// Samples returns the number of time steps in a run: index 0 at the epoch up
// to the last whole step inside the duration.
func (c Config) Samples() int {
	return int(math.Floor(c.Duration*86400.0/c.StepSize+1e-9)) + 1
}

// Propagate samples p on the grid described by cfg. The context is checked
// between samples.
func Propagate(ctx context.Context, p Propagator, cfg Config) (*state.Series, error) {
	if !(cfg.StepSize > 0) || !(cfg.Duration > 0) {
		return nil, &config.ConfigError{Field: "propagator", Reason: fmt.Sprintf("step %g s and duration %g days must be positive", cfg.StepSize, cfg.Duration)}
	}
	epoch := cfg.Epoch
	if p.Name() == NameSGP4 {
		if cfg.StepSize != math.Trunc(cfg.StepSize) {
			return nil, &config.ConfigError{Field: "propagator.stepSize", Reason: fmt.Sprintf("SGP4 needs a whole number of seconds, got %g", cfg.StepSize)}
		}
		epoch = transform.JulianDate(transform.TimeFromJD(epoch).Round(time.Second))
	}

	n := cfg.Samples()
	s := &state.Series{Epoch: epoch, StepSize: cfg.StepSize, Duration: cfg.Duration, Records: make([]state.Record, n)}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := p.StateAt(s.JD(i))
		if err != nil {
			return nil, fmt.Errorf("time index %d: %w", i, err)
		}
		s.Records[i] = state.Record{Index: i, Position: st.Position, Velocity: st.Velocity}
	}
	return s, nil
}

// FromConfig builds the propagator for a configured spacecraft. A TLE file
// path is resolved against baseDir.
func FromConfig(sc config.Spacecraft, epoch float64, baseDir string, logger *slog.Logger) (Propagator, error) {
	o := sc.Orbit
	switch o.Type {
	case config.OrbitKeplerian:
		rad := geometry.Deg2Rad
		k, err := NewKepler(Elements{
			SMA:  o.SMA,
			Ecc:  o.Ecc,
			Inc:  rad(o.Inc),
			RAAN: rad(o.RAAN),
			AOP:  rad(o.AOP),
			TA:   rad(o.TA),
		}, epoch)
		if err != nil {
			return nil, &config.ConfigError{Field: "spacecraft " + sc.ID + ".orbitState", Reason: err.Error()}
		}
		return k, nil
	case config.OrbitTLE:
		line1, line2, norad := o.Line1, o.Line2, o.NoradID
		if o.TLEFile != "" {
			path := o.TLEFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			entries, err := tle.ParseFile(path, logger)
			if err != nil {
				return nil, err
			}
			e, ok := tle.Lookup(entries, o.NoradID)
			if !ok {
				return nil, &config.NotFoundError{Kind: "NORAD id", ID: fmt.Sprint(o.NoradID), Owner: "TLE file " + path}
			}
			line1, line2 = e.Line1, e.Line2
		}
		p, err := NewSGP4Propagator(line1, line2, norad)
		if err != nil {
			return nil, &config.ConfigError{Field: "spacecraft " + sc.ID + ".orbitState", Reason: err.Error()}
		}
		return p, nil
	default:
		return nil, &config.ConfigError{Field: "spacecraft " + sc.ID + ".orbitState.@type", Reason: fmt.Sprintf("unknown orbit state type %q", o.Type)}
	}
}
