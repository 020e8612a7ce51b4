// Package mission runs a whole mission: it propagates every spacecraft and
// then fans the coverage, contact and eclipse evaluations out over a bounded
// set of goroutines. Every evaluation writes to its own path under the
// output directory:
//
//	sat<i>/state_cartesian.csv
//	sat<i>/access_instru<j>_mode<k>_grid<g>.csv   (grid variants)
//	sat<i>/access_instru<j>_mode<k>.csv           (pointing options)
//	sat<i>/eclipses.csv
//	comm/sat<i>_to_sat<j>.csv
//	comm/sat<i>_to_gs<k>.csv
package mission

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/star/orbitcov/internal/config"
	"github.com/star/orbitcov/internal/contact"
	"github.com/star/orbitcov/internal/coverage"
	"github.com/star/orbitcov/internal/geometry"
	"github.com/star/orbitcov/internal/grid"
	"github.com/star/orbitcov/internal/instrument"
	"github.com/star/orbitcov/internal/propagation"
	"github.com/star/orbitcov/internal/state"
)

// Options controls a mission run.
type Options struct {
	OutDir  string
	BaseDir string // resolves relative grid and TLE paths
	Workers int
	// OpaqueAtmosHeight overrides the mission setting when non-nil.
	OpaqueAtmosHeight *float64
	// Stages restricts the run. Zero runs coverage plus whatever the
	// mission settings enable.
	Stages Stage
	// StateFiles maps spacecraft ids to state files read in place of
	// propagation. Relative paths resolve against BaseDir.
	StateFiles map[string]string
}

// Stage selects a group of evaluations.
type Stage uint8

const (
	StageCoverage Stage = 1 << iota
	StageContacts
	StageEclipses
)

func (r *Runner) stages(m *config.Mission) Stage {
	if r.opts.Stages != 0 {
		return r.opts.Stages
	}
	s := StageCoverage
	if m.Settings.ComputeContacts {
		s |= StageContacts
	}
	if m.Settings.ComputeEclipses {
		s |= StageEclipses
	}
	return s
}

// Summary lists what a run produced.
type Summary struct {
	RunID        uuid.UUID
	StateFiles   []string
	AccessFiles  []string
	ContactFiles []string
	EclipseFiles []string
	Duration     time.Duration
}

// Runner executes missions.
type Runner struct {
	opts   Options
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(opts Options, logger *slog.Logger) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Runner{opts: opts, logger: logger}
}

// satellite is one propagated spacecraft with its resolved sensors.
type satellite struct {
	dir     string
	sensors *instrument.Spacecraft
	states  *state.Series
}

// Run evaluates m. The first failing evaluation cancels the rest.
func (r *Runner) Run(ctx context.Context, m *config.Mission) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.New()}
	logger := r.logger.With("mission_run_id", sum.RunID.String())

	stages := r.stages(m)
	var (
		ev    coverage.Evaluator
		grids []*grid.PointSet
	)
	if stages&StageCoverage != 0 {
		typ, err := coverage.ParseType(m.Settings.CoverageType)
		if err != nil {
			return nil, err
		}
		if typ.HasGridPoint() && len(m.Grid) == 0 && hasInstruments(m) {
			return nil, &config.ConfigError{Field: "grid", Reason: fmt.Sprintf("coverage type %q needs at least one grid", m.Settings.CoverageType)}
		}
		grids = make([]*grid.PointSet, len(m.Grid))
		for i, g := range m.Grid {
			if grids[i], err = grid.FromConfig(g, r.opts.BaseDir); err != nil {
				return nil, err
			}
		}
		if ev, err = coverage.New(typ, logger); err != nil {
			return nil, err
		}
	}
	out, err := contact.ParseOutputType(m.Settings.OutputType)
	if err != nil {
		return nil, err
	}

	sats, err := r.propagate(ctx, m, logger)
	if err != nil {
		return nil, err
	}
	for _, s := range sats {
		sum.StateFiles = append(sum.StateFiles, filepath.Join(s.dir, "state_cartesian.csv"))
	}
	if stages&StageContacts != 0 {
		if err := os.MkdirAll(filepath.Join(r.opts.OutDir, "comm"), 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	var mu sync.Mutex
	collect := func(dst *[]string) func(string) {
		return func(path string) {
			mu.Lock()
			*dst = append(*dst, path)
			mu.Unlock()
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	if ev != nil {
		r.scheduleCoverage(gctx, g, ev, m, sats, grids, collect(&sum.AccessFiles))
	}
	finder := contact.NewFinder(logger)
	if stages&StageContacts != 0 {
		r.scheduleContacts(gctx, g, m, sats, finder, out, collect(&sum.ContactFiles))
	}
	if stages&StageEclipses != 0 {
		r.scheduleEclipses(gctx, g, m, sats, finder, out, collect(&sum.EclipseFiles))
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, files := range [][]string{sum.AccessFiles, sum.ContactFiles, sum.EclipseFiles} {
		slices.Sort(files)
	}

	sum.Duration = time.Since(start)
	logger.Info("mission complete",
		"spacecraft", len(sats),
		"access_files", len(sum.AccessFiles),
		"contact_files", len(sum.ContactFiles),
		"eclipse_files", len(sum.EclipseFiles),
		"duration_ms", sum.Duration.Milliseconds(),
	)
	return sum, nil
}

// Propagate only writes the state files of m.
func (r *Runner) Propagate(ctx context.Context, m *config.Mission) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: uuid.New()}
	logger := r.logger.With("mission_run_id", sum.RunID.String())
	sats, err := r.propagate(ctx, m, logger)
	if err != nil {
		return nil, err
	}
	for _, s := range sats {
		sum.StateFiles = append(sum.StateFiles, filepath.Join(s.dir, "state_cartesian.csv"))
	}
	sum.Duration = time.Since(start)
	logger.Info("propagation complete", "spacecraft", len(sats), "duration_ms", sum.Duration.Milliseconds())
	return sum, nil
}

func (r *Runner) propagate(ctx context.Context, m *config.Mission, logger *slog.Logger) ([]satellite, error) {
	epoch, err := m.Epoch.JulianDate()
	if err != nil {
		return nil, err
	}
	sats := make([]satellite, len(m.Spacecraft))
	var (
		jobs   []propagation.Job
		jobSat []int
	)
	for i, sc := range m.Spacecraft {
		var err error
		if sats[i].sensors, err = instrument.FromConfig(sc); err != nil {
			return nil, err
		}
		sats[i].dir = filepath.Join(r.opts.OutDir, fmt.Sprintf("sat%d", i))
		if path := r.stateFile(sc); path != "" {
			if sats[i].states, err = loadStates(path); err != nil {
				return nil, fmt.Errorf("spacecraft %s: %w", sc.ID, err)
			}
			logger.Info("states loaded", "spacecraft_id", sc.ID, "path", path, "records", len(sats[i].states.Records))
			continue
		}
		p, err := propagation.FromConfig(sc, epoch, r.opts.BaseDir, logger)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, propagation.Job{SpacecraftID: sc.ID, Propagator: p})
		jobSat = append(jobSat, i)
	}

	if len(jobs) > 0 {
		pool := propagation.NewWorkerPool(r.opts.Workers, logger)
		cfg := propagation.Config{Epoch: epoch, StepSize: m.Propagator.StepSize, Duration: m.Duration}
		for j, res := range pool.PropagateBatch(ctx, jobs, cfg) {
			if res.Err != nil {
				return nil, fmt.Errorf("propagating spacecraft %s: %w", res.SpacecraftID, res.Err)
			}
			sats[jobSat[j]].states = res.Series
		}
	}
	for _, s := range sats {
		if err := os.MkdirAll(s.dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
		if err := state.WriteFile(filepath.Join(s.dir, "state_cartesian.csv"), s.states); err != nil {
			return nil, err
		}
	}
	return sats, nil
}

// stateFile returns the state file standing in for the propagation of sc, or
// "" when sc is propagated.
func (r *Runner) stateFile(sc config.Spacecraft) string {
	path, ok := r.opts.StateFiles[sc.ID]
	if !ok && sc.Orbit.Type == config.OrbitStateFile {
		path = sc.Orbit.StateFile
	}
	if path != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.opts.BaseDir, path)
	}
	return path
}

func loadStates(path string) (*state.Series, error) {
	s, err := state.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("state file %s: %w", path, err)
	}
	return s, nil
}

func hasInstruments(m *config.Mission) bool {
	for _, sc := range m.Spacecraft {
		if len(sc.Instruments) > 0 {
			return true
		}
	}
	return false
}

func (r *Runner) scheduleCoverage(ctx context.Context, g *errgroup.Group, ev coverage.Evaluator, m *config.Mission, sats []satellite, grids []*grid.PointSet, done func(string)) {
	gridIdx := []int{-1}
	if ev.Type().HasGridPoint() {
		gridIdx = gridIdx[:0]
		for i := range grids {
			gridIdx = append(gridIdx, i)
		}
	}

	for _, s := range sats {
		for j, in := range s.sensors.Instruments {
			for k, mode := range in.Modes {
				for _, gi := range gridIdx {
					req := coverage.Request{
						States:           s.states,
						Spacecraft:       s.sensors,
						InstrumentID:     in.ID,
						ModeID:           mode.ID,
						UseFieldOfRegard: m.Settings.UseFieldOfRegard,
						FilterMidAccess:  m.Settings.FilterMidAccess,
					}
					name := fmt.Sprintf("access_instru%d_mode%d.csv", j, k)
					if gi >= 0 {
						req.Grid = grids[gi]
						name = fmt.Sprintf("access_instru%d_mode%d_grid%d.csv", j, k, gi)
					}
					req.OutPath = filepath.Join(s.dir, name)
					g.Go(func() error {
						res, err := ev.Execute(ctx, req)
						if err != nil {
							return fmt.Errorf("coverage %s/%s/%s: %w", req.Spacecraft.ID, req.InstrumentID, req.ModeID, err)
						}
						if !res.Skipped {
							done(res.OutPath)
						}
						return nil
					})
				}
			}
		}
	}
}

func (r *Runner) scheduleContacts(ctx context.Context, g *errgroup.Group, m *config.Mission, sats []satellite, finder *contact.Finder, out contact.OutputType, done func(string)) {
	comm := filepath.Join(r.opts.OutDir, "comm")
	height := m.Settings.OpaqueAtmosHeight
	if r.opts.OpaqueAtmosHeight != nil {
		height = *r.opts.OpaqueAtmosHeight
	}
	entity := func(i int) *contact.Spacecraft {
		return &contact.Spacecraft{ID: m.Spacecraft[i].ID, States: sats[i].states}
	}
	run := func(req contact.Request) {
		g.Go(func() error {
			if _, err := finder.Contacts(ctx, req); err != nil {
				return err
			}
			done(req.OutPath)
			return nil
		})
	}

	for i := range sats {
		for j := i + 1; j < len(sats); j++ {
			run(contact.Request{
				A:                 entity(i),
				B:                 entity(j),
				OutputType:        out,
				OpaqueAtmosHeight: height,
				OutPath:           filepath.Join(comm, fmt.Sprintf("sat%d_to_sat%d.csv", i, j)),
			})
		}
		for k, gs := range m.GroundStations {
			run(contact.Request{
				A: entity(i),
				B: &contact.GroundStation{
					ID:           gs.ID,
					Lat:          gs.Latitude,
					Lon:          gs.Longitude,
					Alt:          gs.Altitude,
					MinElevation: geometry.Deg2Rad(gs.MinimumElevation),
				},
				OutputType: out,
				OutPath:    filepath.Join(comm, fmt.Sprintf("sat%d_to_gs%d.csv", i, k)),
			})
		}
	}
}

func (r *Runner) scheduleEclipses(ctx context.Context, g *errgroup.Group, m *config.Mission, sats []satellite, finder *contact.Finder, out contact.OutputType, done func(string)) {
	for i, s := range sats {
		req := contact.EclipseRequest{
			Spacecraft: &contact.Spacecraft{ID: m.Spacecraft[i].ID, States: s.states},
			OutputType: out,
			OutPath:    filepath.Join(s.dir, "eclipses.csv"),
		}
		g.Go(func() error {
			if _, err := finder.Eclipses(ctx, req); err != nil {
				return err
			}
			done(req.OutPath)
			return nil
		})
	}
}
