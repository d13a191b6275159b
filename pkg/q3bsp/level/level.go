// Package level assembles everything needed to play a map: its decoded
// records, draw geometry, collision world and visibility index.
package level

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp"
	"github.com/saiko-tech/q3bsp/pkg/q3bsp/collision"
	"github.com/saiko-tech/q3bsp/pkg/q3bsp/geometry"
	"github.com/saiko-tech/q3bsp/pkg/q3bsp/vis"
)

// Options controls how a level is built.
type Options struct {
	// TesselationLevel is passed to geometry.Compile. 0 selects
	// geometry.DefaultTesselationLevel.
	TesselationLevel int
	// Strict fails the build on faces with bad references.
	Strict bool
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}

	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Level is a fully built map. All parts are read-only.
type Level struct {
	Map      *q3bsp.Map
	Geometry *geometry.Geometry
	World    *collision.World
	Vis      *vis.Index
}

// Build compiles the geometry and builds the collision world and visibility
// index of m concurrently.
func Build(ctx context.Context, m *q3bsp.Map, opts Options) (*Level, error) {
	log := opts.logger()
	lvl := &Level{Map: m}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()

		geo, err := geometry.Compile(m, geometry.Options{
			TesselationLevel: opts.TesselationLevel,
			Strict:           opts.Strict,
			Logger:           log,
		})
		if err != nil {
			return errors.Wrap(err, "failed to compile geometry")
		}

		lvl.Geometry = geo

		log.Debug("built geometry", "took", time.Since(start))

		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		lvl.World = collision.Build(m)

		log.Debug("built collision world", "brushes", len(m.Brushes), "took", time.Since(start))

		return nil
	})

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		lvl.Vis = vis.Build(m)

		log.Debug("built visibility index", "clusters", m.VisData.NumClusters, "took", time.Since(start))

		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lvl, nil
}

// Parse decodes data and builds the level.
func Parse(ctx context.Context, data []byte, opts Options) (*Level, error) {
	m, err := q3bsp.Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse map")
	}

	logRecords(opts.logger(), m)

	return Build(ctx, m, opts)
}

// Load reads a map from disk or from the given archives, see
// q3bsp.LoadFromFileSystem, and builds the level.
func Load(ctx context.Context, mapPath string, archives []string, opts Options) (*Level, error) {
	m, err := q3bsp.LoadFromFileSystem(mapPath, archives...)
	if err != nil {
		return nil, err
	}

	logRecords(opts.logger(), m)

	return Build(ctx, m, opts)
}

func logRecords(log *slog.Logger, m *q3bsp.Map) {
	log.Debug("decoded map",
		"surfaces", len(m.Surfaces),
		"planes", len(m.Planes),
		"nodes", len(m.Nodes),
		"leaves", len(m.Leaves),
		"brushes", len(m.Brushes),
		"vertices", len(m.Vertices),
		"faces", len(m.Faces),
		"lightmaps", len(m.Lightmaps))
}

// Result is the outcome of a submitted load.
type Result struct {
	Level *Level
	Err   error
}

// Loader parses and builds levels on a bounded number of goroutines.
type Loader struct {
	opts Options
	g    errgroup.Group
}

// NewLoader returns a loader running at most workers loads at once.
// workers <= 0 means no limit.
func NewLoader(workers int, opts Options) *Loader {
	l := &Loader{opts: opts}

	if workers > 0 {
		l.g.SetLimit(workers)
	}

	return l
}

// Submit schedules data to be parsed and built. It blocks while all workers
// are busy. The returned channel yields exactly one Result.
func (l *Loader) Submit(ctx context.Context, data []byte) <-chan Result {
	ch := make(chan Result, 1)

	l.g.Go(func() error {
		defer close(ch)

		lvl, err := Parse(ctx, data, l.opts)
		ch <- Result{Level: lvl, Err: err}

		return nil
	})

	return ch
}

// Wait blocks until every submitted load has finished.
func (l *Loader) Wait() {
	_ = l.g.Wait()
}
