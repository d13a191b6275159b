// Command bspinfo prints a summary of a Quake 3 map and runs trace and
// visibility queries against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/saiko-tech/q3bsp/pkg/q3bsp/level"
)

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)

	return nil
}

func parseVec3(s string) (mgl32.Vec3, error) {
	var v mgl32.Vec3

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return v, errors.Errorf("expected x,y,z, got %q", s)
	}

	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return v, errors.Wrapf(err, "bad coordinate %q", p)
		}

		v[i] = float32(f)
	}

	return v, nil
}

func main() {
	var (
		archives  stringList
		tesselate int
		strict    bool
		from, to  string
		radius    float64
		slide     bool
		atlasPath string
		verbose   bool
	)

	flag.Var(&archives, "archive", "pk3 or vpk archive to search for the map (repeatable)")
	flag.IntVar(&tesselate, "tesselate", 5, "Patch tesselation level")
	flag.BoolVar(&strict, "strict", false, "Fail on faces with bad references")
	flag.StringVar(&from, "from", "", "Trace start and view position as x,y,z")
	flag.StringVar(&to, "to", "", "Trace end as x,y,z")
	flag.Float64Var(&radius, "radius", 0, "Trace sphere radius")
	flag.BoolVar(&slide, "slide", false, "Slide along the blocking plane instead of stopping")
	flag.StringVar(&atlasPath, "atlas", "", "Write the lightmap atlas to this PNG file")
	flag.BoolVar(&verbose, "v", false, "Debug logging")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <map.bsp>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	lvl, err := level.Load(context.Background(), flag.Arg(0), archives, level.Options{
		TesselationLevel: tesselate,
		Strict:           strict,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("failed to load map", "err", err)
		os.Exit(1)
	}

	printSummary(lvl)

	if atlasPath != "" {
		if err := writeAtlas(lvl, atlasPath); err != nil {
			logger.Error("failed to write atlas", "err", err)
			os.Exit(1)
		}
	}

	if from == "" {
		return
	}

	start, err := parseVec3(from)
	if err != nil {
		logger.Error("invalid -from", "err", err)
		os.Exit(1)
	}

	printVisible(lvl, start)

	if to == "" {
		return
	}

	end, err := parseVec3(to)
	if err != nil {
		logger.Error("invalid -to", "err", err)
		os.Exit(1)
	}

	tr := lvl.World.Trace(start, end, float32(radius), slide)

	fmt.Printf("trace: fraction=%.4f end=%v hit=%v start_solid=%v all_solid=%v\n",
		tr.Fraction, tr.End, tr.Hit, tr.StartSolid, tr.AllSolid)

	if tr.Hit {
		fmt.Printf("  plane: normal=%v dist=%g brush=%d\n", tr.Plane.Normal, tr.Plane.Distance, tr.Brush)
	}
}

func printSummary(lvl *level.Level) {
	m := lvl.Map

	fmt.Printf("surfaces:    %d\n", len(m.Surfaces))
	fmt.Printf("planes:      %d\n", len(m.Planes))
	fmt.Printf("nodes:       %d\n", len(m.Nodes))
	fmt.Printf("leaves:      %d\n", len(m.Leaves))
	fmt.Printf("brushes:     %d (%d sides)\n", len(m.Brushes), len(m.BrushSides))
	fmt.Printf("vertices:    %d\n", len(m.Vertices))
	fmt.Printf("faces:       %d\n", len(m.Faces))
	fmt.Printf("lightmaps:   %d\n", len(m.Lightmaps))
	fmt.Printf("clusters:    %d\n", m.VisData.NumClusters)

	g := lvl.Geometry
	fmt.Printf("geometry:    %d vertices, %d triangles, %d draw ranges, %d skipped faces, %dpx atlas\n",
		g.VertexCount(), len(g.Indices)/3, len(g.Ranges), g.Skipped, g.Atlas.Size)

	if m.Entities == nil {
		return
	}

	classes := make([]string, 0, len(m.Entities.ByClass))
	for class := range m.Entities.ByClass {
		classes = append(classes, class)
	}

	slices.Sort(classes)

	fmt.Printf("entities:    %d\n", len(m.Entities.All))

	for _, class := range classes {
		fmt.Printf("  %-28s %d\n", class, len(m.Entities.ByClass[class]))
	}
}

func printVisible(lvl *level.Level, position mgl32.Vec3) {
	leaf := lvl.Vis.LocateLeaf(position)
	set := lvl.Vis.VisibleSurfaces(leaf)

	fmt.Printf("leaf %d (cluster %d): %d visible surfaces\n", leaf, lvl.Vis.Cluster(leaf), set.Len())

	for _, s := range set.Surfaces() {
		fmt.Printf("  %4d %s\n", s, lvl.Map.Surfaces[s].Name)
	}
}

func writeAtlas(lvl *level.Level, path string) error {
	if lvl.Geometry.Atlas.Size == 0 {
		return errors.New("map has no lightmaps")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create atlas file")
	}

	defer f.Close()

	if err := png.Encode(f, lvl.Geometry.Atlas.Image()); err != nil {
		return errors.Wrap(err, "failed to encode atlas")
	}

	return f.Close()
}
