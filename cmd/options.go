package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/kdtrace/asset/cache"
	"github.com/achilleasa/kdtrace/asset/reader"
	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/mesh"
	"github.com/achilleasa/kdtrace/types"
	"github.com/urfave/cli"
)

// Flags controlling kd-tree construction. They are shared by all commands
// that build trees.
var TreeFlags = []cli.Flag{
	cli.Float64Flag{
		Name:  "traversal-cost",
		Value: float64(kdtree.DefaultOptions().TraversalCost),
		Usage: "cost of traversing an inner node relative to a primitive test",
	},
	cli.Float64Flag{
		Name:  "empty-discount",
		Value: float64(kdtree.DefaultOptions().EmptySideDiscount),
		Usage: "SAH cost factor for splits that leave one side empty",
	},
	cli.Float64Flag{
		Name:  "epsilon",
		Value: float64(kdtree.DefaultOptions().Epsilon),
		Usage: "tolerance for planar boxes and coincident split positions",
	},
	cli.BoolFlag{
		Name:  "element-wise",
		Usage: "query the intersection cost of every primitive instead of a uniform cost",
	},
}

// Assemble builder options from the command flags.
func treeOptions(ctx *cli.Context) kdtree.Options {
	opts := kdtree.DefaultOptions()
	opts.TraversalCost = float32(ctx.Float64("traversal-cost"))
	opts.EmptySideDiscount = float32(ctx.Float64("empty-discount"))
	opts.Epsilon = float32(ctx.Float64("epsilon"))
	opts.ElementWise = ctx.Bool("element-wise")
	return opts
}

// Read a mesh and return a collider for it. If a cache directory is
// configured the tree is loaded from the cache or built and stored there.
func loadMesh(ctx *cli.Context, meshFile string) (*mesh.Mesh, *kdtree.Collider, kdtree.Stats, error) {
	m, err := reader.ReadMesh(meshFile)
	if err != nil {
		return nil, nil, kdtree.Stats{}, err
	}
	opts := treeOptions(ctx)

	cacheDir := ctx.GlobalString("cache-dir")
	if cacheDir == "" {
		collider, stats, err := m.Compile(opts)
		return m, collider, stats, err
	}

	c, err := cache.New(cacheDir)
	if err != nil {
		return nil, nil, kdtree.Stats{}, err
	}
	collider, entry, err := c.LoadOrBuild(cache.MeshKey(m, opts), meshFile, func() *kdtree.Builder {
		return m.BuildTree(opts)
	})
	if err != nil {
		return nil, nil, kdtree.Stats{}, err
	}
	return m, collider, entry.Stats, nil
}

// Parse a comma separated vector such as "1,0.5,-2".
func parseVec3(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf("expected 3 comma separated components; got %q", value)
	}

	var v types.Vec3
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(strings.TrimSpace(tok), 32)
		if err != nil {
			return types.Vec3{}, fmt.Errorf("invalid vector component %q: %s", tok, err.Error())
		}
		v[i] = float32(f)
	}
	return v, nil
}
