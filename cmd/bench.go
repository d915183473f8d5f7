package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/mesh"
	"github.com/achilleasa/kdtrace/types"
	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

type benchResult struct {
	rays       int
	hits       int64
	mismatches int64
	elapsed    time.Duration
}

// Benchmark closest hit queries against a mesh using random rays.
func Benchmark(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file")
	}

	numRays := ctx.Int("rays")
	if numRays <= 0 {
		return errors.New("ray count must be positive")
	}
	workers := ctx.Int("workers")
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	m, collider, stats, err := loadMesh(ctx, ctx.Args().First())
	if err != nil {
		return err
	}
	logger.Infof("kd-tree information:\n%s", stats.Table())

	rays := generateRays(m.Bounds(), numRays, ctx.Int64("seed"))
	logger.Noticef("tracing %d rays using %d workers", numRays, workers)
	res, err := traceRays(collider, m, rays, workers, ctx.Bool("verify"))
	if err != nil {
		return err
	}

	logger.Noticef("benchmark results:\n%s", res.table(workers))
	if res.mismatches > 0 {
		return fmt.Errorf("%d rays did not match brute force results", res.mismatches)
	}
	return nil
}

// Generate rays starting outside the mesh bounds and aiming at random
// points inside them.
func generateRays(bounds types.BBox, count int, seed int64) []types.Ray {
	rng := rand.New(rand.NewSource(seed))
	center := bounds.Min.Add(bounds.Max).Mul(0.5)
	radius := bounds.Max.Sub(bounds.Min).Len()
	if radius < types.Epsilon {
		radius = 1
	}

	randomPoint := func() types.Vec3 {
		var p types.Vec3
		for axis := 0; axis < 3; axis++ {
			p[axis] = bounds.Min[axis] + rng.Float32()*bounds.Edge(axis)
		}
		return p
	}

	rays := make([]types.Ray, count)
	for i := range rays {
		// Uniform direction on the unit sphere
		z := 2*rng.Float32() - 1
		phi := 2 * math32.Pi * rng.Float32()
		r := math32.Sqrt(1 - z*z)
		dir := types.Vec3{r * math32.Cos(phi), r * math32.Sin(phi), z}

		origin := center.Add(dir.Mul(radius))
		rays[i] = types.NewRay(origin, randomPoint().Sub(origin).Normalize())
	}
	return rays
}

// Distribute rays evenly across workers. Each worker uses its own stack.
func traceRays(collider *kdtree.Collider, m *mesh.Mesh, rays []types.Ray, workers int, verify bool) (benchResult, error) {
	res := benchResult{rays: len(rays)}

	var hits, mismatches int64
	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	wg.Add(workers)

	start := time.Now()
	base, rem := len(rays)/workers, len(rays)%workers
	from := 0
	for w := 0; w < workers; w++ {
		n := base
		if w < rem {
			n++
		}
		batch := rays[from : from+n]
		from += n

		go func() {
			defer wg.Done()
			stack := collider.NewStack()
			for _, ray := range batch {
				hit, found, err := collider.Closest(stack, ray, m.Intersect)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					return
				}
				if found {
					atomic.AddInt64(&hits, 1)
				}
				if verify && !matchesBruteForce(m, ray, hit, found) {
					atomic.AddInt64(&mismatches, 1)
				}
			}
		}()
	}
	wg.Wait()
	res.elapsed = time.Since(start)
	res.hits, res.mismatches = hits, mismatches

	return res, firstErr
}

func matchesBruteForce(m *mesh.Mesh, ray types.Ray, hit kdtree.Hit, found bool) bool {
	bestT := math32.Inf(1)
	var scratch kdtree.Hit
	for tri := 0; tri < m.Len(); tri++ {
		if m.Intersect(ray, uint32(tri), &scratch) && ray.InRange(scratch.Distance) && scratch.Distance < bestT {
			bestT = scratch.Distance
		}
	}

	if math32.IsInf(bestT, 1) {
		return !found
	}
	return found && hit.Distance == bestT
}

func (r benchResult) table(workers int) string {
	seconds := r.elapsed.Seconds()
	raysPerSec := float64(0)
	if seconds > 0 {
		raysPerSec = float64(r.rays) / seconds
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Workers", fmt.Sprint(workers)})
	table.Append([]string{"Rays", fmt.Sprint(r.rays)})
	table.Append([]string{"Hits", fmt.Sprintf("%d (%.1f%%)", r.hits, 100*float64(r.hits)/float64(r.rays))})
	table.Append([]string{"Mismatches", fmt.Sprint(r.mismatches)})
	table.Append([]string{"Time", r.elapsed.String()})
	table.SetFooter([]string{"Rays/sec", fmt.Sprintf("%.0f", raysPerSec)})

	table.Render()
	return buf.String()
}
