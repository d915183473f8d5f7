package cmd

import (
	"errors"

	"github.com/achilleasa/kdtrace/types"
	"github.com/urfave/cli"
)

// Trace a single ray against a mesh and report the intersection.
func TraceRay(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing mesh file")
	}

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return err
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return err
	}
	if dir.Len() < types.Epsilon {
		return errors.New("ray direction must not be zero")
	}

	m, collider, _, err := loadMesh(ctx, ctx.Args().First())
	if err != nil {
		return err
	}

	ray := types.NewRay(origin, dir.Normalize())
	ray.MinT = float32(ctx.Float64("min-t"))
	if maxT := ctx.Float64("max-t"); maxT > 0 {
		ray.MaxT = float32(maxT)
	}

	query := collider.ClosestHit
	if ctx.Bool("any") {
		query = collider.AnyHit
	}

	hit, found, err := query(ray, m.Intersect)
	if err != nil {
		return err
	}
	if !found {
		logger.Notice("ray does not hit the mesh")
		return nil
	}

	v0, v1, v2 := m.Triangle(hit.Primitive)
	logger.Noticef(
		"ray hits triangle %d %v %v %v at t=%f, point %v, barycentric (u: %f, v: %f)",
		hit.Primitive, v0, v1, v2, hit.Distance, ray.At(hit.Distance), hit.U, hit.V,
	)
	return nil
}
