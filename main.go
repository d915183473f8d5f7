package main

import (
	"os"

	"github.com/achilleasa/kdtrace/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "kdtrace"
	app.Usage = "build, inspect and query SAH kd-trees for triangle meshes"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "cache-dir",
			Usage: "store built kd-trees in this directory and reuse them on subsequent runs",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build kd-trees for wavefront obj meshes",
			Description: `
Parse a triangle mesh from a wavefront obj file, partition its triangles into
a kd-tree using the surface area heuristic and write the tree next to the
mesh file using a .kdtree extension.

If a cache directory is specified the tree is also stored in the cache so that
the trace and bench commands can skip the build step.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Flags:     cmd.TreeFlags,
			Action:    cmd.BuildTrees,
		},
		{
			Name:      "info",
			Usage:     "display information about a serialized kd-tree",
			ArgsUsage: "tree_file.kdtree",
			Action:    cmd.ShowTreeInfo,
		},
		{
			Name:      "trace",
			Usage:     "trace a single ray against a mesh",
			ArgsUsage: "mesh_file.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "origin, o",
					Value: "0,0,0",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir, d",
					Value: "0,0,-1",
					Usage: "ray direction as x,y,z",
				},
				cli.Float64Flag{
					Name:  "min-t",
					Value: 0,
					Usage: "start of the valid ray range",
				},
				cli.Float64Flag{
					Name:  "max-t",
					Value: 0,
					Usage: "end of the valid ray range; 0 for unbounded",
				},
				cli.BoolFlag{
					Name:  "any",
					Usage: "report the first intersection found instead of the closest one",
				},
			}, cmd.TreeFlags...),
			Action: cmd.TraceRay,
		},
		{
			Name:      "bench",
			Usage:     "benchmark closest hit queries using random rays",
			ArgsUsage: "mesh_file.obj",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "rays, r",
					Value: 100000,
					Usage: "number of rays to trace",
				},
				cli.IntFlag{
					Name:  "workers, w",
					Value: 0,
					Usage: "number of tracing goroutines; 0 uses one per CPU",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 1,
					Usage: "random seed for ray generation",
				},
				cli.BoolFlag{
					Name:  "verify",
					Usage: "compare every result against a brute force search",
				},
			}, cmd.TreeFlags...),
			Action: cmd.Benchmark,
		},
	}

	app.Run(os.Args)
}
