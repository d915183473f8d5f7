package cmd

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/achilleasa/kdtrace/asset/cache"
	"github.com/achilleasa/kdtrace/asset/reader"
	"github.com/urfave/cli"
)

// Build kd-trees for a list of meshes and write them next to each mesh
// file using a .kdtree extension.
func BuildTrees(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing mesh files")
	}

	opts := treeOptions(ctx)

	var c *cache.Cache
	if cacheDir := ctx.GlobalString("cache-dir"); cacheDir != "" {
		var err error
		if c, err = cache.New(cacheDir); err != nil {
			return err
		}
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		if !strings.HasSuffix(meshFile, ".obj") {
			logger.Warningf("skipping unsupported file %s", meshFile)
			continue
		}

		logger.Noticef("building kd-tree for: %s", meshFile)
		m, err := reader.ReadMesh(meshFile)
		if err != nil {
			return err
		}

		b := m.BuildTree(opts)
		logger.Noticef("kd-tree information:\n%s", b.Stats().Table())

		treeFile := strings.Replace(meshFile, ".obj", ".kdtree", -1)
		if err = writeTree(treeFile, b.Save); err != nil {
			return err
		}
		logger.Noticef("wrote kd-tree to %s", treeFile)

		if c != nil {
			if err = c.Store(cache.MeshKey(m, opts), meshFile, b); err != nil {
				return err
			}
		}
		b.Release()
	}

	return nil
}

func writeTree(treeFile string, save func(w io.Writer) error) error {
	f, err := os.Create(treeFile)
	if err != nil {
		return err
	}

	if err = save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
