package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Display information about a serialized kd-tree.
func ShowTreeInfo(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing kd-tree file")
	}

	treeFile := ctx.Args().First()
	if !strings.HasSuffix(treeFile, ".kdtree") {
		return errors.New("only kd-tree files with a .kdtree extension are supported")
	}

	f, err := os.Open(treeFile)
	if err != nil {
		return err
	}
	defer f.Close()

	c, err := kdtree.Load(f)
	if err != nil {
		return err
	}

	logger.Noticef("kd-tree information:\n%s", colliderInfo(c))
	return nil
}

// Summarize the shape of a loaded tree.
func colliderInfo(c *kdtree.Collider) string {
	var inner, leaves, refs, minPrims, maxPrims int
	minPrims = -1
	nodes := c.Nodes()
	for i := range nodes {
		if !nodes[i].IsLeaf() {
			inner++
			continue
		}

		count := len(c.Primitives(&nodes[i]))
		leaves++
		refs += count
		if minPrims < 0 || count < minPrims {
			minPrims = count
		}
		if count > maxPrims {
			maxPrims = count
		}
	}

	avgPrims := float32(0)
	if leaves > 0 {
		avgPrims = float32(refs) / float32(leaves)
	} else {
		minPrims = 0
	}

	box := c.BBox()
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Section", "Metric", "Value"})
	table.Append([]string{"Bounds", "Min", fmt.Sprint(box.Min)})
	table.Append([]string{"", "Max", fmt.Sprint(box.Max)})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Nodes", "Total", fmt.Sprint(len(nodes))})
	table.Append([]string{"", "Inner", fmt.Sprint(inner)})
	table.Append([]string{"", "Leaves", fmt.Sprint(leaves)})
	table.Append([]string{"", "Depth", fmt.Sprint(c.Depth())})
	table.Append([]string{" ", " ", " "})
	table.Append([]string{"Leaf primitives", "Min", fmt.Sprint(minPrims)})
	table.Append([]string{"", "Avg", fmt.Sprintf("%.2f", avgPrims)})
	table.Append([]string{"", "Max", fmt.Sprint(maxPrims)})
	table.SetFooter([]string{"References", " ", fmt.Sprint(refs)})

	table.Render()
	return buf.String()
}
