package cmd

import (
	"testing"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/mesh"
	"github.com/achilleasa/kdtrace/types"
)

func TestParseVec3(t *testing.T) {
	type spec struct {
		input  string
		exp    types.Vec3
		expErr bool
	}
	specs := []spec{
		{"1,2,3", types.Vec3{1, 2, 3}, false},
		{" -1.5, 0 ,2e1", types.Vec3{-1.5, 0, 20}, false},
		{"1,2", types.Vec3{}, true},
		{"1,foo,3", types.Vec3{}, true},
	}

	for idx, s := range specs {
		v, err := parseVec3(s.input)
		if (err != nil) != s.expErr {
			t.Fatalf("[spec %d] expected error to be %t; got %v", idx, s.expErr, err)
		}
		if v != s.exp {
			t.Fatalf("[spec %d] expected %v; got %v", idx, s.exp, v)
		}
	}
}

func TestTraceRaysMatchesBruteForce(t *testing.T) {
	m := &mesh.Mesh{
		Vertices: []types.Vec3{
			{-1, -1, 0}, {1, -1, 0}, {0, 1, 0},
			{-1, -1, 2}, {1, -1, 2}, {0, 1, 3},
			{4, 0, 0}, {5, 0, 1}, {4, 1, 1},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8},
	}
	collider, _, err := m.Compile(kdtree.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	rays := generateRays(m.Bounds(), 500, 3)
	if len(rays) != 500 {
		t.Fatalf("expected 500 rays; got %d", len(rays))
	}

	res, err := traceRays(collider, m, rays, 4, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.mismatches != 0 {
		t.Fatalf("expected no mismatches; got %d", res.mismatches)
	}
	if res.hits == 0 {
		t.Fatal("expected some rays to hit the mesh")
	}
}
