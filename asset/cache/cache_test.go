package cache

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/achilleasa/kdtrace/kdtree"
	"github.com/achilleasa/kdtrace/mesh"
	"github.com/achilleasa/kdtrace/types"
)

func testMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Name: "pair",
		Vertices: []types.Vec3{
			{-2, 0, 0}, {-1, 1, 0}, {-1, 0, 0},
			{1, 0, 0}, {1, 1, 0}, {2, 1, 0},
		},
		Indices: []uint32{0, 1, 2, 3, 4, 5},
	}
}

func TestLoadMissingEntry(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err = c.Load("missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss; got %v", err)
	}
}

func TestLoadOrBuild(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	m := testMesh()
	opts := kdtree.DefaultOptions()
	key := MeshKey(m, opts)

	builds := 0
	build := func() *kdtree.Builder {
		builds++
		return m.BuildTree(opts)
	}

	for i := 0; i < 2; i++ {
		collider, entry, err := c.LoadOrBuild(key, "pair.obj", build)
		if err != nil {
			t.Fatal(err)
		}
		if builds != 1 {
			t.Fatalf("[iteration %d] expected tree to be built once; built %d times", i, builds)
		}
		if entry.Key != key || entry.Source != "pair.obj" || entry.Stats.Primitives != 2 {
			t.Fatalf("[iteration %d] unexpected cache entry %+v", i, entry)
		}

		ray := types.NewRay(types.Vec3{1.5, 0.5, 1}, types.Vec3{0, 0, -1})
		hit, found, err := collider.ClosestHit(ray, m.Intersect)
		if err != nil || !found || hit.Primitive != 1 {
			t.Fatalf("[iteration %d] expected cached tree to report primitive 1; got %t, %d, %v", i, found, hit.Primitive, err)
		}
	}
}

func TestCorruptEntryIsRebuilt(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	m := testMesh()
	opts := kdtree.DefaultOptions()
	key := MeshKey(m, opts)
	if err = os.WriteFile(c.Path(key), []byte("definitely not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}

	builds := 0
	collider, _, err := c.LoadOrBuild(key, "pair.obj", func() *kdtree.Builder {
		builds++
		return m.BuildTree(opts)
	})
	if err != nil {
		t.Fatal(err)
	}
	if builds != 1 || collider.IsEmpty() {
		t.Fatalf("expected corrupt entry to be replaced by a fresh build; builds: %d", builds)
	}

	if _, _, err = c.Load(key); err != nil {
		t.Fatalf("expected rebuilt entry to load; got %v", err)
	}
}

func TestMeshKeyDependsOnOptions(t *testing.T) {
	m := testMesh()
	opts := kdtree.DefaultOptions()
	key := MeshKey(m, opts)

	if MeshKey(m, opts) != key {
		t.Fatal("expected mesh key to be deterministic")
	}

	opts.EmptySideDiscount = 0.5
	if MeshKey(m, opts) == key {
		t.Fatal("expected mesh key to change with the build options")
	}

	m.Vertices[0][0] = -3
	if MeshKey(m, kdtree.DefaultOptions()) == key {
		t.Fatal("expected mesh key to change with the geometry")
	}
}

func TestConcurrentLoadOrBuild(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	m := testMesh()
	opts := kdtree.DefaultOptions()
	key := MeshKey(m, opts)

	var builds int32
	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := c.LoadOrBuild(key, "pair.obj", func() *kdtree.Builder {
				atomic.AddInt32(&builds, 1)
				return m.BuildTree(opts)
			})
			if err != nil {
				errCh <- err
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Fatal(err)
	}
	if builds != 1 {
		t.Fatalf("expected a single build for concurrent requests; got %d", builds)
	}
}
