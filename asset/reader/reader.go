package reader

import (
	"fmt"
	"strings"

	"github.com/achilleasa/kdtrace/asset"
	"github.com/achilleasa/kdtrace/mesh"
)

// The Reader interface is implemented by all mesh readers.
type Reader interface {
	// Read mesh definition from a resource.
	Read(*asset.Resource) (*mesh.Mesh, error)
}

// Read mesh from a local file or http(s) URL.
func ReadMesh(filename string) (*mesh.Mesh, error) {
	res, err := asset.NewResource(filename, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	// Select reader based on file extension
	var reader Reader
	if strings.HasSuffix(filename, ".obj") {
		reader = newWavefrontReader()
	} else {
		return nil, fmt.Errorf("readMesh: unsupported file format")
	}
	return reader.Read(res)
}
