package reader

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/kdtrace/asset"
	"github.com/achilleasa/kdtrace/log"
	"github.com/achilleasa/kdtrace/mesh"
	"github.com/achilleasa/kdtrace/types"
)

type wavefrontMeshReader struct {
	logger log.Logger

	// Name of the first object/group in the file.
	name string

	vertexList []types.Vec3
	indices    []uint32

	// Texture and normal coordinate counts; only needed for validating
	// face indices.
	uvCount     int
	normalCount int

	// An error stack that provides additional error information when
	// mesh files include other files.
	errStack []string
}

// Create a new wavefront mesh reader.
func newWavefrontReader() *wavefrontMeshReader {
	return &wavefrontMeshReader{
		logger:     log.New("wavefront reader"),
		vertexList: make([]types.Vec3, 0),
		indices:    make([]uint32, 0),
		errStack:   make([]string, 0),
	}
}

// Read mesh definition. All faces of all objects in the file are merged into
// a single triangle mesh.
func (r *wavefrontMeshReader) Read(meshRes *asset.Resource) (*mesh.Mesh, error) {
	r.logger.Noticef(`parsing mesh from "%s"`, meshRes.Path())
	start := time.Now()

	err := r.parse(meshRes)
	if err != nil {
		return nil, err
	}

	if r.name == "" {
		r.name = "default"
	}

	r.logger.Noticef(
		"parsed %d vertices and %d triangles in %d ms",
		len(r.vertexList), len(r.indices)/3, time.Since(start).Nanoseconds()/1e6,
	)
	return mesh.New(r.name, r.vertexList, r.indices)
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontMeshReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)

	var errMsg string
	if file != "" {
		errMsg = strings.Trim(
			fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	} else {
		errMsg = strings.Trim(
			fmt.Sprintf("error: %s\n%s", msg, strings.Join(r.errStack, "\n")),
			"\n",
		)
	}

	return errors.New(errMsg)
}

// Push a frame to the error stack.
func (r *wavefrontMeshReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontMeshReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Parse wavefront object format.
func (r *wavefrontMeshReader) parse(res *asset.Resource) error {
	var lineNum int = 0

	// The main obj file may include (call) several other object files. Each
	// object file contains 1-based indices (when they are positive). By
	// tracking the current vertex offset we can apply it while parsing
	// faces to select the correct coordinates.
	relVertexOffset := len(r.vertexList)
	relUvOffset := r.uvCount
	relNormalOffset := r.normalCount

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", res.Path(), lineNum, lineTokens[0]))

			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}

			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "vt":
			r.uvCount++
		case "vn":
			r.normalCount++
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			if r.name == "" {
				r.name = lineTokens[1]
			}
		case "f":
			err := r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "mtllib", "usemtl", "s":
			// Materials and smoothing groups do not affect geometry.
		default:
			r.logger.Debugf(`[%s: %d] skipping unsupported statement "%s"`, res.Path(), lineNum, lineTokens[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, "%s", err.Error())
	}
	return nil
}

// Parse a face definition and append its triangles to the index list. Faces
// may use any of the v, v/vt, v/vt/vn or v//vn forms; only the vertex
// indices are kept. Faces with more than 3 vertices are triangulated as a
// fan around their first vertex.
func (r *wavefrontMeshReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	faceIndices := make([]uint32, 0, len(lineTokens)-1)
	expIndices := 0
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		faceIndices = append(faceIndices, uint32(vOffset))

		if expIndices > 1 && vTokens[1] != "" {
			if _, err = selectFaceCoordIndex(vTokens[1], r.uvCount, relUvOffset); err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}
		if expIndices > 2 && vTokens[2] != "" {
			if _, err = selectFaceCoordIndex(vTokens[2], r.normalCount, relNormalOffset); err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		}
	}

	for i := 1; i+1 < len(faceIndices); i++ {
		r.indices = append(r.indices, faceIndices[0], faceIndices[i], faceIndices[i+1])
	}
	return nil
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
