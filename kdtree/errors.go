package kdtree

import "errors"

var (
	ErrBadMagic      = errors.New("kdtree: stream does not contain a kd-tree")
	ErrCorruptStream = errors.New("kdtree: corrupt tree stream")
	ErrTreeTooDeep   = errors.New("kdtree: tree exceeds maximum depth")
	ErrStackOverflow = errors.New("kdtree: traversal stack overflow")
)
