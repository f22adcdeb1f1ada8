// Package cloud decodes incoming point-cloud payloads into typed buffers.
package cloud

import (
	"encoding/json"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrMalformed reports a payload that cannot be parsed as numeric arrays.
	ErrMalformed = errors.New("malformed point cloud payload")
	// ErrShapeMismatch reports arrays of unequal length or non-3D entries.
	ErrShapeMismatch = errors.New("points and colors must be equal-length Nx3 arrays")
)

// PointCloud is one sensed scene: N positions in meters and N colors in the
// 0..1 range. Colors outside that range are carried through untouched.
type PointCloud struct {
	Positions []r3.Vec
	Colors    []r3.Vec
}

// Size returns the number of points in the cloud.
func (p PointCloud) Size() int { return len(p.Positions) }

// Decode parses raw positions and colors into a PointCloud. It is a pure
// transform; the returned cloud does not alias the input.
func Decode(points, colors json.RawMessage) (PointCloud, error) {
	pos, err := parseTriples(points)
	if err != nil {
		return PointCloud{}, err
	}
	col, err := parseTriples(colors)
	if err != nil {
		return PointCloud{}, err
	}
	if len(pos) != len(col) {
		return PointCloud{}, fmt.Errorf("%w: %d points vs %d colors", ErrShapeMismatch, len(pos), len(col))
	}
	return PointCloud{Positions: pos, Colors: col}, nil
}

func parseTriples(raw json.RawMessage) ([]r3.Vec, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing array", ErrMalformed)
	}
	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	out := make([]r3.Vec, len(rows))
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("%w: entry %d has %d components", ErrShapeMismatch, i, len(row))
		}
		out[i] = r3.Vec{X: row[0], Y: row[1], Z: row[2]}
	}
	return out, nil
}
