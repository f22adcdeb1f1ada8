// Package workspace validates the axis-aligned box a request restricts
// grasp detection to. Clipping against the box is done by the engine;
// this package only owns defaulting and validation of the 6-tuple.
package workspace

import (
	"errors"
	"fmt"
)

// ErrInvalidLimits reports a workspace box with min > max on some axis.
var ErrInvalidLimits = errors.New("invalid workspace limits")

// Limits is an axis-aligned box in the sensor frame:
// [xmin, xmax, ymin, ymax, zmin, zmax], meters.
type Limits [6]float64

// Default is substituted when a request omits workspace limits.
var Default = Limits{-0.19, 0.12, 0.02, 0.15, 0.0, 1.0}

// Parse validates raw limits from a request. A nil slice yields Default.
func Parse(raw []float64) (Limits, error) {
	if raw == nil {
		return Default, nil
	}
	if len(raw) != 6 {
		return Limits{}, fmt.Errorf("%w: expected 6 values, got %d", ErrInvalidLimits, len(raw))
	}
	var l Limits
	copy(l[:], raw)
	for axis := 0; axis < 3; axis++ {
		if l[2*axis] > l[2*axis+1] {
			return Limits{}, fmt.Errorf("%w: axis %d has min %v > max %v", ErrInvalidLimits, axis, l[2*axis], l[2*axis+1])
		}
	}
	return l, nil
}
