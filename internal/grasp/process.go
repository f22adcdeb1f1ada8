package grasp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Near-duplicate thresholds for the fallback suppression, matching the
// defaults of the engine's own grasp NMS: two candidates are duplicates
// when both their translations and their orientations are this close.
const (
	nmsTranslationThresh = 0.03                   // meters
	nmsRotationThresh    = 30.0 / 180.0 * math.Pi // radians
)

// Process turns a raw engine detection into the response sequence:
// near-duplicate suppression (unless the engine already did it), stable
// sort by descending score, truncation to maxCount. maxCount <= 0 means
// no truncation. The result is never nil so it encodes as a JSON array.
func Process(det Detection, maxCount int) []Candidate {
	out := make([]Candidate, len(det.Grasps))
	copy(out, det.Grasps)

	// Stable keeps engine order for equal scores, so results stay
	// deterministic across runs.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if !det.Suppressed {
		out = suppress(out)
	}
	if maxCount > 0 && len(out) > maxCount {
		out = out[:maxCount]
	}
	return out
}

// suppress drops candidates that are near-duplicates of a higher-scoring
// candidate. Input must already be sorted by descending score.
func suppress(sorted []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		dup := false
		for _, k := range kept {
			if isDuplicate(k, c) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, c)
		}
	}
	return kept
}

func isDuplicate(a, b Candidate) bool {
	ta := r3.Vec{X: a.Translation[0], Y: a.Translation[1], Z: a.Translation[2]}
	tb := r3.Vec{X: b.Translation[0], Y: b.Translation[1], Z: b.Translation[2]}
	if r3.Norm(r3.Sub(ta, tb)) > nmsTranslationThresh {
		return false
	}
	return rotationAngle(a.RotationMatrix, b.RotationMatrix) <= nmsRotationThresh
}

// rotationAngle returns the geodesic angle between two orthonormal
// rotation matrices.
func rotationAngle(a, b [3][3]float64) float64 {
	ra := denseOf(a)
	rb := denseOf(b)
	var rel mat.Dense
	rel.Mul(ra.T(), rb)
	// angle = acos((trace - 1) / 2), clamped against round-off.
	cos := (rel.At(0, 0) + rel.At(1, 1) + rel.At(2, 2) - 1) / 2
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

func denseOf(m [3][3]float64) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})
}
