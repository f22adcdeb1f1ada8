// Package engine fronts the external grasp-detection model behind a
// narrow interface so the rest of the gateway can be tested against
// deterministic doubles.
package engine

import (
	"context"
	"errors"

	"github.com/dimensionalOS/anygrasp-sdk/internal/cloud"
	"github.com/dimensionalOS/anygrasp-sdk/internal/grasp"
	"github.com/dimensionalOS/anygrasp-sdk/internal/workspace"
)

var (
	// ErrNotReady is returned for calls made before the model load
	// completed. Callers never block on load; they fail fast and the
	// session stays open.
	ErrNotReady = errors.New("engine not ready")
	// ErrInference wraps internal engine failures. These are reported
	// to the client, never allowed to crash the process.
	ErrInference = errors.New("inference failed")
)

// Engine runs grasp detection over a point cloud restricted to the given
// workspace limits. Infer may block for hundreds of milliseconds to
// seconds; everything else in the pipeline is CPU-light.
type Engine interface {
	Ready() bool
	Infer(ctx context.Context, pc cloud.PointCloud, lims workspace.Limits) (grasp.Detection, error)
}

// serialized wraps an Engine behind a single-slot FIFO gate: at most one
// inference executes process-wide, callers queue in arrival order.
type serialized struct {
	engine Engine
	gate   *Gate
}

// Serialized returns e guarded by a single-slot admission gate. A caller
// whose context is cancelled while queued gives up its place; once an
// inference is admitted it runs to completion and the caller discards
// the result itself if no longer wanted.
func Serialized(e Engine) Engine {
	return &serialized{engine: e, gate: NewGate()}
}

func (s *serialized) Ready() bool { return s.engine.Ready() }

func (s *serialized) Infer(ctx context.Context, pc cloud.PointCloud, lims workspace.Limits) (grasp.Detection, error) {
	if err := s.gate.Acquire(ctx); err != nil {
		return grasp.Detection{}, err
	}
	defer s.gate.Release()
	// Model computation is not preemptible: a session disconnect must
	// not abort the call mid-inference, so the engine runs detached
	// from the session context.
	return s.engine.Infer(context.WithoutCancel(ctx), pc, lims)
}
