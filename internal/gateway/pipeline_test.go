package gateway

import (
	"context"
	"strings"
	"testing"

	"github.com/dimensionalOS/anygrasp-sdk/internal/cloud"
	"github.com/dimensionalOS/anygrasp-sdk/internal/grasp"
	"github.com/dimensionalOS/anygrasp-sdk/internal/workspace"
)

func TestPipelineRecoversEnginePanic(t *testing.T) {
	eng := &fakeEngine{fn: func(context.Context, cloud.PointCloud, workspace.Limits) (grasp.Detection, error) {
		panic("cuda device lost")
	}}
	resp := runPipeline(context.Background(), eng, 20, []byte(`{"points": [[0,0,0.4]], "colors": [[1,0,0]]}`))
	ep, ok := resp.(errorPayload)
	if !ok {
		t.Fatalf("expected error payload, got %T", resp)
	}
	if !strings.Contains(ep.Error, "cuda device lost") {
		t.Fatalf("diagnostic lost: %q", ep.Error)
	}
}

func TestPipelineRejectsNonObjectMessage(t *testing.T) {
	eng := &fakeEngine{}
	resp := runPipeline(context.Background(), eng, 20, []byte(`"ping"`))
	if _, ok := resp.(errorPayload); !ok {
		t.Fatalf("expected error payload, got %T", resp)
	}
	if eng.calls.Load() != 0 {
		t.Fatal("engine must not run for malformed messages")
	}
}

func TestPipelineTruncatesToMaxGrasps(t *testing.T) {
	eng := &fakeEngine{fn: func(context.Context, cloud.PointCloud, workspace.Limits) (grasp.Detection, error) {
		det := grasp.Detection{Suppressed: true}
		for i := 0; i < 10; i++ {
			det.Grasps = append(det.Grasps, grasp.Candidate{Score: float64(i), Translation: [3]float64{float64(i), 0, 0}})
		}
		return det, nil
	}}
	resp := runPipeline(context.Background(), eng, 3, []byte(`{"points": [[0,0,0.4]], "colors": [[1,0,0]]}`))
	grasps, ok := resp.([]grasp.Candidate)
	if !ok {
		t.Fatalf("expected grasp list, got %T", resp)
	}
	if len(grasps) != 3 {
		t.Fatalf("got %d grasps want 3", len(grasps))
	}
	if grasps[0].Score != 9 {
		t.Fatalf("best score: got %v want 9", grasps[0].Score)
	}
}
