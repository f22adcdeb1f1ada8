package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dimensionalOS/anygrasp-sdk/internal/cloud"
	"github.com/dimensionalOS/anygrasp-sdk/internal/engine"
	"github.com/dimensionalOS/anygrasp-sdk/internal/grasp"
	"github.com/dimensionalOS/anygrasp-sdk/internal/logx"
	"github.com/dimensionalOS/anygrasp-sdk/internal/metrics"
	"github.com/dimensionalOS/anygrasp-sdk/internal/workspace"
)

// request is the wire message a client sends on an open session.
type request struct {
	Points json.RawMessage `json:"points"`
	Colors json.RawMessage `json:"colors"`
	Lims   []float64       `json:"lims"`
}

// errorPayload is the wire message for any pipeline failure. The session
// stays open after it is sent.
type errorPayload struct {
	Error string `json:"error"`
}

// runPipeline processes one message to completion:
// decode, validate limits, infer, post-process. It returns either the
// ranked candidate list or an error payload; it never panics out.
func runPipeline(ctx context.Context, eng engine.Engine, maxGrasps int, data []byte) (result interface{}) {
	defer func() {
		// An unexpected failure is reported like an inference failure;
		// the listening process must survive it.
		if rec := recover(); rec != nil {
			logx.Log.Error().Interface("panic", rec).Msg("pipeline panic")
			metrics.RecordRequest("error")
			result = errorPayload{Error: fmt.Sprintf("inference failed: %v", rec)}
		}
	}()

	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		metrics.RecordRequest("error")
		return errorPayload{Error: fmt.Sprintf("%v: %v", cloud.ErrMalformed, err)}
	}
	pc, err := cloud.Decode(req.Points, req.Colors)
	if err != nil {
		metrics.RecordRequest("error")
		return errorPayload{Error: err.Error()}
	}
	lims, err := workspace.Parse(req.Lims)
	if err != nil {
		metrics.RecordRequest("error")
		return errorPayload{Error: err.Error()}
	}
	metrics.ObservePoints(pc.Size())

	start := time.Now()
	det, err := eng.Infer(ctx, pc, lims)
	if err != nil {
		metrics.RecordRequest("error")
		return errorPayload{Error: err.Error()}
	}
	metrics.ObserveInference(time.Since(start))

	grasps := grasp.Process(det, maxGrasps)
	metrics.RecordRequest("success")
	metrics.ObserveCandidates(len(grasps))
	return grasps
}
