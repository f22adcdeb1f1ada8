package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/dimensionalOS/anygrasp-sdk/internal/cloud"
	"github.com/dimensionalOS/anygrasp-sdk/internal/grasp"
	"github.com/dimensionalOS/anygrasp-sdk/internal/logx"
	"github.com/dimensionalOS/anygrasp-sdk/internal/workspace"
)

// RuntimeOptions configure the connection to the grasp runtime and the
// model loaded into it. Gripper geometry and the top-down restriction
// are process-wide, fixed at load time.
type RuntimeOptions struct {
	BaseURL         string
	CheckpointPath  string
	MaxGripperWidth float64
	GripperHeight   float64
	TopDownGrasp    bool
	HTTPClient      *http.Client
}

// Runtime talks to the external AnyGrasp runtime over HTTP. The model is
// loaded exactly once; Infer fails with ErrNotReady until the load
// completes.
type Runtime struct {
	opts   RuntimeOptions
	client *http.Client
	ready  atomic.Bool
}

// NewRuntime returns an unloaded runtime adapter.
func NewRuntime(opts RuntimeOptions) *Runtime {
	c := opts.HTTPClient
	if c == nil {
		// No overall timeout: inference latency is unbounded by design
		// and load can take many seconds on a cold GPU.
		c = &http.Client{}
	}
	return &Runtime{opts: opts, client: c}
}

type loadRequest struct {
	CheckpointPath  string  `json:"checkpoint_path"`
	MaxGripperWidth float64 `json:"max_gripper_width"`
	GripperHeight   float64 `json:"gripper_height"`
	TopDownGrasp    bool    `json:"top_down_grasp"`
}

type detectRequest struct {
	Points [][3]float64 `json:"points"`
	Colors [][3]float64 `json:"colors"`
	Lims   [6]float64   `json:"lims"`

	// Fixed gateway policy, not user-configurable per request.
	ApplyObjectMask    bool `json:"apply_object_mask"`
	DenseGrasp         bool `json:"dense_grasp"`
	CollisionDetection bool `json:"collision_detection"`
}

type detectResponse struct {
	Grasps []grasp.Candidate `json:"grasps"`
	NMS    bool              `json:"nms"`
}

type runtimeError struct {
	Error string `json:"error"`
}

// Load uploads the model configuration and blocks until the runtime has
// the checkpoint in memory. Call once at startup; loading per request
// would cost seconds per call.
func (r *Runtime) Load(ctx context.Context) error {
	body := loadRequest{
		CheckpointPath:  r.opts.CheckpointPath,
		MaxGripperWidth: r.opts.MaxGripperWidth,
		GripperHeight:   r.opts.GripperHeight,
		TopDownGrasp:    r.opts.TopDownGrasp,
	}
	start := time.Now()
	if err := r.post(ctx, "/v1/load", body, nil); err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	r.ready.Store(true)
	logx.Log.Info().Str("checkpoint", r.opts.CheckpointPath).Dur("took", time.Since(start)).Msg("model loaded")
	return nil
}

// Ready reports whether the model finished loading.
func (r *Runtime) Ready() bool { return r.ready.Load() }

// Infer runs one detection pass. Object-mask filtering and collision
// detection are always requested; dense-grasp mode never is.
func (r *Runtime) Infer(ctx context.Context, pc cloud.PointCloud, lims workspace.Limits) (grasp.Detection, error) {
	if !r.ready.Load() {
		return grasp.Detection{}, ErrNotReady
	}
	req := detectRequest{
		Points:             make([][3]float64, pc.Size()),
		Colors:             make([][3]float64, pc.Size()),
		Lims:               [6]float64(lims),
		ApplyObjectMask:    true,
		DenseGrasp:         false,
		CollisionDetection: true,
	}
	for i, p := range pc.Positions {
		req.Points[i] = [3]float64{p.X, p.Y, p.Z}
	}
	for i, c := range pc.Colors {
		req.Colors[i] = [3]float64{c.X, c.Y, c.Z}
	}
	var resp detectResponse
	if err := r.post(ctx, "/v1/detect", req, &resp); err != nil {
		return grasp.Detection{}, err
	}
	return grasp.Detection{Grasps: resp.Grasps, Suppressed: resp.NMS}, nil
}

func (r *Runtime) post(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encode request: %v", ErrInference, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.opts.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInference, err)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInference, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		var re runtimeError
		if body, err := io.ReadAll(res.Body); err == nil && json.Unmarshal(body, &re) == nil && re.Error != "" {
			return fmt.Errorf("%w: %s", ErrInference, re.Error)
		}
		return fmt.Errorf("%w: runtime returned status %d", ErrInference, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrInference, err)
	}
	return nil
}
