package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/lpernett/godotenv"

	"github.com/dimensionalOS/anygrasp-sdk/internal/config"
	"github.com/dimensionalOS/anygrasp-sdk/internal/logx"
	"github.com/dimensionalOS/anygrasp-sdk/internal/reconnect"
)

type request struct {
	Points [][3]float64 `json:"points"`
	Colors [][3]float64 `json:"colors"`
	Lims   []float64    `json:"lims,omitempty"`
}

type candidate struct {
	Score          float64       `json:"score"`
	Width          float64       `json:"width"`
	Height         float64       `json:"height"`
	Depth          float64       `json:"depth"`
	Translation    [3]float64    `json:"translation"`
	RotationMatrix [3][3]float64 `json:"rotation_matrix"`
	ObjectID       int           `json:"object_id"`
}

func loadCloud(path string) (request, error) {
	var req request
	b, err := os.ReadFile(path)
	if err != nil {
		return req, err
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return req, fmt.Errorf("parse %s: %w", path, err)
	}
	return req, nil
}

// syntheticCloud scatters n points over a small tabletop patch in front
// of the sensor, enough to exercise the full request path.
func syntheticCloud(n int) request {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	req := request{
		Points: make([][3]float64, n),
		Colors: make([][3]float64, n),
	}
	for i := 0; i < n; i++ {
		req.Points[i] = [3]float64{
			-0.19 + rng.Float64()*0.31,
			0.02 + rng.Float64()*0.13,
			0.3 + rng.Float64()*0.4,
		}
		req.Colors[i] = [3]float64{rng.Float64(), rng.Float64(), rng.Float64()}
	}
	return req
}

func dial(ctx context.Context, url string) (*websocket.Conn, error) {
	var lastErr error
	for attempt := 0; attempt < len(reconnect.Schedule); attempt++ {
		conn, _, err := websocket.Dial(ctx, url, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		d := reconnect.Delay(attempt)
		logx.Log.Warn().Err(err).Dur("retry_in", d).Msg("dial failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
	return nil, lastErr
}

func display(grasps []candidate) {
	fmt.Printf("\nReceived %d grasps\n", len(grasps))
	if len(grasps) == 0 {
		return
	}
	show := len(grasps)
	if show > 3 {
		show = 3
	}
	for i := 0; i < show; i++ {
		g := grasps[i]
		fmt.Printf("\nGrasp #%d\n", i+1)
		fmt.Printf("  score: %.4f  width: %.4f  height: %.4f  depth: %.4f\n", g.Score, g.Width, g.Height, g.Depth)
		fmt.Printf("  translation: %v\n", g.Translation)
		fmt.Printf("  rotation:\n")
		for _, row := range g.RotationMatrix {
			fmt.Printf("    %v\n", row)
		}
	}
	fmt.Printf("\nAll scores:")
	for _, g := range grasps {
		fmt.Printf(" %.4f", g.Score)
	}
	fmt.Println()
}

func main() {
	_ = godotenv.Load()

	var cfg config.ClientConfig
	cfg.BindFlags()
	flag.Parse()

	var req request
	var err error
	if cfg.CloudFile != "" {
		req, err = loadCloud(cfg.CloudFile)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("load cloud")
		}
	} else {
		req = syntheticCloud(cfg.Points)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	conn, err := dial(ctx, cfg.ServerURL)
	if err != nil {
		logx.Log.Fatal().Err(err).Str("url", cfg.ServerURL).Msg("connect")
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()
	conn.SetReadLimit(64 << 20)

	body, err := json.Marshal(req)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("encode request")
	}
	logx.Log.Info().Int("points", len(req.Points)).Msg("sending point cloud")
	start := time.Now()
	if err := conn.Write(ctx, websocket.MessageText, body); err != nil {
		logx.Log.Fatal().Err(err).Msg("send")
	}
	_, data, err := conn.Read(ctx)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("receive")
	}
	logx.Log.Info().Dur("took", time.Since(start)).Msg("response received")

	var grasps []candidate
	if err := json.Unmarshal(data, &grasps); err != nil {
		var remote struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &remote) == nil && remote.Error != "" {
			logx.Log.Fatal().Str("error", remote.Error).Msg("gateway rejected request")
		}
		logx.Log.Fatal().Err(err).Msg("decode response")
	}
	display(grasps)
}
