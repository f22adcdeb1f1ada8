package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestServerConfigDefaults(t *testing.T) {
	var c ServerConfig
	c.SetDefaults()
	if c.Port != 8000 {
		t.Fatalf("port: got %d want 8000", c.Port)
	}
	if c.WSPath != "/ws/grasp" {
		t.Fatalf("ws path: got %q", c.WSPath)
	}
	if c.MaxGrasps != 20 {
		t.Fatalf("max grasps: got %d want 20", c.MaxGrasps)
	}
	if c.MaxGripperWidth != 0.1 || c.GripperHeight != 0.03 {
		t.Fatalf("gripper geometry: %v, %v", c.MaxGripperWidth, c.GripperHeight)
	}
	if len(c.AllowedOrigins) != 1 || c.AllowedOrigins[0] != "*" {
		t.Fatalf("origins: %v", c.AllowedOrigins)
	}
}

func TestServerConfigApplyEnv(t *testing.T) {
	t.Setenv("PORT", "9001")
	t.Setenv("METRICS_PORT", "9102")
	t.Setenv("CHECKPOINT_PATH", "/models/ckpt.tar")
	t.Setenv("MAX_GRASPS", "5")
	t.Setenv("TOP_DOWN_GRASP", "TRUE")
	t.Setenv("MAX_GRIPPER_WIDTH", "0.085")
	t.Setenv("ALLOWED_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("DRAIN_TIMEOUT", "90s")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "true")

	var c ServerConfig
	c.SetDefaults()
	c.ApplyEnv()

	if c.Port != 9001 {
		t.Fatalf("port: got %d", c.Port)
	}
	if c.MetricsAddr != ":9102" {
		t.Fatalf("metrics addr: got %q", c.MetricsAddr)
	}
	if c.CheckpointPath != "/models/ckpt.tar" {
		t.Fatalf("checkpoint: got %q", c.CheckpointPath)
	}
	if c.MaxGrasps != 5 {
		t.Fatalf("max grasps: got %d", c.MaxGrasps)
	}
	if !c.TopDownGrasp {
		t.Fatal("top down grasp not applied")
	}
	if c.MaxGripperWidth != 0.085 {
		t.Fatalf("gripper width: got %v", c.MaxGripperWidth)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "http://b.local" {
		t.Fatalf("origins: %v", c.AllowedOrigins)
	}
	if c.DrainTimeout != 90*time.Second {
		t.Fatalf("drain timeout: got %v", c.DrainTimeout)
	}
	if c.LogLevel != "debug" {
		t.Fatalf("log level: got %q", c.LogLevel)
	}
}

func TestServerConfigLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	data := []byte("port: 8443\nengine_url: http://runtime:7100\nmax_grasps: 10\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var c ServerConfig
	c.SetDefaults()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Port != 8443 || c.EngineURL != "http://runtime:7100" || c.MaxGrasps != 10 {
		t.Fatalf("config: %+v", c)
	}
}
