package config

import (
	"flag"
	"strconv"
)

// ClientConfig holds configuration for the graspcli tool.
type ClientConfig struct {
	ServerURL string
	CloudFile string
	Points    int
}

// BindFlags populates the struct with defaults from environment variables and
// binds command line flags so main can call flag.Parse().
func (c *ClientConfig) BindFlags() {
	c.ServerURL = getEnv("SERVER_URL", "ws://localhost:8000/ws/grasp")
	c.CloudFile = getEnv("CLOUD_FILE", "")
	if v, err := strconv.Atoi(getEnv("POINTS", "512")); err == nil {
		c.Points = v
	} else {
		c.Points = 512
	}

	flag.StringVar(&c.ServerURL, "server-url", c.ServerURL, "gateway websocket url")
	flag.StringVar(&c.CloudFile, "cloud", c.CloudFile, "JSON point cloud file; omit to send a synthetic cloud")
	flag.IntVar(&c.Points, "points", c.Points, "number of points in the synthetic cloud")
}
