package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the graspgate server. Values are
// resolved once at startup and treated as immutable afterwards.
type ServerConfig struct {
	LogLevel       string        `yaml:"log_level"`
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MetricsAddr    string        `yaml:"metrics_addr"`
	WSPath         string        `yaml:"ws_path"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ConfigFile     string        `yaml:"-"`
	DrainTimeout   time.Duration `yaml:"drain_timeout"`
	RedisAddr      string        `yaml:"redis_addr"`

	// Grasp engine runtime.
	EngineURL       string  `yaml:"engine_url"`
	CheckpointPath  string  `yaml:"checkpoint_path"`
	MaxGripperWidth float64 `yaml:"max_gripper_width"`
	GripperHeight   float64 `yaml:"gripper_height"`
	TopDownGrasp    bool    `yaml:"top_down_grasp"`
	MaxGrasps       int     `yaml:"max_grasps"`
}

// SetDefaults initializes c with built-in defaults.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = fmt.Sprintf(":%d", c.Port)
	}
	if c.WSPath == "" {
		c.WSPath = "/ws/grasp"
	}
	if c.AllowedOrigins == nil {
		c.AllowedOrigins = []string{"*"}
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 5 * time.Minute
	}
	if c.EngineURL == "" {
		c.EngineURL = "http://127.0.0.1:7100"
	}
	if c.MaxGripperWidth == 0 {
		c.MaxGripperWidth = 0.1
	}
	if c.GripperHeight == 0 {
		c.GripperHeight = 0.03
	}
	if c.MaxGrasps == 0 {
		c.MaxGrasps = 20
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := getEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	} else if strings.EqualFold(getEnv("DEBUG", ""), "true") {
		c.LogLevel = "debug"
	}
	if v := getEnv("HOST", ""); v != "" {
		c.Host = v
	}
	if v := getEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
			c.MetricsAddr = fmt.Sprintf(":%d", n)
		}
	}
	if v := getEnv("METRICS_PORT", ""); v != "" {
		if strings.Contains(v, ":") {
			c.MetricsAddr = v
		} else {
			c.MetricsAddr = ":" + v
		}
	}
	if v := getEnv("WS_PATH", ""); v != "" {
		c.WSPath = v
	}
	if v := getEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	if v := getEnv("DRAIN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DrainTimeout = d
		}
	}
	if v := getEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := getEnv("ENGINE_URL", ""); v != "" {
		c.EngineURL = v
	}
	if v := getEnv("CHECKPOINT_PATH", ""); v != "" {
		c.CheckpointPath = v
	}
	if v := getEnv("MAX_GRIPPER_WIDTH", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.MaxGripperWidth = f
		}
	}
	if v := getEnv("GRIPPER_HEIGHT", ""); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.GripperHeight = f
		}
	}
	if v := getEnv("TOP_DOWN_GRASP", ""); v != "" {
		c.TopDownGrasp = strings.EqualFold(v, "true")
	}
	if v := getEnv("MAX_GRASPS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxGrasps = n
		}
	}
}

// BindFlags binds command line flags using the current config values as
// defaults so main can call flag.Parse().
func (c *ServerConfig) BindFlags() {
	flag.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	flag.StringVar(&c.Host, "host", c.Host, "listen address for the public API")
	flag.IntVar(&c.Port, "port", c.Port, "HTTP listen port for the public API")
	flag.StringVar(&c.MetricsAddr, "metrics-port", c.MetricsAddr, "Prometheus metrics listen address or port; defaults to the value of --port")
	flag.StringVar(&c.WSPath, "ws-path", c.WSPath, "path clients use to establish WebSocket sessions")
	flag.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
	flag.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "time to wait for in-flight sessions on shutdown (0 to exit immediately)")
	flag.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for shared gateway state")
	flag.StringVar(&c.EngineURL, "engine-url", c.EngineURL, "base URL of the grasp engine runtime")
	flag.StringVar(&c.CheckpointPath, "checkpoint-path", c.CheckpointPath, "model checkpoint path handed to the engine at load time")
	flag.Float64Var(&c.MaxGripperWidth, "max-gripper-width", c.MaxGripperWidth, "maximum gripper width in meters")
	flag.Float64Var(&c.GripperHeight, "gripper-height", c.GripperHeight, "gripper height in meters")
	flag.BoolVar(&c.TopDownGrasp, "top-down-grasp", c.TopDownGrasp, "restrict the engine to top-down grasps")
	flag.IntVar(&c.MaxGrasps, "max-grasps", c.MaxGrasps, "maximum number of grasps returned per request")
}

// LoadFile populates the config from a YAML file.
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
