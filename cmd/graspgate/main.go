package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lpernett/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dimensionalOS/anygrasp-sdk/internal/config"
	"github.com/dimensionalOS/anygrasp-sdk/internal/engine"
	"github.com/dimensionalOS/anygrasp-sdk/internal/gateway"
	"github.com/dimensionalOS/anygrasp-sdk/internal/logx"
	"github.com/dimensionalOS/anygrasp-sdk/internal/metrics"
	"github.com/dimensionalOS/anygrasp-sdk/internal/server"
	"github.com/dimensionalOS/anygrasp-sdk/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func main() {
	// Local .env files configure lab deployments; absence is fine.
	_ = godotenv.Load()

	showVersion := flag.Bool("version", false, "print version and exit")
	var cfg config.ServerConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	cfg.BindFlags()
	flag.Usage = func() {
		_, _ = fmt.Fprintf(flag.CommandLine.Output(), "graspgate version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		flag.PrintDefaults()
	}
	flag.Parse()
	if *showVersion {
		fmt.Printf("graspgate version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logx.Log.Fatal().Err(err).Str("path", cfg.ConfigFile).Msg("load config")
		}
	}
	logx.Configure(cfg.LogLevel)
	metrics.SetServerBuildInfo(version, buildSHA, buildDate)

	if cfg.RedisAddr != "" {
		rs, err := serverstate.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("connect redis")
		}
		serverstate.UseStore(rs)
		logx.Log.Info().Str("addr", cfg.RedisAddr).Msg("using redis state store")
	}
	serverstate.SetState("loading")

	rt := engine.NewRuntime(engine.RuntimeOptions{
		BaseURL:         cfg.EngineURL,
		CheckpointPath:  cfg.CheckpointPath,
		MaxGripperWidth: cfg.MaxGripperWidth,
		GripperHeight:   cfg.GripperHeight,
		TopDownGrasp:    cfg.TopDownGrasp,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		logx.Log.Info().Str("checkpoint", cfg.CheckpointPath).Msg("loading grasp model")
		if err := rt.Load(ctx); err != nil {
			logx.Log.Error().Err(err).Msg("model load failed; sessions will see engine not ready")
			return
		}
		serverstate.SetState("ready")
	}()

	reg := gateway.NewRegistry()
	handler := server.New(cfg, reg, engine.Serialized(rt))
	srv := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}
	var metricsSrv *http.Server
	if cfg.MetricsAddr != fmt.Sprintf(":%d", cfg.Port) {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if serverstate.IsDraining() || cfg.DrainTimeout == 0 {
				logx.Log.Warn().Msg("termination requested")
				cancel()
				return
			}
			serverstate.StartDrain()
			logx.Log.Info().Dur("timeout", cfg.DrainTimeout).Msg("draining; send SIGTERM again to terminate immediately")
			go func(d time.Duration) {
				deadline := time.Now().Add(d)
				for time.Now().Before(deadline) {
					if reg.Count() == 0 {
						break
					}
					time.Sleep(time.Second)
				}
				if serverstate.IsDraining() {
					cancel()
				}
			}(cfg.DrainTimeout)
		}
	}()
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			logx.Log.Error().Err(err).Msg("server shutdown")
		}
	}()
	if metricsSrv != nil {
		go func() {
			<-ctx.Done()
			if err := metricsSrv.Shutdown(context.Background()); err != nil {
				logx.Log.Error().Err(err).Msg("metrics server shutdown")
			}
		}()
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	logx.Log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("ws_path", cfg.WSPath).Msg("gateway starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}
