package server

import (
	"encoding/json"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/dimensionalOS/anygrasp-sdk/internal/engine"
	"github.com/dimensionalOS/anygrasp-sdk/internal/gateway"
	"github.com/dimensionalOS/anygrasp-sdk/internal/serverstate"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// HealthHandler reports liveness and whether the model finished loading.
func HealthHandler(eng engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"status":          "healthy",
			"anygrasp_loaded": eng.Ready(),
		})
	}
}

// IPHandler reports the host name, address and serving port so clients
// on the robot network can discover the gateway.
func IPHandler(port int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		addr := "127.0.0.1"
		if ips, err := net.LookupHost(hostname); err == nil && len(ips) > 0 {
			addr = ips[0]
		}
		writeJSON(w, map[string]string{
			"hostname":   hostname,
			"ip_address": addr,
			"port":       strconv.Itoa(port),
		})
	}
}

// StatusHandler reports a host snapshot. Inference is memory and CPU
// heavy, so the resource numbers sit next to the session count.
func StatusHandler(reg *gateway.Registry, eng engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := map[string]interface{}{
			"state":        serverstate.GetState(),
			"engine_ready": eng.Ready(),
			"sessions":     reg.Count(),
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			out["mem_used_percent"] = vm.UsedPercent
		}
		if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
			out["cpu_percent"] = pct[0]
		}
		writeJSON(w, out)
	}
}
