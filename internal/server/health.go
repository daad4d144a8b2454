package server

import (
	"runtime"
	"time"

	"github.com/life-stream-dev/apm-demo/internal/utils"
)

type HealthResponse struct {
	Status      string            `json:"status"`
	Uptime      int64             `json:"uptime"`
	UptimeHuman string            `json:"uptimeHuman"`
	Memory      uint64            `json:"memory"`
	Goroutines  int               `json:"goroutines"`
	Stores      map[string]string `json:"stores,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

// healthSnapshot reports free heap as idle spans not yet returned to the OS.
func healthSnapshot(startedAt time.Time, stores map[string]string) HealthResponse {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	now := time.Now()
	uptime := now.Sub(startedAt)
	return HealthResponse{
		Status:      "UP",
		Uptime:      uptime.Milliseconds(),
		UptimeHuman: utils.FormatUptime(uptime),
		Memory:      stats.HeapIdle - stats.HeapReleased,
		Goroutines:  runtime.NumGoroutine(),
		Stores:      stores,
		Timestamp:   now,
	}
}
