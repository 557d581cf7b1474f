package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v4/process"
)

var (
	PID      process.Process
	memUsage prometheus.Gauge
	cpuUsage prometheus.Gauge

	framesTotal   prometheus.Counter
	commandsTotal prometheus.Counter
	sendFailures  prometheus.Counter
	lockState     prometheus.Gauge
)

var srv *http.Server

func prom(port int) {
	registry := prometheus.NewRegistry()
	memUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "memory_usage_Megabytes",
		Help: "Memory usage in Megabytes",
	})

	cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cpu_usage_percent",
		Help: "CPU usage in percent",
	})

	framesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "frames_processed_total",
		Help: "Total number of perception frames processed by the control loop",
	})

	commandsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "commands_sent_total",
		Help: "Total number of vehicle commands delivered",
	})

	sendFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "command_send_failures_total",
		Help: "Total number of vehicle command deliveries that failed",
	})

	lockState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lock_state",
		Help: "Identity lock state: 0 unlocked, 1 grace, 2 locked",
	})

	registry.MustRegister(memUsage, cpuUsage, framesTotal, commandsTotal, sendFailures, lockState)
	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: nil,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Prometheus server ListenAndServe error: %v\n", err)
		}
	}()
}

// FrameProcessed bumps the frame counter. Safe before StartMon.
func FrameProcessed() {
	if framesTotal != nil {
		framesTotal.Inc()
	}
}

// CommandSent bumps the delivered-command counter. Safe before StartMon.
func CommandSent() {
	if commandsTotal != nil {
		commandsTotal.Inc()
	}
}

// CommandFailed bumps the failed-delivery counter. Safe before StartMon.
func CommandFailed() {
	if sendFailures != nil {
		sendFailures.Inc()
	}
}

// SetLockState publishes the lock phase (0 unlocked, 1 grace, 2 locked).
func SetLockState(phase int) {
	if lockState != nil {
		lockState.Set(float64(phase))
	}
}

func CheckProcessInfo() {
	MemInfo, _ := PID.MemoryInfo()
	var MemMB = MemInfo.RSS / 1024 / 1024
	CPUPercent, _ := PID.CPUPercent()
	CPUPercentFloat := math.Round(CPUPercent*100) / 100
	memUsage.Set(float64(MemMB))
	cpuUsage.Set(CPUPercentFloat)
}

func GotPID() {
	pid := os.Getpid()
	i32Pid := int32(pid)
	PID.Pid = i32Pid
}

// StartMon serves the metrics registry and samples process usage until ctx
// is cancelled.
func StartMon(port int, ctx context.Context) {
	PID = process.Process{}
	GotPID()
	go prom(port)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
checkPcs:
	for {
		select {
		case <-ctx.Done():
			break checkPcs
		case <-ticker.C:
			CheckProcessInfo()
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		fmt.Printf("Prometheus server Shutdown error: %v\n", err)
	}
}
